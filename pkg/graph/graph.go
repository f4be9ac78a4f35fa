package graph

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/patternmark/pkg/errors"
)

// =============================================================================
// Diagram Serialization API
// =============================================================================

// MarshalDiagram converts a Diagram to indented JSON bytes.
func MarshalDiagram(d Diagram) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDiagram(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDiagramFile writes a Diagram to a JSON file.
// The file is created with 0644 permissions.
func WriteDiagramFile(d Diagram, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create %s", path)
	}
	defer f.Close()
	return WriteDiagram(d, f)
}

// WriteDiagram writes a Diagram as JSON to an io.Writer.
func WriteDiagram(d Diagram, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode diagram")
	}
	return nil
}

// ReadDiagramFile reads and validates a JSON diagram file.
func ReadDiagramFile(path string) (Diagram, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Diagram{}, errors.Wrap(errors.ErrCodeNotFound, err, "diagram %s not found", path)
		}
		return Diagram{}, errors.Wrap(errors.ErrCodeStorage, err, "open %s", path)
	}
	defer f.Close()
	return ReadDiagram(f)
}

// ReadDiagram decodes and validates a JSON diagram from an io.Reader.
// Use ReadDiagramFile for files or pass bytes.NewReader for in-memory data.
func ReadDiagram(r io.Reader) (Diagram, error) {
	var d Diagram
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Diagram{}, errors.Wrap(errors.ErrCodeInvalidDiagram, err, "decode diagram")
	}
	if err := d.Validate(); err != nil {
		return Diagram{}, err
	}
	return d, nil
}
