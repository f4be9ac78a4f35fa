package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/patternmark/pkg/annotation"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)
	logger.Info("saved document", "name", "flow")

	out := buf.String()
	if !strings.Contains(out, "saved document") || !strings.Contains(out, "name=flow") {
		t.Errorf("output = %q", out)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		debug   bool
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, false, true},
		{"debug at info level", log.InfoLevel, true, false},
		{"debug at debug level", log.DebugLevel, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			if tt.debug {
				logger.Debug("state changed")
			} else {
				logger.Info("state changed")
			}
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))

	time.Sleep(10 * time.Millisecond)
	prog.done("Saved flow")

	if !bytes.Contains(buf.Bytes(), []byte("Saved flow (")) {
		t.Errorf("output = %q, want message with duration", buf.String())
	}
}

func TestAnnotationFields(t *testing.T) {
	a := annotation.Annotation{
		ID:             "ann_1",
		NodeIDs:        []string{"build", "test"},
		PatternType:    annotation.PatternCICD,
		PatternSubtype: "testing",
	}

	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("created annotation", annotationFields(a)...)

	for _, want := range []string{"id=ann_1", "type=CICD", "subtype=testing", "nodes=2"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output %q lacks %s", buf.String(), want)
		}
	}
}

func TestLoggerFromContext(t *testing.T) {
	custom := newLogger(io.Discard, log.InfoLevel)

	tests := []struct {
		name string
		ctx  context.Context
		want *log.Logger
	}{
		{"attached", withLogger(context.Background(), custom), custom},
		{"missing", context.Background(), log.Default()},
		{"nil context", nil, log.Default()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := loggerFromContext(tt.ctx); got != tt.want {
				t.Errorf("loggerFromContext() = %p, want %p", got, tt.want)
			}
		})
	}
}

func TestCLISetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug logged at info level: %q", buf.String())
	}

	c.SetLogLevel(LogDebug)
	c.Logger.Debug("state changed", "annotations", 1)
	if !bytes.Contains(buf.Bytes(), []byte("state changed")) {
		t.Errorf("debug not logged after SetLogLevel: %q", buf.String())
	}
}

func TestRootCommandAttachesLogger(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	var got *log.Logger
	probe := &cobra.Command{
		Use: "probe",
		Run: func(cmd *cobra.Command, args []string) { got = loggerFromContext(cmd.Context()) },
	}
	root.AddCommand(probe)
	root.SetArgs([]string{"probe"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got != c.Logger {
		t.Error("command context does not carry the CLI logger")
	}
}
