// Package graph provides the node-link diagram format that annotations are
// drawn over, plus pure connectivity queries on it.
//
// The annotation store treats node ids as opaque strings and never consults
// a diagram. This package exists for the outer surfaces (CLI picker, HTTP
// API) that need to list nodes or suggest extension candidates.
//
// # Diagram Format
//
// Diagrams use a simple node-link JSON format:
//
//	{
//	  "nodes": [{"id": "checkout", "label": "Checkout"}, {"id": "test"}],
//	  "edges": [{"from": "checkout", "to": "test"}]
//	}
//
// Common operations:
//
//	d, _ := graph.ReadDiagramFile("pipeline.json") // File → Diagram
//	graph.WriteDiagramFile(d, "out.json")          // Diagram → File
//	data, _ := graph.MarshalDiagram(d)             // Diagram → []byte
//
// Edges are directed in the file but connectivity queries ignore direction.
//
// # Connectivity
//
// [ConnectedNodeIDs] returns every node adjacent to a selection that is not
// itself selected. The CLI and HTTP surfaces use it to highlight candidates
// for growing an annotation:
//
//	graph.ConnectedNodeIDs([]string{"checkout"}, d.Edges) // ["test"]
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
