// Package pkg provides the core libraries for Patternmark, an annotation
// state store for labeling groups of diagram nodes with pattern types.
//
// # Overview
//
// A diagram (nodes and edges) is loaded read-only. Users select nodes,
// classify the selection with a pattern type and subtype, and the resulting
// annotations are persisted as a versioned JSON document. The pkg directory
// is organized into three areas:
//
//  1. Domain - [annotation], [store], [graph]
//  2. Persistence - [docstore], [session]
//  3. Support - [errors], [observability], [httputil], [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	CLI command / HTTP request
//	         ↓
//	    [session] package (open a named document)
//	         ↓
//	    [store] package (selection, annotations, preferences)
//	         ↓
//	    [docstore] package (file, sqlite, postgres, redis, mongo, s3)
//
// # Quick Start
//
//	docs := docstore.NewMemoryStore()
//	sess, err := session.Open(ctx, docs, "checkout-flow")
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	sess.Store.SetSelectionMode(true)
//	sess.Store.SelectNodes([]string{"build", "test"})
//	id, err := sess.Store.CreateAnnotation(
//	    sess.Store.Selection().SelectedNodeIDs,
//	    annotation.PatternCICD, "testing", "")
//
//	saved, err := sess.Save(ctx)
//
// # Main Packages
//
// [annotation] - Annotation records, pattern types, the default color scheme
// and record validation.
//
// [store] - The authoritative state aggregate: annotation CRUD, the selection
// state machine, UI state, preferences, change notification and the JSON
// document format.
//
// [graph] - Read-only diagram input and connected-node discovery.
//
// [docstore] - Named document storage with file, memory, SQL, Redis, MongoDB
// and S3 backends.
//
// [session] - Binds a store to one stored document and skips redundant saves.
//
// [observability] - Hook interfaces for store and storage events, with a
// Prometheus implementation in observability/prom.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -run Example ./pkg/...       # Examples only
//	go test -tags integration ./pkg/...  # Include integration tests
//
// [annotation]: https://pkg.go.dev/github.com/matzehuels/patternmark/pkg/annotation
// [store]: https://pkg.go.dev/github.com/matzehuels/patternmark/pkg/store
// [graph]: https://pkg.go.dev/github.com/matzehuels/patternmark/pkg/graph
// [docstore]: https://pkg.go.dev/github.com/matzehuels/patternmark/pkg/docstore
// [session]: https://pkg.go.dev/github.com/matzehuels/patternmark/pkg/session
// [errors]: https://pkg.go.dev/github.com/matzehuels/patternmark/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/patternmark/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/matzehuels/patternmark/pkg/httputil
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/patternmark/pkg/buildinfo
package pkg
