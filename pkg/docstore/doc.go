// Package docstore persists annotation documents under short names.
//
// A document is an opaque byte payload, in practice the JSON produced by
// store.Serialize. The [Store] interface is deliberately small so that the
// same CLI and HTTP surfaces can run against very different backends:
//
//   - [FileStore]: one JSON file per document in a directory (default)
//   - [MemoryStore]: process-local, for tests and throwaway sessions
//   - [SQLStore]: a documents table in SQLite or Postgres
//   - [RedisStore]: one key per document under a prefix
//   - [MongoStore]: one MongoDB document per name
//   - [S3Store]: one object per document in an S3-compatible bucket
//
// # Opening a Store
//
// [Open] selects the backend from a [Config]:
//
//	ds, err := docstore.Open(ctx, docstore.Config{Backend: docstore.BackendSQLite, DSN: "annotations.db"})
//	if err != nil {
//	    return err
//	}
//	defer ds.Close()
//
//	data, ok, err := ds.Get(ctx, "pipeline")
//
// # Keys
//
// Document names are validated with [ValidateKey] before they reach a
// backend: they must be non-empty, at most 200 characters, and free of path
// separators, ".." and control characters.
//
// # Observability
//
// Every backend reports reads and writes to the hooks registered with
// observability.SetDocumentHooks.
package docstore
