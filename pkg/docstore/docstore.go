package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/matzehuels/patternmark/pkg/errors"
	"github.com/matzehuels/patternmark/pkg/observability"
)

// Store persists named documents.
//
// Get reports a missing document as (nil, false, nil). Delete of a missing
// document is not an error. List returns names in lexical order.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Timestamped is implemented by backends that record when a document was
// last written. The bool is false when the document does not exist.
type Timestamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, bool, error)
}

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendS3       = "s3"
)

// Backends returns all supported backend names.
func Backends() []string {
	return []string{BackendFile, BackendMemory, BackendSQLite, BackendPostgres, BackendRedis, BackendMongo, BackendS3}
}

// Config selects and configures a backend. Only the fields relevant to
// Backend are read.
type Config struct {
	Backend string

	Dir string // file: document directory
	DSN string // sqlite: database path; postgres: connection string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	S3 S3Config

	// Prefix namespaces keys for redis and s3.
	Prefix string
}

// S3Config configures the S3 backend.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional; e.g. MinIO
	PathStyle       bool
	AccessKeyID     string // optional; falls back to the default credential chain
	SecretAccessKey string
	SessionToken    string

	// HTTPClient overrides the SDK transport. Tests use it to inject a fake.
	HTTPClient *http.Client
}

// Open returns the backend named by cfg.Backend. An empty backend selects
// the file store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		return NewSQLiteStore(ctx, cfg.DSN)
	case BackendPostgres:
		return NewPostgresStore(ctx, cfg.DSN)
	case BackendRedis:
		return NewRedisStore(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Prefix,
		})
	case BackendMongo:
		return NewMongoStore(ctx, MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	case BackendS3:
		return NewS3Store(ctx, cfg.S3, cfg.Prefix)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown storage backend %q", cfg.Backend)
	}
}

// ValidateKey checks that name is usable as a document name on every
// backend.
func ValidateKey(name string) error {
	return errors.ValidateKey(name)
}

// Hash returns the hex SHA-256 digest of a document payload.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// Instrumentation
// =============================================================================

func observeRead(ctx context.Context, backend string, start time.Time, hit bool, err error) {
	observability.Document().OnRead(ctx, backend, hit, time.Since(start), err)
}

func observeWrite(ctx context.Context, backend string, start time.Time, size int, err error) {
	observability.Document().OnWrite(ctx, backend, size, time.Since(start), err)
}

// storageErr wraps a backend failure with ErrCodeStorage. A nil err stays nil.
func storageErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(errors.ErrCodeStorage, err, format, args...)
}
