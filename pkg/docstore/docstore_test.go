package docstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	perrors "github.com/matzehuels/patternmark/pkg/errors"
	"github.com/matzehuels/patternmark/pkg/observability"
)

// exerciseStore runs the behavior every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := s.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v; want miss", hit, err)
	}

	if err := s.Put(ctx, "pipeline", []byte(`{"annotations":[]}`)); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	data, hit, err := s.Get(ctx, "pipeline")
	if err != nil || !hit {
		t.Fatalf("Get(pipeline) = hit %v, err %v", hit, err)
	}
	if string(data) != `{"annotations":[]}` {
		t.Errorf("Get(pipeline) = %q", data)
	}

	if err := s.Put(ctx, "pipeline", []byte(`{"annotations":[1]}`)); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	data, _, _ = s.Get(ctx, "pipeline")
	if string(data) != `{"annotations":[1]}` {
		t.Errorf("after overwrite = %q", data)
	}

	if err := s.Put(ctx, "alpha", []byte("{}")); err != nil {
		t.Fatalf("Put(alpha) error: %v", err)
	}
	names, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if want := []string{"alpha", "pipeline"}; !slices.Equal(names, want) {
		t.Errorf("List() = %v, want %v", names, want)
	}

	if err := s.Delete(ctx, "alpha"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := s.Delete(ctx, "alpha"); err != nil {
		t.Errorf("second Delete error: %v", err)
	}
	if _, hit, _ := s.Get(ctx, "alpha"); hit {
		t.Error("Get after Delete hit")
	}
	names, _ = s.List(ctx)
	if !slices.Equal(names, []string{"pipeline"}) {
		t.Errorf("List after delete = %v", names)
	}

	for _, bad := range []string{"", "../escape", "a/b", "nul\x00"} {
		if err := s.Put(ctx, bad, []byte("{}")); !perrors.Is(err, perrors.ErrCodeInvalidKey) {
			t.Errorf("Put(%q) error = %v, want %s", bad, err, perrors.ErrCodeInvalidKey)
		}
		if _, _, err := s.Get(ctx, bad); !perrors.Is(err, perrors.ErrCodeInvalidKey) {
			t.Errorf("Get(%q) error = %v, want %s", bad, err, perrors.ErrCodeInvalidKey)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	in := []byte("abc")
	_ = s.Put(ctx, "k", in)
	in[0] = 'x'

	out, _, _ := s.Get(ctx, "k")
	if string(out) != "abc" {
		t.Errorf("stored payload aliases input: %q", out)
	}
	out[0] = 'y'
	again, _, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("returned payload aliases store: %q", again)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	exerciseStore(t, s)

	if got := s.Path("pipeline"); filepath.Base(got) != "pipeline.json" {
		t.Errorf("Path = %s", got)
	}
}

func TestFileStoreUpdatedAt(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, ok, err := s.UpdatedAt(ctx, "pipeline"); err != nil || ok {
		t.Fatalf("UpdatedAt(missing) = %v, %v", ok, err)
	}
	if err := s.Put(ctx, "pipeline", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	ts, ok, err := s.UpdatedAt(ctx, "pipeline")
	if err != nil || !ok {
		t.Fatalf("UpdatedAt = %v, %v", ok, err)
	}
	if time.Since(ts) > time.Minute {
		t.Errorf("UpdatedAt = %v, want recent", ts)
	}
	if _, _, err := s.UpdatedAt(ctx, "../escape"); !perrors.Is(err, perrors.ErrCodeInvalidKey) {
		t.Errorf("UpdatedAt(bad key) error = %v", err)
	}
}

func TestFileStoreNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if s.Dir() != dir {
		t.Errorf("Dir() = %s, want %s", s.Dir(), dir)
	}
	if err := s.Put(context.Background(), "x", []byte("{}")); err != nil {
		t.Fatal(err)
	}
}

func TestFileStoreConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Put(ctx, "shared", []byte{byte('0' + i)}); err != nil {
				t.Errorf("Put: %v", err)
			}
		}()
	}
	wg.Wait()

	data, hit, err := s.Get(ctx, "shared")
	if err != nil || !hit || len(data) != 1 {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	names, _ := s.List(ctx)
	if !slices.Equal(names, []string{"shared"}) {
		t.Errorf("temp files leaked into List: %v", names)
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/data", "patternmark", "docs") {
		t.Errorf("DefaultDir() = %s", dir)
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "docs", "patternmark.db")
	s, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)

	ts, ok, err := s.UpdatedAt(ctx, "pipeline")
	if err != nil || !ok {
		t.Fatalf("UpdatedAt = %v, %v", ok, err)
	}
	if time.Since(ts) > time.Minute {
		t.Errorf("UpdatedAt = %v, want recent", ts)
	}

	// Reopen and read back.
	s.Close()
	s2, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if _, hit, _ := s2.Get(ctx, "pipeline"); !hit {
		t.Error("document lost after reopen")
	}
}

func TestDialectRebind(t *testing.T) {
	q := `INSERT INTO documents(name, payload) VALUES(?, ?)`
	if got := sqliteDialect.rebind(q); got != q {
		t.Errorf("sqlite rebind changed query: %s", got)
	}
	if got, want := postgresDialect.rebind(q), `INSERT INTO documents(name, payload) VALUES($1, $2)`; got != want {
		t.Errorf("postgres rebind = %s, want %s", got, want)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"default is file", Config{Dir: t.TempDir()}, "*docstore.FileStore"},
		{"file", Config{Backend: BackendFile, Dir: t.TempDir()}, "*docstore.FileStore"},
		{"memory", Config{Backend: BackendMemory}, "*docstore.MemoryStore"},
		{"sqlite", Config{Backend: BackendSQLite, DSN: filepath.Join(t.TempDir(), "x.db")}, "*docstore.SQLStore"},
		{"s3", Config{Backend: BackendS3, S3: S3Config{Bucket: "b", AccessKeyID: "a", SecretAccessKey: "s"}}, "*docstore.S3Store"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer s.Close()
			if got := fmt.Sprintf("%T", s); got != tt.want {
				t.Errorf("Open returned %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, Config{Backend: "etcd"}); !perrors.Is(err, perrors.ErrCodeUnsupported) {
		t.Errorf("unknown backend error = %v", err)
	}
	if _, err := Open(ctx, Config{Backend: BackendS3}); !perrors.Is(err, perrors.ErrCodeInvalidConfig) {
		t.Errorf("s3 without bucket error = %v", err)
	}
}

func TestBackends(t *testing.T) {
	for _, b := range Backends() {
		if b == "" {
			t.Error("empty backend name")
		}
	}
	if !slices.Contains(Backends(), BackendMongo) {
		t.Error("Backends() missing mongo")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestRetryWithBackoff(t *testing.T) {
	prev := retryDelay
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = prev })

	ctx := context.Background()
	transient := errors.New("connection refused")

	t.Run("eventual success", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(ctx, func() error {
			calls++
			if calls < 3 {
				return Retryable(transient)
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(ctx, func() error {
			calls++
			return Retryable(transient)
		})
		if !errors.Is(err, transient) || IsRetryable(err) {
			t.Errorf("err = %v, want unwrapped transient", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("permanent error", func(t *testing.T) {
		calls := 0
		permanent := errors.New("bad auth")
		err := retryWithBackoff(ctx, func() error {
			calls++
			return permanent
		})
		if !errors.Is(err, permanent) || calls != 1 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := connectWithRetry(cctx, func(ctx context.Context) error { return ctx.Err() })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}

func TestRetryableNil(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}

type recordingDocumentHooks struct {
	mu     sync.Mutex
	reads  []string
	writes []int
}

func (r *recordingDocumentHooks) OnRead(_ context.Context, backend string, hit bool, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := "miss"
	if hit {
		result = "hit"
	}
	r.reads = append(r.reads, backend+":"+result)
}

func (r *recordingDocumentHooks) OnWrite(_ context.Context, _ string, size int, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, size)
}

func TestDocumentHooks(t *testing.T) {
	h := &recordingDocumentHooks{}
	observability.SetDocumentHooks(h)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	s := NewMemoryStore()
	_, _, _ = s.Get(ctx, "a")
	_ = s.Put(ctx, "a", []byte("12345"))
	_, _, _ = s.Get(ctx, "a")

	if want := []string{"memory:miss", "memory:hit"}; !slices.Equal(h.reads, want) {
		t.Errorf("reads = %v, want %v", h.reads, want)
	}
	if want := []int{5}; !slices.Equal(h.writes, want) {
		t.Errorf("writes = %v, want %v", h.writes, want)
	}
}
