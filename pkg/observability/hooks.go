// Package observability provides hooks for metrics and tracing.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about annotation store mutations and document storage.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The prometheus subpackage provides a ready-made implementation of both
// hook interfaces.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    hooks := prom.New()
//	    _ = hooks.Register(prometheus.DefaultRegisterer)
//	    observability.SetStoreHooks(hooks)
//	    observability.SetDocumentHooks(hooks)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Document().OnRead(ctx, "file", hit, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from the annotation store.
// Store operations are synchronous and carry no context.
type StoreHooks interface {
	// OnMutation records a state change. op names the store operation
	// (e.g. "create", "delete"); annotations is the collection size after it.
	OnMutation(op string, annotations int)

	// OnLoad records a document load. discarded counts invalid records that
	// were dropped; err is non-nil only for malformed documents.
	OnLoad(annotations, discarded int, err error)
}

// =============================================================================
// Document Hooks
// =============================================================================

// DocumentHooks receives events from document storage backends.
type DocumentHooks interface {
	// OnRead records a document read.
	OnRead(ctx context.Context, backend string, hit bool, duration time.Duration, err error)

	// OnWrite records a document write.
	OnWrite(ctx context.Context, backend string, size int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnMutation(string, int) {}
func (NoopStoreHooks) OnLoad(int, int, error) {}

// NoopDocumentHooks is a no-op implementation of DocumentHooks.
type NoopDocumentHooks struct{}

func (NoopDocumentHooks) OnRead(context.Context, string, bool, time.Duration, error) {}
func (NoopDocumentHooks) OnWrite(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	storeHooks    StoreHooks    = NoopStoreHooks{}
	documentHooks DocumentHooks = NoopDocumentHooks{}
	hooksMu       sync.RWMutex
)

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store is created.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetDocumentHooks registers custom document storage hooks.
// This should be called once at application startup before any backend is opened.
func SetDocumentHooks(h DocumentHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		documentHooks = h
	}
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Document returns the registered document hooks.
func Document() DocumentHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return documentHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	storeHooks = NoopStoreHooks{}
	documentHooks = NoopDocumentHooks{}
}
