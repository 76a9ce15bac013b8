package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/svvaap/bookhive/internal/payment"
	"github.com/svvaap/bookhive/internal/remote"
	"github.com/svvaap/bookhive/internal/uploads"
)

// =============================================================================
// Remote Tree Backends
// =============================================================================

// Store implementations
var _ remote.Store = (*remote.MemoryStore)(nil)
var _ remote.Store = (*remote.SQLiteStore)(nil)

// =============================================================================
// Payment Providers
// =============================================================================

// Provider implementations
var _ payment.Provider = (*payment.StubProvider)(nil)
var _ payment.Provider = (*payment.ManualProvider)(nil)

// =============================================================================
// Object Storage
// =============================================================================

// ObjectStore implementations
var _ uploads.ObjectStore = (*uploads.MinioStore)(nil)
