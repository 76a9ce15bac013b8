// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help contributors understand
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// The application uses several categories of interfaces:
//
// ## Remote Tree Interfaces
//
//   - remote.Store: Path-addressed tree of JSON-like values with subscriptions
//     (internal/remote/store.go)
//
// ## Payment Interfaces
//
//   - payment.Provider: Opens a payment attempt for a checkout and reports the
//     outcome (internal/payment/payment.go)
//
// ## Object Storage Interfaces
//
//   - uploads.ObjectStore: Stores uploaded book assets and issues download URLs
//     (internal/uploads/objectstore.go)
//
// # Adding a New Remote Backend
//
// To add a new persistence backend for the catalog tree:
//
//  1. Implement remote.Store in internal/remote/
//
//     type RedisStore struct {
//         client *redis.Client
//     }
//
//     func (s *RedisStore) Read(ctx context.Context, path string) (Snapshot, error)
//     func (s *RedisStore) Write(ctx context.Context, path string, value any) error
//     // ... remaining Store methods
//
//     var _ Store = (*RedisStore)(nil)
//
//  2. Add a backend name to internal/config and wire it in entrypoint.go
//
// # Adding a New Payment Provider
//
// To integrate a real payment gateway:
//
//  1. Implement payment.Provider in internal/payment/
//
//     type StripeProvider struct {
//         keyID     string
//         keySecret string
//     }
//
//     func (p *StripeProvider) Open(ctx context.Context, req payment.Request, cb payment.Callbacks) error
//
//     var _ Provider = (*StripeProvider)(nil)
//
//  2. Add a provider name to internal/config and wire it in entrypoint.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
