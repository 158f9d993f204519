// Package mocks provides generated mock implementations of the auth ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// directory, configuration, and session interfaces in internal/ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockDirectoryConfigStore(ctrl)
//	store.EXPECT().Load(gomock.Any()).Return(cfg, nil)
//
// Hand-written fakes that behave like a small directory live in internal/mocks/auth.
package mocks

// Generate mocks for the auth ports:
// DirectoryConfigStore (Load, Save), DirectoryDialer (Open),
// DirectorySession (Bind, Search, Close), SessionStore (Save, Get, Delete).
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/consentforms/consentforms/internal/ports DirectoryConfigStore,DirectoryDialer,DirectorySession,SessionStore
