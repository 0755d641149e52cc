// Package shared holds helpers used by more than one package and owned by
// none of them. Today that is only testutil: captured slog output and
// harvest fixtures for tests.
package shared
