// Package inmemoryplatform provides a thread-safe platform.Platform that only
// records what it receives. It backs dry runs and tests.
package inmemoryplatform
