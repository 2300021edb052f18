// Package store provides credential store implementations for the session
// machine: an in-memory store for tests, a SQLite store for single-machine
// persistence, and a Redis store for shared deployments. Values can be
// sealed at rest with a caller-provided secret.
package store
