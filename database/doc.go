// Package database resolves connection descriptors from the environment,
// validates connectivity, bootstraps schema idempotently, and classifies
// backend errors across sqlite, postgresql and mysql, built on top of Bun.
package database
