// Package migrate exports, imports, backs up and restores row data between
// storage backends using a versioned, backend-agnostic manifest.
package migrate
