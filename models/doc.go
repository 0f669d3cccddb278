// Package models holds the tables the planning-poker service requires.
// Importing it registers the table set and its foreign keys with the
// database registry.
package models
