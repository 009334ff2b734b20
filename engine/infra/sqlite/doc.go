// Package sqlite persists routing decisions and favorite verses in an
// embedded SQLite database using the pure-Go modernc driver. Schema changes
// are goose migrations embedded in the binary.
package sqlite
