// Package storage defines the articles directory abstraction.
package storage

import "time"

// Provider is the interface for article file operations. Names are file
// names relative to the provider's directory.
type Provider interface {
	// List returns the names of every file in the directory whose name ends
	// with the provider's suffix. Subdirectories are not descended into and
	// no ordering is guaranteed.
	List() ([]string, error)
	// ModTime returns the file's last-modification time as reported by the
	// file system.
	ModTime(name string) (time.Time, error)
	// Read returns the raw bytes of the file.
	Read(name string) ([]byte, error)
	// Write atomically replaces the file's content.
	Write(name string, content []byte) error
	// Delete removes the file.
	Delete(name string) error
}
