// Package credfile materializes a base64-encoded secret into a short-lived
// credentials file for clients that expect a file path rather than an
// in-memory value.
package credfile

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// File is a scoped handle to a materialized credentials file. The path is
// private to the process; Close removes the file and its directory. Passing
// the handle explicitly (instead of a well-known filename in the working
// directory) keeps parallel processes from colliding.
type File struct {
	path string
}

// Materialize decodes a standard-base64 encoded secret and writes the
// plaintext to a 0600 file inside a fresh 0700 temp directory. A malformed
// encoding fails before anything is written.
func Materialize(encoded, name string) (*File, error) {
	plaintext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode credential %q: %w", name, err)
	}

	dir, err := os.MkdirTemp("", "tiktrends-cred-")
	if err != nil {
		return nil, fmt.Errorf("create credential dir: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, plaintext, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("write credential %q: %w", name, err)
	}

	return &File{path: path}, nil
}

// Path returns the filesystem location of the materialized credential.
func (f *File) Path() string {
	return f.path
}

// Close removes the credential file and its containing directory.
func (f *File) Close() error {
	if f.path == "" {
		return nil
	}
	dir := filepath.Dir(f.path)
	f.path = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove credential dir: %w", err)
	}
	return nil
}
