package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/ventsim/internal/store"
)

// openStore opens the run store at path, or the configured database when
// path is empty. With create false the database must already exist.
func openStore(root *RootOptions, path string, create bool) (*store.Store, string, error) {
	if path == "" {
		cfg, err := root.config()
		if err != nil {
			return nil, "", WrapExitError(ExitCommandError, "failed to load configuration", err)
		}
		path = cfg.DatabasePath
	}

	if create {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, "", WrapExitError(ExitCommandError, "failed to create database directory", err)
		}
	} else if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, "", NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, path, nil
}
