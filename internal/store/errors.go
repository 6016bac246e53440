package store

import "errors"

var (
	ErrRootRequired     = errors.New("store: root directory is required")
	ErrInvalidIdentity  = errors.New("store: identity must be a relative path inside the store")
	ErrInvalidAsset     = errors.New("store: asset destination must be a relative path inside the assets dir")
	ErrDatabaseRequired = errors.New("store: bun document store requires a database")
	ErrUnsupportedDB    = errors.New("store: unsupported database driver")
)
