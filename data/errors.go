package data

import (
	"errors"
	"sync"
)

// Standard errors returned by the asset database.
var (
	// Mount errors
	ErrInvalidMountName = errors.New("assetdb: invalid mount name")
	ErrInvalidMountType = errors.New("assetdb: invalid mount type")
	ErrAlreadyMounted   = errors.New("assetdb: mount already exists")
	ErrMountNested      = errors.New("assetdb: mount overlaps an existing mount")
	ErrNotMounted       = errors.New("assetdb: path not mounted")

	// Path errors
	ErrInvalidPath     = errors.New("assetdb: invalid path detected")
	ErrNotExist        = errors.New("assetdb: file does not exist")
	ErrExist           = errors.New("assetdb: file already exists")
	ErrParentNotExist  = errors.New("assetdb: parent directory does not exist")
	ErrNotDirectory    = errors.New("assetdb: not a directory")
	ErrNotTracked      = errors.New("assetdb: path has no uuid")
	ErrUnknownUUID     = errors.New("assetdb: uuid does not resolve to a path")
	ErrNameConflict    = errors.New("assetdb: name conflict")
	ErrAlreadyImported = errors.New("assetdb: file already in the database")

	// Meta errors
	ErrMetaUnsupported = errors.New("assetdb: meta capability unsupported")
	ErrMetaParse       = errors.New("assetdb: failed to parse meta")
	ErrUUIDMismatch    = errors.New("assetdb: uuid does not match meta uuid")

	// Engine errors
	ErrClosed = errors.New("assetdb: database closed")
)

// Errors collects failures from concurrent per-item work.
type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.errors)
}

func (e *Errors) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = make([]error, 0)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
