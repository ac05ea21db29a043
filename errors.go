package scalexone

import "errors"

// Common errors shared by the store, caches, editors and backend adapters.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidStoreType = errors.New("invalid store type")
	ErrNotFound         = errors.New("not found")
	ErrTenantRequired   = errors.New("tenant id is required")
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrAmbiguousTenant  = errors.New("tenant reference is ambiguous")
	ErrDuplicateKey     = errors.New("destination already contains an item with this key")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrNotHydrated      = errors.New("store has not been hydrated")
)
