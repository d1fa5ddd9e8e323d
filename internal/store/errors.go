package store

import "errors"

// ErrNotFound is returned when a post identity is looked up but does not
// exist in the store.
var ErrNotFound = errors.New("post not found")

// ErrDuplicateID is returned when a post is added under an identity that is
// already taken.
var ErrDuplicateID = errors.New("post id already exists")

// ErrCycle is returned by Root when the parent chain of a post loops back on
// itself. It signals "no defined root", not a corrupted store: the affected
// posts stay queryable and show up in Cycles.
var ErrCycle = errors.New("post is in a parent cycle")
