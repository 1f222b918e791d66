package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a create collides with an existing key.
var ErrAlreadyExists = errors.New("already exists")
