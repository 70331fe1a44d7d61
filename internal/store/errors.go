package store

import "errors"

// ErrNotFound is returned when a requested row does not exist in the store.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when an insert collides with an existing key.
var ErrAlreadyExists = errors.New("already exists")

// ErrConflict is returned when a state transition is not allowed from the
// row's current state, e.g. reviewing a puzzle that is no longer pending.
var ErrConflict = errors.New("conflict")

// ErrInvalidRow is returned alongside the readable results when stored rows
// hold values outside their closed sets. Those rows are left out.
var ErrInvalidRow = errors.New("invalid stored row")
