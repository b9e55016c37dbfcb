package main

import "fmt"

// ValidationError is a client input problem; handlers answer 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// PersistenceError wraps a failed database operation; handlers answer 500.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }
