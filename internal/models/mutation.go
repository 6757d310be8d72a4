package models

// MutationResult reports the outcome of an atomic check-then-act write.
type MutationResult string

const (
	MutationOK       MutationResult = "ok"
	MutationConflict MutationResult = "conflict"
	MutationNotFound MutationResult = "not_found"
)
