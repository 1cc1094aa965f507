package planner

import "fmt"

// AssetLoadError reports that a startup asset could not be used and a
// zero-filled default was substituted.
type AssetLoadError struct {
	Asset string
	Path  string
	Err   error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("load %s asset %q: %v (using zero-filled default)", e.Asset, e.Path, e.Err)
}

func (e *AssetLoadError) Unwrap() error {
	return e.Err
}

// InvalidCandidateError marks a candidate excluded from planning.
type InvalidCandidateError struct {
	ID     int
	Reason string
}

func (e *InvalidCandidateError) Error() string {
	return fmt.Sprintf("invalid candidate %d: %s", e.ID, e.Reason)
}
