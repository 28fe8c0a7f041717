package resolver

import "fmt"

// ResolutionError fails one source. Other sources resolving alongside it are
// unaffected.
type ResolutionError struct {
	Locator string
	Reason  string
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v: %v", e.Locator, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Locator, e.Reason)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// TransientFetchError is a failed fetch of an optional document. The
// document is treated as absent.
type TransientFetchError struct {
	Key string
	Err error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("optional document %v unavailable: %v", e.Key, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }
