package routing

import "fmt"

// definitionError describes a route definition that was skipped during a
// table rebuild.
type definitionError struct {
	ID       string
	Original error
}

func (e *definitionError) Error() string {
	if e.ID == "" {
		return e.Original.Error()
	}

	return fmt.Sprintf("%s: %v", e.ID, e.Original)
}

func (e *definitionError) Unwrap() error { return e.Original }
