package resolver

import (
	"fmt"
	"strings"
)

// UnsatisfiableError reports a spec no channel candidate can satisfy
type UnsatisfiableError struct {
	Spec      string
	Channel   string
	Available []string
}

func (e *UnsatisfiableError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("no candidate for %q in channel %s (no versions available)", e.Spec, e.Channel)
	}
	return fmt.Sprintf("no candidate for %q in channel %s (available: %s)",
		e.Spec, e.Channel, strings.Join(e.Available, ", "))
}

// ConflictError reports two requirements that pin the same package to
// incompatible versions
type ConflictError struct {
	Name        string
	Picked      string
	PickedBy    string
	Spec        string
	RequestedBy string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dependency conflict on %s: %s requires %q but %s is already picked for %s",
		e.Name, e.RequestedBy, e.Spec, e.Picked, e.PickedBy)
}
