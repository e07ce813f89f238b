package resolver

import (
	"fmt"

	perrors "github.com/bdwyertech/go-paludis/pkg/errors"
	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// NoSuchSetError is returned when a target names an unknown set
type NoSuchSetError struct {
	Name paludis.SetName
}

func (e *NoSuchSetError) Error() string {
	return fmt.Sprintf("no such set '%s'", e.Name)
}

func (e *NoSuchSetError) Is(target error) bool {
	return isKind(target, perrors.ErrorTypeNoSuchSet)
}

// RecursivelyDefinedSetError is returned when a set includes itself
type RecursivelyDefinedSetError struct {
	Name paludis.SetName
}

func (e *RecursivelyDefinedSetError) Error() string {
	return fmt.Sprintf("set '%s' is defined recursively", e.Name)
}

func (e *RecursivelyDefinedSetError) Is(target error) bool {
	return isKind(target, perrors.ErrorTypeRecursiveSet)
}

// SuggestRestart is returned when a decision that other decisions already rely
// upon turns out to be wrong. Resolution should be started again with
// SuggestedPreset in place from the start.
type SuggestRestart struct {
	Resolvent             Resolvent
	PreviousDecision      Decision
	ProblematicConstraint *Constraint
	NewDecision           Decision
	SuggestedPreset       *Constraint
}

func (e *SuggestRestart) Error() string {
	return fmt.Sprintf("suggesting restart for %s: %s no longer holds because of %s, wanted %s",
		e.Resolvent, e.PreviousDecision, e.ProblematicConstraint, e.NewDecision)
}

func (e *SuggestRestart) Is(target error) bool {
	return isKind(target, perrors.ErrorTypeSuggestRestart)
}

// isKind lets resolver errors match perrors.Kind targets through errors.Is
func isKind(target error, t perrors.ErrorType) bool {
	pe, ok := target.(*perrors.PaludisError)
	return ok && pe.Type == t
}
