package resolver

import (
	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// SpecInterest says what to do with one dependency of a package
type SpecInterest int

const (
	// SpecInterestIgnore drops the dependency entirely
	SpecInterestIgnore SpecInterest = iota
	// SpecInterestTake makes the dependency a hard requirement
	SpecInterestTake
	// SpecInterestUntaken records the dependency without acting on it
	SpecInterestUntaken
)

func (s SpecInterest) String() string {
	switch s {
	case SpecInterestTake:
		return "take"
	case SpecInterestUntaken:
		return "untaken"
	}
	return "ignore"
}

// ResolverFunctions holds the policy callbacks used by the decider and orderer.
// Any nil field is given a default by New.
type ResolverFunctions struct {
	// GetResolventsForFn picks the resolvents that could satisfy a package spec
	GetResolventsForFn func(spec paludis.PackageDepSpec, reason Reason) ([]Resolvent, error)
	// GetDestinationTypesForFn is used for error resolvents and blockers
	GetDestinationTypesForFn func(spec paludis.PackageDepSpec, reason Reason) []DestinationType
	GetUseExistingFn         func(resolvent Resolvent, spec paludis.PackageDepSpec, reason Reason) UseExisting
	FindRepositoryForFn      func(resolvent Resolvent, id *paludis.PackageID) (paludis.RepositoryName, error)
	// GetInitialConstraintsForFn seeds every new resolution
	GetInitialConstraintsForFn func(resolvent Resolvent) []*Constraint
	// InterestInSpecFn decides whether a dependency is taken, left untaken or ignored
	InterestInSpecFn func(resolution *Resolution, id *paludis.PackageID, dep paludis.SanitisedDependency) SpecInterest
	// AllowedToRemoveFn reports whether an installed ID may be uninstalled
	AllowedToRemoveFn func(resolution *Resolution, id *paludis.PackageID) bool
	// RemoveIfDependentFn reports whether an installed ID should be removed when
	// something it depends upon is removed
	RemoveIfDependentFn func(id *paludis.PackageID) bool
	// PermitMaskedFn allows a masked ID to be chosen
	PermitMaskedFn func(id *paludis.PackageID) bool
	// ConfirmFn reports whether a required confirmation has been granted
	ConfirmFn func(resolution *Resolution, decision ConfirmableDecision, confirmation RequiredConfirmation) bool
	// AlwaysViaBinaryFn reports whether an install to / should be built as a
	// binary first and installed from that
	AlwaysViaBinaryFn func(resolution *Resolution, id *paludis.PackageID) bool
	// OrderEarlyFn is true for resolutions to order as early as possible, false for
	// as late as possible
	OrderEarlyFn func(resolution *Resolution) paludis.Tribool
}

// withDefaults fills in any missing callback
func (f ResolverFunctions) withDefaults(env Environment) ResolverFunctions {
	if f.GetDestinationTypesForFn == nil {
		f.GetDestinationTypesForFn = func(paludis.PackageDepSpec, Reason) []DestinationType {
			return []DestinationType{DestinationInstallToSlash}
		}
	}
	if f.PermitMaskedFn == nil {
		f.PermitMaskedFn = func(*paludis.PackageID) bool { return false }
	}
	if f.GetResolventsForFn == nil {
		helper := NewResolventsForHelper(env)
		helper.PermitMasked = f.PermitMaskedFn
		dts := f.GetDestinationTypesForFn
		f.GetResolventsForFn = func(spec paludis.PackageDepSpec, reason Reason) ([]Resolvent, error) {
			return helper.ResolventsFor(spec, reason, dts(spec, reason)), nil
		}
	}
	if f.GetUseExistingFn == nil {
		f.GetUseExistingFn = DefaultUseExisting
	}
	if f.FindRepositoryForFn == nil {
		f.FindRepositoryForFn = func(Resolvent, *paludis.PackageID) (paludis.RepositoryName, error) {
			return "installed", nil
		}
	}
	if f.GetInitialConstraintsForFn == nil {
		f.GetInitialConstraintsForFn = func(Resolvent) []*Constraint { return nil }
	}
	if f.InterestInSpecFn == nil {
		f.InterestInSpecFn = DefaultInterestInSpec
	}
	if f.AllowedToRemoveFn == nil {
		f.AllowedToRemoveFn = func(*Resolution, *paludis.PackageID) bool { return false }
	}
	if f.RemoveIfDependentFn == nil {
		f.RemoveIfDependentFn = func(*paludis.PackageID) bool { return false }
	}
	if f.ConfirmFn == nil {
		f.ConfirmFn = func(*Resolution, ConfirmableDecision, RequiredConfirmation) bool { return false }
	}
	if f.AlwaysViaBinaryFn == nil {
		f.AlwaysViaBinaryFn = func(*Resolution, *paludis.PackageID) bool { return false }
	}
	if f.OrderEarlyFn == nil {
		f.OrderEarlyFn = func(*Resolution) paludis.Tribool { return paludis.Indeterminate }
	}
	return f
}

// DefaultUseExisting reinstalls targets, keeps set members if nothing about them
// changed and keeps dependencies whenever possible
func DefaultUseExisting(_ Resolvent, _ paludis.PackageDepSpec, reason Reason) UseExisting {
	switch reason.(type) {
	case *TargetReason:
		return UseExistingNever
	case *SetReason:
		return UseExistingIfSame
	}
	return UseExistingIfPossible
}

// DefaultInterestInSpec takes hard dependencies and recommendations, leaves
// suggestions untaken and ignores build dependencies of packages that are
// already installed
func DefaultInterestInSpec(resolution *Resolution, _ *paludis.PackageID, dep paludis.SanitisedDependency) SpecInterest {
	if _, existing := resolution.Decision.(*ExistingNoChangeDecision); existing {
		if dep.Labels.IsBuild() && !dep.Labels.IsRun() && !dep.Labels.IsPost() {
			return SpecInterestIgnore
		}
		if dep.IsSuggestion() {
			return SpecInterestIgnore
		}
	}
	if dep.Labels.Has(paludis.LabelSuggestion) {
		return SpecInterestUntaken
	}
	return SpecInterestTake
}
