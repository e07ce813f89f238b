package resolver

import (
	"fmt"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// Reason explains why a constraint exists. The set of reasons is closed: every
// implementation lives in this file.
type Reason interface {
	String() string
	isReason()
}

// ChangeByResolvent pairs an ID with the resolvent it is being changed under
type ChangeByResolvent struct {
	PackageID *paludis.PackageID
	Resolvent Resolvent
}

func (c ChangeByResolvent) String() string {
	return fmt.Sprintf("%s (as %s)", c.PackageID, c.Resolvent)
}

// TargetReason is for things the user asked for
type TargetReason struct {
	ExtraInformation string
}

// DependencyReason is for a dependency of another package we are installing or keeping
type DependencyReason struct {
	FromID        *paludis.PackageID
	FromResolvent Resolvent
	Dependency    paludis.SanitisedDependency
	// AlreadyMet is whether the dependency was satisfied by installed packages when
	// the reason was created
	AlreadyMet paludis.Tribool
}

// DependentReason is for an installed package that depends on something going away
type DependentReason struct {
	DependentUpon ChangeByResolvent
}

// WasUsedByReason is for a package whose users are all being removed
type WasUsedByReason struct {
	IDsAndResolventsBeingRemoved []ChangeByResolvent
}

// PresetReason is for constraints that exist before resolution starts: user presets,
// and constraints carried over from a restart
type PresetReason struct {
	Explanation          string
	MaybeReasonForPreset Reason
}

// SetReason is for members of a named set
type SetReason struct {
	SetName      paludis.SetName
	ReasonForSet Reason
}

// LikeOtherDestinationTypeReason copies a reason from the same package going elsewhere
type LikeOtherDestinationTypeReason struct {
	OtherResolvent          Resolvent
	ReasonForOtherResolvent Reason
}

// ViaBinaryReason is for a package that is built as a binary first, then installed
type ViaBinaryReason struct {
	OtherResolvent Resolvent
}

func (*TargetReason) isReason()                   {}
func (*DependencyReason) isReason()               {}
func (*DependentReason) isReason()                {}
func (*WasUsedByReason) isReason()                {}
func (*PresetReason) isReason()                   {}
func (*SetReason) isReason()                      {}
func (*LikeOtherDestinationTypeReason) isReason() {}
func (*ViaBinaryReason) isReason()                {}

func (r *TargetReason) String() string {
	if r.ExtraInformation == "" {
		return "target"
	}
	return "target (" + r.ExtraInformation + ")"
}

func (r *DependencyReason) String() string {
	return fmt.Sprintf("dependency %s of %s", r.Dependency, r.FromID)
}

func (r *DependentReason) String() string {
	return "dependent upon " + r.DependentUpon.String()
}

func (r *WasUsedByReason) String() string {
	if len(r.IDsAndResolventsBeingRemoved) == 0 {
		return "was unused"
	}
	return fmt.Sprintf("was used by %s", r.IDsAndResolventsBeingRemoved[0])
}

func (r *PresetReason) String() string {
	s := "preset"
	if r.Explanation != "" {
		s += " (" + r.Explanation + ")"
	}
	if r.MaybeReasonForPreset != nil {
		s += " from " + r.MaybeReasonForPreset.String()
	}
	return s
}

func (r *SetReason) String() string {
	return fmt.Sprintf("member of set %s from %s", r.SetName, r.ReasonForSet)
}

func (r *LikeOtherDestinationTypeReason) String() string {
	return fmt.Sprintf("like %s for %s", r.OtherResolvent, r.ReasonForOtherResolvent)
}

func (r *ViaBinaryReason) String() string {
	return "via binary for " + r.OtherResolvent.String()
}

// IsTargetReason reports whether a reason chain bottoms out at a user target
func IsTargetReason(r Reason) bool {
	switch reason := r.(type) {
	case *TargetReason:
		return true
	case *SetReason:
		return IsTargetReason(reason.ReasonForSet)
	case *LikeOtherDestinationTypeReason:
		return IsTargetReason(reason.ReasonForOtherResolvent)
	}
	return false
}
