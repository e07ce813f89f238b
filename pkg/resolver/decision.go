package resolver

import (
	"fmt"
	"strings"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// Decision is what the decider settled on for one resolvent. The set of
// decisions is closed: every implementation lives in this file.
type Decision interface {
	// IsTaken is false for decisions that only exist because of untaken
	// suggestions
	IsTaken() bool
	String() string
	isDecision()
}

// ChangeOrRemoveDecision is a decision that results in jobs
type ChangeOrRemoveDecision interface {
	Decision
	isChangeOrRemove()
}

// ConfirmableDecision is a decision that may need the user's explicit agreement
type ConfirmableDecision interface {
	Decision
	RequiredConfirmations() []RequiredConfirmation
}

// RequiredConfirmation names something the user must agree to before a
// confirmable decision is acted upon
type RequiredConfirmation interface {
	String() string
	isRequiredConfirmation()
}

// DowngradeConfirmation is needed to replace an installed version with an older one
type DowngradeConfirmation struct{}

// NotBestConfirmation is needed when a target is not the best available version
type NotBestConfirmation struct{}

// BreakConfirmation is needed to leave an installed package with an unsatisfied dependency
type BreakConfirmation struct{}

// RemoveSystemPackageConfirmation is needed to remove a package from the system set
type RemoveSystemPackageConfirmation struct{}

// MaskedConfirmation is needed to install a masked package
type MaskedConfirmation struct{}

func (DowngradeConfirmation) isRequiredConfirmation()           {}
func (NotBestConfirmation) isRequiredConfirmation()             {}
func (BreakConfirmation) isRequiredConfirmation()               {}
func (RemoveSystemPackageConfirmation) isRequiredConfirmation() {}
func (MaskedConfirmation) isRequiredConfirmation()              {}

func (DowngradeConfirmation) String() string           { return "downgrade" }
func (NotBestConfirmation) String() string             { return "not best" }
func (BreakConfirmation) String() string               { return "break" }
func (RemoveSystemPackageConfirmation) String() string { return "remove system package" }
func (MaskedConfirmation) String() string              { return "masked" }

// NothingNoChangeDecision means nothing is installed and nothing needs to be
type NothingNoChangeDecision struct {
	Resolvent Resolvent
	Taken     bool
}

// ExistingNoChangeDecision keeps an installed package as it is
type ExistingNoChangeDecision struct {
	Resolvent     Resolvent
	Existing      *paludis.PackageID
	IsSame        bool
	IsSameVersion bool
	IsTransient   bool
	Taken         bool
}

// ChangesToMakeDecision installs Origin, replacing anything in Replacing
type ChangesToMakeDecision struct {
	Resolvent             Resolvent
	Origin                *paludis.PackageID
	Best                  bool
	DestinationRepository paludis.RepositoryName
	Replacing             []*paludis.PackageID
	IfViaNewBinaryIn      paludis.RepositoryName
	Confirmations         []RequiredConfirmation
	Taken                 bool
}

// RemoveDecision uninstalls every ID listed
type RemoveDecision struct {
	Resolvent     Resolvent
	IDs           []*paludis.PackageID
	Confirmations []RequiredConfirmation
	Taken         bool
}

// BreakDecision leaves Existing installed even though something it needs is
// going away
type BreakDecision struct {
	Resolvent     Resolvent
	Existing      *paludis.PackageID
	Confirmations []RequiredConfirmation
	Taken         bool
}

// UnsuitableCandidate is an ID that was considered and rejected
type UnsuitableCandidate struct {
	PackageID        *paludis.PackageID
	Masks            []paludis.Mask
	UnmetConstraints []*Constraint
}

// UnableToMakeDecision means no candidate could satisfy every constraint
type UnableToMakeDecision struct {
	Resolvent            Resolvent
	UnsuitableCandidates []UnsuitableCandidate
	Taken                bool
}

func (*NothingNoChangeDecision) isDecision()  {}
func (*ExistingNoChangeDecision) isDecision() {}
func (*ChangesToMakeDecision) isDecision()    {}
func (*RemoveDecision) isDecision()           {}
func (*BreakDecision) isDecision()            {}
func (*UnableToMakeDecision) isDecision()     {}

func (*ChangesToMakeDecision) isChangeOrRemove() {}
func (*RemoveDecision) isChangeOrRemove()        {}

func (d *NothingNoChangeDecision) IsTaken() bool  { return d.Taken }
func (d *ExistingNoChangeDecision) IsTaken() bool { return d.Taken }
func (d *ChangesToMakeDecision) IsTaken() bool    { return d.Taken }
func (d *RemoveDecision) IsTaken() bool           { return d.Taken }
func (d *BreakDecision) IsTaken() bool            { return d.Taken }
func (d *UnableToMakeDecision) IsTaken() bool     { return d.Taken }

func (d *ChangesToMakeDecision) RequiredConfirmations() []RequiredConfirmation {
	return d.Confirmations
}
func (d *RemoveDecision) RequiredConfirmations() []RequiredConfirmation { return d.Confirmations }
func (d *BreakDecision) RequiredConfirmations() []RequiredConfirmation  { return d.Confirmations }

func (d *NothingNoChangeDecision) String() string {
	return takenPrefix(d.Taken) + "nothing, no change"
}

func (d *ExistingNoChangeDecision) String() string {
	return fmt.Sprintf("%skeep %s", takenPrefix(d.Taken), d.Existing)
}

func (d *ChangesToMakeDecision) String() string {
	s := fmt.Sprintf("%sinstall %s to %s", takenPrefix(d.Taken), d.Origin, d.DestinationRepository)
	if len(d.Replacing) > 0 {
		s += " replacing " + joinIDs(d.Replacing)
	}
	if d.IfViaNewBinaryIn != "" {
		s += " via a binary in " + string(d.IfViaNewBinaryIn)
	}
	return s
}

func (d *RemoveDecision) String() string {
	return takenPrefix(d.Taken) + "remove " + joinIDs(d.IDs)
}

func (d *BreakDecision) String() string {
	return fmt.Sprintf("%sbreak %s", takenPrefix(d.Taken), d.Existing)
}

func (d *UnableToMakeDecision) String() string {
	return fmt.Sprintf("%sunable to make decision (%d unsuitable candidates)",
		takenPrefix(d.Taken), len(d.UnsuitableCandidates))
}

func takenPrefix(taken bool) string {
	if taken {
		return ""
	}
	return "untaken: "
}

func joinIDs(ids []*paludis.PackageID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}

// chosenID returns the package a decision leaves installed, if any
func chosenID(d Decision) *paludis.PackageID {
	switch decision := d.(type) {
	case *ExistingNoChangeDecision:
		return decision.Existing
	case *ChangesToMakeDecision:
		return decision.Origin
	case *BreakDecision:
		return decision.Existing
	}
	return nil
}

// sameDecision reports whether two decisions would have the same effect
func sameDecision(a, b Decision) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.IsTaken() != b.IsTaken() {
		return false
	}
	switch x := a.(type) {
	case *NothingNoChangeDecision:
		_, ok := b.(*NothingNoChangeDecision)
		return ok
	case *ExistingNoChangeDecision:
		y, ok := b.(*ExistingNoChangeDecision)
		return ok && x.Existing.Equal(y.Existing)
	case *ChangesToMakeDecision:
		y, ok := b.(*ChangesToMakeDecision)
		return ok && x.Origin.Equal(y.Origin) && x.DestinationRepository == y.DestinationRepository
	case *RemoveDecision:
		y, ok := b.(*RemoveDecision)
		return ok && sameIDs(x.IDs, y.IDs)
	case *BreakDecision:
		y, ok := b.(*BreakDecision)
		return ok && x.Existing.Equal(y.Existing)
	case *UnableToMakeDecision:
		_, ok := b.(*UnableToMakeDecision)
		return ok
	}
	return false
}

func sameIDs(a, b []*paludis.PackageID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
