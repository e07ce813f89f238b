package resolver

import (
	"fmt"
	"strings"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// UseExisting says when an installed package may satisfy a constraint without
// being reinstalled. Values are ordered strictest first.
type UseExisting int

const (
	UseExistingNever UseExisting = iota
	UseExistingOnlyIfTransient
	UseExistingIfSame
	UseExistingIfSameVersion
	UseExistingIfPossible
)

var useExistingNames = map[UseExisting]string{
	UseExistingNever:           "never",
	UseExistingOnlyIfTransient: "only_if_transient",
	UseExistingIfSame:          "if_same",
	UseExistingIfSameVersion:   "if_same_version",
	UseExistingIfPossible:      "if_possible",
}

func (u UseExisting) String() string {
	if name, ok := useExistingNames[u]; ok {
		return name
	}
	return fmt.Sprintf("UseExisting(%d)", int(u))
}

// ParseUseExisting accepts the names produced by String, with '-' allowed in place of '_'
func ParseUseExisting(s string) (UseExisting, error) {
	s = strings.ReplaceAll(strings.ToLower(s), "-", "_")
	for u, name := range useExistingNames {
		if name == s {
			return u, nil
		}
	}
	return 0, fmt.Errorf("unknown use existing value %q", s)
}

// Constraint is one requirement placed on a resolvent. Constraints are never
// modified once created.
type Constraint struct {
	DestinationType  DestinationType
	Spec             paludis.PackageOrBlockDepSpec
	Reason           Reason
	UseExisting      UseExisting
	Untaken          bool
	NothingIsFineToo bool
}

func (c *Constraint) String() string {
	var flags []string
	if c.Untaken {
		flags = append(flags, "untaken")
	}
	if c.NothingIsFineToo {
		flags = append(flags, "nothing is fine too")
	}
	s := fmt.Sprintf("%s (%s, use existing %s)", c.Spec, c.Reason, c.UseExisting)
	if len(flags) > 0 {
		s += " [" + strings.Join(flags, ", ") + "]"
	}
	return s
}

// allows reports whether an ID is acceptable to the constraint's spec
func (c *Constraint) allows(id *paludis.PackageID) bool {
	if c.Spec.Block != nil {
		return !c.Spec.Block.Blocking.Matches(id)
	}
	if c.Spec.Package != nil {
		return c.Spec.Package.Matches(id)
	}
	return false
}

// Constraints accumulates the constraints on one resolvent. The zero value is an
// empty collection ready for use.
type Constraints struct {
	items []*Constraint

	// Kept inverted so that the zero value means "no constraints yet"
	stricterThanPossible bool
	strictest            UseExisting
	someNotFine          bool
	someTaken            bool
}

// NewConstraints returns an empty collection
func NewConstraints() *Constraints {
	return &Constraints{}
}

// Add appends a constraint and folds it into the summaries
func (cs *Constraints) Add(c *Constraint) {
	cs.items = append(cs.items, c)

	if c.UseExisting < cs.StrictestUseExisting() {
		cs.strictest = c.UseExisting
		cs.stricterThanPossible = true
	}
	if !c.NothingIsFineToo {
		cs.someNotFine = true
	}
	if !c.Untaken {
		cs.someTaken = true
	}
}

// StrictestUseExisting is the minimum use existing value over every constraint
func (cs *Constraints) StrictestUseExisting() UseExisting {
	if !cs.stricterThanPossible {
		return UseExistingIfPossible
	}
	return cs.strictest
}

// NothingIsFineToo is true when every constraint is satisfied by doing nothing
func (cs *Constraints) NothingIsFineToo() bool {
	return !cs.someNotFine
}

// AllUntaken is true when no constraint is taken
func (cs *Constraints) AllUntaken() bool {
	return !cs.someTaken
}

func (cs *Constraints) Empty() bool {
	return len(cs.items) == 0
}

func (cs *Constraints) Len() int {
	return len(cs.items)
}

// All returns the constraints in the order they were added
func (cs *Constraints) All() []*Constraint {
	return append([]*Constraint(nil), cs.items...)
}

// Clone returns an independent collection holding the same constraints
func (cs *Constraints) Clone() *Constraints {
	clone := *cs
	clone.items = append([]*Constraint(nil), cs.items...)
	return &clone
}

// allow reports whether an ID meets every constraint's spec
func (cs *Constraints) allow(id *paludis.PackageID) bool {
	for _, c := range cs.items {
		if !c.allows(id) {
			return false
		}
	}
	return true
}

// unmetBy returns the constraints an ID does not meet
func (cs *Constraints) unmetBy(id *paludis.PackageID) []*Constraint {
	var unmet []*Constraint
	for _, c := range cs.items {
		if !c.allows(id) {
			unmet = append(unmet, c)
		}
	}
	return unmet
}

func (cs *Constraints) hasTargetReason() bool {
	for _, c := range cs.items {
		if IsTargetReason(c.Reason) {
			return true
		}
	}
	return false
}
