package paludis

import (
	"strings"
)

// ChoiceRequirement requires a flag to be enabled or disabled: "[ssl]" or "[-ssl]"
type ChoiceRequirement struct {
	Flag    string
	Enabled bool
}

func (c ChoiceRequirement) String() string {
	if c.Enabled {
		return c.Flag
	}
	return "-" + c.Flag
}

// PackageDepSpec is a positive dependency: a name plus optional version, slot,
// repository and choice requirements
type PackageDepSpec struct {
	Name         QualifiedPackageName
	Version      *VersionRequirement
	Slot         *SlotName
	InRepository RepositoryName
	Choices      []ChoiceRequirement
}

// NewPackageDepSpec creates an unrestricted spec for a name
func NewPackageDepSpec(name QualifiedPackageName) PackageDepSpec {
	return PackageDepSpec{Name: name}
}

// String renders the spec in the form accepted by ParsePackageDepSpec
func (s PackageDepSpec) String() string {
	var b strings.Builder
	if s.Version != nil {
		b.WriteString(string(s.Version.Operator))
	}
	b.WriteString(s.Name.String())
	if s.Version != nil {
		b.WriteString("-")
		b.WriteString(s.Version.Version.String())
	}
	if s.Slot != nil {
		b.WriteString(":")
		b.WriteString(string(*s.Slot))
	}
	if s.InRepository != "" {
		b.WriteString("::")
		b.WriteString(string(s.InRepository))
	}
	if len(s.Choices) > 0 {
		parts := make([]string, len(s.Choices))
		for i, c := range s.Choices {
			parts[i] = c.String()
		}
		b.WriteString("[")
		b.WriteString(strings.Join(parts, ","))
		b.WriteString("]")
	}
	return b.String()
}

// Matches reports whether an ID satisfies every part of the spec
func (s PackageDepSpec) Matches(id *PackageID) bool {
	if id == nil {
		return false
	}
	if id.Name != s.Name {
		return false
	}
	if s.Version != nil && !s.Version.Check(id.Version) {
		return false
	}
	if s.Slot != nil && *s.Slot != id.Slot {
		return false
	}
	if s.InRepository != "" && s.InRepository != id.Repository {
		return false
	}
	for _, c := range s.Choices {
		enabled, _ := id.Choices.Enabled(c.Flag)
		if enabled != c.Enabled {
			return false
		}
	}
	return true
}

// WithoutAdditionalRequirements drops choice requirements, keeping name, version,
// slot and repository
func (s PackageDepSpec) WithoutAdditionalRequirements() PackageDepSpec {
	s.Choices = nil
	return s
}

// BlockDepSpec forbids packages matching Blocking. Strong blocks ("!!") must be
// resolved before the blocker is installed; weak blocks ("!") may be resolved after.
type BlockDepSpec struct {
	Blocking PackageDepSpec
	Strong   bool
}

func (b BlockDepSpec) String() string {
	if b.Strong {
		return "!!" + b.Blocking.String()
	}
	return "!" + b.Blocking.String()
}

// PackageOrBlockDepSpec holds exactly one of a package spec or a block spec
type PackageOrBlockDepSpec struct {
	Package *PackageDepSpec
	Block   *BlockDepSpec
}

// PackageSpec wraps a package spec
func PackageSpec(s PackageDepSpec) PackageOrBlockDepSpec {
	return PackageOrBlockDepSpec{Package: &s}
}

// BlockSpec wraps a block spec
func BlockSpec(b BlockDepSpec) PackageOrBlockDepSpec {
	return PackageOrBlockDepSpec{Block: &b}
}

// IsBlock reports whether the spec is a blocker
func (s PackageOrBlockDepSpec) IsBlock() bool {
	return s.Block != nil
}

// Name returns the package name the spec is about
func (s PackageOrBlockDepSpec) Name() QualifiedPackageName {
	if s.Block != nil {
		return s.Block.Blocking.Name
	}
	if s.Package != nil {
		return s.Package.Name
	}
	return QualifiedPackageName{}
}

// PositiveSpec returns the package spec, or the spec being blocked
func (s PackageOrBlockDepSpec) PositiveSpec() PackageDepSpec {
	if s.Block != nil {
		return s.Block.Blocking
	}
	if s.Package != nil {
		return *s.Package
	}
	return PackageDepSpec{}
}

func (s PackageOrBlockDepSpec) String() string {
	switch {
	case s.Block != nil:
		return s.Block.String()
	case s.Package != nil:
		return s.Package.String()
	}
	return ""
}
