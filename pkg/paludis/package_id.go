package paludis

import (
	"fmt"
	"sort"
	"strings"
)

// Mask explains why a package ID is not normally installable
type Mask struct {
	Key         string `json:"key" yaml:"key"`
	Description string `json:"description" yaml:"description"`
}

func (m Mask) String() string {
	if m.Description == "" {
		return m.Key
	}
	return m.Key + " (" + m.Description + ")"
}

// Choices maps an explicitly listed flag to whether it is enabled
type Choices map[string]bool

// Enabled returns the state of a flag and whether the flag is listed at all
func (c Choices) Enabled(flag string) (enabled, listed bool) {
	enabled, listed = c[flag]
	return enabled, listed
}

// SameAs reports whether every flag listed by both sides has the same state
func (c Choices) SameAs(other Choices) bool {
	for flag, enabled := range c {
		if otherEnabled, ok := other[flag]; ok && otherEnabled != enabled {
			return false
		}
	}
	return true
}

// String renders the enabled flags then the disabled ones, sorted
func (c Choices) String() string {
	flags := make([]string, 0, len(c))
	for flag, enabled := range c {
		if enabled {
			flags = append(flags, flag)
		} else {
			flags = append(flags, "-"+flag)
		}
	}
	sort.Strings(flags)
	return strings.Join(flags, " ")
}

// PackageID is one concrete version of a package in one repository
type PackageID struct {
	Name       QualifiedPackageName
	Version    *Version
	Slot       SlotName
	Repository RepositoryName

	// Installed is set for IDs that come from an installed repository
	Installed bool
	// Transient IDs (virtual or ephemeral installs) may always be replaced
	Transient bool

	Choices      Choices
	Masks        []Mask
	Dependencies *DependencyTree
}

// String returns "cat/pkg-1.0:slot::repo"
func (id *PackageID) String() string {
	if id == nil {
		return "(none)"
	}
	return fmt.Sprintf("%s-%s:%s::%s", id.Name, id.Version, id.Slot, id.Repository)
}

// UniqueSpec returns the spec that matches exactly this ID
func (id *PackageID) UniqueSpec() PackageDepSpec {
	slot := id.Slot
	return PackageDepSpec{
		Name:         id.Name,
		Version:      &VersionRequirement{Operator: VersionOperatorEqual, Version: id.Version},
		Slot:         &slot,
		InRepository: id.Repository,
	}
}

// Equal reports whether two IDs refer to the same package in the same repository
func (id *PackageID) Equal(other *PackageID) bool {
	if id == nil || other == nil {
		return id == other
	}
	return id.Name == other.Name && id.Slot == other.Slot &&
		id.Repository == other.Repository && id.Version.Equal(other.Version)
}

// Compare orders IDs by name, version, slot then repository
func (id *PackageID) Compare(other *PackageID) int {
	if c := id.Name.Compare(other.Name); c != 0 {
		return c
	}
	if c := id.Version.Compare(other.Version); c != 0 {
		return c
	}
	if c := strings.Compare(string(id.Slot), string(other.Slot)); c != 0 {
		return c
	}
	return strings.Compare(string(id.Repository), string(other.Repository))
}

// SortPackageIDs sorts IDs ascending, so the best version is last
func SortPackageIDs(ids []*PackageID) {
	sort.SliceStable(ids, func(i, j int) bool {
		return ids[i].Compare(ids[j]) < 0
	})
}
