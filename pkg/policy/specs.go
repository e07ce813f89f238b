package policy

import (
	"fmt"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// SpecList is a list of package specs from configuration. The entry "*" matches
// everything.
type SpecList struct {
	all   bool
	specs []paludis.PackageDepSpec
}

// ParseSpecList parses configuration entries, failing on the first bad one
func ParseSpecList(entries []string) (SpecList, error) {
	var l SpecList
	for _, entry := range entries {
		if entry == "*" {
			l.all = true
			continue
		}
		spec, err := paludis.ParsePackageDepSpec(entry)
		if err != nil {
			return SpecList{}, fmt.Errorf("invalid spec '%s': %w", entry, err)
		}
		l.specs = append(l.specs, spec)
	}
	return l, nil
}

// MatchesID reports whether any entry matches the ID
func (l SpecList) MatchesID(id *paludis.PackageID) bool {
	if id == nil {
		return false
	}
	if l.all {
		return true
	}
	for _, s := range l.specs {
		if s.Matches(id) {
			return true
		}
	}
	return false
}

// MatchesName reports whether any entry is for the named package. Version, slot
// and choice parts of the entries are not looked at.
func (l SpecList) MatchesName(name paludis.QualifiedPackageName) bool {
	if l.all {
		return true
	}
	for _, s := range l.specs {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Empty is true for a list with no entries
func (l SpecList) Empty() bool {
	return !l.all && len(l.specs) == 0
}

// Specs returns the parsed entries, without "*"
func (l SpecList) Specs() []paludis.PackageDepSpec {
	return l.specs
}
