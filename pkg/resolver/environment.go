package resolver

import (
	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// RepositoryQuery finds package IDs
type RepositoryQuery interface {
	// FindCandidates returns every ID, installed or not, matching the spec's name,
	// slot and repository, sorted with the best version last
	FindCandidates(spec paludis.PackageDepSpec) []*paludis.PackageID
	// InstalledIDs returns every installed ID
	InstalledIDs() []*paludis.PackageID
}

// MaskPolicy decides which IDs may normally be installed
type MaskPolicy interface {
	IsMasked(id *paludis.PackageID) bool
	MaskReasons(id *paludis.PackageID) []paludis.Mask
}

// DependencySanitiser flattens the dependencies of an ID
type DependencySanitiser interface {
	SanitisedDependencies(id *paludis.PackageID, scorer paludis.AnyChildScorer) []paludis.SanitisedDependency
}

// SetExpander looks up named sets
type SetExpander interface {
	ResolveSet(name paludis.SetName) (*paludis.SetSpecTree, bool)
}

// Environment is everything the resolver needs to know about the outside world
type Environment interface {
	RepositoryQuery
	MaskPolicy
	DependencySanitiser
	SetExpander
}

func installedOnly(ids []*paludis.PackageID) []*paludis.PackageID {
	var result []*paludis.PackageID
	for _, id := range ids {
		if id.Installed {
			result = append(result, id)
		}
	}
	return result
}

func installableOnly(ids []*paludis.PackageID) []*paludis.PackageID {
	var result []*paludis.PackageID
	for _, id := range ids {
		if !id.Installed {
			result = append(result, id)
		}
	}
	return result
}
