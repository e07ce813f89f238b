// Package repository provides the collaborators the resolver queries: repositories of
// package IDs, masks, named sets and dependency sanitisation.
package repository

import (
	"sort"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// Repository is an in-memory collection of package IDs and named sets
type Repository struct {
	name      paludis.RepositoryName
	installed bool
	ids       map[paludis.QualifiedPackageName][]*paludis.PackageID
	sets      map[paludis.SetName]*paludis.SetSpecTree
}

// NewRepository creates an empty repository. Installed repositories hold what is
// currently on the system.
func NewRepository(name paludis.RepositoryName, installed bool) *Repository {
	return &Repository{
		name:      name,
		installed: installed,
		ids:       make(map[paludis.QualifiedPackageName][]*paludis.PackageID),
		sets:      make(map[paludis.SetName]*paludis.SetSpecTree),
	}
}

// Name returns the repository name
func (r *Repository) Name() paludis.RepositoryName {
	return r.name
}

// Installed reports whether this repository describes installed packages
func (r *Repository) Installed() bool {
	return r.installed
}

// AddPackage adds an ID, setting its repository and installed flag
func (r *Repository) AddPackage(id *paludis.PackageID) *paludis.PackageID {
	id.Repository = r.name
	id.Installed = r.installed
	if id.Slot == "" {
		id.Slot = "0"
	}
	if id.Dependencies == nil {
		id.Dependencies = paludis.AllOf()
	}
	r.ids[id.Name] = append(r.ids[id.Name], id)
	paludis.SortPackageIDs(r.ids[id.Name])
	return id
}

// AddSet registers a named set
func (r *Repository) AddSet(name paludis.SetName, tree *paludis.SetSpecTree) {
	r.sets[name] = tree
}

// IDs returns every version of a package, ascending
func (r *Repository) IDs(name paludis.QualifiedPackageName) []*paludis.PackageID {
	return r.ids[name]
}

// AllIDs returns every ID in the repository ordered by name then version
func (r *Repository) AllIDs() []*paludis.PackageID {
	names := make([]paludis.QualifiedPackageName, 0, len(r.ids))
	for name := range r.ids {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Compare(names[j]) < 0 })

	var result []*paludis.PackageID
	for _, name := range names {
		result = append(result, r.ids[name]...)
	}
	return result
}

// Set returns a named set
func (r *Repository) Set(name paludis.SetName) (*paludis.SetSpecTree, bool) {
	tree, ok := r.sets[name]
	return tree, ok
}

// SetNames returns the names of the sets this repository defines, sorted
func (r *Repository) SetNames() []paludis.SetName {
	names := make([]paludis.SetName, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// PackageCount returns the number of IDs held
func (r *Repository) PackageCount() int {
	count := 0
	for _, ids := range r.ids {
		count += len(ids)
	}
	return count
}
