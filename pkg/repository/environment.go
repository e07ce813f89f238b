package repository

import (
	"fmt"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"
	log "github.com/sirupsen/logrus"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// UserMask masks every ID matching Spec
type UserMask struct {
	Spec   paludis.PackageDepSpec
	Reason string
}

// Environment ties repositories, user masks and sets together and answers the
// queries the resolver makes
type Environment struct {
	repositories []*Repository
	userMasks    []UserMask

	// candidates caches FindCandidates by spec text. Repositories must not gain
	// packages once they are part of an environment.
	mu         sync.Mutex
	candidates *lru.Cache
}

// candidateCacheSize bounds the number of distinct specs remembered
const candidateCacheSize = 4096

// NewEnvironment creates an environment from repositories, in priority order
func NewEnvironment(repositories ...*Repository) *Environment {
	return &Environment{
		repositories: repositories,
		candidates:   lru.New(candidateCacheSize),
	}
}

// AddRepository appends a repository
func (e *Environment) AddRepository(r *Repository) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repositories = append(e.repositories, r)
	e.candidates.Clear()
}

// Repositories returns the repositories in priority order
func (e *Environment) Repositories() []*Repository {
	return e.repositories
}

// Repository looks up a repository by name
func (e *Environment) Repository(name paludis.RepositoryName) (*Repository, bool) {
	for _, r := range e.repositories {
		if r.name == name {
			return r, true
		}
	}
	return nil, false
}

// InstalledRepository returns the first installed repository
func (e *Environment) InstalledRepository() (*Repository, bool) {
	for _, r := range e.repositories {
		if r.installed {
			return r, true
		}
	}
	return nil, false
}

// AddUserMask masks everything matching a spec
func (e *Environment) AddUserMask(spec paludis.PackageDepSpec, reason string) {
	e.userMasks = append(e.userMasks, UserMask{Spec: spec, Reason: reason})
}

// FindCandidates returns every ID, installed or not, structurally matching the spec's
// name, slot and repository. Version and choice filtering is left to the caller.
func (e *Environment) FindCandidates(spec paludis.PackageDepSpec) []*paludis.PackageID {
	key := candidateKey(spec)
	e.mu.Lock()
	defer e.mu.Unlock()
	if cached, ok := e.candidates.Get(key); ok {
		return append([]*paludis.PackageID(nil), cached.([]*paludis.PackageID)...)
	}

	var result []*paludis.PackageID
	for _, r := range e.repositories {
		if spec.InRepository != "" && spec.InRepository != r.name {
			continue
		}
		for _, id := range r.IDs(spec.Name) {
			if spec.Slot != nil && *spec.Slot != id.Slot {
				continue
			}
			result = append(result, id)
		}
	}
	paludis.SortPackageIDs(result)
	e.candidates.Add(key, result)
	return append([]*paludis.PackageID(nil), result...)
}

// candidateKey keeps only the parts of a spec FindCandidates looks at
func candidateKey(spec paludis.PackageDepSpec) string {
	key := spec.Name.String()
	if spec.Slot != nil {
		key += ":" + string(*spec.Slot)
	}
	return key + "::" + string(spec.InRepository)
}

// InstalledIDs returns everything in installed repositories
func (e *Environment) InstalledIDs() []*paludis.PackageID {
	var result []*paludis.PackageID
	for _, r := range e.repositories {
		if r.installed {
			result = append(result, r.AllIDs()...)
		}
	}
	return result
}

// IsMasked reports whether an ID has any mask
func (e *Environment) IsMasked(id *paludis.PackageID) bool {
	return len(e.MaskReasons(id)) > 0
}

// MaskReasons returns the repository masks of an ID followed by matching user masks.
// Installed IDs are never masked.
func (e *Environment) MaskReasons(id *paludis.PackageID) []paludis.Mask {
	if id.Installed {
		return nil
	}
	masks := append([]paludis.Mask(nil), id.Masks...)
	for _, m := range e.userMasks {
		if m.Spec.Matches(id) {
			masks = append(masks, paludis.Mask{Key: "user", Description: m.Reason})
		}
	}
	return masks
}

// ResolveSet finds a named set. "name::repo" restricts the lookup to one repository;
// otherwise sets of the same name from several repositories are merged.
func (e *Environment) ResolveSet(name paludis.SetName) (*paludis.SetSpecTree, bool) {
	setName, repoName, restricted := strings.Cut(string(name), "::")

	var merged *paludis.SetSpecTree
	for _, r := range e.repositories {
		if restricted && string(r.name) != repoName {
			continue
		}
		tree, ok := r.Set(paludis.SetName(setName))
		if !ok {
			continue
		}
		if merged == nil {
			merged = &paludis.SetSpecTree{}
		}
		merged.Children = append(merged.Children, tree.Children...)
	}
	return merged, merged != nil
}

// SetNames lists every set known to any repository
func (e *Environment) SetNames() []paludis.SetName {
	seen := make(map[paludis.SetName]bool)
	var names []paludis.SetName
	for _, r := range e.repositories {
		for _, name := range r.SetNames() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// String summarises the environment for logging
func (e *Environment) String() string {
	parts := make([]string, len(e.repositories))
	for i, r := range e.repositories {
		kind := "available"
		if r.installed {
			kind = "installed"
		}
		parts[i] = fmt.Sprintf("%s (%s, %d ids)", r.name, kind, r.PackageCount())
	}
	return strings.Join(parts, ", ")
}

func (e *Environment) logSummary() {
	log.Debugf("Environment: %s", e)
}
