package resolver

import (
	"fmt"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// SlotPreferences controls which slots a spec without an explicit slot resolves to
type SlotPreferences struct {
	// Best wants the slot of the best installable version
	Best bool
	// Installed wants every installed slot
	Installed bool
	// Fallback uses the other kind of slot when the wanted kind gives nothing
	Fallback bool
}

var slotPolicies = map[string]SlotPreferences{
	"best":              {Best: true},
	"installed":         {Installed: true},
	"all":               {Best: true, Installed: true},
	"best-or-installed": {Best: true, Fallback: true},
	"installed-or-best": {Installed: true, Fallback: true},
}

// ParseSlotPreferences accepts best, installed, all, best-or-installed and installed-or-best
func ParseSlotPreferences(s string) (SlotPreferences, error) {
	prefs, ok := slotPolicies[s]
	if !ok {
		return SlotPreferences{}, fmt.Errorf("unknown slot policy %q", s)
	}
	return prefs, nil
}

// ResolventsForHelper works out which resolvents a package spec refers to
type ResolventsForHelper struct {
	query RepositoryQuery
	masks MaskPolicy

	TargetSlots SlotPreferences
	OtherSlots  SlotPreferences
	// PermitMasked lets masked IDs be considered when picking the best slot
	PermitMasked func(id *paludis.PackageID) bool
}

// NewResolventsForHelper uses best-or-installed for everything
func NewResolventsForHelper(env interface {
	RepositoryQuery
	MaskPolicy
}) *ResolventsForHelper {
	return &ResolventsForHelper{
		query:       env,
		masks:       env,
		TargetSlots: slotPolicies["best-or-installed"],
		OtherSlots:  slotPolicies["best-or-installed"],
	}
}

// ResolventsFor returns one resolvent per chosen slot and destination type
func (h *ResolventsForHelper) ResolventsFor(spec paludis.PackageDepSpec, reason Reason, dts []DestinationType) []Resolvent {
	prefs := h.OtherSlots
	if IsTargetReason(reason) {
		prefs = h.TargetSlots
	}

	var best *paludis.PackageID
	candidates := installableOnly(h.query.FindCandidates(spec))
	loose := spec.WithoutAdditionalRequirements()
	for i := len(candidates) - 1; i >= 0; i-- {
		if loose.Matches(candidates[i]) && h.usable(candidates[i]) {
			best = candidates[i]
			break
		}
	}
	installed := bestInEachSlot(installedOnly(h.query.FindCandidates(spec)), spec)

	bestIsInstalled := false
	for _, id := range installed {
		if best != nil && id.Slot == best.Slot && id.Version.Equal(best.Version) {
			bestIsInstalled = true
		}
	}

	var ids []*paludis.PackageID
	switch {
	case best == nil:
		ids = installed
	case prefs.Best && prefs.Fallback && !prefs.Installed:
		if bestIsInstalled {
			ids = installed
		} else {
			ids = []*paludis.PackageID{best}
		}
	case prefs.Installed && prefs.Fallback && !prefs.Best:
		if len(installed) == 0 {
			ids = []*paludis.PackageID{best}
		} else {
			ids = installed
		}
	case prefs.Installed && prefs.Best:
		if !bestIsInstalled {
			ids = append(ids, best)
		}
		ids = append(ids, installed...)
	case prefs.Best:
		ids = []*paludis.PackageID{best}
	case prefs.Installed:
		ids = installed
	}

	var result []Resolvent
	seen := make(map[Resolvent]bool)
	for _, id := range ids {
		for _, dt := range dts {
			r := ResolventForID(id, dt)
			if !seen[r] {
				seen[r] = true
				result = append(result, r)
			}
		}
	}
	return result
}

func (h *ResolventsForHelper) usable(id *paludis.PackageID) bool {
	return !h.masks.IsMasked(id) || (h.PermitMasked != nil && h.PermitMasked(id))
}

// bestInEachSlot keeps the best matching ID of each slot, in slot order
func bestInEachSlot(ids []*paludis.PackageID, spec paludis.PackageDepSpec) []*paludis.PackageID {
	bySlot := make(map[paludis.SlotName]*paludis.PackageID)
	var slots []paludis.SlotName
	for _, id := range ids {
		if !spec.Matches(id) {
			continue
		}
		if _, ok := bySlot[id.Slot]; !ok {
			slots = append(slots, id.Slot)
		}
		bySlot[id.Slot] = id
	}
	result := make([]*paludis.PackageID, 0, len(slots))
	for _, s := range slots {
		result = append(result, bySlot[s])
	}
	paludis.SortPackageIDs(result)
	return result
}

// DestinationTypesFinder decides where the package a reason asks for should go.
// Targets go to TargetDestinationType. Dependencies go to / and, when the target
// destination is somewhere else, optionally there too.
type DestinationTypesFinder struct {
	TargetDestinationType DestinationType
	// WantTargetDependencies sends every dependency to a non / target destination
	WantTargetDependencies bool
	// WantTargetRuntimeDependencies sends run and post dependencies there
	WantTargetRuntimeDependencies  bool
	WantDependenciesOnSlash        bool
	WantRuntimeDependenciesOnSlash bool
}

// DefaultDestinationTypesFinder installs everything to /
func DefaultDestinationTypesFinder() DestinationTypesFinder {
	return DestinationTypesFinder{
		TargetDestinationType:          DestinationInstallToSlash,
		WantDependenciesOnSlash:        true,
		WantRuntimeDependenciesOnSlash: true,
	}
}

// DestinationTypesFor returns the target destination first, then /
func (f DestinationTypesFinder) DestinationTypesFor(spec paludis.PackageDepSpec, reason Reason) []DestinationType {
	switch r := reason.(type) {
	case *TargetReason:
		return []DestinationType{f.TargetDestinationType}
	case *DependentReason, *WasUsedByReason:
		return []DestinationType{DestinationInstallToSlash}
	case *SetReason:
		return f.DestinationTypesFor(spec, r.ReasonForSet)
	case *LikeOtherDestinationTypeReason:
		return f.DestinationTypesFor(spec, r.ReasonForOtherResolvent)
	case *DependencyReason:
		return f.forDependency(r.Dependency)
	}
	// presets and via binary constraints are made directly, never looked up
	return nil
}

func (f DestinationTypesFinder) forDependency(dep paludis.SanitisedDependency) []DestinationType {
	runtime := dep.Labels.IsRun() || dep.Labels.IsPost()

	var result []DestinationType
	if f.TargetDestinationType != DestinationInstallToSlash {
		if f.WantTargetDependencies || (f.WantTargetRuntimeDependencies && runtime) {
			result = append(result, f.TargetDestinationType)
		}
	}

	slash := false
	if f.WantDependenciesOnSlash != f.WantRuntimeDependenciesOnSlash {
		slash = (f.WantDependenciesOnSlash && !runtime) || (f.WantRuntimeDependenciesOnSlash && runtime)
	} else {
		slash = f.WantDependenciesOnSlash
	}
	if slash {
		result = append(result, DestinationInstallToSlash)
	}
	return result
}
