// Package policy turns user configuration into the callbacks the resolver asks
// whenever it has a choice to make.
package policy

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/bdwyertech/go-paludis/internal/config"
	perrors "github.com/bdwyertech/go-paludis/pkg/errors"
	"github.com/bdwyertech/go-paludis/pkg/paludis"
	"github.com/bdwyertech/go-paludis/pkg/repository"
	"github.com/bdwyertech/go-paludis/pkg/resolver"
)

// Environment is what a policy needs to know about repositories
type Environment interface {
	resolver.Environment
	InstalledRepository() (*repository.Repository, bool)
}

// Policy holds parsed configuration
type Policy struct {
	env Environment

	destinations     resolver.DestinationTypesFinder
	binaryRepository paludis.RepositoryName
	chrootRepository paludis.RepositoryName

	targetSlots     resolver.SlotPreferences
	dependencySlots resolver.SlotPreferences

	targetUseExisting     resolver.UseExisting
	setUseExisting        resolver.UseExisting
	dependencyUseExisting resolver.UseExisting

	takeSuggestions         bool
	takeRecommendations     bool
	followInstalledBuilds   bool
	permitDowngrade         bool
	permitOldVersion        bool
	installedRepositoryName paludis.RepositoryName

	take              SpecList
	ignore            SpecList
	permitRemove      SpecList
	removeIfDependent SpecList
	permitBreak       SpecList
	unmask            SpecList
	early             SpecList
	late              SpecList
	presets           SpecList
	viaBinary         SpecList
}

// New parses cfg. Every spec list is checked up front so that a typo is reported
// before resolution starts.
func New(env Environment, cfg *config.Config) (*Policy, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	p := &Policy{
		env:                   env,
		takeSuggestions:       config.BoolValue(cfg.TakeSuggestions),
		takeRecommendations:   cfg.TakeRecommendations == nil || *cfg.TakeRecommendations,
		followInstalledBuilds: config.BoolValue(cfg.FollowInstalledBuildDependencies),
		permitDowngrade:       config.BoolValue(cfg.PermitDowngrade),
		permitOldVersion:      config.BoolValue(cfg.PermitOldVersion),
	}

	var err error
	if p.destinations, err = destinationTypesFinder(cfg); err != nil {
		return nil, err
	}
	if p.targetSlots, err = resolver.ParseSlotPreferences(cfg.GetTargetSlots()); err != nil {
		return nil, configError("target_slots", err)
	}
	if p.dependencySlots, err = resolver.ParseSlotPreferences(cfg.GetDependencySlots()); err != nil {
		return nil, configError("dependency_slots", err)
	}
	if p.targetUseExisting, err = resolver.ParseUseExisting(cfg.GetTargetUseExisting()); err != nil {
		return nil, configError("target_use_existing", err)
	}
	if p.setUseExisting, err = resolver.ParseUseExisting(cfg.GetSetUseExisting()); err != nil {
		return nil, configError("set_use_existing", err)
	}
	if p.dependencyUseExisting, err = resolver.ParseUseExisting(cfg.GetDependencyUseExisting()); err != nil {
		return nil, configError("dependency_use_existing", err)
	}

	lists := []struct {
		name    string
		entries []string
		dst     *SpecList
	}{
		{"take", cfg.Take, &p.take},
		{"ignore", cfg.Ignore, &p.ignore},
		{"permit_remove", cfg.PermitRemove, &p.permitRemove},
		{"remove_if_dependent", cfg.RemoveIfDependent, &p.removeIfDependent},
		{"permit_break", cfg.PermitBreak, &p.permitBreak},
		{"unmask", cfg.Unmask, &p.unmask},
		{"early", cfg.Early, &p.early},
		{"late", cfg.Late, &p.late},
		{"presets", cfg.Presets, &p.presets},
		{"via_binary", cfg.ViaBinary, &p.viaBinary},
	}
	for _, l := range lists {
		if *l.dst, err = ParseSpecList(l.entries); err != nil {
			return nil, configError(l.name, err)
		}
	}

	if name := cfg.GetInstalledRepository(); name != "" {
		p.installedRepositoryName = paludis.RepositoryName(name)
	} else if repo, ok := env.InstalledRepository(); ok {
		p.installedRepositoryName = repo.Name()
	}

	return p, nil
}

// destinationTypesFinder reads make, make_dependencies and dependencies_to_slash
func destinationTypesFinder(cfg *config.Config) (resolver.DestinationTypesFinder, error) {
	f := resolver.DestinationTypesFinder{}

	switch v := cfg.GetMake(); v {
	case "install":
		f.TargetDestinationType = resolver.DestinationInstallToSlash
	case "binaries":
		f.TargetDestinationType = resolver.DestinationCreateBinary
	case "chroot":
		f.TargetDestinationType = resolver.DestinationInstallToChroot
	default:
		return f, configError("make", fmt.Errorf("unknown value %q", v))
	}

	switch v := cfg.GetMakeDependencies(); v {
	case "auto":
		f.WantTargetRuntimeDependencies = f.TargetDestinationType != resolver.DestinationInstallToSlash
	case "runtime":
		f.WantTargetRuntimeDependencies = true
	case "all":
		f.WantTargetDependencies = true
	case "none":
	default:
		return f, configError("make_dependencies", fmt.Errorf("unknown value %q", v))
	}

	switch v := cfg.GetDependenciesToSlash(); v {
	case "all":
		f.WantDependenciesOnSlash, f.WantRuntimeDependenciesOnSlash = true, true
	case "runtime":
		f.WantRuntimeDependenciesOnSlash = true
	case "build":
		f.WantDependenciesOnSlash = true
	case "none":
	default:
		return f, configError("dependencies_to_slash", fmt.Errorf("unknown value %q", v))
	}
	return f, nil
}

func configError(field string, err error) error {
	return perrors.NewConfigurationError(fmt.Sprintf("invalid %s", field), err)
}

// Functions returns resolver callbacks backed by this policy
func (p *Policy) Functions() resolver.ResolverFunctions {
	helper := resolver.NewResolventsForHelper(p.env)
	helper.TargetSlots = p.targetSlots
	helper.OtherSlots = p.dependencySlots
	helper.PermitMasked = p.PermitMasked

	return resolver.ResolverFunctions{
		GetResolventsForFn: func(spec paludis.PackageDepSpec, reason resolver.Reason) ([]resolver.Resolvent, error) {
			return helper.ResolventsFor(spec, reason, p.DestinationTypesFor(spec, reason)), nil
		},
		GetDestinationTypesForFn:   p.DestinationTypesFor,
		GetUseExistingFn:           p.UseExisting,
		FindRepositoryForFn:        p.FindRepositoryFor,
		GetInitialConstraintsForFn: p.InitialConstraintsFor,
		InterestInSpecFn:           p.InterestInSpec,
		AllowedToRemoveFn:          p.AllowedToRemove,
		RemoveIfDependentFn:        p.removeIfDependent.MatchesID,
		PermitMaskedFn:             p.PermitMasked,
		AlwaysViaBinaryFn:          p.AlwaysViaBinary,
		ConfirmFn:                  p.Confirm,
		OrderEarlyFn:               p.OrderEarly,
	}
}

// DestinationTypesFor sends targets where make says and dependencies where
// make_dependencies and dependencies_to_slash say
func (p *Policy) DestinationTypesFor(spec paludis.PackageDepSpec, reason resolver.Reason) []resolver.DestinationType {
	return p.destinations.DestinationTypesFor(spec, reason)
}

// UseExisting picks the configured value for targets, set members and everything else
func (p *Policy) UseExisting(_ resolver.Resolvent, _ paludis.PackageDepSpec, reason resolver.Reason) resolver.UseExisting {
	switch reason.(type) {
	case *resolver.TargetReason:
		return p.targetUseExisting
	case *resolver.SetReason:
		return p.setUseExisting
	}
	return p.dependencyUseExisting
}

// FindRepositoryFor sends installs to / into the installed repository, binaries
// into binary_repository and chroot installs into chroot_repository
func (p *Policy) FindRepositoryFor(r resolver.Resolvent, id *paludis.PackageID) (paludis.RepositoryName, error) {
	var name paludis.RepositoryName
	setting := "installed_repository"
	switch r.DestinationType {
	case resolver.DestinationCreateBinary:
		name, setting = p.binaryRepository, "binary_repository"
	case resolver.DestinationInstallToChroot:
		name, setting = p.chrootRepository, "chroot_repository"
	default:
		name = p.installedRepositoryName
	}
	if name == "" {
		return "", perrors.NewRepositoryError(fmt.Sprintf("no repository to %s %s into", r.DestinationType, id), nil).
			WithSuggestion("Set " + setting)
	}
	return name, nil
}

// AlwaysViaBinary is true for IDs in via_binary
func (p *Policy) AlwaysViaBinary(_ *resolver.Resolution, id *paludis.PackageID) bool {
	return p.binaryRepository != "" && p.viaBinary.MatchesID(id)
}

// InitialConstraintsFor turns presets for a resolvent's package into constraints.
// A preset never forces a change: it only restricts what may be chosen.
func (p *Policy) InitialConstraintsFor(r resolver.Resolvent) []*resolver.Constraint {
	var result []*resolver.Constraint
	for _, spec := range p.presets.Specs() {
		if spec.Name != r.Package {
			continue
		}
		if spec.Slot != nil && r.Slot.Known() && *spec.Slot != r.Slot.Name {
			continue
		}
		log.Debugf("Preset %s applies to %s", spec, r)
		result = append(result, &resolver.Constraint{
			DestinationType:  r.DestinationType,
			Spec:             paludis.PackageSpec(spec),
			Reason:           &resolver.PresetReason{Explanation: "preset"},
			UseExisting:      resolver.UseExistingIfPossible,
			NothingIsFineToo: true,
		})
	}
	return result
}

// InterestInSpec decides whether a dependency is taken. Explicit take and ignore
// lists win; then installed packages drop build-only dependencies and
// suggestions; then suggestions and recommendations follow configuration.
func (p *Policy) InterestInSpec(res *resolver.Resolution, _ *paludis.PackageID, dep paludis.SanitisedDependency) resolver.SpecInterest {
	name := dep.Spec.Name()
	if !dep.Spec.IsBlock() {
		if p.ignore.MatchesName(name) {
			return resolver.SpecInterestIgnore
		}
		if p.take.MatchesName(name) {
			return resolver.SpecInterestTake
		}
	}

	if _, existing := res.Decision.(*resolver.ExistingNoChangeDecision); existing {
		if !p.followInstalledBuilds && dep.Labels.IsBuild() && !dep.Labels.IsRun() && !dep.Labels.IsPost() {
			return resolver.SpecInterestIgnore
		}
		if dep.IsSuggestion() {
			return resolver.SpecInterestIgnore
		}
	}

	switch {
	case dep.Labels.Has(paludis.LabelSuggestion):
		if p.takeSuggestions {
			return resolver.SpecInterestTake
		}
		return resolver.SpecInterestUntaken
	case dep.Labels.IsRecommendationOnly():
		if p.takeRecommendations {
			return resolver.SpecInterestTake
		}
		return resolver.SpecInterestUntaken
	}
	return resolver.SpecInterestTake
}

// AllowedToRemove is true for IDs in permit_remove
func (p *Policy) AllowedToRemove(_ *resolver.Resolution, id *paludis.PackageID) bool {
	return p.permitRemove.MatchesID(id)
}

// PermitMasked is true for IDs in unmask
func (p *Policy) PermitMasked(id *paludis.PackageID) bool {
	return p.unmask.MatchesID(id)
}

// Confirm grants confirmations the configuration allows
func (p *Policy) Confirm(res *resolver.Resolution, decision resolver.ConfirmableDecision, c resolver.RequiredConfirmation) bool {
	switch c.(type) {
	case resolver.DowngradeConfirmation:
		return p.permitDowngrade
	case resolver.NotBestConfirmation:
		return p.permitOldVersion
	case resolver.MaskedConfirmation:
		if d, ok := decision.(*resolver.ChangesToMakeDecision); ok {
			return p.unmask.MatchesID(d.Origin)
		}
	case resolver.BreakConfirmation:
		if d, ok := decision.(*resolver.BreakDecision); ok {
			return p.permitBreak.MatchesID(d.Existing)
		}
	case resolver.RemoveSystemPackageConfirmation:
		if d, ok := decision.(*resolver.RemoveDecision); ok {
			for _, id := range d.IDs {
				if !p.permitRemove.MatchesID(id) {
					return false
				}
			}
			return len(d.IDs) > 0
		}
	}
	log.Debugf("Not confirming %s for %s", c, res.Resolvent)
	return false
}

// OrderEarly is true for packages in early, false for those in late
func (p *Policy) OrderEarly(res *resolver.Resolution) paludis.Tribool {
	switch {
	case p.early.MatchesName(res.Resolvent.Package):
		return paludis.True
	case p.late.MatchesName(res.Resolvent.Package):
		return paludis.False
	}
	return paludis.Indeterminate
}
