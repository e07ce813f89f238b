package resolver

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	perrors "github.com/bdwyertech/go-paludis/pkg/errors"
	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// DefaultMaxRedecisions is how many times one resolvent may be decided again
// before resolution gives up
const DefaultMaxRedecisions = 100

// Scores used to pick a child of an any-of group
const (
	scoreInstalled      = 50
	scoreDecided        = 40
	scoreInstallable    = 30
	scoreMasked         = 20
	scoreBlockInstalled = 10
	scoreNothing        = 0
)

type resolutionState struct {
	queued      bool
	deferred    bool
	depsAdded   bool
	redecisions int
}

// Decider turns targets into a decision for every resolvent they reach
type Decider struct {
	env            Environment
	fns            ResolverFunctions
	notifier       Notifier
	maxRedecisions int

	resolutions    *ResolutionsByResolvent
	state          map[Resolvent]*resolutionState
	queue          []Resolvent
	deferred       []Resolvent
	dependentsSeen map[string]bool
	resolved       bool
}

// NewDecider creates a decider. Missing functions in fns are given defaults.
func NewDecider(env Environment, fns ResolverFunctions, notifier Notifier, maxRedecisions int) *Decider {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if maxRedecisions <= 0 {
		maxRedecisions = DefaultMaxRedecisions
	}
	d := &Decider{
		env:            env,
		fns:            fns.withDefaults(env),
		notifier:       notifier,
		maxRedecisions: maxRedecisions,
	}
	d.Purge()
	return d
}

// Purge throws away every resolution so that targets can be added again
func (d *Decider) Purge() {
	d.resolutions = NewResolutionsByResolvent()
	d.state = make(map[Resolvent]*resolutionState)
	d.queue = nil
	d.deferred = nil
	d.dependentsSeen = make(map[string]bool)
	d.resolved = false
}

// Resolutions returns every resolution in discovery order
func (d *Decider) Resolutions() *ResolutionsByResolvent {
	return d.resolutions
}

// AddTargetWithReason adds constraints for a target spec to every resolvent it refers to
func (d *Decider) AddTargetWithReason(spec paludis.PackageOrBlockDepSpec, reason Reason) error {
	if d.resolved {
		return perrors.NewInternalError("targets cannot be added after resolution", nil).
			WithContext("target", spec.String())
	}
	log.Debugf("Adding target %s (%s)", spec, reason)

	resolvents, err := d.resolventsFor(spec, reason)
	if err != nil {
		return err
	}
	for _, r := range resolvents {
		res := d.resolutionFor(r)
		if err := d.applyConstraint(res, d.targetConstraint(r, spec, reason)); err != nil {
			return err
		}
	}
	return nil
}

// Resolve runs until every resolution is decided and every dependent of a
// removed package has been handled
func (d *Decider) Resolve(ctx context.Context) error {
	for {
		d.notifier.Notify(StageEvent{Stage: StageDeciding})
		if err := d.decideWithDependencies(ctx); err != nil {
			return err
		}

		d.notifier.Notify(StageEvent{Stage: StageDependents})
		changed, err := d.resolveDependents()
		if err != nil {
			return err
		}
		if !changed {
			break
		}
	}
	d.resolved = true
	return nil
}

func (d *Decider) resolventsFor(spec paludis.PackageOrBlockDepSpec, reason Reason) ([]Resolvent, error) {
	if spec.IsBlock() {
		return d.blockerResolvents(*spec.Block), nil
	}
	resolvents, err := d.fns.GetResolventsForFn(*spec.Package, reason)
	if err != nil {
		return nil, fmt.Errorf("finding resolvents for %s: %w", spec, err)
	}
	if len(resolvents) == 0 {
		resolvents = d.errorResolvents(*spec.Package, reason)
	}
	return resolvents, nil
}

func (d *Decider) errorResolvents(spec paludis.PackageDepSpec, reason Reason) []Resolvent {
	var result []Resolvent
	for _, dt := range d.fns.GetDestinationTypesForFn(spec, reason) {
		result = append(result, errorResolvent(spec.Name, dt))
	}
	return result
}

// blockerResolvents returns a resolvent for the blocked slot, or for every slot
// the blocked package is known in. Blocking something unknown needs no resolvent.
func (d *Decider) blockerResolvents(block paludis.BlockDepSpec) []Resolvent {
	spec := block.Blocking
	if spec.Slot != nil {
		return []Resolvent{NewResolvent(spec.Name, *spec.Slot, DestinationInstallToSlash)}
	}

	seen := make(map[paludis.SlotName]bool)
	var slots []paludis.SlotName
	for _, id := range d.env.FindCandidates(paludis.NewPackageDepSpec(spec.Name)) {
		if !seen[id.Slot] {
			seen[id.Slot] = true
			slots = append(slots, id.Slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })

	result := make([]Resolvent, 0, len(slots))
	for _, s := range slots {
		result = append(result, NewResolvent(spec.Name, s, DestinationInstallToSlash))
	}
	return result
}

func (d *Decider) targetConstraint(r Resolvent, spec paludis.PackageOrBlockDepSpec, reason Reason) *Constraint {
	if spec.IsBlock() {
		return &Constraint{
			DestinationType:  r.DestinationType,
			Spec:             spec,
			Reason:           reason,
			UseExisting:      UseExistingIfPossible,
			NothingIsFineToo: true,
		}
	}
	return &Constraint{
		DestinationType: r.DestinationType,
		Spec:            spec,
		Reason:          reason,
		UseExisting:     d.fns.GetUseExistingFn(r, *spec.Package, reason),
	}
}

func (d *Decider) dependencyConstraint(r Resolvent, dep paludis.SanitisedDependency, reason Reason, interest SpecInterest) *Constraint {
	if dep.Spec.IsBlock() {
		return &Constraint{
			DestinationType:  r.DestinationType,
			Spec:             dep.Spec,
			Reason:           reason,
			UseExisting:      UseExistingIfPossible,
			NothingIsFineToo: true,
		}
	}
	return &Constraint{
		DestinationType: r.DestinationType,
		Spec:            dep.Spec,
		Reason:          reason,
		UseExisting:     d.fns.GetUseExistingFn(r, *dep.Spec.Package, reason),
		Untaken:         interest == SpecInterestUntaken,
	}
}

// resolutionFor finds or creates the resolution for a resolvent. New
// resolutions get their initial constraints and are queued.
func (d *Decider) resolutionFor(r Resolvent) *Resolution {
	if res, ok := d.resolutions.Get(r); ok {
		return res
	}
	res := newResolution(r)
	for _, c := range d.fns.GetInitialConstraintsForFn(r) {
		res.Constraints.Add(c)
	}
	d.resolutions.Insert(res)
	d.state[r] = &resolutionState{}
	d.enqueue(r)
	log.Debugf("New resolution for %s", r)
	return res
}

func (d *Decider) enqueue(r Resolvent) {
	st := d.state[r]
	if st.queued {
		return
	}
	st.queued = true
	d.queue = append(d.queue, r)
}

func (d *Decider) applyConstraint(res *Resolution, c *Constraint) error {
	if res.Decision == nil {
		res.Constraints.Add(c)
		st := d.state[res.Resolvent]
		if st.deferred && !c.Untaken {
			st.deferred = false
			d.queue = append(d.queue, res.Resolvent)
		}
		return nil
	}

	if d.checkConstraint(res.Decision, c) {
		res.Constraints.Add(c)
		if _, unable := res.Decision.(*UnableToMakeDecision); unable {
			// keep each candidate's unmet constraints in step with the new constraint
			res.Decision = d.cannotDecideFor(res.Resolvent, res.Constraints)
		}
		return nil
	}
	return d.madeWrongDecision(res, c)
}

// checkConstraint reports whether an existing decision already satisfies a new constraint
func (d *Decider) checkConstraint(decision Decision, c *Constraint) bool {
	if unable, ok := decision.(*UnableToMakeDecision); ok {
		return c.Untaken || unable.Taken
	}

	if chosen := chosenID(decision); chosen == nil {
		if !c.NothingIsFineToo {
			return false
		}
	} else if !c.allows(chosen) {
		return false
	}

	if existing, ok := decision.(*ExistingNoChangeDecision); ok {
		switch c.UseExisting {
		case UseExistingNever:
			return false
		case UseExistingOnlyIfTransient:
			if !existing.IsTransient {
				return false
			}
		case UseExistingIfSame:
			if !existing.IsSame {
				return false
			}
		case UseExistingIfSameVersion:
			if !existing.IsSameVersion {
				return false
			}
		}
	}

	if !c.Untaken && !decision.IsTaken() {
		return false
	}
	return true
}

// madeWrongDecision handles a constraint that the current decision does not
// satisfy. Decisions nothing depends upon yet are replaced; anything else means
// starting again.
func (d *Decider) madeWrongDecision(res *Resolution, c *Constraint) error {
	adapted := res.Constraints.Clone()
	adapted.Add(c)

	decision, err := d.tryToFindDecisionFor(res.Resolvent, adapted)
	if err != nil {
		return err
	}

	switch {
	case decision == nil:
		if err := d.replaceDecision(res, d.cannotDecideFor(res.Resolvent, adapted)); err != nil {
			return err
		}
	case sameDecision(res.Decision, decision):
	case canReplaceInPlace(res.Decision):
		if err := d.replaceDecision(res, decision); err != nil {
			return err
		}
	default:
		log.Debugf("Suggesting restart for %s because of %s", res.Resolvent, c)
		return &SuggestRestart{
			Resolvent:             res.Resolvent,
			PreviousDecision:      res.Decision,
			ProblematicConstraint: c,
			NewDecision:           decision,
			SuggestedPreset:       makeConstraintForPreloading(c),
		}
	}

	res.Constraints.Add(c)
	return nil
}

// canReplaceInPlace is true for decisions whose dependencies were never added
func canReplaceInPlace(d Decision) bool {
	if _, nothing := d.(*NothingNoChangeDecision); nothing {
		return true
	}
	return !d.IsTaken()
}

func (d *Decider) replaceDecision(res *Resolution, decision Decision) error {
	st := d.state[res.Resolvent]
	st.redecisions++
	if st.redecisions > d.maxRedecisions {
		return perrors.NewResolutionError("resolvent was redecided too many times", nil).
			WithContext("resolvent", res.Resolvent.String()).
			WithContext("limit", d.maxRedecisions)
	}
	log.Debugf("Redeciding %s: %s -> %s", res.Resolvent, res.Decision, decision)
	res.Decision = decision
	st.depsAdded = false
	d.enqueue(res.Resolvent)
	return nil
}

// makeConstraintForPreloading turns a problematic constraint into a preset for
// the next attempt, dropping any choice requirements
func makeConstraintForPreloading(c *Constraint) *Constraint {
	preset := *c
	preset.Reason = &PresetReason{Explanation: "restarted because of", MaybeReasonForPreset: c.Reason}
	switch {
	case c.Spec.Package != nil:
		preset.Spec = paludis.PackageSpec(c.Spec.Package.WithoutAdditionalRequirements())
	case c.Spec.Block != nil:
		preset.Spec = paludis.BlockSpec(paludis.BlockDepSpec{
			Blocking: c.Spec.Block.Blocking.WithoutAdditionalRequirements(),
			Strong:   c.Spec.Block.Strong,
		})
	}
	return &preset
}

func (d *Decider) decideWithDependencies(ctx context.Context) error {
	if err := d.drain(ctx, false); err != nil {
		return err
	}

	deferred := d.deferred
	d.deferred = nil
	for _, r := range deferred {
		if st := d.state[r]; st.deferred {
			st.deferred = false
			d.queue = append(d.queue, r)
		}
	}
	return d.drain(ctx, true)
}

// drain works through the queue. Until allowUntaken is set, resolutions with
// only untaken constraints are put aside so that a suggestion later turning into
// a hard dependency does not force a restart.
func (d *Decider) drain(ctx context.Context, allowUntaken bool) error {
	for len(d.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("resolution cancelled: %w", err)
		}

		r := d.queue[0]
		d.queue = d.queue[1:]
		st := d.state[r]
		res, _ := d.resolutions.Get(r)

		if res.Decision == nil {
			if st.deferred {
				continue
			}
			if !allowUntaken && res.Constraints.AllUntaken() {
				st.deferred = true
				d.deferred = append(d.deferred, r)
				continue
			}
			d.notifier.Notify(StepEvent{})
			if err := d.decide(res); err != nil {
				return err
			}
		}
		st.queued = false

		if !st.depsAdded {
			st.depsAdded = true
			if err := d.addDependenciesIfNecessary(res); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Decider) decide(res *Resolution) error {
	decision, err := d.tryToFindDecisionFor(res.Resolvent, res.Constraints)
	if err != nil {
		return err
	}
	if decision == nil {
		decision = d.cannotDecideFor(res.Resolvent, res.Constraints)
	}
	res.Decision = decision
	log.Debugf("Decided %s: %s", res.Resolvent, decision)
	return nil
}

// installedIDsFor returns the installed IDs in a resolvent's slot, best last.
// Only / has installed packages; binaries and chroots always start empty.
func (d *Decider) installedIDsFor(r Resolvent) []*paludis.PackageID {
	if r.DestinationType != DestinationInstallToSlash {
		return nil
	}
	var result []*paludis.PackageID
	for _, id := range installedOnly(d.env.FindCandidates(paludis.NewPackageDepSpec(r.Package))) {
		if r.matchesSlot(id) {
			result = append(result, id)
		}
	}
	return result
}

// installableIDsFor returns the installable IDs in a resolvent's slot, best last.
// Unknown slots include every slot so that failures can list what exists.
func (d *Decider) installableIDsFor(r Resolvent) []*paludis.PackageID {
	var result []*paludis.PackageID
	for _, id := range installableOnly(d.env.FindCandidates(paludis.NewPackageDepSpec(r.Package))) {
		if r.Slot.NullMeansUnknown || r.matchesSlot(id) {
			result = append(result, id)
		}
	}
	return result
}

// findIDFrom returns the best ID allowed by every constraint, and whether it is
// also the best ID overall
func findIDFrom(ids []*paludis.PackageID, cs *Constraints) (*paludis.PackageID, bool) {
	best := true
	for i := len(ids) - 1; i >= 0; i-- {
		if cs.allow(ids[i]) {
			return ids[i], best
		}
		best = false
	}
	return nil, false
}

func (d *Decider) findInstallableIDFor(r Resolvent, cs *Constraints) (id *paludis.PackageID, best, masked bool) {
	if r.Slot.NullMeansUnknown {
		return nil, false, false
	}
	var candidates []*paludis.PackageID
	for _, c := range d.installableIDsFor(r) {
		if !d.env.IsMasked(c) || d.fns.PermitMaskedFn(c) {
			candidates = append(candidates, c)
		}
	}
	id, best = findIDFrom(candidates, cs)
	if id != nil {
		masked = d.env.IsMasked(id)
	}
	return id, best, masked
}

func (d *Decider) tryToFindDecisionFor(r Resolvent, cs *Constraints) (Decision, error) {
	installed := d.installedIDsFor(r)
	existing, _ := findIDFrom(installed, cs)
	installable, best, masked := d.findInstallableIDFor(r, cs)
	taken := !cs.AllUntaken()

	switch {
	case cs.NothingIsFineToo() && existing == nil:
		if len(installed) == 0 {
			return &NothingNoChangeDecision{Resolvent: r, Taken: taken}, nil
		}
		if installable != nil {
			return d.changesToMake(r, cs, installable, best, masked)
		}
		for _, id := range installed {
			if !d.allowedToRemove(r, cs, id) {
				return nil, nil
			}
		}
		return &RemoveDecision{Resolvent: r, IDs: installed, Taken: taken}, nil

	case installable != nil && existing == nil:
		return d.changesToMake(r, cs, installable, best, masked)

	case existing != nil && installable == nil:
		switch cs.StrictestUseExisting() {
		case UseExistingOnlyIfTransient, UseExistingIfSame, UseExistingIfSameVersion:
			if !existing.Transient {
				return nil, nil
			}
		case UseExistingNever:
			return nil, nil
		}
		return &ExistingNoChangeDecision{
			Resolvent:     r,
			Existing:      existing,
			IsSame:        true,
			IsSameVersion: true,
			IsTransient:   existing.Transient,
			Taken:         taken,
		}, nil

	case existing == nil && installable == nil:
		return nil, nil
	}

	isSameVersion := existing.Version.Equal(installable.Version)
	isSame := isSameVersion && existing.Choices.SameAs(installable.Choices)
	keep := &ExistingNoChangeDecision{
		Resolvent:     r,
		Existing:      existing,
		IsSame:        isSame,
		IsSameVersion: isSameVersion,
		IsTransient:   existing.Transient,
		Taken:         taken,
	}

	switch cs.StrictestUseExisting() {
	case UseExistingIfSame:
		if isSame {
			return keep, nil
		}
	case UseExistingIfSameVersion:
		if isSameVersion {
			return keep, nil
		}
	case UseExistingIfPossible:
		return keep, nil
	}
	return d.changesToMake(r, cs, installable, best, masked)
}

func (d *Decider) allowedToRemove(r Resolvent, cs *Constraints, id *paludis.PackageID) bool {
	res, _ := d.resolutions.Get(r)
	if d.fns.AllowedToRemoveFn(res, id) {
		return true
	}
	for _, c := range cs.items {
		if _, dependent := c.Reason.(*DependentReason); dependent && d.fns.RemoveIfDependentFn(id) {
			return true
		}
	}
	return false
}

func (d *Decider) changesToMake(r Resolvent, cs *Constraints, id *paludis.PackageID, best, masked bool) (Decision, error) {
	repo, err := d.fns.FindRepositoryForFn(r, id)
	if err != nil {
		return nil, fmt.Errorf("finding a destination repository for %s: %w", id, err)
	}

	var replacing []*paludis.PackageID
	if r.DestinationType == DestinationInstallToSlash {
		for _, installed := range installedOnly(d.env.FindCandidates(paludis.NewPackageDepSpec(id.Name))) {
			if installed.Slot == id.Slot || installed.Version.Equal(id.Version) {
				replacing = append(replacing, installed)
			}
		}
	}

	var confirmations []RequiredConfirmation
	for _, installed := range replacing {
		if installed.Slot == id.Slot && installed.Version.GreaterThan(id.Version) {
			confirmations = append(confirmations, DowngradeConfirmation{})
			break
		}
	}
	if !best && cs.hasTargetReason() {
		confirmations = append(confirmations, NotBestConfirmation{})
	}
	if masked {
		confirmations = append(confirmations, MaskedConfirmation{})
	}

	decision := &ChangesToMakeDecision{
		Resolvent:             r,
		Origin:                id,
		Best:                  best,
		DestinationRepository: repo,
		Replacing:             replacing,
		Confirmations:         confirmations,
		Taken:                 !cs.AllUntaken(),
	}

	if r.DestinationType == DestinationInstallToSlash {
		res, _ := d.resolutions.Get(r)
		if d.fns.AlwaysViaBinaryFn(res, id) {
			binary, err := d.fns.FindRepositoryForFn(r.withDestination(DestinationCreateBinary), id)
			if err != nil {
				return nil, fmt.Errorf("finding a binary repository for %s: %w", id, err)
			}
			decision.IfViaNewBinaryIn = binary
		}
	}
	return decision, nil
}

func (d *Decider) cannotDecideFor(r Resolvent, cs *Constraints) Decision {
	candidates := d.installedIDsFor(r)
	installable := d.installableIDsFor(r)
	for i := len(installable) - 1; i >= 0; i-- {
		candidates = append(candidates, installable[i])
	}

	unsuitable := make([]UnsuitableCandidate, 0, len(candidates))
	for _, id := range candidates {
		unsuitable = append(unsuitable, UnsuitableCandidate{
			PackageID:        id,
			Masks:            d.env.MaskReasons(id),
			UnmetConstraints: cs.unmetBy(id),
		})
	}
	return &UnableToMakeDecision{
		Resolvent:            r,
		UnsuitableCandidates: unsuitable,
		Taken:                !cs.AllUntaken(),
	}
}

func (d *Decider) addDependenciesIfNecessary(res *Resolution) error {
	var id *paludis.PackageID
	switch decision := res.Decision.(type) {
	case *ChangesToMakeDecision:
		if decision.Taken {
			id = decision.Origin
		}
	case *ExistingNoChangeDecision:
		if decision.Taken {
			id = decision.Existing
		}
	}
	if id == nil {
		return nil
	}

	if changes, ok := res.Decision.(*ChangesToMakeDecision); ok && changes.IfViaNewBinaryIn != "" {
		if err := d.addViaBinary(res, changes); err != nil {
			return err
		}
	}

	for _, dep := range d.env.SanitisedDependencies(id, d) {
		interest := d.fns.InterestInSpecFn(res, id, dep)
		if interest == SpecInterestIgnore {
			continue
		}
		if dep.Spec.IsBlock() {
			// blocks on other versions of ourself are handled by replacing
			if interest == SpecInterestUntaken || dep.Spec.Name() == id.Name {
				continue
			}
		}

		reason := &DependencyReason{
			FromID:        id,
			FromResolvent: res.Resolvent,
			Dependency:    dep,
			AlreadyMet:    paludis.TriboolOf(d.alreadyMet(dep)),
		}

		resolvents, err := d.resolventsFor(dep.Spec, reason)
		if err != nil {
			return fmt.Errorf("adding dependencies of %s: %w", id, err)
		}
		reasons := reasonsByDestination(resolvents, reason)
		for i, r := range resolvents {
			depRes := d.resolutionFor(r)
			if err := d.applyConstraint(depRes, d.dependencyConstraint(r, dep, reasons[i], interest)); err != nil {
				return err
			}
		}
	}
	return nil
}

// reasonsByDestination gives the first resolvent of each slot the reason itself.
// The same slot going to another destination gets a reason pointing back at it.
func reasonsByDestination(resolvents []Resolvent, reason Reason) []Reason {
	first := make(map[Resolvent]Resolvent)
	reasons := make([]Reason, len(resolvents))
	for i, r := range resolvents {
		key := r.withDestination("")
		other, seen := first[key]
		if !seen {
			first[key] = r
			reasons[i] = reason
			continue
		}
		reasons[i] = &LikeOtherDestinationTypeReason{OtherResolvent: other, ReasonForOtherResolvent: reason}
	}
	return reasons
}

// addViaBinary asks for the binary that an install to / will be made from
func (d *Decider) addViaBinary(res *Resolution, changes *ChangesToMakeDecision) error {
	r := res.Resolvent.withDestination(DestinationCreateBinary)
	log.Debugf("Installing %s via a binary in %s", changes.Origin, changes.IfViaNewBinaryIn)
	return d.applyConstraint(d.resolutionFor(r), &Constraint{
		DestinationType: DestinationCreateBinary,
		Spec:            paludis.PackageSpec(changes.Origin.UniqueSpec()),
		Reason:          &ViaBinaryReason{OtherResolvent: res.Resolvent},
		UseExisting:     UseExistingNever,
	})
}

// alreadyMet reports whether installed packages satisfy a dependency as things stand
func (d *Decider) alreadyMet(dep paludis.SanitisedDependency) bool {
	spec := dep.Spec.PositiveSpec()
	matched := false
	for _, id := range installedOnly(d.env.FindCandidates(spec)) {
		if spec.Matches(id) {
			matched = true
			break
		}
	}
	if dep.Spec.IsBlock() {
		return !matched
	}
	return matched
}

// resolveDependents finds installed packages that depend upon something being
// removed. Each is either removed too or broken. It reports whether anything new
// was found.
func (d *Decider) resolveDependents() (bool, error) {
	var removed []ChangeByResolvent
	goingAway := make(map[string]bool)
	var arriving []*paludis.PackageID

	for _, res := range d.resolutions.All() {
		switch decision := res.Decision.(type) {
		case *RemoveDecision:
			if decision.Taken {
				for _, id := range decision.IDs {
					removed = append(removed, ChangeByResolvent{PackageID: id, Resolvent: res.Resolvent})
					goingAway[id.String()] = true
				}
			}
		case *ChangesToMakeDecision:
			if decision.Taken && res.Resolvent.DestinationType == DestinationInstallToSlash {
				arriving = append(arriving, decision.Origin)
				for _, id := range decision.Replacing {
					goingAway[id.String()] = true
				}
			}
		}
	}
	if len(removed) == 0 {
		return false, nil
	}

	installed := d.env.InstalledIDs()
	paludis.SortPackageIDs(installed)

	changed := false
	for _, id := range installed {
		if goingAway[id.String()] {
			continue
		}
		for _, dep := range d.env.SanitisedDependencies(id, d) {
			if dep.IsSuggestion() || dep.Spec.IsBlock() {
				continue
			}
			spec := *dep.Spec.Package

			var dependsOn *ChangeByResolvent
			for i := range removed {
				if spec.Matches(removed[i].PackageID) {
					dependsOn = &removed[i]
					break
				}
			}
			if dependsOn == nil || d.satisfiedAfterChanges(spec, installed, goingAway, arriving) {
				continue
			}

			key := id.String() + "|" + dependsOn.PackageID.String()
			if d.dependentsSeen[key] {
				continue
			}
			d.dependentsSeen[key] = true
			changed = true

			if err := d.addDependent(id, *dependsOn); err != nil {
				return false, err
			}
		}
	}
	return changed, nil
}

func (d *Decider) satisfiedAfterChanges(spec paludis.PackageDepSpec, installed []*paludis.PackageID,
	goingAway map[string]bool, arriving []*paludis.PackageID) bool {
	for _, id := range installed {
		if !goingAway[id.String()] && spec.Matches(id) {
			return true
		}
	}
	for _, id := range arriving {
		if spec.Matches(id) {
			return true
		}
	}
	return false
}

func (d *Decider) addDependent(id *paludis.PackageID, dependsOn ChangeByResolvent) error {
	r := ResolventForID(id, DestinationInstallToSlash)
	res := d.resolutionFor(r)
	reason := &DependentReason{DependentUpon: dependsOn}

	log.Debugf("%s depends upon %s, which is being removed", id, dependsOn.PackageID)

	if d.fns.RemoveIfDependentFn(id) {
		slot := id.Slot
		return d.applyConstraint(res, &Constraint{
			DestinationType: r.DestinationType,
			Spec: paludis.BlockSpec(paludis.BlockDepSpec{
				Blocking: paludis.PackageDepSpec{Name: id.Name, Slot: &slot},
			}),
			Reason:           reason,
			UseExisting:      UseExistingIfPossible,
			NothingIsFineToo: true,
		})
	}

	res.Constraints.Add(&Constraint{
		DestinationType: r.DestinationType,
		Spec:            paludis.PackageSpec(id.UniqueSpec()),
		Reason:          reason,
		UseExisting:     UseExistingIfPossible,
	})
	switch res.Decision.(type) {
	case nil, *ExistingNoChangeDecision, *NothingNoChangeDecision:
		res.Decision = &BreakDecision{
			Resolvent:     r,
			Existing:      id,
			Confirmations: []RequiredConfirmation{BreakConfirmation{}},
			Taken:         true,
		}
		st := d.state[r]
		st.depsAdded = true
		st.deferred = false
	}
	return nil
}

// ScoreAnyChild ranks one child of an any-of group: something already
// installed beats something already decided upon, which beats something
// installable, which beats something masked.
func (d *Decider) ScoreAnyChild(_ *paludis.PackageID, spec paludis.PackageOrBlockDepSpec) int {
	if spec.IsBlock() {
		blocking := spec.Block.Blocking
		for _, id := range installedOnly(d.env.FindCandidates(blocking)) {
			if blocking.Matches(id) {
				return scoreBlockInstalled
			}
		}
		return scoreInstalled
	}

	pkg := *spec.Package
	candidates := d.env.FindCandidates(pkg)
	for _, id := range installedOnly(candidates) {
		if pkg.Matches(id) {
			return scoreInstalled
		}
	}
	for _, res := range d.resolutions.All() {
		if res.Resolvent.Package != pkg.Name {
			continue
		}
		if id := chosenID(res.Decision); id != nil && pkg.Matches(id) {
			return scoreDecided
		}
	}
	score := scoreNothing
	for _, id := range installableOnly(candidates) {
		if !pkg.Matches(id) {
			continue
		}
		if !d.env.IsMasked(id) {
			return scoreInstallable
		}
		score = scoreMasked
	}
	return score
}
