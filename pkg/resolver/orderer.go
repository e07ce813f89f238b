package resolver

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	perrors "github.com/bdwyertech/go-paludis/pkg/errors"
)

// cycleRules are tried in order until no cycles remain. Each rule says which
// edges inside a cycle may be dropped.
var cycleRules = []struct {
	name string
	drop func(EdgeProperties) bool
}{
	{"suggestion", func(p EdgeProperties) bool { return p.Suggestion && !p.Build && !p.Run && !p.Post }},
	{"post", func(p EdgeProperties) bool { return !p.Build && !p.Run }},
	{"already met", func(p EdgeProperties) bool { return p.AlreadyMet }},
	{"run", func(p EdgeProperties) bool { return !p.Build }},
}

// Orderer turns decided resolutions into buckets and job lists
type Orderer struct {
	fns         ResolverFunctions
	resolutions *ResolutionsByResolvent
	notifier    Notifier
}

// NewOrderer creates an orderer for a set of decided resolutions
func NewOrderer(env Environment, fns ResolverFunctions, resolutions *ResolutionsByResolvent, notifier Notifier) *Orderer {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Orderer{
		fns:         fns.withDefaults(env),
		resolutions: resolutions,
		notifier:    notifier,
	}
}

// Order builds the Resolved result
func (o *Orderer) Order(ctx context.Context) (*Resolved, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ordering cancelled: %w", err)
	}
	o.notifier.Notify(StageEvent{Stage: StageOrdering})

	resolved := &Resolved{ResolutionsByResolvent: o.resolutions}
	nag := NewNAG()

	for seq, res := range o.resolutions.All() {
		if res.Decision == nil {
			return nil, perrors.NewInternalError("resolution has no decision", nil).
				WithContext("resolvent", res.Resolvent.String())
		}

		switch decision := res.Decision.(type) {
		case *UnableToMakeDecision:
			if decision.Taken {
				resolved.TakenUnableToMakeDecisions = append(resolved.TakenUnableToMakeDecisions, res)
			} else {
				resolved.UntakenUnableToMakeDecisions = append(resolved.UntakenUnableToMakeDecisions, res)
			}

		case *ChangesToMakeDecision, *RemoveDecision:
			switch {
			case !decision.IsTaken():
				resolved.UntakenChangeOrRemoveDecisions = append(resolved.UntakenChangeOrRemoveDecisions, res)
			case !o.confirmed(res, decision.(ConfirmableDecision)):
				resolved.TakenUnconfirmedDecisions = append(resolved.TakenUnconfirmedDecisions, res)
			default:
				nag.AddNode(res, seq, o.fns.OrderEarlyFn(res))
			}

		case *BreakDecision:
			if decision.Taken && !o.confirmed(res, decision) {
				resolved.TakenUnconfirmedDecisions = append(resolved.TakenUnconfirmedDecisions, res)
			}
		}
	}

	o.addEdges(nag)
	resolved.CycleBreaks = o.breakCycles(nag)

	for _, component := range nag.CyclicComponents() {
		for _, node := range component {
			log.Warnf("Cannot order %s: it is part of an unbreakable cycle", node)
			resolved.TakenUnorderableDecisions = append(resolved.TakenUnorderableDecisions, node.Resolution)
			nag.removeNode(node)
		}
	}
	sort.SliceStable(resolved.TakenUnorderableDecisions, func(i, j int) bool {
		return o.resolutions.Sequence(resolved.TakenUnorderableDecisions[i].Resolvent) <
			o.resolutions.Sequence(resolved.TakenUnorderableDecisions[j].Resolvent)
	})

	// only build and run requirements constrain the final order
	for _, requirer := range nag.AllNodes() {
		for _, required := range nag.Requirements(requirer) {
			if props, _ := nag.Properties(requirer, required); !props.ordering() {
				nag.removeRequirement(requirer, required)
			}
		}
	}

	sorted, err := nag.Sort()
	if err != nil {
		return nil, perrors.NewInternalError("ordering failed", err)
	}
	o.makeJobs(nag, sorted, resolved)

	log.Debugf("Ordered %d resolutions into %d jobs", len(sorted), len(resolved.ExecuteJobs))
	return resolved, nil
}

func (o *Orderer) confirmed(res *Resolution, decision ConfirmableDecision) bool {
	for _, c := range decision.RequiredConfirmations() {
		if !o.fns.ConfirmFn(res, decision, c) {
			return false
		}
	}
	return true
}

// addEdges creates requirements from dependency, dependent and via binary
// constraints, and from removals of things another install replaces
func (o *Orderer) addEdges(nag *NAG) {
	for _, node := range nag.AllNodes() {
		res := node.Resolution
		for _, c := range res.Constraints.All() {
			reason := c.Reason
			if like, ok := reason.(*LikeOtherDestinationTypeReason); ok {
				reason = like.ReasonForOtherResolvent
			}
			switch reason := reason.(type) {
			case *DependencyReason:
				requirer, ok := nag.Node(reason.FromResolvent)
				if !ok {
					continue
				}
				if c.Spec.IsBlock() {
					// a strong block must be cleared before the blocker is installed
					if c.Spec.Block.Strong {
						nag.AddRequirement(requirer, node, EdgeProperties{Build: true})
					}
					continue
				}
				nag.AddRequirement(requirer, node, edgePropertiesFor(reason.Dependency.Labels, reason.AlreadyMet.IsTrue()))

			case *ViaBinaryReason:
				// the binary is made before it is installed
				if requirer, ok := nag.Node(reason.OtherResolvent); ok {
					nag.AddRequirement(requirer, node, EdgeProperties{Build: true})
				}

			case *DependentReason:
				// a dependent goes before the thing it depends upon
				if requirer, ok := nag.Node(reason.DependentUpon.Resolvent); ok {
					nag.AddRequirement(requirer, node, EdgeProperties{Run: true})
				}
			}
		}

		removal, ok := res.Decision.(*RemoveDecision)
		if !ok {
			continue
		}
		for _, other := range nag.AllNodes() {
			changes, ok := other.Resolution.Decision.(*ChangesToMakeDecision)
			if !ok || other == node {
				continue
			}
			for _, replaced := range changes.Replacing {
				for _, id := range removal.IDs {
					if replaced.Equal(id) {
						nag.AddRequirement(node, other, EdgeProperties{Run: true})
					}
				}
			}
		}
	}
}

func (o *Orderer) breakCycles(nag *NAG) []CycleBreak {
	var breaks []CycleBreak
	for _, rule := range cycleRules {
		components := nag.CyclicComponents()
		if len(components) == 0 {
			break
		}
		for _, component := range components {
			members := make(map[*NAGNode]bool, len(component))
			for _, n := range component {
				members[n] = true
			}
			for _, requirer := range component {
				for _, required := range nag.Requirements(requirer) {
					if !members[required] {
						continue
					}
					props, _ := nag.Properties(requirer, required)
					if !rule.drop(props) {
						continue
					}
					log.Warnf("Had to break %s dependency cycle edge: %s requires %s (%s)",
						rule.name, requirer, required, props)
					nag.removeRequirement(requirer, required)
					breaks = append(breaks, CycleBreak{
						Requirer:   requirer.Resolution.Resolvent,
						Required:   required.Resolution.Resolvent,
						Properties: props,
					})
				}
			}
		}
	}
	return breaks
}

func (o *Orderer) makeJobs(nag *NAG, sorted []*NAGNode, resolved *Resolved) {
	mainJob := make(map[*NAGNode]int, len(sorted))

	for _, node := range sorted {
		res := node.Resolution
		switch decision := res.Decision.(type) {
		case *ChangesToMakeDecision:
			spec := decision.Origin.UniqueSpec()
			resolved.PretendJobs = append(resolved.PretendJobs, &PretendJob{
				OriginIDSpec:              spec,
				DestinationRepositoryName: decision.DestinationRepository,
				DestinationType:           res.Resolvent.DestinationType,
			})

			fetch := len(resolved.ExecuteJobs)
			resolved.ExecuteJobs = append(resolved.ExecuteJobs, &FetchJob{OriginIDSpec: spec, JobState: JobPending})

			requirements := append([]JobRequirement{{
				JobNumber:  fetch,
				RequiredIf: RequiredIfSatisfied | RequiredIfIndependent | RequiredIfAlways,
			}}, o.requirementsFor(nag, node, mainJob)...)

			mainJob[node] = len(resolved.ExecuteJobs)
			resolved.ExecuteJobs = append(resolved.ExecuteJobs, &InstallJob{
				OriginIDSpec:              spec,
				DestinationRepositoryName: decision.DestinationRepository,
				DestinationType:           res.Resolvent.DestinationType,
				ReplacingSpecs:            uniqueSpecs(decision.Replacing),
				WasTarget:                 res.Constraints.hasTargetReason(),
				JobRequirements:           requirements,
				JobState:                  JobPending,
			})

		case *RemoveDecision:
			mainJob[node] = len(resolved.ExecuteJobs)
			resolved.ExecuteJobs = append(resolved.ExecuteJobs, &UninstallJob{
				IDsToRemoveSpecs: uniqueSpecs(decision.IDs),
				JobRequirements:  o.requirementsFor(nag, node, mainJob),
				JobState:         JobPending,
			})
		}
		resolved.TakenChangeOrRemoveDecisions = append(resolved.TakenChangeOrRemoveDecisions, res)
	}
}

func (o *Orderer) requirementsFor(nag *NAG, node *NAGNode, mainJob map[*NAGNode]int) []JobRequirement {
	var requirements []JobRequirement
	for _, required := range nag.Requirements(node) {
		number, ok := mainJob[required]
		if !ok {
			continue
		}
		props, _ := nag.Properties(node, required)
		r := RequiredIfIndependent | RequiredIfAlways
		if !props.AlreadyMet {
			r |= RequiredIfSatisfied
		}
		requirements = append(requirements, JobRequirement{JobNumber: number, RequiredIf: r})
	}
	sort.Slice(requirements, func(i, j int) bool {
		return requirements[i].JobNumber < requirements[j].JobNumber
	})
	return requirements
}
