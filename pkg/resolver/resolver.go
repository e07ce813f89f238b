package resolver

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	perrors "github.com/bdwyertech/go-paludis/pkg/errors"
	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// DefaultMaxRestarts bounds ResolveWithRestarts
const DefaultMaxRestarts = 9000

// Option configures a Resolver
type Option func(*Resolver)

// WithNotifier sends progress events to n
func WithNotifier(n Notifier) Option {
	return func(r *Resolver) {
		r.notifier = n
	}
}

// WithMaxRedecisions bounds how often one resolvent may be redecided
func WithMaxRedecisions(n int) Option {
	return func(r *Resolver) {
		r.maxRedecisions = n
	}
}

// Resolver adds targets, decides and orders
type Resolver struct {
	env            Environment
	fns            ResolverFunctions
	notifier       Notifier
	maxRedecisions int

	decider  *Decider
	targets  []string
	resolved *Resolved
	restarts int
}

// New creates a resolver
func New(env Environment, fns ResolverFunctions, opts ...Option) *Resolver {
	r := &Resolver{
		env:            env,
		fns:            fns,
		notifier:       nopNotifier{},
		maxRedecisions: DefaultMaxRedecisions,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.decider = NewDecider(env, fns, r.notifier, r.maxRedecisions)
	return r
}

// AddTarget adds a package spec, a block or a named set as a target
func (r *Resolver) AddTarget(target, extraInformation string) error {
	reason := &TargetReason{ExtraInformation: extraInformation}
	r.targets = append(r.targets, target)

	if paludis.IsSetName(target) {
		return r.addSetTarget(paludis.SetName(target), reason)
	}

	spec, err := paludis.ParsePackageOrBlockDepSpec(target)
	if err != nil {
		return perrors.NewValidationError(fmt.Sprintf("invalid target '%s'", target), err)
	}
	return r.decider.AddTargetWithReason(spec, reason)
}

// AddTargetWithReason adds an already parsed target
func (r *Resolver) AddTargetWithReason(spec paludis.PackageOrBlockDepSpec, reason Reason) error {
	r.targets = append(r.targets, spec.String())
	return r.decider.AddTargetWithReason(spec, reason)
}

func (r *Resolver) addSetTarget(name paludis.SetName, reason Reason) error {
	expansion := &setExpansion{
		sets:      r.env,
		recursing: make(map[paludis.SetName]bool),
		visit: func(spec paludis.PackageDepSpec, reason Reason) error {
			return r.decider.AddTargetWithReason(paludis.PackageSpec(spec), reason)
		},
	}
	return expansion.expand(name, reason)
}

// Resolve decides every resolvent then orders the result
func (r *Resolver) Resolve(ctx context.Context) error {
	if err := r.decider.Resolve(ctx); err != nil {
		return err
	}
	resolved, err := NewOrderer(r.env, r.fns, r.decider.Resolutions(), r.notifier).Order(ctx)
	if err != nil {
		return err
	}
	r.resolved = resolved
	return nil
}

// Resolved returns the result of the last successful Resolve, or nil. Each call
// returns fresh bucket and job slices; the resolutions and jobs they point to are
// shared and must not be modified.
func (r *Resolver) Resolved() *Resolved {
	return r.resolved.clone()
}

// Purge discards all targets and decisions
func (r *Resolver) Purge() {
	r.decider.Purge()
	r.targets = nil
	r.resolved = nil
}

// Targets returns the targets added so far
func (r *Resolver) Targets() []string {
	return append([]string(nil), r.targets...)
}

// Restarts is the number of restarts it took to produce this resolver's result
func (r *Resolver) Restarts() int {
	return r.restarts
}

// Target is a target for ResolveWithRestarts
type Target struct {
	Spec             string
	ExtraInformation string
}

// ResolveWithRestarts resolves targets, starting again each time the decider
// suggests a restart, with the suggested preset in place. It gives up after
// maxRestarts restarts.
func ResolveWithRestarts(ctx context.Context, env Environment, fns ResolverFunctions, targets []Target,
	maxRestarts int, opts ...Option) (*Resolver, error) {
	presets := make(map[Resolvent][]*Constraint)
	initial := fns.GetInitialConstraintsForFn

	wrapped := fns
	wrapped.GetInitialConstraintsForFn = func(r Resolvent) []*Constraint {
		var result []*Constraint
		if initial != nil {
			result = append(result, initial(r)...)
		}
		return append(result, presets[r]...)
	}

	for restarts := 0; ; restarts++ {
		res := New(env, wrapped, opts...)
		res.restarts = restarts

		err := func() error {
			for _, t := range targets {
				if err := res.AddTarget(t.Spec, t.ExtraInformation); err != nil {
					return err
				}
			}
			return res.Resolve(ctx)
		}()

		var restart *SuggestRestart
		switch {
		case err == nil:
			return res, nil
		case !errors.As(err, &restart):
			return nil, err
		case restarts >= maxRestarts:
			return nil, perrors.NewResolutionError("too many restarts", err).
				WithContext("restarts", restarts)
		}

		log.Infof("Restarting: %s", restart)
		presets[restart.Resolvent] = append(presets[restart.Resolvent], restart.SuggestedPreset)
	}
}
