package repository

import (
	"math"
	"strings"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// dependenciesKey is the metadata key every sanitised edge is read from
const dependenciesKey = "dependencies"

// SanitisedDependencies flattens the dependency tree of an ID: conditionals are
// evaluated against the ID's choices, labels are inherited from parent groups, and
// each any-of group is reduced to the child the scorer likes best. A nil scorer
// picks the first child.
func (e *Environment) SanitisedDependencies(id *paludis.PackageID, scorer paludis.AnyChildScorer) []paludis.SanitisedDependency {
	if id == nil || id.Dependencies == nil {
		return nil
	}
	s := &sanitiser{id: id, scorer: scorer}
	s.walk(id.Dependencies, paludis.DefaultDependencyLabels, "")
	return s.result
}

type sanitiser struct {
	id     *paludis.PackageID
	scorer paludis.AnyChildScorer
	result []paludis.SanitisedDependency
}

func (s *sanitiser) walk(node *paludis.DependencyTree, labels paludis.DependencyLabels, original string) {
	if len(node.Labels) > 0 {
		labels = node.Labels
	}

	switch node.Kind {
	case paludis.TreeSpec:
		if node.Spec == nil {
			return
		}
		if original == "" {
			original = node.Spec.String()
		}
		s.result = append(s.result, paludis.SanitisedDependency{
			Spec:                 *node.Spec,
			Labels:               labels,
			OriginalSpecAsString: original,
			MetadataKeyRaw:       dependenciesKey,
		})

	case paludis.TreeConditional:
		if !node.ConditionMet(s.id.Choices) {
			return
		}
		for _, child := range node.Children {
			s.walk(child, labels, original)
		}

	case paludis.TreeAny:
		if original == "" {
			original = renderTree(node)
		}
		if best := s.bestChild(node); best != nil {
			s.walk(best, labels, original)
		}

	default:
		for _, child := range node.Children {
			s.walk(child, labels, original)
		}
	}
}

// bestChild returns the highest scoring active child, the first on a tie
func (s *sanitiser) bestChild(node *paludis.DependencyTree) *paludis.DependencyTree {
	var best *paludis.DependencyTree
	bestScore := math.MinInt
	for _, child := range node.Children {
		score, active := s.score(child)
		if !active {
			continue
		}
		if best == nil || score > bestScore {
			best, bestScore = child, score
		}
	}
	return best
}

// score of a group is that of its worst member; inactive conditionals don't count
func (s *sanitiser) score(node *paludis.DependencyTree) (int, bool) {
	switch node.Kind {
	case paludis.TreeSpec:
		if node.Spec == nil {
			return 0, false
		}
		if s.scorer == nil {
			return 0, true
		}
		return s.scorer.ScoreAnyChild(s.id, *node.Spec), true

	case paludis.TreeConditional:
		if !node.ConditionMet(s.id.Choices) {
			return 0, false
		}
	}

	if node.Kind == paludis.TreeAny {
		best, active := math.MinInt, false
		for _, child := range node.Children {
			if score, ok := s.score(child); ok {
				active = true
				best = max(best, score)
			}
		}
		return best, active
	}

	worst, active := math.MaxInt, false
	for _, child := range node.Children {
		if score, ok := s.score(child); ok {
			active = true
			worst = min(worst, score)
		}
	}
	if !active {
		// an empty group is trivially satisfied
		return math.MaxInt, true
	}
	return worst, true
}

// renderTree writes a tree back out in the familiar textual form
func renderTree(node *paludis.DependencyTree) string {
	switch node.Kind {
	case paludis.TreeSpec:
		if node.Spec == nil {
			return ""
		}
		return node.Spec.String()
	}

	parts := make([]string, 0, len(node.Children))
	for _, child := range node.Children {
		parts = append(parts, renderTree(child))
	}
	inner := "( " + strings.Join(parts, " ") + " )"
	switch node.Kind {
	case paludis.TreeAny:
		return "|| " + inner
	case paludis.TreeConditional:
		return node.Condition + "? " + inner
	}
	return inner
}
