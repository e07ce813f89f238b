package paludis

import (
	"fmt"
	"sort"
	"strings"
)

// DependencyLabel says when and how a dependency is needed
type DependencyLabel string

const (
	LabelBuild          DependencyLabel = "build"
	LabelRun            DependencyLabel = "run"
	LabelPost           DependencyLabel = "post"
	LabelInstall        DependencyLabel = "install"
	LabelFetch          DependencyLabel = "fetch"
	LabelTest           DependencyLabel = "test"
	LabelCompileAgainst DependencyLabel = "compile_against"
	LabelSuggestion     DependencyLabel = "suggestion"
	LabelRecommendation DependencyLabel = "recommendation"
)

var knownLabels = map[DependencyLabel]bool{
	LabelBuild: true, LabelRun: true, LabelPost: true, LabelInstall: true, LabelFetch: true,
	LabelTest: true, LabelCompileAgainst: true, LabelSuggestion: true, LabelRecommendation: true,
}

// DefaultDependencyLabels apply when a dependency carries no labels of its own
var DefaultDependencyLabels = DependencyLabels{LabelBuild, LabelRun}

// ParseDependencyLabel validates a label name
func ParseDependencyLabel(s string) (DependencyLabel, error) {
	l := DependencyLabel(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	if !knownLabels[l] {
		return "", fmt.Errorf("unknown dependency label %q", s)
	}
	return l, nil
}

// DependencyLabels is a set of labels kept sorted for stable output
type DependencyLabels []DependencyLabel

// NewDependencyLabels sorts and de-duplicates labels
func NewDependencyLabels(labels ...DependencyLabel) DependencyLabels {
	seen := make(map[DependencyLabel]bool, len(labels))
	result := make(DependencyLabels, 0, len(labels))
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Has reports whether a label is present
func (ls DependencyLabels) Has(label DependencyLabel) bool {
	for _, l := range ls {
		if l == label {
			return true
		}
	}
	return false
}

// IsBuild is true for labels that must be satisfied before the dependent is built
func (ls DependencyLabels) IsBuild() bool {
	return ls.Has(LabelBuild) || ls.Has(LabelInstall) || ls.Has(LabelFetch) ||
		ls.Has(LabelTest) || ls.Has(LabelCompileAgainst)
}

// IsRun is true for labels that must be satisfied before the dependent is usable
func (ls DependencyLabels) IsRun() bool {
	return ls.Has(LabelRun)
}

// IsPost is true for dependencies that may be satisfied after the dependent
func (ls DependencyLabels) IsPost() bool {
	return ls.Has(LabelPost)
}

// IsSuggestion is true when every label is a suggestion or a recommendation
func (ls DependencyLabels) IsSuggestion() bool {
	if len(ls) == 0 {
		return false
	}
	for _, l := range ls {
		if l != LabelSuggestion && l != LabelRecommendation {
			return false
		}
	}
	return true
}

// IsRecommendationOnly is true when the labels are exactly recommendation
func (ls DependencyLabels) IsRecommendationOnly() bool {
	return ls.IsSuggestion() && !ls.Has(LabelSuggestion)
}

func (ls DependencyLabels) String() string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = string(l)
	}
	return strings.Join(parts, ",")
}
