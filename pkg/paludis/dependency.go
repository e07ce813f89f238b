package paludis

// DependencyTreeKind says how a tree node combines its children
type DependencyTreeKind string

const (
	// TreeAll requires every child
	TreeAll DependencyTreeKind = "all"
	// TreeAny requires one child
	TreeAny DependencyTreeKind = "any"
	// TreeConditional applies its children when Condition holds for the owning ID
	TreeConditional DependencyTreeKind = "conditional"
	// TreeSpec is a leaf
	TreeSpec DependencyTreeKind = "spec"
)

// DependencyTree is the unevaluated dependency description of a package ID.
// Labels on a node apply to the node and are inherited by its children.
type DependencyTree struct {
	Kind      DependencyTreeKind
	Spec      *PackageOrBlockDepSpec
	Labels    DependencyLabels
	Condition string
	Children  []*DependencyTree
}

// AllOf builds an all-group
func AllOf(children ...*DependencyTree) *DependencyTree {
	return &DependencyTree{Kind: TreeAll, Children: children}
}

// AnyOf builds an any-of group
func AnyOf(children ...*DependencyTree) *DependencyTree {
	return &DependencyTree{Kind: TreeAny, Children: children}
}

// If builds a conditional group; a leading "!" inverts the condition
func If(condition string, children ...*DependencyTree) *DependencyTree {
	return &DependencyTree{Kind: TreeConditional, Condition: condition, Children: children}
}

// Leaf builds a spec leaf
func Leaf(spec PackageOrBlockDepSpec, labels ...DependencyLabel) *DependencyTree {
	return &DependencyTree{Kind: TreeSpec, Spec: &spec, Labels: NewDependencyLabels(labels...)}
}

// ConditionMet evaluates a conditional node against a set of choices
func (t *DependencyTree) ConditionMet(choices Choices) bool {
	flag, inverse := t.Condition, false
	if len(flag) > 0 && flag[0] == '!' {
		flag, inverse = flag[1:], true
	}
	enabled, _ := choices.Enabled(flag)
	return enabled != inverse
}

// SanitisedDependency is one flattened dependency edge of a package ID, with
// conditionals evaluated and any-of groups reduced to a single child
type SanitisedDependency struct {
	Spec   PackageOrBlockDepSpec
	Labels DependencyLabels
	// OriginalSpecAsString is the text of the group the edge came from
	OriginalSpecAsString string
	// MetadataKeyRaw names the metadata key the edge was read from
	MetadataKeyRaw string
}

// IsSuggestion is true for suggestion and recommendation edges
func (d SanitisedDependency) IsSuggestion() bool {
	return d.Labels.IsSuggestion()
}

func (d SanitisedDependency) String() string {
	if len(d.Labels) == 0 {
		return d.Spec.String()
	}
	return d.Labels.String() + ": " + d.Spec.String()
}

// AnyChildScorer ranks the children of an any-of group for one package ID.
// Higher scores are preferred.
type AnyChildScorer interface {
	ScoreAnyChild(from *PackageID, spec PackageOrBlockDepSpec) int
}
