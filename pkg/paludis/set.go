package paludis

// SetSpecNode is a node of a package set: an *AllDepSpec, a *PackageDepSpec or
// a *NamedSetDepSpec
type SetSpecNode interface {
	isSetSpecNode()
}

// AllDepSpec groups set members
type AllDepSpec struct {
	Children []SetSpecNode
}

// NamedSetDepSpec includes another set by name
type NamedSetDepSpec struct {
	Name SetName
}

// SetSpecTree is the parsed content of a named set
type SetSpecTree = AllDepSpec

func (*AllDepSpec) isSetSpecNode()      {}
func (*PackageDepSpec) isSetSpecNode()  {}
func (*NamedSetDepSpec) isSetSpecNode() {}

// NewSetSpecTree builds a set from member strings. Members without a '/' name other sets.
func NewSetSpecTree(members ...string) (*SetSpecTree, error) {
	tree := &SetSpecTree{}
	for _, m := range members {
		if IsSetName(m) {
			tree.Children = append(tree.Children, &NamedSetDepSpec{Name: SetName(m)})
			continue
		}
		spec, err := ParsePackageDepSpec(m)
		if err != nil {
			return nil, err
		}
		tree.Children = append(tree.Children, &spec)
	}
	return tree, nil
}
