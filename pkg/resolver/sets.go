package resolver

import (
	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// setExpansion walks a named set, tracking the sets currently being expanded so
// that a set including itself is reported instead of looping
type setExpansion struct {
	sets      SetExpander
	recursing map[paludis.SetName]bool
	visit     func(spec paludis.PackageDepSpec, reason Reason) error
}

func (e *setExpansion) expand(name paludis.SetName, reason Reason) error {
	if e.recursing[name] {
		return &RecursivelyDefinedSetError{Name: name}
	}
	tree, ok := e.sets.ResolveSet(name)
	if !ok {
		return &NoSuchSetError{Name: name}
	}

	e.recursing[name] = true
	defer delete(e.recursing, name)

	return e.walk(tree, name, reason)
}

func (e *setExpansion) walk(node paludis.SetSpecNode, name paludis.SetName, reason Reason) error {
	switch n := node.(type) {
	case *paludis.AllDepSpec:
		for _, child := range n.Children {
			if err := e.walk(child, name, reason); err != nil {
				return err
			}
		}
	case *paludis.PackageDepSpec:
		return e.visit(*n, &SetReason{SetName: name, ReasonForSet: reason})
	case *paludis.NamedSetDepSpec:
		return e.expand(n.Name, &SetReason{SetName: name, ReasonForSet: reason})
	}
	return nil
}
