package resolver

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// EdgeProperties describes why one resolvent must be ordered before another
type EdgeProperties struct {
	Build      bool
	Run        bool
	Post       bool
	Suggestion bool
	// AlreadyMet is true when installed packages already satisfy the requirement
	AlreadyMet bool
}

// edgePropertiesFor classifies a dependency edge by its labels
func edgePropertiesFor(labels paludis.DependencyLabels, alreadyMet bool) EdgeProperties {
	return EdgeProperties{
		Build:      labels.IsBuild(),
		Run:        labels.IsRun(),
		Post:       labels.IsPost(),
		Suggestion: labels.IsSuggestion(),
		AlreadyMet: alreadyMet,
	}
}

// merge combines two reasons for the same edge. The edge is only already met if
// both reasons are.
func (p EdgeProperties) merge(other EdgeProperties) EdgeProperties {
	return EdgeProperties{
		Build:      p.Build || other.Build,
		Run:        p.Run || other.Run,
		Post:       p.Post || other.Post,
		Suggestion: p.Suggestion || other.Suggestion,
		AlreadyMet: p.AlreadyMet && other.AlreadyMet,
	}
}

// ordering is true when the edge has to be respected by job requirements
func (p EdgeProperties) ordering() bool {
	return p.Build || p.Run
}

func (p EdgeProperties) String() string {
	var s string
	for _, part := range []struct {
		set  bool
		name string
	}{{p.Build, "build"}, {p.Run, "run"}, {p.Post, "post"}, {p.Suggestion, "suggestion"}, {p.AlreadyMet, "met"}} {
		if part.set {
			if s != "" {
				s += ","
			}
			s += part.name
		}
	}
	return s
}

// NAG is the graph of resolvents to be ordered. An edge runs from a required
// node to the node requiring it, so a topological sort puts requirements first.
type NAG struct {
	graph      *simple.DirectedGraph
	nodes      map[Resolvent]*NAGNode
	nodesByID  map[int64]*NAGNode
	properties map[[2]int64]EdgeProperties
	nextID     int64
}

// NAGNode is one resolvent in the NAG
type NAGNode struct {
	id         int64
	Resolution *Resolution
	Sequence   int
	OrderEarly paludis.Tribool
}

// NewNAG creates an empty NAG
func NewNAG() *NAG {
	return &NAG{
		graph:      simple.NewDirectedGraph(),
		nodes:      make(map[Resolvent]*NAGNode),
		nodesByID:  make(map[int64]*NAGNode),
		properties: make(map[[2]int64]EdgeProperties),
		nextID:     1,
	}
}

// ID implements graph.Node interface
func (n *NAGNode) ID() int64 {
	return n.id
}

func (n *NAGNode) String() string {
	return n.Resolution.Resolvent.String()
}

// AddNode adds a resolution to the graph, or returns the existing node for it
func (g *NAG) AddNode(res *Resolution, sequence int, early paludis.Tribool) *NAGNode {
	if existing, ok := g.nodes[res.Resolvent]; ok {
		return existing
	}

	node := &NAGNode{
		id:         g.nextID,
		Resolution: res,
		Sequence:   sequence,
		OrderEarly: early,
	}
	g.nextID++

	g.graph.AddNode(node)
	g.nodes[res.Resolvent] = node
	g.nodesByID[node.id] = node
	return node
}

// Node looks up the node for a resolvent
func (g *NAG) Node(r Resolvent) (*NAGNode, bool) {
	node, ok := g.nodes[r]
	return node, ok
}

// AddRequirement records that requirer must be ordered after required. Repeated
// requirements merge their properties. Self requirements are ignored.
func (g *NAG) AddRequirement(requirer, required *NAGNode, props EdgeProperties) {
	if requirer == nil || required == nil || requirer.id == required.id {
		return
	}
	key := [2]int64{required.id, requirer.id}
	if existing, ok := g.properties[key]; ok {
		g.properties[key] = existing.merge(props)
		return
	}
	g.properties[key] = props
	g.graph.SetEdge(g.graph.NewEdge(required, requirer))
}

// HasRequirement reports whether requirer must come after required
func (g *NAG) HasRequirement(requirer, required *NAGNode) bool {
	return g.graph.HasEdgeFromTo(required.id, requirer.id)
}

// Properties returns the properties of a requirement edge
func (g *NAG) Properties(requirer, required *NAGNode) (EdgeProperties, bool) {
	props, ok := g.properties[[2]int64{required.id, requirer.id}]
	return props, ok
}

// removeRequirement drops an edge
func (g *NAG) removeRequirement(requirer, required *NAGNode) {
	delete(g.properties, [2]int64{required.id, requirer.id})
	g.graph.RemoveEdge(required.id, requirer.id)
}

// removeNode drops a node and every edge touching it
func (g *NAG) removeNode(node *NAGNode) {
	for key := range g.properties {
		if key[0] == node.id || key[1] == node.id {
			delete(g.properties, key)
		}
	}
	g.graph.RemoveNode(node.id)
	delete(g.nodes, node.Resolution.Resolvent)
	delete(g.nodesByID, node.id)
}

// Requirements returns the nodes a node must come after, in sequence order
func (g *NAG) Requirements(node *NAGNode) []*NAGNode {
	return g.sorted(g.graph.To(node.id))
}

// Requirers returns the nodes that must come after a node, in sequence order
func (g *NAG) Requirers(node *NAGNode) []*NAGNode {
	return g.sorted(g.graph.From(node.id))
}

func (g *NAG) sorted(it graph.Nodes) []*NAGNode {
	var result []*NAGNode
	for it.Next() {
		if node, ok := g.nodesByID[it.Node().ID()]; ok {
			result = append(result, node)
		}
	}
	sortNodes(result)
	return result
}

// CyclicComponents returns the strongly connected components with more than
// one member, each sorted by sequence
func (g *NAG) CyclicComponents() [][]*NAGNode {
	var result [][]*NAGNode
	for _, scc := range topo.TarjanSCC(g.graph) {
		if len(scc) < 2 {
			continue
		}
		component := make([]*NAGNode, 0, len(scc))
		for _, n := range scc {
			component = append(component, g.nodesByID[n.ID()])
		}
		sortNodes(component)
		result = append(result, component)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i][0].Sequence < result[j][0].Sequence
	})
	return result
}

// Sort returns the nodes with every requirement before its requirers. Ties are
// broken by order early class, then by discovery sequence.
func (g *NAG) Sort() ([]*NAGNode, error) {
	sorted, err := topo.SortStabilized(g.graph, func(nodes []graph.Node) {
		sort.SliceStable(nodes, func(i, j int) bool {
			return nodeLess(g.nodesByID[nodes[i].ID()], g.nodesByID[nodes[j].ID()])
		})
	})
	if err != nil {
		return nil, fmt.Errorf("cycle remains after breaking cycles: %w", err)
	}

	result := make([]*NAGNode, 0, len(sorted))
	for _, n := range sorted {
		if node, exists := g.nodesByID[n.ID()]; exists {
			result = append(result, node)
		}
	}
	return result, nil
}

// NodeCount returns the number of resolvents in the graph
func (g *NAG) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of requirements in the graph
func (g *NAG) EdgeCount() int {
	return len(g.properties)
}

// AllNodes returns every node in sequence order
func (g *NAG) AllNodes() []*NAGNode {
	result := make([]*NAGNode, 0, len(g.nodes))
	for _, node := range g.nodes {
		result = append(result, node)
	}
	sortNodes(result)
	return result
}

func earlyClass(t paludis.Tribool) int {
	switch {
	case t.IsTrue():
		return 0
	case t.IsFalse():
		return 2
	}
	return 1
}

func nodeLess(a, b *NAGNode) bool {
	if ca, cb := earlyClass(a.OrderEarly), earlyClass(b.OrderEarly); ca != cb {
		return ca < cb
	}
	return a.Sequence < b.Sequence
}

func sortNodes(nodes []*NAGNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Sequence < nodes[j].Sequence })
}
