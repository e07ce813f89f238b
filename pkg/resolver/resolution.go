package resolver

// Resolution holds everything known about one resolvent
type Resolution struct {
	Resolvent   Resolvent
	Constraints *Constraints
	// Decision is nil until the resolvent has been decided
	Decision Decision
}

func newResolution(r Resolvent) *Resolution {
	return &Resolution{Resolvent: r, Constraints: NewConstraints()}
}

// ResolutionsByResolvent maps resolvents to resolutions, remembering the order
// in which resolvents were first seen
type ResolutionsByResolvent struct {
	byResolvent map[Resolvent]*Resolution
	sequence    map[Resolvent]int
	ordered     []*Resolution
}

// NewResolutionsByResolvent creates an empty map
func NewResolutionsByResolvent() *ResolutionsByResolvent {
	return &ResolutionsByResolvent{
		byResolvent: make(map[Resolvent]*Resolution),
		sequence:    make(map[Resolvent]int),
	}
}

// Get looks up a resolution
func (m *ResolutionsByResolvent) Get(r Resolvent) (*Resolution, bool) {
	res, ok := m.byResolvent[r]
	return res, ok
}

// Insert adds a resolution; it is an error to insert the same resolvent twice
func (m *ResolutionsByResolvent) Insert(res *Resolution) bool {
	if _, exists := m.byResolvent[res.Resolvent]; exists {
		return false
	}
	m.byResolvent[res.Resolvent] = res
	m.sequence[res.Resolvent] = len(m.ordered)
	m.ordered = append(m.ordered, res)
	return true
}

// Sequence returns the discovery position of a resolvent, or -1
func (m *ResolutionsByResolvent) Sequence(r Resolvent) int {
	if seq, ok := m.sequence[r]; ok {
		return seq
	}
	return -1
}

// All returns the resolutions in discovery order
func (m *ResolutionsByResolvent) All() []*Resolution {
	return append([]*Resolution(nil), m.ordered...)
}

func (m *ResolutionsByResolvent) Len() int {
	return len(m.ordered)
}
