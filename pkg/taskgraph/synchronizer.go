package taskgraph

// Synchronizer couples vertices from different branches so they fire,
// and share validity, as one batch. Membership is by plain reference,
// not weak reference: explicit deregistration is simpler to reason
// about than an observer registry with weak-reference lifetimes.
type Synchronizer struct {
	Name    string
	members []*Vertex
}

// NewSynchronizer constructs an empty Synchronizer.
func NewSynchronizer(name string) *Synchronizer {
	return &Synchronizer{Name: name}
}

// Join adds v to the synchronizer's member set.
func (s *Synchronizer) Join(v *Vertex) {
	v.Synchronizer = s
	s.members = append(s.members, v)
}

// Members returns the synchronizer's participating vertices.
func (s *Synchronizer) Members() []*Vertex {
	return append([]*Vertex(nil), s.members...)
}
