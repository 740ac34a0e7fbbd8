package entities

// NodeState is what the resolution engine observes about a node on one poll tick
type NodeState struct {
	Visible bool `json:"visible"`
	Enabled bool `json:"enabled"`
	Box     *Box `json:"box,omitempty"`
}

// Box is an element's bounding box in CSS pixels
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SameBox reports whether two observations describe the same layout
func SameBox(a, b *Box) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
