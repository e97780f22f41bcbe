// pkg/physics/quadtree.go
package physics

// Default quadtree tuning. Collision behaviour does not depend on the exact
// values, only lookup cost does.
const (
	DefaultMaxObjects = 4
	DefaultMaxLevels  = 6
)

// Box is an axis-aligned rectangle anchored at its minimum corner (X, Y)
// in screen orientation: Y grows downward, so "north" is smaller Y.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Intersects reports whether two boxes overlap or touch
func (b Box) Intersects(other Box) bool {
	return b.X <= other.X+other.Width &&
		other.X <= b.X+b.Width &&
		b.Y <= other.Y+other.Height &&
		other.Y <= b.Y+b.Height
}

// Item is a reference to a live body stored in the quadtree. It carries the
// body's stable ID for identity checks and its slot in the body list at the
// time of insertion; it never copies the body itself.
type Item struct {
	Box
	Radius    float64
	BodyID    uint64
	BodyIndex int
}

// QuadTree is a region quadtree over boxes. Objects spanning a split line
// are stored in every quadrant they touch.
type QuadTree struct {
	Boundary   Box
	MaxObjects int
	MaxLevels  int
	Level      int
	Objects    []Item
	Divided    bool
	NorthEast  *QuadTree
	NorthWest  *QuadTree
	SouthWest  *QuadTree
	SouthEast  *QuadTree
}

// NewQuadTree creates a root node covering boundary. Non-positive limits
// fall back to DefaultMaxObjects and DefaultMaxLevels.
func NewQuadTree(boundary Box, maxObjects, maxLevels int) *QuadTree {
	if maxObjects <= 0 {
		maxObjects = DefaultMaxObjects
	}
	if maxLevels <= 0 {
		maxLevels = DefaultMaxLevels
	}
	return newNode(boundary, maxObjects, maxLevels, 0)
}

func newNode(boundary Box, maxObjects, maxLevels, level int) *QuadTree {
	return &QuadTree{
		Boundary:   boundary,
		MaxObjects: maxObjects,
		MaxLevels:  maxLevels,
		Level:      level,
		Objects:    make([]Item, 0, maxObjects+1),
	}
}

// Clear drops every object and child node. The boundary is kept, so the
// tree is back to covering the original extent.
func (qt *QuadTree) Clear() {
	qt.Objects = qt.Objects[:0]
	qt.Divided = false
	qt.NorthEast = nil
	qt.NorthWest = nil
	qt.SouthWest = nil
	qt.SouthEast = nil
}

// Insert places item in every leaf whose quadrant it touches, splitting a
// leaf once it holds more than MaxObjects and is shallower than MaxLevels.
// Items outside the root boundary are accepted and land in the nearest
// quadrants.
func (qt *QuadTree) Insert(item Item) {
	if qt.Divided {
		for _, child := range qt.quadrants(item.Box) {
			child.Insert(item)
		}
		return
	}

	qt.Objects = append(qt.Objects, item)
	if len(qt.Objects) <= qt.MaxObjects || qt.Level >= qt.MaxLevels {
		return
	}

	qt.Subdivide()
	for _, obj := range qt.Objects {
		for _, child := range qt.quadrants(obj.Box) {
			child.Insert(obj)
		}
	}
	qt.Objects = qt.Objects[:0]
}

// Subdivide splits the node into four equal quadrants
func (qt *QuadTree) Subdivide() {
	x := qt.Boundary.X
	y := qt.Boundary.Y
	w := qt.Boundary.Width / 2
	h := qt.Boundary.Height / 2
	next := qt.Level + 1

	qt.NorthEast = newNode(Box{X: x + w, Y: y, Width: w, Height: h}, qt.MaxObjects, qt.MaxLevels, next)
	qt.NorthWest = newNode(Box{X: x, Y: y, Width: w, Height: h}, qt.MaxObjects, qt.MaxLevels, next)
	qt.SouthWest = newNode(Box{X: x, Y: y + h, Width: w, Height: h}, qt.MaxObjects, qt.MaxLevels, next)
	qt.SouthEast = newNode(Box{X: x + w, Y: y + h, Width: w, Height: h}, qt.MaxObjects, qt.MaxLevels, next)
	qt.Divided = true
}

// Retrieve returns every object stored in the nodes that area reaches, each
// body at most once. The result is a superset of the objects overlapping
// area and includes the querying body itself if it was inserted; callers
// filter by BodyID. Retrieve does not modify the tree.
//
// Quadrant selection uses strict midline comparisons, so two boxes that only
// touch along a split line can land in different children and miss each
// other.
func (qt *QuadTree) Retrieve(area Box) []Item {
	found := qt.collect(area, nil)
	if len(found) < 2 {
		return found
	}

	seen := make(map[uint64]struct{}, len(found))
	unique := found[:0]
	for _, item := range found {
		if _, dup := seen[item.BodyID]; dup {
			continue
		}
		seen[item.BodyID] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}

func (qt *QuadTree) collect(area Box, found []Item) []Item {
	found = append(found, qt.Objects...)
	if !qt.Divided {
		return found
	}
	for _, child := range qt.quadrants(area) {
		found = child.collect(area, found)
	}
	return found
}

// Len returns the number of stored references, counting an object once per
// leaf that holds it.
func (qt *QuadTree) Len() int {
	n := len(qt.Objects)
	if qt.Divided {
		n += qt.NorthEast.Len() + qt.NorthWest.Len() + qt.SouthWest.Len() + qt.SouthEast.Len()
	}
	return n
}

// Depth returns the deepest level reached below this node
func (qt *QuadTree) Depth() int {
	if !qt.Divided {
		return qt.Level
	}
	depth := qt.Level
	for _, child := range []*QuadTree{qt.NorthEast, qt.NorthWest, qt.SouthWest, qt.SouthEast} {
		if d := child.Depth(); d > depth {
			depth = d
		}
	}
	return depth
}

// quadrants picks children by comparing area against the node's midlines
// only, never its outer edges.
func (qt *QuadTree) quadrants(area Box) []*QuadTree {
	verticalMid := qt.Boundary.X + qt.Boundary.Width/2
	horizontalMid := qt.Boundary.Y + qt.Boundary.Height/2

	startsNorth := area.Y < horizontalMid
	startsWest := area.X < verticalMid
	endsEast := area.X+area.Width > verticalMid
	endsSouth := area.Y+area.Height > horizontalMid

	out := make([]*QuadTree, 0, 4)
	if startsNorth && endsEast {
		out = append(out, qt.NorthEast)
	}
	if startsNorth && startsWest {
		out = append(out, qt.NorthWest)
	}
	if startsWest && endsSouth {
		out = append(out, qt.SouthWest)
	}
	if endsEast && endsSouth {
		out = append(out, qt.SouthEast)
	}
	return out
}
