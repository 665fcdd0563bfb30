package arbor

import (
	"cmp"
	"slices"
)

// RenderItem is one draw of a geometry range with one material.
type RenderItem struct {
	Object   *Node
	Geometry *Geometry
	Material *Material
	// Group is nil when the whole geometry is drawn.
	Group *Group

	// Distance is the world-space distance from the camera to the object's
	// bounding sphere center.
	Distance    float32
	RenderOrder int

	// Start and Count are the element range to draw.
	Start int
	Count int

	order int // push order, the final tie-break
}

// SortFunc reports whether a should sort before or at the same position as b.
// Sorting is stable, so returning true for equal keys keeps push order.
type SortFunc func(a, b *RenderItem) bool

// OpaqueSort orders by render order, then material, then geometry, then
// distance front-to-back. Grouping by material and geometry minimizes state
// changes; front-to-back exploits early depth rejection.
func OpaqueSort(a, b *RenderItem) bool {
	if a.RenderOrder != b.RenderOrder {
		return a.RenderOrder < b.RenderOrder
	}
	if a.Material.ID != b.Material.ID {
		return a.Material.ID < b.Material.ID
	}
	if a.Geometry.ID != b.Geometry.ID {
		return a.Geometry.ID < b.Geometry.ID
	}
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.order <= b.order
}

// TransparentSort orders by render order, then distance back-to-front.
func TransparentSort(a, b *RenderItem) bool {
	if a.RenderOrder != b.RenderOrder {
		return a.RenderOrder < b.RenderOrder
	}
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.order <= b.order
}

// pushOrderSort keeps push order. Used when sorting is disabled.
func pushOrderSort(a, b *RenderItem) bool {
	return a.order <= b.order
}

// --- RenderQueueLayer ---

// RenderQueueLayer holds the opaque and transparent items of one render layer.
type RenderQueueLayer struct {
	ID          int
	Opaque      []RenderItem
	Transparent []RenderItem

	sortBuf []RenderItem
}

// Len returns the number of items in both buckets.
func (l *RenderQueueLayer) Len() int {
	return len(l.Opaque) + len(l.Transparent)
}

func (l *RenderQueueLayer) reset() {
	clear(l.Opaque)
	clear(l.Transparent)
	l.Opaque = l.Opaque[:0]
	l.Transparent = l.Transparent[:0]
}

// --- RenderQueue ---

// RenderQueue is the per-camera list of draws produced by a collection pass,
// partitioned into layers kept sorted by id. Storage is reused across frames.
type RenderQueue struct {
	layers []*RenderQueueLayer
	open   bool
	pushed int

	// OpaqueLess and TransparentLess select the bucket sort policies.
	OpaqueLess      SortFunc
	TransparentLess SortFunc
	// SortObjects disables sorting when false; items keep push order.
	SortObjects bool
}

// NewRenderQueue creates an empty queue with the default sort policies.
func NewRenderQueue() *RenderQueue {
	return &RenderQueue{
		OpaqueLess:      OpaqueSort,
		TransparentLess: TransparentSort,
		SortObjects:     true,
	}
}

// Begin empties every layer, keeping layers and their backing storage.
func (q *RenderQueue) Begin() {
	for _, l := range q.layers {
		l.reset()
	}
	q.pushed = 0
	q.open = true
}

// Push adds one item per drawable (material, group) pair of a mesh node.
// The sort distance is measured from the camera to the node's bounding
// sphere center. Meshes without a position attribute are skipped with a
// warning. Returns the number of items added.
func (q *RenderQueue) Push(object, camera *Node) int {
	if !q.open {
		Logger().Warn("arbor: push outside a render queue begin/end bracket", "node", object.Name)
		return 0
	}
	m := object.Mesh
	if m == nil || m.Geometry == nil || len(m.Materials) == 0 {
		return 0
	}
	g := m.Geometry
	if g.Attribute(AttributePosition) == nil {
		Logger().Warn("arbor: skipping mesh without position attribute",
			"node", object.Name, "geometry", g.Name)
		return 0
	}

	center := object.WorldPosition()
	if s := g.BoundingSphere(); !s.Empty() {
		center = s.ApplyMatrix(object.worldMatrix).Center
	}
	distance := center.Sub(camera.WorldPosition()).Len()

	layer := q.layer(object.RenderLayer)
	if len(m.Materials) > 1 && len(g.Groups) > 0 {
		n := 0
		for i := range g.Groups {
			group := &g.Groups[i]
			if group.MaterialIndex < 0 || group.MaterialIndex >= len(m.Materials) {
				continue
			}
			if q.pushItem(layer, object, g, m.Materials[group.MaterialIndex], group, distance) {
				n++
			}
		}
		return n
	}
	if q.pushItem(layer, object, g, m.Materials[0], nil, distance) {
		return 1
	}
	return 0
}

func (q *RenderQueue) pushItem(layer *RenderQueueLayer, object *Node, g *Geometry, mat *Material, group *Group, distance float32) bool {
	if mat == nil || !mat.Visible {
		return false
	}
	start, count := g.drawSpan(group)
	if count == 0 {
		return false
	}
	item := RenderItem{
		Object:      object,
		Geometry:    g,
		Material:    mat,
		Group:       group,
		Distance:    distance,
		RenderOrder: object.RenderOrder,
		Start:       start,
		Count:       count,
		order:       q.pushed,
	}
	q.pushed++
	if mat.Transparent {
		layer.Transparent = append(layer.Transparent, item)
	} else {
		layer.Opaque = append(layer.Opaque, item)
	}
	return true
}

// End sorts every bucket and closes the bracket.
func (q *RenderQueue) End() {
	if !q.open {
		Logger().Warn("arbor: render queue end without begin")
		return
	}
	q.open = false
	opaque, transparent := q.OpaqueLess, q.TransparentLess
	if !q.SortObjects {
		opaque, transparent = pushOrderSort, pushOrderSort
	}
	if opaque == nil {
		opaque = OpaqueSort
	}
	if transparent == nil {
		transparent = TransparentSort
	}
	for _, l := range q.layers {
		l.sortBuf = mergeSort(l.Opaque, l.sortBuf, opaque)
		l.sortBuf = mergeSort(l.Transparent, l.sortBuf, transparent)
	}
}

// layer returns the layer with id, creating it in sorted position on first
// use.
func (q *RenderQueue) layer(id int) *RenderQueueLayer {
	i, found := slices.BinarySearchFunc(q.layers, id, func(l *RenderQueueLayer, id int) int {
		return cmp.Compare(l.ID, id)
	})
	if found {
		return q.layers[i]
	}
	l := &RenderQueueLayer{ID: id}
	q.layers = slices.Insert(q.layers, i, l)
	return l
}

// Layers returns all layers in ascending id order, including empty ones.
// The returned slice MUST NOT be mutated by the caller.
func (q *RenderQueue) Layers() []*RenderQueueLayer {
	return q.layers
}

// Layer returns the layer with id, or nil if none was ever used.
func (q *RenderQueue) Layer(id int) *RenderQueueLayer {
	i, found := slices.BinarySearchFunc(q.layers, id, func(l *RenderQueueLayer, id int) int {
		return cmp.Compare(l.ID, id)
	})
	if !found {
		return nil
	}
	return q.layers[i]
}

// Len returns the total number of items across layers.
func (q *RenderQueue) Len() int {
	n := 0
	for _, l := range q.layers {
		n += l.Len()
	}
	return n
}

// --- Merge sort ---

// mergeSort sorts items in place using buf as scratch space and returns the
// (possibly grown) buffer. Bottom-up merge sort: stable, and zero allocations
// once the buffer reaches its high-water mark.
func mergeSort(items, buf []RenderItem, less SortFunc) []RenderItem {
	n := len(items)
	if n <= 1 {
		return buf
	}
	if cap(buf) < n {
		buf = make([]RenderItem, n)
	}
	buf = buf[:n]

	a := items
	b := buf
	swapped := false

	for width := 1; width < n; width *= 2 {
		for i := 0; i < n; i += 2 * width {
			lo := i
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeRun(a, b, lo, mid, hi, less)
		}
		a, b = b, a
		swapped = !swapped
	}

	if swapped {
		copy(items, buf)
	}
	clear(buf)
	return buf
}

// mergeRun merges two sorted runs [lo, mid) and [mid, hi) from src into dst.
func mergeRun(src, dst []RenderItem, lo, mid, hi int, less SortFunc) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if less(&src[i], &src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	for i < mid {
		dst[k] = src[i]
		i++
		k++
	}
	for j < hi {
		dst[k] = src[j]
		j++
		k++
	}
}
