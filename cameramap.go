package arbor

import (
	"weak"
)

// weakMap associates values with keys without keeping the keys alive.
// Entries whose key has been collected are dropped by prune.
type weakMap[K any, V any] struct {
	entries map[weak.Pointer[K]]V
}

func (m *weakMap[K, V]) get(key *K) (V, bool) {
	v, ok := m.entries[weak.Make(key)]
	return v, ok
}

func (m *weakMap[K, V]) set(key *K, v V) {
	if m.entries == nil {
		m.entries = make(map[weak.Pointer[K]]V)
	}
	m.entries[weak.Make(key)] = v
}

func (m *weakMap[K, V]) delete(key *K) {
	delete(m.entries, weak.Make(key))
}

func (m *weakMap[K, V]) len() int {
	return len(m.entries)
}

// prune drops entries whose key was collected or for which dead reports true.
func (m *weakMap[K, V]) prune(dead func(*K) bool) int {
	n := 0
	for k := range m.entries {
		key := k.Value()
		if key == nil || (dead != nil && dead(key)) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// cameraMap associates per-camera values with camera nodes.
type cameraMap[V any] struct {
	weakMap[Node, V]
}

// pruneDisposed drops entries for collected or disposed cameras.
func (m *cameraMap[V]) pruneDisposed() int {
	return m.prune(func(n *Node) bool { return n.disposed })
}
