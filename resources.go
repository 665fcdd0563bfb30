package arbor

// handle is the shared-ownership record attached to every disposable
// resource. refs counts holders (meshes, lights, materials); when it drops to
// zero the owning Resources queues the resource and frees it on the next
// Collect, after the frame's queues are no longer in use.
type handle struct {
	refs   int
	owner  *Resources
	name   string
	free   func()
	queued bool
	freed  bool
}

func newHandle(name string, free func()) *handle {
	return &handle{name: name, free: free}
}

// Disposable is implemented by resources whose lifetime is managed through
// Resources: Geometry, Material, Texture and RenderTarget.
type Disposable interface {
	resourceHandle() *handle
}

// Retain records a new holder of d.
func Retain(d Disposable) {
	if d == nil {
		return
	}
	h := d.resourceHandle()
	if h.freed {
		Logger().Warn("arbor: retaining a freed resource", "resource", h.name)
		return
	}
	h.refs++
}

// Release drops a holder of d. When the last holder releases a tracked
// resource it is queued for disposal.
func Release(d Disposable) {
	if d == nil {
		return
	}
	h := d.resourceHandle()
	if h.refs == 0 {
		return
	}
	h.refs--
	if h.refs == 0 && h.owner != nil {
		h.owner.enqueue(h)
	}
}

// RefCount returns the number of holders of d.
func RefCount(d Disposable) int {
	return d.resourceHandle().refs
}

// IsFreed reports whether d has been freed by a Resources collection.
func IsFreed(d Disposable) bool {
	return d.resourceHandle().freed
}

// Resources owns disposable resources and frees them once unreferenced.
// Freeing is deferred to Collect so a resource released mid-frame stays valid
// for queues built earlier in the same frame.
type Resources struct {
	pending []*handle
	tracked int
	freed   int
}

// NewResources creates an empty resource owner.
func NewResources() *Resources {
	return &Resources{}
}

// Track makes r the owner of d. Untracked resources are never freed
// explicitly and are left to the garbage collector.
func (r *Resources) Track(d Disposable) {
	h := d.resourceHandle()
	if h.owner == r {
		return
	}
	h.owner = r
	r.tracked++
}

// Dispose requests that d be freed. If holders remain the request is
// satisfied when the last one releases.
func (r *Resources) Dispose(d Disposable) {
	h := d.resourceHandle()
	if h.owner == nil {
		r.Track(d)
	}
	if h.refs == 0 {
		h.owner.enqueue(h)
	}
}

func (r *Resources) enqueue(h *handle) {
	if h.queued || h.freed {
		return
	}
	h.queued = true
	r.pending = append(r.pending, h)
}

// Pending returns the number of resources queued for disposal.
func (r *Resources) Pending() int {
	return len(r.pending)
}

// Collect frees every queued resource that is still unreferenced and returns
// how many were freed. Resources retained again since queuing are kept.
func (r *Resources) Collect() int {
	n := 0
	for i, h := range r.pending {
		r.pending[i] = nil
		h.queued = false
		if h.refs > 0 || h.freed {
			continue
		}
		if h.free != nil {
			h.free()
		}
		h.freed = true
		r.tracked--
		r.freed++
		n++
	}
	r.pending = r.pending[:0]
	return n
}

// Stats returns the number of live tracked resources and the total freed.
func (r *Resources) Stats() (tracked, freed int) {
	return r.tracked, r.freed
}
