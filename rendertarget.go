package arbor

import (
	"image"
	"math/bits"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
)

// AttachmentKind tags the layout of a RenderTarget's color attachment.
type AttachmentKind uint8

const (
	Attachment2D    AttachmentKind = iota // one image
	AttachmentCube                        // six faces: +X, -X, +Y, -Y, +Z, -Z
	Attachment3D                          // Depth slices
	AttachmentArray                       // Depth layers
)

func (k AttachmentKind) String() string {
	switch k {
	case Attachment2D:
		return "2d"
	case AttachmentCube:
		return "cube"
	case Attachment3D:
		return "3d"
	case AttachmentArray:
		return "array"
	default:
		return "unknown"
	}
}

var renderTargetIDCounter uint32

// RenderTarget is an offscreen destination for a pass. Every kind is backed
// by one ebiten image per face, slice or layer.
type RenderTarget struct {
	ID     uint32
	UUID   uuid.UUID
	Name   string
	Kind   AttachmentKind
	Width  int
	Height int
	// Depth is the slice or layer count for Attachment3D and AttachmentArray.
	Depth int

	images []*ebiten.Image
	pool   *renderTargetPool
	handle *handle
}

// NewRenderTarget allocates a target of the given kind. depth is ignored for
// Attachment2D and AttachmentCube.
func NewRenderTarget(name string, kind AttachmentKind, width, height, depth int) *RenderTarget {
	return newRenderTarget(name, kind, width, height, depth, nil)
}

func newRenderTarget(name string, kind AttachmentKind, width, height, depth int, pool *renderTargetPool) *RenderTarget {
	renderTargetIDCounter++
	t := &RenderTarget{
		ID:     renderTargetIDCounter,
		UUID:   uuid.New(),
		Name:   name,
		Kind:   kind,
		Width:  width,
		Height: height,
		pool:   pool,
	}
	switch kind {
	case Attachment2D:
		t.Depth = 1
	case AttachmentCube:
		t.Depth = 6
	default:
		t.Depth = max(depth, 1)
	}
	t.images = make([]*ebiten.Image, t.Depth)
	for i := range t.images {
		if pool != nil {
			t.images[i] = pool.Acquire(width, height)
		} else {
			t.images[i] = ebiten.NewImageWithOptions(
				image.Rect(0, 0, width, height),
				&ebiten.NewImageOptions{Unmanaged: true},
			)
		}
	}
	return t
}

// Faces returns the number of images: 1, 6, or Depth.
func (t *RenderTarget) Faces() int {
	return len(t.images)
}

// Image returns the image of face (or slice/layer) i, or nil when out of range
// or freed.
func (t *RenderTarget) Image(i int) *ebiten.Image {
	if i < 0 || i >= len(t.images) {
		return nil
	}
	return t.images[i]
}

// Clear clears every face.
func (t *RenderTarget) Clear() {
	for _, img := range t.images {
		if img != nil {
			img.Clear()
		}
	}
}

func (t *RenderTarget) resourceHandle() *handle {
	if t.handle == nil {
		t.handle = newHandle(t.Name, t.free)
	}
	return t.handle
}

func (t *RenderTarget) free() {
	for i, img := range t.images {
		if img == nil {
			continue
		}
		if t.pool != nil {
			t.pool.Release(img)
		} else {
			img.Deallocate()
		}
		t.images[i] = nil
	}
	t.images = t.images[:0]
}

// --- Render target pool ---

// renderTargetPool manages reusable offscreen ebiten.Images keyed by
// power-of-two dimensions. After warmup, Acquire/Release are zero-alloc.
type renderTargetPool struct {
	buckets map[uint64][]*ebiten.Image
}

// poolKey packs power-of-two width and height into a single uint64.
func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// Acquire returns a cleared offscreen image with at least (w, h) pixels.
// Dimensions are rounded up to the next power of two.
func (p *renderTargetPool) Acquire(w, h int) *ebiten.Image {
	pw := nextPowerOfTwo(w)
	ph := nextPowerOfTwo(h)
	key := poolKey(pw, ph)

	if p.buckets != nil {
		if stack := p.buckets[key]; len(stack) > 0 {
			img := stack[len(stack)-1]
			stack[len(stack)-1] = nil
			p.buckets[key] = stack[:len(stack)-1]
			img.Clear()
			return img
		}
	}

	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, pw, ph),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// Release returns an image to the pool for reuse. The image is cleared on
// next Acquire, not here.
func (p *renderTargetPool) Release(img *ebiten.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	key := poolKey(b.Dx(), b.Dy())

	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	p.buckets[key] = append(p.buckets[key], img)
}

// Idle returns the number of pooled images waiting for reuse.
func (p *renderTargetPool) Idle() int {
	n := 0
	for _, stack := range p.buckets {
		n += len(stack)
	}
	return n
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
