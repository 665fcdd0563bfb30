package arbor

import (
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
)

var textureIDCounter uint32

// Texture is an image sampled by materials or used as an environment map.
type Texture struct {
	ID    uint32
	UUID  uuid.UUID
	Name  string
	Image *ebiten.Image

	// Version is bumped by callers after changing the image contents.
	Version int

	handle *handle
}

// NewTexture wraps img.
func NewTexture(name string, img *ebiten.Image) *Texture {
	textureIDCounter++
	return &Texture{ID: textureIDCounter, UUID: uuid.New(), Name: name, Image: img}
}

func (t *Texture) resourceHandle() *handle {
	if t.handle == nil {
		t.handle = newHandle(t.Name, func() {
			if t.Image != nil {
				t.Image.Deallocate()
				t.Image = nil
			}
		})
	}
	return t.handle
}

// Size returns the image dimensions, or zero when empty.
func (t *Texture) Size() (int, int) {
	if t == nil || t.Image == nil {
		return 0, 0
	}
	b := t.Image.Bounds()
	return b.Dx(), b.Dy()
}
