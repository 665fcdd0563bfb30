package arbor

import (
	"fmt"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"gopkg.in/yaml.v3"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float32
}

// ColorWhite is the default light and material color.
var ColorWhite = Color{1, 1, 1, 1}

// RGB returns the color's RGB components as a vector.
func (c Color) RGB() mgl32.Vec3 {
	return mgl32.Vec3{c.R, c.G, c.B}
}

// Scale returns the RGB components multiplied by s. Alpha is kept.
func (c Color) Scale(s float32) Color {
	return Color{c.R * s, c.G * s, c.B * s, c.A}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.toRGBA().RGBA()
}

func (c Color) toRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// WhitePixel is a small white image used as the source for untextured
// triangles. DrawTriangles samples its interior so edges never bleed.
var WhitePixel *ebiten.Image

func init() {
	WhitePixel = ebiten.NewImage(3, 3)
	WhitePixel.Fill(color.White)
}

// Rect is an axis-aligned rectangle in pixels. The origin is the top-left,
// with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float32
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Layers is a 32-bit visibility mask. A node is drawn by a camera only when
// the two masks share at least one bit.
type Layers uint32

// DefaultLayers enables only layer 0.
const DefaultLayers Layers = 1

// Set replaces the mask with only the given layer enabled.
func (l *Layers) Set(layer int) { *l = Layers(1) << uint(layer) }

// Enable adds layer to the mask.
func (l *Layers) Enable(layer int) { *l |= Layers(1) << uint(layer) }

// Disable removes layer from the mask.
func (l *Layers) Disable(layer int) { *l &^= Layers(1) << uint(layer) }

// Test reports whether l and other share at least one layer.
func (l Layers) Test(other Layers) bool { return l&other != 0 }

// NodeType distinguishes the payload a Node carries. Traversal switches on it
// once per node.
type NodeType uint8

const (
	NodeTypeGroup  NodeType = iota // transform-only node
	NodeTypeMesh                   // draws a Geometry with one or more Materials
	NodeTypeLight                  // contributes to LightingData
	NodeTypeCamera                 // owns projection and view state
	NodeTypeBone                   // joint driven by a Skeleton
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeGroup:
		return "group"
	case NodeTypeMesh:
		return "mesh"
	case NodeTypeLight:
		return "light"
	case NodeTypeCamera:
		return "camera"
	case NodeTypeBone:
		return "bone"
	default:
		return fmt.Sprintf("NodeType(%d)", uint8(t))
	}
}

// DrawMode selects the primitive assembly of a mesh.
type DrawMode uint8

const (
	DrawTriangles DrawMode = iota
	DrawTriangleStrip
	DrawTriangleFan
	DrawLines
	DrawLineStrip
	DrawLineLoop
	DrawPoints
)

// Side selects which faces of a material are rasterized.
type Side uint8

const (
	FrontSide Side = iota
	BackSide
	DoubleSide
)

// BlendMode selects a compositing operation. Each maps to an ebiten.Blend.
type BlendMode uint8

const (
	BlendNormal   BlendMode = iota // source-over
	BlendAdd                       // additive
	BlendMultiply                  // source * destination
	BlendNone                      // opaque copy
)

// EbitenBlend returns the ebiten.Blend value corresponding to this BlendMode.
func (b BlendMode) EbitenBlend() ebiten.Blend {
	switch b {
	case BlendAdd:
		return ebiten.BlendLighter
	case BlendMultiply:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case BlendNone:
		return ebiten.BlendCopy
	default:
		return ebiten.BlendSourceOver
	}
}

// ColorSpace is the encoding of the final output.
type ColorSpace uint8

const (
	ColorSpaceSRGB ColorSpace = iota
	ColorSpaceLinear
)

func (c ColorSpace) String() string {
	if c == ColorSpaceLinear {
		return "linear"
	}
	return "srgb"
}

// UnmarshalYAML accepts "srgb" or "linear".
func (c *ColorSpace) UnmarshalYAML(value *yaml.Node) error {
	switch value.Value {
	case "srgb", "":
		*c = ColorSpaceSRGB
	case "linear":
		*c = ColorSpaceLinear
	default:
		return fmt.Errorf("%w: unknown color space %q (line %d)", ErrInvalidConfig, value.Value, value.Line)
	}
	return nil
}

// ToneMapping selects the tone-mapping operator applied to lit output.
type ToneMapping uint8

const (
	NoToneMapping ToneMapping = iota
	LinearToneMapping
	ReinhardToneMapping
	ACESFilmicToneMapping
)

var toneMappingNames = [...]string{"none", "linear", "reinhard", "aces"}

func (t ToneMapping) String() string {
	if int(t) < len(toneMappingNames) {
		return toneMappingNames[t]
	}
	return fmt.Sprintf("ToneMapping(%d)", uint8(t))
}

// UnmarshalYAML accepts one of "none", "linear", "reinhard", "aces".
func (t *ToneMapping) UnmarshalYAML(value *yaml.Node) error {
	if value.Value == "" {
		*t = NoToneMapping
		return nil
	}
	for i, name := range toneMappingNames {
		if name == value.Value {
			*t = ToneMapping(i)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown tone mapping %q (line %d)", ErrInvalidConfig, value.Value, value.Line)
}
