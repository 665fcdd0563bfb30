package arbor

import (
	"github.com/google/uuid"
)

// MaterialKind tags the shading model of a Material. Kind-specific parameters
// live in the matching sub-struct; the rest of Material is shared.
type MaterialKind uint8

const (
	MaterialBasic    MaterialKind = iota // unlit color/texture
	MaterialLambert                      // diffuse only
	MaterialPhong                        // diffuse + specular
	MaterialStandard                     // metallic/roughness
	MaterialDepth                        // writes depth, used by shadow passes
)

func (k MaterialKind) String() string {
	switch k {
	case MaterialBasic:
		return "basic"
	case MaterialLambert:
		return "lambert"
	case MaterialPhong:
		return "phong"
	case MaterialStandard:
		return "standard"
	case MaterialDepth:
		return "depth"
	default:
		return "unknown"
	}
}

// Lit reports whether materials of this kind consume lighting uniforms.
func (k MaterialKind) Lit() bool {
	switch k {
	case MaterialLambert, MaterialPhong, MaterialStandard:
		return true
	default:
		return false
	}
}

// PhongParams holds MaterialPhong parameters.
type PhongParams struct {
	Specular  Color
	Shininess float32
}

// StandardParams holds MaterialStandard parameters.
type StandardParams struct {
	Roughness       float32
	Metalness       float32
	EnvMapIntensity float32
}

var materialIDCounter uint32

// Material describes how a mesh surface is shaded. Materials may be shared by
// many meshes; lifetime is managed through Resources.
type Material struct {
	ID   uint32
	UUID uuid.UUID
	Name string
	Kind MaterialKind

	Color       Color
	Emissive    Color
	Opacity     float32
	Transparent bool
	Visible     bool
	Side        Side
	Blend       BlendMode
	DepthTest   bool
	DepthWrite  bool
	AlphaTest   float32
	Map         *Texture

	Phong    PhongParams
	Standard StandardParams

	// Version is bumped by callers after changing parameters that affect the
	// compiled program.
	Version int

	handle *handle
}

// NewMaterial creates a material of the given kind with default parameters.
func NewMaterial(name string, kind MaterialKind) *Material {
	materialIDCounter++
	m := &Material{
		ID:         materialIDCounter,
		UUID:       uuid.New(),
		Name:       name,
		Kind:       kind,
		Color:      ColorWhite,
		Opacity:    1,
		Visible:    true,
		DepthTest:  true,
		DepthWrite: true,
	}
	switch kind {
	case MaterialPhong:
		m.Phong = PhongParams{Specular: Color{0.07, 0.07, 0.07, 1}, Shininess: 30}
	case MaterialStandard:
		m.Standard = StandardParams{Roughness: 1, EnvMapIntensity: 1}
	case MaterialDepth:
		m.Blend = BlendNone
	}
	return m
}

// SetMap replaces the color map, moving the holder reference.
func (m *Material) SetMap(t *Texture) {
	if m.Map == t {
		return
	}
	if t != nil {
		Retain(t)
	}
	if m.Map != nil {
		Release(m.Map)
	}
	m.Map = t
	m.Version++
}

func (m *Material) resourceHandle() *handle {
	if m.handle == nil {
		m.handle = newHandle(m.Name, func() {
			if m.Map != nil {
				Release(m.Map)
				m.Map = nil
			}
		})
	}
	return m.handle
}
