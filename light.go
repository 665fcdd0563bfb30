package arbor

import (
	"github.com/go-gl/mathgl/mgl32"
)

// LightType selects the light model.
type LightType uint8

const (
	AmbientLight LightType = iota
	DirectionalLight
	PointLight
	SpotLight
	HemisphereLight
)

func (t LightType) String() string {
	switch t {
	case AmbientLight:
		return "ambient"
	case DirectionalLight:
		return "directional"
	case PointLight:
		return "point"
	case SpotLight:
		return "spot"
	case HemisphereLight:
		return "hemisphere"
	default:
		return "unknown"
	}
}

// DefaultGroupMask places a light in lighting group 0 only.
const DefaultGroupMask uint32 = 1

// Light is the payload of a NodeTypeLight node.
type Light struct {
	Kind      LightType
	Color     Color
	Intensity float32

	// GroundColor is the lower hemisphere color of a HemisphereLight.
	GroundColor Color

	// Distance is the range of point and spot lights; 0 means unlimited.
	Distance float32
	Decay    float32

	// Angle is the spot cone half-angle in radians; Penumbra is in [0, 1].
	Angle    float32
	Penumbra float32

	// GroupMask selects the lighting groups the light contributes to, one bit
	// per group.
	GroupMask uint32

	// Target is the node directional and spot lights point at. Nil means the
	// world origin.
	Target *Node

	// Shadow is nil for light types that cannot cast shadows.
	Shadow *LightShadow
}

func newLightNode(name string, l *Light) *Node {
	n := &Node{Name: name, Type: NodeTypeLight}
	nodeDefaults(n)
	if l.GroupMask == 0 {
		l.GroupMask = DefaultGroupMask
	}
	n.Light = l
	return n
}

// NewAmbientLight creates a light that illuminates every surface equally.
func NewAmbientLight(name string, color Color, intensity float32) *Node {
	return newLightNode(name, &Light{Kind: AmbientLight, Color: color, Intensity: intensity})
}

// NewHemisphereLight creates a sky/ground gradient light. The sky direction
// is the light's position relative to the origin.
func NewHemisphereLight(name string, sky, ground Color, intensity float32) *Node {
	n := newLightNode(name, &Light{Kind: HemisphereLight, Color: sky, GroundColor: ground, Intensity: intensity})
	n.SetPosition(0, 1, 0)
	return n
}

// NewDirectionalLight creates a light shining from its position toward its
// target with parallel rays. Its shadow uses an orthographic camera.
func NewDirectionalLight(name string, color Color, intensity float32) *Node {
	n := newLightNode(name, &Light{
		Kind:      DirectionalLight,
		Color:     color,
		Intensity: intensity,
		Shadow:    newLightShadow(NewOrthographicCamera(name+".shadow", -5, 5, 5, -5, 0.5, 500)),
	})
	n.SetPosition(0, 1, 0)
	return n
}

// NewPointLight creates a light emitting in all directions. Its shadow is a
// six-face cube map.
func NewPointLight(name string, color Color, intensity, distance, decay float32) *Node {
	return newLightNode(name, &Light{
		Kind:      PointLight,
		Color:     color,
		Intensity: intensity,
		Distance:  distance,
		Decay:     decay,
		Shadow:    newLightShadow(NewPerspectiveCamera(name+".shadow", 90, 1, 0.5, 500)),
	})
}

// NewSpotLight creates a cone light pointing at its target.
func NewSpotLight(name string, color Color, intensity, distance, angle, penumbra, decay float32) *Node {
	return newLightNode(name, &Light{
		Kind:      SpotLight,
		Color:     color,
		Intensity: intensity,
		Distance:  distance,
		Angle:     angle,
		Penumbra:  penumbra,
		Decay:     decay,
		Shadow:    newLightShadow(NewPerspectiveCamera(name+".shadow", 50, 1, 0.5, 500)),
	})
}

// TargetPosition returns the world position the light points at.
func (l *Light) TargetPosition() mgl32.Vec3 {
	if l.Target == nil {
		return mgl32.Vec3{}
	}
	return l.Target.WorldPosition()
}

// castsShadow reports whether node is a light that renders a shadow map.
func castsShadow(n *Node) bool {
	return n.CastShadow && n.Light != nil && n.Light.Shadow != nil
}

func (l *Light) release() {
	if l.Shadow != nil {
		l.Shadow.release()
	}
	l.Target = nil
}
