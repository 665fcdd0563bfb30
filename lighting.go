package arbor

import (
	"slices"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// --- Uniform layouts ---

// DirectionalLightUniform is the baked form of a directional light.
// Direction points from the target toward the light.
type DirectionalLightUniform struct {
	Direction mgl32.Vec3
	Color     mgl32.Vec3
}

// PointLightUniform is the baked form of a point light.
type PointLightUniform struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	Distance float32
	Decay    float32
}

// SpotLightUniform is the baked form of a spot light.
type SpotLightUniform struct {
	Position    mgl32.Vec3
	Direction   mgl32.Vec3
	Color       mgl32.Vec3
	Distance    float32
	Decay       float32
	ConeCos     float32
	PenumbraCos float32
}

// HemisphereLightUniform is the baked form of a hemisphere light.
type HemisphereLightUniform struct {
	Direction   mgl32.Vec3
	SkyColor    mgl32.Vec3
	GroundColor mgl32.Vec3
}

// ShadowUniform carries what a backend needs to sample one shadow map.
// Matrix maps anchor-relative positions to shadow texture space.
type ShadowUniform struct {
	Map        *RenderTarget
	Matrix     mgl32.Mat4
	MapSize    [2]float32
	Bias       float32
	NormalBias float32
	Radius     float32
	CameraNear float32
	CameraFar  float32
}

// LightingState is the shape of a group's uniform layout. Backends key
// program variants on it.
type LightingState struct {
	Directional       int
	Point             int
	Spot              int
	Hemisphere        int
	DirectionalShadow int
	PointShadow       int
	SpotShadow        int
}

// --- LightingGroup ---

// LightingGroup is the set of lights affecting meshes assigned to one group
// index, baked into uniform arrays by end. Shadow-casting lights come first
// in each per-type array, matching their shadow uniform index.
type LightingGroup struct {
	Index int

	lights      []*Node
	shadowFlags []bool

	Ambient     mgl32.Vec3
	Directional []DirectionalLightUniform
	Point       []PointLightUniform
	Spot        []SpotLightUniform
	Hemisphere  []HemisphereLightUniform

	DirectionalShadows []ShadowUniform
	PointShadows       []ShadowUniform
	SpotShadows        []ShadowUniform

	State LightingState
	// Version is bumped whenever State changes.
	Version int
}

func newLightingGroup(index int) *LightingGroup {
	return &LightingGroup{Index: index}
}

// Lights returns the lights assigned this frame, shadow casters first.
// The returned slice MUST NOT be mutated by the caller.
func (g *LightingGroup) Lights() []*Node {
	return g.lights
}

func (g *LightingGroup) begin() {
	clear(g.lights)
	g.lights = g.lights[:0]
	g.shadowFlags = g.shadowFlags[:0]
}

func (g *LightingGroup) add(light *Node, shadow bool) {
	g.lights = append(g.lights, light)
	g.shadowFlags = append(g.shadowFlags, shadow)
}

// end bakes the group's uniform arrays in anchor-relative space.
func (g *LightingGroup) end(sd *SceneData) {
	g.Ambient = mgl32.Vec3{}
	g.Directional = g.Directional[:0]
	g.Point = g.Point[:0]
	g.Spot = g.Spot[:0]
	g.Hemisphere = g.Hemisphere[:0]
	g.DirectionalShadows = g.DirectionalShadows[:0]
	g.PointShadows = g.PointShadows[:0]
	g.SpotShadows = g.SpotShadows[:0]

	for i, n := range g.lights {
		l := n.Light
		color := l.Color.RGB().Mul(l.Intensity)
		shadow := g.shadowFlags[i]

		switch l.Kind {
		case AmbientLight:
			g.Ambient = g.Ambient.Add(color)

		case DirectionalLight:
			dir := sd.directionToAnchor(n.WorldPosition().Sub(l.TargetPosition()))
			if dir.Len() != 0 {
				dir = dir.Normalize()
			}
			g.Directional = append(g.Directional, DirectionalLightUniform{Direction: dir, Color: color})
			if shadow {
				g.DirectionalShadows = append(g.DirectionalShadows, shadowUniform(l.Shadow, sd))
			}

		case PointLight:
			g.Point = append(g.Point, PointLightUniform{
				Position: sd.toAnchor(n.WorldPosition()),
				Color:    color,
				Distance: l.Distance,
				Decay:    l.Decay,
			})
			if shadow {
				g.PointShadows = append(g.PointShadows, shadowUniform(l.Shadow, sd))
			}

		case SpotLight:
			dir := sd.directionToAnchor(n.WorldPosition().Sub(l.TargetPosition()))
			if dir.Len() != 0 {
				dir = dir.Normalize()
			}
			g.Spot = append(g.Spot, SpotLightUniform{
				Position:    sd.toAnchor(n.WorldPosition()),
				Direction:   dir,
				Color:       color,
				Distance:    l.Distance,
				Decay:       l.Decay,
				ConeCos:     math32.Cos(l.Angle),
				PenumbraCos: math32.Cos(l.Angle * (1 - l.Penumbra)),
			})
			if shadow {
				g.SpotShadows = append(g.SpotShadows, shadowUniform(l.Shadow, sd))
			}

		case HemisphereLight:
			dir := sd.directionToAnchor(n.WorldPosition())
			if dir.Len() != 0 {
				dir = dir.Normalize()
			}
			g.Hemisphere = append(g.Hemisphere, HemisphereLightUniform{
				Direction:   dir,
				SkyColor:    color,
				GroundColor: l.GroundColor.RGB().Mul(l.Intensity),
			})
		}
	}

	state := LightingState{
		Directional:       len(g.Directional),
		Point:             len(g.Point),
		Spot:              len(g.Spot),
		Hemisphere:        len(g.Hemisphere),
		DirectionalShadow: len(g.DirectionalShadows),
		PointShadow:       len(g.PointShadows),
		SpotShadow:        len(g.SpotShadows),
	}
	if state != g.State {
		g.State = state
		g.Version++
	}
}

func shadowUniform(s *LightShadow, sd *SceneData) ShadowUniform {
	u := ShadowUniform{
		Map:        s.Map,
		Matrix:     s.Matrix,
		MapSize:    [2]float32{float32(s.MapSize[0]), float32(s.MapSize[1])},
		Bias:       s.Bias,
		NormalBias: s.NormalBias,
		Radius:     s.Radius,
	}
	if sd.HasAnchor {
		u.Matrix = u.Matrix.Mul4(sd.AnchorMatrix)
	}
	if c := s.Camera.Camera; c != nil {
		u.CameraNear, u.CameraFar = c.Near, c.Far
	}
	return u
}

// --- LightingData ---

// LightingData collects the lights of one scene for one frame and distributes
// them into lighting groups. Protocol: Begin, any number of Collect, End.
// After End the data is locked and Collect is ignored until the next Begin.
type LightingData struct {
	lights      []*Node
	shadowCount int
	groups      []*LightingGroup
	locked      bool
}

// NewLightingData creates lighting data with groupCount groups (at least 1).
func NewLightingData(groupCount int) *LightingData {
	groupCount = max(groupCount, 1)
	d := &LightingData{groups: make([]*LightingGroup, groupCount)}
	for i := range d.groups {
		d.groups[i] = newLightingGroup(i)
	}
	return d
}

// Begin clears the collected lights and unlocks collection.
func (d *LightingData) Begin() {
	clear(d.lights)
	d.lights = d.lights[:0]
	d.shadowCount = 0
	d.locked = false
}

// Collect appends a light node. Ignored while locked or for non-light nodes.
func (d *LightingData) Collect(light *Node) {
	if light == nil || light.Light == nil {
		return
	}
	if d.locked {
		Logger().Warn("arbor: light collected while lighting data is locked", "node", light.Name)
		return
	}
	d.lights = append(d.lights, light)
	if castsShadow(light) {
		d.shadowCount++
	}
}

// End moves shadow-casting lights to the front, distributes every light to
// the groups its mask selects, bakes each group and locks collection.
func (d *LightingData) End(sd *SceneData) {
	if d.locked {
		Logger().Warn("arbor: lighting data ended twice")
		return
	}
	slices.SortStableFunc(d.lights, compareShadowFirst)

	for _, g := range d.groups {
		g.begin()
	}
	if len(d.groups) == 1 {
		g := d.groups[0]
		for i, l := range d.lights {
			if l.Light.GroupMask&1 != 0 {
				g.add(l, i < d.shadowCount)
			}
		}
	} else {
		for i, l := range d.lights {
			shadow := i < d.shadowCount
			mask := l.Light.GroupMask
			for gi, g := range d.groups {
				if mask&(1<<uint(gi)) != 0 {
					g.add(l, shadow)
				}
			}
		}
	}
	for _, g := range d.groups {
		g.end(sd)
	}
	d.locked = true
}

// RefreshUniforms re-bakes every group from the already distributed lights.
// The shadow pass calls it after updating shadow matrices and maps.
func (d *LightingData) RefreshUniforms(sd *SceneData) {
	if !d.locked {
		return
	}
	for _, g := range d.groups {
		g.end(sd)
	}
}

// compareShadowFirst orders shadow casters before other lights and keeps
// everything else equal.
func compareShadowFirst(a, b *Node) int {
	as, bs := castsShadow(a), castsShadow(b)
	switch {
	case as == bs:
		return 0
	case as:
		return -1
	default:
		return 1
	}
}

// Lights returns the lights collected this frame, shadow casters first after
// End. The returned slice MUST NOT be mutated by the caller.
func (d *LightingData) Lights() []*Node {
	return d.lights
}

// ShadowCount returns the number of collected shadow-casting lights.
func (d *LightingData) ShadowCount() int {
	return d.shadowCount
}

// ShadowLights returns the shadow-casting prefix of Lights.
func (d *LightingData) ShadowLights() []*Node {
	return d.lights[:d.shadowCount]
}

// Groups returns all lighting groups.
func (d *LightingData) Groups() []*LightingGroup {
	return d.groups
}

// Group returns the group at index i, falling back to group 0 when out of
// range.
func (d *LightingData) Group(i int) *LightingGroup {
	if i < 0 || i >= len(d.groups) {
		return d.groups[0]
	}
	return d.groups[i]
}

// Locked reports whether End has run since the last Begin.
func (d *LightingData) Locked() bool {
	return d.locked
}
