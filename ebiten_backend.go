package arbor

import (
	"cmp"
	"image"
	"slices"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

// EbitenBackend is a preview Backend that projects triangles on the CPU and
// draws them with DrawTriangles32. It has no depth buffer: within a layer,
// opaque items are painted far to near by the painter's algorithm and
// transparent items in queue order (already back to front). Shadow passes
// write linear depth as gray levels. Only DrawTriangles meshes are drawn.
type EbitenBackend struct {
	// Screen is the default target for main passes.
	Screen *ebiten.Image

	verts []ebiten.Vertex
	inds  []uint32
	src   *ebiten.Image
	order []*RenderItem

	// Per-submission counters, reset by every Submit.
	DrawCalls int
	Triangles int

	// ScreenshotDir receives the PNGs queued with Screenshot.
	ScreenshotDir string

	screenshotQueue []string
}

// NewEbitenBackend creates a backend drawing into screen.
func NewEbitenBackend(screen *ebiten.Image) *EbitenBackend {
	return &EbitenBackend{
		Screen:        screen,
		ScreenshotDir: "screenshots",
		src:           WhitePixel.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image),
	}
}

// Submit draws one queue.
func (b *EbitenBackend) Submit(s *Submission) {
	b.DrawCalls = 0
	b.Triangles = 0

	dst := b.Screen
	if s.Target != nil {
		dst = s.Target.Image(s.Face)
	}
	if dst == nil {
		Logger().Warn("arbor: ebiten backend has no target image", "pass", s.Pass)
		return
	}

	vp := s.States.Camera.Viewport
	if vp.Empty() {
		bounds := dst.Bounds()
		vp = Rect{
			X:      float32(bounds.Min.X),
			Y:      float32(bounds.Min.Y),
			Width:  float32(bounds.Dx()),
			Height: float32(bounds.Dy()),
		}
	}

	for _, layer := range s.Queue.Layers() {
		for _, item := range b.painterOrder(layer.Opaque) {
			b.drawItem(dst, item, s, vp)
		}
		for i := range layer.Transparent {
			b.drawItem(dst, &layer.Transparent[i], s, vp)
		}
	}
}

// projected is a vertex after the model-view-projection transform.
type projected struct {
	screen mgl32.Vec2
	world  mgl32.Vec3 // anchor-relative
	depth  float32    // ndc z mapped to [0, 1]
	ok     bool
}

// painterOrder returns the opaque items by render order, farthest first
// within equal render order.
func (b *EbitenBackend) painterOrder(items []RenderItem) []*RenderItem {
	clear(b.order)
	b.order = b.order[:0]
	for i := range items {
		b.order = append(b.order, &items[i])
	}
	slices.SortStableFunc(b.order, func(x, y *RenderItem) int {
		if c := cmp.Compare(x.RenderOrder, y.RenderOrder); c != 0 {
			return c
		}
		return cmp.Compare(y.Distance, x.Distance)
	})
	return b.order
}

func (b *EbitenBackend) drawItem(dst *ebiten.Image, item *RenderItem, s *Submission, vp Rect) {
	mesh := item.Object.Mesh
	if mesh == nil || mesh.DrawMode != DrawTriangles {
		return
	}
	g := item.Geometry
	pos := g.Attribute(AttributePosition)
	if pos == nil {
		return
	}
	colors := g.Attribute(AttributeColor)
	if colors.Count() < pos.Count() {
		colors = nil
	}
	if !elementsInRange(g, item.Start, item.Count, pos.Count()) {
		Logger().Warn("arbor: skipped item with out-of-range vertex indices", "node", item.Object.Name)
		return
	}
	states := s.States
	cam := &states.Camera
	mat := item.Material

	model := item.Object.worldMatrix
	if states.Scene.HasAnchor {
		model = states.Scene.AnchorMatrixInverse.Mul4(model)
	}
	mvp := cam.ProjectionViewMatrix.Mul4(model)

	project := func(i int) projected {
		p := pos.Vec3(i).Vec4(1)
		clip := mvp.Mul4x1(p)
		if clip[3] <= 0 {
			return projected{}
		}
		ndc := clip.Vec3().Mul(1 / clip[3])
		return projected{
			screen: mgl32.Vec2{
				vp.X + (ndc[0]+1)/2*vp.Width,
				vp.Y + (1-ndc[1])/2*vp.Height,
			},
			world: model.Mul4x1(p).Vec3(),
			depth: clamp01((ndc[2] + 1) / 2),
			ok:    true,
		}
	}

	vertexIndex := func(e int) int {
		if g.Index != nil {
			return int(g.Index[e])
		}
		return e
	}

	group := states.Lighting.Group(item.Object.LightingGroup)
	base := mat.Color
	alpha := base.A
	if mat.Transparent {
		alpha *= mat.Opacity
	}

	b.verts = b.verts[:0]
	b.inds = b.inds[:0]
	end := item.Start + item.Count - item.Count%3
	for e := item.Start; e < end; e += 3 {
		i0, i1, i2 := vertexIndex(e), vertexIndex(e+1), vertexIndex(e+2)
		p0, p1, p2 := project(i0), project(i1), project(i2)
		if !p0.ok || !p1.ok || !p2.ok {
			continue
		}
		if !sideVisible(mat.Side, p0.screen, p1.screen, p2.screen) {
			continue
		}

		var rgb mgl32.Vec3
		switch {
		case s.Pass == PassShadow:
			d := (p0.depth + p1.depth + p2.depth) / 3
			rgb = mgl32.Vec3{d, d, d}
		case mat.Kind.Lit():
			normal := p1.world.Sub(p0.world).Cross(p2.world.Sub(p0.world))
			if normal.Len() != 0 {
				normal = normal.Normalize()
			}
			center := p0.world.Add(p1.world).Add(p2.world).Mul(1.0 / 3)
			rgb = shadeLambert(group, base.RGB(), normal, center)
			rgb = rgb.Add(mat.Emissive.RGB())
		default:
			rgb = base.RGB()
		}
		if s.Pass == PassMain {
			center := p0.world.Add(p1.world).Add(p2.world).Mul(1.0 / 3)
			rgb = applyFog(states.Scene.Fog, rgb, center.Sub(cam.Position).Len())
			rgb = applyOutput(rgb, cam.Output)
		}

		// Vertex colors are premultiplied.
		for k, p := range [3]projected{p0, p1, p2} {
			c := rgb
			if colors != nil && s.Pass == PassMain {
				vc := colors.Vec3([3]int{i0, i1, i2}[k])
				c = mgl32.Vec3{c[0] * vc[0], c[1] * vc[1], c[2] * vc[2]}
			}
			b.inds = append(b.inds, uint32(len(b.verts)))
			b.verts = append(b.verts, ebiten.Vertex{
				DstX:   p.screen[0],
				DstY:   p.screen[1],
				SrcX:   1.5,
				SrcY:   1.5,
				ColorR: c[0] * alpha,
				ColorG: c[1] * alpha,
				ColorB: c[2] * alpha,
				ColorA: alpha,
			})
		}
	}
	if len(b.inds) == 0 {
		return
	}

	var op ebiten.DrawTrianglesOptions
	op.Blend = mat.Blend.EbitenBlend()
	if s.Pass == PassShadow {
		op.Blend = ebiten.BlendCopy
	}
	dst.DrawTriangles32(b.verts, b.inds, b.src, &op)
	b.DrawCalls++
	b.Triangles += len(b.inds) / 3
}

// elementsInRange reports whether elements [start, start+count) exist and
// reference vertices below vertexCount.
func elementsInRange(g *Geometry, start, count, vertexCount int) bool {
	if start < 0 || count < 0 {
		return false
	}
	end := start + count
	if g.Index == nil {
		return end <= vertexCount
	}
	if end > len(g.Index) {
		return false
	}
	for _, i := range g.Index[start:end] {
		if int(i) >= vertexCount {
			return false
		}
	}
	return true
}

// sideVisible reports whether a screen-space triangle faces the side the
// material draws. Screen Y points down, so counter-clockwise in NDC is
// clockwise on screen.
func sideVisible(side Side, a, b, c mgl32.Vec2) bool {
	area := (b[0]-a[0])*(c[1]-a[1]) - (c[0]-a[0])*(b[1]-a[1])
	switch side {
	case FrontSide:
		return area < 0
	case BackSide:
		return area > 0
	default:
		return true
	}
}

// shadeLambert evaluates diffuse lighting of a lighting group at point p
// with normal n. Inputs are anchor-relative.
func shadeLambert(g *LightingGroup, albedo, n, p mgl32.Vec3) mgl32.Vec3 {
	light := g.Ambient
	for _, d := range g.Directional {
		light = light.Add(d.Color.Mul(max(n.Dot(d.Direction), 0)))
	}
	for _, h := range g.Hemisphere {
		w := 0.5*n.Dot(h.Direction) + 0.5
		light = light.Add(h.GroundColor.Mul(1 - w)).Add(h.SkyColor.Mul(w))
	}
	for _, pl := range g.Point {
		l := pl.Position.Sub(p)
		dist := l.Len()
		if dist == 0 {
			continue
		}
		att := distanceAttenuation(dist, pl.Distance, pl.Decay)
		light = light.Add(pl.Color.Mul(max(n.Dot(l.Mul(1/dist)), 0) * att))
	}
	for _, sl := range g.Spot {
		l := sl.Position.Sub(p)
		dist := l.Len()
		if dist == 0 {
			continue
		}
		l = l.Mul(1 / dist)
		cone := smoothstep(sl.ConeCos, sl.PenumbraCos, l.Dot(sl.Direction))
		if cone == 0 {
			continue
		}
		att := distanceAttenuation(dist, sl.Distance, sl.Decay)
		light = light.Add(sl.Color.Mul(max(n.Dot(l), 0) * att * cone))
	}
	return mgl32.Vec3{albedo[0] * light[0], albedo[1] * light[1], albedo[2] * light[2]}
}

func distanceAttenuation(dist, cutoff, decay float32) float32 {
	if cutoff <= 0 {
		return 1
	}
	return math32.Pow(clamp01(1-dist/cutoff), max(decay, 0))
}

func smoothstep(lo, hi, x float32) float32 {
	if hi == lo {
		if x >= hi {
			return 1
		}
		return 0
	}
	t := clamp01((x - lo) / (hi - lo))
	return t * t * (3 - 2*t)
}

func applyFog(f *Fog, c mgl32.Vec3, dist float32) mgl32.Vec3 {
	if f == nil {
		return c
	}
	var amount float32
	switch f.Kind {
	case FogExp2:
		d := f.Density * dist
		amount = 1 - math32.Exp(-d*d)
	default:
		if f.Far > f.Near {
			amount = smoothstep(f.Near, f.Far, dist)
		}
	}
	fc := f.Color.RGB()
	return c.Add(fc.Sub(c).Mul(clamp01(amount)))
}

func applyOutput(c mgl32.Vec3, out OutputSettings) mgl32.Vec3 {
	if out.ToneMapping != NoToneMapping {
		c = c.Mul(out.ToneMappingExposure)
		for i := range c {
			switch out.ToneMapping {
			case ReinhardToneMapping:
				c[i] = c[i] / (1 + c[i])
			case ACESFilmicToneMapping:
				x := c[i]
				c[i] = clamp01((x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14))
			default:
				c[i] = clamp01(c[i])
			}
		}
	}
	if out.ColorSpace == ColorSpaceSRGB {
		for i := range c {
			c[i] = linearToSRGB(clamp01(c[i]))
		}
	}
	return c
}

func linearToSRGB(v float32) float32 {
	if v < 0.0031308 {
		return v * 12.92
	}
	return 1.055*math32.Pow(v, 1/2.4) - 0.055
}
