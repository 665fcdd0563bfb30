package arbor

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// StatsOverlay draws FPS, TPS and the renderer's frame stats in the top-left
// corner of the screen. The text is refreshed about twice per second.
type StatsOverlay struct {
	img     *ebiten.Image
	text    string
	elapsed float32
}

// NewStatsOverlay creates an overlay with its own backing image.
func NewStatsOverlay() *StatsOverlay {
	// Room for seven lines of debug font.
	return &StatsOverlay{img: ebiten.NewImage(160, 112)}
}

// Update advances the refresh timer by dt seconds and rebuilds the text from
// stats when it expires. It reports whether the text changed.
func (o *StatsOverlay) Update(dt float32, stats FrameStats) bool {
	o.elapsed += dt
	if o.text != "" && o.elapsed < 0.5 {
		return false
	}
	o.elapsed = 0
	o.text = formatStats(ebiten.ActualFPS(), ebiten.ActualTPS(), stats)

	o.img.Clear()
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, o.text)
	return true
}

// Text returns the text shown by the last refresh.
func (o *StatsOverlay) Text() string {
	return o.text
}

// Draw copies the overlay onto screen.
func (o *StatsOverlay) Draw(screen *ebiten.Image) {
	screen.DrawImage(o.img, nil)
}

func formatStats(fps, tps float64, s FrameStats) string {
	return fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nitems: %d\nculled: %d\nlights: %d\nshadows: %d\nskel: %d",
		fps, tps, s.Items, s.Culled, s.Lights, s.ShadowMaps, s.SkeletonUpdates)
}
