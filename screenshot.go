package arbor

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Screenshot queues a labeled capture of Screen. Queued captures are written
// to ScreenshotDir as timestamped PNGs once the renderer finishes the frame.
func (b *EbitenBackend) Screenshot(label string) {
	b.screenshotQueue = append(b.screenshotQueue, label)
}

// PendingScreenshots returns the number of queued captures.
func (b *EbitenBackend) PendingScreenshots() int {
	return len(b.screenshotQueue)
}

// EndFrame flushes queued screenshots. The renderer calls it after the last
// submission of every frame.
func (b *EbitenBackend) EndFrame() {
	if len(b.screenshotQueue) == 0 {
		return
	}
	defer func() { b.screenshotQueue = b.screenshotQueue[:0] }()

	if b.Screen == nil {
		Logger().Warn("arbor: screenshot skipped, no screen", "queued", len(b.screenshotQueue))
		return
	}
	if err := os.MkdirAll(b.ScreenshotDir, 0o755); err != nil {
		Logger().Warn("arbor: screenshot mkdir failed", "dir", b.ScreenshotDir, "err", err)
		return
	}

	img := readNRGBA(b.Screen)
	stamp := time.Now().Format("20060102_150405")
	for _, label := range b.screenshotQueue {
		path := filepath.Join(b.ScreenshotDir, stamp+"_"+sanitizeLabel(label)+".png")
		if err := writePNG(path, img); err != nil {
			Logger().Warn("arbor: screenshot failed", "err", err)
		}
	}
}

// SaveRenderTarget writes every face of t to dir as <label>_<face>.png and
// returns the written paths. Shadow maps store depth as gray levels, so the
// files can be inspected directly.
func SaveRenderTarget(t *RenderTarget, dir, label string) ([]string, error) {
	if t == nil || t.Faces() == 0 {
		return nil, fmt.Errorf("save render target %q: no images", label)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("save render target: %w", err)
	}
	safe := sanitizeLabel(label)
	paths := make([]string, 0, t.Faces())
	for i := range t.Faces() {
		path := filepath.Join(dir, fmt.Sprintf("%s_%d.png", safe, i))
		if err := writePNG(path, readNRGBA(t.Image(i))); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// readNRGBA copies img into a straight-alpha image.
func readNRGBA(img *ebiten.Image) *image.NRGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, 4*w*h)
	img.ReadPixels(pixels)
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	unpremultiply(out.Pix, pixels)
	return out
}

// unpremultiply converts premultiplied RGBA in src to straight alpha in dst.
func unpremultiply(dst, src []byte) {
	for i := 0; i+3 < len(src); i += 4 {
		r, g, b, a := src[i], src[i+1], src[i+2], src[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		dst[i] = r
		dst[i+1] = g
		dst[i+2] = b
		dst[i+3] = a
	}
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
