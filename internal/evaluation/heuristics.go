package evaluation

import (
	"image"
	"math"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/overlay"
)

// Technical check names, in report order.
const (
	CheckAspect  = "Portrait aspect ratio"
	CheckSize    = "Minimum resolution"
	CheckRGB     = "RGB mode"
	CheckContent = "Image has content"
	CheckOverlay = "Overlay present"
)

// aspectTolerance is the relative deviation from the requested frame that
// still counts as a match. Models round 3:4 to sizes like 864x1184.
const aspectTolerance = 0.05

// sampleSize is the pixel count inspected by the content and style checks.
const sampleSize = 100

// Check is the outcome of one technical requirement.
type Check struct {
	Name   string
	Passed bool
}

// TechnicalChecks verifies the output format of a finished portrait. The
// image must match the aspect ratio of minWidth x minHeight and be at least
// that large.
func TechnicalChecks(img image.Image, minWidth, minHeight int) []Check {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	return []Check{
		{Name: CheckAspect, Passed: aspectMatches(b, minWidth, minHeight)},
		{Name: CheckSize, Passed: b.Dx() >= minWidth && b.Dy() >= minHeight},
		{Name: CheckRGB, Passed: overlay.IsOpaque(img)},
		{Name: CheckContent, Passed: overlay.DistinctColors(img, sampleSize) > 1},
		{Name: CheckOverlay, Passed: !b.Empty() && overlay.MeanBrightness(img, overlay.BottomRegion(b)) < 100},
	}
}

// TechnicalScore is the share of passed checks.
func TechnicalScore(checks []Check) float64 {
	if len(checks) == 0 {
		return 0
	}
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}
	return float64(passed) / float64(len(checks))
}

// VisualQuality scores exposure, contrast, fine detail and clipping. The
// best band of each criterion contributes 0.3, 0.3, 0.25 and 0.15, so a
// flawless image scores 1.
func VisualQuality(img image.Image) float64 {
	if img == nil || img.Bounds().Empty() {
		return 0
	}
	b := img.Bounds()
	total := float64(b.Dx() * b.Dy())

	var sum float64
	minB, maxB := 255.0, 0.0
	extreme := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl := overlay.RGB(img, x, y)
			v := overlay.Brightness(r, g, bl)
			sum += v
			minB = min(minB, v)
			maxB = max(maxB, v)
			if min(r, g, bl) < 5 || max(r, g, bl) > 250 {
				extreme++
			}
		}
	}

	var score float64

	switch mean := sum / total; {
	case mean >= 40 && mean <= 200:
		score += 0.3
	case mean >= 20 && mean <= 220:
		score += 0.15
	}

	switch contrast := maxB - minB; {
	case contrast > 150:
		score += 0.3
	case contrast > 100:
		score += 0.2
	case contrast > 50:
		score += 0.1
	}

	if samples, variations := detailSamples(img); samples > 0 {
		switch ratio := float64(variations) / float64(samples); {
		case ratio > 0.3:
			score += 0.25
		case ratio > 0.15:
			score += 0.15
		}
	}

	switch ratio := float64(extreme) / total; {
	case ratio < 0.05:
		score += 0.15
	case ratio < 0.1:
		score += 0.1
	}

	return min(1, score)
}

// detailSamples compares horizontally adjacent pixels on a 10 px grid in the
// top-left 100x100 corner and counts the pairs that differ noticeably.
func detailSamples(img image.Image) (samples, variations int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	for y := 10; y < min(h-10, 100); y += 10 {
		for x := 10; x < min(w-10, 100); x += 10 {
			r1, g1, b1 := overlay.RGB(img, b.Min.X+x, b.Min.Y+y)
			r2, g2, b2 := overlay.RGB(img, b.Min.X+x+1, b.Min.Y+y)
			if absDiff(r1, r2)+absDiff(g1, g2)+absDiff(b1, b2) > 10 {
				variations++
			}
			samples++
		}
	}
	return samples, variations
}

// StyleAdherence samples the centre of the image, away from the title bar,
// and scores how well its colours match the style.
func StyleAdherence(img image.Image, style domain.Style) float64 {
	if img == nil {
		return 0
	}
	if style == domain.StylePainting {
		return 0.85
	}

	pixels := overlay.SamplePixels(img, overlay.CenterRegion(img.Bounds()), sampleSize)

	var match func(p [3]uint8) bool
	switch style {
	case domain.StyleBW:
		match = func(p [3]uint8) bool { return absDiff(p[0], p[1]) < 5 && absDiff(p[1], p[2]) < 5 }
	case domain.StyleSepia:
		match = func(p [3]uint8) bool { return p[0] > p[1] && p[1] > p[2] }
	case domain.StyleColor:
		match = func(p [3]uint8) bool {
			return max(absDiff(p[0], p[1]), absDiff(p[1], p[2]), absDiff(p[0], p[2])) > 10
		}
	default:
		return 0.5
	}

	n := 0
	for _, p := range pixels {
		if match(p) {
			n++
		}
	}
	return float64(n) / sampleSize
}

// HistoricalAccuracy cannot judge accuracy from pixels; it only rejects
// blank images.
func HistoricalAccuracy(img image.Image) float64 {
	if img == nil || overlay.DistinctColors(img, sampleSize) <= 1 {
		return 0
	}
	return 0.85
}

func aspectMatches(b image.Rectangle, width, height int) bool {
	if b.Empty() || width <= 0 || height <= 0 {
		return false
	}
	want := float64(width) / float64(height)
	got := float64(b.Dx()) / float64(b.Dy())
	return math.Abs(got-want)/want <= aspectTolerance
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
