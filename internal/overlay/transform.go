package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/phrazzld/portrait-generator/internal/domain"
)

// Tone transform defaults.
const (
	DefaultBWContrast     = 1.2
	DefaultSepiaIntensity = 1.0
)

// Sepia channel gains applied to the grayscale value.
const (
	sepiaRed   = 0.393 + 0.769 + 0.189
	sepiaGreen = 0.349 + 0.686 + 0.168
	sepiaBlue  = 0.272 + 0.534 + 0.131
)

// ToRGBA copies img into a new opaque RGBA image anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bb := RGB(img, b.Min.X+x, b.Min.Y+y)
			dst.SetRGBA(x, y, color.RGBA{R: r, G: g, B: bb, A: 255})
		}
	}
	return dst
}

// ToBW converts img to grayscale and stretches contrast by factor around
// the mean gray level. A factor of 1 leaves contrast unchanged.
func ToBW(img image.Image, contrast float64) (*image.RGBA, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	if contrast < 0 {
		return nil, fmt.Errorf("%w: contrast must be >= 0", ErrInvalidTransform)
	}

	dst := ToRGBA(img)
	b := dst.Bounds()
	gray := make([]uint8, b.Dx()*b.Dy())

	var sum float64
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := Gray(RGB(dst, x, y))
			gray[y*b.Dx()+x] = v
			sum += float64(v)
		}
	}
	mean := 0.0
	if len(gray) > 0 {
		mean = math.Round(sum / float64(len(gray)))
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := float64(gray[y*b.Dx()+x])
			if contrast != 1 {
				v = mean + (v-mean)*contrast
			}
			c := clamp(v)
			dst.SetRGBA(x, y, color.RGBA{R: c, G: c, B: c, A: 255})
		}
	}
	return dst, nil
}

// ToSepia converts img to sepia. Intensity 0 yields plain grayscale and 1
// full sepia; values in between blend linearly.
func ToSepia(img image.Image, intensity float64) (*image.RGBA, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	if intensity < 0 || intensity > 1 {
		return nil, fmt.Errorf("%w: intensity must be between 0 and 1", ErrInvalidTransform)
	}

	dst := ToRGBA(img)
	b := dst.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			gray := float64(Gray(RGB(dst, x, y)))
			r := math.Min(255, math.Floor(sepiaRed*gray))
			g := math.Min(255, math.Floor(sepiaGreen*gray))
			bl := math.Min(255, math.Floor(sepiaBlue*gray))
			if intensity < 1 {
				r = gray + (r-gray)*intensity
				g = gray + (g-gray)*intensity
				bl = gray + (bl-gray)*intensity
			}
			dst.SetRGBA(x, y, color.RGBA{R: clamp(r), G: clamp(g), B: clamp(bl), A: 255})
		}
	}
	return dst, nil
}

// ApplyStyle runs the tone transform a style calls for. Styles without one
// are returned as an opaque copy.
func ApplyStyle(img image.Image, style domain.Style) (*image.RGBA, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	switch style {
	case domain.StyleBW:
		return ToBW(img, DefaultBWContrast)
	case domain.StyleSepia:
		return ToSepia(img, DefaultSepiaIntensity)
	default:
		return ToRGBA(img), nil
	}
}

func clamp(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
