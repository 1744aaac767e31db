package overlay

import (
	"image"
	"image/color"
)

// BarRegionRatio is the share of the image height scanned for the title bar.
const BarRegionRatio = 0.15

// rgb8 returns the 8-bit channels of c with alpha ignored.
func rgb8(c color.Color) (r, g, b uint8) {
	rr, gg, bb, _ := c.RGBA()
	return uint8(rr >> 8), uint8(gg >> 8), uint8(bb >> 8)
}

// RGB returns the 8-bit channels of the pixel at (x, y).
func RGB(img image.Image, x, y int) (r, g, b uint8) {
	return rgb8(img.At(x, y))
}

// Brightness is the unweighted channel mean of a pixel, 0..255.
func Brightness(r, g, b uint8) float64 {
	return (float64(r) + float64(g) + float64(b)) / 3
}

// Gray is the ITU-R 601 luminance of a pixel, truncated to an integer.
func Gray(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b)) / 1000)
}

// MeanBrightness averages Brightness over rect clipped to the image bounds.
// It returns 0 for an empty region.
func MeanBrightness(img image.Image, rect image.Rectangle) float64 {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return 0
	}
	var sum float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			sum += Brightness(RGB(img, x, y))
		}
	}
	return sum / float64(rect.Dx()*rect.Dy())
}

// BottomRegion is the bottom BarRegionRatio of the image, where the title
// bar is drawn.
func BottomRegion(bounds image.Rectangle) image.Rectangle {
	top := bounds.Min.Y + int(float64(bounds.Dy())*(1-BarRegionRatio))
	return image.Rect(bounds.Min.X, top, bounds.Max.X, bounds.Max.Y)
}

// TopRegion is the top BarRegionRatio of the image.
func TopRegion(bounds image.Rectangle) image.Rectangle {
	bottom := bounds.Min.Y + int(float64(bounds.Dy())*BarRegionRatio)
	return image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bottom)
}

// CenterRegion is the middle half of the image in both directions.
func CenterRegion(bounds image.Rectangle) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	return image.Rect(
		bounds.Min.X+w/4, bounds.Min.Y+h/4,
		bounds.Min.X+3*w/4, bounds.Min.Y+int(float64(h)*0.75),
	)
}

// SamplePixels returns up to n pixels of rect in row-major order.
func SamplePixels(img image.Image, rect image.Rectangle, n int) [][3]uint8 {
	rect = rect.Intersect(img.Bounds())
	out := make([][3]uint8, 0, n)
	for y := rect.Min.Y; y < rect.Max.Y && len(out) < n; y++ {
		for x := rect.Min.X; x < rect.Max.X && len(out) < n; x++ {
			r, g, b := RGB(img, x, y)
			out = append(out, [3]uint8{r, g, b})
		}
	}
	return out
}

// DistinctColors counts distinct colours among the first n pixels.
func DistinctColors(img image.Image, n int) int {
	seen := make(map[[3]uint8]struct{}, n)
	for _, p := range SamplePixels(img, img.Bounds(), n) {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// IsOpaque reports whether every pixel of img is fully opaque.
func IsOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}

// Validate reports whether img appears to carry a title bar: the bottom
// region must be dark, and either the top region is dark as well or the
// bottom is clearly darker than the top.
func Validate(img image.Image) bool {
	if img == nil || img.Bounds().Empty() {
		return false
	}
	bounds := img.Bounds()

	bottom := MeanBrightness(img, BottomRegion(bounds))
	if bottom >= 100 {
		return false
	}

	top := MeanBrightness(img, TopRegion(bounds))
	if top < 100 {
		return true
	}
	return bottom < top*0.8
}
