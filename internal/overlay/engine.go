package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Title bar defaults.
const (
	DefaultBarOpacity     = 0.65
	DefaultBarHeightRatio = 0.15

	minNameFontSize  = 12
	minYearsFontSize = 10
	nameYearsGap     = 5
)

var (
	nameColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	yearsColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// Options controls the title bar geometry.
type Options struct {
	BarOpacity     float64
	BarHeightRatio float64
}

// DefaultOptions returns the standard title bar settings.
func DefaultOptions() Options {
	return Options{BarOpacity: DefaultBarOpacity, BarHeightRatio: DefaultBarHeightRatio}
}

// Engine draws title bars. It is safe for concurrent use.
type Engine struct {
	nameFont  *opentype.Font
	yearsFont *opentype.Font
	logger    *slog.Logger
}

// NewEngine loads the embedded Go fonts.
func NewEngine(logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse name font: %w", err)
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse years font: %w", err)
	}

	return &Engine{
		nameFont:  bold,
		yearsFont: regular,
		logger:    logger.With("component", "overlay"),
	}, nil
}

// FontSizes returns the name and years font sizes for an image height:
// the name is 40% of the bar height (at least 12) and the years 70% of
// the name (at least 10).
func FontSizes(imageHeight int, barHeightRatio float64) (name, years int, err error) {
	if imageHeight <= 0 {
		return 0, 0, fmt.Errorf("%w: image height must be positive", ErrInvalidOverlay)
	}
	if barHeightRatio <= 0 || barHeightRatio >= 1 {
		return 0, 0, fmt.Errorf("%w: bar height ratio must be between 0 and 1", ErrInvalidOverlay)
	}

	barHeight := int(float64(imageHeight) * barHeightRatio)
	name = max(minNameFontSize, int(float64(barHeight)*0.4))
	years = max(minYearsFontSize, int(float64(name)*0.7))
	return name, years, nil
}

// Apply draws a translucent black bar across the bottom of img with name
// and years centred on it. The input is not modified.
func (e *Engine) Apply(img image.Image, name, years string, opts Options) (*image.RGBA, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidOverlay)
	}
	if strings.TrimSpace(years) == "" {
		return nil, fmt.Errorf("%w: years cannot be empty", ErrInvalidOverlay)
	}
	if opts.BarOpacity < 0 || opts.BarOpacity > 1 {
		return nil, fmt.Errorf("%w: bar opacity must be between 0 and 1", ErrInvalidOverlay)
	}

	dst := ToRGBA(img)
	width, height := dst.Bounds().Dx(), dst.Bounds().Dy()

	nameSize, yearsSize, err := FontSizes(height, opts.BarHeightRatio)
	if err != nil {
		return nil, err
	}

	barHeight := int(float64(height) * opts.BarHeightRatio)
	barTop := height - barHeight
	bar := image.NewUniform(color.NRGBA{A: uint8(255 * opts.BarOpacity)})
	draw.Draw(dst, image.Rect(0, barTop, width, height), bar, image.Point{}, draw.Over)

	nameFace, err := e.face(e.nameFont, nameSize)
	if err != nil {
		return nil, err
	}
	defer func() { _ = nameFace.Close() }()

	yearsFace, err := e.face(e.yearsFont, yearsSize)
	if err != nil {
		return nil, err
	}
	defer func() { _ = yearsFace.Close() }()

	nameTop := barTop + int(float64(barHeight)*0.25)
	nameHeight := drawCentered(dst, nameFace, name, nameColor, nameTop)
	drawCentered(dst, yearsFace, years, yearsColor, nameTop+nameHeight+nameYearsGap)

	e.logger.Debug("overlay applied",
		"name", name,
		"years", years,
		"width", width,
		"height", height,
		"name_font_size", nameSize)
	return dst, nil
}

func (e *Engine) face(f *opentype.Font, size int) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// drawCentered draws text horizontally centred with its ink top at top and
// returns the ink height.
func drawCentered(dst draw.Image, face font.Face, text string, c color.Color, top int) int {
	bounds, advance := font.BoundString(face, text)
	inkHeight := (bounds.Max.Y - bounds.Min.Y).Ceil()

	x := (dst.Bounds().Dx() - advance.Ceil()) / 2
	baseline := top - bounds.Min.Y.Floor()

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
	return inkHeight
}
