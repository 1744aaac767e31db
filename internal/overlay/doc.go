// Package overlay post-processes generated portraits.
//
// It converts images to black and white or sepia, draws the title bar with
// the subject's name and life span, checks that a bar is present, and
// exposes the pixel statistics the evaluator scores images with. All
// outputs are opaque *image.RGBA values.
package overlay
