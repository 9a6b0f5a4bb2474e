package variant

import (
	"math"

	"github.com/leca/dt-serving-urls/internal/model"
)

// Constrain fits src into box. A zero box axis is unbounded.
//
// Without crop the aspect ratio is preserved: scale = min(boxW/srcW, boxH/srcH),
// clamped to 1 unless stretch, and each side is rounded half away from zero with
// a minimum of 1. With crop each bounded axis is cut to the box independently.
// A box the source already fits in returns src unchanged.
func Constrain(src, box model.Dimensions, crop, stretch bool) model.Dimensions {
	if box.Width <= 0 && box.Height <= 0 {
		return src
	}
	if src.Width <= 0 || src.Height <= 0 {
		return src
	}

	if crop {
		return cropTo(src, box, stretch)
	}

	scale := math.Inf(1)
	if box.Width > 0 {
		scale = math.Min(scale, float64(box.Width)/float64(src.Width))
	}
	if box.Height > 0 {
		scale = math.Min(scale, float64(box.Height)/float64(src.Height))
	}
	if !stretch && scale >= 1 {
		return src
	}

	return model.Dimensions{
		Width:  max(1, int(math.Round(float64(src.Width)*scale))),
		Height: max(1, int(math.Round(float64(src.Height)*scale))),
	}
}

func cropTo(src, box model.Dimensions, stretch bool) model.Dimensions {
	out := src
	if box.Width > 0 && (stretch || box.Width < src.Width) {
		out.Width = box.Width
	}
	if box.Height > 0 && (stretch || box.Height < src.Height) {
		out.Height = box.Height
	}
	return out
}
