package variant

import (
	"math"

	"github.com/leca/dt-serving-urls/internal/model"
)

// Ratios is the density ladder used for srcset candidates, ascending.
var Ratios = []float64{0.25, 0.5, 1, 2}

// FullSize returns the target spec for the "full" size of an image.
func FullSize(intrinsic model.Dimensions) model.SizeSpec {
	return model.SizeSpec{Width: intrinsic.Width, Height: intrinsic.Height}
}

// Generator produces srcset candidates from a base serving URL.
type Generator struct {
	Builder Builder
}

// Generate returns one candidate per ratio, in ratio order. Each candidate
// box is ceil(target*ratio) constrained against the intrinsic size.
func (g Generator) Generate(baseURL string, intrinsic model.Dimensions, target model.SizeSpec) model.Srcset {
	out := make(model.Srcset, 0, len(Ratios))
	for _, r := range Ratios {
		raw := model.Dimensions{
			Width:  int(math.Ceil(float64(target.Width) * r)),
			Height: int(math.Ceil(float64(target.Height) * r)),
		}
		dims := Constrain(intrinsic, raw, target.Crop, target.Stretch)
		url := g.Builder.Build(baseURL, model.SizeSpec{
			Width:   dims.Width,
			Height:  dims.Height,
			Crop:    target.Crop,
			Quality: target.Quality,
			Stretch: target.Stretch,
		})
		out = append(out, model.Candidate{URL: url, Width: dims.Width})
	}
	return out
}
