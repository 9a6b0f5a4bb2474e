// Package variant derives resized variant URLs and srcset candidates from a
// base serving URL. Nothing in this package performs I/O.
package variant

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/leca/dt-serving-urls/internal/model"
)

// CropToken is the provider token appended for cropped variants.
type CropToken string

const (
	// CropSmart asks the provider for a content-aware crop.
	CropSmart CropToken = "p"
	// CropCenter asks the provider for a plain centre crop.
	CropCenter CropToken = "c"
)

// ErrInvalidSizeSpec is returned when a size spec has conflicting or out-of-range fields.
var ErrInvalidSizeSpec = errors.New("invalid size spec")

// ParseCropToken validates a configured crop token. An empty string selects CropSmart.
func ParseCropToken(s string) (CropToken, error) {
	switch CropToken(s) {
	case "":
		return CropSmart, nil
	case CropSmart, CropCenter:
		return CropToken(s), nil
	default:
		return "", fmt.Errorf("unsupported crop token %q: must be p or c", s)
	}
}

// Validate rejects specs that cannot be expressed as provider tokens.
func Validate(spec model.SizeSpec) error {
	if spec.Width < 0 || spec.Height < 0 {
		return fmt.Errorf("%w: negative dimension %dx%d", ErrInvalidSizeSpec, spec.Width, spec.Height)
	}
	if spec.Quality < 0 || spec.Quality > 100 {
		return fmt.Errorf("%w: quality %d out of range 1-100", ErrInvalidSizeSpec, spec.Quality)
	}
	return nil
}

// Builder appends provider parameter tokens to a base serving URL.
type Builder struct {
	// CropToken is appended for crop requests. Empty means CropSmart.
	CropToken CropToken
	// Quality is used when the spec does not set one. Zero disables it.
	Quality int
}

// Build returns baseURL with the variant tokens for spec, e.g. "<base>=w100-h200-nu".
// Token order is fixed: size, crop, quality, no-upscale.
func (b Builder) Build(baseURL string, spec model.SizeSpec) string {
	tokens := make([]string, 0, 5)

	switch {
	case spec.Width > 0 && spec.Height > 0:
		tokens = append(tokens, "w"+strconv.Itoa(spec.Width), "h"+strconv.Itoa(spec.Height))
	case spec.Height > 0:
		tokens = append(tokens, "h"+strconv.Itoa(spec.Height))
	case spec.Width > 0:
		tokens = append(tokens, "w"+strconv.Itoa(spec.Width))
	default:
		tokens = append(tokens, "s0")
	}

	if spec.Crop {
		crop := b.CropToken
		if crop == "" {
			crop = CropSmart
		}
		tokens = append(tokens, string(crop))
	}

	if q := b.quality(spec); q > 0 {
		tokens = append(tokens, "l"+strconv.Itoa(q))
	}

	if !spec.Stretch {
		tokens = append(tokens, "nu")
	}

	return baseURL + "=" + strings.Join(tokens, "-")
}

func (b Builder) quality(spec model.SizeSpec) int {
	if spec.Quality >= 1 && spec.Quality <= 100 {
		return spec.Quality
	}
	if b.Quality >= 1 && b.Quality <= 100 {
		return b.Quality
	}
	return 0
}
