// Package media is the host-facing side of the serving URL pipeline: it turns
// a media item and a requested size into variant URLs and srcsets, and
// revokes serving URLs when attachments are deleted.
package media

import (
	"context"
	"log/slog"

	"github.com/leca/dt-serving-urls/internal/model"
	"github.com/leca/dt-serving-urls/internal/resolver"
	"github.com/leca/dt-serving-urls/internal/variant"
)

// Resolver is the part of resolver.Resolver the pipeline depends on.
type Resolver interface {
	Resolve(ctx context.Context, item model.MediaItem) (string, error)
	Invalidate(ctx context.Context, item model.MediaItem) error
}

var _ Resolver = (*resolver.Resolver)(nil)

type Pipeline struct {
	resolver Resolver
	builder  variant.Builder
	sizes    *Sizes
	log      *slog.Logger
}

// NewPipeline creates a Pipeline. A nil sizes uses DefaultSizes and a nil
// logger uses slog.Default.
func NewPipeline(r Resolver, b variant.Builder, sizes *Sizes, log *slog.Logger) *Pipeline {
	if sizes == nil {
		sizes = DefaultSizes()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{resolver: r, builder: b, sizes: sizes, log: log}
}

// Sizes returns the registry the pipeline resolves size names against.
func (p *Pipeline) Sizes() *Sizes { return p.sizes }

// Downsize computes the variant of item at size. Errors wrap ErrUnknownSize,
// variant.ErrInvalidSizeSpec or one of the resolver fallback errors.
func (p *Pipeline) Downsize(ctx context.Context, item model.MediaItem, size Size) (model.Downsize, error) {
	spec, err := p.target(item, size)
	if err != nil {
		return model.Downsize{}, err
	}
	base, err := p.resolver.Resolve(ctx, item)
	if err != nil {
		return model.Downsize{}, err
	}

	intrinsic := item.Intrinsic()
	dims := variant.Constrain(intrinsic, spec.Box(), spec.Crop, spec.Stretch)
	if dims == intrinsic {
		return model.Downsize{
			URL:    p.builder.Build(base, model.SizeSpec{}),
			Width:  intrinsic.Width,
			Height: intrinsic.Height,
		}, nil
	}

	return model.Downsize{
		URL: p.builder.Build(base, model.SizeSpec{
			Width:   dims.Width,
			Height:  dims.Height,
			Crop:    spec.Crop,
			Quality: spec.Quality,
			Stretch: spec.Stretch,
		}),
		Width:        dims.Width,
		Height:       dims.Height,
		Intermediate: true,
	}, nil
}

// ResolveDownsize is Downsize for hosts that only need to know whether to
// fall back to their native pipeline: ok is false whenever no variant URL
// could be produced.
func (p *Pipeline) ResolveDownsize(ctx context.Context, item model.MediaItem, size Size) (model.Downsize, bool) {
	d, err := p.Downsize(ctx, item, size)
	if err != nil {
		p.logFallback("downsize", item, size, err)
		return model.Downsize{}, false
	}
	return d, true
}

// Srcset computes the srcset candidates of item at size.
func (p *Pipeline) Srcset(ctx context.Context, item model.MediaItem, size Size) (model.Srcset, error) {
	spec, err := p.target(item, size)
	if err != nil {
		return nil, err
	}
	base, err := p.resolver.Resolve(ctx, item)
	if err != nil {
		return nil, err
	}
	return variant.Generator{Builder: p.builder}.Generate(base, item.Intrinsic(), spec), nil
}

// BuildSrcset is Srcset with the same fallback contract as ResolveDownsize.
func (p *Pipeline) BuildSrcset(ctx context.Context, item model.MediaItem, size Size) (model.Srcset, bool) {
	s, err := p.Srcset(ctx, item, size)
	if err != nil {
		p.logFallback("srcset", item, size, err)
		return nil, false
	}
	return s, true
}

// OnAttachmentDeleted revokes the serving URL of a deleted item. Failures are
// logged and never block the deletion.
func (p *Pipeline) OnAttachmentDeleted(ctx context.Context, item model.MediaItem) {
	if err := p.resolver.Invalidate(ctx, item); err != nil {
		p.log.Warn("serving url invalidation failed", "media_id", item.ID, "path", item.Path, "error", err)
	}
}

func (p *Pipeline) target(item model.MediaItem, size Size) (model.SizeSpec, error) {
	spec, err := p.sizes.Spec(size, item.Intrinsic())
	if err != nil {
		return model.SizeSpec{}, err
	}
	if err := variant.Validate(spec); err != nil {
		return model.SizeSpec{}, err
	}
	return spec, nil
}

func (p *Pipeline) logFallback(op string, item model.MediaItem, size Size, err error) {
	if resolver.IsFallback(err) {
		p.log.Debug("using native image pipeline", "op", op, "media_id", item.ID, "size", size.String(), "reason", err)
		return
	}
	p.log.Warn("variant url failed", "op", op, "media_id", item.ID, "size", size.String(), "error", err)
}
