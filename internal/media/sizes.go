package media

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leca/dt-serving-urls/internal/model"
	"github.com/leca/dt-serving-urls/internal/variant"
)

// ErrUnknownSize is returned when a named size is not registered.
var ErrUnknownSize = errors.New("unknown image size")

// Full is the size name for the original dimensions of an image.
const Full = "full"

// Size is a requested size: either a registered name or an explicit box.
type Size struct {
	Name   string
	Width  int
	Height int
}

// Named returns a Size referring to a registered size.
func Named(name string) Size { return Size{Name: name} }

// Box returns an explicit, uncropped Size.
func Box(width, height int) Size { return Size{Width: width, Height: height} }

func (s Size) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Sizes is a registry of named sizes.
type Sizes struct {
	specs   map[string]model.SizeSpec
	aliases map[string]string
}

// DefaultSizes returns the built-in registry.
func DefaultSizes() *Sizes {
	return &Sizes{
		specs: map[string]model.SizeSpec{
			"thumbnail":    {Width: 150, Height: 150, Crop: true},
			"medium":       {Width: 300, Height: 300},
			"medium_large": {Width: 768},
			"large":        {Width: 1024, Height: 1024},
		},
		aliases: map[string]string{"thumb": "thumbnail"},
	}
}

// sizeFile is the YAML layout of a sizes file:
//
//	sizes:
//	  hero: {width: 1920, height: 800, crop: true}
//	aliases:
//	  banner: hero
type sizeFile struct {
	Sizes map[string]struct {
		Width   int  `yaml:"width"`
		Height  int  `yaml:"height"`
		Crop    bool `yaml:"crop"`
		Quality int  `yaml:"quality"`
	} `yaml:"sizes"`
	Aliases map[string]string `yaml:"aliases"`
}

// LoadSizes returns the default registry extended with the sizes in path.
// An empty path returns the defaults.
func LoadSizes(path string) (*Sizes, error) {
	s := DefaultSizes()
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sizes file: %w", err)
	}
	var f sizeFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse sizes file: %w", err)
	}
	for name, v := range f.Sizes {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || name == Full {
			return nil, fmt.Errorf("sizes file: invalid size name %q", name)
		}
		s.specs[name] = model.SizeSpec{Width: v.Width, Height: v.Height, Crop: v.Crop, Quality: v.Quality}
	}
	for alias, target := range f.Aliases {
		s.aliases[strings.ToLower(alias)] = strings.ToLower(target)
	}
	for alias, target := range s.aliases {
		if _, ok := s.specs[alias]; ok {
			return nil, fmt.Errorf("sizes file: alias %q collides with a size of the same name", alias)
		}
		if _, ok := s.specs[target]; !ok {
			return nil, fmt.Errorf("sizes file: alias %q points at unknown size %q", alias, target)
		}
	}
	return s, nil
}

// Lookup returns the spec registered under name. The "full" size is not
// registered; callers handle it against the intrinsic dimensions.
func (s *Sizes) Lookup(name string) (model.SizeSpec, error) {
	name = strings.ToLower(name)
	if target, ok := s.aliases[name]; ok {
		name = target
	}
	spec, ok := s.specs[name]
	if !ok {
		return model.SizeSpec{}, fmt.Errorf("%w: %q", ErrUnknownSize, name)
	}
	return spec, nil
}

// Entry is a registered size as listed by Sizes.All.
type Entry struct {
	Name string `json:"name"`
	model.SizeSpec
}

// All lists the registered sizes sorted by name, "full" excluded.
func (s *Sizes) All() []Entry {
	out := make([]Entry, 0, len(s.specs))
	for name, spec := range s.specs {
		out = append(out, Entry{Name: name, SizeSpec: spec})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Spec resolves size against the registry and the item's intrinsic dimensions.
func (s *Sizes) Spec(size Size, intrinsic model.Dimensions) (model.SizeSpec, error) {
	switch {
	case strings.EqualFold(size.Name, Full):
		return variant.FullSize(intrinsic), nil
	case size.Name != "":
		return s.Lookup(size.Name)
	default:
		return model.SizeSpec{Width: size.Width, Height: size.Height}, nil
	}
}
