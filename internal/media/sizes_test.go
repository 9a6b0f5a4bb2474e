package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leca/dt-serving-urls/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSizesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sizes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultSizes(t *testing.T) {
	s := DefaultSizes()

	thumb, err := s.Lookup("thumb")
	require.NoError(t, err)
	assert.Equal(t, model.SizeSpec{Width: 150, Height: 150, Crop: true}, thumb)

	ml, err := s.Lookup("Medium_Large")
	require.NoError(t, err)
	assert.Equal(t, model.SizeSpec{Width: 768}, ml)

	_, err = s.Lookup("full")
	assert.ErrorIs(t, err, ErrUnknownSize)
}

func TestLoadSizesFromYAML(t *testing.T) {
	path := writeSizesFile(t, `
sizes:
  hero:
    width: 1920
    height: 800
    crop: true
    quality: 80
aliases:
  banner: hero
`)

	s, err := LoadSizes(path)
	require.NoError(t, err)

	hero, err := s.Lookup("banner")
	require.NoError(t, err)
	assert.Equal(t, model.SizeSpec{Width: 1920, Height: 800, Crop: true, Quality: 80}, hero)

	_, err = s.Lookup("medium")
	assert.NoError(t, err, "defaults survive")

	names := make([]string, 0)
	for _, e := range s.All() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"hero", "large", "medium", "medium_large", "thumbnail"}, names)
}

func TestLoadSizesErrors(t *testing.T) {
	_, err := LoadSizes(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadSizes(writeSizesFile(t, "sizes: [1, 2"))
	assert.Error(t, err)

	_, err = LoadSizes(writeSizesFile(t, "sizes:\n  full:\n    width: 10\n"))
	assert.Error(t, err)

	_, err = LoadSizes(writeSizesFile(t, "aliases:\n  banner: nowhere\n"))
	assert.Error(t, err)
}

func TestLoadSizesRejectsAliasShadowingSize(t *testing.T) {
	_, err := LoadSizes(writeSizesFile(t, "aliases:\n  medium: large\n"))
	assert.ErrorContains(t, err, `alias "medium"`)

	_, err = LoadSizes(writeSizesFile(t, "sizes:\n  thumb:\n    width: 64\n"))
	assert.ErrorContains(t, err, `alias "thumb"`)
}

func TestLoadSizesEmptyPath(t *testing.T) {
	s, err := LoadSizes("")
	require.NoError(t, err)
	assert.Len(t, s.All(), 4)
}
