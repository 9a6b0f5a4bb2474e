package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/leca/dt-serving-urls/internal/cache"
	"github.com/leca/dt-serving-urls/internal/config"
	"github.com/leca/dt-serving-urls/internal/database"
	"github.com/leca/dt-serving-urls/internal/media"
	"github.com/leca/dt-serving-urls/internal/model"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func TestVariantCommand(t *testing.T) {
	require.NoError(t, variantCmd.ParseFlags([]string{"--width=300", "--height=225"}))

	out, err := run(t, variantCmd, "https://lh3.example.com/abc")
	require.NoError(t, err)
	assert.Equal(t, "https://lh3.example.com/abc=w300-h225-nu\n", out)
}

func TestSrcsetCommand(t *testing.T) {
	t.Setenv("DT_CROP_TOKEN", "c")
	require.NoError(t, srcsetCmd.ParseFlags([]string{"--intrinsic=1600x1200", "--size=thumbnail"}))

	out, err := run(t, srcsetCmd, "https://lh3.example.com/abc")
	require.NoError(t, err)
	assert.Contains(t, out, "https://lh3.example.com/abc=w38-h38-c-nu 38w")
	assert.Contains(t, out, "https://lh3.example.com/abc=w300-h300-c-nu 300w")
}

func TestNewBuilderRejectsBadConfig(t *testing.T) {
	_, err := newBuilder(&config.Config{CropToken: "x"})
	assert.Error(t, err)

	_, err = newBuilder(&config.Config{CropToken: "p", Quality: 101})
	assert.Error(t, err)
}

func TestParseDimensions(t *testing.T) {
	d, err := parseDimensions("1600x1200")
	require.NoError(t, err)
	assert.Equal(t, model.Dimensions{Width: 1600, Height: 1200}, d)

	for _, bad := range []string{"", "1600", "ax1", "0x10", "10x-1"} {
		_, err := parseDimensions(bad)
		assert.Error(t, err, bad)
	}
}

func TestOpenCache(t *testing.T) {
	db, err := database.NewSQLiteDB("file:TestOpenCache?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	c, closer, err := openCache(ctx, &config.Config{CacheBackend: "sqlite"}, db)
	require.NoError(t, err)
	assert.IsType(t, &cache.Meta{}, c)
	assert.Nil(t, closer)

	c, closer, err = openCache(ctx, &config.Config{CacheBackend: "memory", MemoryCacheLife: time.Minute}, db)
	require.NoError(t, err)
	assert.IsType(t, &cache.Memory{}, c)
	require.NoError(t, closer.Close())

	_, _, err = openCache(ctx, &config.Config{CacheBackend: "memcached"}, db)
	assert.Error(t, err)
}

func TestNewPipelineDefaultsToFallback(t *testing.T) {
	db, err := database.NewSQLiteDB("file:TestNewPipeline?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	p, err := newPipeline(cache.NewMeta(db), &config.Config{CropToken: "p"}, db)
	require.NoError(t, err)

	_, ok := p.ResolveDownsize(context.Background(), model.MediaItem{
		ID: "1", MIMEType: "image/jpeg", Width: 10, Height: 10, Path: "gs://media/a.jpg",
	}, media.Named("medium"))
	assert.False(t, ok)
}

func TestLoadConfigBindsFlags(t *testing.T) {
	t.Setenv("DT_BUCKET", "env-bucket")
	t.Setenv("DT_LOOKUP_LISTEN_ADDR", ":7001")
	require.NoError(t, lookupdCmd.ParseFlags([]string{"--bucket=flag-bucket"}))

	cfg, err := loadConfig(lookupdCmd, lookupdFlags)
	require.NoError(t, err)
	assert.Equal(t, "flag-bucket", cfg.Bucket)
	assert.Equal(t, ":7001", cfg.LookupListenAddr, "unset flags leave the environment in charge")
}

func TestCommandsRejectMalformedEnv(t *testing.T) {
	t.Setenv("DT_QUALITY", "high")

	_, err := run(t, variantCmd, "https://lh3.example.com/abc")
	assert.Error(t, err)
}
