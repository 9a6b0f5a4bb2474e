package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leca/dt-serving-urls/internal/media"
	"github.com/leca/dt-serving-urls/internal/model"
	"github.com/leca/dt-serving-urls/internal/variant"
	"github.com/spf13/cobra"
)

var variantCmd = &cobra.Command{
	Use:   "variant <base-url>",
	Short: "Prints the variant URL for a base serving URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		b, err := newBuilder(cfg)
		if err != nil {
			return err
		}
		spec := model.SizeSpec{}
		spec.Width, _ = cmd.Flags().GetInt("width")
		spec.Height, _ = cmd.Flags().GetInt("height")
		spec.Crop, _ = cmd.Flags().GetBool("crop")
		spec.Quality, _ = cmd.Flags().GetInt("quality")
		spec.Stretch, _ = cmd.Flags().GetBool("stretch")
		if err := variant.Validate(spec); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), b.Build(args[0], spec))
		return nil
	},
}

var srcsetFlags = map[string]string{"sizes_file": "sizes-file"}

var srcsetCmd = &cobra.Command{
	Use:   "srcset <base-url>",
	Short: "Prints the srcset for a base serving URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, srcsetFlags)
		if err != nil {
			return err
		}
		b, err := newBuilder(cfg)
		if err != nil {
			return err
		}
		sizes, err := media.LoadSizes(cfg.SizesFile)
		if err != nil {
			return err
		}

		raw, _ := cmd.Flags().GetString("intrinsic")
		intrinsic, err := parseDimensions(raw)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("size")
		spec, err := sizes.Spec(media.Named(name), intrinsic)
		if err != nil {
			return err
		}
		if err := variant.Validate(spec); err != nil {
			return err
		}

		s := variant.Generator{Builder: b}.Generate(args[0], intrinsic, spec)
		fmt.Fprintln(cmd.OutOrStdout(), s.String())
		return nil
	},
}

// parseDimensions parses "<width>x<height>".
func parseDimensions(s string) (model.Dimensions, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return model.Dimensions{}, fmt.Errorf("invalid dimensions %q: want <width>x<height>", s)
	}
	width, werr := strconv.Atoi(w)
	height, herr := strconv.Atoi(h)
	if werr != nil || herr != nil || width <= 0 || height <= 0 {
		return model.Dimensions{}, fmt.Errorf("invalid dimensions %q: want <width>x<height>", s)
	}
	return model.Dimensions{Width: width, Height: height}, nil
}

func init() {
	variantCmd.Flags().Int("width", 0, "target width in pixels")
	variantCmd.Flags().Int("height", 0, "target height in pixels")
	variantCmd.Flags().Bool("crop", false, "crop to the exact box")
	variantCmd.Flags().Int("quality", 0, "encoding quality 1-100")
	variantCmd.Flags().Bool("stretch", false, "allow upscaling")

	srcsetCmd.Flags().String("intrinsic", "", "original image size as <width>x<height>")
	srcsetCmd.Flags().String("size", media.Full, "named size")
	srcsetCmd.Flags().String("sizes-file", "", "YAML file with extra named sizes (overrides DT_SIZES_FILE)")
	_ = srcsetCmd.MarkFlagRequired("intrinsic")
}
