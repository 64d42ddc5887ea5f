package commands

import (
	"github.com/spf13/cobra"

	"github.com/gogpu/sod"
)

func newBlurCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blur INPUT OUTPUT",
		Short: "Gaussian blur",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			radius := a.v.GetInt("blur.radius")
			sigma := a.v.GetFloat64("blur.sigma")
			return a.process(cmd, args[0], args[1], func(img *sod.Image) (*sod.Image, error) {
				return img.Blur(radius, sigma, sod.InPlace())
			})
		},
	}
	cmd.Flags().Int("radius", 5, "kernel radius in pixels")
	cmd.Flags().Float64("sigma", 1.9, "standard deviation")
	a.bind("blur", cmd.Flags())
	return cmd
}

func newGrayCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "gray INPUT OUTPUT",
		Aliases: []string{"grayscale"},
		Short:   "Convert to single-channel luminance",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.process(cmd, args[0], args[1], func(img *sod.Image) (*sod.Image, error) {
				return img.Grayscale(sod.InPlace())
			})
		},
	}
}

func newEdgesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edges INPUT OUTPUT",
		Short: "Canny edge map",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reduce := a.v.GetBool("edges.reduce-noise")
			return a.process(cmd, args[0], args[1], func(img *sod.Image) (*sod.Image, error) {
				return img.EdgeDetect(reduce, sod.InPlace())
			})
		},
	}
	cmd.Flags().Bool("reduce-noise", true, "blur before detecting edges")
	a.bind("edges", cmd.Flags())
	return cmd
}

func newThresholdCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threshold INPUT OUTPUT",
		Short: "Binarize values above a threshold",
		Long: `threshold sets values above --value to 1 and all others to 0.
With --channel only that channel is kept and the output has one channel.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := float32(a.v.GetFloat64("threshold.value"))
			channel := a.v.GetInt("threshold.channel")
			return a.process(cmd, args[0], args[1], func(img *sod.Image) (*sod.Image, error) {
				if channel >= 0 {
					return img.ThresholdChannel(channel, value, sod.InPlace())
				}
				return img.Threshold(value, sod.InPlace())
			})
		},
	}
	cmd.Flags().Float64("value", 0.5, "threshold")
	cmd.Flags().Int("channel", -1, "only threshold this channel (-1 for all)")
	a.bind("threshold", cmd.Flags())
	return cmd
}

func newDesaturateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "desaturate INPUT OUTPUT",
		Short: "Scale color saturation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ratio := a.v.GetFloat64("desaturate.ratio")
			return a.process(cmd, args[0], args[1], func(img *sod.Image) (*sod.Image, error) {
				return img.Desaturate(ratio, sod.InPlace())
			})
		},
	}
	cmd.Flags().Float64("ratio", 0, "saturation factor in [0, 1]")
	a.bind("desaturate", cmd.Flags())
	return cmd
}

func newCropCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crop INPUT OUTPUT",
		Short: "Cut out a rectangle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, y := a.v.GetInt("crop.x"), a.v.GetInt("crop.y")
			w, h := a.v.GetInt("crop.width"), a.v.GetInt("crop.height")
			return a.process(cmd, args[0], args[1], func(img *sod.Image) (*sod.Image, error) {
				if w == 0 {
					w = img.Width() - x
				}
				if h == 0 {
					h = img.Height() - y
				}
				return img.Crop(x, y, w, h)
			})
		},
	}
	cmd.Flags().Int("x", 0, "left edge")
	cmd.Flags().Int("y", 0, "top edge")
	cmd.Flags().Int("width", 0, "width (0 to the right border)")
	cmd.Flags().Int("height", 0, "height (0 to the bottom border)")
	a.bind("crop", cmd.Flags())
	return cmd
}

func newResizeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resize INPUT OUTPUT",
		Short: "Bilinear resize",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, h := a.v.GetInt("resize.width"), a.v.GetInt("resize.height")
			return a.process(cmd, args[0], args[1], func(img *sod.Image) (*sod.Image, error) {
				switch {
				case w == 0 && h > 0:
					w = max(1, img.Width()*h/img.Height())
				case h == 0 && w > 0:
					h = max(1, img.Height()*w/img.Width())
				}
				return img.Resize(w, h, sod.InPlace())
			})
		},
	}
	cmd.Flags().Int("width", 0, "target width (0 keeps the aspect ratio)")
	cmd.Flags().Int("height", 0, "target height (0 keeps the aspect ratio)")
	a.bind("resize", cmd.Flags())
	return cmd
}

func newHSVCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hsv INPUT OUTPUT",
		Short: "Store HSV components in the RGB channels",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inverse := a.v.GetBool("hsv.inverse")
			return a.process(cmd, args[0], args[1], func(img *sod.Image) (*sod.Image, error) {
				if inverse {
					return img.ToRGB(sod.InPlace())
				}
				return img.ToHSV(sod.InPlace())
			})
		},
	}
	cmd.Flags().Bool("inverse", false, "convert HSV back to RGB")
	a.bind("hsv", cmd.Flags())
	return cmd
}
