package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gogpu/sod"
)

// newDemoCommand runs the reference pipeline: blur, constant image, slice
// and desaturate, each written next to the others.
func newDemoCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo INPUT",
		Short: "Run the reference pipeline on one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.closeEngine()
			dir := a.v.GetString("demo.out-dir")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			return a.demo(cmd, args[0], dir)
		},
	}
	cmd.Flags().String("out-dir", "images", "output directory")
	a.bind("demo", cmd.Flags())
	return cmd
}

func (a *app) demo(cmd *cobra.Command, in, dir string) error {
	opts := a.loadOptions()
	img, err := sod.Load(in, 3, opts...)
	if err != nil {
		return err
	}
	defer img.Close()

	steps := []struct {
		name string
		run  func() (*sod.Image, error)
	}{
		{"test_gaussian.png", func() (*sod.Image, error) { return img.Blur(5, 1.9) }},
		{"test_constant.png", func() (*sod.Image, error) {
			return sod.Constant(100, 100, 3, []float32{0.5, 0.5, 0.5}, opts...)
		}},
		{"test_slice.png", func() (*sod.Image, error) {
			return img.Select(sod.Spatial{Rows: sod.Span(100, 200), Cols: sod.Span(100, 200)})
		}},
		{"test_desaturated.png", func() (*sod.Image, error) { return img.Desaturate(0) }},
	}

	for _, step := range steps {
		out, err := step.run()
		if err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		path := filepath.Join(dir, step.name)
		err = out.Save(path)
		_ = out.Close()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}
