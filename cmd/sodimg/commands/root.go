// Package commands implements the sodimg command tree.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/sod"
	"github.com/gogpu/sod/backend"
	"github.com/gogpu/sod/backend/software"
	"github.com/gogpu/sod/native"
)

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// app carries the state shared by all subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	eng     native.Engine
	bindErr error
}

// NewRootCommand builds a fresh command tree with its own configuration.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "sodimg",
		Short: "Apply image operations through a sod pixel engine",
		Long: `sodimg loads an image, runs one operation on it and saves the result.

Every flag can also be set in a config file (sodimg.yaml in the working
directory, or --config) or through SODIMG_* environment variables, e.g.
SODIMG_ENGINE=software or SODIMG_BLUR_RADIUS=5.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.report,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./sodimg.yaml)")
	pf.String("engine", backend.BackendSoftware, "pixel engine ("+strings.Join(backend.Available(), ", ")+")")
	pf.Int("channels", 0, "channels to load (0 keeps the file's own count)")
	pf.Int("pool-size", software.DefaultPoolSize, "software engine: freed buffers kept per size")
	pf.Int("jpeg-quality", software.DefaultJPEGQuality, "software engine: JPEG quality (1-100)")
	pf.Int("workers", 1, "software engine: goroutines for blur, resize and edges")
	pf.Bool("stats", false, "print engine buffer statistics on exit")
	pf.BoolP("verbose", "v", false, "debug logging to stderr")
	a.bind("", pf)

	root.AddCommand(
		newBlurCommand(a),
		newGrayCommand(a),
		newEdgesCommand(a),
		newThresholdCommand(a),
		newDesaturateCommand(a),
		newCropCommand(a),
		newResizeCommand(a),
		newHSVCommand(a),
		newDemoCommand(a),
	)
	return root
}

// bind registers every flag of fs with viper under prefix.
func (a *app) bind(prefix string, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		key := f.Name
		if prefix != "" {
			key = prefix + "." + f.Name
		}
		a.bindFlag(key, f)
	})
}

// bindFlag binds one flag. Failures are kept and reported by setup, since
// the command tree is built before any command runs.
func (a *app) bindFlag(key string, f *pflag.Flag) {
	if err := a.v.BindPFlag(key, f); err != nil {
		a.bindErr = errors.Join(a.bindErr, fmt.Errorf("sodimg: bind flag %q: %w", key, err))
	}
}

// setup reads configuration, configures logging and opens the engine.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.bindErr != nil {
		return a.bindErr
	}
	if err := a.initConfig(); err != nil {
		return err
	}

	if a.v.GetBool("verbose") {
		sod.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	} else {
		sod.SetLogger(nil)
	}

	eng, err := a.openEngine()
	if err != nil {
		return err
	}
	a.eng = eng
	sod.SetEngine(eng)
	return nil
}

func (a *app) initConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName("sodimg")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix("SODIMG")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("sodimg: config: %w", err)
	}
	return nil
}

func (a *app) openEngine() (native.Engine, error) {
	name := a.v.GetString("engine")
	if name != backend.BackendSoftware {
		return backend.Open(name)
	}
	return software.New(
		software.WithPoolSize(a.v.GetInt("pool-size")),
		software.WithJPEGQuality(a.v.GetInt("jpeg-quality")),
		software.WithWorkers(a.v.GetInt("workers")),
		software.WithLogger(sod.Logger()),
	), nil
}

// statser is implemented by engines that keep allocation accounting.
type statser interface {
	Stats() software.Stats
}

// closer is implemented by engines that hold goroutines. Close must be
// safe to call more than once.
type closer interface {
	Close()
}

// closeEngine stops the engine's goroutines. Commands defer it themselves
// because cobra skips the post-run hook when a command fails.
func (a *app) closeEngine() {
	if c, ok := a.eng.(closer); ok {
		c.Close()
	}
}

func (a *app) report(cmd *cobra.Command, _ []string) {
	defer a.closeEngine()
	if !a.v.GetBool("stats") || a.eng == nil {
		return
	}
	s, ok := a.eng.(statser)
	if !ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "engine %s keeps no statistics\n", a.eng.Name())
		return
	}
	printStats(cmd.OutOrStdout(), a.eng.Name(), s.Stats())
}

func printStats(w io.Writer, name string, s software.Stats) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "engine %s: %d allocs, %d frees, %d live buffers (%d bytes)\n",
		name, s.Allocs, s.Frees, s.Live, s.LiveBytes)
}

// loadOptions returns the construction options for this invocation.
func (a *app) loadOptions() []sod.Option {
	return []sod.Option{sod.WithEngine(a.eng)}
}

// process loads in, applies fn and saves the result to out.
func (a *app) process(cmd *cobra.Command, in, out string, fn func(*sod.Image) (*sod.Image, error)) error {
	defer a.closeEngine()

	img, err := sod.Load(in, a.v.GetInt("channels"), a.loadOptions()...)
	if err != nil {
		return err
	}
	defer img.Close()

	res, err := fn(img)
	if err != nil {
		return err
	}
	if res != img {
		defer res.Close()
	}
	if err := res.Save(out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%dx%dx%d)\n",
		in, out, res.Width(), res.Height(), res.Channels())
	return nil
}
