package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/scripthost/config"
	"github.com/milk9111/scripthost/trace"
	"github.com/milk9111/scripthost/watch"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	scriptsDir string
	watchFlag  bool
	verbose    bool

	// run/window flags
	frames     uint64
	unpaced    bool
	profileOut string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scripthost",
	Short: "Host scripts on a frame loop",
	Long: `scripthost attaches scripts to entities and drives their Start and
Update hooks once per frame.

Scripts are native Go types, Tengo sources (*.tengo) or Go sources (*.go)
loaded from --scripts. With --watch, changed sources are reloaded between
frames.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg = zap.NewDevelopmentConfig()
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the frame loop without a window",
	Args:  cobra.NoArgs,
	RunE:  runHeadless,
}

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Run the frame loop in an ebiten window with a trace overlay",
	Args:  cobra.NoArgs,
	RunE:  runWindow,
}

var invokeCmd = &cobra.Command{
	Use:   "invoke [type.method] [args...]",
	Short: "Invoke a static command by name",
	Long: `Invokes a registered static command, for example:

  scripthost invoke ManagedScripts.Greeter.SayHello World`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInvoke,
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List script types and commands",
	Args:  cobra.NoArgs,
	RunE:  listTypes,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "engine configuration file (yaml)")
	rootCmd.PersistentFlags().StringVarP(&scriptsDir, "scripts", "s", "", "script directory (overrides scripts_dir)")
	rootCmd.PersistentFlags().BoolVarP(&watchFlag, "watch", "w", false, "reload scripts when they change on disk")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	for _, cmd := range []*cobra.Command{runCmd, windowCmd} {
		cmd.Flags().Uint64Var(&frames, "frames", 0, "stop after this many frames (overrides frames)")
	}
	runCmd.Flags().BoolVar(&unpaced, "unpaced", false, "run frames back to back instead of at tps")
	runCmd.Flags().StringVar(&profileOut, "profile", "", "write a cpu or mem profile to the current directory")

	rootCmd.AddCommand(runCmd, windowCmd, invokeCmd, typesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
	}
	if scriptsDir != "" {
		cfg.ScriptsDir = scriptsDir
	}
	if watchFlag {
		cfg.Watch = true
	}
	if f := cmd.Flags().Lookup("frames"); f != nil && f.Changed {
		cfg.Frames = frames
	}
	return cfg, cfg.Validate()
}

func runHeadless(cmd *cobra.Command, args []string) error {
	switch profileOut {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile %q, want cpu or mem", profileOut)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	e, err := NewEngine(cfg, trace.NewWriter(os.Stdout), logger)
	if err != nil {
		return err
	}
	defer e.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("engine running", zap.Int("tps", cfg.TPS), zap.Uint64("frames", cfg.Frames), zap.Bool("unpaced", unpaced))
	if err := RunHeadless(ctx, e, unpaced); err != nil {
		return err
	}
	logger.Info("engine stopped", zap.Uint64("frames", e.Host.Frame()))
	return nil
}

func runWindow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	recent := trace.NewRing(32)
	e, err := NewEngine(cfg, trace.Tee{trace.NewWriter(os.Stdout), recent}, logger)
	if err != nil {
		return err
	}
	defer e.Shutdown()

	var w *watch.Watcher
	if dirs := e.WatchDirs(); len(dirs) > 0 {
		w, err = watch.New(dirs...)
		if err != nil {
			return err
		}
		defer w.Close()
	}

	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("scripthost")

	return ebiten.RunGame(NewGame(e, recent, w))
}

func runInvoke(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// only the command runs; nothing is attached
	cfg.Entities = nil
	cfg.Invoke = nil

	e, err := NewEngine(cfg, trace.NewWriter(os.Stdout), logger)
	if err != nil {
		return err
	}
	defer e.Shutdown()

	return invoke(e.Host, args[0], args[1:]...)
}

func listTypes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Entities = nil
	cfg.Invoke = nil

	e, err := NewEngine(cfg, trace.Func(func(string) {}), logger)
	if err != nil {
		return err
	}
	defer e.Shutdown()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "types:")
	for _, name := range e.Host.Types() {
		fmt.Fprintf(out, "  %s\n", name)
	}
	fmt.Fprintln(out, "commands:")
	for _, name := range e.Host.Commands().Names() {
		fmt.Fprintf(out, "  %s\n", name)
	}
	return nil
}
