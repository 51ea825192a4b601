package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	jsonadapter "github.com/Paranoid-AF/jsonadapter"
	"github.com/Paranoid-AF/jsonadapter/suggest"
)

// engineBuilder creates the engine a command runs against.
type engineBuilder func(cfg *jsonadapter.Config) *suggest.Engine

func newEngine(cfg *jsonadapter.Config) *suggest.Engine {
	return suggest.NewEngine(cfg)
}

type options struct {
	configPath string
	verbose    bool
	timeout    time.Duration
}

// loadConfig reads --config when given, else the default config location.
func (o *options) loadConfig() (*jsonadapter.Config, error) {
	if o.configPath != "" {
		return jsonadapter.LoadConfigFile(jsonadapter.ExpandHome(o.configPath))
	}
	return jsonadapter.LoadConfig()
}

// newRootCmd wires the cobra root command.
func newRootCmd(build engineBuilder) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "jsonadapter",
		Short: "Suggest pipelines that turn command output into JSON",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default "+jsonadapter.ConfigPath()+")")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log discovery to stderr")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "how long to wait for adapter discovery")

	root.AddCommand(
		newPredictCommand(opts, build),
		newFeedbackCommand(opts, build),
		newConfigCommand(opts),
		newVersionCommand(),
	)
	return root
}

// withEngine runs fn against a fresh engine built from the loaded config.
func withEngine(ctx context.Context, opts *options, build engineBuilder, fn func(ctx context.Context, e *suggest.Engine) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	e := build(cfg)
	defer e.Close()

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}
	return fn(ctx, e)
}

func newPredictCommand(opts *options, build engineBuilder) *cobra.Command {
	var (
		cursor int
		limit  int
		settle bool
	)

	cmd := &cobra.Command{
		Use:   "predict <command line>",
		Short: "Print replacement lines for the command under the cursor",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := strings.Join(args, " ")
			if !cmd.Flags().Changed("cursor") {
				cursor = len(line)
			}
			return withEngine(cmd.Context(), opts, build, func(ctx context.Context, e *suggest.Engine) error {
				candidates := e.Predict(ctx, line, cursor, limit)
				if len(candidates) == 0 && settle {
					if err := e.Settle(ctx); err != nil {
						return fmt.Errorf("wait for discovery: %w", err)
					}
					candidates = e.Predict(ctx, line, cursor, limit)
				}
				writeCandidates(cmd.OutOrStdout(), cmd.ErrOrStderr(), candidates)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&cursor, "cursor", 0, "cursor byte offset (default end of line)")
	cmd.Flags().IntVar(&limit, "max", suggest.DefaultMaxCandidates, "maximum number of candidates")
	cmd.Flags().BoolVar(&settle, "settle", true, "wait for discovery and ask again when the first lookup misses")
	return cmd
}

func newFeedbackCommand(opts *options, build engineBuilder) *cobra.Command {
	var settle bool

	cmd := &cobra.Command{
		Use:   "feedback <command line>",
		Short: "Print the JSON rewrite of a command line, if any",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := strings.Join(args, " ")
			return withEngine(cmd.Context(), opts, build, func(ctx context.Context, e *suggest.Engine) error {
				fb := e.Feedback(ctx, line)
				if fb == nil && settle {
					if err := e.Settle(ctx); err != nil {
						return fmt.Errorf("wait for discovery: %w", err)
					}
					fb = e.Feedback(ctx, line)
				}
				writeFeedback(cmd.OutOrStdout(), cmd.ErrOrStderr(), fb)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&settle, "settle", true, "wait for discovery and ask again when the first lookup misses")
	return cmd
}

func newConfigCommand(opts *options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	showDefaults := false
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := jsonadapter.DefaultConfig()
			if !showDefaults {
				var err error
				if cfg, err = opts.loadConfig(); err != nil {
					return err
				}
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
	show.Flags().BoolVar(&showDefaults, "defaults", false, "print the built-in defaults instead")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Report configuration problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			warnings := jsonadapter.ValidateConfig(cfg)
			out := cmd.OutOrStdout()
			if len(warnings) == 0 {
				fmt.Fprintln(out, "config ok")
				return nil
			}
			for _, w := range warnings {
				fmt.Fprintln(out, "warning:", w)
			}
			return fmt.Errorf("%d config warning(s)", len(warnings))
		},
	}

	configCmd.AddCommand(show, validate)
	return configCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "jsonadapter %s\n", Version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			return nil
		},
	}
}

// writeCandidates prints one candidate per line: confidence, strategy and
// completion, tab separated.
func writeCandidates(w, errW io.Writer, candidates []jsonadapter.Candidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(errW, "no adapter found")
		return
	}
	for _, c := range candidates {
		fmt.Fprintf(w, "%.2f\t%s\t%s\n", c.Confidence, c.Strategy, c.Completion)
	}
}

func writeFeedback(w, errW io.Writer, fb *jsonadapter.Feedback) {
	if fb == nil {
		fmt.Fprintln(errW, "no adapter found")
		return
	}
	fmt.Fprintln(w, "#", fb.Message)
	for _, action := range fb.Actions {
		fmt.Fprintln(w, action)
	}
}
