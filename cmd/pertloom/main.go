package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshharrison/pertloom/internal/claude"
	"github.com/joshharrison/pertloom/internal/config"
	"github.com/joshharrison/pertloom/internal/forecast"
	"github.com/joshharrison/pertloom/internal/logging"
	"github.com/joshharrison/pertloom/internal/mcp"
	"github.com/joshharrison/pertloom/internal/pert"
	"github.com/joshharrison/pertloom/internal/reporter"
	"github.com/joshharrison/pertloom/internal/session"
	"github.com/joshharrison/pertloom/internal/taskfile"
	"github.com/joshharrison/pertloom/internal/tui"
	"github.com/joshharrison/pertloom/internal/ui"
)

var (
	flagJSON     bool
	flagLogLevel string
	flagDecimals int
	flagEnvFile  string

	cfg config.Config
	log = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pertloom",
		Short: "Estimate the probability of finishing a set of tasks by a target time",
		Long: `Pertloom takes three-point (optimistic / realistic / pessimistic) duration
estimates for a set of tasks, combines them with PERT, and reports the
probability that all of them finish by a target time.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = log.Sync()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (default from "+config.EnvLogLevel+" or warn)")
	rootCmd.PersistentFlags().IntVar(&flagDecimals, "decimals", 2, "Decimal places for the probability")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "Load settings from this env file instead of .env")

	rootCmd.AddCommand(estimateCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(targetCmd())
	rootCmd.AddCommand(tuiCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(suggestCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup resolves configuration (flags over environment over defaults) and
// builds the logger shared by every command.
func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(flagEnvFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		loaded.LogLevel = flagLogLevel
	}
	if cmd.Flags().Changed("decimals") {
		if flagDecimals < 0 {
			return fmt.Errorf("--decimals must be non-negative, got %d", flagDecimals)
		}
		loaded.Decimals = flagDecimals
	}
	cfg = loaded

	l, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	log = l

	if flagJSON {
		ui.DisableColor()
	}
	log.Debug("configuration resolved",
		zap.String("log_level", cfg.LogLevel),
		zap.Int("decimals", cfg.Decimals),
		zap.Float64("target", cfg.Target),
		zap.Bool("target_set", cfg.HasTarget))
	return nil
}

// resolveTarget returns the --target flag value, falling back to the
// configured target.
func resolveTarget(cmd *cobra.Command, flagTarget float64) (float64, error) {
	if cmd.Flags().Changed("target") {
		return flagTarget, nil
	}
	if cfg.HasTarget {
		return cfg.Target, nil
	}
	return 0, fmt.Errorf("no target time: pass --target or set %s", config.EnvTarget)
}

func loadSession(path string) (*session.Session, error) {
	tasks, err := taskfile.Load(path)
	if err != nil {
		return nil, err
	}
	sess, err := session.FromTasks(log, tasks)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Info("tasks loaded", zap.String("file", path), zap.Int("count", sess.Len()))
	return sess, nil
}

// buildForecast loads the task file and evaluates it once into a Forecast.
func buildForecast(path string, fc forecast.Config) (*forecast.Forecast, error) {
	sess, err := loadSession(path)
	if err != nil {
		return nil, err
	}

	f, err := forecast.Generate(sess.Snapshot(), fc)
	if err != nil {
		return nil, fmt.Errorf("generate forecast: %w", err)
	}
	log.Debug("forecast generated",
		zap.String("id", f.ID),
		zap.Int("tasks", f.Summary.Count),
		zap.Float64("expected_sum", f.Summary.Expected),
		zap.Float64("variance_sum", f.Summary.Variance),
		zap.Bool("defined", f.Result.Defined),
		zap.Float64("z", f.Result.Z))
	return f, nil
}

func estimateCmd() *cobra.Command {
	var (
		flagFile       string
		flagTarget     float64
		flagCurve      string
		flagConfidence []float64
		flagOutput     string
		flagTemplate   string
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Compute the probability of finishing all tasks by a target time",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveTarget(cmd, flagTarget)
			if err != nil {
				return err
			}

			fc := forecast.Config{
				Target:       target,
				Decimals:     cfg.Decimals,
				Confidence:   flagConfidence,
				TemplatePath: flagTemplate,
			}
			if flagCurve != "" {
				fc.CurveFrom, fc.CurveTo, fc.CurveStep, err = parseCurve(flagCurve)
				if err != nil {
					return err
				}
			}

			f, err := buildForecast(flagFile, fc)
			if err != nil {
				return err
			}

			rep := reporter.New(f, cfg.Decimals)

			if flagOutput != "" {
				data, err := rep.JSON()
				if err != nil {
					return err
				}
				if err := os.WriteFile(flagOutput, data, 0644); err != nil {
					return fmt.Errorf("write forecast: %w", err)
				}
				log.Info("forecast written", zap.String("file", flagOutput))
			}

			if flagJSON {
				data, err := rep.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			if flagTemplate != "" {
				out, err := forecast.Render(f, flagTemplate)
				if err != nil {
					return err
				}
				fmt.Print(out)
				return nil
			}

			ui.PrintLogo()
			rep.PrintSummaryReport(os.Stdout)
			if flagOutput != "" {
				fmt.Printf("\n💾 Forecast saved to %s\n", ui.Dim(flagOutput))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagFile, "file", "f", "", "JSON task file (- for stdin)")
	cmd.Flags().Float64VarP(&flagTarget, "target", "t", 0, "Target completion time (default from "+config.EnvTarget+")")
	cmd.Flags().StringVar(&flagCurve, "curve", "", "Probability curve as from:to:step")
	cmd.Flags().Float64SliceVar(&flagConfidence, "confidence", nil, "Confidence levels to report (default 50,80,95)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Save the forecast as JSON to this file")
	cmd.Flags().StringVar(&flagTemplate, "template", "", "Render the forecast through this text/template file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func tasksCmd() *cobra.Command {
	var flagFile string

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Show each task's expected time, standard deviation and variance",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(flagFile)
			if err != nil {
				return err
			}

			f, err := forecast.Generate(sess.Snapshot(), forecast.Config{Decimals: cfg.Decimals})
			if err != nil {
				return err
			}

			if flagJSON {
				return outputJSON(struct {
					Rows    []forecast.Row `json:"rows"`
					Summary pert.Summary   `json:"summary"`
				}{f.Rows, f.Summary})
			}

			rep := reporter.New(f, cfg.Decimals)
			rep.PrintTasks(os.Stdout)
			fmt.Println()
			rep.PrintResults(os.Stdout)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagFile, "file", "f", "", "JSON task file (- for stdin)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func targetCmd() *cobra.Command {
	var (
		flagFile        string
		flagProbability float64
	)

	cmd := &cobra.Command{
		Use:   "target",
		Short: "Find the completion time reached with a given probability",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(flagFile)
			if err != nil {
				return err
			}

			target, ok := pert.TargetForProbability(sess.Snapshot(), flagProbability)
			if flagJSON {
				out := struct {
					Probability float64  `json:"probability"`
					Target      *float64 `json:"target"`
				}{Probability: flagProbability}
				if ok {
					out.Target = &target
				}
				return outputJSON(out)
			}

			if !ok {
				return fmt.Errorf("no target for probability %g: it must be strictly between 0 and 100 and the tasks need a non-zero total variance", flagProbability)
			}
			fmt.Printf("🎯 P%s completion time: %s\n",
				strconv.FormatFloat(flagProbability, 'g', -1, 64),
				ui.BoldGreen(forecast.Fixed(target, 3)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagFile, "file", "f", "", "JSON task file (- for stdin)")
	cmd.Flags().Float64VarP(&flagProbability, "probability", "p", 0, "Probability percentage, strictly between 0 and 100")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("probability")

	return cmd
}

func tuiCmd() *cobra.Command {
	var (
		flagFile   string
		flagTarget float64
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Edit tasks and calculate interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := session.New(log)
			if flagFile != "" {
				loaded, err := loadSession(flagFile)
				if err != nil {
					return err
				}
				sess = loaded
			}

			target := flagTarget
			if !cmd.Flags().Changed("target") && cfg.HasTarget {
				target = cfg.Target
			}
			return tui.Run(sess, target, cfg.Decimals)
		},
	}

	cmd.Flags().StringVarP(&flagFile, "file", "f", "", "Preload tasks from a JSON task file")
	cmd.Flags().Float64VarP(&flagTarget, "target", "t", 0, "Initial target time")

	return cmd
}

func mcpCmd() *cobra.Command {
	var flagFile string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the estimator as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := session.New(log)
			if flagFile != "" {
				loaded, err := loadSession(flagFile)
				if err != nil {
					return err
				}
				sess = loaded
			}

			log.Info("serving mcp on stdio", zap.Int("tasks", sess.Len()))
			return mcp.Serve(mcp.NewServer(sess, cfg.Decimals, log))
		},
	}

	cmd.Flags().StringVarP(&flagFile, "file", "f", "", "Preload tasks from a JSON task file")

	return cmd
}

func suggestCmd() *cobra.Command {
	var (
		flagModel  string
		flagUnit   string
		flagOutput string
	)

	cmd := &cobra.Command{
		Use:   "suggest NAME...",
		Short: "Use Claude to suggest three-point estimates for task names",
		Long: `Sends task names to Claude and asks for optimistic, realistic and
pessimistic durations. Suggestions that fail validation are skipped.
Use --output to write the accepted tasks as a task file for estimate.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model := flagModel
			if model == "" {
				model = cfg.Model
			}
			client, err := claude.NewClient("", model)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !flagJSON {
				fmt.Printf("🔍 Asking Claude for estimates of %s tasks...\n", ui.Bold(len(args)))
			}
			result, err := client.SuggestEstimates(ctx, args, flagUnit)
			if err != nil {
				return fmt.Errorf("suggest estimates: %w", err)
			}

			tasks, problems := result.Tasks()
			for _, p := range problems {
				log.Warn("suggestion rejected", zap.Error(p))
				if !flagJSON {
					fmt.Printf("  %s %v\n", ui.Yellow("⏭️  SKIP:"), p)
				}
			}

			if flagOutput != "" {
				data, err := json.MarshalIndent(tasks, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(flagOutput, data, 0644); err != nil {
					return fmt.Errorf("write task file: %w", err)
				}
			}

			if flagJSON {
				return outputJSON(result)
			}

			fmt.Printf("\n📋 %s suggestions (%s):\n\n", ui.Bold(len(tasks)), result.Unit)
			for _, s := range result.Suggestions {
				fmt.Printf("  %s %s  %s/%s/%s  %s\n", ui.Cyan("→"), ui.BoldMagenta(s.Name),
					strconv.FormatFloat(s.Optimistic, 'g', -1, 64),
					strconv.FormatFloat(s.Realistic, 'g', -1, 64),
					strconv.FormatFloat(s.Pessimistic, 'g', -1, 64),
					ui.Dim(s.Reason))
			}
			if flagOutput != "" {
				fmt.Printf("\n💾 Wrote %d tasks to %s\n", len(tasks), ui.Dim(flagOutput))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagModel, "model", "", "Claude model to use (default from "+config.EnvModel+" or Sonnet)")
	cmd.Flags().StringVar(&flagUnit, "unit", "days", "Time unit for the estimates")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write accepted suggestions as a task file")

	return cmd
}

// parseCurve parses a "from:to:step" curve range.
func parseCurve(s string) (from, to, step float64, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid --curve %q: want from:to:step", s)
	}

	var vals [3]float64
	for i, p := range parts {
		vals[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid --curve %q: %w", s, err)
		}
	}
	if vals[2] <= 0 {
		return 0, 0, 0, fmt.Errorf("invalid --curve %q: step must be positive", s)
	}
	if vals[1] < vals[0] {
		return 0, 0, 0, fmt.Errorf("invalid --curve %q: from is after to", s)
	}
	return vals[0], vals[1], vals[2], nil
}

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
