package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"fitsync/internal/app"
	"fitsync/internal/config"
	"fitsync/internal/fit"
	"fitsync/internal/stats"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func readConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config, creates a FitApp and performs the initial load.
// The caller must defer app.Close().
func newApp(ctx context.Context, operation string) (*app.FitApp, error) {
	cfg, _, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewFitApp(ctx, cfg, operation, func() (string, error) {
		return readPassphrase("Passphrase: ")
	})
	if err != nil {
		if errors.Is(err, app.ErrKeysNotConfigured) {
			return nil, fmt.Errorf("%w: run `fitsync keys init` first", err)
		}
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	a.Start(ctx)
	return a, nil
}

// readPassphrase reads from the terminal without echo. FITSYNC_PASSPHRASE
// takes precedence for scripted use.
func readPassphrase(prompt string) (string, error) {
	if p := os.Getenv("FITSYNC_PASSPHRASE"); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to read the passphrase from; set FITSYNC_PASSPHRASE")
	}
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pass), nil
}

// promptConfirmer asks on stdin; only "y" or "yes" confirms.
type promptConfirmer struct{}

func (promptConfirmer) Confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func printStatus(a *app.FitApp) {
	snap := a.Snapshot()
	fmt.Printf("Status:   %s\n", snap.Status)
	if snap.LastError != "" {
		fmt.Printf("Error:    %s\n", snap.LastError)
	}
	if snap.Pending > 0 {
		fmt.Printf("Pending:  %d change(s)\n", snap.Pending)
	}
}

var rootCmd = &cobra.Command{
	Use:          "fitsync",
	Short:        "Offline-first weight and workout tracker",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(config.DefaultUserID, defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("User ID:  %s\n", cfg.UserID)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := readConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("User ID:  %s\n", cfg.UserID)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Store:    %s\n", cfg.Store.Type)
		fmt.Printf("Remote:   %s (encrypted: %v)\n", cfg.Remote.Type, cfg.Remote.Encrypt)
		fmt.Printf("Probe:    %s\n", cfg.Connectivity.Probe)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the key pair used to encrypt remote records",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := readConfig()
		if err != nil {
			return err
		}

		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		if os.Getenv("FITSYNC_PASSPHRASE") == "" {
			again, err := readPassphrase("Repeat passphrase: ")
			if err != nil {
				return err
			}
			if again != pass {
				return fmt.Errorf("passphrases do not match")
			}
		}
		if pass == "" {
			return fmt.Errorf("passphrase must not be empty")
		}

		if err := app.InitKeys(cfg, pass); err != nil {
			return fmt.Errorf("initializing keys: %w", err)
		}
		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// weight command
var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Record and view body weight",
}

var weightAddCmd = &cobra.Command{
	Use:   "add WEIGHT",
	Short: "Record today's weight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")

		weight, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid weight %q", args[0])
		}

		a, err := newApp(cmd.Context(), "RecordWeight")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RecordWeight(cmd.Context(), date, weight); err != nil {
			return err
		}
		fmt.Printf("Recorded %.1f\n", weight)
		printStatus(a)
		return nil
	},
}

var weightHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent weights",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), "WeightHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		points := a.WeightChart(limit)
		if len(points) == 0 {
			fmt.Println("No weights recorded.")
			return nil
		}
		for _, p := range points {
			fmt.Printf("%s  %6.1f  (target %.1f)\n", p.Date, p.Weight, p.Target)
		}
		return nil
	},
}

// workout command
var workoutCmd = &cobra.Command{
	Use:   "workout",
	Short: "Track workouts",
}

var workoutStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the workout timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		wt, _ := cmd.Flags().GetString("type")

		a, err := newApp(cmd.Context(), "StartWorkout")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.StartWorkout(cmd.Context(), date, wt); err != nil {
			return err
		}
		fmt.Println("Workout started.")
		printStatus(a)
		return nil
	},
}

var workoutStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running workout",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")

		a, err := newApp(cmd.Context(), "StopWorkout")
		if err != nil {
			return err
		}
		defer a.Close()

		w, err := a.StopWorkout(cmd.Context(), date)
		if err != nil {
			return err
		}
		fmt.Printf("Workout finished: %d min, intensity %d\n", w.DurationMinutes, w.Intensity)
		printStatus(a)
		return nil
	},
}

var workoutLogCmd = &cobra.Command{
	Use:   "log MINUTES",
	Short: "Record a completed workout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		wt, _ := cmd.Flags().GetString("type")
		intensity, _ := cmd.Flags().GetInt("intensity")

		minutes, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid minutes %q", args[0])
		}

		a, err := newApp(cmd.Context(), "LogWorkout")
		if err != nil {
			return err
		}
		defer a.Close()

		w, err := a.LogWorkout(cmd.Context(), date, minutes, wt, intensity)
		if err != nil {
			return err
		}
		fmt.Printf("Logged %s workout on %s: %d min, intensity %d\n", w.WorkoutType, w.Date, w.DurationMinutes, w.Intensity)
		printStatus(a)
		return nil
	},
}

var workoutResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the workout recorded for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		yes, _ := cmd.Flags().GetBool("yes")

		a, err := newApp(cmd.Context(), "ResetWorkout")
		if err != nil {
			return err
		}
		defer a.Close()

		var confirmer fit.Confirmer = promptConfirmer{}
		if yes {
			confirmer = fit.ConfirmFunc(func(string) bool { return true })
		}
		if err := a.ResetWorkout(cmd.Context(), date, confirmer); err != nil {
			if errors.Is(err, fit.ErrNotConfirmed) {
				fmt.Println("Cancelled.")
				return nil
			}
			return err
		}
		fmt.Println("Workout reset.")
		printStatus(a)
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status and today's summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Status")
		if err != nil {
			return err
		}
		defer a.Close()

		snap := a.Snapshot()
		printStatus(a)
		if !snap.LastSync.IsZero() {
			fmt.Printf("Synced:   %s\n", snap.LastSync.Local().Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("Weight:   %.1f\n", snap.CurrentWeight)
		if w, ok := snap.Workouts[a.Today()]; ok {
			state := "done"
			if w.Running() {
				state = "running"
			}
			fmt.Printf("Today:    %s workout, %s, %d min\n", w.WorkoutType, state, w.DurationMinutes)
		} else {
			fmt.Println("Today:    no workout")
		}
		fmt.Printf("Streak:   %d day(s)\n", a.Streak())

		changes, err := a.PendingChanges()
		if err != nil {
			return err
		}
		for _, c := range changes {
			fmt.Printf("  pending %-7s %-6s %s\n", c.Type, c.Op, c.Date)
		}
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push pending changes now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Sync")
		if err != nil {
			return err
		}
		defer a.Close()

		a.Sync(cmd.Context())
		printStatus(a)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stay running and sync whenever connectivity returns",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "Watch")
		if err != nil {
			return err
		}
		defer a.Close()

		printStatus(a)
		a.Watch(ctx, func(s fit.SyncStatus) {
			fmt.Printf("status: %s\n", s)
		})
		return nil
	},
}

// heatmap command
var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Show the workout activity calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		a, err := newApp(cmd.Context(), "Heatmap")
		if err != nil {
			return err
		}
		defer a.Close()

		cells, summary := a.Heatmap(days)
		fmt.Print(renderHeatmap(cells))
		fmt.Printf("\n%d active day(s), %d%% of the last %d\n", summary.ActiveDays, summary.ActivePercent, len(cells))
		return nil
	},
}

var shades = []rune{'·', '░', '▒', '▓', '█'}

// renderHeatmap draws one row per weekday, one column per week.
func renderHeatmap(cells []stats.HeatmapDay) string {
	if len(cells) == 0 {
		return ""
	}
	lead := int(cells[0].Weekday)
	weeks := (lead + len(cells) + 6) / 7

	var rows [7][]rune
	for d := range rows {
		rows[d] = []rune(strings.Repeat(" ", weeks))
	}
	for i, c := range cells {
		pos := lead + i
		rows[pos%7][pos/7] = shades[min(max(c.Intensity, 0), len(shades)-1)]
	}

	var b strings.Builder
	for d, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", weekdayLabels[d], string(row))
	}
	return b.String()
}

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show the current workout streak",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Streak")
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Printf("%d day(s)\n", a.Streak())
		return nil
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show weight progress toward the target",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Progress")
		if err != nil {
			return err
		}
		defer a.Close()

		p := a.Progress()
		fmt.Printf("Start:   %.1f\n", p.StartWeight)
		fmt.Printf("Current: %.1f\n", p.CurrentWeight)
		fmt.Printf("Target:  %.1f\n", p.TargetWeight)
		fmt.Printf("Lost:    %.1f (%.0f%%)\n", p.TotalLoss, p.Percent)
		for _, w := range a.WorkoutChart(stats.ChartPoints) {
			fmt.Printf("  %s  %3d min\n", w.Date, w.Minutes)
		}
		return nil
	},
}

// goals command
var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Manage fitness goals",
}

var goalsAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Add a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goalType, _ := cmd.Flags().GetString("type")
		target, _ := cmd.Flags().GetFloat64("target")
		period, _ := cmd.Flags().GetString("period")

		a, err := newApp(cmd.Context(), "AddGoal")
		if err != nil {
			return err
		}
		defer a.Close()

		g, err := a.AddGoal(args[0], goalType, target, period)
		if err != nil {
			return err
		}
		fmt.Printf("Added goal %s\n", g.ID)
		return nil
	},
}

var goalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals with their progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		a, err := newApp(cmd.Context(), "ListGoals")
		if err != nil {
			return err
		}
		defer a.Close()

		statuses := a.Goals(all)
		if len(statuses) == 0 {
			fmt.Println("No goals.")
			return nil
		}
		for _, s := range statuses {
			mark := " "
			if s.Progress.Completed {
				mark = "✓"
			}
			paused := ""
			if !s.Goal.IsActive {
				paused = "  [paused]"
			}
			fmt.Printf("%s %s  %-30s %-15s %g/%g (%.0f%%)%s\n",
				mark, s.Goal.ID, s.Goal.Title, s.Goal.Type,
				s.Progress.Current, s.Progress.Target, s.Progress.Percentage, paused)
		}
		return nil
	},
}

func setGoalActive(active bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "UpdateGoal")
		if err != nil {
			return err
		}
		defer a.Close()

		_, err = a.SetGoalActive(args[0], active)
		return err
	}
}

var goalsPauseCmd = &cobra.Command{
	Use:   "pause ID",
	Short: "Pause a goal",
	Args:  cobra.ExactArgs(1),
	RunE:  setGoalActive(false),
}

var goalsResumeCmd = &cobra.Command{
	Use:   "resume ID",
	Short: "Resume a paused goal",
	Args:  cobra.ExactArgs(1),
	RunE:  setGoalActive(true),
}

var goalsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "DeleteGoal")
		if err != nil {
			return err
		}
		defer a.Close()

		a.DeleteGoal(args[0])
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysInitCmd)

	// weight subcommands
	weightCmd.AddCommand(weightAddCmd)
	weightAddCmd.Flags().String("date", "", "Date to record (YYYY-MM-DD, default today)")
	weightCmd.AddCommand(weightHistoryCmd)
	weightHistoryCmd.Flags().IntP("limit", "n", stats.ChartPoints, "Number of entries to show")

	// workout subcommands
	for _, c := range []*cobra.Command{workoutStartCmd, workoutStopCmd, workoutLogCmd, workoutResetCmd} {
		workoutCmd.AddCommand(c)
		c.Flags().String("date", "", "Workout date (YYYY-MM-DD, default today)")
	}
	workoutStartCmd.Flags().StringP("type", "t", "general", "Workout type (cardio, strength, flexibility, sports, outdoor, general)")
	workoutLogCmd.Flags().StringP("type", "t", "general", "Workout type (cardio, strength, flexibility, sports, outdoor, general)")
	workoutLogCmd.Flags().IntP("intensity", "i", 0, "Intensity 1-4 (default derived from minutes)")
	workoutResetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	heatmapCmd.Flags().IntP("days", "d", stats.HeatmapDays, "Number of days to show")

	// goals subcommands
	goalsCmd.AddCommand(goalsAddCmd)
	goalsAddCmd.Flags().String("type", "weekly_workouts", "Goal type (weekly_workouts, weekly_minutes, daily_streak, weight_loss)")
	goalsAddCmd.Flags().Float64("target", 0, "Target value")
	goalsAddCmd.Flags().String("period", "week", "Period (week or month)")
	goalsCmd.AddCommand(goalsListCmd)
	goalsListCmd.Flags().BoolP("all", "a", false, "Include paused goals")
	goalsCmd.AddCommand(goalsPauseCmd)
	goalsCmd.AddCommand(goalsResumeCmd)
	goalsCmd.AddCommand(goalsDeleteCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(weightCmd)
	rootCmd.AddCommand(workoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(heatmapCmd)
	rootCmd.AddCommand(streakCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(goalsCmd)
}
