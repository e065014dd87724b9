// Package main provides the CLI entrypoint for keydrill.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/keydrill/internal/capture"
	"github.com/verte-zerg/keydrill/internal/config"
	"github.com/verte-zerg/keydrill/internal/interceptor"
	"github.com/verte-zerg/keydrill/internal/menu"
	"github.com/verte-zerg/keydrill/internal/model"
	"github.com/verte-zerg/keydrill/internal/practice"
	"github.com/verte-zerg/keydrill/internal/stats"
	"github.com/verte-zerg/keydrill/internal/store"
	"github.com/verte-zerg/keydrill/internal/tool"
)

const (
	defaultRandomCount = 10
	defaultWeakWindow  = 20
)

var (
	practiceToolsDir   string
	practiceMode       string
	practiceRandomN    int
	practiceFocusWeak  bool
	practiceWeakWindow int
	practiceVerbose    bool

	statsTool string
	statsLast int

	newIcon  string
	newDesc  string
	newForce bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keydrill [tool]",
		Short:         "Keyboard shortcut trainer",
		Long:          "keydrill practices application shortcuts by intercepting real keystrokes and matching them against the expected combos.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().BoolVar(&practiceVerbose, "verbose", false, "enable debug logging")
	rootCmd.Flags().StringVar(&practiceToolsDir, "tools-dir", "", "directory with tool documents (default: XDG config)")
	rootCmd.Flags().StringVar(&practiceMode, "mode", "", "practice scope: a set id, category_<id>, or random")
	rootCmd.Flags().IntVar(&practiceRandomN, "random-count", defaultRandomCount, "shortcuts drawn by the random scope")
	rootCmd.Flags().BoolVar(&practiceFocusWeak, "focus-weak", false, "bias the random scope toward stubborn shortcuts")
	rootCmd.Flags().IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak shortcuts")

	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newNewCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newInterceptorCmd())
	rootCmd.AddCommand(newFreestyleCmd())
	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	if practiceVerbose || os.Getenv("KEYDRILL_DEBUG") == "true" {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func runPracticeCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "tools-dir", &practiceToolsDir, fileCfg.Practice.ToolsDir)
	applyIntConfig(cmd, "random-count", &practiceRandomN, fileCfg.Practice.RandomCount)
	applyBoolConfig(cmd, "focus-weak", &practiceFocusWeak, fileCfg.Practice.FocusWeak)
	applyIntConfig(cmd, "weak-window", &practiceWeakWindow, fileCfg.Practice.WeakWindow)
	if practiceToolsDir == "" {
		practiceToolsDir = config.DefaultToolsDir()
	}
	if practiceRandomN <= 0 {
		return fmt.Errorf("--random-count must be > 0")
	}

	log := newLogger()
	sup := interceptor.NewProcess(config.InterceptorPath(), config.CaptureFilePath(), log)
	if !sup.CheckBuilt() {
		return fmt.Errorf("interceptor binary not found at %s (build it first)", config.InterceptorPath())
	}

	selected, err := selectTool(args)
	if err != nil {
		return err
	}
	t, err := tool.Load(selected)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pid, err := sup.Start()
	if err != nil {
		return fmt.Errorf("failed to start interceptor: %w", err)
	}
	log.Debugf("interceptor running (pid %d)", pid)
	defer sup.Stop()

	option, err := selectScope(t)
	if err != nil {
		return err
	}
	shortcuts, err := resolveShortcuts(ctx, st, t, option)
	if err != nil {
		return err
	}

	channel := capture.NewChannel(config.CaptureFilePath())
	session := practice.NewSession(sup, channel, os.Stdin, os.Stdout, log)
	if v := fileCfg.Practice.PollIntervalMs; v != nil {
		session.SetPollInterval(time.Duration(*v) * time.Millisecond)
	}
	if v := fileCfg.Practice.GestureWindow; v != nil {
		session.SetGestureWindow(time.Duration(*v * float64(time.Second)))
	}
	if v := fileCfg.Practice.ToggleRetries; v != nil {
		session.SetToggleRetries(*v)
	}

	started := time.Now()
	sessionStats, attempts, err := session.Run(ctx, t, option.Mode, shortcuts)
	if err != nil {
		return fmt.Errorf("practice session aborted: %w", err)
	}

	fmt.Println(stats.RenderResults(t, shortcuts, sessionStats))

	rec := model.SessionRecord{
		StartedAt: started,
		EndedAt:   time.Now(),
		Tool:      t.Name,
		Mode:      option.Mode,
		Completed: sessionStats.Completed,
		Skipped:   sessionStats.Skipped,
	}
	if _, err := st.InsertSession(ctx, rec, attempts); err != nil {
		logErrf("failed to record session: %v\n", err)
	}
	return nil
}

func selectTool(args []string) (string, error) {
	if len(args) == 1 {
		return tool.Resolve(args[0], practiceToolsDir)
	}
	entries, err := tool.Discover(practiceToolsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no tools found in %s (create one with: keydrill new <name>)", practiceToolsDir)
	}
	items := make([]menu.Item, len(entries))
	for i, entry := range entries {
		desc := fmt.Sprintf("%d shortcuts", len(entry.Tool.Shortcuts))
		if entry.Tool.Description != "" {
			desc = fmt.Sprintf("%s (%s)", entry.Tool.Description, desc)
		}
		items[i] = menu.Item{
			Title: fmt.Sprintf("%s %s", entry.Tool.Icon, entry.Tool.Name),
			Desc:  desc,
		}
	}
	choice, err := menu.Choose("🎯 Select tool to practice", items)
	if err != nil {
		return "", err
	}
	return entries[choice].Path, nil
}

func selectScope(t model.Tool) (practice.Option, error) {
	options := practice.BuildOptions(t, practiceRandomN)
	if practiceMode != "" {
		for _, opt := range options {
			if opt.Mode == practiceMode {
				return opt, nil
			}
		}
		return practice.Option{}, fmt.Errorf("unknown practice mode %q", practiceMode)
	}
	items := make([]menu.Item, len(options))
	for i, opt := range options {
		desc := fmt.Sprintf("%d shortcuts", opt.Count)
		if opt.Description != "" {
			desc = fmt.Sprintf("%s (%s)", opt.Description, desc)
		}
		items[i] = menu.Item{Title: opt.Label, Desc: desc}
	}
	choice, err := menu.Choose(fmt.Sprintf("%s %s practice mode", t.Icon, strings.ToUpper(t.Name)), items)
	if err != nil {
		return practice.Option{}, err
	}
	return options[choice], nil
}

func resolveShortcuts(ctx context.Context, st *store.Store, t model.Tool, option practice.Option) ([]model.Shortcut, error) {
	if option.Kind != practice.OptionRandom {
		return option.Shortcuts, nil
	}
	weakSet := map[string]struct{}{}
	if practiceFocusWeak {
		aggs, err := st.AttemptAggregates(ctx, practiceWeakWindow, t.Name)
		if err != nil {
			logErrf("failed to load attempt history: %v\n", err)
		} else {
			weakSet = stats.SelectWeakShortcuts(aggs, option.Count)
			if len(weakSet) == 0 {
				logErrln("no history for weak-shortcut focus yet; using a uniform draw")
			}
		}
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return practice.RandomSample(t.Shortcuts, option.Count, weakSet, rng), nil
}

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List available tool documents",
		Args:  cobra.NoArgs,
		RunE:  runToolsCmd,
	}
	cmd.Flags().StringVar(&practiceToolsDir, "tools-dir", "", "directory with tool documents (default: XDG config)")
	return cmd
}

func runToolsCmd(cmd *cobra.Command, _ []string) error {
	if practiceToolsDir == "" {
		practiceToolsDir = config.DefaultToolsDir()
	}
	entries, err := tool.Discover(practiceToolsDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		logErrf("No tools found in %s. Create one with: keydrill new <name>\n", practiceToolsDir)
		return fmt.Errorf("no tools found")
	}
	for _, entry := range entries {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d shortcuts)\n",
			entry.Tool.Icon, entry.Tool.Name, len(entry.Tool.Shortcuts)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if entry.Tool.Description != "" {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "   %s\n", entry.Tool.Description); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
	return nil
}

func newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a starter tool document",
		Args:  cobra.ExactArgs(1),
		RunE:  runNewCmd,
	}
	cmd.Flags().StringVar(&newIcon, "icon", "", "icon glyph for the tool")
	cmd.Flags().StringVar(&newDesc, "description", "", "short tool description")
	cmd.Flags().BoolVar(&newForce, "force", false, "overwrite an existing document")
	cmd.Flags().StringVar(&practiceToolsDir, "tools-dir", "", "directory with tool documents (default: XDG config)")
	return cmd
}

func runNewCmd(_ *cobra.Command, args []string) error {
	if practiceToolsDir == "" {
		practiceToolsDir = config.DefaultToolsDir()
	}
	name := args[0]
	filename := strings.ToLower(strings.ReplaceAll(name, " ", "_")) + ".toml"
	path := filepath.Join(practiceToolsDir, filename)

	if !newForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("tool document already exists: %s (use --force to overwrite)", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat tool document: %w", err)
		}
	}
	if err := os.MkdirAll(practiceToolsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create tools directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(tool.Template(name, newIcon, newDesc)), 0o644); err != nil {
		return fmt.Errorf("failed to write tool document: %w", err)
	}
	fmt.Printf("✅ Created %s\n", path)
	fmt.Println("Edit the file to add your shortcuts; the tool appears in the menu automatically.")
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newInterceptorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interceptor",
		Short: "Manage the key-interceptor process",
	}
	cmd.AddCommand(
		&cobra.Command{Use: "status", Short: "Show interceptor status", Args: cobra.NoArgs, RunE: runInterceptorStatus},
		&cobra.Command{Use: "start", Short: "Start the interceptor", Args: cobra.NoArgs, RunE: runInterceptorStart},
		&cobra.Command{Use: "stop", Short: "Stop the interceptor", Args: cobra.NoArgs, RunE: runInterceptorStop},
		&cobra.Command{Use: "restart", Short: "Restart the interceptor", Args: cobra.NoArgs, RunE: runInterceptorRestart},
	)
	return cmd
}

func newSupervisor() *interceptor.Process {
	return interceptor.NewProcess(config.InterceptorPath(), config.CaptureFilePath(), newLogger())
}

func runInterceptorStatus(cmd *cobra.Command, _ []string) error {
	sup := newSupervisor()
	if !sup.CheckBuilt() {
		fmt.Fprintf(cmd.OutOrStdout(), "Binary: ❌ not built (%s)\n", config.InterceptorPath())
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Binary: ✅ %s\n", config.InterceptorPath())
	}
	if pid, ok := sup.Pid(); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "Process: ✅ running (PID: %d)\n", pid)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Process: ❌ not running")
	}
	channel := capture.NewChannel(config.CaptureFilePath())
	if channel.IsActive() {
		fmt.Fprintln(cmd.OutOrStdout(), "Capturing: 🔴 ON (keys blocked)")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Capturing: 🟢 OFF (keys normal)")
	}
	return nil
}

func runInterceptorStart(cmd *cobra.Command, _ []string) error {
	sup := newSupervisor()
	if !sup.CheckBuilt() {
		return fmt.Errorf("interceptor binary not found at %s", config.InterceptorPath())
	}
	pid, err := sup.Start()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Interceptor running (PID: %d)\n", pid)
	return nil
}

func runInterceptorStop(cmd *cobra.Command, _ []string) error {
	newSupervisor().Stop()
	fmt.Fprintln(cmd.OutOrStdout(), "✅ Interceptor stopped")
	return nil
}

func runInterceptorRestart(cmd *cobra.Command, _ []string) error {
	sup := newSupervisor()
	sup.Stop()
	pid, err := sup.Start()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Interceptor restarted (PID: %d)\n", pid)
	return nil
}

func newFreestyleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "freestyle",
		Short: "Run the interceptor in the foreground for manual practice",
		Args:  cobra.NoArgs,
		RunE:  runFreestyleCmd,
	}
}

func runFreestyleCmd(cmd *cobra.Command, _ []string) error {
	sup := newSupervisor()
	if !sup.CheckBuilt() {
		return fmt.Errorf("interceptor binary not found at %s", config.InterceptorPath())
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Manual control mode:")
	fmt.Fprintln(cmd.OutOrStdout(), "  • Press Cmd+Shift+- to toggle the trainer")
	fmt.Fprintln(cmd.OutOrStdout(), "  • 🔴 = keys blocked (practice mode), 🟢 = keys normal")
	fmt.Fprintln(cmd.OutOrStdout(), "  • Ctrl+C to return")
	fmt.Fprintln(cmd.OutOrStdout())

	// Catch the interrupt: Ctrl+C terminates the foreground interceptor
	// (same process group) and control must come back here for the
	// background restart.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return freestyle(ctx, sup, cmd.OutOrStdout())
}

// freestyle hands the terminal to the interceptor and restarts it in the
// background afterwards, whether the foreground run ended on its own or was
// interrupted.
func freestyle(ctx context.Context, sup interceptor.Supervisor, out io.Writer) error {
	// The foreground run owns the terminal; any background instance would
	// fight it over the capture file.
	sup.Stop()
	if err := sup.RunForeground(); err != nil && ctx.Err() == nil {
		logErrf("%v\n", err)
	}

	if _, err := sup.Start(); err != nil {
		return fmt.Errorf("failed to restart interceptor in background: %w", err)
	}
	fmt.Fprintln(out, "✅ Interceptor restarted in background")
	return nil
}

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show captured keys in real time",
		Args:  cobra.NoArgs,
		RunE:  runViewCmd,
	}
}

func runViewCmd(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	sup := interceptor.NewProcess(config.InterceptorPath(), config.CaptureFilePath(), log)
	if !sup.CheckBuilt() {
		return fmt.Errorf("interceptor binary not found at %s (build it first)", config.InterceptorPath())
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if _, err := sup.Start(); err != nil {
		return fmt.Errorf("failed to start interceptor: %w", err)
	}
	defer sup.Stop()

	channel := capture.NewChannel(config.CaptureFilePath())
	session := practice.NewSession(sup, channel, os.Stdin, os.Stdout, log)
	if err := session.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Println("\n✅ Done! Your keyboard is back to normal.")
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show practice history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsTool, "tool", "", "tool filter")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := cmd.Context()
	sessions, err := st.ListSessions(ctx, statsTool, statsLast)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded yet.")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s %-18s completed %d, skipped %d\n",
			s.EndedAt.Local().Format("2006-01-02 15:04"), s.Tool, s.Mode, s.Completed, s.Skipped)
	}

	aggs, err := st.AttemptAggregates(ctx, defaultWeakWindow, statsTool)
	if err != nil {
		return fmt.Errorf("failed to aggregate attempts: %w", err)
	}
	weak := stats.SelectWeakShortcuts(aggs, 5)
	if len(weak) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "\nShortcuts worth another round:")
		for _, agg := range aggs {
			if _, ok := weak[agg.Keys]; !ok {
				continue
			}
			avg := float64(agg.AttemptSum) / float64(agg.Completions)
			fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %.1f attempts on average\n", agg.Keys, avg)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# keydrill configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# tools-dir = ""          # Directory with tool documents
# random-count = %d       # Shortcuts drawn by the random scope
# focus-weak = false      # Bias the random scope toward stubborn shortcuts
# weak-window = %d        # Number of recent sessions to compute weak shortcuts
# poll-interval-ms = 50   # Capture file poll interval
# gesture-window-s = 1.0  # Max gap between backtick presses to count as exit
# toggle-retries = 10     # Activation handshake retry budget
`,
		defaultRandomCount,
		defaultWeakWindow,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
