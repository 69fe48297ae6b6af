package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"academy/internal/app"
	"academy/internal/progress"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	dotenv        string
	dataDir       string
	logPath       string
	devLogs       bool
	devAddr       string
	contentDir    string
	ascii         bool
	debugLayout   bool
	remoteBackend string
	databaseURL   string
	remoteURL     string
	remoteAPIKey  string
	remoteTimeout time.Duration
	remoteRetries int
	authURL       string
	authAPIKey    string
	jwtSecret     string
	style         string
	motion        string
}

func newRootCmd() *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:          "academy",
		Short:        "Claude Code Academy, an interactive course in the terminal",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.dotenv, "env-file", ".env", "dotenv file to read before the environment")
	pf.StringVar(&f.dataDir, "data-dir", "", "directory for progress, session and logs")
	pf.StringVar(&f.logPath, "log-path", "", "log file path (default <data-dir>/academy.log)")
	pf.BoolVar(&f.devLogs, "dev-logs", false, "human readable debug logs")
	pf.StringVar(&f.devAddr, "dev-addr", "", "serve the dev progress API on this address")
	pf.StringVar(&f.contentDir, "content-dir", "", "load the course from this directory instead of the built-in one")
	pf.BoolVar(&f.ascii, "ascii", false, "draw with ASCII only")
	pf.BoolVar(&f.debugLayout, "debug-layout", false, "show layout diagnostics")
	pf.StringVar(&f.remoteBackend, "remote-backend", "", "account progress backend: none, memory, postgres or rest")
	pf.StringVar(&f.databaseURL, "database-url", "", "postgres connection string")
	pf.StringVar(&f.remoteURL, "remote-url", "", "REST progress endpoint")
	pf.StringVar(&f.remoteAPIKey, "remote-api-key", "", "REST progress api key")
	pf.DurationVar(&f.remoteTimeout, "remote-timeout", 10*time.Second, "timeout for each remote call")
	pf.IntVar(&f.remoteRetries, "remote-retries", 0, "extra attempts for a failed remote write")
	pf.StringVar(&f.authURL, "auth-url", "", "email sign-in endpoint (defaults to --remote-url for rest)")
	pf.StringVar(&f.authAPIKey, "auth-api-key", "", "email sign-in api key")
	pf.StringVar(&f.jwtSecret, "jwt-secret", "", "secret used to verify access tokens")
	pf.StringVar(&f.style, "style", "", "modern_arcade, cozy_clean or retro_terminal")
	pf.StringVar(&f.motion, "motion", "", "off, reduced or full")

	root.AddCommand(newProgressCmd(&f), newResetCmd(&f))
	return root
}

func newProgressCmd(f *flags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Print course progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openHeadless(cmd, *f)
			if err != nil {
				return err
			}
			defer a.Close()
			sum := a.Progress().Summary()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			printSummary(cmd.OutOrStdout(), a, sum)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func newResetCmd(f *flags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear all completed lessons and badges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("reset is permanent; pass --yes to confirm")
			}
			a, err := openHeadless(cmd, *f)
			if err != nil {
				return err
			}
			defer a.Close()
			a.Progress().Reset()
			fmt.Fprintln(cmd.OutOrStdout(), "Progress reset.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the reset")
	return cmd
}

func openHeadless(cmd *cobra.Command, f flags) (*app.App, error) {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return nil, err
	}
	a, err := app.Open(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	a.Prepare(cmd.Context())
	return a, nil
}

// loadConfig layers defaults, the dotenv file, ACADEMY_* variables and then
// any flag set explicitly on the command line.
func loadConfig(cmd *cobra.Command, f flags) (app.Config, error) {
	cfg := app.DefaultConfig()
	if err := app.LoadEnv(&cfg, f.dotenv); err != nil {
		return cfg, err
	}
	set := func(name string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	set("data-dir", func() { cfg.DataDir = f.dataDir })
	set("log-path", func() { cfg.LogPath = f.logPath })
	set("dev-logs", func() { cfg.DevLogs = f.devLogs })
	set("dev-addr", func() { cfg.DevAddr = f.devAddr })
	set("content-dir", func() { cfg.ContentDir = f.contentDir })
	set("ascii", func() { cfg.ASCIIOnly = f.ascii })
	set("debug-layout", func() { cfg.DebugLayout = f.debugLayout })
	set("remote-backend", func() { cfg.Remote.Backend = f.remoteBackend })
	set("database-url", func() { cfg.Remote.DatabaseURL = f.databaseURL })
	set("remote-url", func() { cfg.Remote.URL = f.remoteURL })
	set("remote-api-key", func() { cfg.Remote.APIKey = f.remoteAPIKey })
	set("remote-timeout", func() { cfg.Remote.Timeout = f.remoteTimeout })
	set("remote-retries", func() { cfg.Remote.Retries = f.remoteRetries })
	set("auth-url", func() { cfg.Auth.URL = f.authURL })
	set("auth-api-key", func() { cfg.Auth.APIKey = f.authAPIKey })
	set("jwt-secret", func() { cfg.Auth.JWTSecret = f.jwtSecret })
	set("style", func() { cfg.UI.StyleVariant = f.style })
	set("motion", func() { cfg.UI.MotionLevel = f.motion })
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func printSummary(w io.Writer, a *app.App, sum progress.Summary) {
	cat := a.Catalog()
	fmt.Fprintf(w, "%s\n", cat.Title)
	fmt.Fprintf(w, "%d of %s lessons complete (%d%%)\n", sum.Completed, humanize.Comma(int64(sum.Total)), sum.Overall)
	if sum.CurrentBadge != "" {
		fmt.Fprintf(w, "Current badge: %s\n", sum.CurrentBadge)
	}
	for i, lv := range cat.Levels {
		ls := sum.Levels[i]
		mark := " "
		if ls.Earned {
			mark = "*"
		}
		fmt.Fprintf(w, "%s Level %d: %-28s %3d%%  %d/%d\n", mark, lv.Number, lv.Title, ls.Percent, ls.Completed, ls.Total)
	}
	if acct := a.Account(); acct.SignedIn() {
		fmt.Fprintf(w, "Signed in as %s\n", acct.Email)
		if st := a.SyncStatus(); !st.LastSynced.IsZero() {
			fmt.Fprintf(w, "Last synced %s\n", humanize.Time(st.LastSynced))
		}
	}
}
