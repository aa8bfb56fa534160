package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/canvasnote/canvasnote/pkg/session"
)

// recentOpts holds the command-line flags for the recent command.
type recentOpts struct {
	redisAddr string // use the redis session backend instead of local files
	limit     int    // maximum entries to show
}

// newRecentCmd creates the recent command for the recent-files list.
func newRecentCmd(configPath *string) *cobra.Command {
	var opts recentOpts

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show and manage the recent-files list",
		Long: `Recent lists the notebooks opened most recently, newest first. The list is
kept in the local session store by default, or in redis when an address is
configured (redis.addr in config.toml or --redis).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecentList(cmd.Context(), &opts, *configPath)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.redisAddr, "redis", "", "redis address for the session backend (overrides config)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", session.MaxRecent, "maximum entries to show")

	cmd.AddCommand(&cobra.Command{
		Use:   "add <notebook-path>",
		Short: "Record a notebook in the recent-files list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecentAdd(cmd.Context(), args[0], &opts, *configPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Drop stale session entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecentCleanup(cmd.Context(), &opts, *configPath)
		},
	})

	return cmd
}

// newSessionStore picks the session backend: redis when an address is given,
// local files otherwise.
func newSessionStore(ctx context.Context, opts *recentOpts, configPath string) (session.Store, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	addr := opts.redisAddr
	if addr == "" {
		addr = cfg.Redis.Addr
	}
	if addr != "" {
		return session.NewRedisStore(ctx, session.RedisConfig{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return session.NewFileStore("")
}

func runRecentList(ctx context.Context, opts *recentOpts, configPath string) error {
	st, err := newSessionStore(ctx, opts, configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.Recent(ctx, opts.limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printInfo("No recent notebooks")
		return nil
	}

	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = e.Path
		}
		printKeyValue(formatOpenedAt(e.OpenedAt), name)
		printDetail("%s", e.Path)
	}
	return nil
}

func runRecentAdd(ctx context.Context, path string, opts *recentOpts, configPath string) error {
	st, err := newSessionStore(ctx, opts, configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	entry := session.RecentEntry{Path: path, OpenedAt: time.Now()}
	if err := st.Touch(ctx, entry); err != nil {
		return err
	}
	printSuccess("Recorded %s", path)
	return nil
}

func runRecentCleanup(ctx context.Context, opts *recentOpts, configPath string) error {
	st, err := newSessionStore(ctx, opts, configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Cleanup(ctx); err != nil {
		return err
	}
	printSuccess("Session store cleaned up")
	return nil
}

// formatOpenedAt formats a recent-entry timestamp relative to now.
func formatOpenedAt(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := time.Since(t)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
