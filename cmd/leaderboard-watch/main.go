// Command leaderboard-watch prints the live leaderboard, redrawing whenever
// a push or the reconciliation sweep changes it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/client"
	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/platform/envutil"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

func main() {
	var (
		addr     string
		token    string
		email    string
		password string
		classID  string
		limit    int
		sweep    time.Duration
		logMode  string
	)
	flag.StringVar(&addr, "addr", envutil.String("LEVELUP_ADDR", "http://localhost:8080"), "API base URL")
	flag.StringVar(&token, "token", envutil.String("LEVELUP_TOKEN", ""), "access token")
	flag.StringVar(&email, "email", envutil.String("LEVELUP_EMAIL", ""), "login email when no token is given")
	flag.StringVar(&password, "password", envutil.String("LEVELUP_PASSWORD", ""), "login password")
	flag.StringVar(&classID, "class", "", "restrict to one class id")
	flag.IntVar(&limit, "limit", 20, "rows to show")
	flag.DurationVar(&sweep, "sweep", client.DefaultSweepInterval, "reconciliation interval")
	flag.StringVar(&logMode, "log", "production", "log mode (production, development, test)")
	flag.Parse()

	log, err := logger.New(logMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, addr, token, email, password, classID, limit, sweep); err != nil {
		fmt.Fprintf(os.Stderr, "leaderboard-watch: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, addr, token, email, password, classID string, limit int, sweep time.Duration) error {
	q := client.LeaderboardQuery{Limit: limit}
	if classID != "" {
		id, err := uuid.Parse(classID)
		if err != nil {
			return fmt.Errorf("invalid -class: %w", err)
		}
		q.ClassID = &id
	}

	c := client.New(addr, client.WithToken(token))
	if c.Token() == "" {
		if email == "" {
			return errors.New("either -token or -email/-password is required")
		}
		if _, err := c.Login(ctx, email, password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	state := client.NewAppState(c, client.StateOptions{Leaderboard: q})
	syncer := client.NewSyncer(log, c, state, client.SyncerOptions{Sweep: sweep})

	errCh := make(chan error, 1)
	go func() { errCh <- syncer.Run(ctx) }()

	redraw := func() {
		lb, err := state.Leaderboard.Get(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("fetch leaderboard", "error", err)
			}
			return
		}
		render(os.Stdout, lb)
	}
	redraw()
	for {
		select {
		case err := <-errCh:
			return err
		case <-state.Changes():
			redraw()
		}
	}
}

func render(w io.Writer, lb *types.Leaderboard) {
	fmt.Fprint(w, "\033[H\033[2J")
	fmt.Fprintf(w, "leaderboard at %s\n\n", lb.GeneratedAt.Local().Format(time.TimeOnly))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tXP\tLEVEL\tLOGIN\tSTREAK\tBADGES")
	for _, e := range lb.Entries {
		name := e.Name
		if name == "" {
			name = e.Email
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\n", e.Rank, name, e.XP, e.Level, e.LoginStreak, e.ActivityStreak, e.BadgeCount)
	}
	_ = tw.Flush()
}
