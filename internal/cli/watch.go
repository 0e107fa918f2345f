package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/client"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/refresh"
)

var errPaused = errors.New("auto refresh paused")

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	RemoteOptions

	Interval   time.Duration
	MaxRetries int

	clientOpts []client.Option
	newTicker  refresh.TickerFactory
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the dashboard of a running server",
		Long: `Fetch the dashboard from a running server on a fixed interval and print one
line per refresh. Consecutive failures pause the watch and exit with code 1.

Example:
  hrmsctl watch --server http://localhost:8080 --interval 30s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", refresh.DefaultInterval, "refresh interval (30s, 1m, 2m or 5m)")
	cmd.Flags().IntVar(&opts.MaxRetries, "max-retries", refresh.DefaultMaxRetries, "consecutive failures before pausing")
	opts.RemoteOptions.addFlags(cmd)
	_ = cmd.MarkFlagRequired("server")

	return cmd
}

func runWatch(parent context.Context, opts *WatchOptions, cmd *cobra.Command) error {
	if parent == nil {
		parent = context.Background()
	}
	if !refresh.ValidInterval(opts.Interval) {
		return WrapExitError(ExitCommandError, "invalid --interval", refresh.ErrInvalidInterval)
	}
	setupLogger(opts.RootOptions, cmd.ErrOrStderr(), defaultLevel, "")

	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel(nil)
		case <-ctx.Done():
		}
	}()

	c, err := opts.connect(ctx, opts.clientOpts...)
	if err != nil {
		return err
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	var outMu sync.Mutex

	controller, err := refresh.New(func(ctx context.Context) error {
		d, err := c.Dashboard(ctx)
		if err != nil {
			return err
		}
		outMu.Lock()
		defer outMu.Unlock()
		return out.Success(dashboardLine(d), d)
	}, refresh.Options{
		Interval:     opts.Interval,
		MaxRetries:   opts.MaxRetries,
		PauseOnError: true,
		NewTicker:    opts.newTicker,
		Notifier: refresh.NotifierFunc(func(n refresh.Notification) {
			cancel(fmt.Errorf("%w after %d consecutive failures: %w", errPaused, n.Retries, n.Err))
		}),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid watch options", err)
	}

	if err := controller.RefreshNow(ctx); err != nil {
		return WrapExitError(ExitFailure, "initial refresh failed", err)
	}
	if err := controller.Enable(ctx); err != nil {
		return WrapExitError(ExitFailure, "enable refresh", err)
	}

	<-ctx.Done()
	controller.Disable()

	if cause := context.Cause(ctx); errors.Is(cause, errPaused) {
		outMu.Lock()
		defer outMu.Unlock()
		_ = out.Failure(cause)
		return WrapExitError(ExitFailure, "watch stopped", cause)
	}
	return nil
}

func dashboardLine(d report.Dashboard) string {
	return fmt.Sprintf("%s  employees=%d present=%d late=%d absent=%d checked_in=%d not_checked_in=%d rate=%d%%",
		d.GeneratedAt, d.ActiveEmployees, d.PresentToday, d.LateToday, d.AbsentToday,
		d.CheckedInNow, d.NotCheckedIn, d.AttendanceRate)
}
