package command

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/objhost-go/internal/cli/connection"
	"github.com/yndnr/objhost-go/internal/cli/output"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "System management commands",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show lifecycle state and object count",
				Action: systemStatus,
			},
			{
				Name:   "health",
				Usage:  "Check server liveness and readiness",
				Action: systemHealth,
			},
			{
				Name:  "stop",
				Usage: "Request a forced stop",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "Wait until the server stops answering",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: 30 * time.Second,
						Usage: "Maximum time to wait with --wait",
					},
				},
				Action: systemStop,
			},
			{
				Name:   "reclaim",
				Usage:  "Run one reclaim pass now",
				Action: systemReclaim,
			},
			{
				Name:      "loglevel",
				Usage:     "Show or change the server log level",
				ArgsUsage: "[LEVEL]",
				Action:    systemLogLevel,
			},
			{
				Name:   "reload",
				Usage:  "Reload the server configuration file (requires --socket)",
				Action: systemReload,
			},
		},
	}
}

// statusView mirrors GET /status.
type statusView struct {
	Lifecycle struct {
		State           string    `json:"state"`
		ActiveCount     int64     `json:"active_count"`
		RunID           string    `json:"run_id,omitempty"`
		StartedAt       time.Time `json:"started_at,omitzero"`
		ReclaimRuns     int64     `json:"reclaim_runs"`
		ReclaimFailures int64     `json:"reclaim_failures"`
		LastStopReason  string    `json:"last_stop_reason"`
	} `json:"lifecycle"`
	Objects int `json:"objects"`
	Build   struct {
		Version   string `json:"version"`
		Commit    string `json:"commit"`
		GoVersion string `json:"go_version"`
	} `json:"build"`
}

func (s *statusView) Table() *output.Table {
	t := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	t.AddRow("State", s.Lifecycle.State)
	t.AddRow("Active Handles", output.Cell(s.Lifecycle.ActiveCount))
	t.AddRow("Objects", output.Cell(s.Objects))
	t.AddRow("Run ID", output.Cell(s.Lifecycle.RunID))
	t.AddRow("Started", output.Time(s.Lifecycle.StartedAt))
	t.AddRow("Reclaim Runs", output.Cell(s.Lifecycle.ReclaimRuns))
	t.AddRow("Reclaim Failures", output.Cell(s.Lifecycle.ReclaimFailures))
	t.AddRow("Last Stop", s.Lifecycle.LastStopReason)
	t.AddRow("Version", fmt.Sprintf("%s (%s)", s.Build.Version, s.Build.Commit))
	return t
}

func systemStatus(c *cli.Context) error {
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var status statusView
	if err := mgr.Status(ctx, &status); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	return render(c, &status)
}

// healthView combines /health and /ready.
type healthView struct {
	Target string `json:"target"`
	Live   bool   `json:"live"`
	Ready  bool   `json:"ready"`
	State  string `json:"state,omitempty"`
}

func systemHealth(c *cli.Context) error {
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	client := mgr.HTTP()
	view := healthView{Target: client.BaseURL()}

	var live struct {
		Status string `json:"status"`
	}
	if err := client.Get(ctx, "/health", &live); err != nil {
		return fmt.Errorf("server unhealthy: %w", err)
	}
	view.Live = live.Status == "ok"

	var ready struct {
		Status string `json:"status"`
		State  string `json:"state"`
	}
	err = client.Get(ctx, "/ready", &ready)
	var apiErr *connection.APIError
	switch {
	case err == nil:
		view.Ready = true
		view.State = ready.State
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable:
		if d, ok := apiErr.Details.(map[string]any); ok {
			view.State, _ = d["state"].(string)
		}
	default:
		return fmt.Errorf("readiness: %w", err)
	}

	if !isTable(c) {
		return render(c, view)
	}
	w := c.App.Writer
	if view.Ready {
		fmt.Fprintf(w, "✓ Server is ready (%s)\n", view.State)
	} else {
		fmt.Fprintf(w, "✗ Server is live but not ready (%s)\n", view.State)
	}
	fmt.Fprintf(w, "  Target: %s\n", view.Target)
	return nil
}

// shutdownView mirrors the shutdown reply.
type shutdownView struct {
	Accepted bool   `json:"accepted"`
	State    string `json:"state"`
}

func systemStop(c *cli.Context) error {
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var reply shutdownView
	if err := mgr.Shutdown(ctx, &reply); err != nil {
		return fmt.Errorf("stop: %w", err)
	}

	if !c.Bool("wait") {
		if isTable(c) {
			fmt.Fprintf(c.App.Writer, "Stop requested (state: %s)\n", reply.State)
			return nil
		}
		return render(c, reply)
	}

	spinner := output.NewSpinner(c.App.ErrWriter, "Waiting for server to stop...")
	spinner.Start()
	if err := waitStopped(c, mgr.HTTP(), c.Duration("timeout")); err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success("Server stopped")
	return nil
}

// waitStopped polls /health until the server stops answering.
func waitStopped(c *cli.Context, client *connection.HTTPClient, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		ctx, cancel := requestContext(c)
		err := client.Get(ctx, "/health", nil)
		cancel()
		if err != nil {
			var apiErr *connection.APIError
			if !errors.As(err, &apiErr) {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("server still running after %s", timeout)
		}
		select {
		case <-c.Context.Done():
			return c.Context.Err()
		case <-ticker.C:
		}
	}
}

// reclaimView mirrors the reclaim reply.
type reclaimView struct {
	Before int    `json:"before"`
	After  int    `json:"after"`
	Error  string `json:"error,omitempty"`
}

func systemReclaim(c *cli.Context) error {
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var reply reclaimView
	if err := mgr.Reclaim(ctx, &reply); err != nil {
		return fmt.Errorf("reclaim: %w", err)
	}
	if !isTable(c) {
		return render(c, reply)
	}
	fmt.Fprintf(c.App.Writer, "Reclaimed %d object(s), %d remaining\n", reply.Before-reply.After, reply.After)
	if reply.Error != "" {
		fmt.Fprintf(c.App.Writer, "  Warning: %s\n", reply.Error)
	}
	return nil
}

// levelView mirrors the loglevel reply.
type levelView struct {
	Level string `json:"level"`
}

func systemLogLevel(c *cli.Context) error {
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	if c.NArg() > 1 {
		return fmt.Errorf("usage: loglevel [LEVEL]")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var reply levelView
	if err := mgr.LogLevel(ctx, c.Args().First(), &reply); err != nil {
		return fmt.Errorf("loglevel: %w", err)
	}
	if !isTable(c) {
		return render(c, reply)
	}
	fmt.Fprintf(c.App.Writer, "Log level: %s\n", reply.Level)
	return nil
}

func systemReload(c *cli.Context) error {
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var reply levelView
	if err := mgr.Reload(ctx, &reply); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	if !isTable(c) {
		return render(c, reply)
	}
	fmt.Fprintf(c.App.Writer, "Configuration reloaded (log level: %s)\n", reply.Level)
	return nil
}
