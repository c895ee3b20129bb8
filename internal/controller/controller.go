package controller

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/insightsec/harvestr/internal/eventlog"
	"github.com/insightsec/harvestr/internal/launcher"
	"github.com/insightsec/harvestr/internal/metrics"
	"github.com/insightsec/harvestr/internal/registry"
)

// BotIDPrefix decorates the 1-based launch sequence into the registry key.
// Monitors receive only the bare sequence number and derive their own name.
const BotIDPrefix = "harvester-"

// BotID returns the registry key for the n-th token (1-based).
func BotID(n int) string { return fmt.Sprintf("%s%03d", BotIDPrefix, n) }

// Options tune a session without touching the collaborator wiring.
type Options struct {
	// Pace is the delay between successful launches to avoid bursts
	// against the external service every monitor contacts.
	Pace time.Duration
	// KillOnShutdown signals each monitor's process group when the
	// operator stops the controller. Off by default: monitors are
	// long-running collectors and may deliberately outlive the session.
	KillOnShutdown bool
}

// Result summarizes one launch pass.
type Result struct {
	Total    int
	Launched int
	Handles  []*launcher.Handle
}

// Controller orchestrates a harvesting session: it registers each token in
// the fleet registry, spawns one monitor per token sequentially, and leaves
// an audit trail in the event log. Per-token failures never abort the
// session; registry and token-file failures before the loop do.
type Controller struct {
	store registry.Store
	sink  eventlog.Sink
	ln    launcher.Launcher
	opts  Options
	log   *slog.Logger
}

func New(store registry.Store, sink eventlog.Sink, ln launcher.Launcher, opts Options) *Controller {
	if opts.Pace <= 0 {
		opts.Pace = time.Second
	}
	return &Controller{store: store, sink: sink, ln: ln, opts: opts, log: slog.Default()}
}

// RunSession executes one full launch pass over the token file. The returned
// error is non-nil only for fatal preconditions (unreadable token file,
// registry failure) or context cancellation mid-loop; per-token failures are
// reflected in Result and the event log instead.
func (c *Controller) RunSession(ctx context.Context, tokenFile string) (Result, error) {
	start := time.Now().UTC()
	metrics.IncSession()
	metrics.ResetFleetSize()
	c.log.Info("new harvesting session initiated", "at", start.Format(time.RFC3339))
	c.emit(ctx, eventlog.Event{Type: eventlog.TypeSessionStart, Timestamp: start, Status: eventlog.StatusSuccess})

	tokens, err := readTokens(tokenFile)
	if err != nil {
		c.emit(ctx, eventlog.Event{
			Type:      eventlog.TypeSessionStart,
			Timestamp: start,
			Status:    eventlog.StatusFailure,
			Reason:    fmt.Sprintf("File not found: %s", tokenFile),
		})
		return Result{}, fmt.Errorf("read token file %q: %w", tokenFile, err)
	}

	c.log.Info("clearing previous bot registrations")
	if err := c.store.Clear(ctx); err != nil {
		return Result{}, fmt.Errorf("clear registry: %w", err)
	}

	res := Result{Total: len(tokens)}
	c.log.Info("processing bot tokens", "count", res.Total)

	for i, token := range tokens {
		seq := i + 1
		botID := BotID(seq)
		simpleID := strconv.Itoa(seq)
		c.log.Info("deploying monitor", "bot_id", botID)

		h, err := c.launchOne(ctx, botID, simpleID, token)
		if err != nil {
			c.log.Error("failed to deploy monitor", "bot_id", botID, "err", err)
			metrics.IncLaunchFailure()
			c.emit(ctx, launchEvent(botID, eventlog.StatusFailure, err.Error()))
			continue
		}

		res.Launched++
		res.Handles = append(res.Handles, h)
		metrics.IncLaunchSuccess()
		c.emit(ctx, launchEvent(botID, eventlog.StatusSuccess, ""))

		// stagger launches; a shutdown signal interrupts the pause
		if i < len(tokens)-1 {
			if !sleepCtx(ctx, c.opts.Pace) {
				return res, ctx.Err()
			}
		}
	}

	c.log.Info("deployment complete",
		"launched", res.Launched, "total", res.Total)
	return res, nil
}

// launchOne registers the token and spawns its monitor. Any failure is
// isolated to this token.
func (c *Controller) launchOne(ctx context.Context, botID, simpleID, token string) (*launcher.Handle, error) {
	if _, err := c.store.Register(ctx, botID, token); err != nil {
		return nil, err
	}
	h, err := c.ln.Spawn(token, simpleID)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Wait blocks until the operator cancels ctx. The controller must outlive
// its monitors' launch phase: on some platforms child lifetime is coupled to
// the parent staying resident. On shutdown it optionally signals monitor
// process groups and writes a best-effort session_end marker.
func (c *Controller) Wait(ctx context.Context, res Result) {
	<-ctx.Done()
	c.log.Info("shutdown signal received, terminating harvester controller")
	if c.opts.KillOnShutdown {
		for _, h := range res.Handles {
			if err := h.SignalGroup(syscall.SIGTERM); err != nil {
				c.log.Warn("failed to signal monitor", "pid", h.PID, "err", err)
			}
		}
	}
	end := eventlog.New(eventlog.TypeSessionEnd, eventlog.StatusSuccess)
	_ = c.sink.Append(context.Background(), end)
}

// emit appends an audit event. Losing an audit line is less harmful than
// aborting a deployment, so failures only warn.
func (c *Controller) emit(ctx context.Context, e eventlog.Event) {
	if err := c.sink.Append(ctx, e); err != nil {
		metrics.IncLogWriteFailure()
		c.log.Warn("failed to write audit event", "event_type", string(e.Type), "err", err)
	}
}

func launchEvent(botID string, status eventlog.Status, reason string) eventlog.Event {
	e := eventlog.New(eventlog.TypeLaunch, status)
	e.BotID = botID
	e.Reason = reason
	return e
}

// readTokens returns the non-blank, whitespace-trimmed lines of path in
// file order.
func readTokens(path string) ([]string, error) {
	// #nosec G304 -- path is the operator's CLI argument
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var tokens []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if t := strings.TrimSpace(sc.Text()); t != "" {
			tokens = append(tokens, t)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
