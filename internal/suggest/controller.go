package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	DefaultDebounce    = 800 * time.Millisecond
	DefaultSendTimeout = 5 * time.Second
)

var ErrNoSender = errors.New("suggest: no channel configured")

// Verdict is the outcome of matching a response against the outstanding request.
type Verdict int

const (
	// VerdictStale means the response answers a superseded or already
	// resolved request. It is dropped without side effects.
	VerdictStale Verdict = iota
	// VerdictMoved means the response answers the current request but the
	// caret left the anchor or the document was edited. The request is
	// consumed.
	VerdictMoved
	// VerdictCurrent means the response may be displayed.
	VerdictCurrent
)

type debounceMsg struct {
	generation uint64
}

type sendResultMsg struct {
	version uint64
	err     error
}

type snapshot struct {
	text  string
	caret Position
}

// Controller debounces triggers and owns the request version counter.
type Controller struct {
	sender      Sender
	window      time.Duration
	sendTimeout time.Duration
	contextID   int
	log         *slog.Logger

	version    uint64
	claimed    bool
	generation uint64
	pending    *snapshot
	inFlight   *Request
}

type ControllerOption func(*Controller)

func WithDebounce(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.window = d
		}
	}
}

func WithSendTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.sendTimeout = d
		}
	}
}

func WithContextID(id int) ControllerOption {
	return func(c *Controller) {
		c.contextID = id
	}
}

func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func NewController(sender Sender, opts ...ControllerOption) *Controller {
	c := &Controller{
		sender:      sender,
		window:      DefaultDebounce,
		sendTimeout: DefaultSendTimeout,
		log:         slog.Default(),
		// Version 0 counts as used so the first dispatch is version 1.
		claimed: true,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Version is the only version a response may carry to be accepted.
func (c *Controller) Version() uint64 {
	return c.version
}

func (c *Controller) Debounce() time.Duration {
	return c.window
}

// Outstanding returns the dispatched request still awaiting its answer.
func (c *Controller) Outstanding() (Request, bool) {
	if c.inFlight == nil {
		return Request{}, false
	}
	return *c.inFlight, true
}

// Busy reports whether a request is in flight or a trigger is waiting out
// its quiet window.
func (c *Controller) Busy() bool {
	return c.inFlight != nil || c.pending != nil
}

func (c *Controller) Configure(opts ...ControllerOption) {
	for _, o := range opts {
		o(c)
	}
}

// Trigger records the latest buffer snapshot and restarts the quiet window.
// Any outstanding request is invalidated straight away.
func (c *Controller) Trigger(text string, caret Position) tea.Cmd {
	if c.inFlight != nil {
		c.invalidate()
	}
	c.pending = &snapshot{text: text, caret: caret}
	c.generation++
	gen := c.generation
	return tea.Tick(c.window, func(time.Time) tea.Msg {
		return debounceMsg{generation: gen}
	})
}

// Cancel invalidates the outstanding request without sending a new one and
// abandons a trigger still inside its quiet window.
func (c *Controller) Cancel() {
	c.invalidate()
	c.pending = nil
	c.generation++
}

// Resolve matches a response against the outstanding request and the
// surface as it is now. Versions are compared for equality only. The
// document must still read exactly as it did when the request was built.
func (c *Controller) Resolve(s Suggestion, caret Position, text string) Verdict {
	if c.inFlight == nil || s.OriginVersion != c.version {
		return VerdictStale
	}
	req := *c.inFlight
	c.inFlight = nil
	if s.Anchor != caret || s.Anchor != req.Anchor {
		return VerdictMoved
	}
	if !req.Matches(text) {
		return VerdictMoved
	}
	return VerdictCurrent
}

// fire dispatches the pending snapshot if msg belongs to the latest trigger.
func (c *Controller) fire(msg debounceMsg) (Request, tea.Cmd, bool) {
	if msg.generation != c.generation || c.pending == nil {
		return Request{}, nil, false
	}
	snap := c.pending
	c.pending = nil

	prefix, suffix := Extract(snap.text, snap.caret)
	req := Request{
		Version:   c.claim(),
		Prefix:    prefix,
		Suffix:    suffix,
		Anchor:    snap.caret,
		ContextID: c.contextID,
	}
	c.inFlight = &req
	return req, c.send(req), true
}

// sendFailed clears the request if the failure belongs to the current one.
func (c *Controller) sendFailed(version uint64, err error) bool {
	c.log.Warn("suggestion request failed", "version", version, "error", err)
	if c.inFlight == nil || c.inFlight.Version != version {
		return false
	}
	c.inFlight = nil
	return true
}

func (c *Controller) send(req Request) tea.Cmd {
	sender, timeout := c.sender, c.sendTimeout
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = sendResultMsg{version: req.Version, err: fmt.Errorf("send panicked: %v", r)}
			}
		}()
		if sender == nil {
			return sendResultMsg{version: req.Version, err: ErrNoSender}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return sendResultMsg{version: req.Version, err: sender.Send(ctx, req)}
	}
}

// claim hands out the version for a new dispatch. A number bumped by
// invalidate was never sent, so it is reused instead of skipped.
func (c *Controller) claim() uint64 {
	if c.claimed {
		c.version++
	}
	c.claimed = true
	return c.version
}

func (c *Controller) invalidate() {
	c.version++
	c.claimed = false
	c.inFlight = nil
}
