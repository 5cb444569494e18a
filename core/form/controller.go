package form

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/healthpredictor/core/logger"
	"github.com/kilianp07/healthpredictor/core/metrics"
	"github.com/kilianp07/healthpredictor/core/model"
	"github.com/kilianp07/healthpredictor/core/prediction"
)

// Controller coordinates form input, a prediction request and its outcome.
// It is safe for concurrent use; the prediction call runs without holding the
// lock so snapshots and field updates stay responsive while a request is out.
type Controller struct {
	predictor prediction.Predictor
	sessionID string
	log       logger.Logger
	recorder  metrics.PredictionRecorder
	publisher Publisher
	now       func() time.Time

	mu       sync.Mutex
	input    model.FormInput
	result   *model.Result
	errMsg   string
	inFlight bool
	phase    Phase
	seq      uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithSessionID tags snapshots, transitions and metrics with id.
func WithSessionID(id string) Option { return func(c *Controller) { c.sessionID = id } }

// WithLogger sets the logger used for transport failures and stale responses.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRecorder sets the sink receiving one event per completed request.
func WithRecorder(r metrics.PredictionRecorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithPublisher sets the transition publisher.
func WithPublisher(p Publisher) Option { return func(c *Controller) { c.publisher = p } }

// WithInput replaces the default form values.
func WithInput(in model.FormInput) Option { return func(c *Controller) { c.input = in } }

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// NewController returns an Idle controller holding the default form values.
func NewController(p prediction.Predictor, opts ...Option) *Controller {
	c := &Controller{
		predictor: p,
		log:       logger.Nop{},
		recorder:  metrics.NopSink{},
		now:       time.Now,
		input:     model.DefaultInput(),
		phase:     PhaseIdle,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SessionID returns the id given at construction.
func (c *Controller) SessionID() string { return c.sessionID }

// UpdateField parses raw as a number and stores it in the named field. Unknown
// names, unparseable text and values outside the field's domain are rejected
// with a *model.FieldError and leave the state unchanged.
func (c *Controller) UpdateField(name, raw string) error {
	f, ok := model.ParseField(name)
	if !ok {
		return &model.FieldError{Field: name, Err: model.ErrUnknownField}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return &model.FieldError{Field: name, Value: raw, Err: model.ErrNotNumber}
	}
	return c.Set(f, v)
}

// Set stores v in f after checking the field's domain.
func (c *Controller) Set(f model.Field, v float64) error {
	spec := f.Spec()
	if !spec.Allows(v) {
		return &model.FieldError{Field: spec.Key, Value: strconv.FormatFloat(v, 'f', -1, 64), Err: model.ErrOutOfRange}
	}
	c.mu.Lock()
	c.input = c.input.With(f, v)
	c.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		SessionID:   c.sessionID,
		Input:       c.input,
		Error:       c.errMsg,
		InFlight:    c.inFlight,
		Phase:       c.phase,
		Submissions: c.seq,
	}
	if c.result != nil {
		r := *c.result
		s.Result = &r
	}
	return s
}

// Submit clears the previous outcome, sends the current form to the predictor
// and blocks until it answers. Calling Submit while another submission is
// outstanding is allowed; the earlier request is not cancelled but its outcome
// is discarded once it arrives.
func (c *Controller) Submit(ctx context.Context) Snapshot {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	from := c.phase
	c.result = nil
	c.errMsg = ""
	c.inFlight = true
	c.phase = PhaseSubmitting
	in := c.input
	started := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(from, started, nil)

	begin := c.now()
	res, err := c.predictor.Predict(ctx, in)
	latency := c.now().Sub(begin)
	c.record(res, err, latency)

	c.mu.Lock()
	if seq != c.seq {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.log.Debugf("session %s: discarding outcome of superseded submission %d", c.sessionID, seq)
		return snap
	}
	if err != nil {
		c.errMsg = prediction.UserMessage(err)
		c.phase = PhaseFailed
	} else {
		r := res
		c.result = &r
		c.phase = PhaseSucceeded
	}
	c.inFlight = false
	done := c.snapshotLocked()
	c.mu.Unlock()

	if err != nil {
		var ae *prediction.ApplicationError
		if errors.As(err, &ae) {
			c.log.Warnf("session %s: prediction rejected: %s", c.sessionID, ae.Message)
		} else {
			c.log.Errorf("session %s: prediction failed: %v", c.sessionID, err)
		}
	} else if res.Category == model.RiskUnknown {
		c.log.Warnf("session %s: unrecognised risk category %q", c.sessionID, res.Label)
	}
	c.publish(PhaseSubmitting, done, err)
	return done
}

func (c *Controller) publish(from Phase, snap Snapshot, cause error) {
	if c.publisher == nil {
		return
	}
	c.publisher.Publish(Transition{
		SessionID: c.sessionID,
		From:      from,
		To:        snap.Phase,
		Snapshot:  snap,
		Cause:     cause,
		Time:      c.now(),
	})
}

func (c *Controller) record(res model.Result, err error, latency time.Duration) {
	ev := metrics.PredictionEvent{
		SessionID: c.sessionID,
		Outcome:   metrics.OutcomeSuccess,
		Latency:   latency,
		Time:      c.now(),
	}
	var ae *prediction.ApplicationError
	switch {
	case err == nil:
		ev.Score = res.Score
		ev.Category = res.Category
	case errors.As(err, &ae):
		ev.Outcome = metrics.OutcomeApplicationError
	default:
		ev.Outcome = metrics.OutcomeTransportError
	}
	if rerr := c.recorder.RecordPrediction(ev); rerr != nil {
		c.log.Warnf("record prediction metrics: %v", rerr)
	}
}
