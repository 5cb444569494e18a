// Package mqtt publishes completed assessments to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/healthpredictor/core/form"
	"github.com/kilianp07/healthpredictor/core/metrics"
	"github.com/kilianp07/healthpredictor/core/model"
	"github.com/kilianp07/healthpredictor/core/prediction"
	"github.com/kilianp07/healthpredictor/infra/logger"
	"github.com/kilianp07/healthpredictor/internal/eventbus"
)

// Assessment is the message published for each completed submission.
type Assessment struct {
	AssessmentID string          `json:"assessment_id"`
	SessionID    string          `json:"session_id"`
	Outcome      metrics.Outcome `json:"outcome"`
	Score        *float64        `json:"score,omitempty"`
	Category     string          `json:"category,omitempty"`
	Error        string          `json:"error,omitempty"`
	Input        model.FormInput `json:"input"`
	Timestamp    time.Time       `json:"timestamp"`
}

// NewAssessment builds the message for a terminal transition. ok is false
// for transitions that do not complete a submission.
func NewAssessment(t form.Transition) (Assessment, bool) {
	a := Assessment{
		AssessmentID: uuid.NewString(),
		SessionID:    t.SessionID,
		Input:        t.Snapshot.Input,
		Timestamp:    t.Time.UTC(),
	}
	switch t.To {
	case form.PhaseSucceeded:
		if t.Snapshot.Result == nil {
			return Assessment{}, false
		}
		score := t.Snapshot.Result.Score
		a.Outcome = metrics.OutcomeSuccess
		a.Score = &score
		a.Category = t.Snapshot.Result.Label
	case form.PhaseFailed:
		a.Outcome = metrics.OutcomeTransportError
		if prediction.IsApplicationError(t.Cause) {
			a.Outcome = metrics.OutcomeApplicationError
		}
		a.Error = t.Snapshot.Error
	default:
		return Assessment{}, false
	}
	return a, true
}

// PahoPublisher sends assessments using Eclipse Paho.
type PahoPublisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

// NewPahoPublisher connects to the MQTT broker.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_publisher")
	pp := &PahoPublisher{
		prefix:     strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	pp.cli = c
	return pp, nil
}

// Topic returns the topic assessments of a session are published on.
func (p *PahoPublisher) Topic(sessionID string) string {
	return p.prefix + "/" + sessionID
}

// PublishAssessment encodes a and publishes it, retrying with exponential
// backoff.
func (p *PahoPublisher) PublishAssessment(a Assessment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	topic := p.Topic(a.SessionID)
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Infof("published assessment %s to %s", a.AssessmentID, topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Handle publishes t when it completes a submission.
func (p *PahoPublisher) Handle(t form.Transition) {
	a, ok := NewAssessment(t)
	if !ok {
		return
	}
	if err := p.PublishAssessment(a); err != nil {
		p.logger.Errorf("assessment %s not published: %v", a.AssessmentID, err)
	}
}

// Run consumes transitions from bus until ctx is done or the bus closes.
func (p *PahoPublisher) Run(ctx context.Context, bus *eventbus.TypedBus[form.Transition]) {
	bus.Consume(ctx, p.Handle)
}

// Start subscribes to bus and publishes in the background. The returned
// channel is closed once the consumer stops.
func (p *PahoPublisher) Start(ctx context.Context, bus *eventbus.TypedBus[form.Transition]) <-chan struct{} {
	return bus.Start(ctx, p.Handle)
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoPublisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
