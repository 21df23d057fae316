// Package eventbus publishes Model lifecycle and domain notifications
// to NATS so an external collaborator (a PFC analyst UI, an audit
// consumer) can observe a run without being wired into the simulation
// core directly.
package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

const (
	SubjectMaterialChanged   = "batchsim.material.changed"
	SubjectReactionHappened  = "batchsim.reaction.happened"
	SubjectExecutiveStarted  = "batchsim.executive.started"
	SubjectExecutiveFinished = "batchsim.executive.finished"
)

// Publisher wraps a NATS connection for the fixed set of subjects the
// Model publishes to. It has no knowledge of the domain types it
// serializes beyond what callers pass it.
type Publisher struct {
	nc *nats.Conn
}

// Connect dials url and returns a Publisher. Callers should Close it
// on shutdown.
func Connect(url string) (*Publisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("eventbus: connect: %w", err)
	}
	return &Publisher{nc: nc}, nil
}

// Close closes the underlying connection without draining it.
func (p *Publisher) Close() {
	p.nc.Close()
}

// MaterialChangedEvent is published whenever a watched mixture's
// contents or temperature change.
type MaterialChangedEvent struct {
	MixtureID string  `json:"mixture_id"`
	Kind      string  `json:"kind"`
	MassKg    float64 `json:"mass_kg"`
	TempK     float64 `json:"temp_k"`
}

// PublishMaterialChanged publishes ev to SubjectMaterialChanged.
func (p *Publisher) PublishMaterialChanged(ev MaterialChangedEvent) error {
	return p.publish(SubjectMaterialChanged, ev)
}

// ReactionHappenedEvent is published after a reaction step applies.
type ReactionHappenedEvent struct {
	MixtureID string  `json:"mixture_id"`
	Reaction  string  `json:"reaction"`
	ExtentKg  float64 `json:"extent_kg"`
}

// PublishReactionHappened publishes ev to SubjectReactionHappened.
func (p *Publisher) PublishReactionHappened(ev ReactionHappenedEvent) error {
	return p.publish(SubjectReactionHappened, ev)
}

// RunEvent carries the minimal payload for executive start/finish
// notifications.
type RunEvent struct {
	RunID string  `json:"run_id"`
	AtSec float64 `json:"at_sec"`
}

// PublishExecutiveStarted publishes ev to SubjectExecutiveStarted.
func (p *Publisher) PublishExecutiveStarted(ev RunEvent) error {
	return p.publish(SubjectExecutiveStarted, ev)
}

// PublishExecutiveFinished publishes ev to SubjectExecutiveFinished.
func (p *Publisher) PublishExecutiveFinished(ev RunEvent) error {
	return p.publish(SubjectExecutiveFinished, ev)
}

func (p *Publisher) publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("eventbus: marshal %s: %w", subject, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("eventbus: publish %s: %w", subject, err)
	}
	return nil
}
