// Package session holds the state of one interactive diagnosis: the computed
// result and the optional narrative override.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/shindan/internal/diagnosis"
)

var ErrNotFound = errors.New("session not found")

// State is owned by one session. Result is fixed at submission; Narrative is
// the only field that changes afterwards.
type State struct {
	ID        uuid.UUID        `json:"id"`
	Result    diagnosis.Result `json:"result"`
	Narrative string           `json:"narrative,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// New starts a session for a freshly computed result.
func New(res diagnosis.Result, now time.Time) *State {
	return &State{ID: uuid.New(), Result: res, UpdatedAt: now}
}

// EffectiveNarrative is the override when set, otherwise the archetype's
// default text.
func (s *State) EffectiveNarrative() string {
	if s.Narrative != "" {
		return s.Narrative
	}
	return s.Result.Archetype.DefaultText()
}

// Store persists session state between requests.
type Store interface {
	Save(ctx context.Context, s *State) error
	Get(ctx context.Context, id uuid.UUID) (*State, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
