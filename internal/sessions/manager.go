package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/macro-alpha/internal/common"
	"github.com/bobmcallan/macro-alpha/internal/wizard"
)

// ErrNotFound is returned for an unknown or expired session id.
var ErrNotFound = errors.New("session not found")

// Manager pairs the wizard engine with the store so transports only
// deal in session ids.
type Manager struct {
	engine *wizard.Engine
	store  *Store
	logger *common.Logger
}

// NewManager creates a Manager.
func NewManager(engine *wizard.Engine, store *Store, logger *common.Logger) *Manager {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Manager{engine: engine, store: store, logger: logger}
}

// Engine returns the wizard engine.
func (m *Manager) Engine() *wizard.Engine { return m.engine }

// Create starts a session and stores it.
func (m *Manager) Create(ctx context.Context, apiKey, model string) (*wizard.Session, error) {
	s, err := m.engine.NewSession(ctx, apiKey, model)
	if err != nil {
		return nil, err
	}
	m.store.Put(s)
	return s, nil
}

// Lookup returns a live session.
func (m *Manager) Lookup(id string) (*wizard.Session, error) {
	s, ok := m.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete drops a session.
func (m *Manager) Delete(id string) error {
	if !m.store.Delete(id) {
		return ErrNotFound
	}
	m.logger.Info().Str("session", id).Msg("Session deleted")
	return nil
}

// Len returns the number of stored sessions.
func (m *Manager) Len() int { return m.store.Len() }

// RunJanitor removes expired sessions every interval until ctx ends.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.store.Cleanup(); n > 0 {
				m.logger.Debug().Int("removed", n).Int("remaining", m.store.Len()).Msg("Expired sessions removed")
			}
		}
	}
}
