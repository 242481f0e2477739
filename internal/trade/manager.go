package trade

import (
	"errors"
	"pokemon-sysbot/internal/domain"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrSessionNotFound = errors.New("trade session not found")

// Manager keeps at most one live session per principal. Opening a new session closes
// the one it replaces.
type Manager struct {
	logger zerolog.Logger
	opts   []Option

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	session  *Session
	payloads []domain.BuildPayload
}

type Ticket struct {
	Snapshot
	Principal domain.Principal    `json:"-"`
	Builds    []domain.BuildPayload `json:"builds"`
}

func NewManager(logger zerolog.Logger, opts ...Option) *Manager {
	return &Manager{
		logger:   logger.With().Str("component", "trade_manager").Logger(),
		opts:     opts,
		sessions: make(map[string]*entry),
	}
}

// Open mints a code for the given queued builds and starts its countdown.
func (m *Manager) Open(p domain.Principal, builds []domain.BuildPayload) (Ticket, error) {
	id := uuid.New().String()
	log := m.logger.With().Str("principal", p.ID).Str("session_id", id).Logger()

	opts := append([]Option{OnExpire(func(s Snapshot) {
		log.Info().Msg("trade code expired")
	})}, m.opts...)

	s, err := Create(id, opts...)
	if err != nil {
		log.Error().Err(err).Msg("failed to create trade session")
		return Ticket{}, err
	}
	s.Start()

	m.mu.Lock()
	prev := m.sessions[p.ID]
	m.sessions[p.ID] = &entry{session: s, payloads: builds}
	m.mu.Unlock()

	if prev != nil {
		prev.session.Close()
		log.Debug().Str("replaced_session_id", prev.session.ID()).Msg("replaced trade session")
	}

	log.Info().Int("builds", len(builds)).Msg("trade session opened")
	return Ticket{Snapshot: s.Snapshot(), Principal: p, Builds: builds}, nil
}

func (m *Manager) lookup(principalID string) (*entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[principalID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (m *Manager) Get(p domain.Principal) (Ticket, error) {
	e, err := m.lookup(p.ID)
	if err != nil {
		return Ticket{}, err
	}
	return Ticket{Snapshot: e.session.Snapshot(), Principal: p, Builds: e.payloads}, nil
}

func (m *Manager) Regenerate(p domain.Principal) (Ticket, error) {
	e, err := m.lookup(p.ID)
	if err != nil {
		return Ticket{}, err
	}
	snap, err := e.session.Regenerate()
	if err != nil {
		return Ticket{Snapshot: snap, Principal: p, Builds: e.payloads}, err
	}
	m.logger.Info().Str("principal", p.ID).Str("session_id", snap.ID).Msg("trade code regenerated")
	return Ticket{Snapshot: snap, Principal: p, Builds: e.payloads}, nil
}

func (m *Manager) Close(p domain.Principal) error {
	m.mu.Lock()
	e, ok := m.sessions[p.ID]
	delete(m.sessions, p.ID)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	e.session.Close()
	m.logger.Debug().Str("principal", p.ID).Str("session_id", e.session.ID()).Msg("trade session closed")
	return nil
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range sessions {
		e.session.Close()
	}
	m.logger.Info().Int("count", len(sessions)).Msg("all trade sessions closed")
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
