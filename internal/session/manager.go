package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"boardcheck/internal/driver"
	"boardcheck/pkg/logging"

	"github.com/google/uuid"
)

// State is the lifecycle state of a Manager.
type State string

const (
	StateUninitialized State = "UNINITIALIZED"
	StateReady         State = "READY"
	StateClosed        State = "CLOSED"
)

// Channel names the surface a session drives.
type Channel string

const (
	ChannelWeb    Channel = "web"
	ChannelMobile Channel = "mobile"
)

// ErrNotInitialized is returned when a handle is requested from a manager
// that does not hold one.
var ErrNotInitialized = errors.New("session not initialized")

// Factory builds a driver for a selector such as "chrome" or "android".
type Factory func(ctx context.Context, selector string) (driver.Driver, error)

// Manager owns at most one driver handle for a single channel.
type Manager struct {
	mu              sync.RWMutex
	channel         Channel
	factory         Factory
	defaultSelector string

	drv      driver.Driver
	state    State
	id       string
	selector string
}

// NewManager creates an uninitialized manager. defaultSelector is used by
// Init when called with an empty selector.
func NewManager(channel Channel, factory Factory, defaultSelector string) *Manager {
	return &Manager{
		channel:         channel,
		factory:         factory,
		defaultSelector: defaultSelector,
		state:           StateUninitialized,
	}
}

// Init builds a new handle and moves to READY. A handle already held is
// closed first, so the manager never owns more than one; if building the
// replacement then fails the manager is left CLOSED with no id.
func (m *Manager) Init(ctx context.Context, selector string) error {
	if selector == "" {
		selector = m.defaultSelector
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.drv != nil {
		logging.Debug("Session", "Replacing %s session %s", m.channel, m.id)
		if err := m.drv.Close(); err != nil {
			logging.Warn("Session", "Closing previous %s session %s: %v", m.channel, m.id, err)
		}
		m.drv = nil
		m.state = StateClosed
		m.id = ""
	}

	drv, err := m.factory(ctx, selector)
	if err != nil {
		return fmt.Errorf("init %s session (%s): %w", m.channel, selector, err)
	}

	m.drv = drv
	m.state = StateReady
	m.id = uuid.New().String()
	m.selector = selector
	logging.Info("Session", "Started %s session %s using %s (%s)", m.channel, m.id, selector, drv.Engine())
	return nil
}

// Driver returns the held handle, or false when there is none.
func (m *Manager) Driver() (driver.Driver, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drv, m.drv != nil
}

// MustDriver returns the held handle or ErrNotInitialized.
func (m *Manager) MustDriver() (driver.Driver, error) {
	if drv, ok := m.Driver(); ok {
		return drv, nil
	}
	return nil, fmt.Errorf("%s: %w", m.channel, ErrNotInitialized)
}

// Quit releases the handle. Calling it on a manager that was never
// initialized is a no-op.
func (m *Manager) Quit() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.drv == nil {
		if m.state == StateReady {
			m.state = StateClosed
		}
		return nil
	}

	err := m.drv.Close()
	m.drv = nil
	m.state = StateClosed
	logging.Info("Session", "Closed %s session %s", m.channel, m.id)
	if err != nil {
		return fmt.Errorf("quit %s session %s: %w", m.channel, m.id, err)
	}
	return nil
}

// State reports the lifecycle state. READY always implies a held handle.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// ID is the identifier of the current or last session, empty before Init.
func (m *Manager) ID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.id
}

// Selector is the engine selector used by the last Init.
func (m *Manager) Selector() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selector
}

// Channel is the surface this manager drives.
func (m *Manager) Channel() Channel { return m.channel }
