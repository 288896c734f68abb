package testing

import (
	"context"
	"fmt"
	"sync"

	"boardcheck/internal/config"
	"boardcheck/internal/session"
	"boardcheck/internal/trello"
	"boardcheck/internal/ui"
)

// BoardAPI is the board resource client used by actions.
// *trello.Client implements it.
type BoardAPI interface {
	Create(ctx context.Context, name string) (*trello.Board, error)
	Get(ctx context.Context, id string) (*trello.Board, error)
	UpdateName(ctx context.Context, id, newName string) (*trello.Board, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	StatusCode(ctx context.Context, id string) (int, error)
}

// Environment is everything one scenario execution owns. It is never
// shared between workers.
type Environment struct {
	Config   *config.Config
	Boards   BoardAPI
	Sessions *session.Set
	Waits    config.WaitSettings

	mu         sync.Mutex
	signIn     *ui.SignInPage
	boardsPage *ui.BoardsPage
}

// EnvironmentFactory builds a fresh Environment for a scenario.
type EnvironmentFactory func(scenario TestScenario) (*Environment, error)

// NewEnvironmentFactory returns a factory that gives every scenario its own
// session set on top of the shared configuration and board client.
func NewEnvironmentFactory(cfg *config.Config, boards BoardAPI) EnvironmentFactory {
	return func(TestScenario) (*Environment, error) {
		return NewEnvironment(cfg, boards, session.NewSet(cfg)), nil
	}
}

// NewEnvironment assembles an environment from explicit parts.
func NewEnvironment(cfg *config.Config, boards BoardAPI, sessions *session.Set) *Environment {
	return &Environment{
		Config:   cfg,
		Boards:   boards,
		Sessions: sessions,
		Waits:    cfg.Waits(),
	}
}

// WebSurface returns a surface over the web session.
func (e *Environment) WebSurface() (*ui.Surface, error) {
	drv, err := e.Sessions.Web.MustDriver()
	if err != nil {
		return nil, err
	}
	return ui.WebSurface(drv, e.Waits), nil
}

// MobileSurface returns a surface over the mobile session.
func (e *Environment) MobileSurface() (*ui.Surface, error) {
	drv, err := e.Sessions.Mobile.MustDriver()
	if err != nil {
		return nil, err
	}
	return ui.MobileSurface(drv, e.Waits), nil
}

func (e *Environment) setSignIn(p *ui.SignInPage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.signIn = p
}

// SignInPage returns the sign-in page reached by an earlier step, or a new
// one over the current web session.
func (e *Environment) SignInPage() (*ui.SignInPage, error) {
	e.mu.Lock()
	p := e.signIn
	e.mu.Unlock()
	if p != nil {
		return p, nil
	}
	s, err := e.WebSurface()
	if err != nil {
		return nil, err
	}
	return ui.NewSignInPage(s), nil
}

func (e *Environment) setBoardsPage(p *ui.BoardsPage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.boardsPage = p
}

// BoardsPage returns the board list reached by a sign-in, if any.
func (e *Environment) BoardsPage() (*ui.BoardsPage, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.boardsPage, e.boardsPage != nil
}

// Close releases the UI sessions.
func (e *Environment) Close() error {
	if err := e.Sessions.QuitAll(); err != nil {
		return fmt.Errorf("close sessions: %w", err)
	}
	return nil
}
