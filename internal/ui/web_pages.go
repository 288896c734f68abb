package ui

import (
	"context"
	"fmt"

	"boardcheck/internal/driver"
	"boardcheck/pkg/logging"
)

// Web locators.
var (
	LoginLink        = driver.CSS(`a[href*="/login"]`)
	UsernameField    = driver.ID("username-uid1")
	PasswordField    = driver.ID("password")
	ContinueButton   = driver.ID("login-submit")
	MFADismissButton = driver.ID("mfa-promote-dismiss")
	ErrorLabel       = driver.CSS(".error-message")
	BoardTiles       = driver.CSS("div.pIQ5_g4p0XJopD")
)

// HomePage is the public Trello landing page.
type HomePage struct {
	s   *Surface
	url string
}

// NewHomePage binds the landing page at homeURL to s.
func NewHomePage(s *Surface, homeURL string) *HomePage {
	return &HomePage{s: s, url: homeURL}
}

// Open navigates to the landing page.
func (p *HomePage) Open(ctx context.Context) error {
	logging.Debug("HomePage", "Opening %s", p.url)
	if err := p.s.Navigate(ctx, p.url); err != nil {
		return fmt.Errorf("open home page: %w", err)
	}
	return nil
}

// GoToSignIn follows the log-in link. Signed-out sessions are sometimes
// redirected straight to the sign-in form, in which case nothing is clicked.
func (p *HomePage) GoToSignIn(ctx context.Context) (*SignInPage, error) {
	idx, err := p.s.FirstVisible(ctx, LoginLink, UsernameField)
	if err != nil {
		return nil, fmt.Errorf("reach sign-in: %w", err)
	}
	if idx == 0 {
		if err := p.s.Click(ctx, LoginLink); err != nil {
			return nil, err
		}
	}
	return NewSignInPage(p.s), nil
}

// SignInPage is the Atlassian account form.
type SignInPage struct {
	s *Surface
}

// NewSignInPage wraps s as the sign-in form.
func NewSignInPage(s *Surface) *SignInPage {
	return &SignInPage{s: s}
}

func (p *SignInPage) enterCredentials(ctx context.Context, username, password string) error {
	if err := p.s.Type(ctx, UsernameField, username); err != nil {
		return fmt.Errorf("enter username: %w", err)
	}
	if err := p.s.Click(ctx, ContinueButton); err != nil {
		return fmt.Errorf("continue after username: %w", err)
	}
	if err := p.s.Type(ctx, PasswordField, password); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}
	if err := p.s.Click(ctx, ContinueButton); err != nil {
		return fmt.Errorf("submit password: %w", err)
	}
	return nil
}

// Login signs in and dismisses the two-step verification prompt when it
// shows up.
func (p *SignInPage) Login(ctx context.Context, username, password string) (*BoardsPage, error) {
	if err := p.enterCredentials(ctx, username, password); err != nil {
		return nil, err
	}

	if p.s.Probe(ctx, MFADismissButton) == Observed {
		if err := p.s.Click(ctx, MFADismissButton); err != nil {
			return nil, fmt.Errorf("dismiss two-step prompt: %w", err)
		}
	} else {
		logging.Debug("SignInPage", "Two-step verification prompt did not appear, continuing")
	}
	return NewBoardsPage(p.s), nil
}

// InvalidLogin submits credentials expected to be rejected. It does not
// wait for any post-login state.
func (p *SignInPage) InvalidLogin(ctx context.Context, username, password string) error {
	return p.enterCredentials(ctx, username, password)
}

// ErrorMessage returns the trimmed sign-in error text.
func (p *SignInPage) ErrorMessage(ctx context.Context) (string, error) {
	return p.s.TextOf(ctx, ErrorLabel)
}

// ErrorVisible probes for the sign-in error label.
func (p *SignInPage) ErrorVisible(ctx context.Context) Observation {
	return p.s.Probe(ctx, ErrorLabel)
}

// BoardsPage is the signed-in board list.
type BoardsPage struct {
	s *Surface
}

// NewBoardsPage wraps s as the signed-in board list.
func NewBoardsPage(s *Surface) *BoardsPage {
	return &BoardsPage{s: s}
}

// Channel names the observer in cross-channel outcomes.
func (p *BoardsPage) Channel() string { return "web" }

func (p *BoardsPage) currentNames(ctx context.Context) ([]string, error) {
	tiles, err := p.s.Driver.FindAll(ctx, BoardTiles)
	if err != nil {
		return nil, err
	}
	return trimmedTexts(tiles), nil
}

// BoardNames waits for the tiles to render and returns their names.
func (p *BoardsPage) BoardNames(ctx context.Context) ([]string, error) {
	if _, err := p.s.WaitVisible(ctx, BoardTiles); err != nil {
		return nil, err
	}
	return p.currentNames(ctx)
}

// IsBoardVisible checks the rendered tiles once.
func (p *BoardsPage) IsBoardVisible(ctx context.Context, name string) (bool, error) {
	names, err := p.BoardNames(ctx)
	if err != nil {
		return false, err
	}
	return containsName(names, name), nil
}

// WaitUntilBoardVisible re-reads the tiles until one carries name.
func (p *BoardsPage) WaitUntilBoardVisible(ctx context.Context, name string) Observation {
	err := p.s.poll(ctx, fmt.Sprintf("board %q", name), p.s.timeout(), func(ctx context.Context) (bool, error) {
		names, err := p.currentNames(ctx)
		if err != nil {
			return false, err
		}
		return containsName(names, name), nil
	})
	if err != nil {
		logging.Debug("BoardsPage", "Board %q not observed: %v", name, err)
	}
	return ObservationOf(err == nil)
}
