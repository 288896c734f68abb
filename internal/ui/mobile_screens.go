package ui

import (
	"context"
	"fmt"
	"strings"

	"boardcheck/internal/driver"
	"boardcheck/pkg/logging"
)

// Android locators.
var (
	MobileLoginButton       = driver.UIAutomator(`new UiSelector().text("Iniciar sesión")`)
	MobileGoogleLoginButton = driver.UIAutomator(`new UiSelector().resourceId("com.trello:id/google_auth")`)
	BoardsGrid              = driver.UIAutomator(`new UiSelector().resourceId("BoardsLazyGrid")`)
	BoardTitle              = driver.ClassName("android.widget.TextView")
)

// ScrollIntoView builds a UiScrollable lookup that scrolls the first
// scrollable container until a node containing text is on screen.
func ScrollIntoView(text string) driver.Locator {
	escaped := strings.ReplaceAll(text, `"`, `\"`)
	return driver.UIAutomator(fmt.Sprintf(
		`new UiScrollable(new UiSelector().scrollable(true)).scrollIntoView(new UiSelector().textContains("%s"))`,
		escaped))
}

// MobileLoginScreen is the app's signed-out start screen.
type MobileLoginScreen struct {
	s *Surface
}

// NewMobileLoginScreen wraps s as the signed-out start screen.
func NewMobileLoginScreen(s *Surface) *MobileLoginScreen {
	return &MobileLoginScreen{s: s}
}

// TapLogin taps the log-in button.
func (m *MobileLoginScreen) TapLogin(ctx context.Context) error {
	return m.s.Click(ctx, MobileLoginButton)
}

// TapGoogleLogin taps the continue-with-Google button.
func (m *MobileLoginScreen) TapGoogleLogin(ctx context.Context) error {
	return m.s.Click(ctx, MobileGoogleLoginButton)
}

// MobileBoardsPage is the app's board grid.
type MobileBoardsPage struct {
	s *Surface
}

// NewMobileBoardsPage wraps s as the board grid.
func NewMobileBoardsPage(s *Surface) *MobileBoardsPage {
	return &MobileBoardsPage{s: s}
}

// Channel names the observer in cross-channel outcomes.
func (m *MobileBoardsPage) Channel() string { return "mobile" }

// ScrollToBoard asks the device to scroll name into view.
func (m *MobileBoardsPage) ScrollToBoard(ctx context.Context, name string) Observation {
	logging.Info("MobileBoardsPage", "Scrolling to board: %s", name)
	els, err := m.s.Driver.FindAll(ctx, ScrollIntoView(name))
	if err != nil {
		logging.Debug("MobileBoardsPage", "Scroll to %q failed: %v", name, err)
		return NotObserved
	}
	return ObservationOf(len(els) > 0)
}

func (m *MobileBoardsPage) visibleTitles(ctx context.Context) ([]string, error) {
	grids, err := m.s.Driver.FindAll(ctx, BoardsGrid)
	if err != nil {
		return nil, err
	}
	var titles []string
	for _, grid := range grids {
		els, err := grid.FindAll(BoardTitle)
		if err != nil {
			return nil, err
		}
		titles = append(titles, trimmedTexts(els)...)
	}
	return titles, nil
}

// WaitUntilBoardVisible scrolls to name, then polls the grid's titles until
// one matches or the mobile budget runs out.
func (m *MobileBoardsPage) WaitUntilBoardVisible(ctx context.Context, name string) Observation {
	m.ScrollToBoard(ctx, name)
	logging.Info("MobileBoardsPage", "Waiting until board [%s] is visible in list", name)

	err := m.s.poll(ctx, fmt.Sprintf("board %q", name), m.s.timeout(), func(ctx context.Context) (bool, error) {
		titles, err := m.visibleTitles(ctx)
		if err != nil {
			return false, err
		}
		return containsName(titles, name), nil
	})
	return ObservationOf(err == nil)
}
