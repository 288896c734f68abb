// Package flows composes the REST client and page objects into
// cross-channel checks: a board created through the API must show up in
// every UI channel that is watching.
package flows

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"boardcheck/internal/config"
	"boardcheck/internal/trello"
	"boardcheck/internal/ui"
	"boardcheck/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// BoardCreator is the part of the board client the flows need.
type BoardCreator interface {
	Create(ctx context.Context, name string) (*trello.Board, error)
}

// Observer waits for a board name on one UI channel.
// *ui.BoardsPage and *ui.MobileBoardsPage implement it.
type Observer interface {
	Channel() string
	WaitUntilBoardVisible(ctx context.Context, name string) ui.Observation
}

// WebLogin holds what the web sign-in flow needs.
type WebLogin struct {
	HomeURL  string
	Username string
	Password string
}

// WebLoginFromConfig reads the home URL and account from cfg.
func WebLoginFromConfig(cfg *config.Config) WebLogin {
	return WebLogin{
		HomeURL:  cfg.GetOr(config.KeyHomeURL, "https://trello.com/home"),
		Username: cfg.GetOr(config.KeyUsername, ""),
		Password: cfg.GetOr(config.KeyPassword, ""),
	}
}

// LoginAndOpenBoards opens the home page, signs in and returns the board list.
func LoginAndOpenBoards(ctx context.Context, s *ui.Surface, login WebLogin) (*ui.BoardsPage, error) {
	home := ui.NewHomePage(s, login.HomeURL)
	if err := home.Open(ctx); err != nil {
		return nil, err
	}
	signIn, err := home.GoToSignIn(ctx)
	if err != nil {
		return nil, err
	}
	boards, err := signIn.Login(ctx, login.Username, login.Password)
	if err != nil {
		return nil, fmt.Errorf("sign in as %s: %w", login.Username, err)
	}
	return boards, nil
}

// Outcome is the result of a cross-channel check.
type Outcome struct {
	Board        *trello.Board
	Observations map[string]ui.Observation
}

// Consistent reports whether every channel observed the board.
func (o *Outcome) Consistent() bool {
	if len(o.Observations) == 0 {
		return false
	}
	for _, obs := range o.Observations {
		if obs != ui.Observed {
			return false
		}
	}
	return true
}

// Missing lists the channels that did not observe the board, sorted.
func (o *Outcome) Missing() []string {
	var missing []string
	for ch, obs := range o.Observations {
		if obs != ui.Observed {
			missing = append(missing, ch)
		}
	}
	sort.Strings(missing)
	return missing
}

// AsMap renders the outcome for scenario expectations.
func (o *Outcome) AsMap() map[string]interface{} {
	obs := make(map[string]interface{}, len(o.Observations))
	for ch, v := range o.Observations {
		obs[ch] = v.String()
	}
	return map[string]interface{}{
		"board":        o.Board.AsMap(),
		"observations": obs,
		"consistent":   o.Consistent(),
	}
}

// CreateAndObserve creates a board and has every observer wait for it
// concurrently. A channel that never shows the name is recorded as
// NotObserved; only the create call can fail the flow.
func CreateAndObserve(ctx context.Context, creator BoardCreator, name string, observers ...Observer) (*Outcome, error) {
	board, err := creator.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create board %q: %w", name, err)
	}
	logging.Info("Flows", "Board created: %s (%s)", board.Name, board.ID)

	out := &Outcome{Board: board, Observations: make(map[string]ui.Observation, len(observers))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, obs := range observers {
		g.Go(func() error {
			seen := obs.WaitUntilBoardVisible(gctx, board.Name)
			logging.Info("Flows", "Board %q on %s: %s", board.Name, obs.Channel(), seen)
			mu.Lock()
			out.Observations[obs.Channel()] = seen
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
