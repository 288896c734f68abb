package testing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"boardcheck/internal/config"
	"boardcheck/internal/flows"
	"boardcheck/internal/session"
	"boardcheck/internal/trello"
	"boardcheck/internal/ui"
)

// Action names available to scenario steps.
const (
	ActionBoardCreate     = "board.create"
	ActionBoardGet        = "board.get"
	ActionBoardUpdateName = "board.update_name"
	ActionBoardDelete     = "board.delete"
	ActionBoardExists     = "board.exists"
	ActionBoardStatus     = "board.status"

	// ActionBoardGenerateName yields a fresh board name without calling the API
	ActionBoardGenerateName = "board.generate_name"

	ActionWebOpenHome         = "web.open_home"
	ActionWebLogin            = "web.login"
	ActionWebInvalidLogin     = "web.invalid_login"
	ActionWebErrorMessage     = "web.error_message"
	ActionWebWaitBoardVisible = "web.wait_board_visible"

	ActionMobileTapLogin         = "mobile.tap_login"
	ActionMobileTapGoogleLogin   = "mobile.tap_google_login"
	ActionMobileWaitBoardVisible = "mobile.wait_board_visible"

	ActionSessionReady = "session.ready"

	ActionFlowCreateAndObserve = "flow.create_and_observe"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// ErrUnknownAction is returned when a step names an action that is not registered.
var ErrUnknownAction = errors.New("unknown action")

// ActionFunc executes one step action against a scenario environment.
// Results are maps so that expectations can address their fields.
type ActionFunc func(ctx context.Context, env *Environment, args map[string]interface{}) (interface{}, error)

// ActionRegistry maps action names to their implementation.
type ActionRegistry map[string]ActionFunc

// DefaultActions returns the built-in action set.
func DefaultActions() ActionRegistry {
	return ActionRegistry{
		ActionBoardCreate:     boardCreate,
		ActionBoardGet:        boardGet,
		ActionBoardUpdateName: boardUpdateName,
		ActionBoardDelete:     boardDelete,
		ActionBoardExists:     boardExists,
		ActionBoardStatus:     boardStatus,

		ActionBoardGenerateName: boardGenerateName,

		ActionWebOpenHome:         webOpenHome,
		ActionWebLogin:            webLogin,
		ActionWebInvalidLogin:     webInvalidLogin,
		ActionWebErrorMessage:     webErrorMessage,
		ActionWebWaitBoardVisible: webWaitBoardVisible,

		ActionMobileTapLogin:         mobileTapLogin,
		ActionMobileTapGoogleLogin:   mobileTapGoogleLogin,
		ActionMobileWaitBoardVisible: mobileWaitBoardVisible,

		ActionSessionReady: sessionReady,

		ActionFlowCreateAndObserve: flowCreateAndObserve,
	}
}

// Has reports whether name is registered.
func (r ActionRegistry) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Names returns the registered action names, sorted.
func (r ActionRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute dispatches to the named action.
func (r ActionRegistry) Execute(ctx context.Context, env *Environment, name string, args map[string]interface{}) (interface{}, error) {
	fn, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return fn(ctx, env, args)
}

func stringArg(args map[string]interface{}, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s argument is required", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s argument must be a string, got %T", key, raw)
	}
	return s, nil
}

func optionalString(args map[string]interface{}, key, def string) string {
	if s, ok := args[key].(string); ok && s != "" {
		return s
	}
	return def
}

func stringList(args map[string]interface{}, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Split(v, ",")
	}
	return nil
}

func observationResult(name string, obs ui.Observation) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"observed":    obs == ui.Observed,
		"observation": obs.String(),
	}
}

// board.*

func boardGenerateName(_ context.Context, _ *Environment, args map[string]interface{}) (interface{}, error) {
	prefix := optionalString(args, "prefix", trello.DefaultBoardPrefix)
	return map[string]interface{}{"name": trello.GenerateBoardName(prefix, timeNow())}, nil
}

func boardCreate(ctx context.Context, env *Environment, args map[string]interface{}) (interface{}, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	b, err := env.Boards.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return b.AsMap(), nil
}

func boardGet(ctx context.Context, env *Environment, args map[string]interface{}) (interface{}, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	b, err := env.Boards.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return b.AsMap(), nil
}

func boardUpdateName(ctx context.Context, env *Environment, args map[string]interface{}) (interface{}, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	b, err := env.Boards.UpdateName(ctx, id, name)
	if err != nil {
		return nil, err
	}
	return b.AsMap(), nil
}

func boardDelete(ctx context.Context, env *Environment, args map[string]interface{}) (interface{}, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	if err := env.Boards.Delete(ctx, id); err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": id, "deleted": true}, nil
}

func boardExists(ctx context.Context, env *Environment, args map[string]interface{}) (interface{}, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	ok, err := env.Boards.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": id, "exists": ok}, nil
}

func boardStatus(ctx context.Context, env *Environment, args map[string]interface{}) (interface{}, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	code, err := env.Boards.StatusCode(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": id, "status": code}, nil
}

// web.*

func webOpenHome(ctx context.Context, env *Environment, args map[string]interface{}) (interface{}, error) {
	s, err := env.WebSurface()
	if err != nil {
		return nil, err
	}
	url := optionalString(args, "url", flows.WebLoginFromConfig(env.Config).HomeURL)
	home := ui.NewHomePage(s, url)
	if err := home.Open(ctx); err != nil {
		return nil, err
	}
	signIn, err := home.GoToSignIn(ctx)
	if err != nil {
		return nil, err
	}
	env.setSignIn(signIn)
	return map[string]interface{}{"url": url}, nil
}

func webLogin(ctx context.Context, env *Environment, args map[string]interface{}) (interface{}, error) {
	signIn, err := env.SignInPage()
	if err != nil {
		return nil, err
	}
	username := optionalString(args, "username", env.Config.GetOr(config.KeyUsername, ""))
	password := optionalString(args, "password", env.Config.GetOr(config.KeyPassword, ""))
	boards, err := signIn.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	env.setBoardsPage(boards)
	return map[string]interface{}{"username": username, "signed_in": true}, nil
}

func webInvalidLogin(ctx context.Context, env *Environment, args map[string]interface{}) (interface{}, error) {
	signIn, err := env.SignInPage()
	if err != nil {
		return nil, err
	}
	username, err := stringArg(args, "username")
	if err != nil {
		return nil, err
	}
	password, err := stringArg(args, "password")
	if err != nil {
		return nil, err
	}
	if err := signIn.InvalidLogin(ctx, username, password); err != nil {
		return nil, err
	}
	return map[string]interface{}{"username": username, "submitted": true}, nil
}

func webErrorMessage(ctx context.Context, env *Environment, _ map[string]interface{}) (interface{}, error) {
	signIn, err := env.SignInPage()
	if err != nil {
		return nil, err
	}
	obs := signIn.ErrorVisible(ctx)
	result := map[string]interface{}{"observed": obs == ui.Observed, "message": ""}
	if obs == ui.Observed {
		msg, err := signIn.ErrorMessage(ctx)
		if err != nil {
			return nil, err
		}
		result["message"] = msg
	}
	return result, nil
}

func webWaitBoardVisible(ctx context.Context, env *Environment, args map[string]interface{}) (interface{}, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	boards, err := webBoards(ctx, env)
	if err != nil {
		return nil, err
	}
	return observationResult(name, boards.WaitUntilBoardVisible(ctx, name)), nil
}

// webBoards returns the board list, signing in first when no earlier step did.
func webBoards(ctx context.Context, env *Environment) (*ui.BoardsPage, error) {
	if boards, ok := env.BoardsPage(); ok {
		return boards, nil
	}
	s, err := env.WebSurface()
	if err != nil {
		return nil, err
	}
	boards, err := flows.LoginAndOpenBoards(ctx, s, flows.WebLoginFromConfig(env.Config))
	if err != nil {
		return nil, err
	}
	env.setBoardsPage(boards)
	return boards, nil
}

// mobile.*

func mobileTapLogin(ctx context.Context, env *Environment, _ map[string]interface{}) (interface{}, error) {
	s, err := env.MobileSurface()
	if err != nil {
		return nil, err
	}
	if err := ui.NewMobileLoginScreen(s).TapLogin(ctx); err != nil {
		return nil, err
	}
	return map[string]interface{}{"tapped": "login"}, nil
}

func mobileTapGoogleLogin(ctx context.Context, env *Environment, _ map[string]interface{}) (interface{}, error) {
	s, err := env.MobileSurface()
	if err != nil {
		return nil, err
	}
	if err := ui.NewMobileLoginScreen(s).TapGoogleLogin(ctx); err != nil {
		return nil, err
	}
	return map[string]interface{}{"tapped": "google_login"}, nil
}

func mobileWaitBoardVisible(ctx context.Context, env *Environment, args map[string]interface{}) (interface{}, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	s, err := env.MobileSurface()
	if err != nil {
		return nil, err
	}
	return observationResult(name, ui.NewMobileBoardsPage(s).WaitUntilBoardVisible(ctx, name)), nil
}

// session.*

func sessionReady(_ context.Context, env *Environment, args map[string]interface{}) (interface{}, error) {
	ch, err := stringArg(args, "channel")
	if err != nil {
		return nil, err
	}
	m := env.Sessions.Manager(session.Channel(ch))
	if m == nil {
		return nil, fmt.Errorf("unknown channel %q", ch)
	}
	if _, err := m.MustDriver(); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"channel": ch,
		"ready":   m.State() == session.StateReady,
		"state":   string(m.State()),
		"id":      m.ID(),
	}, nil
}

// flow.*

func flowCreateAndObserve(ctx context.Context, env *Environment, args map[string]interface{}) (interface{}, error) {
	name := optionalString(args, "name", trello.GenerateBoardName(trello.DefaultBoardPrefix, timeNow()))
	channels := stringList(args, "channels")
	if len(channels) == 0 {
		channels = activeChannels(env.Sessions)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("no UI channel to observe board %q: %w", name, session.ErrNotInitialized)
	}

	var observers []flows.Observer
	for _, ch := range channels {
		switch session.Channel(strings.TrimSpace(ch)) {
		case session.ChannelWeb:
			boards, err := webBoards(ctx, env)
			if err != nil {
				return nil, err
			}
			observers = append(observers, boards)
		case session.ChannelMobile:
			s, err := env.MobileSurface()
			if err != nil {
				return nil, err
			}
			observers = append(observers, ui.NewMobileBoardsPage(s))
		default:
			return nil, fmt.Errorf("unknown channel %q", ch)
		}
	}

	out, err := flows.CreateAndObserve(ctx, env.Boards, name, observers...)
	if err != nil {
		return nil, err
	}
	result := out.AsMap()
	result["missing"] = out.Missing()
	result["observed"] = out.Consistent()
	return result, nil
}

func activeChannels(set *session.Set) []string {
	var out []string
	for _, ch := range []session.Channel{session.ChannelWeb, session.ChannelMobile} {
		if set.Manager(ch).State() == session.StateReady {
			out = append(out, string(ch))
		}
	}
	return out
}
