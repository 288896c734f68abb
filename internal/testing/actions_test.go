package testing

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"boardcheck/internal/driver/drivertest"
	"boardcheck/internal/session"
	"boardcheck/internal/trello"
	"boardcheck/internal/ui"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readyEnv builds an environment over f with the given sessions started.
func readyEnv(t *testing.T, f *fakeDrivers, boards BoardAPI, channels ...session.Channel) *Environment {
	t.Helper()
	env := NewEnvironment(fastConfig(nil), boards, session.NewSetWith(f.webFactory, f.mobileFactory, "chrome"))
	for _, ch := range channels {
		require.NoError(t, env.Sessions.Init(context.Background(), ch, ""))
	}
	t.Cleanup(func() { _ = env.Close() })
	return env
}

// signInFlow registers the web elements needed to reach the board list.
func signInFlow(d *drivertest.Driver, boards ...string) {
	d.Set(ui.LoginLink, drivertest.NewElement("Log in"))
	d.Set(ui.UsernameField, drivertest.NewElement(""))
	d.Set(ui.PasswordField, drivertest.NewElement(""))
	d.Set(ui.ContinueButton, drivertest.NewElement("Continue"))
	var tiles []*drivertest.Element
	for _, name := range boards {
		tiles = append(tiles, drivertest.NewElement(name))
	}
	d.Set(ui.BoardTiles, tiles...)
}

func mobileGrid(d *drivertest.Driver, boards ...string) {
	var titles []*drivertest.Element
	for _, name := range boards {
		titles = append(titles, drivertest.NewElement(name))
	}
	d.Set(ui.BoardsGrid, drivertest.NewElement("").WithChildren(ui.BoardTitle, titles...))
}

func TestDefaultActions_NamesMatchArgSpecs(t *testing.T) {
	names := DefaultActions().Names()
	assert.Len(t, names, len(ActionArgs))
	for _, name := range names {
		_, ok := ActionArgs[name]
		assert.True(t, ok, "no argument spec for %s", name)
	}
}

func TestActionRegistry_UnknownAction(t *testing.T) {
	_, err := DefaultActions().Execute(context.Background(), nil, "board.archive", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownAction))
	assert.Contains(t, err.Error(), "board.archive")
}

func TestBoardActions(t *testing.T) {
	srv, client := newBoardServer(t)
	env := readyEnv(t, newFakeDrivers(), client)
	actions := DefaultActions()
	ctx := context.Background()

	created, err := actions.Execute(ctx, env, ActionBoardCreate, map[string]interface{}{"name": "QA"})
	require.NoError(t, err)
	board := created.(map[string]interface{})
	id := board["id"].(string)
	assert.Equal(t, "QA", board["name"])
	assert.Equal(t, 1, srv.BoardCount())

	renamed, err := actions.Execute(ctx, env, ActionBoardUpdateName, map[string]interface{}{"id": id, "name": "QA-2"})
	require.NoError(t, err)
	assert.Equal(t, "QA-2", renamed.(map[string]interface{})["name"])

	status, err := actions.Execute(ctx, env, ActionBoardStatus, map[string]interface{}{"id": id})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status.(map[string]interface{})["status"])

	deleted, err := actions.Execute(ctx, env, ActionBoardDelete, map[string]interface{}{"id": id})
	require.NoError(t, err)
	assert.Equal(t, true, deleted.(map[string]interface{})["deleted"])

	exists, err := actions.Execute(ctx, env, ActionBoardExists, map[string]interface{}{"id": id})
	require.NoError(t, err)
	assert.Equal(t, false, exists.(map[string]interface{})["exists"])

	_, err = actions.Execute(ctx, env, ActionBoardGet, map[string]interface{}{"id": id})
	var boardErr *trello.BoardError
	require.ErrorAs(t, err, &boardErr)
	assert.Equal(t, http.StatusNotFound, boardErr.StatusCode)
}

func TestBoardActions_ArgumentErrors(t *testing.T) {
	_, client := newBoardServer(t)
	env := readyEnv(t, newFakeDrivers(), client)

	_, err := DefaultActions().Execute(context.Background(), env, ActionBoardGet, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id argument is required")

	_, err = DefaultActions().Execute(context.Background(), env, ActionBoardCreate, map[string]interface{}{"name": 12})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a string")
}

func TestEmbeddedAPIScenarios(t *testing.T) {
	srv, client := newBoardServer(t)
	r, _ := newRunner(t, newFakeDrivers().envFactory(fastConfig(nil), client), nil)

	scenarios, err := newLoader().LoadScenarios("")
	require.NoError(t, err)

	cfg := runConfig()
	cfg.Category = CategoryAPI
	result, err := r.Run(context.Background(), cfg, scenarios)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalScenarios)
	for _, sr := range result.ScenarioResults {
		assert.Equal(t, ResultPassed, sr.Result, "%s: %s", sr.Scenario.Name, sr.Error)
		assert.Empty(t, sr.Screenshot)
	}
	assert.True(t, result.Succeeded())
	assert.Zero(t, srv.BoardCount(), "every scenario removes what it created")
}

func TestEmbeddedAPIScenarios_ServerErrors(t *testing.T) {
	srv, client := newBoardServer(t)
	srv.ForceStatus(http.StatusInternalServerError)
	r, _ := newRunner(t, newFakeDrivers().envFactory(fastConfig(nil), client), nil)

	scenarios, err := newLoader().LoadScenarios("")
	require.NoError(t, err)

	cfg := runConfig()
	cfg.Scenario = "api-board-lifecycle"
	result, err := r.Run(context.Background(), cfg, scenarios)
	require.NoError(t, err)

	require.Len(t, result.ScenarioResults, 1)
	sr := result.ScenarioResults[0]
	assert.Equal(t, ResultError, sr.Result)
	assert.Contains(t, sr.Error, "status: 500")

	var ids []string
	for _, step := range sr.StepResults {
		ids = append(ids, step.Step.ID)
	}
	assert.Equal(t, []string{"generate-name", "create-board", "delete-board", "board-is-gone"}, ids,
		"read is skipped after the failed create, cleanup still runs")
	assert.Equal(t, ResultError, sr.StepResults[1].Result)
}

func TestEmbeddedAPIScenarios_LifecycleCleansUpAfterFailedRead(t *testing.T) {
	srv, client := newBoardServer(t)
	actions := DefaultActions()
	actions[ActionBoardGet] = func(context.Context, *Environment, map[string]interface{}) (interface{}, error) {
		return map[string]interface{}{"name": "someone-else"}, nil
	}
	r, _ := newRunner(t, newFakeDrivers().envFactory(fastConfig(nil), client), actions)

	scenarios, err := newLoader().LoadScenarios("")
	require.NoError(t, err)

	cfg := runConfig()
	cfg.Scenario = "api-board-lifecycle"
	result, err := r.Run(context.Background(), cfg, scenarios)
	require.NoError(t, err)

	require.Len(t, result.ScenarioResults, 1)
	assert.Equal(t, ResultFailed, result.ScenarioResults[0].Result)
	assert.Zero(t, srv.BoardCount(), "cleanup deletes the board even when a step fails")
}

func TestBoardGenerateName(t *testing.T) {
	orig := timeNow
	timeNow = func() time.Time { return time.UnixMilli(1700000000000) }
	t.Cleanup(func() { timeNow = orig })

	out, err := DefaultActions().Execute(context.Background(), nil, ActionBoardGenerateName, nil)
	require.NoError(t, err)
	assert.Equal(t, "PinAppBoard-1700000000000", out.(map[string]interface{})["name"])

	out, err = DefaultActions().Execute(context.Background(), nil, ActionBoardGenerateName, map[string]interface{}{"prefix": "QA"})
	require.NoError(t, err)
	assert.Equal(t, "QA-1700000000000", out.(map[string]interface{})["name"])
}

func TestEmbeddedWebScenario_BoardVisible(t *testing.T) {
	f := newFakeDrivers()
	signInFlow(f.web, "Groceries", " My Board Using Karate ")
	r, _ := newRunner(t, f.envFactory(fastConfig(nil), nil), nil)

	scenarios, err := newLoader().LoadScenarios("")
	require.NoError(t, err)

	cfg := runConfig()
	cfg.Scenario = "web-board-visible"
	result, err := r.Run(context.Background(), cfg, scenarios)
	require.NoError(t, err)

	require.Len(t, result.ScenarioResults, 1)
	sr := result.ScenarioResults[0]
	assert.Equal(t, ResultPassed, sr.Result, sr.Error)
	assert.Equal(t, []string{"https://trello.example/home"}, f.web.Navigations())
	assert.Equal(t, []string{"chrome"}, f.usedSelectors())
	assert.True(t, f.web.Closed())
}

func TestEmbeddedWebScenario_InvalidLogin(t *testing.T) {
	f := newFakeDrivers()
	// Redirected straight to the sign-in form.
	f.web.Set(ui.UsernameField, drivertest.NewElement(""))
	f.web.Set(ui.PasswordField, drivertest.NewElement(""))
	f.web.Set(ui.ContinueButton, drivertest.NewElement("Continue"))
	f.web.Set(ui.ErrorLabel, drivertest.NewElement("Incorrect email address and / or password."))
	r, _ := newRunner(t, f.envFactory(fastConfig(nil), nil), nil)

	scenarios, err := newLoader().LoadScenarios("")
	require.NoError(t, err)

	cfg := runConfig()
	cfg.Scenario = "web-invalid-login"
	result, err := r.Run(context.Background(), cfg, scenarios)
	require.NoError(t, err)

	sr := result.ScenarioResults[0]
	require.Equal(t, ResultPassed, sr.Result, sr.Error)
	msg := sr.StepResults[2].Response.(map[string]interface{})["message"]
	assert.Equal(t, "Incorrect email address and / or password.", msg)
}

func TestEmbeddedWebScenario_MissingErrorCapturesScreenshot(t *testing.T) {
	f := newFakeDrivers()
	signInFlow(f.web)
	r, _ := newRunner(t, f.envFactory(fastConfig(nil), nil), nil)

	scenarios, err := newLoader().LoadScenarios("")
	require.NoError(t, err)

	cfg := runConfig()
	cfg.Scenario = "web-invalid-login"
	result, err := r.Run(context.Background(), cfg, scenarios)
	require.NoError(t, err)

	sr := result.ScenarioResults[0]
	assert.Equal(t, ResultFailed, sr.Result)
	assert.Contains(t, sr.Error, "expected observed=true, got false")
	assert.Contains(t, sr.Screenshot, "web-invalid-login_")
}

func TestWebWaitBoardVisible_SignsInLazily(t *testing.T) {
	f := newFakeDrivers()
	signInFlow(f.web, "Roadmap")
	env := readyEnv(t, f, nil, session.ChannelWeb)
	actions := DefaultActions()

	out, err := actions.Execute(context.Background(), env, ActionWebWaitBoardVisible, map[string]interface{}{"name": "Roadmap"})
	require.NoError(t, err)
	assert.Equal(t, true, out.(map[string]interface{})["observed"])
	assert.Equal(t, []string{"https://trello.example/home"}, f.web.Navigations())

	out, err = actions.Execute(context.Background(), env, ActionWebWaitBoardVisible, map[string]interface{}{"name": "Backlog"})
	require.NoError(t, err)
	assert.Equal(t, false, out.(map[string]interface{})["observed"])
	assert.Equal(t, "NOT_OBSERVED", out.(map[string]interface{})["observation"])
	assert.Len(t, f.web.Navigations(), 1, "the stored board page is reused")
}

func TestWebActions_NeedSession(t *testing.T) {
	env := readyEnv(t, newFakeDrivers(), nil)

	_, err := DefaultActions().Execute(context.Background(), env, ActionWebOpenHome, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrNotInitialized)
}

func TestMobileActions(t *testing.T) {
	f := newFakeDrivers()
	login := drivertest.NewElement("Iniciar sesión")
	google := drivertest.NewElement("Google")
	f.mobile.Set(ui.MobileLoginButton, login)
	f.mobile.Set(ui.MobileGoogleLoginButton, google)
	mobileGrid(f.mobile, "Sprint", "Home")
	env := readyEnv(t, f, nil, session.ChannelMobile)
	actions := DefaultActions()
	ctx := context.Background()

	_, err := actions.Execute(ctx, env, ActionMobileTapLogin, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, login.Clicks())

	_, err = actions.Execute(ctx, env, ActionMobileTapGoogleLogin, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, google.Clicks())

	out, err := actions.Execute(ctx, env, ActionMobileWaitBoardVisible, map[string]interface{}{"name": "Home"})
	require.NoError(t, err)
	assert.Equal(t, true, out.(map[string]interface{})["observed"])

	out, err = actions.Execute(ctx, env, ActionMobileWaitBoardVisible, map[string]interface{}{"name": "Archive"})
	require.NoError(t, err)
	assert.Equal(t, false, out.(map[string]interface{})["observed"])
}

func TestSessionReady(t *testing.T) {
	env := readyEnv(t, newFakeDrivers(), nil, session.ChannelMobile)
	actions := DefaultActions()

	out, err := actions.Execute(context.Background(), env, ActionSessionReady, map[string]interface{}{"channel": "mobile"})
	require.NoError(t, err)
	res := out.(map[string]interface{})
	assert.Equal(t, true, res["ready"])
	assert.Equal(t, string(session.StateReady), res["state"])
	assert.NotEmpty(t, res["id"])

	_, err = actions.Execute(context.Background(), env, ActionSessionReady, map[string]interface{}{"channel": "web"})
	assert.ErrorIs(t, err, session.ErrNotInitialized)

	_, err = actions.Execute(context.Background(), env, ActionSessionReady, map[string]interface{}{"channel": "desktop"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown channel "desktop"`)
}

func TestFlowCreateAndObserve_BothChannels(t *testing.T) {
	srv, client := newBoardServer(t)
	f := newFakeDrivers()
	signInFlow(f.web, "QA Board")
	mobileGrid(f.mobile, "QA Board")
	env := readyEnv(t, f, client, session.ChannelWeb, session.ChannelMobile)

	out, err := DefaultActions().Execute(context.Background(), env, ActionFlowCreateAndObserve, map[string]interface{}{"name": "QA Board"})
	require.NoError(t, err)

	res := out.(map[string]interface{})
	assert.Equal(t, true, res["consistent"])
	assert.Equal(t, true, res["observed"])
	assert.Empty(t, res["missing"])
	assert.Equal(t, "QA Board", res["board"].(map[string]interface{})["name"])
	assert.Equal(t, map[string]interface{}{"web": "OBSERVED", "mobile": "OBSERVED"}, res["observations"])
	assert.Equal(t, 1, srv.BoardCount())
}

func TestFlowCreateAndObserve_MissingOnMobile(t *testing.T) {
	_, client := newBoardServer(t)
	f := newFakeDrivers()
	signInFlow(f.web, "QA Board")
	mobileGrid(f.mobile)
	env := readyEnv(t, f, client, session.ChannelWeb, session.ChannelMobile)

	out, err := DefaultActions().Execute(context.Background(), env, ActionFlowCreateAndObserve, map[string]interface{}{"name": "QA Board"})
	require.NoError(t, err)

	res := out.(map[string]interface{})
	assert.Equal(t, false, res["consistent"])
	assert.Equal(t, []string{"mobile"}, res["missing"])
}

func TestFlowCreateAndObserve_DefaultNameAndChannelList(t *testing.T) {
	orig := timeNow
	timeNow = func() time.Time { return time.UnixMilli(1700000000000) }
	t.Cleanup(func() { timeNow = orig })

	_, client := newBoardServer(t)
	f := newFakeDrivers()
	mobileGrid(f.mobile, "PinAppBoard-1700000000000")
	env := readyEnv(t, f, client, session.ChannelWeb, session.ChannelMobile)

	out, err := DefaultActions().Execute(context.Background(), env, ActionFlowCreateAndObserve, map[string]interface{}{"channels": "mobile"})
	require.NoError(t, err)

	res := out.(map[string]interface{})
	assert.Equal(t, "PinAppBoard-1700000000000", res["board"].(map[string]interface{})["name"])
	assert.Equal(t, true, res["consistent"])
	assert.Empty(t, f.web.Navigations(), "web was not asked to observe")
}

func TestFlowCreateAndObserve_NoChannels(t *testing.T) {
	_, client := newBoardServer(t)
	env := readyEnv(t, newFakeDrivers(), client)

	_, err := DefaultActions().Execute(context.Background(), env, ActionFlowCreateAndObserve, map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, session.ErrNotInitialized)
}
