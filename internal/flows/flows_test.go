package flows

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"boardcheck/internal/config"
	"boardcheck/internal/driver/drivertest"
	"boardcheck/internal/trello"
	"boardcheck/internal/trello/trellotest"
	"boardcheck/internal/ui"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubObserver struct {
	channel string
	seen    ui.Observation
	delay   time.Duration
	active  *int32
	peak    *int32
}

func (s *stubObserver) Channel() string { return s.channel }

func (s *stubObserver) WaitUntilBoardVisible(ctx context.Context, name string) ui.Observation {
	if s.active != nil {
		n := atomic.AddInt32(s.active, 1)
		for {
			p := atomic.LoadInt32(s.peak)
			if n <= p || atomic.CompareAndSwapInt32(s.peak, p, n) {
				break
			}
		}
		defer atomic.AddInt32(s.active, -1)
	}
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return ui.NotObserved
	}
	return s.seen
}

type failingCreator struct{}

func (failingCreator) Create(context.Context, string) (*trello.Board, error) {
	return nil, &trello.BoardError{Op: "create", StatusCode: 401, Body: "invalid key"}
}

func newClient(t *testing.T) *trello.Client {
	t.Helper()
	srv := trellotest.NewServer("k", "tok")
	t.Cleanup(srv.Close)
	c, err := trello.NewClient(srv.URL, trello.Credentials{Key: "k", Token: "tok"})
	require.NoError(t, err)
	return c
}

func TestCreateAndObserve_AllChannelsObserve(t *testing.T) {
	var active, peak int32
	web := &stubObserver{channel: "web", seen: ui.Observed, delay: 30 * time.Millisecond, active: &active, peak: &peak}
	mobile := &stubObserver{channel: "mobile", seen: ui.Observed, delay: 30 * time.Millisecond, active: &active, peak: &peak}

	out, err := CreateAndObserve(context.Background(), newClient(t), "PinAppBoard-1", web, mobile)
	require.NoError(t, err)
	assert.Equal(t, "PinAppBoard-1", out.Board.Name)
	assert.True(t, out.Consistent())
	assert.Empty(t, out.Missing())
	assert.Equal(t, int32(2), atomic.LoadInt32(&peak), "channels should be observed concurrently")
}

func TestCreateAndObserve_MissingChannelIsNotAnError(t *testing.T) {
	web := &stubObserver{channel: "web", seen: ui.Observed}
	mobile := &stubObserver{channel: "mobile", seen: ui.NotObserved}

	out, err := CreateAndObserve(context.Background(), newClient(t), "PinAppBoard-2", web, mobile)
	require.NoError(t, err)
	assert.False(t, out.Consistent())
	assert.Equal(t, []string{"mobile"}, out.Missing())

	m := out.AsMap()
	assert.Equal(t, false, m["consistent"])
	assert.Equal(t, map[string]interface{}{"web": "OBSERVED", "mobile": "NOT_OBSERVED"}, m["observations"])
}

func TestCreateAndObserve_CreateFailure(t *testing.T) {
	_, err := CreateAndObserve(context.Background(), failingCreator{}, "x", &stubObserver{channel: "web"})
	require.Error(t, err)
	assert.True(t, trello.IsStatus(err, 401))
}

func TestOutcome_NoObserversIsNotConsistent(t *testing.T) {
	assert.False(t, (&Outcome{Observations: map[string]ui.Observation{}}).Consistent())
}

func TestCreateAndObserve_WithPageObjects(t *testing.T) {
	client := newClient(t)
	name := trello.GenerateBoardName(trello.DefaultBoardPrefix, time.UnixMilli(1700000000000))

	webDrv := drivertest.New()
	webDrv.AppearAfter(ui.BoardTiles, 2, drivertest.NewElement(name))
	webPage := ui.NewBoardsPage(ui.NewSurface(webDrv, 200*time.Millisecond, 5*time.Millisecond))

	mobileDrv := drivertest.New()
	mobileDrv.Set(ui.BoardsGrid, drivertest.NewElement("").WithChildren(ui.BoardTitle, drivertest.NewElement("Other")))
	mobilePage := ui.NewMobileBoardsPage(ui.NewSurface(mobileDrv, 50*time.Millisecond, 5*time.Millisecond))

	out, err := CreateAndObserve(context.Background(), client, name, webPage, mobilePage)
	require.NoError(t, err)
	assert.Equal(t, ui.Observed, out.Observations["web"])
	assert.Equal(t, ui.NotObserved, out.Observations["mobile"])
}

func TestLoginAndOpenBoards(t *testing.T) {
	d := drivertest.New()
	user, pass, submit := drivertest.NewElement(""), drivertest.NewElement(""), drivertest.NewElement("Continue")
	d.Set(ui.UsernameField, user)
	d.Set(ui.PasswordField, pass)
	d.Set(ui.ContinueButton, submit)
	s := ui.NewSurface(d, 50*time.Millisecond, 5*time.Millisecond)

	login := WebLoginFromConfig(config.FromMap(map[string]string{
		"trello.username": "qa@example.com",
		"trello.password": "s3cret",
	}))
	page, err := LoginAndOpenBoards(context.Background(), s, login)
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, []string{"https://trello.com/home"}, d.Navigations())
	assert.Equal(t, []string{"qa@example.com"}, user.Typed())
	assert.Equal(t, []string{"s3cret"}, pass.Typed())
}

func TestLoginAndOpenBoards_NavigationFailure(t *testing.T) {
	d := drivertest.New()
	require.NoError(t, d.Close())
	_, err := LoginAndOpenBoards(context.Background(), ui.NewSurface(d, 10*time.Millisecond, time.Millisecond), WebLogin{HomeURL: "https://trello.com/home"})
	assert.True(t, errors.Is(err, drivertest.ErrClosed))
}
