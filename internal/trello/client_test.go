package trello

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"boardcheck/internal/trello/trellotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *trellotest.Server) {
	t.Helper()
	srv := trellotest.NewServer("k", "t")
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, Credentials{Key: "k", Token: "t"}, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c, srv
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient("api.trello.com", Credentials{})
	assert.Error(t, err)
}

func TestBoardLifecycle(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	name := GenerateBoardName("", time.UnixMilli(1700000000123))
	assert.Equal(t, "PinAppBoard-1700000000123", name)

	created, err := c.Create(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, name, created.Name)
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.URL)

	fetched, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, name, fetched.Name)

	updated, err := c.UpdateName(ctx, created.ID, name+"-UPDATED")
	require.NoError(t, err)
	assert.Equal(t, name+"-UPDATED", updated.Name)

	fetched, err = c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, name+"-UPDATED", fetched.Name)

	require.NoError(t, c.Delete(ctx, created.ID))

	exists, err := c.Exists(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStatusCode_DistinguishesMissingFromMalformed(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	status, err := c.StatusCode(ctx, "64f1c9e8a1b2c3d4e5f67890")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)

	status, err = c.StatusCode(ctx, "invalid-board-id-123")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGet_NonOKReturnsBoardError(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.Get(context.Background(), "64f1c9e8a1b2c3d4e5f67890")
	require.Error(t, err)

	var be *BoardError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "get", be.Op)
	assert.Equal(t, http.StatusNotFound, be.StatusCode)
	assert.Contains(t, be.Body, "not found")
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "status: 404")
}

func TestCreate_UnauthorizedEmbedsStatusAndBody(t *testing.T) {
	srv := trellotest.NewServer("k", "t")
	defer srv.Close()
	c, err := NewClient(srv.URL, Credentials{Key: "wrong", Token: "t"})
	require.NoError(t, err)

	_, err = c.Create(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Contains(t, err.Error(), "board create failed")
	assert.Contains(t, err.Error(), "invalid key")
}

func TestExists_ServerErrorIsNotAbsence(t *testing.T) {
	c, srv := newTestClient(t)
	srv.ForceStatus(http.StatusInternalServerError)

	exists, err := c.Exists(context.Background(), "64f1c9e8a1b2c3d4e5f67890")
	assert.False(t, exists)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
}

func TestDelete_NonOK(t *testing.T) {
	c, _ := newTestClient(t)
	err := c.Delete(context.Background(), "64f1c9e8a1b2c3d4e5f67890")
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestRequestsCarryCredentialsAndName(t *testing.T) {
	var gotQuery, gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"abc","name":"renamed","url":"u","closed":false,"prefs":{}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", Credentials{Key: "key1", Token: "tok1"})
	require.NoError(t, err)

	b, err := c.UpdateName(context.Background(), "abc", "renamed")
	require.NoError(t, err)
	assert.Equal(t, "renamed", b.Name)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/1/boards/abc", gotPath)
	assert.True(t, strings.Contains(gotQuery, "key=key1"))
	assert.True(t, strings.Contains(gotQuery, "token=tok1"))
	assert.True(t, strings.Contains(gotQuery, "name=renamed"))
}

func TestCreate_TransportErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, Credentials{})
	require.NoError(t, err)

	_, err = c.Create(context.Background(), "x")
	require.Error(t, err)
	var be *BoardError
	assert.False(t, errors.As(err, &be))
}

func TestBoardAsMap(t *testing.T) {
	b := &Board{ID: "1", Name: "n", URL: "u"}
	assert.Equal(t, map[string]interface{}{"id": "1", "name": "n", "url": "u"}, b.AsMap())

	var nilBoard *Board
	assert.Nil(t, nilBoard.AsMap())
}
