package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"boardcheck/internal/formatting"
	"boardcheck/internal/trello"
	"boardcheck/internal/trello/trellotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(t *testing.T, format formatting.OutputFormat) (*BoardExecutor, *trellotest.Server, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	srv := trellotest.NewServer("k", "t")
	t.Cleanup(srv.Close)

	client, err := trello.NewClient(srv.URL, trello.Credentials{Key: "k", Token: "t"})
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	exec := NewBoardExecutor(client, ExecutorOptions{Format: format, Quiet: true, Endpoint: srv.URL}, &out, &errOut)
	return exec, srv, &out, &errOut
}

func decodeBoard(t *testing.T, data []byte) trello.Board {
	t.Helper()
	var b trello.Board
	require.NoError(t, json.Unmarshal(data, &b))
	return b
}

func TestBoardExecutor_CreateGetRenameDelete(t *testing.T) {
	exec, srv, out, errOut := newExecutor(t, formatting.FormatJSON)
	ctx := context.Background()

	require.NoError(t, exec.Create(ctx, "Sprint"))
	created := decodeBoard(t, out.Bytes())
	assert.Equal(t, "Sprint", created.Name)
	assert.Len(t, created.ID, 24)
	assert.Equal(t, 1, srv.BoardCount())

	out.Reset()
	require.NoError(t, exec.Get(ctx, created.ID))
	assert.Equal(t, created, decodeBoard(t, out.Bytes()))

	out.Reset()
	require.NoError(t, exec.Rename(ctx, created.ID, "Sprint 2"))
	assert.Equal(t, "Sprint 2", decodeBoard(t, out.Bytes()).Name)

	out.Reset()
	require.NoError(t, exec.Delete(ctx, created.ID))
	assert.Contains(t, out.String(), "deleted")
	assert.Equal(t, 0, srv.BoardCount())

	assert.Empty(t, errOut.String(), "quiet mode writes no progress")
}

func TestBoardExecutor_CreateGeneratesName(t *testing.T) {
	exec, _, out, _ := newExecutor(t, formatting.FormatJSON)

	require.NoError(t, exec.Create(context.Background(), ""))
	assert.Regexp(t, `^PinAppBoard-\d+$`, decodeBoard(t, out.Bytes()).Name)
}

func TestBoardExecutor_StatusReportsAnyStatus(t *testing.T) {
	exec, _, out, _ := newExecutor(t, formatting.FormatJSON)

	require.NoError(t, exec.Status(context.Background(), "000000000000000000000000"))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, float64(http.StatusNotFound), got["status"])
	assert.Equal(t, "000000000000000000000000", got["id"])
}

func TestBoardExecutor_GetMissingBoard(t *testing.T) {
	exec, _, out, _ := newExecutor(t, formatting.FormatJSON)

	err := exec.Get(context.Background(), "000000000000000000000000")
	require.Error(t, err)
	assert.True(t, trello.IsStatus(err, http.StatusNotFound))
	assert.Empty(t, out.String())
}

func TestBoardExecutor_RejectedCredentials(t *testing.T) {
	srv := trellotest.NewServer("k", "t")
	defer srv.Close()

	client, err := trello.NewClient(srv.URL, trello.Credentials{Key: "k", Token: "wrong"})
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	exec := NewBoardExecutor(client, ExecutorOptions{Format: formatting.FormatTable}, &out, &errOut)

	err = exec.Create(context.Background(), "x")
	var credErr *CredentialsError
	require.ErrorAs(t, err, &credErr)
	assert.True(t, trello.IsStatus(err, http.StatusUnauthorized))
	assert.Contains(t, errOut.String(), "Command failed")
}

func TestBoardExecutor_UnreachableHost(t *testing.T) {
	srv := trellotest.NewServer("k", "t")
	endpoint := srv.URL
	srv.Close()

	client, err := trello.NewClient(endpoint, trello.Credentials{Key: "k", Token: "t"})
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	exec := NewBoardExecutor(client, ExecutorOptions{Format: formatting.FormatJSON, Quiet: true, Endpoint: endpoint}, &out, &errOut)

	err = exec.Get(context.Background(), "000000000000000000000000")
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, ConnectionErrorNetwork, connErr.Type)
	assert.Contains(t, err.Error(), endpoint)
}
