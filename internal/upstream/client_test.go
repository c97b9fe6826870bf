package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(Config{BaseURL: server.URL, FetchTimeout: 2 * time.Second})
	return client, server
}

func TestFetchGuildSnapshot_ParsesPayload(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/guild/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 42,
			"name": "Deep Miners",
			"level": 17,
			"members": [
				{"id": 1, "name": "alice", "level": 90, "event_contribution": 1000},
				{"id": 2, "name": "bob", "level": 80, "event_contribution": 500}
			]
		}`))
	})
	defer server.Close()

	snapshot, err := client.FetchGuildSnapshot(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), snapshot.GuildID)
	assert.Equal(t, "Deep Miners", snapshot.Name)
	assert.Equal(t, 17, snapshot.Level)
	require.Len(t, snapshot.Members, 2)
	assert.Equal(t, int64(1000), snapshot.Members[0].Contribution)
	assert.Equal(t, []int64{1, 2}, snapshot.MemberIDs())
}

func TestFetchGuildSnapshot_NotFound(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	_, err := client.FetchGuildSnapshot(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchGuildSnapshot_ServerErrorIsTransient(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	_, err := client.FetchGuildSnapshot(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchGuildSnapshot_MalformedPayloadIsTransient(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 42, "members": [`))
	})
	defer server.Close()

	_, err := client.FetchGuildSnapshot(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchGuildSnapshot_MismatchedGuildIDRejected(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 7, "name": "Wrong Guild"}`))
	})
	defer server.Close()

	_, err := client.FetchGuildSnapshot(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestListAllGuildIDs(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/guild/ids", r.URL.Path)
		_, _ = w.Write([]byte(`[1, 2, 3]`))
	})
	defer server.Close()

	ids, err := client.ListAllGuildIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestFetchGuildSnapshot_ContextCancelled(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchGuildSnapshot(ctx, 42)
	require.Error(t, err)
}
