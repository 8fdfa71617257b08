package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search(t *testing.T) {
	var gotQuery, gotCX, gotKey, gotDR string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotCX = r.URL.Query().Get("cx")
		gotKey = r.URL.Query().Get("key")
		gotDR = r.URL.Query().Get("dateRestrict")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[
			{"title":"KPMG opens Athens office","link":"https://news.example.gr/a","snippet":"a new office"},
			{"title":"second story","link":"https://news.example.gr/b","snippet":"more news"}
		]}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient("my-key", "my-cse", WithBaseURL(srv.URL))
	items, err := c.Search(context.Background(), "νέα γραφεία Αθήνα")
	require.NoError(t, err)

	assert.Equal(t, "νέα γραφεία Αθήνα", gotQuery)
	assert.Equal(t, "my-cse", gotCX)
	assert.Equal(t, "my-key", gotKey)
	assert.Equal(t, "d7", gotDR)

	require.Len(t, items, 2)
	assert.Equal(t, "KPMG opens Athens office", items[0].Title)
	assert.Equal(t, "https://news.example.gr/a", items[0].Link)
	assert.Equal(t, "a new office", items[0].Snippet)
}

func TestClient_Search_CustomDateRestrict(t *testing.T) {
	var gotDR string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDR = r.URL.Query().Get("dateRestrict")
		fmt.Fprint(w, `{"items":[]}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient("k", "c", WithBaseURL(srv.URL), WithDateRestrict("m1"))
	_, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "m1", gotDR)
}

func TestClient_Search_NoItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// The API omits the items field entirely when nothing matched.
		fmt.Fprint(w, `{"searchInformation":{"totalResults":"0"}}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient("k", "c", WithBaseURL(srv.URL))
	items, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClient_Search_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limit exceeded"}}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient("k", "c", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClient_Search_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"items": [`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient("k", "c", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "q")
	assert.Error(t, err)
}
