package octopus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhppoted/eo-backup/config"
)

const listsJSON = `{
  "data": [
    {
      "id": "00000000-0000-0000-0000-000000000001",
      "name": "Newsletter",
      "double_opt_in": false,
      "fields": [
        { "tag": "EmailAddress", "type": "TEXT", "label": "Email address", "fallback": null },
        { "tag": "FirstName", "type": "TEXT", "label": "First name", "fallback": null }
      ],
      "counts": { "pending": 0, "subscribed": 3, "unsubscribed": 2 },
      "created_at": "2024-01-01T00:00:00+00:00"
    }
  ],
  "paging": { "next": null, "previous": null }
}`

func newTestClient(url string) *Client {
	return NewClient(config.Octopus{
		APIKey: "qwerty",
		Host:   url,
		API:    "/api/1.5/",
	})
}

func TestListAllMailingLists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/1.5/lists", r.URL.Path)
		assert.Equal(t, "qwerty", r.URL.Query().Get("api_key"))

		fmt.Fprint(w, listsJSON)
	}))
	defer srv.Close()

	lists, err := newTestClient(srv.URL).ListAllMailingLists(context.Background())

	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", lists[0].ID)
	assert.Equal(t, "Newsletter", lists[0].Name)
	assert.Equal(t, map[string]int{"pending": 0, "subscribed": 3, "unsubscribed": 2}, lists[0].Counts)
	require.Len(t, lists[0].Fields, 2)
	assert.Equal(t, Field{Tag: "FirstName", Type: "TEXT", Label: "First name"}, lists[0].Fields[1])
}

func TestFetchContactsPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/1.5/lists/L1/contacts", r.URL.Path)

		fmt.Fprint(w, `{
		  "data": [
		    { "id": "C1", "email_address": "e@x.com", "fields": { "FirstName": "v1", "LastName": null }, "status": "SUBSCRIBED" }
		  ],
		  "paging": { "next": null, "previous": null }
		}`)
	}))
	defer srv.Close()

	page, err := newTestClient(srv.URL).FetchContactsPage(context.Background(), List{ID: "L1"})

	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "e@x.com", page.Data[0].EmailAddress)
	assert.Equal(t, "SUBSCRIBED", page.Data[0].Status)
	assert.Equal(t, "v1", page.Data[0].Fields["FirstName"])
	assert.Nil(t, page.Data[0].Fields["LastName"])
	assert.Equal(t, "", page.Paging.Next)
}

func TestContactsFollowsPagingUntilLastPage(t *testing.T) {
	var fetches atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)

		switch r.URL.Path {
		case "/api/1.5/lists/L1/contacts":
			fmt.Fprint(w, `{"data":[{"email_address":"a@x.com","status":"SUBSCRIBED"}],"paging":{"next":"/p2"}}`)

		case "/p2":
			fmt.Fprint(w, `{"data":[{"email_address":"b@x.com","status":"SUBSCRIBED"}],"paging":{}}`)

		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	emails := []string{}
	for page, err := range newTestClient(srv.URL).Contacts(context.Background(), List{ID: "L1"}) {
		require.NoError(t, err)

		for _, c := range page.Data {
			emails = append(emails, c.EmailAddress)
		}
	}

	assert.Equal(t, int32(2), fetches.Load())
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, emails)
}

func TestContactsIsLazyAndRestartable(t *testing.T) {
	var fetches atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		fmt.Fprint(w, `{"data":[],"paging":{"next":"/api/1.5/lists/L1/contacts?api_key=qwerty&starting_after=X"}}`)
	}))
	defer srv.Close()

	pages := newTestClient(srv.URL).Contacts(context.Background(), List{ID: "L1"})

	assert.Equal(t, int32(0), fetches.Load())

	for range pages {
		break
	}

	assert.Equal(t, int32(1), fetches.Load())

	count := 0
	for _, err := range pages {
		require.NoError(t, err)
		if count++; count == 3 {
			break
		}
	}

	assert.Equal(t, int32(4), fetches.Load())
}

func TestContactsYieldsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/p2" {
			fmt.Fprint(w, `<html>oops</html>`)
		} else {
			fmt.Fprint(w, `{"data":[{"email_address":"a@x.com"}],"paging":{"next":"/p2"}}`)
		}
	}))
	defer srv.Close()

	pages := 0
	var errs []error
	for page, err := range newTestClient(srv.URL).Contacts(context.Background(), List{ID: "L1"}) {
		if err != nil {
			errs = append(errs, err)
		} else {
			pages++
			assert.NotNil(t, page)
		}
	}

	assert.Equal(t, 1, pages)
	assert.Len(t, errs, 1)
}

func TestAPIErrorIsClassifiedAndRedacted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":"API_KEY_INVALID","message":"Your API key is invalid."}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ListAllMailingLists(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorised))

	var apierr *APIError
	require.True(t, errors.As(err, &apierr))
	assert.Equal(t, "API_KEY_INVALID", apierr.Code)
	assert.NotContains(t, err.Error(), "qwerty")
}

func TestNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>maintenance</html>`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ListAllMailingLists(context.Background())

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "qwerty")
}

func TestNetworkErrorIsRedacted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).ListAllMailingLists(context.Background())

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "qwerty")
	assert.True(t, strings.Contains(err.Error(), "REDACTED"))
}

func TestRedact(t *testing.T) {
	tests := map[string]string{
		"https://emailoctopus.com/api/1.5/lists?api_key=qwerty":         "https://emailoctopus.com/api/1.5/lists?api_key=REDACTED",
		"/api/1.5/lists/L1/contacts?api_key=qwerty&limit=100":           "/api/1.5/lists/L1/contacts?api_key=REDACTED&limit=100",
		"/api/1.5/lists/L1/contacts?limit=100&starting_after=X":         "/api/1.5/lists/L1/contacts?limit=100&starting_after=X",
	}

	for uri, expected := range tests {
		if got := redact(uri); got != expected {
			t.Errorf("Incorrect redaction\n   expected: %v\n   got:      %v", expected, got)
		}
	}
}
