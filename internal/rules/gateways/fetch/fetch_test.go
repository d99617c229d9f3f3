package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, opt Options) *Client {
	t.Helper()
	c, err := NewClient(opt)
	require.NoError(t, err)
	return c
}

func requireFetchError(t *testing.T, err error, code string) *FetchError {
	t.Helper()
	var fe *FetchError
	require.True(t, errors.As(err, &fe), "expected *FetchError, got %T: %v", err, err)
	assert.Equal(t, code, fe.Code)
	return fe
}

func TestFetch_OK(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("DOMAIN-SUFFIX,openai.com\n"))
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, Options{UserAgent: "test-agent"})
	body, err := c.Fetch(context.Background(), srv.URL+"/OpenAi.list")
	require.NoError(t, err)
	assert.Equal(t, "DOMAIN-SUFFIX,openai.com\n", string(body))
	assert.Equal(t, "test-agent", gotUA)
}

func TestFetch_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(t, Options{}).Fetch(context.Background(), srv.URL+"/missing")
	fe := requireFetchError(t, err, CodeFailed)
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.True(t, fe.NotFound())
	assert.Contains(t, fe.Error(), "status 404")
}

func TestFetch_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(t, Options{MaxBytes: 16}).Fetch(context.Background(), srv.URL)
	requireFetchError(t, err, CodeTooLarge)

	body, err := newClient(t, Options{MaxBytes: 64}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, body, 64)
}

func TestFetch_InvalidUTF8(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0xff, 0xfe, 0xfd})
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(t, Options{}).Fetch(context.Background(), srv.URL)
	requireFetchError(t, err, CodeInvalidUTF8)
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	_, err := newClient(t, Options{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), srv.URL)
	requireFetchError(t, err, CodeTimeout)
}

func TestFetch_InvalidURL(t *testing.T) {
	c := newClient(t, Options{})
	for _, u := range []string{"ftp://example.com/list", "not a url", ""} {
		_, err := c.Fetch(context.Background(), u)
		requireFetchError(t, err, CodeInvalidArgument)
	}
}

func TestFetch_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newClient(t, Options{}).Fetch(context.Background(), url)
	fe := requireFetchError(t, err, CodeFailed)
	assert.NotNil(t, errors.Unwrap(fe))
}

func TestFetch_TooManyRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/loop", http.StatusFound)
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(t, Options{MaxRedirects: 2}).Fetch(context.Background(), srv.URL)
	fe := requireFetchError(t, err, CodeFailed)
	assert.ErrorIs(t, fe, errTooManyRedirects)
}

func TestNewClient_NegativeMaxBytes(t *testing.T) {
	_, err := NewClient(Options{MaxBytes: -1})
	assert.Error(t, err)
}

func TestFetchError_NilSafe(t *testing.T) {
	var fe *FetchError
	assert.Equal(t, "<nil>", fe.Error())
	assert.False(t, fe.NotFound())
}
