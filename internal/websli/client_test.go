package websli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDocument_Success(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"wtDocs":{"wtDoc":[{"b64str":"QQ==","filename":"doc.pdf"},{"b64str":"ignored","filename":"second.pdf"}]}}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	doc, err := c.FetchDocument(context.Background(), "tok123", "H1", "POD")

	require.NoError(t, err)
	assert.Equal(t, "/tok123/housebill=H1/doctype=POD", gotPath)
	// only the first array element is used
	assert.Equal(t, "QQ==", doc.B64Data)
	assert.Equal(t, "doc.pdf", doc.FileName)
}

func TestFetchDocument_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.FetchDocument(context.Background(), "tok", "H1", "POD")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "H1", fetchErr.Housebill)
	assert.Equal(t, http.StatusBadGateway, fetchErr.StatusCode)
}

func TestFetchDocument_EmptyDocList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"wtDocs":{"wtDoc":[]}}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.FetchDocument(context.Background(), "tok", "H1", "POD")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "H1", fetchErr.Housebill)
}

func TestFetchDocument_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.FetchDocument(context.Background(), "tok", "H1", "POD")
	assert.Error(t, err)
}
