package shippeo

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicAuth(t *testing.T) {
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("user:pass"))
	assert.Equal(t, want, BasicAuth("user", "pass"))
}

func TestFetchToken_Success(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"data":{"token":"tok-abc"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "unused", "user", "pass")
	token, err := c.FetchToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
	assert.Equal(t, BasicAuth("user", "pass"), gotAuth)
}

func TestFetchToken_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "unused", "user", "pass")
	_, err := c.FetchToken(context.Background())
	assert.Error(t, err)
}

func TestFetchToken_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "unused", "user", "pass")
	_, err := c.FetchToken(context.Background())
	assert.Error(t, err)
}

func TestUploadDocument_Success(t *testing.T) {
	var gotPath, gotAuth, gotFilename string
	var gotData []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("attachments[]")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotData, _ = io.ReadAll(file)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := New("unused", srv.URL, "user", "pass")
	body, err := c.UploadDocument(context.Background(), "tok-abc", "H1", "doc.pdf", []byte("PDFBYTES"))

	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, body)
	assert.Equal(t, "/H1/files", gotPath)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
	assert.Equal(t, "doc.pdf", gotFilename)
	assert.Equal(t, []byte("PDFBYTES"), gotData)
}

func TestUploadDocument_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New("unused", srv.URL, "user", "pass")
	_, err := c.UploadDocument(context.Background(), "tok", "H1", "doc.pdf", nil)
	assert.Error(t, err)
}
