package upload

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopSigner records the payload it was asked to sign.
type nopSigner struct {
	signed  bool
	payload []byte
}

func (s *nopSigner) Sign(ctx context.Context, req *http.Request, payload []byte) error {
	s.signed = true
	s.payload = payload
	req.Header.Set("Authorization", "AWS4-HMAC-SHA256 test")
	return nil
}

func TestPadBase64(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"QQ", "QQ=="},
		{"QUI", "QUI="},
		{"QUJD", "QUJD"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PadBase64(tc.in))
	}
}

func TestDecode_EmptyIsZeroBytes(t *testing.T) {
	data, err := Decode("")
	require.NoError(t, err)
	assert.Len(t, data, 0)
}

func TestDecode_MissingPadding(t *testing.T) {
	data, err := Decode("QQ")
	require.NoError(t, err)
	assert.Equal(t, []byte("A"), data)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode("!!!!")
	assert.Error(t, err)
}

func TestFileExtension(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"doc.pdf", "pdf"},
		{"doc.PDF", "pdf"},
		{"photo.JPG", "jpg"},
		{"archive.tar.gz", "gz"},
		// no parseable extension: the filename itself comes back
		{"README", "readme"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FileExtension(tc.filename), "filename %q", tc.filename)
	}
}

func TestMimeTypeFor(t *testing.T) {
	assert.Equal(t, "application/pdf", MimeTypeFor("doc.pdf"))
	assert.Equal(t, "application/pdf", MimeTypeFor("DOC.PDF"))
	assert.Equal(t, "image/jpeg", MimeTypeFor("scan.jpg"))
	assert.Equal(t, "image/jpeg", MimeTypeFor("README"))
	assert.Equal(t, "image/jpeg", MimeTypeFor(""))
}

func TestNewAttachmentRequest_FixedTags(t *testing.T) {
	req := NewAttachmentRequest("PRO1", "doc.pdf", "U1")

	assert.Equal(t, "PRO1", req.ProNumber)
	assert.Equal(t, "doc.pdf", req.Filename)
	assert.Equal(t, "POD", req.Type)
	assert.Equal(t, "HCPOD", req.Description)
	assert.Equal(t, "application/pdf", req.MimeType)
	assert.Equal(t, "OMNG", req.RequestSource)
	assert.Equal(t, "US", req.LocationID)
	assert.Equal(t, "U1", req.UserID)
}

func TestRequestUploadURL_Success(t *testing.T) {
	var got AttachmentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NotEmpty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"url":"https://up/x"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	signer := &nopSigner{}
	url, err := c.RequestUploadURL(context.Background(), signer, NewAttachmentRequest("PRO1", "doc.pdf", "U1"))

	require.NoError(t, err)
	assert.Equal(t, "https://up/x", url)
	assert.True(t, signer.signed)
	assert.Equal(t, "PRO1", got.ProNumber)
	assert.JSONEq(t, string(signer.payload), mustJSON(t, got))
}

func TestRequestUploadURL_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("access denied"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.RequestUploadURL(context.Background(), &nopSigner{}, NewAttachmentRequest("PRO1", "doc.pdf", "U1"))

	require.Error(t, err)
	httpErr, ok := err.(*HTTPError)
	require.True(t, ok, "expected *HTTPError, got %T", err)
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
	assert.Equal(t, "Forbidden", httpErr.Reason)
	assert.Equal(t, srv.URL, httpErr.URL)
	assert.Equal(t, "access denied", httpErr.Body)
}

func TestTransfer_PutsDecodedBytes(t *testing.T) {
	var gotBody []byte
	var gotEncryption, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotBody, _ = io.ReadAll(r.Body)
		gotEncryption = r.Header.Get("x-amz-server-side-encryption")
		gotContentType = r.Header.Get("Content-Type")
	}))
	defer srv.Close()

	c := NewClient("unused")
	// "QQ" is missing padding on purpose
	err := c.Transfer(context.Background(), srv.URL, "QQ")

	require.NoError(t, err)
	assert.Equal(t, []byte("A"), gotBody)
	assert.Equal(t, "AES256", gotEncryption)
	assert.Equal(t, "application/octet-stream", gotContentType)
}

func TestTransfer_EmptyPayloadStillPut(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		body, _ := io.ReadAll(r.Body)
		assert.Len(t, body, 0)
	}))
	defer srv.Close()

	c := NewClient("unused")
	require.NoError(t, c.Transfer(context.Background(), srv.URL, ""))
	assert.True(t, called)
}

// The resolver raises on non-2xx but the transfer step does not; this pins
// the transfer half of that asymmetry.
func TestTransfer_Non200DoesNotFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewClient("unused")
	err := c.Transfer(context.Background(), srv.URL, "QQ==")

	assert.NoError(t, err)
}

func TestTransfer_InvalidBase64Fails(t *testing.T) {
	c := NewClient("unused")
	err := c.Transfer(context.Background(), "http://unused", "!!!!")
	assert.Error(t, err)
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
