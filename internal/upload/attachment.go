// Package upload resolves presigned upload destinations and transfers
// document bytes to them.
package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fixed tags the upload-target API expects on every request.
const (
	fileType      = "POD"
	description   = "HCPOD"
	requestSource = "OMNG"
	locationID    = "US"

	mimePDF  = "application/pdf"
	mimeJPEG = "image/jpeg"
)

// HTTPError reports a non-success response from the upload-target API.
type HTTPError struct {
	StatusCode int
	Reason     string
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d Error: %s for url: %s -- %s", e.StatusCode, e.Reason, e.URL, e.Body)
}

// AttachmentRequest is the metadata payload sent to the upload-target API.
type AttachmentRequest struct {
	ProNumber     string `json:"proNumber"`
	Filename      string `json:"filename"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	MimeType      string `json:"mimeType"`
	RequestSource string `json:"requestSource"`
	LocationID    string `json:"locationId"`
	UserID        string `json:"userId"`
}

// NewAttachmentRequest builds the payload with the fixed POD tags filled in
// and the MIME type inferred from the filename.
func NewAttachmentRequest(proNumber, filename, userID string) AttachmentRequest {
	return AttachmentRequest{
		ProNumber:     proNumber,
		Filename:      filename,
		Type:          fileType,
		Description:   description,
		MimeType:      MimeTypeFor(filename),
		RequestSource: requestSource,
		LocationID:    locationID,
		UserID:        userID,
	}
}

// FileExtension returns the lowercased segment after the last dot. A filename
// with no dot yields the whole filename lowercased, which MimeTypeFor then
// maps to the image fallback.
func FileExtension(filename string) string {
	parts := strings.Split(filename, ".")
	return strings.ToLower(parts[len(parts)-1])
}

// MimeTypeFor maps pdf extensions to application/pdf; everything else falls
// back to image/jpeg.
func MimeTypeFor(filename string) string {
	if FileExtension(filename) == "pdf" {
		return mimePDF
	}
	return mimeJPEG
}

// PadBase64 appends '=' until the payload length is a multiple of four.
// Tolerates producers that strip padding; an empty string stays empty.
func PadBase64(s string) string {
	for len(s)%4 != 0 {
		s += "="
	}
	return s
}

// Decode pads and base64-decodes a payload. Empty input decodes to zero
// bytes without error.
func Decode(b64 string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(PadBase64(b64))
	if err != nil {
		return nil, fmt.Errorf("decode document payload: %w", err)
	}
	return data, nil
}

// RequestSigner signs an outgoing request for its payload.
type RequestSigner interface {
	Sign(ctx context.Context, req *http.Request, payload []byte) error
}

// Client talks to the upload-target API and the presigned destinations it
// hands out.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewClient returns a Client for the fixed upload-target endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		Endpoint:   endpoint,
		HTTPClient: http.DefaultClient,
	}
}

// RequestUploadURL POSTs the signed metadata payload and returns the one-time
// presigned upload URL. Any non-2xx response is returned as a *HTTPError
// carrying status, reason, URL, and body text.
func (c *Client) RequestUploadURL(ctx context.Context, signer RequestSigner, attReq AttachmentRequest) (string, error) {
	payload, err := json.Marshal(attReq)
	if err != nil {
		return "", fmt.Errorf("marshal attachment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build attachment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := signer.Sign(ctx, req, payload); err != nil {
		return "", err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call upload-target API: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	logrus.Infof("upload-target API responded %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{
			StatusCode: resp.StatusCode,
			Reason:     http.StatusText(resp.StatusCode),
			URL:        c.Endpoint,
			Body:       string(body),
		}
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode upload-target response: %w", err)
	}
	return out.URL, nil
}

// Transfer PUTs the decoded document bytes to the presigned destination.
// A non-200 response is logged but not returned as an error; only transport
// and decode failures propagate. An empty payload is still PUT.
func (c *Client) Transfer(ctx context.Context, presignedURL, b64Payload string) error {
	data, err := Decode(b64Payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build transfer request: %w", err)
	}
	req.Header.Set("x-amz-server-side-encryption", "AES256")
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("transfer document: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		logrus.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"body":        string(body),
		}).Error("failed to upload file")
		return nil
	}

	logrus.Info("file uploaded successfully")
	return nil
}
