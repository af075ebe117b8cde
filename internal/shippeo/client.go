// Package shippeo talks to the partner token and document-upload APIs.
package shippeo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Client calls the partner APIs with Basic or Bearer auth.
type Client struct {
	TokenURL      string
	UploadBaseURL string
	Username      string
	Password      string
	HTTPClient    *http.Client
}

// New returns a partner Client.
func New(tokenURL, uploadBaseURL, username, password string) *Client {
	return &Client{
		TokenURL:      tokenURL,
		UploadBaseURL: uploadBaseURL,
		Username:      username,
		Password:      password,
		HTTPClient:    http.DefaultClient,
	}
}

// BasicAuth encodes a username/password pair as a Basic authorization value.
func BasicAuth(username, password string) string {
	creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return "Basic " + creds
}

// FetchToken exchanges the partner credentials for a bearer token.
func (c *Client) FetchToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Authorization", BasicAuth(c.Username, c.Password))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call token API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("token API returned status %d", resp.StatusCode)
	}

	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if out.Data.Token == "" {
		return "", fmt.Errorf("token API returned empty token")
	}
	return out.Data.Token, nil
}

// UploadDocument POSTs the document as a multipart attachments[] field to the
// per-housebill upload URL. Returns the response body on 200; any other
// status is an error.
func (c *Client) UploadDocument(ctx context.Context, token, housebill, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("attachments[]", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/%s/files", c.UploadBaseURL, housebill)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "*/*")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call upload API: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	logrus.WithFields(logrus.Fields{
		"housebill":   housebill,
		"status_code": resp.StatusCode,
	}).Info("partner upload response")

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to upload file, status code %d", resp.StatusCode)
	}
	return string(body), nil
}
