// Package websli fetches proof-of-delivery documents from the legacy
// document-repository API.
package websli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Document is one fetched document: base64-encoded bytes plus its filename.
type Document struct {
	B64Data  string
	FileName string
}

// FetchError reports a failed document fetch with the housebill it was for.
type FetchError struct {
	Housebill  string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error calling WT REST API for housebill %s, status code %d", e.Housebill, e.StatusCode)
}

type wtResponse struct {
	WtDocs struct {
		WtDoc []struct {
			B64Str   string `json:"b64str"`
			Filename string `json:"filename"`
		} `json:"wtDoc"`
	} `json:"wtDocs"`
}

// Client calls the document-repository API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a Client for the given API base URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: http.DefaultClient,
	}
}

// FetchDocument retrieves the first document for a housebill and doc type
// using the given fixed bearer token. Returns a *FetchError on a non-200
// response or an empty document list.
func (c *Client) FetchDocument(ctx context.Context, token, housebill, docType string) (*Document, error) {
	url := fmt.Sprintf("%s/%s/housebill=%s/doctype=%s", c.BaseURL, token, housebill, docType)
	logrus.WithField("housebill", housebill).Infof("fetching document, doctype=%s", docType)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build document request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call WT REST API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Housebill: housebill, StatusCode: resp.StatusCode}
	}

	var body wtResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode WT REST response: %w", err)
	}
	if len(body.WtDocs.WtDoc) == 0 {
		return nil, &FetchError{Housebill: housebill, StatusCode: resp.StatusCode}
	}

	// Only the first document is used even when several come back.
	doc := body.WtDocs.WtDoc[0]
	return &Document{B64Data: doc.B64Str, FileName: doc.Filename}, nil
}
