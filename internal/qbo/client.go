package qbo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://quickbooks.api.intuit.com/v3/company"
	minorVersion   = "65"
)

// TokenSource supplies a valid bearer token for a realm before each request.
type TokenSource interface {
	AccessToken(ctx context.Context, realmID string) (string, error)
}

// APIError is a non-2xx response from the QBO API. When the body carries the
// structured fault envelope, Fault is populated; otherwise Body holds the raw
// response text.
type APIError struct {
	Status int
	Body   string
	Fault  *Fault
}

func (e *APIError) Error() string {
	if e.Fault != nil && len(e.Fault.Errors) > 0 {
		first := e.Fault.Errors[0]
		return fmt.Sprintf("qbo API error (status %d): %s - %s", e.Status, first.Code, first.Message)
	}
	return fmt.Sprintf("qbo API error (status %d): %s", e.Status, e.Body)
}

// ClientConfig represents the configuration for the QBO API client.
type ClientConfig struct {
	BaseURL string
	Tokens  TokenSource
	Timeout time.Duration // Default: 30 seconds
}

// Client is a QuickBooks Online API client. Every request first asks the
// token source for a valid access token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

// NewClient creates a new QBO API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		tokens:     config.Tokens,
	}
}

// Query executes a structured query against the realm and returns the
// decoded collection envelope.
func (c *Client) Query(ctx context.Context, realmID, query string) (*QueryResult, error) {
	endpoint := fmt.Sprintf("%s/%s/query", c.baseURL, url.PathEscape(realmID))

	params := url.Values{}
	params.Set("query", query)
	params.Set("minorversion", minorVersion)

	var result QueryResult
	if err := c.doJSON(ctx, realmID, http.MethodGet, endpoint+"?"+params.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateVendor creates a Vendor entity.
func (c *Client) CreateVendor(ctx context.Context, realmID string, vendor *Vendor) (*Vendor, error) {
	var result struct {
		Vendor Vendor `json:"Vendor"`
	}
	if err := c.create(ctx, realmID, "vendor", vendor, &result); err != nil {
		return nil, err
	}
	return &result.Vendor, nil
}

// CreateAccount creates an Account entity.
func (c *Client) CreateAccount(ctx context.Context, realmID string, account *Account) (*Account, error) {
	var result struct {
		Account Account `json:"Account"`
	}
	if err := c.create(ctx, realmID, "account", account, &result); err != nil {
		return nil, err
	}
	return &result.Account, nil
}

// CreatePurchase creates a Purchase transaction.
func (c *Client) CreatePurchase(ctx context.Context, realmID string, purchase *Purchase) (*Purchase, error) {
	var result struct {
		Purchase Purchase `json:"Purchase"`
	}
	if err := c.create(ctx, realmID, "purchase", purchase, &result); err != nil {
		return nil, err
	}
	return &result.Purchase, nil
}

// GetAccount reads a single Account by id.
func (c *Client) GetAccount(ctx context.Context, realmID, id string) (*Account, error) {
	endpoint := fmt.Sprintf("%s/%s/account/%s?minorversion=%s",
		c.baseURL, url.PathEscape(realmID), url.PathEscape(id), minorVersion)

	var result struct {
		Account Account `json:"Account"`
	}
	if err := c.doJSON(ctx, realmID, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return &result.Account, nil
}

// Upload uploads file bytes and links them to a transaction via the
// attachable metadata part. The endpoint expects a two-part multipart body:
// file_metadata_01 (JSON) and file_content_01 (raw bytes).
func (c *Client) Upload(ctx context.Context, realmID string, meta *Attachable, file []byte, fileName, mimeType string) (*Attachable, error) {
	token, err := c.tokens.AccessToken(ctx, realmID)
	if err != nil {
		return nil, err
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if fileName == "" {
		fileName = "upload.bin"
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attachable metadata: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	metaPart, err := createFormFilePart(writer, "file_metadata_01", "metadata.json", "application/json")
	if err != nil {
		return nil, err
	}
	if _, err := metaPart.Write(metaJSON); err != nil {
		return nil, fmt.Errorf("failed to write metadata part: %w", err)
	}

	filePart, err := createFormFilePart(writer, "file_content_01", fileName, mimeType)
	if err != nil {
		return nil, err
	}
	if _, err := filePart.Write(file); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/upload?minorversion=%s", c.baseURL, url.PathEscape(realmID), minorVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp)
	}

	var result struct {
		AttachableResponse []struct {
			Attachable Attachable `json:"Attachable"`
		} `json:"AttachableResponse"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.AttachableResponse) == 0 {
		return nil, fmt.Errorf("upload response contained no attachable")
	}
	return &result.AttachableResponse[0].Attachable, nil
}

// create POSTs an entity body to the named endpoint and decodes the wrapper.
func (c *Client) create(ctx context.Context, realmID, entity string, payload, out any) error {
	endpoint := fmt.Sprintf("%s/%s/%s?minorversion=%s", c.baseURL, url.PathEscape(realmID), entity, minorVersion)
	return c.doJSON(ctx, realmID, http.MethodPost, endpoint, payload, out)
}

// doJSON performs a bearer-authenticated JSON request against the realm.
func (c *Client) doJSON(ctx context.Context, realmID, method, endpoint string, payload, out any) error {
	token, err := c.tokens.AccessToken(ctx, realmID)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseAPIError reads a non-2xx response into an APIError, decoding the
// structured fault envelope when present.
func parseAPIError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Body: "failed to read error response"}
	}

	apiErr := &APIError{Status: resp.StatusCode, Body: string(body)}

	var envelope faultEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Fault != nil {
		apiErr.Fault = envelope.Fault
	}
	return apiErr
}

// createFormFilePart adds a file part with an explicit content type.
func createFormFilePart(w *multipart.Writer, field, fileName, contentType string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, fileName))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	return part, nil
}
