package workflow

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Receipt is an attachment source: a web-accessible URL or inline base64
// content (raw or data URL).
type Receipt struct {
	FileURL       string
	ContentBase64 string
	FileName      string
	Mime          string
}

var dataURLPattern = regexp.MustCompile(`(?i)^data:([^;]+);base64,(.*)$`)

// fetcher resolves a receipt source into a byte buffer before upload.
type fetcher struct {
	httpClient *http.Client
}

func newFetcher() *fetcher {
	return &fetcher{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

// resolve returns the receipt bytes and effective MIME type. The declared
// MIME on the receipt wins over anything inferred from the source.
func (f *fetcher) resolve(ctx context.Context, r *Receipt) ([]byte, string, error) {
	var (
		data []byte
		mime string
		err  error
	)
	if r.ContentBase64 != "" {
		data, mime, err = decodeBase64(r.ContentBase64)
	} else {
		data, mime, err = f.fetchURL(ctx, r.FileURL)
	}
	if err != nil {
		return nil, "", err
	}

	if r.Mime != "" {
		mime = r.Mime
	}
	return data, mime, nil
}

func (f *fetcher) fetchURL(ctx context.Context, fileURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid file URL: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch file: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file body: %w", err)
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "application/octet-stream"
	}
	return data, mime, nil
}

// decodeBase64 decodes raw base64 or a data URL (data:mime;base64,...).
func decodeBase64(s string) ([]byte, string, error) {
	mime := "application/octet-stream"
	payload := s
	if m := dataURLPattern.FindStringSubmatch(s); m != nil {
		mime = m[1]
		payload = m[2]
	}
	payload = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, payload)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 content: %w", err)
	}
	return data, mime, nil
}
