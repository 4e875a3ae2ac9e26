package sheets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/sheets-sync/logging"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const userAgent = "sheets-sync/1.0"

// Client talks to the two public spreadsheet endpoints: the editor page and the CSV export
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxBodySize int64
}

// NewClient creates a client with a fixed per-request timeout and no retries
func NewClient(baseURL string, timeout time.Duration, maxBodySize int64) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxBodySize: maxBodySize,
	}
}

// PageURL is the editor page scraped for table metadata
func (c *Client) PageURL(sheetID string) string {
	return fmt.Sprintf("%s/%s/edit", c.baseURL, url.PathEscape(sheetID))
}

// ExportURL is the CSV export of one table
func (c *Client) ExportURL(sheetID, gid string) string {
	query := url.Values{}
	query.Set("format", "csv")
	query.Set("gid", gid)
	return fmt.Sprintf("%s/%s/export?%s", c.baseURL, url.PathEscape(sheetID), query.Encode())
}

// FetchPage downloads the editor page as text
func (c *Client) FetchPage(ctx context.Context, sheetID string) (string, error) {
	body, _, err := c.get(ctx, c.PageURL(sheetID))
	if err != nil {
		return "", err
	}
	return decodeText(body)
}

// FetchCSV downloads the CSV export of one table
func (c *Client) FetchCSV(ctx context.Context, sheetID, gid string) (string, error) {
	exportURL := c.ExportURL(sheetID, gid)

	body, contentType, err := c.get(ctx, exportURL)
	if err != nil {
		return "", err
	}

	// A private or missing sheet redirects to an HTML sign-in page with status 200
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "text/html" {
		return "", fmt.Errorf("%w %q from %s", ErrUnexpectedContent, mediaType, exportURL)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return "", fmt.Errorf("%w from %s", ErrEmptyResponse, exportURL)
	}

	text, err := decodeText(body)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", exportURL, err)
	}

	return text, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request for %s: %w", target, err)
	}
	req.Header.Set("User-Agent", userAgent)

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download %s: %w", target, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, "", &StatusError{URL: target, StatusCode: response.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, c.maxBodySize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body of %s: %w", target, err)
	}

	if int64(len(body)) > c.maxBodySize {
		return nil, "", fmt.Errorf("%w: %s is over %d bytes", ErrResponseTooLarge, target, c.maxBodySize)
	}

	return body, response.Header.Get("Content-Type"), nil
}

// decodeText strips a byte order mark and falls back to ISO-8859-1 when the bytes are not UTF-8
func decodeText(body []byte) (string, error) {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), body)
	if err != nil {
		return "", err
	}

	if !utf8.Valid(decoded) {
		decoded, err = charmap.ISO8859_1.NewDecoder().Bytes(decoded)
		if err != nil {
			return "", err
		}
	}

	return strings.ReplaceAll(string(decoded), "\r\n", "\n"), nil
}
