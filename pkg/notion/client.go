package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
)

// Client is a minimal Notion API client covering what a sync run needs:
// paginated database queries, page creation, and page updates.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient builds a client authenticating with the given integration token.
func NewClient(ctx context.Context, token string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{
		http:    oauth2.NewClient(ctx, src),
		baseURL: defaultBaseURL,
	}
}

// QueryPage is one page of database query results.
type QueryPage struct {
	Results    []Page `json:"results"`
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

// Query fetches one page of records from a database. Pass the previous
// page's NextCursor to continue; the empty cursor starts from the beginning.
func (c *Client) Query(ctx context.Context, databaseID, cursor string) (*QueryPage, error) {
	body := map[string]any{}
	if cursor != "" {
		body["start_cursor"] = cursor
	}
	var page QueryPage
	path := fmt.Sprintf("/v1/databases/%s/query", databaseID)
	if err := c.do(ctx, http.MethodPost, path, body, &page); err != nil {
		return nil, fmt.Errorf("query database %s: %w", databaseID, err)
	}
	return &page, nil
}

// CreatePage creates a record in a database and returns its id.
func (c *Client) CreatePage(ctx context.Context, databaseID string, props Properties) (string, error) {
	body := map[string]any{
		"parent":     map[string]string{"database_id": databaseID},
		"properties": props,
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/pages", body, &created); err != nil {
		return "", fmt.Errorf("create page in %s: %w", databaseID, err)
	}
	return created.ID, nil
}

// UpdatePage overwrites the given properties on an existing page.
func (c *Client) UpdatePage(ctx context.Context, pageID string, props Properties) error {
	body := map[string]any{"properties": props}
	if err := c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, body, nil); err != nil {
		return fmt.Errorf("update page %s: %w", pageID, err)
	}
	return nil
}

// ArchivePage archives a page, Notion's form of deletion.
func (c *Client) ArchivePage(ctx context.Context, pageID string) error {
	body := map[string]any{"archived": true}
	if err := c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, body, nil); err != nil {
		return fmt.Errorf("archive page %s: %w", pageID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("notion API returned %s: %s", resp.Status, msg)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
