package fetch

import (
	"encoding/json"
	"fmt"
	"net/url"

	"context"
)

// pageEnvelope is the paged response shape: a page indicator, the total
// page count, and the payload rows for this page.
type pageEnvelope struct {
	Page      int               `json:"page"`
	PageCount int               `json:"page_count"`
	Items     []json.RawMessage `json:"items"`
}

// GetPaged fetches every page of a paginated resource and returns the
// payload rows flattened in their original order. Pages are fetched
// strictly in sequence: page N+1 is requested only after page N reported
// that more pages exist. Exactly one request is issued per page.
//
// Any mid-pagination failure discards all rows gathered so far for this
// call; there is no partial-result caching.
func (c *Client) GetPaged(ctx context.Context, baseURL string) ([]json.RawMessage, error) {
	var items []json.RawMessage

	for page := 1; ; page++ {
		pageURL, err := withPage(baseURL, page)
		if err != nil {
			return nil, err
		}

		body, err := c.Get(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		var env pageEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("page %d: decode: %w", page, err)
		}

		items = append(items, env.Items...)

		if env.Page >= env.PageCount {
			return items, nil
		}
	}
}

// withPage adds the page query parameter to a URL, preserving any
// parameters already present (page size, filters).
func withPage(baseURL string, page int) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", baseURL, err)
	}
	q := u.Query()
	q.Set("page", fmt.Sprintf("%d", page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
