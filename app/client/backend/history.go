package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"skimmer/app/model"

	"github.com/samber/do"
)

type HistoryClient struct {
	client *Client
}

func NewHistoryClient(di *do.Injector) (*HistoryClient, error) {
	return NewHistory(do.MustInvoke[*Client](di)), nil
}

func NewHistory(client *Client) *HistoryClient {
	return &HistoryClient{client: client}
}

// List returns the entries in the order the service sent them.
func (c *HistoryClient) List(ctx context.Context, userID int64) ([]model.HistoryEntry, error) {
	query := url.Values{"user_id": []string{strconv.FormatInt(userID, 10)}}

	var entries []model.HistoryEntry
	if err := c.client.call(ctx, http.MethodGet, "/summaries", "/summaries?"+query.Encode(), nil, &entries); err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}

	return entries, nil
}

func (c *HistoryClient) Append(ctx context.Context, entry model.NewHistoryEntry) error {
	if entry.KeyPoints == nil {
		entry.KeyPoints = []string{}
	}

	if err := c.client.call(ctx, http.MethodPost, "/save_summary", "/save_summary", entry, nil); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}

	return nil
}
