package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"skimmer/app/model"

	"github.com/samber/do"
)

type SummarizeClient struct {
	client *Client
}

type summarizeRequest struct {
	Text        string `json:"text"`
	Language    string `json:"language"`
	Preferences string `json:"preferences"`
}

func NewSummarizeClient(di *do.Injector) (*SummarizeClient, error) {
	return NewSummarize(do.MustInvoke[*Client](di)), nil
}

func NewSummarize(client *Client) *SummarizeClient {
	return &SummarizeClient{client: client}
}

func (c *SummarizeClient) Summarize(ctx context.Context, text, language, preferences string) (model.SummaryResult, error) {
	if strings.TrimSpace(text) == "" {
		return model.SummaryResult{}, &model.ValidationError{Field: "text", Reason: "must not be blank"}
	}

	req := summarizeRequest{
		Text:        text,
		Language:    language,
		Preferences: preferences,
	}

	var result model.SummaryResult
	if err := c.client.call(ctx, http.MethodPost, "/summarize", "/summarize", req, &result); err != nil {
		return model.SummaryResult{}, fmt.Errorf("failed to summarize text: %w", err)
	}

	return result, nil
}
