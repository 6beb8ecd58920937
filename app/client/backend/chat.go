package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"skimmer/app/model"

	"github.com/samber/do"
)

type ChatClient struct {
	client *Client
}

type chatRequest struct {
	Question  string            `json:"question"`
	Context   model.ChatContext `json:"context"`
	SessionID *string           `json:"session_id"`
}

func NewChatClient(di *do.Injector) (*ChatClient, error) {
	return NewChat(do.MustInvoke[*Client](di)), nil
}

func NewChat(client *Client) *ChatClient {
	return &ChatClient{client: client}
}

// Ask continues sessionID, or lets the service open a new session when it is empty.
func (c *ChatClient) Ask(ctx context.Context, question string, chatCtx model.ChatContext, sessionID string) (model.ChatReply, error) {
	if strings.TrimSpace(question) == "" {
		return model.ChatReply{}, &model.ValidationError{Field: "question", Reason: "must not be blank"}
	}

	if chatCtx.KeyPoints == nil {
		chatCtx.KeyPoints = []string{}
	}

	req := chatRequest{
		Question: question,
		Context:  chatCtx,
	}
	if sessionID != "" {
		req.SessionID = &sessionID
	}

	var reply model.ChatReply
	if err := c.client.call(ctx, http.MethodPost, "/chat", "/chat", req, &reply); err != nil {
		return model.ChatReply{}, fmt.Errorf("failed to chat: %w", err)
	}

	return reply, nil
}
