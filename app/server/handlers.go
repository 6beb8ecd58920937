package server

import (
	"errors"
	"log/slog"
	"strings"

	"skimmer/app/model"
	"skimmer/app/storage"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const defaultUserID = 1

type preferencesRequest struct {
	Preferences *string `json:"preferences"`
	Language    *string `json:"language"`
	Theme       *string `json:"theme"`
}

type summarizeRequest struct {
	Text        string `json:"text" validate:"required"`
	Language    string `json:"language"`
	Preferences string `json:"preferences"`
}

type chatRequest struct {
	Question  string             `json:"question" validate:"required"`
	Context   *model.ChatContext `json:"context" validate:"required"`
	SessionID string             `json:"session_id"`
}

type saveSummaryRequest struct {
	UserID    int64    `json:"user_id" validate:"gte=0"`
	Text      string   `json:"text" validate:"required"`
	Summary   string   `json:"summary" validate:"required"`
	KeyPoints []string `json:"key_points"`
	URL       string   `json:"url"`
}

func errorBody(message string) fiber.Map {
	return fiber.Map{"error": message}
}

func (s *Server) internalError(c *fiber.Ctx, msg string, err error) error {
	slog.ErrorContext(c.UserContext(), msg,
		"route", c.Route().Path,
		"error", err,
	)

	return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
}

func (s *Server) userIDParam(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("userId")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	return int64(id), nil
}

func (s *Server) getPreferences(c *fiber.Ctx) error {
	userID, err := s.userIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(err.Error()))
	}

	record, err := s.store.GetPreferences(c.UserContext(), userID)
	if err != nil {
		return s.internalError(c, "Failed to load preferences", err)
	}

	return c.JSON(record)
}

func (s *Server) updatePreferences(c *fiber.Ctx) error {
	userID, err := s.userIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(err.Error()))
	}

	var req preferencesRequest
	if err = c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody("invalid request body"))
	}

	record, err := s.store.GetPreferences(c.UserContext(), userID)
	if err != nil {
		return s.internalError(c, "Failed to load preferences", err)
	}

	if req.Preferences != nil {
		record.Preferences = *req.Preferences
	}
	if req.Language != nil {
		record.Language = *req.Language
	}
	if req.Theme != nil {
		record.Theme = *req.Theme
	}

	saved, err := s.store.UpsertPreferences(c.UserContext(), record)
	if err != nil {
		return s.internalError(c, "Failed to save preferences", err)
	}

	return c.JSON(saved)
}

func (s *Server) summarize(c *fiber.Ctx) error {
	var req summarizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody("invalid request body"))
	}

	if err := s.validate.Struct(req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody("No text provided"))
	}

	if req.Language == "" {
		req.Language = model.DefaultLanguage
	}

	result, err := s.summarizer.Summarize(c.UserContext(), req.Text, req.Language, req.Preferences)
	if err != nil {
		return s.internalError(c, "Summarization failed", err)
	}

	slog.InfoContext(c.UserContext(), "Summarized text",
		"text_length", len(req.Text),
		"key_points", len(result.KeyPoints),
	)

	return c.JSON(result)
}

func (s *Server) chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody("invalid request body"))
	}

	if err := s.validate.Struct(req); err != nil || strings.TrimSpace(req.Question) == "" || isEmptyContext(req.Context) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"answer": "Missing question or context."})
	}

	reply, err := s.assistant.Ask(c.UserContext(), req.Question, *req.Context, req.SessionID)
	if err != nil {
		return s.internalError(c, "Chat failed", err)
	}

	return c.JSON(reply)
}

func isEmptyContext(chatCtx *model.ChatContext) bool {
	return chatCtx == nil || (chatCtx.Text == "" && chatCtx.Summary == "" && len(chatCtx.KeyPoints) == 0)
}

func (s *Server) saveSummary(c *fiber.Ctx) error {
	var req saveSummaryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody("invalid request body"))
	}

	if err := s.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && validationErrs[0].Field() == "UserID" {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("invalid user id"))
		}

		return c.Status(fiber.StatusBadRequest).JSON(errorBody("Missing text or summary"))
	}

	if req.UserID == 0 {
		req.UserID = defaultUserID
	}

	_, err := s.store.SaveSummary(c.UserContext(), model.NewHistoryEntry{
		UserID:     req.UserID,
		SourceText: req.Text,
		Summary:    req.Summary,
		KeyPoints:  req.KeyPoints,
		SourceURL:  req.URL,
	})
	if err != nil {
		return s.internalError(c, "Failed to save summary", err)
	}

	return c.JSON(fiber.Map{"status": "success"})
}

func (s *Server) listSummaries(c *fiber.Ctx) error {
	userID := c.QueryInt("user_id", defaultUserID)
	if userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody("invalid user id"))
	}

	entries, err := s.store.ListSummaries(c.UserContext(), int64(userID))
	if err != nil {
		return s.internalError(c, "Failed to list summaries", err)
	}

	return c.JSON(entries)
}

var _ Store = (*storage.Store)(nil)
