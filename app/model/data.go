package model

import "time"

const (
	DefaultLanguage = "en"

	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

type Preferences struct {
	Preferences string `json:"preferences"`
	Language    string `json:"language"`
}

func DefaultPreferences() Preferences {
	return Preferences{Language: DefaultLanguage}
}

// Normalize fills in the language the service assumes when none is stored.
func (p Preferences) Normalize() Preferences {
	if p.Language == "" {
		p.Language = DefaultLanguage
	}

	return p
}

type HistoryEntry struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id,omitempty"`
	SourceText string    `json:"text"`
	Summary    string    `json:"summary"`
	KeyPoints  []string  `json:"key_points"`
	SourceURL  string    `json:"url"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}

type NewHistoryEntry struct {
	UserID     int64    `json:"user_id"`
	SourceText string   `json:"text"`
	Summary    string   `json:"summary"`
	KeyPoints  []string `json:"key_points"`
	SourceURL  string   `json:"url"`
}

type SummaryResult struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

type ChatContext struct {
	Text      string   `json:"text"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

type ChatReply struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

type Sender string

type Turn struct {
	Sender  Sender
	Message string
}
