package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"skimmer/app/config"
	"skimmer/app/model"

	"github.com/samber/do"
	"github.com/samber/oops"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS summaries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	text TEXT NOT NULL,
	summary TEXT NOT NULL,
	key_points TEXT NOT NULL DEFAULT '[]',
	url TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS summaries_user_created ON summaries (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS user_preferences (
	user_id INTEGER PRIMARY KEY,
	preferences TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT 'en',
	theme TEXT NOT NULL DEFAULT 'light',
	updated_at INTEGER NOT NULL
);
`

const defaultTheme = "light"

var _ do.Shutdownable = (*Store)(nil)

// PreferencesRecord is the stored form of a user's preferences.
type PreferencesRecord struct {
	UserID      int64  `json:"user_id"`
	Preferences string `json:"preferences"`
	Language    string `json:"language"`
	Theme       string `json:"theme"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(di *do.Injector) (*Store, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return Open(cfg.Server.DBPath)
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, oops.In("storage").Wrapf(err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.In("storage").Wrapf(err, "failed to open database")
	}

	// A single connection keeps sqlite writes serialized.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, oops.In("storage").Wrapf(err, "failed to create tables")
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) SaveSummary(ctx context.Context, entry model.NewHistoryEntry) (int64, error) {
	keyPoints := entry.KeyPoints
	if keyPoints == nil {
		keyPoints = []string{}
	}

	encoded, err := json.Marshal(keyPoints)
	if err != nil {
		return 0, oops.In("storage").Wrapf(err, "failed to encode key points")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (user_id, text, summary, key_points, url, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.UserID, entry.SourceText, entry.Summary, string(encoded), entry.SourceURL, s.now().UnixMilli(),
	)
	if err != nil {
		return 0, oops.In("storage").With("user_id", entry.UserID).Wrapf(err, "failed to insert summary")
	}

	return res.LastInsertId()
}

// ListSummaries returns a user's summaries, newest first.
func (s *Store) ListSummaries(ctx context.Context, userID int64) ([]model.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, text, summary, key_points, url, created_at
		 FROM summaries WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, oops.In("storage").With("user_id", userID).Wrapf(err, "failed to query summaries")
	}
	defer rows.Close()

	entries := make([]model.HistoryEntry, 0)
	for rows.Next() {
		var (
			entry     model.HistoryEntry
			keyPoints string
			createdAt int64
		)

		if err = rows.Scan(&entry.ID, &entry.UserID, &entry.SourceText, &entry.Summary, &keyPoints, &entry.SourceURL, &createdAt); err != nil {
			return nil, oops.In("storage").Wrapf(err, "failed to scan summary")
		}

		if err = json.Unmarshal([]byte(keyPoints), &entry.KeyPoints); err != nil {
			return nil, oops.In("storage").With("id", entry.ID).Wrapf(err, "failed to decode key points")
		}
		entry.CreatedAt = time.UnixMilli(createdAt).UTC()

		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, oops.In("storage").Wrapf(err, "failed to read summaries")
	}

	return entries, nil
}

// GetPreferences returns the stored record or the default one when the user has none.
func (s *Store) GetPreferences(ctx context.Context, userID int64) (PreferencesRecord, error) {
	record := PreferencesRecord{UserID: userID}

	err := s.db.QueryRowContext(ctx,
		`SELECT preferences, language, theme FROM user_preferences WHERE user_id = ?`,
		userID,
	).Scan(&record.Preferences, &record.Language, &record.Theme)

	if errors.Is(err, sql.ErrNoRows) {
		return PreferencesRecord{
			UserID:   userID,
			Language: model.DefaultLanguage,
			Theme:    defaultTheme,
		}, nil
	}
	if err != nil {
		return PreferencesRecord{}, oops.In("storage").With("user_id", userID).Wrapf(err, "failed to query preferences")
	}

	return record, nil
}

func (s *Store) UpsertPreferences(ctx context.Context, record PreferencesRecord) (PreferencesRecord, error) {
	if record.Language == "" {
		record.Language = model.DefaultLanguage
	}
	if record.Theme == "" {
		record.Theme = defaultTheme
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_preferences (user_id, preferences, language, theme, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			preferences = excluded.preferences,
			language = excluded.language,
			theme = excluded.theme,
			updated_at = excluded.updated_at`,
		record.UserID, record.Preferences, record.Language, record.Theme, s.now().UnixMilli(),
	)
	if err != nil {
		return PreferencesRecord{}, oops.In("storage").With("user_id", record.UserID).Wrapf(err, "failed to save preferences")
	}

	return s.GetPreferences(ctx, record.UserID)
}

func (s *Store) Shutdown() error {
	return s.db.Close()
}
