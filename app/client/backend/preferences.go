package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"skimmer/app/model"

	"github.com/samber/do"
)

const preferencesEndpoint = "/preferences/{userId}"

type PreferencesClient struct {
	client *Client

	mu        sync.Mutex
	lastKnown model.Preferences
}

func NewPreferencesClient(di *do.Injector) (*PreferencesClient, error) {
	return NewPreferences(do.MustInvoke[*Client](di)), nil
}

func NewPreferences(client *Client) *PreferencesClient {
	return &PreferencesClient{
		client:    client,
		lastKnown: model.DefaultPreferences(),
	}
}

// Load never fails: any error degrades to the last record this client saw.
func (c *PreferencesClient) Load(ctx context.Context, userID int64) model.Preferences {
	var prefs model.Preferences

	err := c.client.call(ctx, http.MethodGet, preferencesEndpoint, preferencesPath(userID), nil, &prefs)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		slog.Warn("Failed to load preferences, using last known",
			"user_id", userID,
			"preferences", c.lastKnown,
			"error", err,
		)
		return c.lastKnown
	}

	c.lastKnown = prefs.Normalize()
	slog.Debug("Loaded preferences", "user_id", userID, "preferences", c.lastKnown)

	return c.lastKnown
}

func (c *PreferencesClient) Save(ctx context.Context, userID int64, prefs model.Preferences) (model.Preferences, error) {
	var saved model.Preferences

	err := c.client.call(ctx, http.MethodPut, preferencesEndpoint, preferencesPath(userID), prefs, &saved)
	if err != nil {
		return model.Preferences{}, fmt.Errorf("failed to save preferences: %w", err)
	}

	saved = saved.Normalize()

	c.mu.Lock()
	c.lastKnown = saved
	c.mu.Unlock()

	slog.Info("Saved preferences", "user_id", userID, "preferences", saved)

	return saved, nil
}

func preferencesPath(userID int64) string {
	return fmt.Sprintf("/preferences/%d", userID)
}
