package store

import (
	"context"
	"encoding/json"
)

const keyPrefs = "prefs"

// View modes the dashboard can persist.
const (
	ViewModeGrid = "grid"
	ViewModeList = "list"
)

// Preferences are the dashboard display settings that ride alongside
// credentials: they survive restarts but are never worth failing over.
type Preferences struct {
	ViewMode    string `json:"viewMode,omitempty"`
	StoreFilter string `json:"storeFilter,omitempty"`
}

// PreferenceStore persists dashboard preferences. Best-effort like the
// credential methods: a load failure yields zero-value preferences.
type PreferenceStore interface {
	LoadPreferences(ctx context.Context) Preferences
	SavePreferences(ctx context.Context, prefs Preferences)
}

var (
	_ PreferenceStore = &SQLite{}
	_ PreferenceStore = &Redis{}
)

// LoadPreferences returns the persisted preferences, or defaults when none
// were saved or the stored blob no longer decodes.
func (s *SQLite) LoadPreferences(ctx context.Context) Preferences {
	prefs := Preferences{}
	raw, ok := s.get(ctx, keyPrefs)
	if !ok {
		return prefs
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		s.logger.Warn("stored preferences failed to decode, dropping them", "error", err)
		return Preferences{}
	}
	return prefs
}

// SavePreferences replaces the persisted preferences.
func (s *SQLite) SavePreferences(ctx context.Context, prefs Preferences) {
	raw, err := json.Marshal(prefs)
	if err != nil {
		s.logger.Warn("failed to serialize preferences", "error", err)
		return
	}
	s.put(ctx, keyPrefs, string(raw))
}

// LoadPreferences returns the persisted preferences, or defaults when none
// were saved or the stored blob no longer decodes.
func (r *Redis) LoadPreferences(ctx context.Context) Preferences {
	prefs := Preferences{}
	raw, ok := r.get(ctx, r.prefix+":"+keyPrefs)
	if !ok {
		return prefs
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		r.logger.Warn("stored preferences failed to decode, dropping them", "error", err)
		return Preferences{}
	}
	return prefs
}

// SavePreferences replaces the persisted preferences.
func (r *Redis) SavePreferences(ctx context.Context, prefs Preferences) {
	raw, err := json.Marshal(prefs)
	if err != nil {
		r.logger.Warn("failed to serialize preferences", "error", err)
		return
	}
	r.put(ctx, r.prefix+":"+keyPrefs, string(raw))
}
