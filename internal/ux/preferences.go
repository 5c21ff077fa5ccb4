package ux

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PreferencesVersion is the current schema version for preferences.json.
const PreferencesVersion = "1.0"

// UserPreferences tracks sticky feedback-flow state.
type UserPreferences struct {
	// Version is the schema version for migration detection
	Version string `json:"version"`

	// IntroShown records whether the intro banner was already displayed
	IntroShown bool `json:"intro_shown"`

	// LastFeedbackAt is the RFC3339 time of the last filed issue
	LastFeedbackAt string `json:"last_feedback_at,omitempty"`

	// IssuesFiled counts issues opened through this tool
	IssuesFiled int `json:"issues_filed"`
}

// DefaultUserPreferences returns a fresh preferences document.
func DefaultUserPreferences() *UserPreferences {
	return &UserPreferences{Version: PreferencesVersion}
}

// PreferencesManager handles loading/saving preferences.
type PreferencesManager struct {
	mu          sync.RWMutex
	path        string
	preferences *UserPreferences
}

// NewPreferencesManager creates a preferences manager storing under dir.
func NewPreferencesManager(dir string) *PreferencesManager {
	return &PreferencesManager{
		path: filepath.Join(dir, "preferences.json"),
	}
}

// Load reads preferences from disk, creating defaults if not exists.
func (pm *PreferencesManager) Load() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	data, err := os.ReadFile(pm.path)
	if err != nil {
		if os.IsNotExist(err) {
			pm.preferences = DefaultUserPreferences()
			return nil
		}
		return fmt.Errorf("failed to read preferences: %w", err)
	}

	prefs := &UserPreferences{}
	if err := json.Unmarshal(data, prefs); err != nil {
		// Corrupt preferences are not worth failing feedback over
		pm.preferences = DefaultUserPreferences()
		return nil
	}
	if prefs.Version == "" {
		prefs.Version = PreferencesVersion
	}
	pm.preferences = prefs
	return nil
}

// Get returns the loaded preferences, loading lazily when needed.
func (pm *PreferencesManager) Get() *UserPreferences {
	pm.mu.RLock()
	if pm.preferences != nil {
		defer pm.mu.RUnlock()
		return pm.preferences
	}
	pm.mu.RUnlock()

	_ = pm.Load()
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.preferences
}

// MarkIntroShown records that the intro banner was displayed.
func (pm *PreferencesManager) MarkIntroShown() error {
	prefs := pm.Get()

	pm.mu.Lock()
	prefs.IntroShown = true
	pm.mu.Unlock()

	return pm.Save()
}

// RecordIssueFiled bumps the issue counter and timestamp.
func (pm *PreferencesManager) RecordIssueFiled(now time.Time) error {
	prefs := pm.Get()

	pm.mu.Lock()
	prefs.IssuesFiled++
	prefs.LastFeedbackAt = now.Format(time.RFC3339)
	pm.mu.Unlock()

	return pm.Save()
}

// Save writes preferences to disk.
func (pm *PreferencesManager) Save() error {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if pm.preferences == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(pm.path), 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	data, err := json.MarshalIndent(pm.preferences, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if err := os.WriteFile(pm.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
