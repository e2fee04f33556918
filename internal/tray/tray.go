// Package tray provides a system tray interface for toggling camera supervision.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/grindsens/repcoach/internal/app"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
	last       string
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	// Set the tray title and tooltip
	systray.SetTitle("RepCoach")
	systray.SetTooltip("RepCoach Rep Counter")

	// Create menu items
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.IsEnabled()), "Toggle camera supervision")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastTitle(t.Last()), "Last counted rep or set")
	t.menuLast.Disable()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit RepCoach")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
// It performs cleanup tasks.
func (t *Tray) onExit() {
	// Cleanup resources if needed
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLast updates the last event display in the menu.
func (t *Tray) SetLast(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = text
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(text))
	}
}

// Last returns the text of the last event display.
func (t *Tray) Last() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// HandleUpdate shows counted reps and finished sets from the camera pipeline.
func (t *Tray) HandleUpdate(u app.Update) {
	if text := Describe(u); text != "" {
		t.SetLast(text)
	}
}

// Describe renders an update for the menu. Frames without a rep or set
// yield an empty string.
func Describe(u app.Update) string {
	switch {
	case u.ExerciseComplete:
		return fmt.Sprintf("%s complete", u.Exercise)
	case u.SetCompleted && u.TargetSets > 0:
		return fmt.Sprintf("%s set %d/%d", u.Exercise, u.SetsLogged, u.TargetSets)
	case u.SetCompleted:
		return fmt.Sprintf("%s set %d", u.Exercise, u.Sets)
	case u.RepCompleted:
		return fmt.Sprintf("%s %d/%d", u.Exercise, u.Reps, u.Target)
	default:
		return ""
	}
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Supervising"
	}
	return "○ Paused"
}

func lastTitle(text string) string {
	if text == "" {
		return "Last: none"
	}
	return "Last: " + text
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Quit stops the tray loop started by Run.
func (t *Tray) Quit() {
	systray.Quit()
}
