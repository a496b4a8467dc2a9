// Package notify sends desktop notifications when a generation finishes.
// It uses github.com/gen2brain/beeep for cross-platform notification support.
package notify

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/projgen/projgen/internal/constants"
	"github.com/projgen/projgen/internal/logging"
)

const appTitle = "Project Generator"

// Notifier handles desktop notifications. A disabled Notifier is a no-op.
type Notifier struct {
	logger  *logging.Logger
	enabled bool
	mu      sync.RWMutex

	// replaced in tests
	notify func(title, message string) error
	alert  func(title, message string) error
}

// NewNotifier creates a notifier. Notifications are only sent when enabled.
func NewNotifier(enabled bool, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Notifier{
		logger:  logger,
		enabled: enabled,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		alert: func(title, message string) error {
			return beeep.Alert(title, message, "")
		},
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	if n == nil {
		return false
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// GenerationComplete announces a project extracted to root.
func (n *Notifier) GenerationComplete(source, root string) {
	if !n.IsEnabled() {
		return
	}

	title := "Project Generated"
	message := fmt.Sprintf("%s\nSaved to: %s", truncate(filepath.Base(source), 40), shortenPath(root))

	if err := n.notify(title, message); err != nil {
		n.logger.Warn().Err(err).Str("source", source).Msg("Failed to send completion notification")
	}
}

// GenerationFailed announces a failed generation. It uses the more prominent
// alert style and falls back to a plain notification.
func (n *Notifier) GenerationFailed(source, errorMsg string) {
	if !n.IsEnabled() {
		return
	}

	title := appTitle + ": Generation Failed"
	message := fmt.Sprintf("%s\n%s", truncate(filepath.Base(source), 40), truncate(errorMsg, constants.NotificationMaxLen))

	if err := n.alert(title, message); err != nil {
		if err := n.notify(title, message); err != nil {
			n.logger.Warn().Err(err).Str("source", source).Msg("Failed to send failure notification")
		}
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// shortenPath abbreviates a long path for display in notifications.
func shortenPath(path string) string {
	const maxLen = 60

	if len(path) <= maxLen {
		return path
	}

	// Keep the last two components
	_, file := filepath.Split(path)
	parentDir := filepath.Base(filepath.Dir(path))
	short := filepath.Join("...", parentDir, file)

	vol := filepath.VolumeName(path)
	if vol != "" && len(vol)+len(short)+1 <= maxLen {
		short = vol + string(filepath.Separator) + short
	}

	if len(short) > maxLen {
		return "..." + path[len(path)-(maxLen-3):]
	}
	return short
}
