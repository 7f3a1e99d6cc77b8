// Package view holds the lifecycle of the shareable card page: loading a
// greeting (or the demo card), the timed celebration and link-copied
// flags, and the copy-link and export actions.
package view

import (
	"fmt"
	"time"

	"github.com/atinyakov/valentine/internal/card"
	"github.com/atinyakov/valentine/internal/models"
)

// State is the page state.
type State int

const (
	// Loading is the state before the lookup finished.
	Loading State = iota
	// Found means a greeting is being presented.
	Found
	// NotFound covers both a missing greeting and a failed lookup.
	NotFound
)

var stateNames = [...]string{"loading", "found", "not_found"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Timings and export parameters.
const (
	CelebrationDuration = 5 * time.Second
	CopiedDuration      = 2 * time.Second
	ExportScale         = 2
)

// DemoID is the reserved identity that renders DemoGreeting without
// touching storage.
const DemoID = "demo"

// MsgExportFailed is shown when an export fails.
const MsgExportFailed = "Gagal mengunduh kartu. Silakan coba lagi."

// DemoGreeting returns the fixed demonstration card.
func DemoGreeting() models.Greeting {
	return models.Greeting{
		ID:       DemoID,
		Sender:   "John Doe",
		Receiver: "Jane Doe",
		Message:  "Happy Valentine's Day, my love! You are the most beautiful thing that ever happened to me. Every moment with you feels like a dream come true. I love you more than words can express! 💕",
		Theme:    card.DefaultTheme,
	}
}

// Snapshot is a point-in-time copy of a CardView.
type Snapshot struct {
	State       State      `json:"state"`
	ID          string     `json:"id"`
	Demo        bool       `json:"demo"`
	Card        *card.View `json:"card,omitempty"`
	Celebrating bool       `json:"celebrating"`
	LinkCopied  bool       `json:"linkCopied"`
	ShareURL    string     `json:"shareUrl,omitempty"`
}
