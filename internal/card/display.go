package card

import (
	"strings"

	"github.com/atinyakov/valentine/internal/models"
)

// Placeholders shown when a field was left empty.
const (
	DefaultSender   = "Someone"
	DefaultReceiver = "You"
	DefaultMessage  = "Tidak ada pesan..."
)

// Title and DateLine are printed on every card.
const (
	Title    = "Happy Valentine's Day"
	DateLine = "14 February 2026"
)

// View is a greeting with every render-time default resolved.
type View struct {
	ID        string  `json:"id"`
	Sender    string  `json:"sender"`
	Receiver  string  `json:"receiver"`
	Message   string  `json:"message"`
	Image     *string `json:"image,omitempty"`
	Theme     Theme   `json:"theme"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

// Display resolves the defaults of g. It does not modify g.
func Display(g models.Greeting) View {
	v := View{
		ID:        g.ID,
		Sender:    orDefault(g.Sender, DefaultSender),
		Receiver:  orDefault(g.Receiver, DefaultReceiver),
		Message:   orDefault(g.Message, DefaultMessage),
		Theme:     ThemeFor(g.Theme),
		CreatedAt: g.CreatedAt,
	}
	if g.HasImage() {
		img := *g.Image
		v.Image = &img
	}
	return v
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
