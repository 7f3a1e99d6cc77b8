// Package models defines the core data structures for greeting cards.
package models

// Greeting is one persisted greeting card. The JSON field names are the
// persisted layout of the local store.
type Greeting struct {
	// ID is the unique identifier assigned by the repository.
	ID string `json:"id"`
	// Sender is the free-text name of the author.
	Sender string `json:"sender"`
	// Receiver is the free-text name of the recipient.
	Receiver string `json:"receiver"`
	// Message is the card text.
	Message string `json:"message"`
	// Image is an optional inline data URI; nil when the card has no photo.
	Image *string `json:"image"`
	// Theme is a key into the theme catalog. It is not validated on write.
	Theme string `json:"theme"`
	// CreatedAt is an ISO-8601 UTC timestamp set once by the repository.
	CreatedAt string `json:"createdAt"`
}

// GreetingFields is the caller-supplied part of a Greeting. It carries no
// identity or timestamp: those belong to the repository.
type GreetingFields struct {
	Sender   string  `json:"sender"`
	Receiver string  `json:"receiver"`
	Message  string  `json:"message"`
	Image    *string `json:"image,omitempty"`
	Theme    string  `json:"theme"`
}

// HasImage reports whether the greeting carries a photo.
func (g Greeting) HasImage() bool {
	return g.Image != nil && *g.Image != ""
}
