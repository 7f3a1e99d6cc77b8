// Package service provides the greeting creation flow: form validation,
// photo conversion and the user-facing error policy around the repository.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/atinyakov/valentine/internal/card"
	"github.com/atinyakov/valentine/internal/models"
	"go.uber.org/zap"
)

// ErrSaveFailed is returned when the store rejected a new greeting. Show
// MsgRetry to the user.
var ErrSaveFailed = errors.New("greeting could not be saved")

// User-facing messages.
const (
	MsgRetry            = "Terjadi kesalahan. Silakan coba lagi."
	MsgImageTooLarge    = "Ukuran gambar maksimal 5MB"
	MsgNotImage         = "File harus berupa gambar"
	MsgImageDimensions  = "Resolusi gambar terlalu besar"
	MsgSenderRequired   = "Nama pengirim wajib diisi"
	MsgReceiverRequired = "Nama penerima wajib diisi"
	MsgMessageRequired  = "Pesan cinta wajib diisi"
)

// ValidationError lists the form fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid greeting: " + strings.Join(parts, "; ")
}

// GreetingRepository defines the persistence operations the service needs.
type GreetingRepository interface {
	// Create stores a new greeting and returns it with its assigned id.
	Create(ctx context.Context, fields models.GreetingFields) (*models.Greeting, error)
}

// GreetingService validates creation forms and stores them.
type GreetingService struct {
	repo GreetingRepository
	log  *zap.Logger
}

// NewGreetingService constructs a GreetingService. A nil logger discards.
func NewGreetingService(repo GreetingRepository, log *zap.Logger) *GreetingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GreetingService{repo: repo, log: log}
}

// Validate trims the form and checks the required fields. The returned
// fields are what Create stores.
func Validate(form models.GreetingFields) (models.GreetingFields, error) {
	form.Sender = strings.TrimSpace(form.Sender)
	form.Receiver = strings.TrimSpace(form.Receiver)
	form.Message = strings.TrimSpace(form.Message)
	form.Theme = strings.TrimSpace(form.Theme)
	if form.Theme == "" {
		form.Theme = card.DefaultTheme
	}
	if form.Image != nil && *form.Image == "" {
		form.Image = nil
	}

	errs := map[string]string{}
	if form.Sender == "" {
		errs["sender"] = MsgSenderRequired
	}
	if form.Receiver == "" {
		errs["receiver"] = MsgReceiverRequired
	}
	if form.Message == "" {
		errs["message"] = MsgMessageRequired
	}
	if form.Image != nil {
		if err := CheckDataURI(*form.Image); err != nil {
			errs["image"] = UserMessage(err)
		}
	}
	if len(errs) > 0 {
		return form, &ValidationError{Fields: errs}
	}
	return form, nil
}

// Create validates form and stores it. Validation problems come back as
// *ValidationError; a rejected write comes back wrapping ErrSaveFailed.
func (s *GreetingService) Create(ctx context.Context, form models.GreetingFields) (*models.Greeting, error) {
	fields, err := Validate(form)
	if err != nil {
		return nil, err
	}

	g, err := s.repo.Create(ctx, fields)
	if err != nil {
		s.log.Error("error saving greeting", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	s.log.Info("greeting created", zap.String("id", g.ID), zap.String("theme", g.Theme))
	return g, nil
}

// UserMessage picks the text a presenter shows for an error from this
// package.
func UserMessage(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, ErrImageTooLarge):
		return MsgImageTooLarge
	case errors.Is(err, ErrNotImage):
		return MsgNotImage
	case errors.Is(err, ErrImageDimensions):
		return MsgImageDimensions
	default:
		return MsgRetry
	}
}
