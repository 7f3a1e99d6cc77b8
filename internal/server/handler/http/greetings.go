// Package http provides the HTTP handlers of the greeting preview server.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/atinyakov/valentine/internal/card"
	"github.com/atinyakov/valentine/internal/metrics"
	"github.com/atinyakov/valentine/internal/models"
	"github.com/atinyakov/valentine/internal/service"
	"github.com/atinyakov/valentine/internal/view"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxBodyBytes bounds a create request: a 5MB photo grows by a third as
// base64, plus the text fields.
const maxBodyBytes = service.MaxImageBytes*4/3 + 64*1024

// GreetingService creates greetings from a submitted form.
type GreetingService interface {
	Create(ctx context.Context, form models.GreetingFields) (*models.Greeting, error)
}

// GreetingStore is the read and cleanup side of the repository.
type GreetingStore interface {
	GetByID(ctx context.Context, id string) (*models.Greeting, error)
	List(ctx context.Context) []models.Greeting
	DeleteByID(ctx context.Context, id string) bool
	ClearAll(ctx context.Context) bool
}

// CardRenderer encodes a display card as PNG.
type CardRenderer interface {
	WritePNG(w io.Writer, v card.View, scale int) error
}

// GreetingHandler serves the greeting API.
type GreetingHandler struct {
	Service  GreetingService
	Store    GreetingStore
	Renderer CardRenderer
	// BaseURL prefixes the share links in responses.
	BaseURL string
	// Metrics may be nil.
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// Create handles POST /api/greetings. The body is either a JSON object of
// greeting fields or a multipart form with an optional "image" file.
func (h *GreetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	form, err := h.readForm(r)
	if err != nil {
		h.countCreateFailure("bad_request")
		switch {
		case errors.Is(err, service.ErrImageTooLarge), errors.Is(err, service.ErrNotImage),
			errors.Is(err, service.ErrImageDimensions):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: service.UserMessage(err)})
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		return
	}

	g, err := h.Service.Create(r.Context(), form)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			h.countCreateFailure("invalid")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid greeting", Fields: verr.Fields})
			return
		}
		h.countCreateFailure("save")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: service.UserMessage(err)})
		return
	}

	if h.Metrics != nil {
		h.Metrics.GreetingsCreated.Inc()
	}
	w.Header().Set("Location", view.ShareURL(h.BaseURL, g.ID))
	writeJSON(w, http.StatusCreated, g)
}

func (h *GreetingHandler) readForm(r *http.Request) (models.GreetingFields, error) {
	var form models.GreetingFields
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		err := json.NewDecoder(r.Body).Decode(&form)
		return form, err
	}

	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		return form, err
	}
	form.Sender = r.FormValue("sender")
	form.Receiver = r.FormValue("receiver")
	form.Message = r.FormValue("message")
	form.Theme = r.FormValue("theme")

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		return form, err
	}
	defer file.Close()

	uri, err := service.ImageToDataURI(file, header.Header.Get("Content-Type"))
	if err != nil {
		return form, err
	}
	form.Image = &uri
	return form, nil
}

// List handles GET /api/greetings.
func (h *GreetingHandler) List(w http.ResponseWriter, r *http.Request) {
	greetings := h.Store.List(r.Context())
	if greetings == nil {
		greetings = []models.Greeting{}
	}
	writeJSON(w, http.StatusOK, greetings)
}

// View handles GET /api/greetings/{id}: the card page snapshot, or a 404
// not_found snapshot.
func (h *GreetingHandler) View(w http.ResponseWriter, r *http.Request) {
	snap := h.load(r.Context(), chi.URLParam(r, "id"), view.Options{})
	if snap.State != view.Found {
		writeJSON(w, http.StatusNotFound, snap)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Export handles GET /api/greetings/{id}/export and downloads the card as
// a PNG at export scale.
func (h *GreetingHandler) Export(w http.ResponseWriter, r *http.Request) {
	exp := &bufferExporter{renderer: h.Renderer}
	note := &lastNotice{}
	cv := view.New(h.Store, h.viewOptions(view.Options{Exporter: exp, Notifier: note}))
	defer cv.Close()

	snap := cv.Load(r.Context(), chi.URLParam(r, "id"))
	h.countView(snap.State)
	if snap.State != view.Found {
		writeJSON(w, http.StatusNotFound, snap)
		return
	}

	name, err := cv.Export(r.Context())
	if err != nil {
		h.countExport("error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: note.msg})
		return
	}
	h.countExport("ok")

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(exp.buf.Len()))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = exp.buf.WriteTo(w)
}

// Delete handles DELETE /api/greetings/{id}.
func (h *GreetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ok := h.Store.DeleteByID(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, okStatus(ok), okResponse{OK: ok})
}

// Clear handles DELETE /api/greetings.
func (h *GreetingHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ok := h.Store.ClearAll(r.Context())
	writeJSON(w, okStatus(ok), okResponse{OK: ok})
}

// NotFound answers every unknown path.
func (h *GreetingHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
}

// Health handles GET /healthz.
func (h *GreetingHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *GreetingHandler) load(ctx context.Context, id string, opts view.Options) view.Snapshot {
	cv := view.New(h.Store, h.viewOptions(opts))
	defer cv.Close()
	snap := cv.Load(ctx, id)
	h.countView(snap.State)
	return snap
}

func (h *GreetingHandler) viewOptions(opts view.Options) view.Options {
	opts.BaseURL = h.BaseURL
	opts.Logger = h.Logger
	return opts
}

func (h *GreetingHandler) countView(s view.State) {
	if h.Metrics != nil {
		h.Metrics.Views.WithLabelValues(s.String()).Inc()
	}
}

func (h *GreetingHandler) countExport(result string) {
	if h.Metrics != nil {
		h.Metrics.Exports.WithLabelValues(result).Inc()
	}
}

func (h *GreetingHandler) countCreateFailure(reason string) {
	if h.Metrics != nil {
		h.Metrics.CreateFailures.WithLabelValues(reason).Inc()
	}
}

// bufferExporter renders into memory so a failure can still be answered
// with an error status.
type bufferExporter struct {
	renderer CardRenderer
	buf      bytes.Buffer
}

func (e *bufferExporter) Export(ctx context.Context, v card.View, scale int, name string) (string, error) {
	if e.renderer == nil {
		return "", errors.New("no renderer configured")
	}
	e.buf.Reset()
	if err := e.renderer.WritePNG(&e.buf, v, scale); err != nil {
		return "", err
	}
	return name, nil
}

type lastNotice struct{ msg string }

func (n *lastNotice) Notify(msg string) { n.msg = msg }

func okStatus(ok bool) int {
	if ok {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
