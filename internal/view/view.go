package view

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/valentine/internal/card"
	"github.com/atinyakov/valentine/internal/models"
	"go.uber.org/zap"
)

// ErrNotPresented is returned by actions that need a Found card.
var ErrNotPresented = errors.New("no card is presented")

// Finder looks greetings up by id. A nil greeting with a nil error means
// absent.
type Finder interface {
	GetByID(ctx context.Context, id string) (*models.Greeting, error)
}

// Clipboard receives the share link.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Exporter rasterizes a card into a file called name and returns where it
// went.
type Exporter interface {
	Export(ctx context.Context, v card.View, scale int, name string) (string, error)
}

// Notifier shows a blocking notice to the user.
type Notifier interface {
	Notify(msg string)
}

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. time.AfterFunc satisfies it through
// RealScheduler.
type Scheduler func(d time.Duration, f func()) Timer

// RealScheduler schedules on the runtime timer.
func RealScheduler(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options are the collaborators of a CardView. Any of them may be left
// zero.
type Options struct {
	// BaseURL prefixes share links, e.g. http://localhost:8080.
	BaseURL   string
	Clipboard Clipboard
	Exporter  Exporter
	Notifier  Notifier
	Scheduler Scheduler
	Logger    *zap.Logger
	// OnChange is called, without locks held, after every state change.
	OnChange func(Snapshot)

	CelebrationFor time.Duration
	CopiedFor      time.Duration
}

// CardView is the state machine behind one open card page.
type CardView struct {
	finder Finder
	opts   Options
	log    *zap.Logger

	mu          sync.Mutex
	closed      bool
	state       State
	id          string
	greeting    *models.Greeting
	celebrating bool
	copied      bool

	celebrationTimer Timer
	celebrationGen   int
	copiedTimer      Timer
	copiedGen        int
}

// New creates a CardView in the Loading state.
func New(finder Finder, opts Options) *CardView {
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler
	}
	if opts.CelebrationFor <= 0 {
		opts.CelebrationFor = CelebrationDuration
	}
	if opts.CopiedFor <= 0 {
		opts.CopiedFor = CopiedDuration
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &CardView{finder: finder, opts: opts, log: log, state: Loading}
}

// Load presents the greeting with the given id. The demo id never reaches
// the Finder. Absence and lookup errors both end in NotFound.
func (v *CardView) Load(ctx context.Context, id string) Snapshot {
	v.mu.Lock()
	if v.closed {
		defer v.mu.Unlock()
		return v.snapshotLocked()
	}
	v.stopTimersLocked()
	v.state = Loading
	v.id = id
	v.greeting = nil
	v.celebrating = false
	v.copied = false
	v.mu.Unlock()

	g := v.lookup(ctx, id)

	v.mu.Lock()
	if v.closed || v.id != id {
		defer v.mu.Unlock()
		return v.snapshotLocked()
	}
	if g == nil {
		v.state = NotFound
	} else {
		v.state = Found
		v.greeting = g
		v.celebrating = true
		v.celebrationGen++
		gen := v.celebrationGen
		v.celebrationTimer = v.opts.Scheduler(v.opts.CelebrationFor, func() { v.endCelebration(gen) })
	}
	snap := v.snapshotLocked()
	v.mu.Unlock()

	v.changed(snap)
	return snap
}

func (v *CardView) lookup(ctx context.Context, id string) *models.Greeting {
	if id == DemoID {
		g := DemoGreeting()
		return &g
	}
	if v.finder == nil {
		return nil
	}
	g, err := v.finder.GetByID(ctx, id)
	if err != nil {
		v.log.Warn("error fetching greeting", zap.String("id", id), zap.Error(err))
		return nil
	}
	return g
}

// CopyLink writes the share link to the clipboard. On success LinkCopied
// is set for a short while. A clipboard failure is only logged.
func (v *CardView) CopyLink(ctx context.Context) bool {
	v.mu.Lock()
	if v.closed || v.state != Found {
		v.mu.Unlock()
		return false
	}
	link := v.shareURLLocked()
	v.mu.Unlock()

	if v.opts.Clipboard == nil {
		return false
	}
	if err := v.opts.Clipboard.WriteText(ctx, link); err != nil {
		v.log.Debug("copy link failed", zap.Error(err))
		return false
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return false
	}
	if v.copiedTimer != nil {
		v.copiedTimer.Stop()
	}
	v.copied = true
	v.copiedGen++
	gen := v.copiedGen
	v.copiedTimer = v.opts.Scheduler(v.opts.CopiedFor, func() { v.endCopied(gen) })
	snap := v.snapshotLocked()
	v.mu.Unlock()

	v.changed(snap)
	return true
}

// Export rasterizes the presented card at ExportScale. On failure the
// user gets MsgExportFailed and the state is left as it was.
func (v *CardView) Export(ctx context.Context) (string, error) {
	v.mu.Lock()
	if v.closed || v.state != Found || v.greeting == nil {
		v.mu.Unlock()
		return "", ErrNotPresented
	}
	display := card.Display(*v.greeting)
	v.mu.Unlock()

	if v.opts.Exporter == nil {
		v.notify(MsgExportFailed)
		return "", errors.New("no exporter configured")
	}
	path, err := v.opts.Exporter.Export(ctx, display, ExportScale, FileName(display.Sender, display.Receiver))
	if err != nil {
		v.log.Error("error exporting card", zap.String("id", display.ID), zap.Error(err))
		v.notify(MsgExportFailed)
		return "", err
	}
	return path, nil
}

// Snapshot returns the current state.
func (v *CardView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Close stops pending timers. Nothing changes after Close.
func (v *CardView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.stopTimersLocked()
}

func (v *CardView) endCelebration(gen int) {
	v.mu.Lock()
	if v.closed || gen != v.celebrationGen || !v.celebrating {
		v.mu.Unlock()
		return
	}
	v.celebrating = false
	v.celebrationTimer = nil
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.changed(snap)
}

func (v *CardView) endCopied(gen int) {
	v.mu.Lock()
	if v.closed || gen != v.copiedGen || !v.copied {
		v.mu.Unlock()
		return
	}
	v.copied = false
	v.copiedTimer = nil
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.changed(snap)
}

func (v *CardView) stopTimersLocked() {
	if v.celebrationTimer != nil {
		v.celebrationTimer.Stop()
		v.celebrationTimer = nil
	}
	if v.copiedTimer != nil {
		v.copiedTimer.Stop()
		v.copiedTimer = nil
	}
	// Invalidate callbacks that already fired but wait on the lock.
	v.celebrationGen++
	v.copiedGen++
}

func (v *CardView) snapshotLocked() Snapshot {
	s := Snapshot{
		State:       v.state,
		ID:          v.id,
		Demo:        v.id == DemoID,
		Celebrating: v.celebrating,
		LinkCopied:  v.copied,
	}
	if v.state == Found && v.greeting != nil {
		d := card.Display(*v.greeting)
		s.Card = &d
		s.ShareURL = v.shareURLLocked()
	}
	return s
}

func (v *CardView) shareURLLocked() string {
	return ShareURL(v.opts.BaseURL, v.id)
}

func (v *CardView) notify(msg string) {
	if v.opts.Notifier != nil {
		v.opts.Notifier.Notify(msg)
	}
}

func (v *CardView) changed(s Snapshot) {
	if v.opts.OnChange != nil {
		v.opts.OnChange(s)
	}
}

// ShareURL builds the link a recipient opens for id.
func ShareURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/valentine/" + url.PathEscape(id)
}

// FileName is the export file name for a sender/receiver pair.
func FileName(sender, receiver string) string {
	clean := strings.NewReplacer("/", "_", `\`, "_", "\x00", "").Replace
	return "valentine-" + clean(sender) + "-to-" + clean(receiver) + ".png"
}
