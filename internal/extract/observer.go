package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/punchlog/internal/entity"
)

// EventKind names what the Classifier decided about a line.
type EventKind string

const (
	EventBlank  EventKind = "blank"   // empty after trimming
	EventHeader EventKind = "header"  // new active date
	EventNoDate EventKind = "no_date" // discarded, no header seen yet
	EventNoise  EventKind = "noise"   // discarded, no punch time
	EventRecord EventKind = "record"  // record emitted
)

// Event is reported to an Observer once per classified line.
type Event struct {
	Kind   EventKind
	Page   int
	Line   int
	Text   string
	Date   string
	Record *entity.PunchRecord
}

// Observer receives classification events. Implementations must not retain Record.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

// NopObserver discards every event.
var NopObserver Observer = nopObserver{}

// LogObserver writes events to a slog logger at debug level. Records without a
// user id are logged at warn since they are emitted on the time alone.
type LogObserver struct {
	logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) Observe(e Event) {
	switch e.Kind {
	case EventHeader:
		o.logger.Debug("extract.header", "page", e.Page, "line", e.Line, "date", e.Date)
	case EventRecord:
		lvl := slog.LevelDebug
		if e.Record.UserID == "" {
			lvl = slog.LevelWarn
		}
		o.logger.Log(context.Background(), lvl, "extract.record",
			"page", e.Page, "line", e.Line,
			"date", e.Record.Date,
			"user_id", e.Record.UserID,
			"name", e.Record.Name,
			"time", e.Record.PunchTime,
			"direction", string(e.Record.Direction),
		)
	case EventNoDate, EventNoise:
		o.logger.Debug("extract.discard", "page", e.Page, "line", e.Line, "reason", string(e.Kind), "text", e.Text)
	}
}
