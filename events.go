package herdcache

// EventKind tags a lifecycle transition inside a fetch.
type EventKind string

const (
	EventHit  EventKind = "hit"
	EventMiss EventKind = "miss"
	EventLock EventKind = "lock"
	EventWait EventKind = "wait"
	EventErr  EventKind = "error"
)

// Event is a single lifecycle notification. Key is the storage key the
// transition refers to (full key, or a lock:/stale: derivative). Err is set
// only for EventErr.
type Event struct {
	Kind EventKind
	Key  string
	Err  error
}

// Reporter receives lifecycle events for observability. It is invoked
// synchronously on the fetch hot path and has no effect on control flow.
// Implementations MUST be cheap and MUST NOT panic; the cache does not
// recover from reporter panics.
type Reporter interface {
	Report(Event)
}

// NopReporter is the default no-op.
type NopReporter struct{}

func (NopReporter) Report(Event) {}

// ReporterFunc adapts a plain function to a Reporter.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

// LogReporter forwards events to a Logger: errors at Error level, everything
// else at Debug.
type LogReporter struct{ L Logger }

func (r LogReporter) Report(e Event) {
	f := Fields{"event": string(e.Kind), "key": e.Key}
	if e.Err != nil {
		f["err"] = e.Err
		r.L.Error("cache event", f)
		return
	}
	r.L.Debug("cache event", f)
}
