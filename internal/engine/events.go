package engine

// EventSink receives the worker's outward-facing event stream. One method
// per event named in the spec's external interface; implementations must be
// safe to call from the worker's own goroutine only — the worker never calls
// a sink method concurrently with itself.
type EventSink interface {
	// Task-scoped.
	ProgressUpdated(done, total int64)
	SpeedUpdated(bytesPerSec float64)
	ETAUpdated(secondsLeft int64)
	StateChanged(text string)
	Finished(ok bool, summary string)

	// File-scoped.
	FileStarted(rel string, size int64)
	FileFinished(rel string, ok bool, errMsg string)

	// Vault-scoped.
	VersionCreated(rel, payloadPath, metaPath string)
	DeletedStashed(rel, payloadPath, metaPath string)

	// Device-scoped.
	DeviceOffline(phaseHint string)
	DeviceOnline()
}

// NopEventSink discards every event. Useful in tests that don't assert on
// the event stream.
type NopEventSink struct{}

func (NopEventSink) ProgressUpdated(int64, int64)         {}
func (NopEventSink) SpeedUpdated(float64)                 {}
func (NopEventSink) ETAUpdated(int64)                     {}
func (NopEventSink) StateChanged(string)                  {}
func (NopEventSink) Finished(bool, string)                {}
func (NopEventSink) FileStarted(string, int64)            {}
func (NopEventSink) FileFinished(string, bool, string)    {}
func (NopEventSink) VersionCreated(string, string, string) {}
func (NopEventSink) DeletedStashed(string, string, string) {}
func (NopEventSink) DeviceOffline(string)                 {}
func (NopEventSink) DeviceOnline()                        {}

var _ EventSink = NopEventSink{}

// RecordingEventSink appends every call it receives to Events, in order.
// Used by tests to assert on event ordering and alternation.
type RecordingEventSink struct {
	Events []Event
}

// Event is a single recorded call to an EventSink method.
type Event struct {
	Kind    string
	Rel     string
	OK      bool
	ErrMsg  string
	Done    int64
	Total   int64
	Speed   float64
	ETA     int64
	Text    string
	Payload string
	Meta    string
	Phase   string
}

func (r *RecordingEventSink) ProgressUpdated(done, total int64) {
	r.Events = append(r.Events, Event{Kind: "ProgressUpdated", Done: done, Total: total})
}
func (r *RecordingEventSink) SpeedUpdated(bps float64) {
	r.Events = append(r.Events, Event{Kind: "SpeedUpdated", Speed: bps})
}
func (r *RecordingEventSink) ETAUpdated(secondsLeft int64) {
	r.Events = append(r.Events, Event{Kind: "ETAUpdated", ETA: secondsLeft})
}
func (r *RecordingEventSink) StateChanged(text string) {
	r.Events = append(r.Events, Event{Kind: "StateChanged", Text: text})
}
func (r *RecordingEventSink) Finished(ok bool, summary string) {
	r.Events = append(r.Events, Event{Kind: "Finished", OK: ok, Text: summary})
}
func (r *RecordingEventSink) FileStarted(rel string, size int64) {
	r.Events = append(r.Events, Event{Kind: "FileStarted", Rel: rel, Total: size})
}
func (r *RecordingEventSink) FileFinished(rel string, ok bool, errMsg string) {
	r.Events = append(r.Events, Event{Kind: "FileFinished", Rel: rel, OK: ok, ErrMsg: errMsg})
}
func (r *RecordingEventSink) VersionCreated(rel, payloadPath, metaPath string) {
	r.Events = append(r.Events, Event{Kind: "VersionCreated", Rel: rel, Payload: payloadPath, Meta: metaPath})
}
func (r *RecordingEventSink) DeletedStashed(rel, payloadPath, metaPath string) {
	r.Events = append(r.Events, Event{Kind: "DeletedStashed", Rel: rel, Payload: payloadPath, Meta: metaPath})
}
func (r *RecordingEventSink) DeviceOffline(phaseHint string) {
	r.Events = append(r.Events, Event{Kind: "DeviceOffline", Phase: phaseHint})
}
func (r *RecordingEventSink) DeviceOnline() {
	r.Events = append(r.Events, Event{Kind: "DeviceOnline"})
}

var _ EventSink = &RecordingEventSink{}
