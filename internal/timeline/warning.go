package timeline

import "fmt"

// Warning records a recoverable degradation during a run: a failed adapter,
// a dropped raw event, or an enrichment stage that could not annotate a
// single event. Warnings are collected and surfaced to the caller; they
// never abort the pipeline.
type Warning struct {
	Stage    string   `json:"stage"`
	Platform Platform `json:"platform,omitempty"`
	EventID  string   `json:"event_id,omitempty"`
	Message  string   `json:"message"`
}

func (w Warning) String() string {
	s := w.Stage
	if w.Platform != "" {
		s += "/" + string(w.Platform)
	}
	if w.EventID != "" {
		s += "/" + w.EventID
	}
	return fmt.Sprintf("%s: %s", s, w.Message)
}

// Warnf builds a Warning with a formatted message.
func Warnf(stage string, platform Platform, eventID, format string, args ...any) Warning {
	return Warning{
		Stage:    stage,
		Platform: platform,
		EventID:  eventID,
		Message:  fmt.Sprintf(format, args...),
	}
}
