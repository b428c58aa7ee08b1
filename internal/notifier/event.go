package notifier

import (
	"fmt"
	"strings"

	"github.com/savaki/abbey/internal/constants"
	"github.com/savaki/abbey/internal/errors"
)

// EventKind enumerates the lifecycle callbacks of a playbook run
type EventKind int

const (
	EventUnknown EventKind = iota
	EventHostFailed
	EventHostOK
	EventHostError
	EventHostSkipped
	EventHostUnreachable
	EventNoHosts
	EventAsyncPoll
	EventAsyncOK
	EventAsyncFailed
	EventPlaybookStart
	EventNotify
	EventNoHostsMatched
	EventNoHostsRemaining
	EventTaskStart
	EventSetup
	EventImportForHost
	EventNotImportForHost
	EventPlayStart
	EventStats
)

var eventNames = map[EventKind]string{
	EventHostFailed:       "host-failed",
	EventHostOK:           "host-ok",
	EventHostError:        "host-error",
	EventHostSkipped:      "host-skipped",
	EventHostUnreachable:  "host-unreachable",
	EventNoHosts:          "no-hosts",
	EventAsyncPoll:        "async-poll",
	EventAsyncOK:          "async-ok",
	EventAsyncFailed:      "async-failed",
	EventPlaybookStart:    "playbook-start",
	EventNotify:           "notify",
	EventNoHostsMatched:   "no-hosts-matched",
	EventNoHostsRemaining: "no-hosts-remaining",
	EventTaskStart:        "task-start",
	EventSetup:            "setup",
	EventImportForHost:    "import-for-host",
	EventNotImportForHost: "not-import-for-host",
	EventPlayStart:        "play-start",
	EventStats:            "stats",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// AllEventKinds lists every known kind in declaration order
func AllEventKinds() []EventKind {
	kinds := make([]EventKind, 0, len(eventNames))
	for k := EventHostFailed; k <= EventStats; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseEventKind accepts the kebab-case name of a kind, case-insensitively
func ParseEventKind(s string) (EventKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range eventNames {
		if name == s {
			return k, nil
		}
	}
	return EventUnknown, errors.Config("parse event", fmt.Errorf("%w: %q", errors.ErrUnknownEvent, s))
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(text []byte) error {
	kind, err := ParseEventKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Event is a single lifecycle callback. Only the fields relevant to Kind are set.
type Event struct {
	Kind    EventKind `json:"event"`
	Host    string    `json:"host,omitempty"`
	Message string    `json:"message,omitempty"`
	Handler string    `json:"handler,omitempty"`
	Task    string    `json:"task,omitempty"`
	Pattern string    `json:"pattern,omitempty"`
}

// Format returns the status line for e, and false for kinds that publish nothing
func Format(e Event) (string, bool) {
	switch e.Kind {
	case EventHostFailed:
		return "FAILURE: " + e.Host, true
	case EventHostOK:
		return "COMPLETED: " + e.Host, true
	case EventHostError:
		return fmt.Sprintf("ERROR: %s : %s", e.Host, e.Message), true
	case EventNotify:
		return fmt.Sprintf("NOTIFIED: %s ", e.Handler), true
	case EventTaskStart:
		return "TASK: " + e.Task, true
	case EventPlayStart:
		return "Starting play " + e.Pattern, true
	case EventStats:
		return constants.CompletedPlayMessage, true
	default:
		return "", false
	}
}
