package assetbus

import (
	"fmt"
	"strings"
)

// Kind identifies an asset compilation lifecycle event.
type Kind int

const (
	KindStarted Kind = iota + 1
	KindSucceeded
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindStarted:
		return "started"
	case KindSucceeded:
		return "succeeded"
	case KindFailed:
		return "failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// unknownKindError is returned by ParseKind for unrecognized event type names.
type unknownKindError struct{ name string }

func (e unknownKindError) Error() string { return "unknown asset event type: " + e.name }

// IsUnknownKind reports whether err was produced by ParseKind for an unknown name.
func IsUnknownKind(err error) bool {
	_, ok := err.(unknownKindError)
	return ok
}

// ParseKind maps a wire or bus event name to a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "started", "start", "assetcompilationstarted":
		return KindStarted, nil
	case "succeeded", "success", "assetcompilationsuccess":
		return KindSucceeded, nil
	case "failed", "failure", "assetcompilationfailed":
		return KindFailed, nil
	}
	return 0, unknownKindError{name: s}
}

// Event is a single compilation notification for a source asset path.
// Path is reported as-is; consumers normalize it.
type Event struct {
	Kind Kind
	Path string
}

// Handler receives asset compilation notifications. Methods may be invoked
// from any goroutine and must not block for long.
type Handler interface {
	OnCompilationStarted(path string)
	OnCompilationSucceeded(path string)
	OnCompilationFailed(path string)
}

// Source is a subscription point for Handlers.
type Source interface {
	Connect(h Handler)
	Disconnect(h Handler)
}

// Publisher accepts events for delivery. Publish must not panic.
type Publisher interface {
	Publish(Event)
}

// Dispatch invokes the Handler method matching e.Kind. Unknown kinds are dropped.
func Dispatch(h Handler, e Event) {
	switch e.Kind {
	case KindStarted:
		h.OnCompilationStarted(e.Path)
	case KindSucceeded:
		h.OnCompilationSucceeded(e.Path)
	case KindFailed:
		h.OnCompilationFailed(e.Path)
	}
}

// NopSource accepts subscriptions and never delivers anything.
type NopSource struct{}

func (NopSource) Connect(Handler)    {}
func (NopSource) Disconnect(Handler) {}
