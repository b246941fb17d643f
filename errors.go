package venue

import (
	"errors"
	"log/slog"
	"os"
)

var (
	// ErrNotLoaded is returned when an operation needs a loaded program.
	ErrNotLoaded = errors.New("venue: session has no loaded program")

	// ErrNotLinked is returned when starting a session that is not linked.
	ErrNotLinked = errors.New("venue: session is not linked")

	// ErrUnknownEndpoint is returned when an endpoint ID resolves to nothing.
	ErrUnknownEndpoint = errors.New("venue: unknown endpoint")

	// ErrEndpointMismatch is returned when a connection pairs a stream
	// endpoint with a MIDI medium or an event endpoint with an audio medium.
	ErrEndpointMismatch = errors.New("venue: endpoint kind does not match venue medium")
)

// FatalHandler decides what happens when the venue detects an unrecoverable
// real-time fault, such as a wedged audio callback.
type FatalHandler interface {
	HandleFatal(reason string)
}

// TerminateHandler logs the reason and terminates the process. A wedged
// callback left running keeps corrupting hardware audio state, so this is
// the default.
type TerminateHandler struct {
	Logger *slog.Logger
}

func (h TerminateHandler) HandleFatal(reason string) {
	log := h.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Error("fatal real-time fault, terminating", "reason", reason)
	os.Exit(1)
}

// PanicHandler panics instead of exiting. Useful in development.
type PanicHandler struct{}

func (PanicHandler) HandleFatal(reason string) {
	panic("venue: " + reason)
}

// FatalFunc adapts a function to FatalHandler.
type FatalFunc func(reason string)

func (f FatalFunc) HandleFatal(reason string) { f(reason) }
