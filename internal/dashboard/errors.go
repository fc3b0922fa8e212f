package dashboard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// FallbackErrorMessage is shown when a remote failure carries no message.
const FallbackErrorMessage = "Something went wrong!"

var (
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	ErrDialogClosed   = errors.New("dialog is not open")
	ErrNotReady       = errors.New("list is not ready for selection")
)

// ValidationError lists the field errors that blocked a submission. It never
// reaches the network.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// SubmissionError is a remote rejection of a submit, reduced to one message.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string { return e.Message }
func (e *SubmissionError) Unwrap() error { return e.Err }

// LoadError is a failed list fetch. The loader keeps prior data alongside it.
type LoadError struct {
	Message string
	Err     error
}

func (e *LoadError) Error() string { return "load failed: " + e.Message }
func (e *LoadError) Unwrap() error { return e.Err }

// NoSuchItemError is returned when a selection index is outside the list.
type NoSuchItemError struct {
	Index int
	Count int
}

func (e *NoSuchItemError) Error() string {
	return fmt.Sprintf("no item at position %d (list has %d)", e.Index, e.Count)
}

// userMessager is implemented by gateway errors that carry a server message.
type userMessager interface {
	UserMessage() string
}

// MessageFor reduces err to a single plain message for display: the server's
// message when there is one, FallbackErrorMessage otherwise.
func MessageFor(err error) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := strings.TrimSpace(um.UserMessage()); msg != "" {
			return msg
		}
	}
	return FallbackErrorMessage
}
