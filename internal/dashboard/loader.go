package dashboard

import (
	"context"
	"sync"
)

// View is what a selection list should render.
type View int

const (
	ViewLoading View = iota
	ViewError
	ViewEmpty
	ViewItems
)

func (v View) String() string {
	switch v {
	case ViewError:
		return "error"
	case ViewEmpty:
		return "empty"
	case ViewItems:
		return "items"
	default:
		return "loading"
	}
}

// FetchFunc retrieves the full list for a Loader.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// LoadState is a snapshot of a Loader.
type LoadState[T any] struct {
	IsLoading bool
	Data      []T
	Err       *LoadError
}

// Item pairs a list value with its 1-based display position.
type Item[T any] struct {
	Index int
	Value T
}

// Loader fetches a selectable list on demand. There is no automatic retry;
// callers re-issue with Retry. Only the most recently issued request may
// update the state, so a slow response that was superseded by a retry is
// dropped. A failure keeps the data from the last successful load.
type Loader[T any] struct {
	fetch FetchFunc[T]

	mu      sync.Mutex
	seq     uint64
	settled bool
	state   LoadState[T]
}

func NewLoader[T any](fetch FetchFunc[T]) *Loader[T] {
	return &Loader[T]{fetch: fetch}
}

// Load fetches the list and returns the state after the call settles. If a
// newer request was issued meanwhile, the returned state reflects whatever
// that request has produced so far.
func (l *Loader[T]) Load(ctx context.Context) LoadState[T] {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.state.IsLoading = true
	l.mu.Unlock()

	data, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		return l.snapshot()
	}
	l.settled = true
	l.state.IsLoading = false
	if err != nil {
		l.state.Err = &LoadError{Message: MessageFor(err), Err: err}
		return l.snapshot()
	}
	if data == nil {
		data = []T{}
	}
	l.state.Data = data
	l.state.Err = nil
	return l.snapshot()
}

// Retry re-issues the fetch.
func (l *Loader[T]) Retry(ctx context.Context) LoadState[T] {
	return l.Load(ctx)
}

func (l *Loader[T]) State() LoadState[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *Loader[T]) snapshot() LoadState[T] {
	s := l.state
	if s.Data != nil {
		s.Data = append([]T(nil), s.Data...)
	}
	return s
}

// View reports which state to render. An error wins over stale data; an
// empty successful result is distinct from an error.
func (l *Loader[T]) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view()
}

func (l *Loader[T]) view() View {
	switch {
	case l.state.IsLoading || !l.settled:
		return ViewLoading
	case l.state.Err != nil:
		return ViewError
	case len(l.state.Data) == 0:
		return ViewEmpty
	default:
		return ViewItems
	}
}

// Items returns the current data with 1-based display indices.
func (l *Loader[T]) Items() []Item[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := make([]Item[T], len(l.state.Data))
	for i, v := range l.state.Data {
		items[i] = Item[T]{Index: i + 1, Value: v}
	}
	return items
}

// Select invokes onSelect with the item at the given 1-based display index.
// Selection is only possible while the items view is shown.
func (l *Loader[T]) Select(ctx context.Context, index int, onSelect func(context.Context, T) error) error {
	l.mu.Lock()
	if l.view() != ViewItems {
		l.mu.Unlock()
		return ErrNotReady
	}
	if index < 1 || index > len(l.state.Data) {
		n := len(l.state.Data)
		l.mu.Unlock()
		return &NoSuchItemError{Index: index, Count: n}
	}
	item := l.state.Data[index-1]
	l.mu.Unlock()

	return onSelect(ctx, item)
}
