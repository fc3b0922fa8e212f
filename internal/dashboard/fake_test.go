package dashboard

import (
	"context"
	"encoding/json"
	"sync"
)

type submission struct {
	Endpoint string
	Payload  any
}

// fakeGateway serves canned lists and records submissions.
type fakeGateway struct {
	mu        sync.Mutex
	lists     map[string]any
	listErrs  map[string][]error
	submitErr error
	submits   []submission
	fetches   map[string]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		lists:    map[string]any{},
		listErrs: map[string][]error{},
		fetches:  map[string]int{},
	}
}

// failNext queues errors returned by the next fetches of resource.
func (g *fakeGateway) failNext(resource string, errs ...error) {
	g.mu.Lock()
	g.listErrs[resource] = append(g.listErrs[resource], errs...)
	g.mu.Unlock()
}

func (g *fakeGateway) FetchList(_ context.Context, resource string, out any) error {
	g.mu.Lock()
	g.fetches[resource]++
	if errs := g.listErrs[resource]; len(errs) > 0 {
		g.listErrs[resource] = errs[1:]
		g.mu.Unlock()
		return errs[0]
	}
	data := g.lists[resource]
	g.mu.Unlock()

	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (g *fakeGateway) SubmitAction(_ context.Context, endpoint string, payload any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submits = append(g.submits, submission{Endpoint: endpoint, Payload: payload})
	return g.submitErr
}

func (g *fakeGateway) Submits() []submission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]submission(nil), g.submits...)
}

// remoteError mimics a gateway error carrying a server message.
type remoteError struct {
	msg string
}

func (e *remoteError) Error() string       { return "remote: " + e.msg }
func (e *remoteError) UserMessage() string { return e.msg }
