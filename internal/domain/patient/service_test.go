package patient

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hospdash/hospdash/internal/platform/validation"
)

// -- Mock Repository --

type mockRepo struct {
	patients map[string]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[string]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.Username]; ok {
		return ErrDuplicate
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.patients[p.Username] = p
	return nil
}

func (m *mockRepo) GetByUsername(_ context.Context, username string) (*Patient, error) {
	p, ok := m.patients[username]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	result := []*Patient{}
	for _, p := range m.patients {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	total := len(result)
	if offset >= total {
		return []*Patient{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return result[offset:end], total, nil
}

func newTestService() *Service {
	return NewService(newMockRepo())
}

func TestService_Create(t *testing.T) {
	svc := newTestService()
	p := &Patient{Username: " jdoe ", Name: "John Doe", Gender: "Male", Age: 40}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Username != "jdoe" {
		t.Errorf("expected trimmed username, got %q", p.Username)
	}
	if p.Gender != "male" {
		t.Errorf("expected lowercased gender, got %q", p.Gender)
	}
	if p.Role != DefaultRole {
		t.Errorf("expected role %s, got %s", DefaultRole, p.Role)
	}
	if p.ID == uuid.Nil {
		t.Error("expected ID to be assigned")
	}
}

func TestService_Create_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		p     Patient
		field string
	}{
		{"missing username", Patient{Name: "A", Gender: "male"}, "username"},
		{"missing name", Patient{Username: "abc", Gender: "male"}, "name"},
		{"bad gender", Patient{Username: "abc", Name: "A", Gender: "x"}, "gender"},
		{"negative age", Patient{Username: "abc", Name: "A", Gender: "female", Age: -1}, "age"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService()
			p := tt.p
			err := svc.Create(context.Background(), &p)
			var ve *validation.Error
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := ve.Fields[tt.field]; !ok {
				t.Errorf("expected error on %s, got %v", tt.field, ve.Fields)
			}
		})
	}
}

func TestService_Create_Duplicate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if err := svc.Create(ctx, &Patient{Username: "jdoe", Name: "John", Gender: "male"}); err != nil {
		t.Fatal(err)
	}
	err := svc.Create(ctx, &Patient{Username: "jdoe", Name: "Jane", Gender: "female"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestService_GetAndExists(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	svc.Create(ctx, &Patient{Username: "jdoe", Name: "John", Gender: "male"})

	p, err := svc.Get(ctx, "jdoe")
	if err != nil || p.Name != "John" {
		t.Fatalf("Get: %v %v", p, err)
	}
	if _, err := svc.Get(ctx, ""); !validation.IsValidation(err) {
		t.Errorf("expected validation error for empty username, got %v", err)
	}

	ok, err := svc.Exists(ctx, "jdoe")
	if err != nil || !ok {
		t.Errorf("expected jdoe to exist, got %v %v", ok, err)
	}
	ok, err = svc.Exists(ctx, "nobody")
	if err != nil || ok {
		t.Errorf("expected nobody to be missing, got %v %v", ok, err)
	}
}

func TestService_List(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	for _, u := range []string{"aa1", "bb2", "cc3"} {
		svc.Create(ctx, &Patient{Username: u, Name: u, Gender: "other"})
	}
	items, total, err := svc.List(ctx, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(items) != 2 || items[0].Username != "bb2" {
		t.Errorf("unexpected page: total=%d items=%d", total, len(items))
	}
}
