package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hospdash/hospdash/internal/platform/notification"
)

var testPatient = Patient{Name: "Jane Doe", Username: "jane", Gender: "female", Age: 34, Role: "PATIENT"}

func TestConsultFlow_Success(t *testing.T) {
	gw := newFakeGateway()
	sink := notification.NewMemorySink(0)
	f := NewConsultFlow(testPatient, gw, sink)

	f.Open()
	f.Form().Change("disease", "Flu")
	f.Form().Change("description", "Cough")
	if err := f.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.Dialog().IsOpen() {
		t.Error("expected dialog closed after success")
	}
	if f.Form().Value("disease") != "" || f.Form().Value("description") != "" {
		t.Errorf("expected empty draft, got %v", f.Form().Values())
	}
	toasts := sink.Toasts()
	if len(toasts) != 1 {
		t.Fatalf("expected 1 toast, got %d", len(toasts))
	}
	if toasts[0].Message != "Patient has consulted successfully!" || toasts[0].Level != notification.LevelInfo {
		t.Errorf("unexpected toast %+v", toasts[0])
	}

	subs := gw.Submits()
	if len(subs) != 1 || subs[0].Endpoint != EndpointAddConsultation {
		t.Fatalf("unexpected submissions %+v", subs)
	}
	req, ok := subs[0].Payload.(ConsultationRequest)
	if !ok {
		t.Fatalf("unexpected payload type %T", subs[0].Payload)
	}
	want := ConsultationRequest{Disease: "Flu", Description: "Cough", PatientUsername: "jane"}
	if req != want {
		t.Errorf("expected %+v, got %+v", want, req)
	}
}

func TestConsultFlow_FailureStaysOpen(t *testing.T) {
	gw := newFakeGateway()
	gw.submitErr = &remoteError{msg: "Patient not found"}
	sink := notification.NewMemorySink(0)
	f := NewConsultFlow(testPatient, gw, sink)

	f.Open()
	f.Form().Change("disease", "Flu")
	f.Form().Change("description", "Cough")
	err := f.Submit(context.Background())

	var serr *SubmissionError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if !f.Dialog().IsOpen() {
		t.Error("expected dialog to stay open")
	}
	if f.Form().SubmitError() != "Patient not found" {
		t.Errorf("unexpected submit error %q", f.Form().SubmitError())
	}
	if f.Form().Value("disease") != "Flu" {
		t.Error("expected draft kept")
	}
	if len(sink.Toasts()) != 0 {
		t.Error("expected no toast on failure")
	}
}

func TestConsultFlow_ValidationMakesNoRequest(t *testing.T) {
	gw := newFakeGateway()
	f := NewConsultFlow(testPatient, gw, nil)
	f.Open()
	f.Form().Change("description", "Cough")

	var verr *ValidationError
	if err := f.Submit(context.Background()); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(gw.Submits()) != 0 {
		t.Error("expected no request")
	}
	if !f.Dialog().IsOpen() {
		t.Error("expected dialog to stay open")
	}
}

func TestConsultFlow_CloseDiscardsDraft(t *testing.T) {
	f := NewConsultFlow(testPatient, newFakeGateway(), nil)
	f.Open()
	f.Form().Change("disease", "Flu")
	f.Close()

	if f.Form().Value("disease") != "" {
		t.Error("expected draft discarded on close")
	}
	if err := f.Submit(context.Background()); !errors.Is(err, ErrDialogClosed) {
		t.Fatalf("expected ErrDialogClosed, got %v", err)
	}
	if f.Title() != "Consult patient Jane Doe" {
		t.Errorf("unexpected title %q", f.Title())
	}
	if f.SubmitLabel() != "Add Disease" {
		t.Errorf("unexpected submit label %q", f.SubmitLabel())
	}
}

func medicines() []Medicine {
	exp := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)
	return []Medicine{
		{Name: "Paracetamol", Price: 2.5, Expiration: exp},
		{Name: "Amoxicillin", Price: 8, Expiration: exp},
	}
}

func TestDispenseFlow_Success(t *testing.T) {
	gw := newFakeGateway()
	gw.lists[EndpointMedicines] = medicines()
	sink := notification.NewMemorySink(0)
	f := NewDispenseFlow(testPatient, gw, sink)

	st := f.Open(context.Background())
	if st.Err != nil || len(st.Data) != 2 {
		t.Fatalf("unexpected load state %+v", st)
	}
	if err := f.Give(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.Dialog().IsOpen() {
		t.Error("expected dialog closed")
	}
	last, ok := sink.Last()
	if !ok || last.Message != DispenseSuccessMessage || last.Level != notification.LevelInfo {
		t.Errorf("unexpected toast %+v", last)
	}
	subs := gw.Submits()
	if len(subs) != 1 || subs[0].Endpoint != EndpointGiveMedicine {
		t.Fatalf("unexpected submissions %+v", subs)
	}
	want := GiveMedicineRequest{PatientUsername: "jane", Name: "Amoxicillin"}
	if subs[0].Payload != want {
		t.Errorf("expected %+v, got %+v", want, subs[0].Payload)
	}
}

func TestDispenseFlow_OutOfStock(t *testing.T) {
	gw := newFakeGateway()
	gw.lists[EndpointMedicines] = medicines()
	gw.submitErr = &remoteError{msg: "Out of stock"}
	sink := notification.NewMemorySink(0)
	f := NewDispenseFlow(testPatient, gw, sink)

	f.Open(context.Background())
	err := f.Give(context.Background(), 1)

	var serr *SubmissionError
	if !errors.As(err, &serr) || serr.Message != "Out of stock" {
		t.Fatalf("expected Out of stock SubmissionError, got %v", err)
	}
	if !f.Dialog().IsOpen() {
		t.Error("expected dialog to stay open")
	}
	if f.Error() != "Out of stock" {
		t.Errorf("expected inline error, got %q", f.Error())
	}
	if len(sink.Toasts()) != 0 {
		t.Errorf("expected no notification, got %+v", sink.Toasts())
	}
	if f.Submitting() {
		t.Error("expected submitting cleared")
	}

	f.Close()
	if f.Error() != "" {
		t.Error("expected inline error cleared on close")
	}
}

func TestDispenseFlow_EmptyList(t *testing.T) {
	gw := newFakeGateway()
	gw.lists[EndpointMedicines] = []Medicine{}
	f := NewDispenseFlow(testPatient, gw, nil)

	st := f.Open(context.Background())
	if st.Err != nil {
		t.Fatalf("unexpected error %v", st.Err)
	}
	if f.Loader().View() != ViewEmpty {
		t.Fatalf("expected empty view, got %s", f.Loader().View())
	}
	if len(f.Loader().Items()) != 0 {
		t.Error("expected no rows")
	}
	if err := f.Give(context.Background(), 1); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
}

func TestDispenseFlow_RetryAfterLoadError(t *testing.T) {
	gw := newFakeGateway()
	gw.lists[EndpointMedicines] = medicines()
	gw.failNext(EndpointMedicines, &remoteError{msg: "Service unavailable"})
	f := NewDispenseFlow(testPatient, gw, nil)

	st := f.Open(context.Background())
	if st.Err == nil || f.Loader().View() != ViewError {
		t.Fatalf("expected error view, got %+v", st)
	}
	st = f.Retry(context.Background())
	if st.Err != nil {
		t.Fatalf("unexpected error after retry: %v", st.Err)
	}
	if f.Loader().View() != ViewItems || len(f.Loader().Items()) != 2 {
		t.Fatalf("expected 2 items after retry, got %s", f.Loader().View())
	}
	if gw.fetches[EndpointMedicines] != 2 {
		t.Errorf("expected 2 fetches, got %d", gw.fetches[EndpointMedicines])
	}
}

func TestDispenseFlow_GiveWhenClosed(t *testing.T) {
	f := NewDispenseFlow(testPatient, newFakeGateway(), nil)
	if err := f.Give(context.Background(), 1); !errors.Is(err, ErrDialogClosed) {
		t.Fatalf("expected ErrDialogClosed, got %v", err)
	}
}

func TestBoard_RowsFollowRole(t *testing.T) {
	gw := newFakeGateway()
	gw.lists[EndpointPatients] = []Patient{testPatient, {Name: "John Roe", Username: "john"}}

	tests := []struct {
		role Role
		want ActionKind
	}{
		{RolePharmacist, ActionDispense},
		{RolePhysician, ActionConsult},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			b := NewBoard(Session{Username: "staff", Role: tt.role}, gw, nil)
			b.Load(context.Background())
			rows := b.Rows()
			if len(rows) != 2 {
				t.Fatalf("expected 2 rows, got %d", len(rows))
			}
			for i, r := range rows {
				if r.Index != i+1 {
					t.Errorf("expected index %d, got %d", i+1, r.Index)
				}
				if r.Action != tt.want {
					t.Errorf("expected %s, got %s", tt.want, r.Action)
				}
				if (r.Dispense != nil) != (tt.want == ActionDispense) || (r.Consult != nil) == (tt.want == ActionDispense) {
					t.Error("expected exactly one flow matching the action")
				}
			}
			if rows[0].Dialog() == rows[1].Dialog() {
				t.Error("expected dialogs not shared across rows")
			}
		})
	}
}
