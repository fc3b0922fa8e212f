package dashboard

import (
	"context"
	"sync"

	"github.com/hospdash/hospdash/internal/platform/notification"
)

const (
	// DispenseSuccessMessage is the toast shown after medicine is given.
	DispenseSuccessMessage = "Patient has given new medicine successfully!"
	// EmptyMedicinesMessage is the empty-state text of the medicine list.
	EmptyMedicinesMessage = "No medicines added yet, please add medicine first!"
)

// DispenseFlow lets a pharmacist pick a medicine for one patient. Picking an
// item submits it immediately. A rejected dispense keeps the dialog open with
// the server message shown inline and emits no toast.
type DispenseFlow struct {
	patient Patient
	gw      Gateway
	dialog  *Dialog
	loader  *Loader[Medicine]

	mu         sync.Mutex
	submitting bool
	errMsg     string
}

func NewDispenseFlow(patient Patient, gw Gateway, sink notification.Sink) *DispenseFlow {
	f := &DispenseFlow{
		patient: patient,
		gw:      gw,
		dialog:  NewDialog(sink),
	}
	f.loader = NewLoader(func(ctx context.Context) ([]Medicine, error) {
		var meds []Medicine
		if err := gw.FetchList(ctx, EndpointMedicines, &meds); err != nil {
			return nil, err
		}
		return meds, nil
	})
	f.dialog.OnClose(f.clearError)
	return f
}

func (f *DispenseFlow) Patient() Patient          { return f.patient }
func (f *DispenseFlow) Dialog() *Dialog           { return f.dialog }
func (f *DispenseFlow) Loader() *Loader[Medicine] { return f.loader }

func (f *DispenseFlow) Title() string {
	return "Give medicine to " + f.patient.Name
}

// Open opens the dialog and fetches the medicine list.
func (f *DispenseFlow) Open(ctx context.Context) LoadState[Medicine] {
	f.clearError()
	f.dialog.Open()
	return f.loader.Load(ctx)
}

// Retry re-fetches the medicine list after a load error.
func (f *DispenseFlow) Retry(ctx context.Context) LoadState[Medicine] {
	return f.loader.Retry(ctx)
}

// Close dismisses the dialog without a notification.
func (f *DispenseFlow) Close() {
	f.dialog.Confirm()
}

// Error is the inline message of the last rejected dispense.
func (f *DispenseFlow) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

func (f *DispenseFlow) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

func (f *DispenseFlow) clearError() {
	f.mu.Lock()
	f.errMsg = ""
	f.mu.Unlock()
}

// Give dispenses the medicine at the given 1-based position.
func (f *DispenseFlow) Give(ctx context.Context, index int) error {
	if !f.dialog.IsOpen() {
		return ErrDialogClosed
	}
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.submitting = true
	f.errMsg = ""
	f.mu.Unlock()

	var remote error
	err := f.loader.Select(ctx, index, func(ctx context.Context, m Medicine) error {
		remote = f.gw.SubmitAction(ctx, EndpointGiveMedicine, GiveMedicineRequest{
			PatientUsername: f.patient.Username,
			Name:            m.Name,
		})
		return remote
	})

	f.mu.Lock()
	f.submitting = false
	if remote != nil {
		msg := MessageFor(remote)
		f.errMsg = msg
		f.mu.Unlock()
		return &SubmissionError{Message: msg, Err: remote}
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}

	f.dialog.Cancel(ctx, true, DispenseSuccessMessage)
	return nil
}
