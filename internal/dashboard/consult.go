package dashboard

import (
	"context"

	"github.com/hospdash/hospdash/internal/platform/notification"
)

// ConsultSuccessMessage is the toast shown after a consultation is recorded.
const ConsultSuccessMessage = "Patient has consulted successfully!"

// ConsultSchema is the consultation draft: both fields required, 50 chars max.
var ConsultSchema = Schema{
	{Name: "disease", Label: "Disease", Required: true, MaxLen: 50, Type: FieldText},
	{Name: "description", Label: "Description", Required: true, MaxLen: 50, Type: FieldMultiline},
}

// ConsultFlow records a consultation for one patient.
type ConsultFlow struct {
	patient Patient
	gw      Gateway
	dialog  *Dialog
	form    *Form
}

func NewConsultFlow(patient Patient, gw Gateway, sink notification.Sink) *ConsultFlow {
	f := &ConsultFlow{
		patient: patient,
		gw:      gw,
		dialog:  NewDialog(sink),
	}
	f.form = NewForm(ConsultSchema, f.send, func(ctx context.Context) {
		f.dialog.Cancel(ctx, true, ConsultSuccessMessage)
	})
	// A dismissed dialog discards its draft.
	f.dialog.OnClose(f.form.Reset)
	return f
}

func (f *ConsultFlow) Patient() Patient { return f.patient }
func (f *ConsultFlow) Dialog() *Dialog  { return f.dialog }
func (f *ConsultFlow) Form() *Form      { return f.form }

func (f *ConsultFlow) Title() string {
	return "Consult patient " + f.patient.Name
}

// SubmitLabel is the submit button text for the current state.
func (f *ConsultFlow) SubmitLabel() string {
	if f.form.Submitting() {
		return "Please wait..."
	}
	return "Add Disease"
}

// Open starts a fresh draft and opens the dialog. No request is made.
func (f *ConsultFlow) Open() {
	f.form.Reset()
	f.dialog.Open()
}

// Close dismisses the dialog without a notification.
func (f *ConsultFlow) Close() {
	f.dialog.Confirm()
}

// Submit validates and sends the draft. On success the dialog closes with
// ConsultSuccessMessage; on failure it stays open with Form().SubmitError set.
func (f *ConsultFlow) Submit(ctx context.Context) error {
	if !f.dialog.IsOpen() {
		return ErrDialogClosed
	}
	return f.form.Submit(ctx)
}

func (f *ConsultFlow) send(ctx context.Context, values map[string]string) error {
	return f.gw.SubmitAction(ctx, EndpointAddConsultation, ConsultationRequest{
		Disease:         values["disease"],
		Description:     values["description"],
		PatientUsername: f.patient.Username,
	})
}
