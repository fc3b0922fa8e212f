package dashboard

import (
	"context"

	"github.com/hospdash/hospdash/internal/platform/notification"
)

// Row is one patient in the list with the single action its session allows.
// Exactly one of Consult and Dispense is set.
type Row struct {
	Index    int
	Patient  Patient
	Action   ActionKind
	Consult  *ConsultFlow
	Dispense *DispenseFlow
}

func NewRow(index int, session Session, p Patient, gw Gateway, sink notification.Sink) *Row {
	r := &Row{Index: index, Patient: p, Action: session.Action()}
	if r.Action == ActionDispense {
		r.Dispense = NewDispenseFlow(p, gw, sink)
	} else {
		r.Consult = NewConsultFlow(p, gw, sink)
	}
	return r
}

// Dialog returns the row's only dialog.
func (r *Row) Dialog() *Dialog {
	if r.Dispense != nil {
		return r.Dispense.Dialog()
	}
	return r.Consult.Dialog()
}

// Title is the heading of the row's dialog.
func (r *Row) Title() string {
	if r.Dispense != nil {
		return r.Dispense.Title()
	}
	return r.Consult.Title()
}

// Board is the patient list of a dashboard session.
type Board struct {
	session Session
	gw      Gateway
	sink    notification.Sink
	loader  *Loader[Patient]
}

func NewBoard(session Session, gw Gateway, sink notification.Sink) *Board {
	b := &Board{session: session, gw: gw, sink: sink}
	b.loader = NewLoader(func(ctx context.Context) ([]Patient, error) {
		var patients []Patient
		if err := gw.FetchList(ctx, EndpointPatients, &patients); err != nil {
			return nil, err
		}
		return patients, nil
	})
	return b
}

func (b *Board) Session() Session         { return b.session }
func (b *Board) Loader() *Loader[Patient] { return b.loader }

// Load fetches the patient list.
func (b *Board) Load(ctx context.Context) LoadState[Patient] {
	return b.loader.Load(ctx)
}

// Rows builds one row per loaded patient. Rows are fresh each call, so no
// dialog state carries over between list loads.
func (b *Board) Rows() []*Row {
	items := b.loader.Items()
	rows := make([]*Row, len(items))
	for i, it := range items {
		rows[i] = NewRow(it.Index, b.session, it.Value, b.gw, b.sink)
	}
	return rows
}
