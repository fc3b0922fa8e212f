package console

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/hospdash/hospdash/internal/dashboard"
	"github.com/hospdash/hospdash/internal/platform/notification"
)

const dateLayout = "2006-01-02"

// clean makes remote text safe to print on a terminal.
func clean(s string) string {
	return notification.PlainText(s)
}

// RenderBoard writes the patient list, or its loading, error or empty view.
func RenderBoard(w io.Writer, b *dashboard.Board, rows []*dashboard.Row) {
	l := b.Loader()
	switch l.View() {
	case dashboard.ViewLoading:
		fmt.Fprintln(w, "Loading...")
	case dashboard.ViewError:
		fmt.Fprintf(w, "Error: %s\n", clean(l.State().Err.Message))
		fmt.Fprintln(w, "Type 'retry' to try again.")
	case dashboard.ViewEmpty:
		fmt.Fprintln(w, "No patients found.")
	default:
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"#", "Name", "Username", "Gender", "Age", "Role", "Action"})
		table.SetAutoWrapText(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, r := range rows {
			table.Append([]string{
				strconv.Itoa(r.Index),
				clean(r.Patient.Name),
				clean(r.Patient.Username),
				clean(r.Patient.Gender),
				strconv.Itoa(r.Patient.Age),
				clean(r.Patient.Role),
				r.Action.Label(),
			})
		}
		table.Render()
	}
}

// RenderConsult writes the consult dialog with its draft, the errors of
// touched fields, the submission error and the submit button label.
func RenderConsult(w io.Writer, f *dashboard.ConsultFlow) {
	fmt.Fprintf(w, "== %s ==\n", clean(f.Title()))
	form := f.Form()
	for _, field := range form.Schema() {
		fmt.Fprintf(w, "%s: %s\n", field.Label, clean(form.Value(field.Name)))
		if msg := form.FieldError(field.Name); msg != "" {
			fmt.Fprintf(w, "  ! %s\n", msg)
		}
	}
	if msg := form.SubmitError(); msg != "" {
		fmt.Fprintf(w, "! %s\n", clean(msg))
	}
	fmt.Fprintf(w, "[%s]\n", f.SubmitLabel())
}

// RenderDispense writes the medicine dialog. Items are numbered from 1.
func RenderDispense(w io.Writer, f *dashboard.DispenseFlow) {
	fmt.Fprintf(w, "== %s ==\n", clean(f.Title()))
	l := f.Loader()
	switch l.View() {
	case dashboard.ViewLoading:
		fmt.Fprintln(w, "Loading...")
	case dashboard.ViewError:
		fmt.Fprintf(w, "Error: %s\n", clean(l.State().Err.Message))
		fmt.Fprintln(w, "Type 'retry' to try again.")
	case dashboard.ViewEmpty:
		fmt.Fprintln(w, dashboard.EmptyMedicinesMessage)
	default:
		for _, it := range l.Items() {
			m := it.Value
			fmt.Fprintf(w, "%d. Name: %s\n", it.Index, clean(m.Name))
			fmt.Fprintf(w, "   Price: %s\n", strconv.FormatFloat(m.Price, 'f', -1, 64))
			fmt.Fprintf(w, "   Description: %s\n", expiration(m))
		}
	}
	if f.Submitting() {
		fmt.Fprintln(w, "Please wait...")
	}
	if msg := f.Error(); msg != "" {
		fmt.Fprintf(w, "! %s\n", clean(msg))
	}
}

func expiration(m dashboard.Medicine) string {
	if m.Expiration.IsZero() {
		return "-"
	}
	return m.Expiration.Format(dateLayout)
}

// RenderHistory writes the recorded toasts, oldest first.
func RenderHistory(w io.Writer, toasts []notification.Toast) {
	if len(toasts) == 0 {
		fmt.Fprintln(w, "No notifications yet.")
		return
	}
	for _, t := range toasts {
		fmt.Fprintf(w, "%s [%s] %s\n", t.CreatedAt.Local().Format("15:04:05"), t.Level, clean(t.Message))
	}
}
