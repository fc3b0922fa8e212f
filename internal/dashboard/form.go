package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldType is a rendering hint for a form field.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldMultiline FieldType = "multiline"
)

// FieldRule describes one form field and its constraints.
type FieldRule struct {
	Name     string
	Label    string
	Required bool
	MaxLen   int
	Type     FieldType
}

// tag renders the rule as a validator tag, e.g. "required,max=50".
func (r FieldRule) tag() string {
	var parts []string
	if r.Required {
		parts = append(parts, "required")
	}
	if r.MaxLen > 0 {
		parts = append(parts, "max="+strconv.Itoa(r.MaxLen))
	}
	return strings.Join(parts, ",")
}

// Schema is an ordered list of field rules.
type Schema []FieldRule

func (s Schema) field(name string) (FieldRule, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return FieldRule{}, false
}

var validate = validator.New()

// SubmitFunc sends validated values to the backend.
type SubmitFunc func(ctx context.Context, values map[string]string) error

// Form holds a draft, tracks touched fields and runs a single submission at a
// time. Field errors are computed on demand and surfaced only for touched
// fields. After a successful submit the draft is reset and onSuccess runs;
// after a failed one the draft is kept and one top-level message is set.
type Form struct {
	schema    Schema
	submit    SubmitFunc
	onSuccess func(ctx context.Context)

	mu         sync.Mutex
	values     map[string]string
	touched    map[string]bool
	submitting bool
	submitErr  string
}

func NewForm(schema Schema, submit SubmitFunc, onSuccess func(ctx context.Context)) *Form {
	f := &Form{
		schema:    schema,
		submit:    submit,
		onSuccess: onSuccess,
	}
	f.Reset()
	return f
}

func (f *Form) Schema() Schema { return f.schema }

// Reset restores the initial empty draft and clears touched state and errors.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *Form) resetLocked() {
	f.values = make(map[string]string, len(f.schema))
	for _, field := range f.schema {
		f.values[field.Name] = ""
	}
	f.touched = make(map[string]bool, len(f.schema))
	f.submitErr = ""
}

// Change sets a field value and marks it touched.
func (f *Form) Change(name, value string) error {
	if _, ok := f.schema.field(name); !ok {
		return fmt.Errorf("unknown field %q", name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[name] = value
	f.touched[name] = true
	return nil
}

// Blur marks a field touched so its error, if any, becomes visible.
func (f *Form) Blur(name string) error {
	if _, ok := f.schema.field(name); !ok {
		return fmt.Errorf("unknown field %q", name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[name] = true
	return nil
}

func (f *Form) Value(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name]
}

// Values returns a copy of the draft.
func (f *Form) Values() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyValues()
}

func (f *Form) copyValues() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

func (f *Form) Touched(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched[name]
}

// FieldError returns the visible error for a field: empty unless the field
// is touched and invalid.
func (f *Form) FieldError(name string) string {
	rule, ok := f.schema.field(name)
	if !ok {
		return ""
	}
	f.mu.Lock()
	touched := f.touched[name]
	value := f.values[name]
	f.mu.Unlock()
	if !touched {
		return ""
	}
	return f.check(rule, value)
}

// Errors returns every visible field error keyed by field name.
func (f *Form) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for _, rule := range f.schema {
		if !f.touched[rule.Name] {
			continue
		}
		if msg := f.check(rule, f.values[rule.Name]); msg != "" {
			out[rule.Name] = msg
		}
	}
	return out
}

func (f *Form) validateAllLocked() map[string]string {
	out := map[string]string{}
	for _, rule := range f.schema {
		if msg := f.check(rule, f.values[rule.Name]); msg != "" {
			out[rule.Name] = msg
		}
	}
	return out
}

func (f *Form) check(rule FieldRule, value string) string {
	tag := rule.tag()
	if tag == "" {
		return ""
	}
	err := validate.Var(value, tag)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return rule.Label + " is invalid"
	}
	switch verrs[0].Tag() {
	case "required":
		return rule.Label + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %d characters", rule.Label, rule.MaxLen)
	default:
		return rule.Label + " is invalid"
	}
}

// Submitting reports whether a submission is in flight.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// SubmitError is the top-level message of the last failed submission.
func (f *Form) SubmitError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitErr
}

// CanSubmit reports whether Submit would reach the network right now.
func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.submitting && len(f.validateAllLocked()) == 0
}

// Submit validates the whole draft and, if valid, sends it. Every field is
// marked touched first. It returns a *ValidationError when blocked locally,
// ErrSubmitInFlight while another submission runs, or a *SubmissionError on
// remote rejection.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	for _, rule := range f.schema {
		f.touched[rule.Name] = true
	}
	if errs := f.validateAllLocked(); len(errs) > 0 {
		f.mu.Unlock()
		return &ValidationError{Fields: errs}
	}
	f.submitting = true
	f.submitErr = ""
	values := f.copyValues()
	f.mu.Unlock()

	err := f.submit(ctx, values)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		msg := MessageFor(err)
		f.submitErr = msg
		f.mu.Unlock()
		return &SubmissionError{Message: msg, Err: err}
	}
	f.resetLocked()
	f.mu.Unlock()

	if f.onSuccess != nil {
		f.onSuccess(ctx)
	}
	return nil
}
