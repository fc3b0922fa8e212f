// Package dashboard implements the ward dashboard's action flows independent
// of any particular front end. Each patient row owns one flow, chosen by the
// signed-in user's role: a consultation form for physicians or a medicine
// picker for pharmacists. Flows are explicit state machines built from three
// parts: a Dialog (open/closed plus the closing toast), a Loader (remote list
// with loading, error, empty and items views) and a Form (schema-driven
// validation with a single in-flight submission).
//
// The package talks to the backend only through the Gateway interface and
// reports outcomes only through a notification.Sink.
package dashboard
