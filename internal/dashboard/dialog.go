package dashboard

import (
	"context"
	"sync"

	"github.com/hospdash/hospdash/internal/platform/notification"
)

// DefaultCancelMessage is used by a notifying Cancel without a message.
const DefaultCancelMessage = "Patient has consulted successfully!"

// DialogState is the state of one action dialog.
type DialogState int

const (
	DialogClosed DialogState = iota
	DialogOpen
)

func (s DialogState) String() string {
	if s == DialogOpen {
		return "open"
	}
	return "closed"
}

// Dialog controls the open/closed state of one row's action dialog. It is
// reusable; there is no terminal state. Its only side effect is the toast
// emitted by a notifying Cancel.
type Dialog struct {
	mu      sync.Mutex
	state   DialogState
	sink    notification.Sink
	onClose []func()
}

func NewDialog(sink notification.Sink) *Dialog {
	return &Dialog{sink: sink}
}

// OnClose registers fn to run every time the dialog goes from open to closed.
func (d *Dialog) OnClose(fn func()) {
	d.mu.Lock()
	d.onClose = append(d.onClose, fn)
	d.mu.Unlock()
}

func (d *Dialog) State() DialogState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dialog) IsOpen() bool {
	return d.State() == DialogOpen
}

// Open moves the dialog to Open. Opening an open dialog is a no-op.
func (d *Dialog) Open() {
	d.mu.Lock()
	d.state = DialogOpen
	d.mu.Unlock()
}

// Confirm closes the dialog without a notification.
func (d *Dialog) Confirm() {
	d.close()
}

// Cancel closes the dialog. With notify set it pushes message, or
// DefaultCancelMessage when message is empty, to the sink at info level.
func (d *Dialog) Cancel(ctx context.Context, notify bool, message string) {
	d.close()
	if !notify || d.sink == nil {
		return
	}
	if message == "" {
		message = DefaultCancelMessage
	}
	d.sink.Notify(ctx, message, notification.LevelInfo)
}

func (d *Dialog) close() {
	d.mu.Lock()
	wasOpen := d.state == DialogOpen
	d.state = DialogClosed
	hooks := d.onClose
	d.mu.Unlock()

	if wasOpen {
		for _, fn := range hooks {
			fn()
		}
	}
}
