// Package console drives a dashboard session from a line-oriented terminal.
package console

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/hospdash/hospdash/internal/dashboard"
	"github.com/hospdash/hospdash/internal/platform/notification"
)

const helpText = `Commands:
  list | reload          reload the patient list
  retry                  retry a failed load
  open <n>               open the action dialog of patient n
  disease <text>         (consult) set the disease field
  description <text>     (consult) set the description field
  submit                 (consult) submit the form
  give <n>               (dispense) give medicine n to the patient
  close                  close the open dialog
  history                show recent notifications
  help                   show this help
  quit                   exit`

// SyncWriter serializes writes to a terminal shared by the console and
// background notifiers.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewSyncWriter(w io.Writer) *SyncWriter {
	return &SyncWriter{w: w}
}

func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Console reads commands and renders the board and the open dialog. Output
// of one command is buffered and written to the terminal in a single Write,
// so toasts from other goroutines never split a frame.
type Console struct {
	board   *dashboard.Board
	in      *bufio.Scanner
	term    io.Writer
	out     *bytes.Buffer
	history *notification.MemorySink
	rows    []*dashboard.Row
	active  *dashboard.Row
}

func New(board *dashboard.Board, in io.Reader, term io.Writer) *Console {
	return &Console{board: board, in: bufio.NewScanner(in), term: term, out: &bytes.Buffer{}}
}

// SetHistory enables the history command over the given toast recorder.
func (c *Console) SetHistory(h *notification.MemorySink) {
	c.history = h
}

// Active returns the row whose dialog is open, or nil.
func (c *Console) Active() *dashboard.Row { return c.active }

// Run loads the patient list and processes commands until quit, end of
// input or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintf(c.out, "Signed in as %s (%s)\n", c.board.Session().Username, c.board.Session().Role)
	c.reload(ctx)
	c.prompt()
	c.flush()
	for c.in.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if quit := c.Exec(ctx, c.in.Text()); quit {
			return nil
		}
		c.prompt()
		c.flush()
	}
	return c.in.Err()
}

// Exec runs one command line. It reports whether the console should exit.
func (c *Console) Exec(ctx context.Context, line string) bool {
	defer c.flush()
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	cmd = strings.ToLower(cmd)

	switch cmd {
	case "":
		return false
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(c.out, helpText)
		return false
	case "history":
		if c.history == nil {
			c.unknown(cmd)
			return false
		}
		RenderHistory(c.out, c.history.Toasts())
		return false
	}

	if c.active == nil {
		c.execBoard(ctx, cmd, arg)
		return false
	}
	if c.active.Consult != nil {
		c.execConsult(ctx, c.active.Consult, cmd, arg)
	} else {
		c.execDispense(ctx, c.active.Dispense, cmd, arg)
	}
	if c.active != nil && !c.active.Dialog().IsOpen() {
		c.active = nil
		RenderBoard(c.out, c.board, c.rows)
	}
	return false
}

func (c *Console) execBoard(ctx context.Context, cmd, arg string) {
	switch cmd {
	case "list", "reload", "retry":
		c.reload(ctx)
	case "open":
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(c.out, "usage: open <n>")
			return
		}
		row := c.row(n)
		if row == nil {
			fmt.Fprintf(c.out, "No patient #%d.\n", n)
			return
		}
		c.active = row
		if row.Consult != nil {
			row.Consult.Open()
			RenderConsult(c.out, row.Consult)
			return
		}
		row.Dispense.Open(ctx)
		RenderDispense(c.out, row.Dispense)
	default:
		c.unknown(cmd)
	}
}

func (c *Console) execConsult(ctx context.Context, f *dashboard.ConsultFlow, cmd, arg string) {
	switch cmd {
	case "disease", "description":
		f.Form().Change(cmd, arg)
		f.Form().Blur(cmd)
	case "submit":
		if err := f.Submit(ctx); errors.Is(err, dashboard.ErrSubmitInFlight) {
			fmt.Fprintln(c.out, "Please wait...")
		}
	case "close", "cancel":
		f.Close()
		return
	default:
		c.unknown(cmd)
		return
	}
	if f.Dialog().IsOpen() {
		RenderConsult(c.out, f)
	}
}

func (c *Console) execDispense(ctx context.Context, f *dashboard.DispenseFlow, cmd, arg string) {
	switch cmd {
	case "give":
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(c.out, "usage: give <n>")
			return
		}
		err = f.Give(ctx, n)
		var noItem *dashboard.NoSuchItemError
		switch {
		case errors.As(err, &noItem):
			fmt.Fprintf(c.out, "No medicine #%d.\n", n)
		case errors.Is(err, dashboard.ErrNotReady):
			fmt.Fprintln(c.out, "The medicine list is not ready.")
		case errors.Is(err, dashboard.ErrSubmitInFlight):
			fmt.Fprintln(c.out, "Please wait...")
		}
	case "retry":
		f.Retry(ctx)
	case "close", "cancel":
		f.Close()
		return
	default:
		c.unknown(cmd)
		return
	}
	if f.Dialog().IsOpen() {
		RenderDispense(c.out, f)
	}
}

func (c *Console) reload(ctx context.Context) {
	c.board.Load(ctx)
	c.rows = c.board.Rows()
	RenderBoard(c.out, c.board, c.rows)
}

func (c *Console) row(index int) *dashboard.Row {
	for _, r := range c.rows {
		if r.Index == index {
			return r
		}
	}
	return nil
}

func (c *Console) unknown(cmd string) {
	fmt.Fprintf(c.out, "Unknown command %q, type 'help'.\n", cmd)
}

func (c *Console) prompt() {
	fmt.Fprint(c.out, "> ")
}

// flush writes the buffered frame to the terminal.
func (c *Console) flush() {
	if c.out.Len() == 0 {
		return
	}
	_, _ = c.term.Write(c.out.Bytes())
	c.out.Reset()
}
