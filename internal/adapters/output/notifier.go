// internal/adapters/output/notifier.go
package output

import (
	"io"
	"sync"

	"github.com/pterm/pterm"
)

// PTermNotifier implements ports.Notifier on the terminal.
type PTermNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewNotifier creates a notifier writing to out.
func NewNotifier(out io.Writer) *PTermNotifier {
	return &PTermNotifier{out: out}
}

// Notice prints an informational message.
func (n *PTermNotifier) Notice(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	pterm.Info.WithWriter(n.out).Println(msg)
}

// Warn prints a warning, used for recoverable conflicts.
func (n *PTermNotifier) Warn(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	pterm.Warning.WithWriter(n.out).Println(msg)
}

// Fail prints an operation failure.
func (n *PTermNotifier) Fail(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	pterm.Error.WithWriter(n.out).Println(msg)
}
