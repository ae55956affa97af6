package cells

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrNoWriter is raised when a derived cell without a write-back function is written.
	ErrNoWriter = errors.New("cells: derived cell has no write-back function")
	// ErrForeignScope is raised when a scope is used with a cell of another system.
	ErrForeignScope = errors.New("cells: scope belongs to another reactive system")
	// ErrCycle is raised when a subscriber is re-entered while it is running.
	ErrCycle = errors.New("cells: cyclic dependency")
	// ErrRunaway is reported when a flush keeps scheduling work past its round limit.
	ErrRunaway = errors.New("cells: flush did not converge")
	// ErrUnbalancedBatch is raised by EndBatch without a matching StartBatch.
	ErrUnbalancedBatch = errors.New("cells: EndBatch without StartBatch")
	// ErrResetInProgress is raised when Reset is called inside a batch, a
	// flush or a running subscriber.
	ErrResetInProgress = errors.New("cells: Reset called while the system is busy")

	errUnbalancedScope = errors.New("cells: scope exited out of order")
)

// SubscriberError wraps a panic recovered from one subscriber during a flush.
type SubscriberError struct {
	Kind  string
	Name  string
	Value any
}

func (e *SubscriberError) Error() string {
	name := e.Name
	if name == "" {
		name = "anonymous"
	}
	return fmt.Sprintf("cells: %s %q panicked: %v", e.Kind, name, e.Value)
}

func (e *SubscriberError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// FlushError aggregates every failure isolated during one flush. It is
// raised to the caller of the outermost write or batch once the flush has
// converged, unless the system has an OnError handler.
type FlushError struct {
	Tx       string
	Failures *multierror.Error
}

func (e *FlushError) Error() string {
	if e.Tx == "" {
		return e.Failures.Error()
	}
	return fmt.Sprintf("tx %q: %s", e.Tx, e.Failures.Error())
}

func (e *FlushError) Unwrap() error {
	return e.Failures
}

// Len is the number of isolated failures.
func (e *FlushError) Len() int {
	return e.Failures.Len()
}
