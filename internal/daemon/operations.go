package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// OpKind identifies one class of long-running operation. Each kind holds its
// own cancellation token, so cancelling a scan never touches an audit in
// flight.
type OpKind string

const (
	OpScan   OpKind = "scan"
	OpDelete OpKind = "delete"
	OpAudit  OpKind = "audit"
)

// OpProgress is a generic progress snapshot polled over IPC.
type OpProgress struct {
	Phase   string `json:"phase"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Detail  string `json:"detail,omitempty"`
	Found   int    `json:"found"`
}

// OperationStatus is the externally visible state of one operation slot.
type OperationStatus struct {
	ID        string     `json:"id"`
	Kind      OpKind     `json:"kind"`
	Running   bool       `json:"running"`
	Cancelled bool       `json:"cancelled"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   time.Time  `json:"ended_at,omitzero"`
	Progress  OpProgress `json:"progress"`
	Error     string     `json:"error,omitempty"`
	Result    any        `json:"result,omitempty"`
}

// operation is one in-flight or recently finished unit of work.
type operation struct {
	id        string
	kind      OpKind
	cancel    context.CancelFunc
	startedAt time.Time

	mu        sync.Mutex
	progress  OpProgress
	running   bool
	cancelled bool
	endedAt   time.Time
	err       string
	result    any
}

func (o *operation) setProgress(p OpProgress) {
	o.mu.Lock()
	o.progress = p
	o.mu.Unlock()
}

func (o *operation) finish(result any, err error) {
	o.mu.Lock()
	o.running = false
	o.endedAt = time.Now()
	o.result = result
	if err != nil {
		o.err = err.Error()
	}
	o.mu.Unlock()
	o.cancel()
}

func (o *operation) status() OperationStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return OperationStatus{
		ID:        o.id,
		Kind:      o.kind,
		Running:   o.running,
		Cancelled: o.cancelled,
		StartedAt: o.startedAt,
		EndedAt:   o.endedAt,
		Progress:  o.progress,
		Error:     o.err,
		Result:    o.result,
	}
}

// operations tracks at most one operation per kind. Finished operations stay
// until the next of the same kind starts, so callers can poll final results.
type operations struct {
	mu    sync.Mutex
	slots map[OpKind]*operation
}

func newOperations() *operations {
	return &operations{slots: make(map[OpKind]*operation)}
}

// begin claims the slot for kind and returns the operation plus its derived
// context. It fails when an operation of the same kind is still running.
func (ops *operations) begin(parent context.Context, kind OpKind) (*operation, context.Context, error) {
	ops.mu.Lock()
	defer ops.mu.Unlock()

	if existing, ok := ops.slots[kind]; ok {
		existing.mu.Lock()
		busy := existing.running
		existing.mu.Unlock()
		if busy {
			return nil, nil, fmt.Errorf("%s operation %s already in progress", kind, existing.id)
		}
	}

	ctx, cancel := context.WithCancel(parent)
	op := &operation{
		id:        uuid.NewString(),
		kind:      kind,
		cancel:    cancel,
		startedAt: time.Now(),
		running:   true,
	}
	ops.slots[kind] = op
	return op, ctx, nil
}

// cancelKind cancels the running operation of the given kind, if any.
func (ops *operations) cancelKind(kind OpKind) bool {
	ops.mu.Lock()
	op, ok := ops.slots[kind]
	ops.mu.Unlock()
	if !ok {
		return false
	}
	op.mu.Lock()
	running := op.running
	if running {
		op.cancelled = true
	}
	op.mu.Unlock()
	if !running {
		return false
	}
	op.cancel()
	return true
}

// status returns the state of the operation slot for kind.
func (ops *operations) status(kind OpKind) (OperationStatus, bool) {
	ops.mu.Lock()
	op, ok := ops.slots[kind]
	ops.mu.Unlock()
	if !ok {
		return OperationStatus{}, false
	}
	return op.status(), true
}

// snapshot lists the state of every known operation slot.
func (ops *operations) snapshot() []OperationStatus {
	ops.mu.Lock()
	defer ops.mu.Unlock()
	out := make([]OperationStatus, 0, len(ops.slots))
	for _, op := range ops.slots {
		out = append(out, op.status())
	}
	return out
}
