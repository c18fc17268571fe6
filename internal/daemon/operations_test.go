package daemon

import (
	"context"
	"testing"
)

func TestOperationsOnePerKind(t *testing.T) {
	ops := newOperations()

	op, _, err := ops.begin(context.Background(), OpScan)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, _, err := ops.begin(context.Background(), OpScan); err == nil {
		t.Fatal("second scan should be rejected while the first runs")
	}
	// A different kind is unaffected.
	auditOp, _, err := ops.begin(context.Background(), OpAudit)
	if err != nil {
		t.Fatalf("begin audit: %v", err)
	}
	auditOp.finish(nil, nil)

	op.finish(nil, nil)
	if _, _, err := ops.begin(context.Background(), OpScan); err != nil {
		t.Fatalf("begin after finish: %v", err)
	}
}

func TestOperationsCancelPropagatesContext(t *testing.T) {
	ops := newOperations()
	op, ctx, err := ops.begin(context.Background(), OpScan)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	if !ops.cancelKind(OpScan) {
		t.Fatal("cancel should report true for a running operation")
	}
	select {
	case <-ctx.Done():
	default:
		t.Fatal("operation context should be cancelled")
	}

	op.finish(nil, ctx.Err())
	status, ok := ops.status(OpScan)
	if !ok {
		t.Fatal("status should exist")
	}
	if !status.Cancelled {
		t.Error("status should be flagged cancelled")
	}
	if status.Running {
		t.Error("status should not be running after finish")
	}
}

func TestOperationsStatusUnknownKind(t *testing.T) {
	ops := newOperations()
	if _, ok := ops.status(OpAudit); ok {
		t.Fatal("unknown kind should report no status")
	}
}
