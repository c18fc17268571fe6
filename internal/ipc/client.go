package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"reclaim/internal/daemon"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Reclaim.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests daemon shutdown.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Reclaim.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScanStart triggers a deep filesystem scan.
func (c *Client) ScanStart(dryRun bool) (*OperationStartedResponse, error) {
	var resp OperationStartedResponse
	if err := c.client.Call("Reclaim.ScanStart", ScanStartRequest{DryRun: dryRun}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AuditStart triggers an inventory audit.
func (c *Client) AuditStart(includeDeleted bool) (*OperationStartedResponse, error) {
	var resp OperationStartedResponse
	if err := c.client.Call("Reclaim.AuditStart", AuditStartRequest{IncludeDeleted: includeDeleted}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SweepStart triggers an expiration sweep.
func (c *Client) SweepStart() (*OperationStartedResponse, error) {
	var resp OperationStartedResponse
	if err := c.client.Call("Reclaim.SweepStart", SweepStartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OperationStatus polls the state of one operation kind.
func (c *Client) OperationStatus(kind daemon.OpKind) (*OperationStatusResponse, error) {
	var resp OperationStatusResponse
	if err := c.client.Call("Reclaim.OperationStatus", OperationStatusRequest{Kind: kind}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OperationCancel cancels the running operation of one kind.
func (c *Client) OperationCancel(kind daemon.OpKind) (*OperationCancelResponse, error) {
	var resp OperationCancelResponse
	if err := c.client.Call("Reclaim.OperationCancel", OperationCancelRequest{Kind: kind}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CleanupRun triggers a synchronous history-based cleanup pass.
func (c *Client) CleanupRun(dryRun bool) (*CleanupRunResponse, error) {
	var resp CleanupRunResponse
	if err := c.client.Call("Reclaim.CleanupRun", CleanupRunRequest{DryRun: dryRun}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QuarantineList returns quarantine items.
func (c *Client) QuarantineList(includeExpired bool) (*QuarantineListResponse, error) {
	var resp QuarantineListResponse
	if err := c.client.Call("Reclaim.QuarantineList", QuarantineListRequest{IncludeExpired: includeExpired}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QuarantineRestore restores one item to its original location.
func (c *Client) QuarantineRestore(id int64) (*QuarantineRestoreResponse, error) {
	var resp QuarantineRestoreResponse
	if err := c.client.Call("Reclaim.QuarantineRestore", QuarantineRestoreRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QuarantineDelete permanently deletes one item.
func (c *Client) QuarantineDelete(id int64) (*QuarantineDeleteResponse, error) {
	var resp QuarantineDeleteResponse
	if err := c.client.Call("Reclaim.QuarantineDelete", QuarantineDeleteRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QuarantineStats returns aggregate quarantine stats.
func (c *Client) QuarantineStats() (*QuarantineStatsResponse, error) {
	var resp QuarantineStatsResponse
	if err := c.client.Call("Reclaim.QuarantineStats", QuarantineStatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reconcile checks quarantine records against their physical files.
func (c *Client) Reconcile(apply bool) (*ReconcileResponse, error) {
	var resp ReconcileResponse
	if err := c.client.Call("Reclaim.Reconcile", ReconcileRequest{Apply: apply}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SchedulerGet returns scheduler status.
func (c *Client) SchedulerGet() (*SchedulerGetResponse, error) {
	var resp SchedulerGetResponse
	if err := c.client.Call("Reclaim.SchedulerGet", SchedulerGetRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SchedulerSet replaces scheduler settings.
func (c *Client) SchedulerSet(req SchedulerSetRequest) (*SchedulerSetResponse, error) {
	var resp SchedulerSetResponse
	if err := c.client.Call("Reclaim.SchedulerSet", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PathsList returns configured scan roots.
func (c *Client) PathsList(enabledOnly bool) (*PathsListResponse, error) {
	var resp PathsListResponse
	if err := c.client.Call("Reclaim.PathsList", PathsListRequest{EnabledOnly: enabledOnly}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PathAdd registers a scan root.
func (c *Client) PathAdd(path, label string) (*PathAddResponse, error) {
	var resp PathAddResponse
	if err := c.client.Call("Reclaim.PathAdd", PathAddRequest{Path: path, Label: label}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PathSetEnabled toggles a scan root.
func (c *Client) PathSetEnabled(path string, enabled bool) (*PathSetEnabledResponse, error) {
	var resp PathSetEnabledResponse
	if err := c.client.Call("Reclaim.PathSetEnabled", PathSetEnabledRequest{Path: path, Enabled: enabled}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail reads daemon log lines. Offset < 0 returns the last limit lines;
// otherwise complete lines written after offset.
func (c *Client) LogTail(offset int64, limit int) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Reclaim.LogTail", LogTailRequest{Offset: offset, Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PathRemove deletes a scan root.
func (c *Client) PathRemove(path string) (*PathRemoveResponse, error) {
	var resp PathRemoveResponse
	if err := c.client.Call("Reclaim.PathRemove", PathRemoveRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
