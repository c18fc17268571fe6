package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"reclaim/internal/daemon"
	"reclaim/internal/logging"
	"reclaim/internal/logs"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Reclaim", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	resp.Status = s.daemon.Status(s.ctx)
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon stop requested via IPC")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) ScanStart(req ScanStartRequest, resp *OperationStartedResponse) error {
	id, err := s.daemon.StartScan(req.DryRun)
	if err != nil {
		return err
	}
	resp.OperationID = id
	s.logger.Info("scan started via IPC",
		logging.String(logging.FieldOperationID, id),
		logging.Bool(logging.FieldDryRun, req.DryRun))
	return nil
}

func (s *service) AuditStart(req AuditStartRequest, resp *OperationStartedResponse) error {
	id, err := s.daemon.StartAudit(req.IncludeDeleted)
	if err != nil {
		return err
	}
	resp.OperationID = id
	s.logger.Info("audit started via IPC", logging.String(logging.FieldOperationID, id))
	return nil
}

func (s *service) SweepStart(_ SweepStartRequest, resp *OperationStartedResponse) error {
	id, err := s.daemon.StartSweep()
	if err != nil {
		return err
	}
	resp.OperationID = id
	s.logger.Info("sweep started via IPC", logging.String(logging.FieldOperationID, id))
	return nil
}

func (s *service) OperationStatus(req OperationStatusRequest, resp *OperationStatusResponse) error {
	status, ok := s.daemon.OperationStatus(req.Kind)
	resp.Known = ok
	resp.Status = status
	return nil
}

func (s *service) OperationCancel(req OperationCancelRequest, resp *OperationCancelResponse) error {
	resp.Cancelled = s.daemon.CancelOperation(req.Kind)
	if resp.Cancelled {
		s.logger.Info("operation cancelled via IPC", logging.String("kind", string(req.Kind)))
	}
	return nil
}

func (s *service) CleanupRun(req CleanupRunRequest, resp *CleanupRunResponse) error {
	result, err := s.daemon.RunCleanupNow(s.ctx, req.DryRun)
	if err != nil {
		return err
	}
	resp.Result = *result
	return nil
}

func (s *service) QuarantineList(req QuarantineListRequest, resp *QuarantineListResponse) error {
	items, err := s.daemon.Store().List(s.ctx, req.IncludeExpired)
	if err != nil {
		return err
	}
	resp.Items = make([]QuarantineItem, 0, len(items))
	for _, item := range items {
		resp.Items = append(resp.Items, fromItem(item))
	}
	return nil
}

func (s *service) QuarantineRestore(req QuarantineRestoreRequest, resp *QuarantineRestoreResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid quarantine item id %d", req.ID)
	}
	restored, err := s.daemon.Store().Restore(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Restored = restored
	return nil
}

func (s *service) QuarantineDelete(req QuarantineDeleteRequest, resp *QuarantineDeleteResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid quarantine item id %d", req.ID)
	}
	deleted, err := s.daemon.Store().Delete(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Deleted = deleted
	return nil
}

func (s *service) QuarantineStats(_ QuarantineStatsRequest, resp *QuarantineStatsResponse) error {
	stats, err := s.daemon.Store().Stats(s.ctx)
	if err != nil {
		return err
	}
	resp.Count = stats.Count
	resp.TotalBytes = stats.TotalBytes
	return nil
}

func (s *service) Reconcile(req ReconcileRequest, resp *ReconcileResponse) error {
	report, err := s.daemon.Reconcile(s.ctx, req.Apply)
	if err != nil {
		return err
	}
	resp.Checked = report.Checked
	resp.Marked = report.Marked
	resp.Ghosts = make([]QuarantineItem, 0, len(report.Ghosts))
	for i := range report.Ghosts {
		resp.Ghosts = append(resp.Ghosts, fromItem(&report.Ghosts[i]))
	}
	return nil
}

func (s *service) SchedulerGet(_ SchedulerGetRequest, resp *SchedulerGetResponse) error {
	resp.Status = s.daemon.Scheduler().Status()
	return nil
}

func (s *service) SchedulerSet(req SchedulerSetRequest, resp *SchedulerSetResponse) error {
	s.daemon.Scheduler().UpdateSettings(req.Settings)
	resp.Settings = s.daemon.Scheduler().Settings()
	return nil
}

func (s *service) PathsList(req PathsListRequest, resp *PathsListResponse) error {
	paths, err := s.daemon.Store().ListScanPaths(s.ctx, req.EnabledOnly)
	if err != nil {
		return err
	}
	resp.Paths = make([]ScanPath, 0, len(paths))
	for _, sp := range paths {
		resp.Paths = append(resp.Paths, ScanPath{ID: sp.ID, Path: sp.Path, Label: sp.Label, Enabled: sp.Enabled})
	}
	return nil
}

func (s *service) PathAdd(req PathAddRequest, resp *PathAddResponse) error {
	sp, err := s.daemon.Store().AddScanPath(s.ctx, req.Path, req.Label)
	if err != nil {
		return err
	}
	resp.Path = ScanPath{ID: sp.ID, Path: sp.Path, Label: sp.Label, Enabled: sp.Enabled}
	return nil
}

func (s *service) PathSetEnabled(req PathSetEnabledRequest, resp *PathSetEnabledResponse) error {
	updated, err := s.daemon.Store().SetScanPathEnabled(s.ctx, req.Path, req.Enabled)
	if err != nil {
		return err
	}
	resp.Updated = updated
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	if req.Offset < 0 {
		limit := req.Limit
		if limit <= 0 {
			limit = 50
		}
		result, err := logs.TailLast(s.daemon.LogPath(), limit)
		if err != nil {
			return err
		}
		resp.Lines = result.Lines
		resp.Offset = result.Offset
		return nil
	}
	result, err := logs.TailFrom(s.daemon.LogPath(), req.Offset)
	if err != nil {
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) PathRemove(req PathRemoveRequest, resp *PathRemoveResponse) error {
	removed, err := s.daemon.Store().RemoveScanPath(s.ctx, req.Path)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}
