// rpc/rpc.go
package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/yahtzee/ledger"
	"github.com/wfunc/yahtzee/logger"
	"github.com/wfunc/yahtzee/match"
	"github.com/wfunc/yahtzee/persistence"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Register exposes a service over this server.
func (s *Server) Register(service any) error {
	return rpc.Register(service)
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes operational methods over net/rpc.
// Methods follow the net/rpc signature: exported method, exported arguments,
// second argument is a pointer, return type is error.
type AdminService struct {
	ledger      *ledger.Ledger
	matchEngine *match.Engine
	stats       *persistence.StatsStore
}

func NewAdminService(led *ledger.Ledger, matchEngine *match.Engine, stats *persistence.StatsStore) *AdminService {
	return &AdminService{
		ledger:      led,
		matchEngine: matchEngine,
		stats:       stats,
	}
}

type ReconcileArgs struct {
	PlayerID uint
}

type ReconcileReply struct {
	Consistent bool
}

// ReconcilePlayer 对账：校验玩家余额与流水之和一致。
// 不一致属于正常应答而非RPC错误，Consistent置false返回。
func (a *AdminService) ReconcilePlayer(args *ReconcileArgs, reply *ReconcileReply) error {
	consistent, err := a.ledger.Reconcile(args.PlayerID)
	if err != nil && !errors.Is(err, ledger.ErrBalanceMismatch) {
		return err
	}
	reply.Consistent = consistent
	return nil
}

type CancelMatchArgs struct {
	Code   string
	Reason string
}

type CancelMatchReply struct {
	Cancelled bool
}

// CancelMatch 管理员取消对局，全员退款
func (a *AdminService) CancelMatch(args *CancelMatchArgs, reply *CancelMatchReply) error {
	if err := a.matchEngine.Cancel(args.Code, args.Reason); err != nil {
		return err
	}
	reply.Cancelled = true
	return nil
}

type SystemTotalsArgs struct{}

type SystemTotalsReply struct {
	ActivePlayers     int64
	TotalBalance      string
	FinishedMatches   int64
	PrizesDistributed string
}

// SystemTotals 系统级统计
func (a *AdminService) SystemTotals(args *SystemTotalsArgs, reply *SystemTotalsReply) error {
	totals, err := a.stats.SystemTotals(context.Background())
	if err != nil {
		return err
	}
	reply.ActivePlayers = totals.ActivePlayers
	reply.TotalBalance = totals.TotalBalance.String()
	reply.FinishedMatches = totals.FinishedMatches
	reply.PrizesDistributed = totals.PrizesDistributed.String()
	return nil
}
