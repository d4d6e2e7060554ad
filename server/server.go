// server/server.go
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/wfunc/yahtzee/auth"
	"github.com/wfunc/yahtzee/broadcast"
	"github.com/wfunc/yahtzee/config"
	"github.com/wfunc/yahtzee/dice"
	"github.com/wfunc/yahtzee/ledger"
	"github.com/wfunc/yahtzee/logger"
	"github.com/wfunc/yahtzee/match"
	"github.com/wfunc/yahtzee/monitor"
	"github.com/wfunc/yahtzee/persistence"
	"github.com/wfunc/yahtzee/round"
	"github.com/wfunc/yahtzee/rpc"
	"github.com/wfunc/yahtzee/services"
	"github.com/wfunc/yahtzee/session"
	"github.com/wfunc/yahtzee/timer"
)

type Server struct {
	cfg            *config.Config
	router         *gin.Engine
	upgrader       websocket.Upgrader
	db             persistence.Database
	stats          *persistence.StatsStore
	ledger         *ledger.Ledger
	matchEngine    *match.Engine
	roundEngine    *round.Engine
	playerService  *services.PlayerService
	jwtService     *auth.JWTService
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	monitor        *monitor.Monitor
	rpcServer      *rpc.Server
	timers         *timer.Manager
	shutdownChan   chan struct{}
}

func NewServer(cfg *config.Config, db persistence.Database, stats *persistence.StatsStore) (*Server, error) {
	s := &Server{
		cfg:            cfg,
		db:             db,
		stats:          stats,
		sessionManager: session.NewManager(),
		monitor:        monitor.NewMonitor("yahtzee"),
		timers:         timer.NewManager(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.ledger = ledger.New(db)
	s.broadcaster = broadcast.NewMatchBroadcaster(db, s.sessionManager)
	s.matchEngine = match.New(db, s.ledger, s.broadcaster)
	s.roundEngine = round.New(db, dice.NewRoller(), s.matchEngine, s.broadcaster)
	s.playerService = services.NewPlayerService(db, s.ledger, cfg.Game.StartingBalanceDecimal())
	s.jwtService = auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		return nil, err
	}
	s.rpcServer = rpcServer
	if err := rpcServer.Register(rpc.NewAdminService(s.ledger, s.matchEngine, stats)); err != nil {
		return nil, err
	}

	// 闲置等待局定期过期
	s.timers.Schedule(cfg.Game.WaitingMatchTTL, cfg.Game.WaitingMatchTTL, func() {
		if expired := s.matchEngine.ExpireIdleMatches(cfg.Game.WaitingMatchTTL); expired > 0 {
			logger.Log.Infof("Expired %d idle waiting matches", expired)
		}
	})

	// 定期刷新进行中对局数指标
	s.timers.Schedule(30*time.Second, 30*time.Second, func() {
		count, err := s.stats.InProgressMatchCount(context.Background())
		if err != nil {
			logger.Log.Warnf("Failed to count in-progress matches: %v", err)
			return
		}
		s.monitor.SetActiveMatches(int(count))
	})

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")

	api.POST("/players/register", s.handleRegister)
	api.POST("/players/login", s.handleLogin)
	api.GET("/leaderboard", s.handleLeaderboard)

	authed := api.Group("", s.authRequired())
	{
		authed.GET("/players/me", s.handleProfile)
		authed.POST("/players/me/deposit", s.handleDeposit)
		authed.POST("/players/me/withdraw", s.handleWithdraw)
		authed.GET("/players/me/transactions", s.handleTransactions)
		authed.POST("/players/me/deactivate", s.handleDeactivate)
		authed.GET("/players/me/matches", s.handleMatchHistory)

		authed.POST("/matches", s.handleCreateMatch)
		authed.GET("/matches", s.handleAvailableMatches)
		authed.GET("/matches/:code", s.handleMatchByCode)
		authed.POST("/matches/:code/join", s.handleJoinMatch)
		authed.POST("/matches/:code/start", s.handleStartMatch)
		authed.POST("/matches/:code/forfeit", s.handleForfeit)
		authed.GET("/matches/:code/scorecard", s.handleScorecard)

		authed.POST("/matches/:code/turn", s.handleStartTurn)
		authed.POST("/matches/:code/roll", s.handleRoll)
		authed.POST("/matches/:code/complete", s.handleCompleteTurn)
		authed.GET("/matches/:code/suggestions", s.handleSuggestions)
	}

	s.router.GET("/ws", s.handleWebSocket)
}

func (s *Server) Start() error {
	go s.rpcServer.Start()
	s.monitor.StartServer(s.cfg.Server.MetricsAddress)

	logger.Log.Infof("HTTP server listening on %s", s.cfg.Server.HTTPAddress)
	return s.router.Run(s.cfg.Server.HTTPAddress)
}

func (s *Server) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}
