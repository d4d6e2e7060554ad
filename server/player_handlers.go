// server/player_handlers.go
package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := s.playerService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, player)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := s.playerService.Authenticate(req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	token, err := s.jwtService.GenerateToken(player.ID, player.Username)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "player": player})
}

func (s *Server) handleProfile(c *gin.Context) {
	player, err := s.playerService.Profile(playerID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"player":       player,
		"win_rate":     player.WinRate(),
		"net_earnings": player.NetEarnings(),
	})
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func (s *Server) handleDeposit(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := s.playerService.Deposit(playerID(c), req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (s *Server) handleWithdraw(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := s.playerService.Withdraw(playerID(c), req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (s *Server) handleTransactions(c *gin.Context) {
	transactions, err := s.playerService.Transactions(playerID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (s *Server) handleDeactivate(c *gin.Context) {
	if err := s.playerService.Deactivate(playerID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": true})
}

func (s *Server) handleMatchHistory(c *gin.Context) {
	matches, err := s.matchEngine.HistoryForPlayer(playerID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ctx := c.Request.Context()
	var err error
	var entries interface{}
	switch c.DefaultQuery("by", "score") {
	case "earnings":
		entries, err = s.stats.TopByNetEarnings(ctx, limit)
	case "played":
		entries, err = s.stats.TopByGamesPlayed(ctx, limit)
	default:
		entries, err = s.stats.TopByHighestScore(ctx, limit)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
