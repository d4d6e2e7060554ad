// server/match_handlers.go
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wfunc/yahtzee/models"
)

type createMatchRequest struct {
	StakeAmount decimal.Decimal `json:"stake_amount" binding:"required"`
	MaxSeats    int             `json:"max_seats" binding:"required"`
}

func (s *Server) handleCreateMatch(c *gin.Context) {
	var req createMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := s.matchEngine.Create(playerID(c), req.StakeAmount, req.MaxSeats)
	if err != nil {
		fail(c, err)
		return
	}
	s.monitor.AddAmountWagered(req.StakeAmount)
	c.JSON(http.StatusCreated, m)
}

func (s *Server) handleAvailableMatches(c *gin.Context) {
	summaries, err := s.matchEngine.Available()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) handleMatchByCode(c *gin.Context) {
	m, seats, err := s.matchEngine.ByCode(c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": m, "seats": seats})
}

func (s *Server) handleJoinMatch(c *gin.Context) {
	seat, err := s.matchEngine.Join(c.Param("code"), playerID(c))
	if err != nil {
		fail(c, err)
		return
	}

	m, _, err := s.matchEngine.ByCode(c.Param("code"))
	if err == nil {
		s.monitor.AddAmountWagered(m.StakeAmount)
	}
	c.JSON(http.StatusOK, seat)
}

func (s *Server) handleStartMatch(c *gin.Context) {
	m, err := s.matchEngine.Start(c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) handleForfeit(c *gin.Context) {
	if err := s.matchEngine.Deactivate(c.Param("code"), playerID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forfeited": true})
}

func (s *Server) handleScorecard(c *gin.Context) {
	turns, err := s.roundEngine.Scorecard(c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, turns)
}

type completeTurnRequest struct {
	Category string `json:"category" binding:"required"`
}

func (s *Server) handleStartTurn(c *gin.Context) {
	turn, err := s.roundEngine.StartTurn(c.Param("code"), playerID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, turn)
}

type rollRequest struct {
	KeepMask string `json:"keep_mask"`
}

func (s *Server) handleRoll(c *gin.Context) {
	var req rollRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	turn, err := s.roundEngine.Roll(c.Param("code"), playerID(c), req.KeepMask)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, turn)
}

func (s *Server) handleCompleteTurn(c *gin.Context) {
	var req completeTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := models.ParseCategory(req.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	turn, err := s.roundEngine.Complete(c.Param("code"), playerID(c), category)
	if err != nil {
		fail(c, err)
		return
	}
	s.monitor.IncTurnsCompleted()
	s.monitor.ObserveTurnLatency(time.Since(turn.CreatedAt))
	if m, _, err := s.matchEngine.ByCode(c.Param("code")); err == nil && m.Status == models.MatchFinished {
		s.monitor.IncMatchesFinished()
	}
	c.JSON(http.StatusOK, turn)
}

func (s *Server) handleSuggestions(c *gin.Context) {
	suggested, best, err := s.roundEngine.Suggestions(c.Param("code"), playerID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggested": suggested, "best": best})
}
