// server/errors.go
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wfunc/yahtzee/auth"
	"github.com/wfunc/yahtzee/ledger"
	"github.com/wfunc/yahtzee/logger"
	"github.com/wfunc/yahtzee/match"
	"github.com/wfunc/yahtzee/persistence"
	"github.com/wfunc/yahtzee/round"
	"github.com/wfunc/yahtzee/services"
	"github.com/wfunc/yahtzee/state"
)

// httpStatus 把领域错误映射到HTTP状态码：
// 校验类400，权限类401/403，找不到404，状态冲突409，完整性错误500
func httpStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, match.ErrInvalidStake),
		errors.Is(err, match.ErrInvalidSeats),
		errors.Is(err, round.ErrKeepMaskRequired),
		errors.Is(err, round.ErrKeepMaskNotAllowed),
		errors.Is(err, round.ErrNoRolls),
		errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusBadRequest

	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized

	case errors.Is(err, round.ErrNotYourTurn),
		errors.Is(err, round.ErrPlayerInactive),
		errors.Is(err, services.ErrPlayerInactive):
		return http.StatusForbidden

	case errors.Is(err, persistence.ErrRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, match.ErrMatchNotJoinable),
		errors.Is(err, match.ErrMatchFull),
		errors.Is(err, match.ErrAlreadySeated),
		errors.Is(err, match.ErrPlayerBusy),
		errors.Is(err, match.ErrNotEnoughSeats),
		errors.Is(err, match.ErrNotInProgress),
		errors.Is(err, round.ErrTurnAlreadyOpen),
		errors.Is(err, round.ErrTurnCompleted),
		errors.Is(err, round.ErrMaxRollsReached),
		errors.Is(err, round.ErrCategoryUnavailable),
		errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, state.ErrTransitionNotAllowed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail 以错误的具体种类回给调用方，不吞成笼统的bad request
func fail(c *gin.Context, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		logger.Log.Errorf("Internal error on %s: %v", c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
