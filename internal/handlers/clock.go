package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gocard/gateway/internal/middleware"
	"gocard/gateway/internal/shiftclock"
)

func (h HandlerSet) ClockSnapshot(c *gin.Context) {
	sess := mustSession(c)
	snap, err := h.machine.Snapshot(reqCtx(c), sess.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h HandlerSet) ClockIn(c *gin.Context) {
	sess := mustSession(c)
	snap, err := h.machine.ClockIn(reqCtx(c), sess.UserID)
	if err != nil {
		h.respondClockError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h HandlerSet) ClockOut(c *gin.Context) {
	sess := mustSession(c)
	snap, total, err := h.machine.ClockOut(reqCtx(c), sess.UserID)
	if err != nil {
		h.respondClockError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot":   snap,
		"totalHours": total,
	})
}

// ClockSocket upgrades to a websocket that ticks elapsed time once a second
// while the employee is clocked in.
func (h HandlerSet) ClockSocket(c *gin.Context) {
	sess := mustSession(c)
	h.hub.Serve(sess.UserID, middleware.Credential(c))(c)
}

// respondClockError distinguishes an illegal transition (caller error, no
// upstream call happened) from an upstream failure.
func (h HandlerSet) respondClockError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shiftclock.ErrNoStartableShift),
		errors.Is(err, shiftclock.ErrNoActiveShift),
		errors.Is(err, shiftclock.ErrNegativeDuration):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.respondError(c, err)
	}
}
