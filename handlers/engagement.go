package handlers

import (
	"net/http"
	"strconv"

	"attendance/auth"
	"attendance/engagement"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// PageViewMiddleware records dashboard page loads against the session's
// client id without delaying the response
func PageViewMiddleware(c *gin.Context) {
	session := auth.LoadSession(c)
	engagement.RecordPageView(session.ClientID(), c.Request.UserAgent())
	c.Next()
}

type TrackActionRequest struct {
	Action string `json:"action" binding:"required"`
}

func (a *API) EngagementTrackAction(c *gin.Context) {
	postReq := TrackActionRequest{}
	if err := c.ShouldBindWith(&postReq, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, failureResponse(err.Error()))
		return
	}
	session := auth.LoadSession(c)
	engagement.RecordAction(session.ClientID(), postReq.Action)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *API) EngagementHistory(c *gin.Context) {
	session := auth.LoadSession(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	sessions := engagement.History(session.ClientID(), limit)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sessions})
}

// EngagementEndSession flushes the current tracking session and clears the
// browser session cookie
func (a *API) EngagementEndSession(c *gin.Context) {
	session := auth.LoadSession(c)
	engagement.EndSession(session.ClientID())
	session.End()
	c.JSON(http.StatusOK, gin.H{"success": true})
}
