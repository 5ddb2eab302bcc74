package handlers

import (
	"net/http"
	"strconv"

	"attendance/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type MarkRequest struct {
	Identity   string  `json:"identity" binding:"required"`
	Confidence float64 `json:"confidence"`
}

// AttendanceMark is the split-service path: recognition already happened
// elsewhere and only dedup + recording run here
func (a *API) AttendanceMark(c *gin.Context) {
	postReq := MarkRequest{}
	if err := c.ShouldBindWith(&postReq, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, failureResponse(err.Error()))
		return
	}
	rec, already, err := models.MarkAttendance(postReq.Identity, postReq.Confidence, models.VerificationManual)
	if err != nil {
		c.JSON(http.StatusInternalServerError, failureResponse("Error marking attendance"))
		return
	}
	if already {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Attendance already marked for today",
			"data":    rec,
		})
		return
	}
	BroadcastAttendance(&rec)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Attendance marked successfully",
		"data":    rec,
	})
}

func (a *API) AttendanceStats(c *gin.Context) {
	stats, err := models.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, failureResponse("Error getting attendance stats"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

func (a *API) AttendanceHistory(c *gin.Context) {
	identity := c.Param("identity")
	if identity == "" {
		c.JSON(http.StatusBadRequest, failureResponse("Identity is required"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	history, err := models.GetHistory(identity, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, failureResponse("Error getting attendance history"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": history})
}

func (a *API) AttendanceList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := models.ListRecent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, failureResponse("Error fetching attendance data"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}

func (a *API) AttendanceToday(c *gin.Context) {
	records, err := models.ListToday()
	if err != nil {
		c.JSON(http.StatusInternalServerError, failureResponse("Error fetching attendance data"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}
