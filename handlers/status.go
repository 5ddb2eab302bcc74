package handlers

import (
	"net/http"

	"attendance/storage"

	"github.com/gin-gonic/gin"
)

// Status reports recognition lifecycle so dashboards can poll readiness
// instead of probing /api/recognize
func (a *API) Status(c *gin.Context) {
	state := a.Recognition.State()
	result := gin.H{
		"success": true,
		"state":   state.String(),
		"ready":   a.Recognition.Ready(),
	}
	if gallery := a.Recognition.Gallery(); gallery != nil {
		result["known_identities"] = len(gallery.Labels())
		result["face_samples"] = gallery.Size()
	}
	if target := storage.GetDefaultStorage(); target != nil {
		result["archive"] = gin.H{
			"bucket":     target.GetBucket().Name,
			"free_bytes": target.GetFreeSpace(),
		}
	}
	if err := a.Recognition.Err(); err != nil {
		result["error"] = err.Error()
	}
	c.JSON(http.StatusOK, result)
}
