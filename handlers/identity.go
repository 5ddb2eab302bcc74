package handlers

import (
	"errors"
	"net/http"

	"attendance/faces"
	"attendance/recognition"

	"github.com/gin-gonic/gin"
)

type identityInfo struct {
	Identity  string `json:"identity"`
	FaceCount int    `json:"face_count"`
}

// IdentityRegister adds a reference face sample for a label. The sample is
// persisted so it survives restarts even if the labeled images dir doesn't
func (a *API) IdentityRegister(c *gin.Context) {
	identity := c.PostForm("identity")
	if identity == "" {
		c.JSON(http.StatusBadRequest, failureResponse("Identity is required"))
		return
	}
	if _, err := c.FormFile("image"); err != nil {
		c.JSON(http.StatusBadRequest, failureResponse("No image provided"))
		return
	}
	imagePath, err := saveUpload(c, "image")
	if err != nil {
		c.JSON(http.StatusInternalServerError, failureResponse("Error saving uploaded image"))
		return
	}
	_, err = a.Recognition.RegisterSample(identity, imagePath)
	if err != nil {
		switch {
		case errors.Is(err, recognition.ErrNotReady):
			c.JSON(http.StatusServiceUnavailable, failureResponse("Face recognition system is still loading"))
		case errors.Is(err, faces.ErrNoFace):
			c.JSON(http.StatusBadRequest, failureResponse("No face detected in the image"))
		case errors.Is(err, recognition.ErrSampleLimit):
			c.JSON(http.StatusConflict, failureResponse("Maximum number of face samples reached for this identity"))
		default:
			c.JSON(http.StatusInternalServerError, failureResponse("Error processing face sample"))
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"identity": identity,
		"message":  "Face sample registered",
	})
}

func (a *API) IdentityList(c *gin.Context) {
	gallery := a.Recognition.Gallery()
	if gallery == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": []identityInfo{}})
		return
	}
	labels := gallery.Labels()
	result := make([]identityInfo, 0, len(labels))
	for _, label := range labels {
		result = append(result, identityInfo{Identity: label, FaceCount: gallery.CountFor(label)})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

func (a *API) IdentityStatus(c *gin.Context) {
	identity := c.Query("identity")
	if identity == "" {
		c.JSON(http.StatusBadRequest, failureResponse("Identity is required"))
		return
	}
	count := 0
	if gallery := a.Recognition.Gallery(); gallery != nil {
		count = gallery.CountFor(identity)
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"identity":      identity,
		"is_registered": count > 0,
		"face_count":    count,
	})
}
