package handlers

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"attendance/auth"
	"attendance/config"
	"attendance/engagement"
	"attendance/recognition"
	"attendance/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequireReady fails fast with 503 while the gallery/model is still loading
// (or failed to load), so no request ever runs against a null gallery
func (a *API) RequireReady(c *gin.Context) {
	if a.Recognition.Ready() {
		c.Next()
		return
	}
	message := "Face recognition system initializing"
	if err := a.Recognition.Err(); err != nil {
		message = "Face recognition system unavailable: " + err.Error()
	}
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, failureResponse(message))
}

// saveUpload downscales the multipart image into a temp file the extractor
// can consume. The caller owns the returned path
func saveUpload(c *gin.Context, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", err
	}
	reader, err := file.Open()
	if err != nil {
		return "", err
	}
	defer reader.Close()

	path := filepath.Join(config.UPLOAD_DIR, uuid.NewString()+".jpg")
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	_, err = utils.DownscaleImage(uint(config.MAX_IMAGE_SIZE), reader, out)
	out.Close()
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// Recognize accepts a webcam snapshot and runs it through the pipeline
func (a *API) Recognize(c *gin.Context) {
	engagement.RecordAction(auth.LoadSession(c).ClientID(), "face_auth")

	if _, err := c.FormFile("image"); err != nil {
		c.JSON(http.StatusBadRequest, failureResponse("No image uploaded"))
		return
	}
	path, err := saveUpload(c, "image")
	if err != nil {
		// The upload exists but can't be decoded/stored - a hard failure,
		// not a business outcome
		log.Printf("Cannot store uploaded snapshot: %v", err)
		c.JSON(http.StatusInternalServerError, failureResponse("Cannot process uploaded image"))
		return
	}

	outcome := a.Recognition.Process(path)
	switch outcome.Code {
	case recognition.Recognized:
		BroadcastAttendance(outcome.Record)
		c.JSON(http.StatusOK, successResponse(outcome.Identity, outcome.Confidence, "Attendance marked successfully"))
	case recognition.AlreadyMarked:
		c.JSON(http.StatusOK, successResponse(outcome.Identity, outcome.Confidence, "Attendance already marked for today"))
	case recognition.NoFaceDetected:
		c.JSON(http.StatusBadRequest, failureResponse("No face detected in image"))
	case recognition.NotRecognized:
		c.JSON(http.StatusUnauthorized, Response{
			Distance: &outcome.Distance,
			Message:  "Face not recognized",
		})
	case recognition.NotReady:
		c.JSON(http.StatusServiceUnavailable, failureResponse("Face recognition system initializing"))
	case recognition.PersistenceError:
		log.Printf("Attendance write failed: %v", outcome.Err)
		c.JSON(http.StatusInternalServerError, failureResponse("Error marking attendance"))
	default:
		log.Printf("Face extraction failed: %v", outcome.Err)
		c.JSON(http.StatusInternalServerError, failureResponse("Face recognition error"))
	}
}
