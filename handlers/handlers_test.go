package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"attendance/config"
	"attendance/db"
	"attendance/faces"
	"attendance/models"
	"attendance/recognition"
	"attendance/storage"

	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fixedExtractor always reports the same descriptor; the gallery contents
// decide whether a request is recognized
type fixedExtractor struct {
	desc faces.Descriptor
}

func (f fixedExtractor) Extract(path string) (faces.Descriptor, image.Rectangle, error) {
	return f.desc, image.Rect(0, 0, 10, 10), nil
}

func setupRouter(t *testing.T, service *recognition.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	instance, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	db.Instance = instance
	models.Init()
	db.Instance.Where("1 = 1").Delete(&models.AttendanceRecord{})
	db.Instance.Where("1 = 1").Delete(&models.FaceSample{})
	db.Instance.Where("1 = 1").Delete(&models.EngagementSession{})
	config.UPLOAD_DIR = t.TempDir()

	router := gin.New()
	store := gormsessions.NewStore(db.Instance, true, []byte("test-session-key"))
	router.Use(sessions.Sessions("token", store))

	api := NewAPI(service)
	router.POST("/api/recognize", api.RequireReady, api.Recognize)
	router.POST("/api/attendance/mark", api.AttendanceMark)
	router.GET("/api/attendance/stats", api.AttendanceStats)
	router.GET("/api/identity/status", api.IdentityStatus)
	router.POST("/api/engagement/action", api.EngagementTrackAction)
	router.GET("/api/status", api.Status)
	return router
}

func readyService(gallery *faces.Gallery) *recognition.Service {
	service := recognition.NewService()
	service.InitWith(fixedExtractor{}, gallery)
	return service
}

func snapshotRequest(t *testing.T) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "snapshot.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(part, image.NewRGBA(image.Rect(0, 0, 32, 32)), nil); err != nil {
		t.Fatal(err)
	}
	writer.Close()
	req := httptest.NewRequest("POST", "/api/recognize", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestRecognizeNotReady(t *testing.T) {
	router := setupRouter(t, recognition.NewService())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, snapshotRequest(t))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 while loading", w.Code)
	}
}

func TestRecognizeMissingImage(t *testing.T) {
	gallery := faces.NewGallery(2)
	gallery.Add("alice", faces.Descriptor{})
	router := setupRouter(t, readyService(gallery))

	req := httptest.NewRequest("POST", "/api/recognize", strings.NewReader(""))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without an image", w.Code)
	}
}

func TestRecognizeAcceptedAndDuplicate(t *testing.T) {
	gallery := faces.NewGallery(2)
	gallery.Add("alice", faces.Descriptor{}) // matches the zero descriptor exactly
	router := setupRouter(t, readyService(gallery))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, snapshotRequest(t))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Identity != "alice" {
		t.Errorf("response = %+v, want success for alice", resp)
	}

	// Same day again: still 200, but the dedup message
	w = httptest.NewRecorder()
	router.ServeHTTP(w, snapshotRequest(t))
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate status = %d, want 200", w.Code)
	}
	var count int64
	db.Instance.Model(&models.AttendanceRecord{}).Count(&count)
	if count != 1 {
		t.Errorf("records = %d, want 1 after a duplicate check-in", count)
	}
}

func TestRecognizeRejected(t *testing.T) {
	gallery := faces.NewGallery(2)
	far := faces.Descriptor{}
	far[0] = 2.0
	gallery.Add("alice", far)
	router := setupRouter(t, readyService(gallery))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, snapshotRequest(t))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for an unrecognized face", w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.Distance == nil {
		t.Errorf("response = %+v, want failure carrying the distance", resp)
	}
}

func TestAttendanceMarkManual(t *testing.T) {
	router := setupRouter(t, recognition.NewService())

	body := `{"identity":"bob","confidence":1}`
	req := httptest.NewRequest("POST", "/api/attendance/mark", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest("POST", "/api/attendance/mark", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status without identity = %d, want 400", w.Code)
	}
}

func TestIdentityStatus(t *testing.T) {
	gallery := faces.NewGallery(2)
	gallery.Add("alice", faces.Descriptor{})
	router := setupRouter(t, readyService(gallery))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/identity/status?identity=alice", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		IsRegistered bool `json:"is_registered"`
		FaceCount    int  `json:"face_count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.IsRegistered || resp.FaceCount != 1 {
		t.Errorf("response = %+v, want registered with 1 sample", resp)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/identity/status", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status without identity = %d, want 400", w.Code)
	}
}

func TestEngagementActionValidation(t *testing.T) {
	router := setupRouter(t, recognition.NewService())

	req := httptest.NewRequest("POST", "/api/engagement/action", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status without action = %d, want 400", w.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	gallery := faces.NewGallery(2)
	gallery.Add("alice", faces.Descriptor{})
	router := setupRouter(t, readyService(gallery))

	// A configured archive bucket shows up in the payload with its free space
	config.ARCHIVE_SNAPSHOTS = true
	config.ARCHIVE_DIR = filepath.Join(t.TempDir(), "archive")
	defer func() { config.ARCHIVE_SNAPSHOTS = false }()
	if err := db.Instance.AutoMigrate(&storage.Bucket{}); err != nil {
		t.Fatal(err)
	}
	db.Instance.Where("1 = 1").Delete(&storage.Bucket{})
	storage.Init()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		State   string `json:"state"`
		Ready   bool   `json:"ready"`
		Archive *struct {
			Bucket    string `json:"bucket"`
			FreeBytes uint64 `json:"free_bytes"`
		} `json:"archive"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Ready || resp.State != "ready" {
		t.Errorf("response = %+v, want ready state", resp)
	}
	if resp.Archive == nil {
		t.Fatal("archive bucket missing from the status payload")
	}
	if resp.Archive.Bucket != "archive" || resp.Archive.FreeBytes == 0 {
		t.Errorf("archive = %+v, want the disk bucket with non-zero free space", resp.Archive)
	}
}
