package main

import (
	"log"
	"strings"
	"time"

	"attendance/config"
	"attendance/db"
	"attendance/engagement"
	"attendance/handlers"
	"attendance/models"
	"attendance/recognition"
	"attendance/storage"
	"attendance/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
)

const (
	sessionCookieName     = "token"
	sessionExpirationTime = 365 * 86400 // 1 year
)

func startScheduler(service *recognition.Service) {
	scheduler := gocron.NewScheduler(time.Local)
	if config.ABSENT_MARK_AT != "" {
		_, err := scheduler.Every(1).Day().At(config.ABSENT_MARK_AT).Do(func() {
			if !service.Ready() {
				return
			}
			day := models.DayOf(time.Now())
			count, err := models.MarkAbsentees(service.Gallery().Labels(), day)
			if err != nil {
				log.Printf("Absentee backfill failed for %s: %v", day, err)
				return
			}
			log.Printf("Marked %d absentees for %s", count, day)
		})
		if err != nil {
			log.Printf("Cannot schedule absentee backfill: %v", err)
		}
	}
	_, err := scheduler.Every(1).Hour().Do(func() {
		engagement.SweepStale(30 * time.Minute)
	})
	if err != nil {
		log.Printf("Cannot schedule engagement sweep: %v", err)
	}
	scheduler.StartAsync()
}

func main() {
	config.Load()
	db.Init()
	models.Init()
	storage.Init()

	service := recognition.NewService()
	go func() {
		if err := service.Init(); err != nil {
			log.Printf("Face recognition init failed: %v", err)
		}
	}()
	go service.StartArchiver()
	startScheduler(service)

	if !config.DEBUG_MODE {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(config.CORS_ORIGINS, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           30 * 24 * time.Hour,
	}))

	cookieStore := gormsessions.NewStore(db.Instance, true, []byte(config.SESSION_KEY))
	cookieStore.Options(sessions.Options{MaxAge: sessionExpirationTime})
	router.Use(sessions.Sessions(sessionCookieName, cookieStore))
	if !config.DEBUG_MODE {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws/"})))
	}
	router.Use((&utils.CacheRouter{CacheTime: utils.CacheNoCache}).Handler())

	api := handlers.NewAPI(service)
	// Recognition
	router.POST("/api/recognize", api.RequireReady, api.Recognize)
	// Attendance
	router.POST("/api/attendance/mark", api.AttendanceMark)
	router.GET("/api/attendance", handlers.PageViewMiddleware, api.AttendanceList)
	router.GET("/api/attendance/stats", handlers.PageViewMiddleware, api.AttendanceStats)
	router.GET("/api/attendance/today", handlers.PageViewMiddleware, api.AttendanceToday)
	router.GET("/api/attendance/history/:identity", handlers.PageViewMiddleware, api.AttendanceHistory)
	// Identity registration
	router.POST("/api/identity/register", api.RequireReady, api.IdentityRegister)
	router.GET("/api/identity/list", (&utils.CacheRouter{CacheTime: 60}).Handler(), api.IdentityList)
	router.GET("/api/identity/status", api.IdentityStatus)
	// Engagement
	router.POST("/api/engagement/track-action", api.EngagementTrackAction)
	router.GET("/api/engagement/my-engagement", api.EngagementHistory)
	router.POST("/api/engagement/end-session", api.EngagementEndSession)
	// Misc
	router.GET("/api/status", api.Status)
	router.GET("/ws/attendance", api.AttendanceFeed)

	var err error
	if config.TLS_DOMAINS != "" {
		err = autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		err = router.Run(config.BIND_ADDRESS)
	}
	log.Fatalf("Server stopped: %v", err)
}
