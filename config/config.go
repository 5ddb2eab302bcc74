package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	BIND_ADDRESS = "0.0.0.0:8080"
	TLS_DOMAINS  = "" // e.g. "example.com,example2.com"
	CORS_ORIGINS = "*"
	DEBUG_MODE   = true

	MYSQL_DSN   = ""              // MySQL will be used if this is set
	SQLITE_FILE = "attendance.db" // SQLite will be used if MYSQL_DSN is not configured
	SESSION_KEY = "attendance-session-key"

	TMP_DIR            = "/tmp"
	UPLOAD_DIR         = "" // Defaults to TMP_DIR if empty
	MODELS_DIR         = "models"
	LABELED_IMAGES_DIR = "labeled_images"

	// Face matching
	FACE_DISTANCE_THRESHOLD    = 0.6 // Lower is a stricter match
	MAX_DESCRIPTORS_PER_PERSON = 2
	FACE_MIN_CONFIDENCE        = 0.5 // Accepted for compatibility; dlib's detector has no tunable score
	MAX_IMAGE_SIZE             = 800 // Snapshots are downscaled to this before detection
	DETECT_TIMEOUT             = 30 * time.Second
	MATCH_TIMEOUT              = 10 * time.Second // Accepted for compatibility; in-memory matching never approaches it

	// Attendance policies
	LATE_AFTER     = ""      // "HH:MM" server-local; empty means check-ins are never "late"
	ABSENT_MARK_AT = "23:55" // Daily absentee backfill time; empty disables the job

	ARCHIVE_SNAPSHOTS = false     // Keep accepted check-in snapshots in the archive bucket
	ARCHIVE_DIR       = "archive" // Used for creating the initial disk bucket
)

// Load reads the optional .env file and then the process environment.
// Called once from main, before anything else is initialised.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found, using environment variables only")
	}
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("CORS_ORIGINS", &CORS_ORIGINS)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("SESSION_KEY", &SESSION_KEY)
	readEnvString("TMP_DIR", &TMP_DIR)
	readEnvString("UPLOAD_DIR", &UPLOAD_DIR)
	readEnvString("MODELS_DIR", &MODELS_DIR)
	readEnvString("LABELED_IMAGES_DIR", &LABELED_IMAGES_DIR)
	readEnvFloat("FACE_DISTANCE_THRESHOLD", &FACE_DISTANCE_THRESHOLD)
	readEnvInt("MAX_DESCRIPTORS_PER_PERSON", &MAX_DESCRIPTORS_PER_PERSON)
	readEnvFloat("FACE_MIN_CONFIDENCE", &FACE_MIN_CONFIDENCE)
	readEnvInt("MAX_IMAGE_SIZE", &MAX_IMAGE_SIZE)
	readEnvDuration("DETECT_TIMEOUT", &DETECT_TIMEOUT)
	readEnvDuration("MATCH_TIMEOUT", &MATCH_TIMEOUT)
	readEnvString("LATE_AFTER", &LATE_AFTER)
	readEnvString("ABSENT_MARK_AT", &ABSENT_MARK_AT)
	readEnvBool("ARCHIVE_SNAPSHOTS", &ARCHIVE_SNAPSHOTS)
	readEnvString("ARCHIVE_DIR", &ARCHIVE_DIR)

	if UPLOAD_DIR == "" {
		UPLOAD_DIR = TMP_DIR
	}
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid value for %s: %s", name, v)
		return
	}
	*value = i
}

func readEnvFloat(name string, value *float64) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %s", name, v)
		return
	}
	*value = f
}

func readEnvDuration(name string, value *time.Duration) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid value for %s: %s", name, v)
		return
	}
	*value = d
}
