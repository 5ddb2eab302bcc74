package models

import (
	"log"

	"attendance/db"
)

func Init() {
	for _, model := range []interface{}{
		&AttendanceRecord{},
		&FaceSample{},
		&EngagementSession{},
	} {
		if err := db.Instance.AutoMigrate(model); err != nil {
			log.Fatalf("Auto-migrate error: %v", err)
		}
	}
}
