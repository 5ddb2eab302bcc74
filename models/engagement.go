package models

import (
	"attendance/db"
)

// EngagementSession is the persisted form of one dashboard session.
// Populated by the best-effort engagement tracker; nothing in the
// recognition flow depends on these rows
type EngagementSession struct {
	ID               uint64 `gorm:"primaryKey" json:"id"`
	SessionID        string `gorm:"type:varchar(64);index" json:"sessionId"`
	SessionStart     int64  `json:"sessionStart"`
	SessionEnd       int64  `json:"sessionEnd"` // 0 while the session is open
	ActiveDuration   int64  `json:"activeDuration"`
	PageViews        int    `json:"pageViews"`
	Actions          string `gorm:"type:text" json:"actions"` // JSON array of {type, timestamp}
	FaceAuthAttempts int    `json:"faceAuthAttempts"`
	UserAgent        string `gorm:"type:varchar(300)" json:"-"`
}

func SaveEngagementSession(session *EngagementSession) error {
	if session.ID == 0 {
		return db.Instance.Create(session).Error
	}
	return db.Instance.Save(session).Error
}

func GetEngagementSessions(sessionID string, limit int) (result []EngagementSession, err error) {
	if limit <= 0 {
		limit = 10
	}
	err = db.Instance.Where("session_id = ?", sessionID).
		Order("session_start DESC").Limit(limit).
		Find(&result).Error
	return
}
