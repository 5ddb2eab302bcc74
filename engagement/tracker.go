// Package engagement tracks dashboard usage as a best-effort side channel.
// Nothing here may affect a request's outcome: every failure is logged and
// swallowed.
package engagement

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"attendance/models"

	cmap "github.com/orcaman/concurrent-map/v2"
)

type actionEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

type activeSession struct {
	mutex    sync.Mutex
	model    models.EngagementSession
	actions  []actionEvent
	lastSeen time.Time
}

var active = cmap.New[*activeSession]()

// getOrCreate is atomic: a concurrent EndSession popping the entry between a
// lookup and an insert must never leave the caller with a nil session
func getOrCreate(sessionID, userAgent string) *activeSession {
	return active.Upsert(sessionID, nil, func(exist bool, valueInMap, _ *activeSession) *activeSession {
		if exist {
			return valueInMap
		}
		return &activeSession{
			model: models.EngagementSession{
				SessionID:    sessionID,
				SessionStart: time.Now().Unix(),
				UserAgent:    userAgent,
			},
			lastSeen: time.Now(),
		}
	})
}

// RecordPageView counts one hit for the session and refreshes its active
// duration
func RecordPageView(sessionID, userAgent string) {
	session := getOrCreate(sessionID, userAgent)
	session.mutex.Lock()
	session.model.PageViews++
	session.model.ActiveDuration = time.Now().Unix() - session.model.SessionStart
	session.lastSeen = time.Now()
	session.mutex.Unlock()
}

// RecordAction appends a typed action event ("face_auth", "stat_card_view"...)
func RecordAction(sessionID, actionType string) {
	session := getOrCreate(sessionID, "")
	session.mutex.Lock()
	session.actions = append(session.actions, actionEvent{Type: actionType, Timestamp: time.Now().Unix()})
	if actionType == "face_auth" {
		session.model.FaceAuthAttempts++
	}
	session.lastSeen = time.Now()
	session.mutex.Unlock()
}

func (s *activeSession) flush(end bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	now := time.Now().Unix()
	s.model.ActiveDuration = now - s.model.SessionStart
	if end {
		s.model.SessionEnd = now
	}
	if data, err := json.Marshal(s.actions); err == nil {
		s.model.Actions = string(data)
	}
	return models.SaveEngagementSession(&s.model)
}

// EndSession closes and persists the session. Missing sessions are fine -
// the client may have never interacted with a tracked page
func EndSession(sessionID string) {
	session, ok := active.Pop(sessionID)
	if !ok {
		return
	}
	if err := session.flush(true); err != nil {
		log.Printf("Engagement flush for %s failed: %v", sessionID, err)
	}
}

// SweepStale persists and drops sessions idle for longer than maxIdle.
// Called from the scheduler
func SweepStale(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)
	for entry := range active.IterBuffered() {
		entry.Val.mutex.Lock()
		stale := entry.Val.lastSeen.Before(cutoff)
		entry.Val.mutex.Unlock()
		if !stale {
			continue
		}
		if session, ok := active.Pop(entry.Key); ok {
			if err := session.flush(true); err != nil {
				log.Printf("Engagement sweep flush for %s failed: %v", entry.Key, err)
			}
		}
	}
}

// History returns the persisted sessions for one client, including the live
// one if it has anything to show
func History(sessionID string, limit int) []models.EngagementSession {
	if session, ok := active.Get(sessionID); ok {
		if err := session.flush(false); err != nil {
			log.Printf("Engagement flush for %s failed: %v", sessionID, err)
		}
	}
	result, err := models.GetEngagementSessions(sessionID, limit)
	if err != nil {
		log.Printf("Engagement history for %s failed: %v", sessionID, err)
		return []models.EngagementSession{}
	}
	return result
}
