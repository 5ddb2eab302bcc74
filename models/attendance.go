package models

import (
	"errors"
	"log"
	"math"
	"time"

	"attendance/config"
	"attendance/db"

	"gorm.io/gorm"
)

const DayFormat = "2006-01-02"

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"

	VerificationFace   = "face"
	VerificationManual = "manual"
	VerificationSystem = "system"
)

// AttendanceRecord is append-only. The unique index on (identity, day) is the
// storage-level backstop for the one-record-per-day invariant; concurrent
// marks that pass the existence check race on it and the loser is
// reinterpreted as already-marked
type AttendanceRecord struct {
	ID                 uint64  `gorm:"primaryKey" json:"id"`
	Identity           string  `gorm:"type:varchar(300);index:uniq_identity_day,unique;priority:1" json:"identity"`
	Day                string  `gorm:"type:varchar(10);index:uniq_identity_day,unique;priority:2" json:"day"`
	Timestamp          int64   `json:"timestamp"`
	Status             string  `gorm:"type:varchar(10)" json:"status"`
	VerificationMethod string  `gorm:"type:varchar(20)" json:"verificationMethod"`
	Confidence         float64 `json:"confidence"`
}

// DayOf returns the calendar-day key in server-local time
func DayOf(t time.Time) string {
	return t.Local().Format(DayFormat)
}

// statusFor applies the optional late cutoff ("HH:MM", server-local)
func statusFor(t time.Time) string {
	if config.LATE_AFTER == "" {
		return StatusPresent
	}
	cutoff, err := time.ParseInLocation("15:04", config.LATE_AFTER, t.Location())
	if err != nil {
		log.Printf("Invalid LATE_AFTER value %q: %v", config.LATE_AFTER, err)
		return StatusPresent
	}
	cutoff = time.Date(t.Year(), t.Month(), t.Day(), cutoff.Hour(), cutoff.Minute(), 0, 0, t.Location())
	if t.After(cutoff) {
		return StatusLate
	}
	return StatusPresent
}

// MarkAttendance records a check-in for identity, at most once per calendar
// day. A repeat same-day call returns the existing record with already=true -
// a business outcome, not an error
func MarkAttendance(identity string, confidence float64, method string) (rec AttendanceRecord, already bool, err error) {
	now := time.Now()
	day := DayOf(now)

	var existing AttendanceRecord
	err = db.Instance.Where("identity = ? AND day = ?", identity, day).First(&existing).Error
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return AttendanceRecord{}, false, err
	}

	rec = AttendanceRecord{
		Identity:           identity,
		Day:                day,
		Timestamp:          now.Unix(),
		Status:             statusFor(now),
		VerificationMethod: method,
		Confidence:         confidence,
	}
	if createErr := db.Instance.Create(&rec).Error; createErr != nil {
		// The unique index rejects the second of two concurrent marks;
		// re-read to tell that apart from a real write failure
		if db.Instance.Where("identity = ? AND day = ?", identity, day).First(&existing).Error == nil {
			return existing, true, nil
		}
		return AttendanceRecord{}, false, createErr
	}
	return rec, false, nil
}

type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

type AttendanceStats struct {
	TotalIdentities  int64        `json:"totalIdentities"`
	PresentToday     int64        `json:"presentToday"`
	AttendanceRate   int          `json:"attendanceRate"`
	WeeklyAttendance []DailyCount `json:"weeklyAttendance"`
}

// GetStats aggregates the ledger: identities ever seen, today's check-ins,
// the rounded percentage of the two, and per-day counts for the last 7 days.
// Absent backfill rows never count as a check-in
func GetStats() (stats AttendanceStats, err error) {
	if err = db.Instance.Model(&AttendanceRecord{}).
		Distinct("identity").Count(&stats.TotalIdentities).Error; err != nil {
		return
	}
	today := DayOf(time.Now())
	if err = db.Instance.Model(&AttendanceRecord{}).
		Where("day = ? AND status != ?", today, StatusAbsent).
		Count(&stats.PresentToday).Error; err != nil {
		return
	}
	if stats.TotalIdentities > 0 {
		stats.AttendanceRate = int(math.Round(float64(stats.PresentToday) / float64(stats.TotalIdentities) * 100))
	}
	weekAgo := DayOf(time.Now().AddDate(0, 0, -6))
	rows, err := db.Instance.Model(&AttendanceRecord{}).
		Select("day, COUNT(*)").
		Where("day >= ? AND status != ?", weekAgo, StatusAbsent).
		Group("day").Order("day ASC").Rows()
	if err != nil {
		return
	}
	defer rows.Close()
	stats.WeeklyAttendance = []DailyCount{}
	for rows.Next() {
		dc := DailyCount{}
		if err = rows.Scan(&dc.Day, &dc.Count); err != nil {
			return
		}
		stats.WeeklyAttendance = append(stats.WeeklyAttendance, dc)
	}
	return stats, nil
}

// GetHistory returns up to limit records for one identity, most recent first
func GetHistory(identity string, limit int) (result []AttendanceRecord, err error) {
	if limit <= 0 {
		limit = 30
	}
	err = db.Instance.Where("identity = ?", identity).
		Order("day DESC, timestamp DESC").Limit(limit).
		Find(&result).Error
	return
}

// ListRecent returns the newest records across all identities
func ListRecent(limit int) (result []AttendanceRecord, err error) {
	if limit <= 0 {
		limit = 50
	}
	err = db.Instance.Order("timestamp DESC").Limit(limit).Find(&result).Error
	return
}

// ListToday returns all of today's records
func ListToday() (result []AttendanceRecord, err error) {
	err = db.Instance.Where("day = ?", DayOf(time.Now())).
		Order("timestamp ASC").Find(&result).Error
	return
}

// MarkAbsentees backfills an "absent" record for every known identity with no
// record on the given day. Returns how many rows were inserted
func MarkAbsentees(identities []string, day string) (int, error) {
	inserted := 0
	for _, identity := range identities {
		var existing AttendanceRecord
		err := db.Instance.Where("identity = ? AND day = ?", identity, day).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return inserted, err
		}
		rec := AttendanceRecord{
			Identity:           identity,
			Day:                day,
			Timestamp:          time.Now().Unix(),
			Status:             StatusAbsent,
			VerificationMethod: VerificationSystem,
		}
		if err := db.Instance.Create(&rec).Error; err != nil {
			log.Printf("Absentee backfill for %s on %s failed: %v", identity, day, err)
			continue
		}
		inserted++
	}
	return inserted, nil
}
