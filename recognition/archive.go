package recognition

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"attendance/models"
	"attendance/storage"
)

type archiveJob struct {
	identity string
	day      string
	recordID uint64
	data     []byte
}

// queueArchive snapshots the upload bytes before Process deletes the temp
// file. The queue is bounded; when full the snapshot is dropped, never the
// attendance record
func (s *Service) queueArchive(imagePath string, rec models.AttendanceRecord) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		log.Printf("Cannot read snapshot for archiving: %v", err)
		return
	}
	job := archiveJob{
		identity: rec.Identity,
		day:      rec.Day,
		recordID: rec.ID,
		data:     data,
	}
	select {
	case s.archive <- job:
	default:
		log.Printf("Archive queue full, dropping snapshot for %s", rec.Identity)
	}
}

// StartArchiver consumes queued snapshots and writes them to the archive
// bucket. Best-effort: failures are logged and the job dropped
func (s *Service) StartArchiver() {
	for job := range s.archive {
		target := storage.GetDefaultStorage()
		if target == nil {
			log.Print("No archive bucket configured, dropping snapshot")
			continue
		}
		path := fmt.Sprintf("%s/%s-%d.jpg", job.identity, job.day, job.recordID)
		if _, err := target.Save(path, bytes.NewReader(job.data)); err != nil {
			log.Printf("Cannot archive snapshot %s: %v", path, err)
			continue
		}
		if err := target.UpdateRemoteFile(path, "image/jpeg"); err != nil {
			log.Printf("Cannot upload archived snapshot %s: %v", path, err)
			continue
		}
		target.ReleaseLocalFile(path)
	}
}
