package recognition

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"attendance/config"
	"attendance/faces"
	"attendance/models"
)

type Code int

const (
	Recognized Code = iota
	AlreadyMarked
	NoFaceDetected
	NotRecognized
	ExtractionError
	PersistenceError
	NotReady
)

// Outcome is the structured result of one pipeline run. Confidence is the
// presentation convention 1-distance for accepted matches; rejected matches
// report the raw distance instead
type Outcome struct {
	Code       Code
	Identity   string
	Confidence float64
	Distance   float64
	Record     *models.AttendanceRecord
	Err        error
}

// Process runs one recognition request through
// extraction -> matching -> dedup -> recording.
// The temporary upload is removed on every exit path
func (s *Service) Process(imagePath string) Outcome {
	defer func() {
		if err := os.Remove(imagePath); err != nil && !os.IsNotExist(err) {
			log.Printf("Cannot remove temp upload %s: %v", imagePath, err)
		}
	}()

	if !s.Ready() {
		return Outcome{Code: NotReady, Err: s.Err()}
	}

	desc, err := s.extractWithTimeout(imagePath)
	if errors.Is(err, faces.ErrNoFace) {
		return Outcome{Code: NoFaceDetected}
	}
	if err != nil {
		return Outcome{Code: ExtractionError, Err: err}
	}

	match := faces.FindBestMatch(desc, s.Gallery(), config.FACE_DISTANCE_THRESHOLD)
	if !match.Accepted {
		return Outcome{Code: NotRecognized, Distance: match.Distance}
	}
	confidence := 1 - match.Distance

	rec, already, err := models.MarkAttendance(match.Label, confidence, models.VerificationFace)
	if err != nil {
		return Outcome{Code: PersistenceError, Identity: match.Label, Err: err}
	}
	if already {
		return Outcome{Code: AlreadyMarked, Identity: match.Label, Confidence: confidence, Record: &rec}
	}
	if config.ARCHIVE_SNAPSHOTS {
		s.queueArchive(imagePath, rec)
	}
	return Outcome{Code: Recognized, Identity: match.Label, Confidence: confidence, Record: &rec}
}

// extractWithTimeout serialises extraction through the bounded worker slots
// and maps an overrun of DETECT_TIMEOUT to a plain extraction failure -
// never a partial record
func (s *Service) extractWithTimeout(path string) (faces.Descriptor, error) {
	s.extractSlots <- struct{}{}

	ctx, cancel := context.WithTimeout(context.Background(), config.DETECT_TIMEOUT)
	defer cancel()

	type extractResult struct {
		desc faces.Descriptor
		err  error
	}
	done := make(chan extractResult, 1)
	go func() {
		desc, _, err := s.Extractor().Extract(path)
		// The slot is freed only when dlib actually returns; a timed-out
		// request must not let a new extraction start on top of this one
		<-s.extractSlots
		done <- extractResult{desc, err}
	}()
	select {
	case r := <-done:
		return r.desc, r.err
	case <-ctx.Done():
		return faces.Descriptor{}, fmt.Errorf("face extraction timed out after %v", config.DETECT_TIMEOUT)
	}
}

// RegisterSample extracts a reference descriptor from imagePath and attaches
// it to the identity, both in the database and in the live gallery.
// The temp image is removed on every exit path
func (s *Service) RegisterSample(identity, imagePath string) (faces.Descriptor, error) {
	defer func() {
		if err := os.Remove(imagePath); err != nil && !os.IsNotExist(err) {
			log.Printf("Cannot remove temp upload %s: %v", imagePath, err)
		}
	}()

	if !s.Ready() {
		return faces.Descriptor{}, ErrNotReady
	}
	gallery := s.Gallery()
	if gallery.CountFor(identity) >= config.MAX_DESCRIPTORS_PER_PERSON {
		return faces.Descriptor{}, ErrSampleLimit
	}
	desc, err := s.extractWithTimeout(imagePath)
	if err != nil {
		return faces.Descriptor{}, err
	}
	// Persist first: the live gallery must never hold a reference the
	// database doesn't, or the identity matches until restart and then stops
	sample, err := models.SaveFaceSample(identity, desc.ToBytes())
	if err != nil {
		return faces.Descriptor{}, err
	}
	if !gallery.Add(identity, desc) {
		// Lost a race to the cap; drop the row we just wrote
		if delErr := models.DeleteFaceSample(sample.ID); delErr != nil {
			log.Printf("Cannot remove surplus face sample %d: %v", sample.ID, delErr)
		}
		return faces.Descriptor{}, ErrSampleLimit
	}
	return desc, nil
}
