package recognition

import (
	"errors"
	"log"
	"sync"

	"attendance/config"
	"attendance/faces"
	"attendance/models"
)

type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "uninitialized"
}

var (
	ErrNotReady    = errors.New("face recognition system not ready")
	ErrSampleLimit = errors.New("identity already has the maximum number of reference samples")
)

// dlib extraction is CPU-bound; keeping only a couple in flight leaves the
// request threads responsive
const maxParallelExtractions = 2

// Service owns the process-wide recognition state: the extractor, the
// reference gallery and the explicit lifecycle that replaces ad-hoc
// "loaded" flags. Request handlers consult it via injection, never globals
type Service struct {
	mutex   sync.RWMutex
	state   State
	initErr error

	extractor faces.Extractor
	gallery   *faces.Gallery

	extractSlots chan struct{}
	archive      chan archiveJob
}

func NewService() *Service {
	return &Service{
		state:        StateUninitialized,
		extractSlots: make(chan struct{}, maxParallelExtractions),
		archive:      make(chan archiveJob, 64),
	}
}

// Init loads the dlib models and the reference gallery, then merges the
// registered samples from the database. Blocking - run from a goroutine in
// main; requests arriving meanwhile fail fast with NotReady
func (s *Service) Init() error {
	s.setState(StateLoading, nil)

	recognizer, err := faces.NewRecognizer(config.MODELS_DIR)
	if err != nil {
		s.setState(StateFailed, err)
		return err
	}
	gallery, err := faces.LoadGallery(recognizer, config.LABELED_IMAGES_DIR, config.MAX_DESCRIPTORS_PER_PERSON)
	if err != nil {
		s.setState(StateFailed, err)
		return err
	}
	s.mergeSavedSamples(gallery)

	s.mutex.Lock()
	s.extractor = recognizer
	s.gallery = gallery
	s.state = StateReady
	s.initErr = nil
	s.mutex.Unlock()
	log.Print("Face recognition system ready")
	return nil
}

// InitWith wires a prepared extractor and gallery - used by tests and by
// deployments that split extraction into its own process
func (s *Service) InitWith(extractor faces.Extractor, gallery *faces.Gallery) {
	s.mutex.Lock()
	s.extractor = extractor
	s.gallery = gallery
	s.state = StateReady
	s.initErr = nil
	s.mutex.Unlock()
}

func (s *Service) mergeSavedSamples(gallery *faces.Gallery) {
	samples, err := models.LoadFaceSamples()
	if err != nil {
		log.Printf("Cannot load registered face samples: %v", err)
		return
	}
	added := 0
	for _, sample := range samples {
		desc, ok := faces.DescriptorFromBytes(sample.Descriptor)
		if !ok {
			log.Printf("Malformed descriptor blob for sample %d (%s), skipping", sample.ID, sample.Identity)
			continue
		}
		if gallery.Add(sample.Identity, desc) {
			added++
		}
	}
	if added > 0 {
		log.Printf("Merged %d registered face samples into the gallery", added)
	}
}

func (s *Service) setState(state State, err error) {
	s.mutex.Lock()
	s.state = state
	s.initErr = err
	s.mutex.Unlock()
}

func (s *Service) State() State {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state
}

func (s *Service) Err() error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.initErr
}

func (s *Service) Ready() bool {
	return s.State() == StateReady
}

func (s *Service) Gallery() *faces.Gallery {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.gallery
}

func (s *Service) Extractor() faces.Extractor {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.extractor
}
