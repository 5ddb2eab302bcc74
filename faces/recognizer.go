package faces

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/Kagami/go-face"
)

// Recognizer wraps the dlib-backed go-face recognizer as an Extractor
type Recognizer struct {
	rec *face.Recognizer
}

func NewRecognizer(modelsDir string) (*Recognizer, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("loading face models from %s: %w", modelsDir, err)
	}
	return &Recognizer{rec: rec}, nil
}

func (r *Recognizer) Close() {
	r.rec.Close()
}

// Extract returns the descriptor of the largest detected face.
// The system is single-face-per-image; secondary faces are ignored
func (r *Recognizer) Extract(path string) (Descriptor, image.Rectangle, error) {
	found, err := r.rec.RecognizeFile(path)
	if err != nil {
		return Descriptor{}, image.Rectangle{}, fmt.Errorf("extracting faces from %s: %w", filepath.Base(path), err)
	}
	if len(found) == 0 {
		return Descriptor{}, image.Rectangle{}, ErrNoFace
	}
	best := found[0]
	for _, f := range found[1:] {
		if rectArea(f.Rectangle) > rectArea(best.Rectangle) {
			best = f
		}
	}
	var desc Descriptor
	for i, v := range best.Descriptor {
		desc[i] = float64(v)
	}
	return desc, best.Rectangle, nil
}

func rectArea(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
