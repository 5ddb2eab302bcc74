package faces

import (
	"errors"
	"image"

	"attendance/utils"
)

// DescriptorSize is fixed by the dlib face recognition model
const DescriptorSize = 128

type Descriptor [DescriptorSize]float64

// UnknownLabel is reported when no gallery identity matches
const UnknownLabel = "unknown"

var (
	// ErrNoFace means the image was processed fine but contained no detectable face.
	// Distinct from hard extraction failures (corrupt image, model unavailable)
	ErrNoFace = errors.New("no face detected in image")
)

// Extractor produces the primary face descriptor for an image on disk.
// Implementations must return ErrNoFace for the zero-face outcome
type Extractor interface {
	Extract(path string) (Descriptor, image.Rectangle, error)
}

type MatchResult struct {
	Label    string
	Distance float64
	Accepted bool
}

func (d *Descriptor) ToBytes() []byte {
	return utils.Float64ArrayToByteArray(d[:])
}

// DescriptorFromBytes decodes a stored descriptor blob.
// Returns false when the blob doesn't hold exactly DescriptorSize values
func DescriptorFromBytes(b []byte) (Descriptor, bool) {
	values := utils.ByteArrayToFloat64Array(b)
	if len(values) != DescriptorSize {
		return Descriptor{}, false
	}
	var d Descriptor
	copy(d[:], values)
	return d, true
}
