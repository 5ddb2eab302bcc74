package utils

import (
	"bytes"
	"encoding/binary"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"

	"github.com/nfnt/resize"
)

// Float64ArrayToByteArray encodes a descriptor as a little-endian blob for DB storage
func Float64ArrayToByteArray(fa []float64) []byte {
	buf := bytes.Buffer{}
	_ = binary.Write(&buf, binary.LittleEndian, fa)
	return buf.Bytes()
}

func ByteArrayToFloat64Array(b []byte) (result []float64) {
	for i := 0; i+8 <= len(b); i += 8 {
		result = append(result, math.Float64frombits(binary.LittleEndian.Uint64(b[i:i+8])))
	}
	return
}

type ImageDownscaled struct {
	Size int64
	NewX uint16
	NewY uint16
	OldX uint16
	OldY uint16
}

// DownscaleImage re-encodes the snapshot as a JPEG no larger than size on either side.
// Images already within bounds are still re-encoded so detection always gets a JPEG.
func DownscaleImage(size uint, reader io.Reader, writer io.Writer) (result ImageDownscaled, err error) {
	img, _, err := image.Decode(reader)
	if err != nil {
		return result, err
	}
	var newBuf bytes.Buffer
	newImage := resize.Thumbnail(size, size, img, resize.Lanczos3)
	if err = jpeg.Encode(&newBuf, newImage, &jpeg.Options{Quality: 90}); err != nil {
		return
	}
	imageRect := newImage.Bounds().Size()
	result.NewX = uint16(imageRect.X)
	result.NewY = uint16(imageRect.Y)

	imageRect = img.Bounds().Size()
	result.OldX = uint16(imageRect.X)
	result.OldY = uint16(imageRect.Y)

	result.Size, err = io.Copy(writer, &newBuf)
	return
}
