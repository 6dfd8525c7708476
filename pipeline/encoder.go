package pipeline

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

const (
	DataURLPrefix = "data:image/jpeg;base64,"

	// OpenCV's own default
	defaultJPEGQuality = 95
)

var (
	ErrEmptyFrame        = errors.New("empty frame")
	ErrUnsupportedLayout = errors.New("unsupported pixel layout")
)

// EncodeError reports a frame that could not be turned into a JPEG.
type EncodeError struct {
	Type gocv.MatType
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode frame (mat type %v): %v", e.Type, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// EncodeJPEG re-encodes an 8-bit gray, BGR or BGRA frame as JPEG.
func EncodeJPEG(mat gocv.Mat, quality int) ([]byte, error) {
	if mat.Empty() {
		return nil, &EncodeError{Err: ErrEmptyFrame}
	}

	switch mat.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
	default:
		return nil, &EncodeError{Type: mat.Type(), Err: ErrUnsupportedLayout}
	}

	if quality <= 0 || quality > 100 {
		quality = defaultJPEGQuality
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{int(gocv.IMWriteJpegQuality), quality})
	if err != nil {
		return nil, &EncodeError{Type: mat.Type(), Err: err}
	}
	defer buf.Close()

	return bytes.Clone(buf.GetBytes()), nil
}

// EncodeDataURL returns the frame as a self-contained JPEG data URL.
func EncodeDataURL(mat gocv.Mat, quality int) (string, error) {
	jpeg, err := EncodeJPEG(mat, quality)
	if err != nil {
		return "", err
	}
	return DataURLPrefix + base64.StdEncoding.EncodeToString(jpeg), nil
}
