// Image file loading and saving through OpenCV
package io

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"shakalnost/internal/core"
)

// ErrUnsupportedFormat is returned for file extensions OpenCV is not asked to handle.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// ImageLoader reads and writes image files as RGBA pixel buffers.
type ImageLoader struct {
	logger logrus.FieldLogger

	// JPEGQuality is used when saving .jpg/.jpeg files.
	JPEGQuality int
}

func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = l
	}
	return &ImageLoader{logger: logger, JPEGQuality: 95}
}

// Load decodes the file at path into a 4-channel buffer.
func (il *ImageLoader) Load(path string) (core.PixelBuffer, error) {
	il.logger.WithField("filepath", path).Debug("Loading image")

	if !IsSupported(path) {
		return core.PixelBuffer{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return core.PixelBuffer{}, fmt.Errorf("failed to load image: %s", path)
	}

	buf, err := matToBuffer(mat)
	if err != nil {
		return core.PixelBuffer{}, fmt.Errorf("failed to convert %s: %w", path, err)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    buf.Width,
		"height":   buf.Height,
	}).Info("Image loaded successfully")
	return buf, nil
}

// Save encodes img to path; the extension picks the format.
func (il *ImageLoader) Save(img core.PixelBuffer, path string) error {
	il.logger.WithField("filepath", path).Debug("Saving image")

	if err := img.Validate(); err != nil {
		return fmt.Errorf("cannot save image: %w", err)
	}
	if !IsSupported(path) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	keepAlpha := ext == ".png" || ext == ".tif" || ext == ".tiff"
	mat, err := bufferToBGR(img, keepAlpha)
	if err != nil {
		return fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	var ok bool
	if ext == ".jpg" || ext == ".jpeg" {
		ok = gocv.IMWriteWithParams(path, mat, []int{gocv.IMWriteJpegQuality, il.JPEGQuality})
	} else {
		ok = gocv.IMWrite(path, mat)
	}
	if !ok {
		return fmt.Errorf("failed to save image: %s", path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    img.Width,
		"height":   img.Height,
	}).Info("Image saved successfully")
	return nil
}

// IsSupported reports whether path has an extension the loader handles.
func IsSupported(path string) bool {
	return slices.Contains(supportedFormats, strings.ToLower(filepath.Ext(path)))
}

// SupportedFormats lists the handled extensions.
func SupportedFormats() []string {
	return slices.Clone(supportedFormats)
}

func matToBuffer(bgr gocv.Mat) (core.PixelBuffer, error) {
	rgba := gocv.NewMat()
	defer rgba.Close()
	if err := gocv.CvtColor(bgr, &rgba, gocv.ColorBGRToRGBA); err != nil {
		return core.PixelBuffer{}, err
	}

	buf := core.NewPixelBuffer(rgba.Cols(), rgba.Rows(), 4)
	data := rgba.ToBytes()
	if len(data) != len(buf.Pix) {
		return core.PixelBuffer{}, fmt.Errorf("unexpected sample count %d for %dx%d", len(data), buf.Width, buf.Height)
	}
	copy(buf.Pix, data)
	return buf, nil
}

func bufferToBGR(img core.PixelBuffer, keepAlpha bool) (gocv.Mat, error) {
	typ, code := gocv.MatTypeCV8UC4, gocv.ColorRGBAToBGR
	switch {
	case img.Channels == 4 && keepAlpha:
		code = gocv.ColorRGBAToBGRA
	case img.Channels == 3:
		typ, code = gocv.MatTypeCV8UC3, gocv.ColorRGBToBGR
	}

	src, err := gocv.NewMatFromBytes(img.Height, img.Width, typ, img.Pix)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer src.Close()

	dst := gocv.NewMat()
	if err := gocv.CvtColor(src, &dst, code); err != nil {
		dst.Close()
		return gocv.NewMat(), err
	}
	return dst, nil
}
