package classifying

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gen2brain/heic"
)

const defaultImageMimeType = "image/jpeg"

// EncodedImage is an image together with its declared media type
type EncodedImage struct {
	MimeType string
	Data     []byte
}

// DataURL renders the image as a data URL, the form kept in history
func (i *EncodedImage) DataURL() string {
	return "data:" + i.MimeType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// ParseDataURL decodes a data URL. A bare base64 payload is accepted and
// assumed to be JPEG.
func ParseDataURL(s string) (*EncodedImage, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	mimeType := defaultImageMimeType
	payload := s
	if strings.HasPrefix(s, "data:") {
		header, data, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
		if !ok {
			return nil, fmt.Errorf("malformed data url")
		}
		if !strings.HasSuffix(header, ";base64") {
			return nil, fmt.Errorf("data url is not base64 encoded")
		}
		if mt := strings.TrimSuffix(header, ";base64"); mt != "" {
			mimeType = strings.ToLower(mt)
		}
		payload = data
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding image data: %w", err)
	}
	return &EncodedImage{MimeType: mimeType, Data: data}, nil
}

// DecodeUpload validates an uploaded file and turns it into an EncodedImage.
// Anything that is not an image fails with ErrInvalidFileType. HEIC/HEIF
// photos are converted to PNG since not every model accepts them.
func DecodeUpload(data []byte, contentType, filename string) (*EncodedImage, error) {
	mimeType := normalizeMimeType(contentType, filename, data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, ErrInvalidFileType
	}

	if isHEICFormat(data) || isHEICMimeType(mimeType) {
		pngData, err := heicToPNG(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFileType, err)
		}
		return &EncodedImage{MimeType: "image/png", Data: pngData}, nil
	}

	return &EncodedImage{MimeType: mimeType, Data: data}, nil
}

// normalizeMimeType picks the media type from the header, the file extension
// or the content itself, in that order
func normalizeMimeType(contentType, filename string, data []byte) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType != "" && mimeType != "application/octet-stream" {
		return mimeType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}

	if isHEICFormat(data) {
		return "image/heic"
	}
	return http.DetectContentType(data)
}

func heicToPNG(data []byte) ([]byte, error) {
	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEICFormat checks for an ftyp box with a HEIC-related brand
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
