// Package imagemeta extracts EXIF capture metadata from uploaded photos.
// This is part of the platform layer and contains no business logic.
package imagemeta

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// CaptureInfo holds the EXIF fields relevant for lead attribution.
// All fields are optional; photos without EXIF data yield an empty value.
type CaptureInfo struct {
	CapturedAt *time.Time
	Latitude   *float64
	Longitude  *float64
	CameraMake string
}

// Extract decodes EXIF data from raw image bytes. It is best-effort:
// non-JPEG images and photos stripped of metadata return an empty CaptureInfo.
func Extract(data []byte) CaptureInfo {
	var info CaptureInfo

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return info
	}

	if tm, err := x.DateTime(); err == nil {
		info.CapturedAt = &tm
	}

	if lat, long, err := x.LatLong(); err == nil {
		info.Latitude = &lat
		info.Longitude = &long
	}

	if tag, err := x.Get(exif.Make); err == nil {
		if make, err := tag.StringVal(); err == nil {
			info.CameraMake = make
		}
	}

	return info
}
