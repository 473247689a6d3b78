package metadata

import (
	"fmt"
	"strings"
	"time"

	exif "github.com/dsoprea/go-exif/v3"
)

// Info is the subset of EXIF that procaredl writes
type Info struct {
	// DateTime and DateTimeOriginal are wall-clock times in UTC location
	DateTime         time.Time
	DateTimeOriginal time.Time
	Description      string
}

// Read extracts the tags written by Writer from an image file
func Read(path string) (*Info, error) {
	raw, err := exif.SearchFileAndExtractExif(path)
	if err != nil {
		return nil, fmt.Errorf("failed to find EXIF in %s: %w", path, err)
	}

	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF: %w", err)
	}

	info := &Info{}
	for _, tag := range tags {
		value, ok := tag.Value.(string)
		if !ok {
			continue
		}
		switch tag.TagName {
		case "DateTime":
			info.DateTime = parseTimestamp(value)
		case "DateTimeOriginal":
			info.DateTimeOriginal = parseTimestamp(value)
		case "ImageDescription":
			info.Description = value
		}
	}
	return info, nil
}

func parseTimestamp(value string) time.Time {
	t, err := time.Parse(TimestampLayout, strings.TrimRight(value, "\x00 "))
	if err != nil {
		return time.Time{}
	}
	return t
}
