package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"

	errs "procaredl/pkg/errors"
)

// TimestampLayout is the EXIF date/time representation
const TimestampLayout = "2006:01:02 15:04:05"

// DefaultMaxCaptionBytes caps ImageDescription when no limit is configured
const DefaultMaxCaptionBytes = 1024

// jpegSOI is the start-of-image marker every JPEG begins with
var jpegSOI = []byte{0xff, 0xd8}

const (
	rootIfdPath = "IFD0"
	exifIfdPath = "IFD/Exif"
)

// Writer embeds capture time and caption into JPEG files in place. Pixel
// data and unrelated segments are carried over untouched.
type Writer struct {
	maxCaptionBytes int
}

// NewWriter returns a Writer that truncates captions to maxCaptionBytes
func NewWriter(maxCaptionBytes int) *Writer {
	if maxCaptionBytes <= 0 {
		maxCaptionBytes = DefaultMaxCaptionBytes
	}
	return &Writer{maxCaptionBytes: maxCaptionBytes}
}

// Write sets IFD0 DateTime and Exif DateTimeOriginal to capturedAt (in its
// own location) and IFD0 ImageDescription to caption. A zero capturedAt or
// empty caption leaves the matching tags alone. Failures are returned as
// *errors.MetadataError and leave the file as it was.
func (w *Writer) Write(path string, capturedAt time.Time, caption string) error {
	caption = TruncateCaption(strings.ReplaceAll(caption, "\x00", ""), w.maxCaptionBytes)
	if capturedAt.IsZero() && caption == "" {
		return nil
	}

	updated, err := w.rewrite(path, capturedAt, caption)
	if err != nil {
		return &errs.MetadataError{Path: path, Err: err}
	}
	if err := replaceFile(path, updated); err != nil {
		return &errs.MetadataError{Path: path, Err: err}
	}
	return nil
}

func (w *Writer) rewrite(path string, capturedAt time.Time, caption string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, jpegSOI) {
		return nil, errors.New("not a JPEG file")
	}

	jmp := jpegstructure.NewJpegMediaParser()
	mc, err := jmp.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JPEG: %w", err)
	}
	sl, ok := mc.(*jpegstructure.SegmentList)
	if !ok {
		return nil, fmt.Errorf("unexpected media context %T", mc)
	}

	rootIb, err := rootBuilder(sl)
	if err != nil {
		return nil, fmt.Errorf("failed to build EXIF: %w", err)
	}

	ifd0, err := exif.GetOrCreateIbFromRootIb(rootIb, rootIfdPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open IFD0: %w", err)
	}

	if !capturedAt.IsZero() {
		stamp := capturedAt.Format(TimestampLayout)
		if err := ifd0.SetStandardWithName("DateTime", stamp); err != nil {
			return nil, fmt.Errorf("failed to set DateTime: %w", err)
		}

		exifIb, err := exif.GetOrCreateIbFromRootIb(rootIb, exifIfdPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open Exif IFD: %w", err)
		}
		if err := exifIb.SetStandardWithName("DateTimeOriginal", stamp); err != nil {
			return nil, fmt.Errorf("failed to set DateTimeOriginal: %w", err)
		}
	}

	if caption != "" {
		if err := ifd0.SetStandardWithName("ImageDescription", caption); err != nil {
			return nil, fmt.Errorf("failed to set ImageDescription: %w", err)
		}
	}

	if err := sl.SetExif(rootIb); err != nil {
		return nil, fmt.Errorf("failed to attach EXIF: %w", err)
	}

	var buf bytes.Buffer
	if err := sl.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// rootBuilder returns a builder seeded with the file's existing EXIF, or an
// empty one when the file has none.
func rootBuilder(sl *jpegstructure.SegmentList) (*exif.IfdBuilder, error) {
	if _, _, err := sl.FindExif(); err != nil {
		if !errors.Is(err, exif.ErrNoExif) {
			return nil, err
		}

		im, err := exifcommon.NewIfdMappingWithStandard()
		if err != nil {
			return nil, err
		}
		ti := exif.NewTagIndex()
		return exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder), nil
	}
	return sl.ConstructExifBuilder()
}

// replaceFile swaps data in for path via a sibling temp file and rename
func replaceFile(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpPath, info.Mode().Perm())
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

// TruncateCaption shortens s to at most max bytes without splitting a
// UTF-8 sequence.
func TruncateCaption(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
