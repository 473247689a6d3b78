package storage

import (
	"encoding/hex"
	"net/url"
	"path"
	"strings"

	"github.com/zeebo/blake3"
)

// DefaultExtension is used when a name carries no extension at all
const DefaultExtension = "jpg"

// NormalizeFilename repairs names where the upstream encoded the extension
// after an underscore instead of a period ("image123_jpg" becomes
// "image123.jpg"). Names that already contain a period are returned as is.
// A name without underscore gets DefaultExtension. The result always
// contains at least one period, so the function is idempotent.
func NormalizeFilename(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	i := strings.LastIndex(name, "_")
	if i < 0 {
		return name + "." + DefaultExtension
	}
	return name[:i] + "." + name[i+1:]
}

// FilenameFromURL derives the local filename for a photo URL: the last path
// segment, normalized. When no usable segment exists the name falls back to
// a BLAKE3 digest of the URL, which is stable across runs and machines.
// Segments starting with a period, such as "..", also fall back.
func FilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err == nil {
		base := path.Base(u.Path)
		// dot names would resolve to a directory or look like scratch files
		if base != "" && base != "/" && !strings.HasPrefix(base, ".") && !strings.ContainsAny(base, `\:`) {
			return NormalizeFilename(base)
		}
	}
	return FallbackFilename(rawURL)
}

// FallbackFilename returns "procare_<digest>.jpg" for rawURL
func FallbackFilename(rawURL string) string {
	sum := blake3.Sum256([]byte(rawURL))
	return "procare_" + hex.EncodeToString(sum[:16]) + "." + DefaultExtension
}
