// Package metadata writes the capture time and caption reported by the
// photo index into the EXIF block of downloaded JPEG files.
//
// Only JPEG containers are supported. Anything else yields a
// *errors.MetadataError and the file is left exactly as downloaded.
package metadata
