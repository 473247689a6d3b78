// Package storage maps photo URLs to local filenames and writes photos into
// the target directory.
//
// Deduplication is by existence only: a photo whose normalized filename is
// already present is skipped. Writes go through a hidden temporary file and
// a rename, so an interrupted run never leaves a truncated file under a
// final name.
package storage
