// Package coverart selects and prepares the cover image uploaded to
// the Cover Art Archive after an import: it extracts candidate image
// URLs from Harmony's release page, downloads them concurrently, picks
// the largest by pixel area, and transcodes formats the archive
// rejects.
package coverart
