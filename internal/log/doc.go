// Package log provides an slog handler that masks credentials before
// they reach any log output. The import flow drives MusicBrainz and
// MagicISRC login forms, so log attributes regularly sit one typo away
// from containing a password or a session cookie.
package log
