package config

import "errors"

// Configuration validation errors returned by Config.Validate().
//
// Design decision: package-level sentinel errors so callers can use
// errors.Is() while the messages stay human-readable. errors.New()
// rather than fmt.Errorf() because no dynamic values are needed.
var (
	// ErrNoTargets is returned when no album URL is given either as an
	// argument or via --list.
	ErrNoTargets = errors.New("no album URLs specified: pass URLs as arguments or use --list")

	// ErrInvalidWaitTimeout is returned when the element wait timeout
	// is not positive.
	ErrInvalidWaitTimeout = errors.New("invalid wait timeout: must be positive")

	// ErrInvalidEditTimeout is returned when the edit submission
	// timeout is not positive.
	ErrInvalidEditTimeout = errors.New("invalid edit timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrHeadlessNeedsNoReview is returned when --headless is combined
	// with the manual review pause. A review pause with no visible
	// browser would block forever with nothing to review.
	ErrHeadlessNeedsNoReview = errors.New("--headless requires --no-review: a hidden browser cannot be reviewed manually")
)
