package model

import (
	"errors"
	"testing"
)

func TestNewImportReport(t *testing.T) {
	t.Parallel()

	r := NewImportReport("https://open.spotify.com/album/abc", "spotify")

	t.Run("initial status is pending", func(t *testing.T) {
		t.Parallel()
		if r.Status != StatusPending {
			t.Errorf("expected status %q, got %q", StatusPending, r.Status)
		}
	})

	t.Run("start time is set", func(t *testing.T) {
		t.Parallel()
		if r.DateStarted.IsZero() {
			t.Error("expected DateStarted to be set")
		}
	})

	t.Run("provider recorded", func(t *testing.T) {
		t.Parallel()
		if r.Provider != "spotify" {
			t.Errorf("expected provider 'spotify', got %q", r.Provider)
		}
	})
}

func TestImportReportFinish(t *testing.T) {
	t.Parallel()

	t.Run("pending becomes the given status", func(t *testing.T) {
		t.Parallel()
		r := NewImportReport("url", "deezer")
		r.Finish(StatusImported)

		if r.Status != StatusImported {
			t.Errorf("expected %q, got %q", StatusImported, r.Status)
		}
		if r.DateFinished.IsZero() {
			t.Error("expected DateFinished to be set")
		}
	})

	t.Run("terminal status is not overwritten", func(t *testing.T) {
		t.Parallel()
		r := NewImportReport("url", "deezer")
		r.Status = StatusAlreadyLinked
		r.Finish(StatusImported)

		if r.Status != StatusAlreadyLinked {
			t.Errorf("expected %q to survive Finish, got %q", StatusAlreadyLinked, r.Status)
		}
	})
}

func TestImportReportFail(t *testing.T) {
	t.Parallel()

	r := NewImportReport("url", "tidal")
	cause := errors.New("editor never loaded")
	r.Fail(cause)

	if r.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, r.Status)
	}
	if !errors.Is(r.Error, cause) {
		t.Error("expected Error to hold the cause")
	}
	if r.ErrorMessage != "editor never loaded" {
		t.Errorf("unexpected ErrorMessage: %q", r.ErrorMessage)
	}
}

func TestImportReportAddStepError(t *testing.T) {
	t.Parallel()

	r := NewImportReport("url", "bandcamp")
	r.AddStepError("isrc", errors.New("timeout"))
	r.AddStepError("isrc", nil) // nil errors are ignored

	if len(r.StepErrors) != 1 {
		t.Fatalf("expected 1 step error, got %d", len(r.StepErrors))
	}
	if r.StepErrors[0].Step != "isrc" || r.StepErrors[0].Message != "timeout" {
		t.Errorf("unexpected step error: %+v", r.StepErrors[0])
	}
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusImported, true},
		{StatusAlreadyLinked, true},
		{StatusSkipped, true},
		{StatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()
			if got := tt.status.Terminal(); got != tt.want {
				t.Errorf("Terminal(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestSessionReportCounts(t *testing.T) {
	t.Parallel()

	s := NewSessionReport()

	imported := NewImportReport("a", "spotify")
	imported.Finish(StatusImported)
	s.Add(imported)

	linked := NewImportReport("b", "deezer")
	linked.Status = StatusAlreadyLinked
	s.Add(linked)

	failed := NewImportReport("c", "tidal")
	failed.Fail(errors.New("boom"))
	s.Add(failed)

	counts := s.Counts()
	if counts[StatusImported] != 1 || counts[StatusAlreadyLinked] != 1 || counts[StatusFailed] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
	if s.Imported() != 1 {
		t.Errorf("Imported() = %d, want 1", s.Imported())
	}
	if s.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", s.Failed())
	}
}
