package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harmonize-mb/harmonize/internal/browser"
	"github.com/harmonize-mb/harmonize/internal/model"
)

// fakeStep is a controllable step for orchestration tests.
type fakeStep struct {
	name   string
	err    error
	onDo   func(job *Job)
	called bool
}

func (f *fakeStep) Name() string { return f.name }

func (f *fakeStep) Do(_ context.Context, job *Job) error {
	f.called = true
	if f.onDo != nil {
		f.onDo(job)
	}
	return f.err
}

func newTestJob() *Job {
	return NewJob(model.NewImportReport("https://open.spotify.com/album/x", "spotify"), nil)
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		mk := func(name string) *fakeStep {
			return &fakeStep{name: name, onDo: func(*Job) { order = append(order, name) }}
		}

		p := New()
		p.AddSteps(mk("first"), mk("second"), mk("third"))

		job := newTestJob()
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Join(order, ",") != "first,second,third" {
			t.Errorf("unexpected step order: %v", order)
		}
		if strings.Join(job.Report.PerformedSteps, ",") != "first,second,third" {
			t.Errorf("unexpected performed steps: %v", job.Report.PerformedSteps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		failing := &fakeStep{name: "failing", err: boom}
		after := &fakeStep{name: "after"}

		p := New()
		p.AddSteps(failing, after)

		job := newTestJob()
		err := p.Execute(context.Background(), job)
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if after.called {
			t.Error("step after failure should not run")
		}
		if job.Report.ErrorMessage != "boom" {
			t.Errorf("error not recorded in report: %q", job.Report.ErrorMessage)
		}
	})

	t.Run("continue on error runs remaining steps", func(t *testing.T) {
		t.Parallel()

		failing := &fakeStep{name: "failing", err: errors.New("boom")}
		after := &fakeStep{name: "after"}

		p := New(WithContinueOnError(true))
		p.AddSteps(failing, after)

		if err := p.Execute(context.Background(), newTestJob()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !after.called {
			t.Error("step after failure should run with continueOnError")
		}
	})

	t.Run("terminal status stops the pipeline without error", func(t *testing.T) {
		t.Parallel()

		settling := &fakeStep{name: "settling", onDo: func(job *Job) {
			job.Report.Status = model.StatusAlreadyLinked
		}}
		after := &fakeStep{name: "after"}

		p := New()
		p.AddSteps(settling, after)

		job := newTestJob()
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if after.called {
			t.Error("steps after a terminal status should not run")
		}
		if job.Report.Status != model.StatusAlreadyLinked {
			t.Errorf("terminal status lost: %v", job.Report.Status)
		}
	})

	t.Run("pre-settled report runs no steps at all", func(t *testing.T) {
		t.Parallel()

		submit := &fakeStep{name: "submit"}

		p := New()
		p.AddStep(submit)

		job := newTestJob()
		job.Report.Status = model.StatusSkipped

		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if submit.called {
			t.Error("no step should run for an album already marked skipped")
		}
		if len(job.Report.PerformedSteps) != 0 {
			t.Errorf("skipped album should record no steps, got %v", job.Report.PerformedSteps)
		}
		if job.Report.Status != model.StatusSkipped {
			t.Errorf("skipped status lost: %v", job.Report.Status)
		}
	})

	t.Run("user abort marks the report cancelled", func(t *testing.T) {
		t.Parallel()

		aborting := &fakeStep{name: "aborting", err: browser.ErrAborted}

		p := New()
		p.AddStep(aborting)

		job := newTestJob()
		err := p.Execute(context.Background(), job)
		if !errors.Is(err, browser.ErrAborted) {
			t.Fatalf("expected ErrAborted, got %v", err)
		}
		if !job.Report.Cancelled {
			t.Error("report should be marked cancelled on abort")
		}
	})

	t.Run("cancelled context stops before the next step", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		first := &fakeStep{name: "first", onDo: func(*Job) { cancel() }}
		second := &fakeStep{name: "second"}

		p := New()
		p.AddSteps(first, second)

		job := newTestJob()
		err := p.Execute(ctx, job)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if second.called {
			t.Error("step after cancellation should not run")
		}
		if !job.Report.Cancelled {
			t.Error("report should be marked cancelled")
		}
	})

	t.Run("step names and count", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(&fakeStep{name: "a"}, &fakeStep{name: "b"})

		if p.StepCount() != 2 {
			t.Errorf("expected 2 steps, got %d", p.StepCount())
		}
		names := p.StepNames()
		if len(names) != 2 || names[0] != "a" || names[1] != "b" {
			t.Errorf("unexpected step names: %v", names)
		}
	})
}

func TestRunnerRun(t *testing.T) {
	t.Parallel()

	factory := func(steps ...Step) func(*model.ImportReport) *Pipeline {
		return func(*model.ImportReport) *Pipeline {
			p := New()
			p.AddSteps(steps...)
			return p
		}
	}

	t.Run("successful albums finish imported", func(t *testing.T) {
		t.Parallel()

		r := NewRunner(nil, factory(&fakeStep{name: "ok"}))
		reports := []*model.ImportReport{
			model.NewImportReport("https://open.spotify.com/album/a", "spotify"),
			model.NewImportReport("https://www.deezer.com/album/1", "deezer"),
		}

		session, err := r.Run(context.Background(), reports)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.Imported() != 2 {
			t.Errorf("expected 2 imported, got %d", session.Imported())
		}
	})

	t.Run("one failure does not stop the run", func(t *testing.T) {
		t.Parallel()

		calls := 0
		flaky := func(*model.ImportReport) *Pipeline {
			calls++
			p := New()
			if calls == 1 {
				p.AddStep(&fakeStep{name: "bad", err: errors.New("boom")})
			} else {
				p.AddStep(&fakeStep{name: "ok"})
			}
			return p
		}

		r := NewRunner(nil, flaky)
		reports := []*model.ImportReport{
			model.NewImportReport("https://open.spotify.com/album/a", "spotify"),
			model.NewImportReport("https://open.spotify.com/album/b", "spotify"),
		}

		session, err := r.Run(context.Background(), reports)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.Failed() != 1 || session.Imported() != 1 {
			t.Errorf("expected 1 failed and 1 imported, got %d/%d",
				session.Failed(), session.Imported())
		}
	})

	t.Run("user abort stops the run and skips the rest", func(t *testing.T) {
		t.Parallel()

		r := NewRunner(nil, factory(&fakeStep{name: "abort", err: browser.ErrAborted}))
		reports := []*model.ImportReport{
			model.NewImportReport("https://open.spotify.com/album/a", "spotify"),
			model.NewImportReport("https://open.spotify.com/album/b", "spotify"),
		}

		session, err := r.Run(context.Background(), reports)
		if !errors.Is(err, browser.ErrAborted) {
			t.Fatalf("expected ErrAborted, got %v", err)
		}
		if session.Albums[1].Status != model.StatusSkipped {
			t.Errorf("remaining album should be skipped, got %v", session.Albums[1].Status)
		}
	})

	t.Run("callback fires per settled album", func(t *testing.T) {
		t.Parallel()

		var seen []string
		r := NewRunner(nil, factory(&fakeStep{name: "ok"}),
			WithAlbumCallback(func(rep *model.ImportReport) {
				seen = append(seen, rep.AlbumURL)
			}))

		reports := []*model.ImportReport{
			model.NewImportReport("https://open.spotify.com/album/a", "spotify"),
		}
		if _, err := r.Run(context.Background(), reports); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seen) != 1 || seen[0] != "https://open.spotify.com/album/a" {
			t.Errorf("unexpected callback calls: %v", seen)
		}
	})
}

func TestEditNoteFor(t *testing.T) {
	t.Parallel()

	t.Run("mentions source and harmony", func(t *testing.T) {
		t.Parallel()

		note := editNoteFor("https://open.spotify.com/album/x")
		if !strings.Contains(note, "https://open.spotify.com/album/x") {
			t.Errorf("note missing album URL: %q", note)
		}
		if !strings.Contains(note, "harmony.pulsewidth.org.uk") {
			t.Errorf("note missing Harmony reference: %q", note)
		}
	})

	t.Run("empty URL yields no note", func(t *testing.T) {
		t.Parallel()

		if note := editNoteFor(""); note != "" {
			t.Errorf("expected empty note, got %q", note)
		}
	})
}

func TestReleaseEditorSelectors(t *testing.T) {
	t.Parallel()

	t.Run("continue button matches the relay page submit", func(t *testing.T) {
		t.Parallel()

		want := `//button[@type="submit" and normalize-space() = "Continue"]`
		if got := selSeedContinue.Expr(); got != want {
			t.Errorf("Expr() = %q, want %q", got, want)
		}
	})

	t.Run("duplicates tab matches the exact label", func(t *testing.T) {
		t.Parallel()

		// XPath text matching is case-sensitive and the tab reads
		// "Release duplicates", never "Duplicates" on its own.
		if !strings.Contains(selDuplicatesTab.Expr(), "normalize-space(text())='Release duplicates'") {
			t.Errorf("duplicates tab selector does not match the rendered label: %q", selDuplicatesTab.Expr())
		}
	})
}

func TestMagicISRCSelectors(t *testing.T) {
	t.Parallel()

	t.Run("login trigger is a plain button", func(t *testing.T) {
		t.Parallel()

		want := `//button[@type="button" and normalize-space() = "Login to MusicBrainz"]`
		if got := selISRCLogin.Expr(); got != want {
			t.Errorf("Expr() = %q, want %q", got, want)
		}
	})

	t.Run("success selector matches the confirmation sentence", func(t *testing.T) {
		t.Parallel()

		const confirmation = "The ISRCs have been successfully submitted."
		const fragment = "successfully submitted"

		if !strings.Contains(selISRCSuccess.Expr(), "'"+fragment+"'") {
			t.Errorf("success selector does not look for %q: %q", fragment, selISRCSuccess.Expr())
		}
		if !strings.Contains(confirmation, fragment) {
			t.Errorf("fragment %q not part of the page confirmation %q", fragment, confirmation)
		}
	})
}

func TestIndexed(t *testing.T) {
	t.Parallel()

	sel := indexed(browser.XPath("//input[@class='name']"), 2)
	if sel.Expr() != "(//input[@class='name'])[3]" {
		t.Errorf("unexpected indexed expression: %q", sel.Expr())
	}
}
