package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/mlarcher/pageproof/internal/render"
	"github.com/mlarcher/pageproof/internal/resolve"
	"github.com/mlarcher/pageproof/internal/stylesheet"
)

func testWorker() *Worker {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	oracle := render.NewFlowOracle(render.FlowConfig{})
	return NewWorker(stylesheet.NewComposer(nil), resolve.New(oracle, log), log)
}

const workerManuscript = `# Field Notes

<!-- toc -->

# Spring {#spring}

The first observations of the season.

# Summer {#summer}

Heat, and the long afternoons.
`

func TestWorker_ProcessCompletes(t *testing.T) {
	job := NewJob(JobRequest{
		Filename:   "notes.md",
		Template:   "roman",
		TOCEnabled: true,
	}, []byte(workerManuscript))

	testWorker().Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors: %v)", job.Status, job.Snapshot().Errors)
	}
	res := job.Result()
	if res == nil {
		t.Fatal("expected a result")
	}
	if res.PageCount < 1 {
		t.Errorf("expected pages, got %d", res.PageCount)
	}
	if res.Passes != 2 {
		t.Errorf("expected two passes, got %d", res.Passes)
	}
	if len(res.TOC) != 3 {
		t.Errorf("expected 3 TOC entries, got %d", len(res.TOC))
	}
	if job.FileData() != nil {
		t.Error("expected file data released after processing")
	}
}

func TestWorker_FailsOnUnsupportedFormat(t *testing.T) {
	job := NewJob(JobRequest{Filename: "notes.xyz", Template: "roman"}, []byte("x"))
	testWorker().Process(context.Background(), job)
	if job.Status != StatusFailed || job.Phase != "parsing" {
		t.Errorf("expected failure in parsing, got %q/%q", job.Status, job.Phase)
	}
}

func TestWorker_FailsOnUnknownTemplate(t *testing.T) {
	job := NewJob(JobRequest{Filename: "n.md", Template: "baroque"}, []byte("# T\n\ntext\n"))
	testWorker().Process(context.Background(), job)
	if job.Status != StatusFailed || job.Phase != "composing" {
		t.Errorf("expected failure in composing, got %q/%q", job.Status, job.Phase)
	}
}

func TestWorker_FailsWhenTOCRequestedWithoutPlaceholder(t *testing.T) {
	job := NewJob(JobRequest{
		Filename:   "n.md",
		Template:   "roman",
		TOCEnabled: true,
	}, []byte("# Only Chapter\n\ntext\n"))
	testWorker().Process(context.Background(), job)
	if job.Status != StatusFailed || job.Phase != "parsing" {
		t.Errorf("expected structural failure in parsing, got %q/%q", job.Status, job.Phase)
	}
	errs := job.Snapshot().Errors
	if len(errs) == 0 {
		t.Fatal("expected a recorded error")
	}
}
