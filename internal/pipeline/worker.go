package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/mlarcher/pageproof/internal/manuscript"
	"github.com/mlarcher/pageproof/internal/resolve"
	"github.com/mlarcher/pageproof/internal/stylesheet"
	"github.com/mlarcher/pageproof/internal/validate"
)

// Worker processes a single generation job from parse through validation.
type Worker struct {
	composer *stylesheet.Composer
	resolver *resolve.Resolver
	log      *slog.Logger
}

func NewWorker(composer *stylesheet.Composer, resolver *resolve.Resolver, log *slog.Logger) *Worker {
	return &Worker{
		composer: composer,
		resolver: resolver,
		log:      log,
	}
}

// Process runs the full generation pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Request.Filename, "template", job.Request.Template)
	defer job.releaseFileData()

	// Phase 1: Build the manuscript skeleton.
	job.SetStatus(StatusComposing, "parsing")
	builder, err := manuscript.ForFile(job.Request.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	tree, err := builder.Build(bytes.NewReader(job.FileData()), job.Request.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Request.Title != "" {
		tree.Title = job.Request.Title
	}
	if err := tree.Validate(manuscript.ValidateOptions{RequireTOC: job.Request.TOCEnabled}); err != nil {
		log.Error("malformed manuscript", "error", err)
		job.AddError(fmt.Sprintf("structure: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Compose the stylesheet.
	job.SetStatus(StatusComposing, "composing")
	sheet, err := w.composer.Compose(job.Request.Template, job.Request.Overrides)
	if err != nil {
		log.Error("composition failed", "error", err)
		job.AddError(fmt.Sprintf("compose: %s", err))
		job.SetStatus(StatusFailed, "composing")
		return
	}

	// Phase 3: Render and resolve forward references.
	job.SetStatus(StatusRendering, "rendering")
	if job.Request.TOCEnabled {
		job.SetStatus(StatusResolving, "resolving")
	}
	result, err := w.resolver.Resolve(ctx, tree, sheet, resolve.Options{
		TOCEnabled:    job.Request.TOCEnabled,
		MaxIterations: job.Request.MaxIterations,
	})
	if err != nil {
		log.Error("resolution failed", "error", err)
		job.AddError(fmt.Sprintf("resolve: %s", err))
		job.SetStatus(StatusFailed, "resolving")
		return
	}
	if result.Warning != "" {
		log.Warn("resolution did not converge", "warning", result.Warning, "passes", result.Passes)
		job.AddError(result.Warning)
	}

	// Phase 4: Validate the finished artifact.
	job.SetStatus(StatusValidating, "validating")
	report := validate.Run(tree, result.Artifact, sheet, result.Entries)
	if failed := report.Failed(); len(failed) > 0 {
		log.Info("validation found defects", "failed_checks", len(failed))
	}

	job.SetResult(&JobResult{
		PageCount:  result.Artifact.PageCount(),
		Passes:     result.Passes,
		Converged:  result.Converged,
		Warning:    result.Warning,
		CSSKey:     sheet.Key,
		TOC:        result.Entries,
		Validation: report,
	})
	job.SetStatus(StatusCompleted, "done")
	log.Info("generation complete",
		"pages", result.Artifact.PageCount(),
		"passes", result.Passes,
		"all_checks_passed", report.AllPassed(),
	)
}
