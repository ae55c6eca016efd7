package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/mlarcher/pageproof/internal/manuscript"
	"github.com/mlarcher/pageproof/internal/render"
	"github.com/mlarcher/pageproof/internal/stylesheet"
)

// UnresolvedAnchorError reports a TOC entry whose anchor never appeared in
// the rendered artifact. A TOC entry with no page would be a silent
// correctness failure, so this is fatal to the request.
type UnresolvedAnchorError struct {
	Anchor string
}

func (e *UnresolvedAnchorError) Error() string {
	return fmt.Sprintf("anchor %q required by the table of contents was not rendered", e.Anchor)
}

// Options controls one resolution.
type Options struct {
	// TOCEnabled runs the two-pass protocol. When false a single pass
	// produces the finished artifact directly.
	TOCEnabled bool
	// MaxIterations bounds the fixpoint loop. The default (1) accepts
	// single-pass convergence; higher values re-run the protocol with the
	// previous artifact as baseline until the anchor map stabilizes.
	MaxIterations int
	// RetryAttempts bounds per-call retries of transient oracle failures.
	RetryAttempts uint
}

func (o Options) withDefaults() Options {
	if o.MaxIterations < 1 {
		o.MaxIterations = 1
	}
	if o.RetryAttempts == 0 {
		o.RetryAttempts = 3
	}
	return o
}

// Result is a finished resolution: the pass-2 artifact, the anchor map it
// was built from, and the injected TOC entries. Pass-1 artifacts never
// leave the resolver.
type Result struct {
	Artifact *render.Artifact
	PageMap  map[string]int
	Entries  []Entry
	Passes   int
	// Converged is false when the anchor map was still shifting at the
	// iteration limit; Warning then carries the non-fatal diagnostic and
	// the last artifact is still returned as usable.
	Converged bool
	Warning   string
}

// Resolver orchestrates the two-pass anchor resolution protocol against a
// rendering oracle.
type Resolver struct {
	oracle render.Oracle
	log    *slog.Logger
}

func New(oracle render.Oracle, log *slog.Logger) *Resolver {
	return &Resolver{oracle: oracle, log: log}
}

// Resolve renders the manuscript with the composed stylesheet, resolving
// forward TOC references. The two oracle calls are strictly sequential;
// concurrency across requests is the caller's concern.
func (r *Resolver) Resolve(ctx context.Context, tree *manuscript.Tree, sheet stylesheet.Stylesheet, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	if !opts.TOCEnabled {
		artifact, err := r.renderOnce(ctx, render.Input{Tree: tree, CSS: sheet.CSS}, opts.RetryAttempts)
		if err != nil {
			return nil, err
		}
		return &Result{
			Artifact:  artifact,
			PageMap:   artifact.AnchorPages(),
			Passes:    1,
			Converged: true,
		}, nil
	}

	entries := buildEntries(tree, sheet.TOC.Depth)

	// Pass 1: placeholder page numbers produce realistic pagination
	// without requiring numbers that are not yet knowable.
	r.log.Debug("pass 1: analyzing anchor positions", "entries", len(entries))
	baseline, err := r.renderOnce(ctx, render.Input{
		Tree: tree,
		TOC:  tocContent(sheet.TOC.Style, entries),
		CSS:  sheet.CSS,
	}, opts.RetryAttempts)
	if err != nil {
		return nil, err
	}

	passes := 1
	for iter := 1; ; iter++ {
		pageMap, err := resolvePages(baseline, entries)
		if err != nil {
			return nil, err
		}
		for i := range entries {
			entries[i].Page = pageMap[entries[i].Anchor]
		}

		// Pass 2: re-render with true page numbers substituted into the TOC.
		r.log.Debug("pass 2: injecting resolved page numbers", "iteration", iter)
		artifact, err := r.renderOnce(ctx, render.Input{
			Tree: tree,
			TOC:  tocContent(sheet.TOC.Style, entries),
			CSS:  sheet.CSS,
		}, opts.RetryAttempts)
		if err != nil {
			return nil, err
		}
		passes++

		finalMap, err := resolvePages(artifact, entries)
		if err != nil {
			return nil, err
		}

		if mapsEqual(pageMap, finalMap) {
			return &Result{
				Artifact:  artifact,
				PageMap:   finalMap,
				Entries:   entries,
				Passes:    passes,
				Converged: true,
			}, nil
		}

		if iter >= opts.MaxIterations {
			// Injecting real numbers changed the TOC's own length and
			// shifted later boundaries. Return the last artifact with a
			// warning rather than failing; the shift is small and bounded.
			warning := fmt.Sprintf("anchor page map did not stabilize within %d iteration(s)", opts.MaxIterations)
			r.log.Warn("resolution did not converge", "iterations", opts.MaxIterations)
			return &Result{
				Artifact: artifact,
				PageMap:  finalMap,
				Entries:  entries,
				Passes:   passes,
				Warning:  warning,
			}, nil
		}

		baseline = artifact
	}
}

// resolvePages maps every TOC anchor to its starting page in the artifact.
func resolvePages(artifact *render.Artifact, entries []Entry) (map[string]int, error) {
	pages := make(map[string]int, len(entries))
	for _, e := range entries {
		page, ok := artifact.PageOf(e.Anchor)
		if !ok {
			return nil, &UnresolvedAnchorError{Anchor: e.Anchor}
		}
		pages[e.Anchor] = page
	}
	return pages, nil
}

func (r *Resolver) renderOnce(ctx context.Context, in render.Input, attempts uint) (*render.Artifact, error) {
	var artifact *render.Artifact
	err := retry.Do(
		func() error {
			a, err := r.oracle.Render(ctx, in)
			if err != nil {
				return err
			}
			artifact = a
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.RetryIf(render.IsRetryable),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(10*time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

func mapsEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
