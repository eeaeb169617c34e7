// Package preview assembles a file project into one self-contained HTML
// document for sandboxed display.
package preview

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/showcase/internal/domain/project"
)

// DefaultMaxConcurrentLoads bounds parallel file loads when no limit is given.
const DefaultMaxConcurrentLoads = 4

// Result is the outcome of a merge.
type Result struct {
	// Document is the assembled HTML. It is meaningful only when Renderable.
	Document string
	// Renderable is false when the project has no markup file and no legacy
	// inline content. Callers must then fall back to the project URL or an
	// error document.
	Renderable bool
	// Failures lists the files that were replaced by placeholders.
	Failures []FileFailure
}

// Degraded reports whether any file was replaced by a placeholder.
func (r Result) Degraded() bool { return len(r.Failures) > 0 }

// FileFailure records a file that could not be loaded.
type FileFailure struct {
	Name string
	Err  error
}

// Merger combines the files of a project into one HTML document.
type Merger struct {
	loader *Loader
	limit  int
}

// NewMerger creates a Merger that loads at most limit files concurrently.
func NewMerger(loader *Loader, limit int) *Merger {
	if limit < 1 {
		limit = DefaultMaxConcurrentLoads
	}
	return &Merger{loader: loader, limit: limit}
}

// Merge renders p. The project is only read. The markup file is the first
// file in insertion order whose name ends in .html or .htm; style, script
// and auxiliary bundles follow insertion order too, so output is
// deterministic for a fixed file set. All loads complete before assembly.
func (m *Merger) Merge(ctx context.Context, p *project.Project) Result {
	if p.Files.Len() == 0 {
		if p.FileContent == "" {
			return Result{}
		}
		// Legacy single-file mode: returned as decoded, without assembly.
		return Result{Document: DecodeDataURL(p.FileContent), Renderable: true}
	}

	markup, ok := p.Files.Markup()
	if !ok {
		return Result{}
	}

	type job struct {
		name string
		kind project.Kind
		file project.File
	}
	jobs := []job{{name: markup.DisplayName(), kind: project.KindMarkup, file: markup.File}}
	for _, e := range p.Files.Entries() {
		switch k := project.KindOf(e.DisplayName()); k {
		case project.KindStyle, project.KindScript, project.KindAuxiliary:
			jobs = append(jobs, job{name: e.DisplayName(), kind: k, file: e.File})
		}
	}

	texts := make([]Text, len(jobs))
	var g errgroup.Group
	g.SetLimit(m.limit)
	for i, j := range jobs {
		g.Go(func() error {
			texts[i] = m.loader.LoadText(ctx, j.name, j.file)
			return nil
		})
	}
	_ = g.Wait() // loads never fail; failures become placeholders

	var res Result
	var bundles Bundles
	for i, j := range jobs {
		t := texts[i]
		if t.Degraded() {
			res.Failures = append(res.Failures, FileFailure{Name: j.name, Err: t.Err})
		}
		if j.kind != project.KindMarkup {
			bundles.Add(j.kind, j.name, t.Body)
		}
	}

	res.Document = Assemble(texts[0].Body, bundles)
	res.Renderable = true
	return res
}
