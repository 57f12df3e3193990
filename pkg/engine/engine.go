// SPDX-License-Identifier: MPL-2.0

// Package engine runs a complete package validation: scan, extract, build
// the reference graph, resolve, analyze reachability, check budgets and
// aggregate the report.
//
// File loading and reference extraction run concurrently on a bounded
// worker pool. Graph assembly waits for every file, so resolution always
// sees the complete node set; everything after that barrier runs on one
// goroutine in ascending path order and is fully deterministic.
package engine

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/skillkit/skillkit/pkg/budget"
	"github.com/skillkit/skillkit/pkg/finding"
	"github.com/skillkit/skillkit/pkg/refextract"
	"github.com/skillkit/skillkit/pkg/refgraph"
	"github.com/skillkit/skillkit/pkg/report"
	"github.com/skillkit/skillkit/pkg/scan"
	"github.com/skillkit/skillkit/pkg/tokencount"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/pool"
)

type (
	// Engine validates packages with a fixed configuration. It holds no
	// per-run state and may be reused.
	Engine struct {
		opts   Options
		policy budget.Policy
		allow  refgraph.Allowlist
		logger *log.Logger
	}

	// loaded is one file after the parallel phase.
	loaded struct {
		file  scan.File
		count tokencount.Count
		refs  []refextract.Candidate
	}
)

// New validates opts and builds an Engine.
func New(opts Options) (*Engine, error) {
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	allow, err := refgraph.NewAllowlist(opts.OrphanAllow)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Engine{
		opts:   opts,
		policy: budget.DefaultPolicy().Merge(opts.Budget),
		allow:  allow,
		logger: logger,
	}, nil
}

// Run validates opts.Root once.
func Run(ctx context.Context, opts Options) (*report.Report, error) {
	e, err := New(opts)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx)
}

// Run validates the package. The only error results are configuration
// errors and context cancellation; every other problem is a finding in the
// returned report.
func (e *Engine) Run(ctx context.Context) (*report.Report, error) {
	listing, err := scan.Walk(ctx, scan.Options{
		Root:     e.opts.Root,
		Ignore:   e.opts.Ignore,
		MaxFiles: e.opts.MaxFiles,
		MaxBytes: e.opts.MaxBytes,
		Logger:   e.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := e.checkEntries(listing); err != nil {
		return nil, err
	}

	files, err := e.load(ctx, listing)
	if err != nil {
		return nil, err
	}

	g, issues, err := e.assemble(listing, files)
	if err != nil {
		return nil, err
	}

	resolution := refgraph.Resolve(g)
	issues = append(issues, resolution.Issues...)
	e.logger.WithPrefix("resolve").Info("resolved references",
		"resolved", resolution.Resolved,
		"broken", resolution.Broken,
		"external", resolution.External,
		"case_mismatch", resolution.CaseMismatch,
	)

	reached := refgraph.Reach(g, e.opts.Entries)
	orphans := refgraph.Orphans(g, e.opts.Entries, reached, e.allow)
	issues = append(issues, orphans...)
	e.logger.WithPrefix("reach").Info("computed reachability", "reached", len(reached), "orphans", len(orphans))

	tracking := budget.Track(g.Nodes(), e.policy)
	issues = append(issues, tracking.Issues...)
	e.logger.WithPrefix("budget").Info("checked budgets", "issues", len(tracking.Issues))

	return report.Aggregate(report.Input{
		Name:      filepath.Base(listing.Root),
		Entries:   e.opts.Entries,
		Strict:    e.opts.Strict,
		Issues:    issues,
		Files:     fileStats(g, tracking, reached),
		Edges:     edgeCounts(g, resolution),
		Reachable: reached,
		Now:       e.opts.Now(),
	}), nil
}

// checkEntries requires every entry to be a listed file.
func (e *Engine) checkEntries(listing *scan.Listing) error {
	known := make(map[string]bool, len(listing.Files))
	for _, f := range listing.Files {
		known[f.Path] = true
	}
	for _, entry := range e.opts.Entries {
		if !known[entry] {
			return finding.Configf(finding.ReasonMissingEntry, entry, "entry document not found in %s", e.opts.Root)
		}
	}
	return nil
}

// load reads, measures and extracts every listed file on the worker pool.
// Results land in listing order regardless of completion order.
func (e *Engine) load(ctx context.Context, listing *scan.Listing) ([]loaded, error) {
	out := make([]loaded, len(listing.Files))
	e.logger.WithPrefix("extract").Debug("loading files",
		"files", len(listing.Files),
		"workers", e.opts.Workers,
		"strategies", e.opts.Extractors.Names(),
	)
	p := pool.New().WithMaxGoroutines(e.opts.Workers).WithContext(ctx)

	for i, entry := range listing.Files {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f := scan.Load(entry)
			res := loaded{file: f}
			if f.Text {
				res.count = tokencount.Measure(f.Content)
				doc := refextract.NewDocument(entry.Path, f.Content, entry.Kind != refgraph.KindDocument)
				res.refs = e.opts.Extractors.Extract(doc)
			}
			out[i] = res
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("load package files: %w", err)
	}
	return out, nil
}

// assemble builds the graph from loaded files. It is the barrier between
// the parallel and sequential phases.
func (e *Engine) assemble(listing *scan.Listing, files []loaded) (*refgraph.Graph, []finding.Issue, error) {
	g := refgraph.New()
	for _, d := range listing.Dirs {
		g.AddDir(d)
	}

	var issues []finding.Issue
	for _, l := range files {
		f := l.file
		kind := f.Kind
		if e.isEntry(f.Path) {
			kind = refgraph.KindManifest
		}
		node := refgraph.Node{
			Path:     f.Path,
			Kind:     kind,
			Tier:     e.tierOf(f),
			Lines:    l.count.Lines,
			Tokens:   l.count.Tokens,
			Size:     f.Size,
			Readable: f.Readable,
			Text:     f.Text,
			Digest:   f.Digest,
		}
		if err := g.AddNode(node); err != nil {
			return nil, nil, err
		}
		if is := f.UnreadableIssue(); is != nil {
			e.logger.WithPrefix("scan").Warn("unreadable file", "path", f.Path, "reason", f.Problem)
			issues = append(issues, *is)
		}
	}

	edges := 0
	for _, l := range files {
		for _, c := range l.refs {
			state := refgraph.StateUnresolved
			if c.External {
				state = refgraph.StateExternal
			}
			if err := g.AddEdge(refgraph.Edge{
				Source:  l.file.Path,
				Raw:     c.Raw,
				Line:    c.Line,
				Column:  c.Column,
				RefKind: c.Kind,
				State:   state,
			}); err != nil {
				return nil, nil, err
			}
			edges++
		}
	}
	e.logger.WithPrefix("graph").Info("assembled graph", "nodes", g.Len(), "edges", edges)
	return g, issues, nil
}

// tierOf returns the declared tier from frontmatter, else the first
// matching tier rule, else untiered.
func (e *Engine) tierOf(f scan.File) refgraph.Tier {
	if f.FrontErr != nil {
		e.logger.WithPrefix("scan").Debug("ignoring unparsable frontmatter", "path", f.Path, "err", f.FrontErr)
	}
	if declared := f.Front.DeclaredTier(); declared != "" {
		tier, err := refgraph.ParseTier(declared)
		if err == nil {
			return tier
		}
		e.logger.WithPrefix("scan").Debug("ignoring unknown declared tier", "path", f.Path, "tier", declared)
	}
	for _, r := range e.opts.TierRules {
		if ok, _ := doublestar.Match(r.Pattern, f.Path); ok {
			tier, err := refgraph.ParseTier(string(r.Tier))
			if err == nil {
				return tier
			}
		}
	}
	return refgraph.TierNone
}

func (e *Engine) isEntry(p string) bool {
	for _, entry := range e.opts.Entries {
		if entry == p {
			return true
		}
	}
	return false
}

func fileStats(g *refgraph.Graph, tracking budget.Tracking, reached []string) []report.FileStat {
	usage := make(map[string]budget.Usage, len(tracking.Usage))
	for _, u := range tracking.Usage {
		usage[u.Path] = u
	}
	isReached := make(map[string]bool, len(reached))
	for _, p := range reached {
		isReached[p] = true
	}

	nodes := g.Nodes()
	stats := make([]report.FileStat, 0, len(nodes))
	for _, n := range nodes {
		u := usage[n.Path]
		stats = append(stats, report.FileStat{
			Path:        n.Path,
			Kind:        n.Kind.String(),
			Tier:        n.Tier.String(),
			Lines:       n.Lines,
			Tokens:      n.Tokens,
			Limit:       u.Limit,
			Utilization: u.Utilization,
			Readable:    n.Readable,
			Reachable:   isReached[n.Path],
			Digest:      n.Digest,
		})
	}
	return stats
}

func edgeCounts(g *refgraph.Graph, res refgraph.Resolution) report.EdgeCounts {
	return report.EdgeCounts{
		Total:     len(g.Edges()),
		Resolved:  res.Resolved,
		Broken:    res.Broken,
		External:  res.External,
		Directory: res.Directory,
	}
}
