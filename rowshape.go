// Package rowshape analyzes a relational schema and the hand-written
// queries declared against it, resolving the precise shape of every query's
// result set and matching that shape onto caller-supplied row types. Shape
// mismatches surface as diagnostics at analysis time instead of runtime.
package rowshape

import (
	"github.com/rowshape/rowshape/ast"
	"github.com/rowshape/rowshape/diag"
	"github.com/rowshape/rowshape/rowtype"
	"github.com/rowshape/rowshape/schema"
	"github.com/rowshape/rowshape/shape"
)

// Analyzer runs the per-file pipeline: constraint resolution, table and view
// assembly, shape resolution and existing-row-type matching. Analysis is
// synchronous and purely functional over its inputs; separate files may be
// analyzed concurrently with one Analyzer each.
type Analyzer struct {
	enums     *schema.EnumRegistry
	gens      *schema.GeneratorRegistry
	inferrer  shape.TypeInferrer
	cacheSize int

	intro   *rowtype.Introspector
	matcher *rowtype.Matcher
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithEnums sets the host enumeration registry used during constraint
// resolution.
func WithEnums(r *schema.EnumRegistry) Option {
	return func(a *Analyzer) { a.enums = r }
}

// WithGenerators sets the registry of client-computed default generators.
func WithGenerators(r *schema.GeneratorRegistry) Option {
	return func(a *Analyzer) { a.gens = r }
}

// WithTypeInferrer sets the expression type-inference collaborator used for
// computed projection values.
func WithTypeInferrer(inf shape.TypeInferrer) Option {
	return func(a *Analyzer) { a.inferrer = inf }
}

// WithCacheSize sets the LRU size of the host-type descriptor cache.
func WithCacheSize(size int) Option {
	return func(a *Analyzer) { a.cacheSize = size }
}

// New creates an analyzer with defaults: an empty enum registry, the uuid
// and ulid generators, and literal-only type inference.
func New(options ...Option) *Analyzer {
	a := &Analyzer{
		enums:    schema.NewEnumRegistry(),
		gens:     schema.NewGeneratorRegistry(),
		inferrer: shape.LiteralInferrer{},
	}
	for _, opt := range options {
		opt(a)
	}
	a.intro = rowtype.NewIntrospector(a.cacheSize)
	a.matcher = rowtype.NewMatcher(a.intro)
	return a
}

// RegisterRowType declares the canonical row type for a table. Nested
// projections of the table match it without field-by-field checking.
func (a *Analyzer) RegisterRowType(table string, sample any) error {
	return a.intro.RegisterRowType(table, sample)
}

// Describe derives the existing-row-type descriptor for a sample value, for
// use as a query target.
func (a *Analyzer) Describe(sample any) rowtype.Descriptor {
	return a.intro.Describe(sample)
}

// QueryResult is the resolved result-set descriptor of one analyzed query:
// its shape tree and, when an existing row type was declared for it, the
// verified binding. It is the sole hand-off artifact to code emission.
type QueryResult struct {
	Name    string
	Shape   []shape.ResultColumn
	Target  rowtype.Descriptor
	Binding *rowtype.Binding
}

// FileResult is the outcome of analyzing one file.
type FileResult struct {
	Graph   *schema.Graph
	Queries []QueryResult
	Diags   diag.List
}

// AnalyzeFile resolves a file's declarations and analyzes each query's
// result shape. Targets maps query names to their declared existing row
// types; queries without an entry keep a nil binding and are left to the
// record-type generator.
//
// Analysis never aborts: recoverable findings are accumulated while later
// stages run on best-effort models, and a match failure is terminal only for
// that query's binding, never for its siblings.
func (a *Analyzer) AnalyzeFile(f *ast.File, targets map[string]rowtype.Descriptor) *FileResult {
	result := &FileResult{}

	graph, diags := schema.BuildGraph(f, a.enums, a.gens)
	result.Graph = graph
	result.Diags = diags

	resolver := shape.NewResolver(graph, a.inferrer)
	for _, q := range f.Queries {
		cols, shapeDiags := resolver.Resolve(q.Items)
		result.Diags = result.Diags.Merge(shapeDiags)

		qr := QueryResult{Name: q.Name, Shape: cols}
		if target, ok := targets[q.Name]; ok {
			qr.Target = target
			binding, err := a.matcher.Match(cols, target)
			if err != nil {
				d := err.Diagnostic()
				if d.Span.IsZero() {
					d.Span = q.Span
				}
				result.Diags = result.Diags.Add(d)
			} else {
				qr.Binding = binding
			}
		}
		result.Queries = append(result.Queries, qr)
	}

	return result
}
