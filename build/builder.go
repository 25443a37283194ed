// Package build runs block pipelines: layout document, value resolution and
// assembly, for many blocks at once.
//
// Blocks are independent. They run on a bounded errgroup pool, each writing
// only its own result slot, and every failure is reported rather than just
// the first.
package build

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/nvmbuild/assemble"
	"github.com/wippyai/nvmbuild/datasource"
	"github.com/wippyai/nvmbuild/errors"
	"github.com/wippyai/nvmbuild/layout"
	"github.com/wippyai/nvmbuild/resolve"
)

type Options struct {
	Variant string
	Debug   bool
	Strict  bool
	// Jobs bounds concurrent blocks. 0 means GOMAXPROCS.
	Jobs int
}

// Builder is safe for concurrent use; it holds only read-only inputs.
type Builder struct {
	src  datasource.Source
	opts Options
}

// New returns a Builder over src. src may be nil when every value comes
// from inline literals.
func New(src datasource.Source, opts Options) *Builder {
	return &Builder{src: src, opts: opts}
}

// Result is the outcome of one request. Exactly one of Range and Err is set.
type Result struct {
	Request  Request
	Document *layout.Document
	Range    *assemble.DataRange
	Err      error
	Elapsed  time.Duration
}

// Report holds results in request order.
type Report struct {
	Results []Result
	Elapsed time.Duration
}

// Err combines every block error.
func (r *Report) Err() error {
	var err error
	for _, res := range r.Results {
		err = multierr.Append(err, res.Err)
	}
	return err
}

// Failed counts failed blocks.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Ranges returns the successful images in request order.
func (r *Report) Ranges() []*assemble.DataRange {
	out := make([]*assemble.DataRange, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Range != nil {
			out = append(out, res.Range)
		}
	}
	return out
}

// Build loads each layout file once, then builds every request on the
// worker pool. The returned error combines all block failures; the report
// is always returned. Blocks not started before ctx is done fail with the
// context error.
func (b *Builder) Build(ctx context.Context, reqs []Request) (*Report, error) {
	start := time.Now()

	files := make(map[string]*layout.File)
	loadErrs := make(map[string]error)
	for _, r := range reqs {
		if _, ok := files[r.File]; ok {
			continue
		}
		if _, ok := loadErrs[r.File]; ok {
			continue
		}
		f, err := layout.Load(r.File)
		if err != nil {
			loadErrs[r.File] = err
			continue
		}
		files[r.File] = f
	}

	jobs := b.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(reqs))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, r := range reqs {
		if err, ok := loadErrs[r.File]; ok {
			results[i] = Result{Request: r, Err: errors.InBlock(r.Block, r.File, err)}
			continue
		}
		f := files[r.File]
		g.Go(func() error {
			results[i] = b.block(ctx, r, f)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Results: results, Elapsed: time.Since(start)}
	Logger().Info("build finished",
		zap.Int("blocks", len(reqs)),
		zap.Int("failed", report.Failed()),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, report.Err()
}

// BuildDocument runs one already loaded document.
func (b *Builder) BuildDocument(doc *layout.Document) (*assemble.DataRange, error) {
	rv, err := resolve.New(b.src, resolve.Options{
		Variant: b.opts.Variant,
		Debug:   b.opts.Debug,
		Strict:  b.opts.Strict,
		Padding: doc.Settings.Padding,
	})
	if err != nil {
		return nil, errors.InBlock(doc.Name, doc.File, err)
	}
	dr, err := assemble.Assemble(doc.Name, doc.Root, doc.Settings, rv)
	if err != nil {
		return nil, errors.InBlock(doc.Name, doc.File, err)
	}
	return dr, nil
}

func (b *Builder) block(ctx context.Context, r Request, f *layout.File) Result {
	start := time.Now()
	res := Result{Request: r}

	if err := ctx.Err(); err != nil {
		res.Err = errors.InBlock(r.Block, r.File, errors.New(errors.PhaseBuild, errors.KindCanceled).
			Cause(err).
			Detail("block not started").
			Build())
		return res
	}

	doc, err := f.Document(r.Block)
	if err != nil {
		res.Err = err
		return res
	}
	res.Document = doc

	dr, err := b.BuildDocument(doc)
	res.Elapsed = time.Since(start)
	if err != nil {
		res.Err = err
		Logger().Debug("block failed", zap.String("block", r.Block), zap.String("file", r.File), zap.Error(err))
		return res
	}
	res.Range = dr

	Logger().Debug("block built",
		zap.String("block", r.Block),
		zap.String("file", r.File),
		zap.Uint32("used", dr.UsedSize),
		zap.Uint32("allocated", dr.AllocatedSize),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res
}
