package build

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/nvmbuild/assemble"
	"github.com/wippyai/nvmbuild/errors"
	"github.com/wippyai/nvmbuild/ihex"
	"github.com/wippyai/nvmbuild/srec"
)

// Format is the output file encoding.
type Format string

const (
	HEX Format = "hex"
	MOT Format = "mot"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hex", "ihex":
		return HEX, nil
	case "mot", "srec", "s19":
		return MOT, nil
	}
	return "", errors.InvalidInput(errors.PhaseBuild, "unknown output format %q (want hex or mot)", s)
}

// CombinedName is the block name used for the single combined file.
const CombinedName = "combined"

// Output describes where and how images are written.
type Output struct {
	Dir    string
	Prefix string
	Suffix string
	Format Format
	// RecordWidth is the data bytes per record. 0 means 32.
	RecordWidth int
	// Combined writes all blocks into one file instead of one per block.
	Combined bool
}

// FileName joins the non-empty prefix, block name and suffix with
// underscores and adds the format extension.
func (o Output) FileName(block string) string {
	parts := make([]string, 0, 3)
	if o.Prefix != "" {
		parts = append(parts, o.Prefix)
	}
	parts = append(parts, block)
	if o.Suffix != "" {
		parts = append(parts, o.Suffix)
	}
	ext := o.Format
	if ext == "" {
		ext = HEX
	}
	return strings.Join(parts, "_") + "." + string(ext)
}

// Path is FileName inside Dir.
func (o Output) Path(block string) string {
	return filepath.Join(o.Dir, o.FileName(block))
}

// Encode writes segs in the output format. name becomes the S-record
// header.
func (o Output) Encode(w io.Writer, name string, segs []assemble.Segment) error {
	if o.Format == MOT {
		return srec.Encode(w, segs, srec.Options{RecordWidth: o.RecordWidth, Header: name})
	}
	return ihex.Encode(w, segs, ihex.Options{RecordWidth: o.RecordWidth})
}

// Target is one output file and the images it holds.
type Target struct {
	Name   string
	Path   string
	Ranges []*assemble.DataRange
}

// Segments merges the segments of every range.
func (t Target) Segments() []assemble.Segment {
	var segs []assemble.Segment
	for _, dr := range t.Ranges {
		segs = append(segs, dr.Segments()...)
	}
	return segs
}

// Targets lists the files a report produces. Failed blocks get none; the
// combined file exists only when every block succeeded.
func (o Output) Targets(r *Report) []Target {
	if o.Combined {
		if r.Failed() > 0 || len(r.Results) == 0 {
			return nil
		}
		return []Target{{Name: CombinedName, Path: o.Path(CombinedName), Ranges: r.Ranges()}}
	}
	var out []Target
	for _, dr := range r.Ranges() {
		out = append(out, Target{Name: dr.Name, Path: o.Path(dr.Name), Ranges: []*assemble.DataRange{dr}})
	}
	return out
}

// Write encodes and writes every target, returning the paths written. A
// target that fails to encode or write does not stop the others.
func (o Output) Write(r *Report) ([]string, error) {
	targets := o.Targets(r)
	if o.Combined && len(targets) == 0 && r.Failed() > 0 {
		Logger().Warn("combined output skipped", zap.Int("failed", r.Failed()))
	}
	if len(targets) == 0 {
		return nil, nil
	}
	if o.Dir != "" {
		if err := os.MkdirAll(o.Dir, 0o755); err != nil {
			return nil, errors.IO(errors.PhaseBuild, "create", o.Dir, err)
		}
	}

	var (
		written []string
		errs    error
	)
	for _, t := range targets {
		var buf bytes.Buffer
		if err := o.Encode(&buf, t.Name, t.Segments()); err != nil {
			errs = multierr.Append(errs, errors.InBlock(t.Name, "", err))
			continue
		}
		if err := os.WriteFile(t.Path, buf.Bytes(), 0o644); err != nil {
			errs = multierr.Append(errs, errors.InBlock(t.Name, "", errors.IO(errors.PhaseBuild, "write", t.Path, err)))
			continue
		}
		Logger().Debug("output written", zap.String("block", t.Name), zap.String("path", t.Path), zap.Int("bytes", buf.Len()))
		written = append(written, t.Path)
	}
	return written, errs
}
