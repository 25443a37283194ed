package build

import (
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/nvmbuild/errors"
	"github.com/wippyai/nvmbuild/ihex"
)

// Change is the comparison of one output file against its previous
// version.
type Change struct {
	Name     string
	Previous string
	// Missing is set when there is no previous file.
	Missing bool
	Diffs   []ihex.Diff
}

// Compare decodes the file of the same name in dir for every target and
// reports the address ranges that differ. Differences are logged, never
// treated as errors; unreadable previous files are.
func (o Output) Compare(dir string, r *Report) ([]Change, error) {
	if o.Format == MOT {
		return nil, errors.Unsupported(errors.PhaseBuild, "comparing S-record output")
	}

	var (
		changes []Change
		errs    error
	)
	for _, t := range o.Targets(r) {
		prev := filepath.Join(dir, o.FileName(t.Name))
		c := Change{Name: t.Name, Previous: prev}

		old, err := ihex.DecodeFile(prev)
		if err != nil {
			if _, statErr := os.Stat(prev); os.IsNotExist(statErr) {
				c.Missing = true
				Logger().Warn("no previous output to compare", zap.String("block", t.Name), zap.String("path", prev))
				changes = append(changes, c)
				continue
			}
			errs = multierr.Append(errs, errors.InBlock(t.Name, prev, err))
			continue
		}

		c.Diffs = ihex.Compare(old, t.Segments())
		if len(c.Diffs) == 0 {
			Logger().Info("output unchanged", zap.String("block", t.Name))
		}
		for _, d := range c.Diffs {
			Logger().Info("output differs",
				zap.String("block", t.Name),
				zap.String("kind", d.Kind.String()),
				zap.Uint32("address", d.Address),
				zap.Uint32("length", d.Length),
			)
		}
		changes = append(changes, c)
	}
	return changes, errs
}
