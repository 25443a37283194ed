package resolve

import (
	"errors"
	"testing"

	"github.com/wippyai/nvmbuild/cell"
	"github.com/wippyai/nvmbuild/datasource"
	nverrors "github.com/wippyai/nvmbuild/errors"
	"github.com/wippyai/nvmbuild/field"
)

func testSource(t *testing.T) *datasource.Table {
	t.Helper()
	tbl, err := datasource.NewTable(
		datasource.NewSheet("Main",
			[]string{"Name", "Default", "A", "Debug"},
			[]string{"p", "1", "2", "3"},
			[]string{"only.default", "7", "", ""},
			[]string{"empty", "", "", ""},
			[]string{"variant.only", "", "5", ""},
			[]string{"limits", "#Limits", "", ""},
			[]string{"short", "#Short", "", ""},
			[]string{"grid", "#Grid", "", ""},
			[]string{"cal.gain", "#Cal:Gain", "", ""},
			[]string{"cal.offset", "#Cal:Offset", "", ""},
			[]string{"label", "abc", "", ""},
			[]string{"hex", "0x1F", "", ""},
			[]string{"big", "300", "", ""},
		),
		datasource.NewSheet("Limits", []string{"V"}, []string{"1"}, []string{"2"}, []string{"3"}, []string{"4"}),
		datasource.NewSheet("Short", []string{"V"}, []string{"1"}, []string{"2"}),
		datasource.NewSheet("Grid",
			[]string{"c0", "c1"},
			[]string{"1", "2"},
			[]string{"3", "4"},
		),
		datasource.NewSheet("Cal",
			[]string{"Gain", "Offset"},
			[]string{"1.5", "0.25"},
			[]string{"2.5", "0.5"},
			[]string{"3.5", "0.75"},
		),
	)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func visit(f *field.Field, path ...string) field.Visit {
	return field.Visit{Field: f, Path: path, Row: -1}
}

func TestPrecedence(t *testing.T) {
	src := testSource(t)
	tests := []struct {
		name string
		opts Options
		want float64
	}{
		{"default", Options{}, 1},
		{"variant", Options{Variant: "A"}, 2},
		{"debug over variant", Options{Variant: "A", Debug: true}, 3},
		{"debug only", Options{Debug: true}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(src, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			v, err := r.Scalar(visit(field.Scalar("p", field.U8), "p"))
			if err != nil {
				t.Fatal(err)
			}
			if v.Float64() != tt.want {
				t.Errorf("got %v, want %v", v, tt.want)
			}
		})
	}
}

func TestDefaultRequired(t *testing.T) {
	src := testSource(t)
	for _, opts := range []Options{{}, {Variant: "A"}, {Variant: "A", Debug: true}} {
		r, err := New(src, opts)
		if err != nil {
			t.Fatal(err)
		}

		_, err = r.Scalar(visit(field.Scalar("empty", field.U8), "empty"))
		if !errors.Is(err, nverrors.ErrMissingDefault) {
			t.Errorf("%+v: err = %v, want missing default", opts, err)
		}

		v, err := r.Scalar(visit(field.Scalar("default", field.U8), "only", "default"))
		if err != nil || v.Uint64() != 7 {
			t.Errorf("%+v: got %v, %v; want 7", opts, v, err)
		}
	}

	only := visit(field.Scalar("only", field.U8), "variant", "only")
	r, _ := New(src, Options{Variant: "A"})
	if v, err := r.Scalar(only); err != nil || v.Uint64() != 5 {
		t.Errorf("selected variant: got %v, %v; want 5", v, err)
	}
	r, _ = New(src, Options{})
	_, err := r.Scalar(only)
	if !errors.Is(err, nverrors.ErrMissingDefault) {
		t.Errorf("unselected variant must not fill in: got %v", err)
	}

	_, err = r.Cell("no.such.key")
	if !errors.Is(err, nverrors.ErrMissingDefault) {
		t.Errorf("unknown key: err = %v", err)
	}
}

func TestNew_MissingColumns(t *testing.T) {
	src := testSource(t)
	if _, err := New(src, Options{Variant: "B"}); !errors.Is(err, nverrors.ErrNotFound) {
		t.Errorf("unknown variant: err = %v", err)
	}

	noDebug, _ := datasource.NewTable(datasource.NewSheet("Main", []string{"Name", "Default"}))
	if _, err := New(noDebug, Options{Debug: true}); !errors.Is(err, nverrors.ErrNotFound) {
		t.Errorf("missing debug column: err = %v", err)
	}

	if _, err := New(nil, Options{}); err != nil {
		t.Errorf("nil source without columns should be allowed: %v", err)
	}
}

func TestArray(t *testing.T) {
	r, _ := New(testSource(t), Options{Padding: 0xFF})

	t.Run("reference", func(t *testing.T) {
		vals, err := r.Array(visit(field.Array("limits", field.I16, 4), "limits"), 4)
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range vals {
			if v.Int64() != int64(i+1) {
				t.Errorf("vals[%d] = %v, want %d", i, v, i+1)
			}
		}
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := r.Array(visit(field.Array("short", field.I16, 4), "short"), 4)
		if !errors.Is(err, nverrors.ErrLengthMismatch) {
			t.Fatalf("err = %v, want length mismatch", err)
		}
		var e *nverrors.Error
		errors.As(err, &e)
		if nverrors.JoinPath(e.Path) != "short" {
			t.Errorf("path = %v", e.Path)
		}
	})

	t.Run("string padded", func(t *testing.T) {
		vals, err := r.Array(visit(field.Array("label", field.U8, 5), "label"), 5)
		if err != nil {
			t.Fatal(err)
		}
		want := []uint64{'a', 'b', 'c', 0xFF, 0xFF}
		for i := range want {
			if vals[i].Uint64() != want[i] {
				t.Errorf("vals[%d] = %d, want %d", i, vals[i].Uint64(), want[i])
			}
		}
	})

	t.Run("string too long", func(t *testing.T) {
		_, err := r.Array(visit(field.Array("label", field.U8, 2), "label"), 2)
		if !errors.Is(err, nverrors.ErrLengthMismatch) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("inline literal", func(t *testing.T) {
		f := field.Array("x", field.U16, 3).WithLiteral(&field.Literal{
			Cells: []cell.Cell{cell.Number(1), cell.Text("0x10"), cell.Number(3)},
			List:  true,
		})
		vals, err := r.Array(visit(f, "x"), 3)
		if err != nil {
			t.Fatal(err)
		}
		if vals[1].Uint64() != 16 {
			t.Errorf("vals[1] = %v, want 16", vals[1])
		}
	})

	t.Run("element conversion error names the index", func(t *testing.T) {
		f := field.Array("x", field.U8, 2).WithLiteral(&field.Literal{
			Cells: []cell.Cell{cell.Number(1), cell.Number(256)},
			List:  true,
		})
		_, err := r.Array(visit(f, "x"), 2)
		var e *nverrors.Error
		if !errors.As(err, &e) || e.Kind != nverrors.KindTypeConversion {
			t.Fatalf("err = %v", err)
		}
		if got := nverrors.JoinPath(e.Path); got != "x[1]" {
			t.Errorf("path = %q, want x[1]", got)
		}
	})
}

func TestColumn(t *testing.T) {
	r, _ := New(testSource(t), Options{})
	gain := field.Scalar("gain", field.F32)
	vals, err := r.Column(visit(gain, "cal", "gain"), 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1.5, 2.5, 3.5}
	for i := range want {
		if vals[i].Float64() != want[i] {
			t.Errorf("gain[%d] = %v, want %v", i, vals[i], want[i])
		}
	}

	_, err = r.Column(visit(gain, "cal", "gain"), 4)
	if !errors.Is(err, nverrors.ErrLengthMismatch) {
		t.Errorf("err = %v, want length mismatch", err)
	}
}

func TestMatrix(t *testing.T) {
	r, _ := New(testSource(t), Options{})
	m := field.Matrix("grid", field.U8, 2, 2)

	vals, err := r.Matrix(visit(m, "grid"), 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range vals {
		if v.Uint64() != uint64(i+1) {
			t.Errorf("vals[%d] = %v, want %d", i, v, i+1)
		}
	}

	if _, err := r.Matrix(visit(m, "grid"), 3, 2); !errors.Is(err, nverrors.ErrLengthMismatch) {
		t.Errorf("rows mismatch: err = %v", err)
	}
	if _, err := r.Matrix(visit(m, "grid"), 2, 3); !errors.Is(err, nverrors.ErrLengthMismatch) {
		t.Errorf("cols mismatch: err = %v", err)
	}
	if _, err := r.Matrix(visit(m, "p"), 2, 2); !errors.Is(err, nverrors.ErrTypeConversion) {
		t.Errorf("non-reference: err = %v", err)
	}
}

func TestScalarErrors(t *testing.T) {
	r, _ := New(testSource(t), Options{})

	_, err := r.Scalar(visit(field.Scalar("big", field.U8), "big"))
	if !errors.Is(err, nverrors.ErrTypeConversion) {
		t.Errorf("out of range: err = %v", err)
	}

	_, err = r.Scalar(visit(field.Scalar("limits", field.U8), "limits"))
	if !errors.Is(err, nverrors.ErrTypeConversion) {
		t.Errorf("reference into scalar: err = %v", err)
	}

	v, err := r.Scalar(visit(field.Scalar("hex", field.U8), "hex"))
	if err != nil || v.Uint64() != 0x1F {
		t.Errorf("hex text: got %v, %v", v, err)
	}

	f := field.Scalar("n", field.U8).WithKey("big")
	if _, err := r.Scalar(visit(f, "n")); !errors.Is(err, nverrors.ErrTypeConversion) {
		t.Errorf("key override should look up big: %v", err)
	}
}
