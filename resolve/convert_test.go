package resolve

import (
	"errors"
	"testing"

	"github.com/wippyai/nvmbuild/cell"
	nverrors "github.com/wippyai/nvmbuild/errors"
	"github.com/wippyai/nvmbuild/field"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name   string
		typ    field.ScalarType
		in     cell.Cell
		strict bool
		want   string
		ok     bool
	}{
		{"u8 number", field.U8, cell.Number(255), false, "255", true},
		{"u8 overflow", field.U8, cell.Number(256), false, "", false},
		{"u8 negative", field.U8, cell.Number(-1), false, "", false},
		{"i8 min", field.I8, cell.Number(-128), false, "-128", true},
		{"i8 below min", field.I8, cell.Number(-129), false, "", false},
		{"u16 fraction", field.U16, cell.Number(1.5), false, "", false},
		{"u16 integral float", field.U16, cell.Number(42.0), false, "42", true},
		{"i32 text", field.I32, cell.Text(" -12 "), false, "-12", true},
		{"u32 hex", field.U32, cell.Text("0xDEADBEEF"), false, "3735928559", true},
		{"u8 binary", field.U8, cell.Text("0b1010"), false, "10", true},
		{"u8 octal", field.U8, cell.Text("0o17"), false, "15", true},
		{"u8 leading zero is decimal", field.U8, cell.Text("010"), false, "10", true},
		{"i16 negative hex", field.I16, cell.Text("-0x10"), false, "-16", true},
		{"u64 max", field.U64, cell.Text("18446744073709551615"), false, "18446744073709551615", true},
		{"i64 underscore", field.I64, cell.Text("1_000_000"), false, "1000000", true},
		{"f32 text", field.F32, cell.Text("0.5"), false, "0.5", true},
		{"f32 fraction lenient", field.F32, cell.Number(0.1), true, "0.1", true},
		{"f32 large int lenient", field.F32, cell.Number(16777217), false, "1.6777216e+07", true},
		{"f32 large int strict", field.F32, cell.Number(16777217), true, "", false},
		{"f32 exact int strict", field.F32, cell.Number(16777216), true, "1.6777216e+07", true},
		{"f32 overflow", field.F32, cell.Number(1e39), false, "", false},
		{"f64 number", field.F64, cell.Number(1e300), false, "1e+300", true},
		{"text garbage", field.U8, cell.Text("abc"), false, "", false},
		{"nan text", field.F64, cell.Text("NaN"), false, "", false},
		{"reference", field.U8, cell.Ref(cell.Reference{Sheet: "S"}), false, "", false},
		{"empty", field.U8, cell.Empty(), false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.typ, tt.in, tt.strict)
			if !tt.ok {
				if !errors.Is(err, nverrors.ErrTypeConversion) {
					t.Fatalf("err = %v, want type conversion error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			if got.Type != tt.typ {
				t.Errorf("type = %v, want %v", got.Type, tt.typ)
			}
		})
	}
}

func TestConvert_ErrorCarriesRaw(t *testing.T) {
	_, err := Convert(field.U8, cell.Text("300"), false)
	var e *nverrors.Error
	if !errors.As(err, &e) {
		t.Fatal("expected *errors.Error")
	}
	if e.Value != `"300"` {
		t.Errorf("Value = %v, want the raw cell", e.Value)
	}
}
