package shading

import "testing"

func TestParseExprArithmeticAndCalls(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"1 + 2", ""},
		{"sin(uv)", ""},
		{"pow(P.x, 2)", ""},
	}
	for _, c := range cases {
		if _, err := ParseExpr(c.src); err != nil {
			t.Fatalf("ParseExpr(%q): %v", c.src, err)
		}
	}
}

func TestTranspileNumberArithmetic(t *testing.T) {
	tr := NewTranspiler()
	res, err := tr.TranspileNumber("1 + 2")
	if err != nil {
		t.Fatalf("TranspileNumber: %v", err)
	}
	if res.Kind != KindNumber {
		t.Fatalf("expected KindNumber, got %v", res.Kind)
	}
	if res.Text != "add(1:f32, 2:f32)" {
		t.Fatalf("unexpected emission: %q", res.Text)
	}
}

func TestTranspileColorWrapsScalar(t *testing.T) {
	tr := NewTranspiler()
	res, err := tr.TranspileColor("0.5")
	if err != nil {
		t.Fatalf("TranspileColor: %v", err)
	}
	if res.Kind != KindColor {
		t.Fatalf("expected KindColor, got %v", res.Kind)
	}
}

func TestTranspileFoldsSelfSubtraction(t *testing.T) {
	tr := NewTranspiler()
	res, err := tr.TranspileNumber("t - t")
	if err != nil {
		t.Fatalf("TranspileNumber: %v", err)
	}
	if res.Text != "0" {
		t.Fatalf("expected constant-folded 0, got %q", res.Text)
	}
}

func TestTranspileUnknownIdentifierIsParseError(t *testing.T) {
	tr := NewTranspiler()
	if _, err := tr.TranspileNumber("bogus_var"); err == nil {
		t.Fatalf("expected a parse/transpile error for an unknown identifier")
	}
}

func TestTranspileCollapseHoistsRepeatedLongArgument(t *testing.T) {
	tr := NewTranspiler()
	// check_ray_flag's single argument isn't long enough to collapse; use a
	// nested call whose emitted text clears the 16-char threshold and
	// appears twice.
	if _, err := tr.TranspileNumber("pow(transform_point(P, Ng).x, transform_point(P, Ng).x)"); err != nil {
		t.Fatalf("TranspileNumber: %v", err)
	}
	if len(tr.Header()) == 0 {
		t.Fatalf("expected the repeated long argument to be hoisted into the header")
	}
}
