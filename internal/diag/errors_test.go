package diag_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"experimental/internal/diag"
	"experimental/internal/source"
)

func TestStageErrorsAs(t *testing.T) {
	inner := &diag.SyntaxRewriteError{
		Code:    diag.RwMarkerOutsideParams,
		Feature: "late_bound_arg_defaults",
		Pos:     source.Pos{Path: "m.py", Line: 3, Col: 9},
		Msg:     "'=>' outside a parameter list",
	}
	wrapped := fmt.Errorf("loading m: %w", inner)

	var se diag.StageError
	if !errors.As(wrapped, &se) {
		t.Fatalf("expected StageError in chain")
	}
	if se.Stage() != diag.StageRewrite || se.FeatureName() != "late_bound_arg_defaults" {
		t.Fatalf("unexpected stage/feature: %v %q", se.Stage(), se.FeatureName())
	}
	want := "m.py:3:9: rewrite [late_bound_arg_defaults]: '=>' outside a parameter list"
	if inner.Error() != want {
		t.Fatalf("Error() = %q, want %q", inner.Error(), want)
	}
}

func TestUnknownFeatureNamesTheFeature(t *testing.T) {
	err := &diag.UnknownFeatureError{
		Module: "pkg.mod",
		Name:   "not_a_real_feature",
		Pos:    source.Pos{Path: "pkg/mod.py", Line: 1, Col: 30},
		Known:  []string{"inline_import"},
	}
	if !strings.Contains(err.Error(), "not_a_real_feature") || !strings.Contains(err.Error(), "pkg.mod") {
		t.Fatalf("message must name module and feature: %s", err)
	}
	d, ok := diag.FromError(err)
	if !ok || d.Code != diag.DetUnknownFeature || d.Stage != diag.StageDetect {
		t.Fatalf("FromError mismatch: %+v", d)
	}
}

func TestRelocatable(t *testing.T) {
	err := diag.NewRewriteError("inline_import", diag.RwAmbiguousBang, 17, "ambiguous %q", "!r")
	var rel diag.Relocatable = err
	off, pending := rel.Offset()
	if off != 17 || !pending {
		t.Fatalf("fresh error must carry its offset: %d %v", off, pending)
	}
	rel.SetPosition(source.Pos{Path: "a.py", Line: 2, Col: 4})
	if _, pending := rel.Offset(); pending {
		t.Fatalf("positioned error must not be relocated again")
	}
	if err.Msg != `ambiguous "!r"` {
		t.Fatalf("format not applied: %q", err.Msg)
	}
}

func TestHostCompileErrorUnwrap(t *testing.T) {
	cause := errors.New("got newline, want ')'")
	err := &diag.HostCompileError{Code: diag.HostSyntax, Msg: cause.Error(), Err: cause, Features: []string{"inline_import", "lazy_import"}}
	if !errors.Is(err, cause) {
		t.Fatalf("host error must unwrap to the compiler error")
	}
	if !strings.Contains(err.Error(), "compile [inline_import,lazy_import]") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestCodeIDs(t *testing.T) {
	cases := map[diag.Code]string{
		diag.LexUnterminatedString: "LEX1002",
		diag.DetUnknownFeature:     "DET1501",
		diag.RwAmbiguousBang:       "RW2004",
		diag.HostSyntax:            "HOST3001",
		diag.LoadCycle:             "LOAD4002",
		diag.Code(9999):            "E0000",
	}
	for c, want := range cases {
		if c.ID() != want {
			t.Errorf("%d.ID() = %s, want %s", c, c.ID(), want)
		}
	}
}
