package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs the CLI in-process. Flags keep their values between runs, so
// every test passes the flags it relies on.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--no-cache", "--color", "off"}, args...))
	err = rootCmd.Execute()
	_ = teardownEnv(nil, nil)
	return out.String(), errOut.String(), err
}

func writeModule(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFeaturesJSON(t *testing.T) {
	out, _, err := execute(t, "features", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var got []featurePayload
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	var names []string
	for _, f := range got {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "late_bound_arg_defaults,inline_import,lazy_import,cast_elision" {
		t.Errorf("features = %v", names)
	}
}

func TestRewriteCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeModule(t, dir, "m.py", "from __experimental__ import late_bound_arg_defaults\ndef f(a, b=>a):\n    return b\n")

	out, _, err := execute(t, "rewrite", "--diff=false", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "def f(a, b=__omitted__):") {
		t.Errorf("output:\n%s", out)
	}

	out, _, err = execute(t, "rewrite", "--diff", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "@@ 2 @@") || strings.Contains(out, "late_bound_arg_defaults\n") {
		t.Errorf("diff:\n%s", out)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "ok.py", "x = 1\n")
	writeModule(t, dir, "bad.py", "from __experimental__ import inline_import\ny = f!x\n")

	_, stderr, err := execute(t, "check", "--format", "pretty", "--ui", "off", "--timings", dir)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(stderr, "bad.py:2:6: ERROR RW2004 [inline_import]") {
		t.Errorf("stderr:\n%s", stderr)
	}
	if !strings.Contains(stderr, "timings:") || !strings.Contains(stderr, "compiled") {
		t.Errorf("timings missing:\n%s", stderr)
	}

	out, _, err := execute(t, "check", "--format", "json", "--timings=false", dir)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("err = %v", err)
	}
	var payload struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil || payload.Count != 1 {
		t.Errorf("json output %q: %v", out, err)
	}
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "helper.py", "def twice(x):\n    return x * 2\n")
	path := writeModule(t, dir, "main.py", `from __experimental__ import late_bound_arg_defaults, inline_import
def f(a, b=>helper!.twice(a)):
    return b
print(f(21), __name__)
`)
	out, _, err := execute(t, "run", "--watch=false", "--no-hook=false", path)
	if err != nil {
		t.Fatal(err)
	}
	if out != "42 __main__\n" {
		t.Errorf("stdout = %q", out)
	}

	_, stderr, err := execute(t, "run", "--watch=false", "--no-hook", path)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(stderr, "HOST3001") {
		t.Errorf("stderr:\n%s", stderr)
	}
}

func TestRunRuntimeError(t *testing.T) {
	dir := t.TempDir()
	path := writeModule(t, dir, "boom.py", "def f(x):\n    return 1 // x\nf(0)\n")
	_, stderr, err := execute(t, "run", "--watch=false", "--no-hook=false", path)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(stderr, "Traceback (most recent call last):") || !strings.Contains(stderr, "boom.py:2:") {
		t.Errorf("stderr:\n%s", stderr)
	}
}

func TestProfileFlags(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.pprof")
	mem := filepath.Join(dir, "mem.pprof")
	_, _, err := execute(t, "--cpu-profile", cpu, "--mem-profile", mem, "features", "--format", "json")
	// флаги постоянные, сбрасываем для остальных тестов
	_ = rootCmd.PersistentFlags().Set("cpu-profile", "")
	_ = rootCmd.PersistentFlags().Set("mem-profile", "")
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{cpu, mem} {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Errorf("profile %s not written: %v", p, err)
		}
	}
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var p versionPayload
	if err := json.Unmarshal([]byte(out), &p); err != nil || p.Tool != "xp" || p.Version == "" {
		t.Errorf("version output %q: %v", out, err)
	}
}
