package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/treekit/pkg/loader"
)

const sampleYAML = `
- id: 1
  label: root
  children:
    - {id: 2, label: alpha, checked: true}
    - {id: 3, label: beta}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// runTK runs the command with a config path that does not exist, so the
// defaults apply regardless of the user's own config.
func runTK(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	args = append([]string{"-config", filepath.Join(t.TempDir(), "none.yaml")}, args...)
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestParseFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tree.yaml")
	writeFile(t, file, sampleYAML)

	tests := []struct {
		name     string
		args     []string
		wantFile string
		wantDir  string
		wantErr  bool
	}{
		{"positional file", []string{file}, file, "", false},
		{"positional dir", []string{dir}, "", dir, false},
		{"file flag", []string{"-file", file}, file, "", false},
		{"both", []string{"-file", file, "-dir", dir}, "", "", true},
		{"flag and positional", []string{"-file", file, dir}, "", "", true},
		{"missing path", []string{filepath.Join(dir, "nope")}, "", "", true},
		{"watch dir", []string{"-watch", "-dir", dir}, "", "", true},
		{"bad depth", []string{"-depth", "0", file}, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := parseFlags(tt.args, &bytes.Buffer{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if o.file != tt.wantFile || o.dir != tt.wantDir {
				t.Errorf("file=%q dir=%q, want %q %q", o.file, o.dir, tt.wantFile, tt.wantDir)
			}
		})
	}
}

func TestRunPrintFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "tree.yaml")
	writeFile(t, file, sampleYAML)

	code, out, errOut := runTK(t, "-print", file)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	want := "[-] root\n  [x] alpha\n  [ ] beta\n"
	if out != want {
		t.Errorf("output:\n%s\nwant:\n%s", out, want)
	}
}

func TestRunPrintSearch(t *testing.T) {
	file := filepath.Join(t.TempDir(), "tree.yaml")
	writeFile(t, file, sampleYAML)

	code, out, errOut := runTK(t, "-print", "-search", "bet", file)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if want := "[-] root\n  [ ] beta\n"; out != want {
		t.Errorf("output:\n%s\nwant:\n%s", out, want)
	}
}

func TestRunPrintJSONRoundTrips(t *testing.T) {
	file := filepath.Join(t.TempDir(), "tree.yaml")
	writeFile(t, file, sampleYAML)

	code, out, errOut := runTK(t, "-print", "-format", "json", file)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	roots, err := loader.Decode([]byte(out), loader.FormatJSON)
	if err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if len(roots) != 1 || len(roots[0].Children) != 2 || !roots[0].HalfChecked {
		t.Errorf("round trip lost structure: %s", out)
	}
	if roots[0].ID != "1" {
		t.Errorf("integer id came back as %q", roots[0].ID)
	}
}

func TestRunPrintDirDepth(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "b", "c.txt"), "")
	writeFile(t, filepath.Join(dir, "z.txt"), "")
	writeFile(t, filepath.Join(dir, ".hidden"), "")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-depth", "1"}, "[ ] a/\n[ ] z.txt\n"},
		{[]string{"-depth", "3"}, "[ ] a\n  [ ] b\n    [ ] c.txt\n[ ] z.txt\n"},
		{[]string{"-hidden"}, "[ ] a/\n[ ] .hidden\n[ ] z.txt\n"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			args := append([]string{"-print", "-dir", dir}, tt.args...)
			code, out, errOut := runTK(t, args...)
			if code != 0 {
				t.Fatalf("exit %d: %s", code, errOut)
			}
			if out != tt.want {
				t.Errorf("output:\n%s\nwant:\n%s", out, tt.want)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, "{nope")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no source", []string{"-print"}, 2},
		{"bad file", []string{"-print", bad}, 1},
		{"unknown format", []string{"-print", "-format", "xml", dir}, 1},
		{"unknown flag", []string{"-frobnicate"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runTK(t, tt.args...)
			if code != tt.code {
				t.Errorf("exit %d, want %d (%s)", code, tt.code, errOut)
			}
		})
	}
}

func TestRunVersion(t *testing.T) {
	code, out, _ := runTK(t, "-version")
	if code != 0 || !strings.HasPrefix(out, "tk ") {
		t.Errorf("exit %d, output %q", code, out)
	}
}

func TestRunMetrics(t *testing.T) {
	file := filepath.Join(t.TempDir(), "tree.yaml")
	writeFile(t, file, sampleYAML)

	code, _, errOut := runTK(t, "-print", "-metrics", file)
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(errOut, "decode") || !strings.Contains(errOut, "drag_sessions") {
		t.Errorf("metrics output missing entries:\n%s", errOut)
	}
}

func TestShouldSuppressTTYQueries(t *testing.T) {
	tests := []struct {
		args    []string
		envTest bool
		want    bool
	}{
		{nil, false, false},
		{[]string{"-print", "tree.json"}, false, true},
		{[]string{"--version"}, false, true},
		{[]string{"-format=json"}, false, true},
		{[]string{"-dir", "print"}, false, false},
		{[]string{"-search", "x"}, false, false},
		{nil, true, true},
	}
	for _, tt := range tests {
		if got := shouldSuppressTTYQueries(tt.args, tt.envTest); got != tt.want {
			t.Errorf("shouldSuppressTTYQueries(%v, %v) = %v, want %v", tt.args, tt.envTest, got, tt.want)
		}
	}
}
