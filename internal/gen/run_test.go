package gen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/funvibe/fallible/internal/transform"
)

// writeTree creates files under a temp dir and returns its path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

const okSystem = "package p\n\n//fallible:system\nfunc s() error { return nil }\n"

func TestRun_ResultsInPathOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	files := map[string]string{
		"plain.go": "package p\n",
	}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		files["sub/"+name+".go"] = strings.Replace(okSystem, "func s", "func "+name, 1)
	}
	dir := writeTree(t, files)

	cfg := DefaultConfig()
	cfg.Workers = 2
	results, err := New(cfg).Run(context.Background(), []string{dir + "/..."})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var got []string
	for _, r := range results {
		rel, _ := filepath.Rel(dir, r.Path)
		got = append(got, filepath.ToSlash(rel))
	}
	want := []string{"plain.go", "sub/a.go", "sub/b.go", "sub/c.go", "sub/d.go", "sub/e.go", "sub/f.go"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("results = %v, want %v", got, want)
	}
	if results[0].Changed() {
		t.Error("plain.go should be unchanged")
	}
	for _, r := range results[1:] {
		if !r.Changed() {
			t.Errorf("%s unchanged", r.Path)
		}
	}
}

func TestRun_FailuresDoNotStopOtherFiles(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"good.go": okSystem,
		"bad.go":  "package p\n\n//fallible:system\nfunc s() int { return 0 }\n",
	})

	results, err := New(nil).Run(context.Background(), []string{dir})
	if !errors.Is(err, transform.ErrMalformedSignature) {
		t.Fatalf("err = %v, want ErrMalformedSignature", err)
	}
	if !strings.Contains(err.Error(), "bad.go") {
		t.Errorf("error does not name the file: %v", err)
	}
	if len(results) != 1 || filepath.Base(results[0].Path) != "good.go" {
		t.Errorf("results = %+v, want only good.go", results)
	}
}

func TestRun_Canceled(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := writeTree(t, map[string]string{"a.go": okSystem})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil).Run(ctx, []string{dir})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRun_MissingPath(t *testing.T) {
	_, err := New(nil).Run(context.Background(), []string{filepath.Join(t.TempDir(), "gone")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestWrite(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes differ on windows")
	}
	dir := writeTree(t, map[string]string{"a.go": okSystem, "b.go": "package p\n"})
	path := filepath.Join(dir, "a.go")
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	g := New(nil, WithLogger(zap.New(core)))
	results, err := g.Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, r := range results {
		if err := g.Write(r); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "errorEvents *fallible.Events") {
		t.Errorf("file not rewritten:\n%s", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	entries := logs.FilterMessage("rewrote").All()
	if len(entries) != 1 {
		t.Fatalf("got %d rewrite log entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["file"]; got != path {
		t.Errorf("logged file = %v, want %s", got, path)
	}
}
