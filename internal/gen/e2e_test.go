package gen

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// moduleRoot walks up from the package directory to the go.mod of this
// repository.
func moduleRoot(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(".")
	if err != nil {
		t.Fatal(err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Skip("go.mod not found")
		}
		dir = parent
	}
}

const e2eMain = `package main

import (
	"errors"
	"fmt"

	"github.com/funvibe/fallible/pkg/app"
	"github.com/funvibe/fallible/pkg/fallible"
)

type ShouldFail struct{ Fail bool }

type CustomRes struct{ Runs int }

//fallible:system
func faultySystem(res *ShouldFail) error {
	fail := res.Fail
	res.Fail = !res.Fail
	if fail {
		return errors.New("fail")
	}
	return nil
}

//fallible:system keep
func systemWithCommands(commands *app.Commands, res *CustomRes) error {
	res.Runs++
	commands.InsertResource(&ShouldFail{Fail: false})
	return nil
}

func main() {
	a := app.New().AddPlugin(fallible.Plugin{})
	must(a.InsertResource(&ShouldFail{}))
	must(a.InsertResource(&CustomRes{}))
	must(a.AddSystem(faultySystem))
	must(a.Run(10))

	reports := fallible.Reports(a).DrainPayloads()
	fmt.Println(len(reports), reports[0].SystemName, reports[0].Err)

	must(a.AddSystem(systemWithCommands))
	must(a.Update())
	if err := systemWithCommandsFallible(new(app.Commands), &CustomRes{}); err != nil {
		panic(err)
	}
	res, _ := app.Resource[CustomRes](a)
	fmt.Println(res.Runs)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
`

// TestE2E_RewrittenProgramRuns rewrites a program, builds it against this
// module and checks the reports it collects.
func TestE2E_RewrittenProgramRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go tool not available")
	}
	root := moduleRoot(t)

	dir := t.TempDir()
	goMod := "module example.com/e2e\n\ngo 1.25\n\nrequire github.com/funvibe/fallible v0.0.0\n\nreplace github.com/funvibe/fallible => " + root + "\n"
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(goMod), 0o644); err != nil {
		t.Fatal(err)
	}
	mainPath := filepath.Join(dir, "main.go")
	if err := os.WriteFile(mainPath, []byte(e2eMain), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := New(nil).ProcessFile(mainPath)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if err := New(nil).Write(res); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(goBin, "run", "-mod=mod", ".")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOFLAGS=", "GOWORK=off")
	out, err := cmd.CombinedOutput()
	if err != nil {
		if strings.Contains(string(out), "dial tcp") || strings.Contains(string(out), "GOPROXY") {
			t.Skipf("module download unavailable: %s", out)
		}
		t.Fatalf("go run: %v\n%s\nrewritten:\n%s", err, out, res.Output)
	}

	want := "5 faultySystem fail\n1\n"
	if string(out) != want {
		t.Errorf("program output = %q, want %q", out, want)
	}
}
