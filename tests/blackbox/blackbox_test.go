//go:build blackbox

package blackbox

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var binscanBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "binscan-blackbox-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binscanBin = filepath.Join(tmp, "binscan")
	os.Unsetenv("OANDA_TOKEN")

	// Build the binary once for all tests.
	cmd := exec.Command("go", "build", "-o", binscanBin, "../../cmd/binscan")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

func run(t *testing.T, args ...string) string {
	t.Helper()

	out, err := exec.Command(binscanBin, args...).CombinedOutput()
	if err != nil {
		t.Fatalf("command failed: %v\nargs: %v\noutput:\n%s", err, args, string(out))
	}
	return string(out)
}

// runFail runs a command that is expected to exit non-zero.
func runFail(t *testing.T, args ...string) string {
	t.Helper()

	out, err := exec.Command(binscanBin, args...).CombinedOutput()
	if err == nil {
		t.Fatalf("command succeeded, expected failure\nargs: %v\noutput:\n%s", args, string(out))
	}
	return string(out)
}
