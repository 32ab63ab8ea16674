package e2e

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

const buildTimeout = 2 * time.Minute

// BuildStressBinary compiles the cmd/estressador entrypoint and returns the binary path.
func BuildStressBinary(tb testing.TB, repoRoot string) string {
	tb.Helper()

	if repoRoot == "" {
		tb.Fatal("repository root must be provided")
	}

	binaryPath := filepath.Join(tb.TempDir(), "estressador")

	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "build", "-o", binaryPath, "./cmd/estressador")
	cmd.Dir = repoRoot

	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")

	output, err := cmd.CombinedOutput()
	if err != nil {
		tb.Fatalf("build estressador binary: %v\n%s", err, output)
	}

	return binaryPath
}
