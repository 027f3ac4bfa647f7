//go:build basic || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a shared ehminer binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getBinary returns the path to the ehminer binary, building it once if needed.
func getBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "ehminer-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binaryPath := filepath.Join(tempDir, "ehminer")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build ehminer: %v", err))
		}

		sharedBinaryPath = binaryPath
	})

	return sharedBinaryPath
}

// writeFixtures writes a catalog and an observation stream into dir.
func writeFixtures(t *testing.T, dir string) (catalogFile, obsFile string) {
	t.Helper()

	catalogFile = filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogFile, []byte(`catalog:
  - domain: kernel
    projects: [linux, freebsd]
  - domain: web
    projects: [nginx]
`), 0o644))

	obs := []string{
		`{"kind":"unit","unit":"/src/kernel/linux/fs/open.c","flags":["-O2"]}`,
		`{"kind":"call","call_name":"open","call_loc":"/src/kernel/linux/fs/open.c:10","call_def_loc":"/usr/include/fcntl.h:20"}`,
		`{"kind":"call","call_name":"open","call_loc":"/src/kernel/freebsd/kern/open.c:7","call_def_loc":"/usr/include/fcntl.h:20"}`,
		`{"kind":"call","call_name":"open","call_loc":"/src/web/nginx/core/ngx.c:99","call_def_loc":"/usr/include/fcntl.h:20"}`,
		`{"kind":"call","call_name":"mystery","call_loc":"/opt/elsewhere/x.c:1","call_def_loc":"/opt/elsewhere/x.h:1"}`,
		`{"kind":"function_call","call_name":"open","call_loc":"/src/kernel/linux/fs/open.c:10","call_def_loc":"/usr/include/fcntl.h:20","call_str":"open(p)"}`,
		`{"kind":"prebranch","call_name":"open","call_loc":"/src/kernel/linux/fs/open.c:10","log_name":"printk","log_def_loc":"/src/kernel/linux/printk.c:1"}`,
		`{"kind":"postbranch","call_name":"open","call_loc":"/src/kernel/linux/fs/open.c:10","log_name":"printk"}`,
		`{"kind":"call_graph","func_name":"do_open","func_def_loc":"/src/kernel/linux/fs/open.c:1","func_size":12,"call_loc":"/src/kernel/linux/fs/open.c:10","call_name":"open","call_def_loc":"/usr/include/fcntl.h:20"}`,
		`{"kind":"branch_call","branch":{"call_name":"open","call_def_loc":"/usr/include/fcntl.h:20","call_id":"/src/kernel/linux/fs/open.c:10","call_str":"open(p)","call_return":["fd"],"expr_strs":["fd < 0"],"path_numbers":[0],"depth":1,"log_name":"printk","log_id":"/src/kernel/linux/fs/open.c:11"}}`,
	}
	obsFile = filepath.Join(dir, "obs.jsonl")
	require.NoError(t, os.WriteFile(obsFile, []byte(strings.Join(obs, "\n")+"\n"), 0o644))
	return catalogFile, obsFile
}

// runCommand runs the ehminer binary with env and returns its stdout.
func runCommand(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getBinary(), args...)
	cmd.Dir = "../" // Run from project root
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), stdout.String(), stderr.String())
		return stdout.String(), err
	}
	return stdout.String(), nil
}
