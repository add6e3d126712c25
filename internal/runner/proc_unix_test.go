//go:build unix

package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_TimeoutKillsDescendantsIgnoringTerm(t *testing.T) {
	r := New(&Config{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		KillGrace: time.Second,
	})

	dir := t.TempDir()
	cmd := shell(`trap '' TERM; sleep 30 & echo $! > child.pid; wait`)
	cmd.Dir = dir

	start := time.Now()
	_, err := r.Run(context.Background(), cmd, 100*time.Millisecond)
	elapsed := time.Since(start)

	require.Error(t, err)
	var timeoutErr *domain.TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Less(t, elapsed, 800*time.Millisecond, "timeout waited for the kill grace")

	var pid int
	require.Eventually(t, func() bool {
		raw, readErr := os.ReadFile(filepath.Join(dir, "child.pid"))
		if readErr != nil {
			return false
		}
		pid, readErr = strconv.Atoi(strings.TrimSpace(string(raw)))
		return readErr == nil && pid > 0
	}, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return !processAlive(pid) },
		3*time.Second, 50*time.Millisecond, "descendant ignoring SIGTERM survived the run")
}

func TestRunner_ParentCancelResolvesBeforeKillGrace(t *testing.T) {
	r := New(&Config{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		KillGrace: 2 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	_, err := r.Run(ctx, shell(`trap '' TERM; sleep 30 & wait`), 10*time.Second)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), time.Second)
}

// processAlive treats zombies as dead; an orphan may wait on a non-reaping init.
func processAlive(pid int) bool {
	if runtime.GOOS == "linux" {
		stat, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
		if err != nil {
			return false
		}
		fields := strings.Fields(string(stat[strings.LastIndexByte(string(stat), ')')+1:]))
		return len(fields) > 0 && fields[0] != "Z"
	}
	return syscall.Kill(pid, 0) == nil
}
