// SPDX-License-Identifier: MIT
package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	applog "playbacque/internal/log"
)

// DefaultPath is the decoder binary looked up in PATH.
const DefaultPath = "ffmpeg"

// LaunchError reports that the decoder process could not be started.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch decoder %q: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Launcher starts a decoder with the given arguments and returns its raw PCM
// output. Closing the returned reader stops the decoder.
type Launcher interface {
	Launch(ctx context.Context, args []string) (io.ReadCloser, error)
}

// ExecLauncher runs the decoder as a subprocess.
type ExecLauncher struct {
	Path   string    // Binary to run, DefaultPath when empty
	Stdin  io.Reader // Passed to the decoder, used by PipeSource
	Stderr io.Writer // Decoder diagnostics, os.Stderr when nil
}

// NewExecLauncher returns a launcher running path with this process's stdin
// and stderr.
func NewExecLauncher(path string) *ExecLauncher {
	return &ExecLauncher{Path: path, Stdin: os.Stdin, Stderr: os.Stderr}
}

// Launch starts the subprocess. It is killed when ctx is cancelled, which
// also unblocks a pending read of its output.
func (l *ExecLauncher) Launch(ctx context.Context, args []string) (io.ReadCloser, error) {
	path := l.Path
	if path == "" {
		path = DefaultPath
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = l.Stdin
	cmd.Stderr = l.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.WaitDelay = time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}
	applog.Debugf("Decoder: Started %s (pid %d)", path, cmd.Process.Pid)

	return &process{cmd: cmd, stdout: stdout}, nil
}

// process is the running decoder. Reads come from its stdout.
type process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser

	mu      sync.Mutex
	drained bool
	once    sync.Once
	err     error
}

func (p *process) Read(b []byte) (int, error) {
	n, err := p.stdout.Read(b)
	if err == io.EOF {
		p.mu.Lock()
		p.drained = true
		p.mu.Unlock()
	}
	return n, err
}

// Close kills the decoder unless it has already finished on its own, then
// reaps it. An exit status is only reported for a decoder that ended by
// itself.
func (p *process) Close() error {
	p.once.Do(func() {
		p.mu.Lock()
		drained := p.drained
		p.mu.Unlock()

		if !drained {
			if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				applog.Warnf("Decoder: Failed to kill pid %d: %v", p.cmd.Process.Pid, err)
			}
		}

		err := p.cmd.Wait()
		if drained && err != nil {
			p.err = fmt.Errorf("decoder exited: %w", err)
			return
		}
		applog.Debugf("Decoder: pid %d stopped", p.cmd.Process.Pid)
	})
	return p.err
}
