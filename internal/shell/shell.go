// Package shell runs local commands for the provisioner, streaming their
// combined output as it arrives.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"
	"github.com/savaki/abbey/internal/errors"
)

// Runner executes commands through sh -c. With DryRun set the command is
// printed to Err instead of executed.
type Runner struct {
	DryRun bool
	Out    io.Writer // command output; stdout by default
	Err    io.Writer // dry run notices; stderr by default
}

func (r Runner) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

func (r Runner) errOut() io.Writer {
	if r.Err == nil {
		return os.Stderr
	}
	return r.Err
}

// Run blocks until cmd exits. A non-zero exit status is reported as a remote
// error carrying the exit code.
func (r Runner) Run(ctx context.Context, cmd string) error {
	const op = "run command"

	if r.DryRun {
		_, err := fmt.Fprintf(r.errOut(), "would have run: %s\n", cmd)
		return err
	}

	out := r.out()

	zerolog.Ctx(ctx).Debug().Str("cmd", cmd).Msg("Running command")

	c := exec.CommandContext(ctx, "sh", "-c", cmd)
	pr, pw := io.Pipe()
	c.Stdout = pw
	c.Stderr = pw

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			fmt.Fprintln(out, scanner.Text())
		}
		// drain anything left after an oversized line
		_, _ = io.Copy(io.Discard, pr)
	}()

	err := c.Start()
	if err != nil {
		pw.Close()
		wg.Wait()
		return errors.Config(op, fmt.Errorf("failed to start %q: %w", cmd, err))
	}

	err = c.Wait()
	pw.Close()
	wg.Wait()

	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return errors.Remote(op, &ExitError{Cmd: cmd, Code: exitErr.ExitCode()})
	}
	return errors.Remote(op, fmt.Errorf("%w: %s: %w", errors.ErrRemoteCommandFailed, cmd, err))
}

// ExitError reports a command that exited with a non-zero status
type ExitError struct {
	Cmd  string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: %q exited with code %d", errors.ErrRemoteCommandFailed, e.Cmd, e.Code)
}

func (e *ExitError) Unwrap() error {
	return errors.ErrRemoteCommandFailed
}
