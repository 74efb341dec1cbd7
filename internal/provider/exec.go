package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Wait blocks on output pipes held open by
// descendants after the process itself has exited or been killed.
const waitDelay = 2 * time.Second

type processSpec struct {
	providerID string
	path       string
	args       []string
	dir        string
	env        []string
	stdin      string
	timeout    time.Duration
}

type processResult struct {
	stdout string
	stderr string
}

// runProcess starts the command, feeds stdin, and waits for the first of
// exit, cancellation or the deadline. On cancellation or deadline the whole
// process group is killed.
func runProcess(ctx context.Context, proc processSpec) (processResult, error) {
	cmd := exec.Command(proc.path, proc.args...)
	cmd.Dir = proc.dir
	cmd.Env = proc.env
	cmd.Stdin = strings.NewReader(proc.stdin + "\n")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	if err := ctx.Err(); err != nil {
		return processResult{}, &Error{Kind: KindCancelled, Provider: proc.providerID, Message: "cancelled before start", Err: err}
	}
	if err := cmd.Start(); err != nil {
		return processResult{}, &Error{
			Kind:     KindConfiguration,
			Provider: proc.providerID,
			Message:  fmt.Sprintf("start %s", proc.path),
			Err:      err,
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var deadline <-chan time.Time
	if proc.timeout > 0 {
		timer := time.NewTimer(proc.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case err := <-done:
		res := processResult{stdout: stdout.String(), stderr: stderr.String()}
		if err == nil {
			return res, nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, &Error{
				Kind:     KindProcessFailure,
				Provider: proc.providerID,
				Message:  "process failed",
				Stderr:   strings.TrimSpace(res.stderr),
				ExitCode: exitErr.ExitCode(),
				Err:      err,
			}
		}
		return res, &Error{Kind: KindProcessFailure, Provider: proc.providerID, Message: "process failed", ExitCode: -1, Err: err}

	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		return processResult{stdout: stdout.String(), stderr: stderr.String()},
			&Error{Kind: KindCancelled, Provider: proc.providerID, Message: "cancelled", Err: ctx.Err()}

	case <-deadline:
		killProcessGroup(cmd)
		<-done
		return processResult{stdout: stdout.String(), stderr: stderr.String()},
			&Error{Kind: KindTimeout, Provider: proc.providerID, Message: fmt.Sprintf("timed out after %s", proc.timeout)}
	}
}

// timeoutFor converts the configured seconds into a duration, falling back
// to def when unset.
func timeoutFor(seconds float64, def time.Duration) time.Duration {
	if seconds <= 0 {
		return def
	}
	return time.Duration(seconds * float64(time.Second))
}
