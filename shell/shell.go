// Copyright 2025 by Harald Albrecht
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultShell is the shell used to run commands, unless configured
// otherwise.
const DefaultShell = "/bin/sh"

// DefaultTimeout limits how long a single command may run, unless configured
// otherwise. A zero timeout means no limit.
const DefaultTimeout = 30 * time.Second

// waitDelay bounds waiting for the output of a killed command to drain.
const waitDelay = 2 * time.Second

// Runner runs commands using a shell, capturing their standard output. A
// Runner is safe for concurrent use.
type Runner struct {
	shell   string
	env     []string
	dir     string
	timeout time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithShell sets the path of the shell to run commands with.
func WithShell(path string) Option {
	return func(r *Runner) {
		r.shell = path
	}
}

// WithEnv sets the environment for the commands, in "NAME=value" form. A nil
// env makes commands inherit the environment of the current process.
func WithEnv(env []string) Option {
	return func(r *Runner) {
		r.env = env
	}
}

// WithDir sets the working directory for the commands.
func WithDir(dir string) Option {
	return func(r *Runner) {
		r.dir = dir
	}
}

// WithTimeout limits how long a single command may run; zero disables the
// limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// New returns a new Runner, configured using the specified options.
func New(opts ...Option) *Runner {
	r := &Runner{
		shell:   DefaultShell,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ExecutionError reports a command that couldn't be run or that didn't
// terminate properly, such as when it timed out or got killed by a signal.
// Commands terminating with a non-zero exit status are not execution errors.
type ExecutionError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("cannot execute %q, reason: %s", e.Command, e.Err.Error())
	}
	return fmt.Sprintf("cannot execute %q, reason: %s (%s)", e.Command, e.Err.Error(), e.Stderr)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Run the specified command using the shell, returning the command's output
// and exit status. Commands exceeding the Runner's timeout as well as
// commands whose context gets cancelled are killed together with all their
// child processes.
func (r *Runner) Run(ctx context.Context, command string) ([]byte, int, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, r.shell, "-c", command)
	cmd.Env = r.env
	cmd.Dir = r.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	isolate(cmd)

	err := cmd.Run()
	if stderr.Len() > 0 {
		log.Debugf("command %q stderr: %s", command, stderr.String())
	}
	if err == nil {
		return stdout.Bytes(), 0, nil
	}
	if ctxerr := ctx.Err(); ctxerr != nil {
		return nil, -1, &ExecutionError{Command: command, Stderr: stderr.String(), Err: ctxerr}
	}
	var exiterr *exec.ExitError
	if errors.As(err, &exiterr) && exiterr.Exited() {
		return stdout.Bytes(), exiterr.ExitCode(), nil
	}
	return nil, -1, &ExecutionError{Command: command, Stderr: stderr.String(), Err: err}
}
