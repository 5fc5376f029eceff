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

package interpolate

import (
	"context"

	"github.com/thediveo/envlib"
	"github.com/thediveo/envlib/shell"
)

// Runner runs a command for a command substitution, returning the command's
// standard output and exit status. A non-nil error indicates that the command
// couldn't be run at all or didn't finish properly.
type Runner interface {
	Run(ctx context.Context, command string) (stdout []byte, exitStatus int, err error)
}

// RunnerFunc adapts an ordinary function into a Runner.
type RunnerFunc func(ctx context.Context, command string) ([]byte, int, error)

// Run calls f(ctx, command).
func (f RunnerFunc) Run(ctx context.Context, command string) ([]byte, int, error) {
	return f(ctx, command)
}

// Decision tells the Interpolator how to carry on after an interpolation
// error has been reported.
type Decision int

const (
	// Continue with the other variables, leaving out the offending variable
	// (and all variables depending on it) from the result.
	Continue Decision = iota
	// Abort interpolation, returning the error reported.
	Abort
)

// ErrorHandler is called once for each interpolation error.
type ErrorHandler func(err *Error) Decision

// Interpolator resolves the references to variables and commands inside the
// values of an environment. An Interpolator doesn't keep any state between
// calls, so it can be used concurrently as long as its Runner can.
type Interpolator struct {
	runner Runner
}

// Option configures an Interpolator.
type Option func(*Interpolator)

// WithRunner sets the Runner to use for command substitutions, instead of
// running commands using the default shell.
func WithRunner(r Runner) Option {
	return func(i *Interpolator) {
		i.runner = r
	}
}

// New returns a new Interpolator, configured using the specified options.
func New(opts ...Option) *Interpolator {
	i := &Interpolator{}
	for _, opt := range opts {
		opt(i)
	}
	if i.runner == nil {
		i.runner = shell.New()
	}
	return i
}

// Strict interpolates the values of all variables in the specified
// environment, returning a new environment with the interpolated values. It
// fails with the first *Error encountered, in which case it doesn't return any
// environment. Variables are visited in the order of the environment, and
// each value is scanned from left to right.
func (i *Interpolator) Strict(ctx context.Context, env *envlib.Environment) (*envlib.Environment, error) {
	return i.Reporting(ctx, env, func(*Error) Decision { return Abort })
}

// Reporting interpolates the values of all variables in the specified
// environment, returning a new environment with the interpolated values. Each
// interpolation error is passed to onError, which decides whether to abort or
// to continue. When continuing, the offending variable is left out from the
// resulting environment, and so are all variables depending on it. These
// dependent variables are not reported separately. A nil onError continues
// on all errors.
//
// If onError decides to abort, Reporting returns the error just reported and
// no environment.
func (i *Interpolator) Reporting(ctx context.Context, env *envlib.Environment, onError ErrorHandler) (*envlib.Environment, error) {
	r := newResolver(ctx, i.runner, env, onError)
	for _, name := range env.Names() {
		if err := r.resolve(name); err != nil {
			return nil, err
		}
	}
	return r.result()
}

var defaultInterpolator = New()

// Strict interpolates the specified environment using the default
// Interpolator, running commands using the default shell.
func Strict(ctx context.Context, env *envlib.Environment) (*envlib.Environment, error) {
	return defaultInterpolator.Strict(ctx, env)
}

// Reporting interpolates the specified environment using the default
// Interpolator, running commands using the default shell.
func Reporting(ctx context.Context, env *envlib.Environment, onError ErrorHandler) (*envlib.Environment, error) {
	return defaultInterpolator.Reporting(ctx, env, onError)
}
