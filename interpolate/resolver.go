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
	"errors"
	"strings"

	"github.com/edwingeng/deque"
	"github.com/thediveo/envlib"

	log "github.com/sirupsen/logrus"
)

// state of a variable (node) in the resolution graph.
type state int

const (
	unvisited state = iota
	visiting        // on the current path, so its dependencies are being resolved
	resolved
	failed
)

// resolver resolves the variables of a single environment. The resolution
// graph is discovered as the resolver goes: each variable is a node, and an
// edge leads from a variable to each variable its value references, including
// references inside command substitutions. Command substitutions themselves
// don't add edges.
type resolver struct {
	ctx     context.Context
	runner  Runner
	env     *envlib.Environment
	onError ErrorHandler

	parsed map[string]Segments
	states map[string]state
	values map[string]string // memoized, fully resolved values
}

// frame of the (explicit) resolution stack, so even very long reference
// chains don't exhaust the goroutine stack.
type frame struct {
	name   string
	deps   []string // edges of the resolution graph, in order of appearance
	next   int      // index of the next dependency to visit
	parent *frame
}

func newResolver(ctx context.Context, runner Runner, env *envlib.Environment, onError ErrorHandler) *resolver {
	return &resolver{
		ctx:     ctx,
		runner:  runner,
		env:     env,
		onError: onError,
		parsed:  map[string]Segments{},
		states:  map[string]state{},
		values:  map[string]string{},
	}
}

// resolve the named variable after resolving all variables it depends on, in
// depth-first order. Dependencies are always resolved before their dependents.
// resolve returns a non-nil error only if interpolation has to be aborted.
func (r *resolver) resolve(root string) error {
	if r.states[root] != unvisited {
		return nil
	}
	stack := deque.NewDeque()
	if err := r.push(stack, root, nil); err != nil {
		return err
	}
	for !stack.Empty() {
		f := stack.Back().(*frame)
		if r.states[f.name] != failed && f.next < len(f.deps) {
			dep := f.deps[f.next]
			f.next++
			if err := r.follow(stack, f, dep); err != nil {
				return err
			}
			continue
		}
		if r.states[f.name] != failed {
			if err := r.evaluate(f.name); err != nil {
				return err
			}
		}
		stack.PopBack()
		if r.states[f.name] == failed && f.parent != nil {
			r.cascade(f.parent.name, f.name)
		}
	}
	return nil
}

// push the named variable onto the resolution stack after parsing its value.
func (r *resolver) push(stack deque.Deque, name string, parent *frame) error {
	r.states[name] = visiting
	stack.PushBack(&frame{name: name, parent: parent})
	value, _ := r.env.Get(name)
	segments, err := parse(name, value)
	if err != nil {
		return r.fail(syntaxError(name, err))
	}
	r.parsed[name] = segments
	stack.Back().(*frame).deps = segments.Variables()
	return nil
}

// follow the edge from the variable in frame f to the variable dep.
func (r *resolver) follow(stack deque.Deque, f *frame, dep string) error {
	if _, ok := r.env.Get(dep); !ok {
		return r.fail(undefinedError(f.name, dep))
	}
	switch r.states[dep] {
	case unvisited:
		return r.push(stack, dep, f)
	case visiting:
		// dep is somewhere on the current path, so walk back up the path to
		// find out about the cycle.
		cycle := []string{dep}
		for p := f; p != nil && p.name != dep; p = p.parent {
			cycle = append(cycle, p.name)
		}
		cycle = append(cycle, dep)
		reverse(cycle[1 : len(cycle)-1])
		if err := r.fail(cycleError(cycle)); err != nil {
			return err
		}
		r.cascade(f.name, dep)
	case failed:
		r.cascade(f.name, dep)
	}
	return nil
}

// evaluate the value of the named variable, all of whose dependencies have
// been resolved at this point.
func (r *resolver) evaluate(name string) error {
	value, err := r.parsed[name].Text(&evaluation{r: r, name: name})
	if err != nil {
		var ierr *Error
		if !errors.As(err, &ierr) {
			ierr = &Error{Name: name, Kind: UndefinedVariable, Reason: err.Error(), Err: err}
		}
		return r.fail(ierr)
	}
	r.states[name] = resolved
	r.values[name] = value
	log.Debugf("resolved %s", name)
	return nil
}

// fail the variable named in the specified error and report the error,
// returning the error if interpolation is to be aborted, otherwise nil.
func (r *resolver) fail(err *Error) error {
	r.states[err.Name] = failed
	decision := Continue
	if r.onError != nil {
		decision = r.onError(err)
	}
	if decision == Abort {
		return err
	}
	log.Debugf("dropping %s, reason: %s", err.Name, err.Reason)
	return nil
}

// cascade the failure of dep to the variable name depending on it; this
// failure is not reported, as it is only a consequence.
func (r *resolver) cascade(name, dep string) {
	if r.states[name] == failed {
		return
	}
	r.states[name] = failed
	log.Debugf("dropping %s, as it depends on %s", name, dep)
}

// result returns the environment of all resolved variables, in their
// original order.
func (r *resolver) result() (*envlib.Environment, error) {
	entries := make([]envlib.Entry, 0, len(r.values))
	for _, name := range r.env.Names() {
		if r.states[name] != resolved {
			continue
		}
		entries = append(entries, envlib.Entry{Name: name, Value: r.values[name]})
	}
	return envlib.FromEntries(entries)
}

// evaluation is the Scope for evaluating the value of a single variable.
type evaluation struct {
	r    *resolver
	name string
}

var _ Scope = (*evaluation)(nil)

// Lookup returns the resolved value of the named variable.
func (e *evaluation) Lookup(name string) (string, bool) {
	if e.r.states[name] != resolved {
		return "", false
	}
	return e.r.values[name], true
}

// Run the specified command, returning its output with any trailing newlines
// removed.
func (e *evaluation) Run(command string) (string, error) {
	log.Debugf("running command %q for %s", command, e.name)
	stdout, status, err := e.r.runner.Run(e.r.ctx, command)
	if err != nil || status != 0 {
		return "", commandError(e.name, command, status, err)
	}
	return strings.TrimRight(string(stdout), "\n"), nil
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
