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
	"errors"
	"fmt"
	"strings"
)

// Kind classifies interpolation errors.
type Kind int

const (
	SyntaxError       Kind = iota + 1 // malformed reference, such as an unterminated ${
	UndefinedVariable                 // reference to a variable not in the environment
	CyclicReference                   // reference chain revisiting a variable
	CommandExecution                  // command substitution failed to run or exited non-zero
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case UndefinedVariable:
		return "undefined variable"
	case CyclicReference:
		return "cyclic reference"
	case CommandExecution:
		return "command execution error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinel errors to check an *Error's Kind using errors.Is.
var (
	ErrSyntax            = errors.New(SyntaxError.String())
	ErrUndefinedVariable = errors.New(UndefinedVariable.String())
	ErrCyclicReference   = errors.New(CyclicReference.String())
	ErrCommandExecution  = errors.New(CommandExecution.String())
)

// Error describes why the value of a particular variable could not be
// interpolated.
type Error struct {
	Name   string   // variable whose value could not be interpolated
	Kind   Kind     // what went wrong
	Reason string   // human-readable description
	Cycle  []string // variables along a reference cycle, the first repeated at the end
	Err    error    // underlying cause, if any
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot interpolate %s, reason: %s", e.Name, e.Reason)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel error matching this error's Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrSyntax:
		return e.Kind == SyntaxError
	case ErrUndefinedVariable:
		return e.Kind == UndefinedVariable
	case ErrCyclicReference:
		return e.Kind == CyclicReference
	case ErrCommandExecution:
		return e.Kind == CommandExecution
	}
	return false
}

func syntaxError(name string, err error) *Error {
	return &Error{Name: name, Kind: SyntaxError, Reason: err.Error(), Err: err}
}

func undefinedError(name string, ref string) *Error {
	return &Error{Name: name, Kind: UndefinedVariable, Reason: "undefined variable " + ref}
}

// cycleError returns an error for the specified cycle, where the first and
// last name are the same.
func cycleError(cycle []string) *Error {
	var reason strings.Builder
	reason.WriteString(cycle[0])
	for idx, name := range cycle[1:] {
		if idx == 0 {
			reason.WriteString(" references ")
		} else {
			reason.WriteString(" which references ")
		}
		reason.WriteString(name)
	}
	return &Error{Name: cycle[0], Kind: CyclicReference, Reason: reason.String(), Cycle: cycle}
}

func commandError(name string, command string, status int, err error) *Error {
	reason := fmt.Sprintf("command failed for variable %s: %q", name, command)
	if err != nil {
		reason += ": " + err.Error()
	} else {
		reason += fmt.Sprintf(" exited with status %d", status)
	}
	return &Error{Name: name, Kind: CommandExecution, Reason: reason, Err: err}
}
