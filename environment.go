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

package envlib

import (
	"sort"
	"strings"

	"golang.org/x/exp/slices"
)

// Entry is a single named environment variable together with its (raw or
// interpolated) value.
type Entry struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Environment is an immutable set of environment variables that remembers
// the order in which its variables were originally given. Environments are
// safe for concurrent use as nobody ever changes them after construction.
type Environment struct {
	names  []string
	values map[string]string
}

// New returns an Environment with the variables from the specified map. As Go
// maps don't have any order, the variables are ordered lexically by their
// names.
func New(vars map[string]string) (*Environment, error) {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{Name: name, Value: vars[name]})
	}
	return FromEntries(entries)
}

// FromEntries returns an Environment with copies of the specified entries,
// keeping their order. It returns a *FormatError if an entry lacks a (valid)
// name or if a name appears more than once.
func FromEntries(entries []Entry) (*Environment, error) {
	e := &Environment{
		names:  make([]string, 0, len(entries)),
		values: make(map[string]string, len(entries)),
	}
	for idx, entry := range entries {
		if err := validName(idx, entry.Name); err != nil {
			return nil, err
		}
		if _, ok := e.values[entry.Name]; ok {
			return nil, &FormatError{Index: idx, Name: entry.Name, Reason: "duplicate name"}
		}
		e.names = append(e.names, entry.Name)
		e.values[entry.Name] = entry.Value
	}
	return e, nil
}

func validName(idx int, name string) error {
	if name == "" {
		return &FormatError{Index: idx, Reason: "missing name"}
	}
	if strings.IndexByte(name, 0) >= 0 {
		return &FormatError{Index: idx, Name: name, Reason: "name contains NUL"}
	}
	return nil
}

// Entries returns the variables of this Environment in their original order,
// suitable for writing them back.
func (e *Environment) Entries() []Entry {
	entries := make([]Entry, 0, len(e.names))
	for _, name := range e.names {
		entries = append(entries, Entry{Name: name, Value: e.values[name]})
	}
	return entries
}

// Get returns the value of the named variable and true, or "" and false if
// there is no such variable.
func (e *Environment) Get(name string) (string, bool) {
	value, ok := e.values[name]
	return value, ok
}

// Names returns the variable names in their original order.
func (e *Environment) Names() []string {
	return slices.Clone(e.names)
}

// Len returns the number of variables.
func (e *Environment) Len() int {
	return len(e.names)
}

// Equal returns true if both Environments contain the same variables with the
// same values, regardless of their order.
func (e *Environment) Equal(other *Environment) bool {
	if e == nil || other == nil {
		return e == other
	}
	if len(e.values) != len(other.values) {
		return false
	}
	for name, value := range e.values {
		if othervalue, ok := other.values[name]; !ok || othervalue != value {
			return false
		}
	}
	return true
}

// Map returns the variables as a name-value map.
func (e *Environment) Map() map[string]string {
	m := make(map[string]string, len(e.values))
	for name, value := range e.values {
		m[name] = value
	}
	return m
}

// Environ returns the variables in the "NAME=value" form used by os.Environ
// and exec.Cmd.Env.
func (e *Environment) Environ() []string {
	environ := make([]string, 0, len(e.names))
	for _, name := range e.names {
		environ = append(environ, name+"="+e.values[name])
	}
	return environ
}

// With returns a new Environment with the named variable set to the
// specified value. An already existing variable keeps its position, otherwise
// the new variable is appended.
func (e *Environment) With(name, value string) (*Environment, error) {
	if err := validName(len(e.names), name); err != nil {
		return nil, err
	}
	entries := e.Entries()
	idx := slices.IndexFunc(entries, func(entry Entry) bool { return entry.Name == name })
	if idx < 0 {
		entries = append(entries, Entry{Name: name, Value: value})
	} else {
		entries[idx].Value = value
	}
	return FromEntries(entries)
}

// Without returns a new Environment lacking the named variable. It is not an
// error to remove a variable that doesn't exist.
func (e *Environment) Without(name string) *Environment {
	entries := slices.DeleteFunc(e.Entries(), func(entry Entry) bool { return entry.Name == name })
	without, _ := FromEntries(entries) // cannot fail, as e was valid.
	return without
}
