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
	"strings"
)

// Scope supplies the values of (already resolved) variables and runs commands
// while segments render their text.
type Scope interface {
	Lookup(name string) (string, bool)
	Run(command string) (string, error)
}

// Segment produces plain text upon request with all variable and command
// references replaced by their values or command output, respectively.
type Segment interface {
	Text(s Scope) (string, error)
}

// Segments is a slice of Segment-implementing objects that produce plain text
// upon request while doing variable and command substitutions.
type Segments []Segment

// Text returns the plain text from the slice of segments, substituting
// variable values and command output as necessary.
func (segs Segments) Text(s Scope) (string, error) {
	var text strings.Builder
	for _, seg := range segs {
		segtext, err := seg.Text(s)
		if err != nil {
			return "", err
		}
		text.WriteString(segtext)
	}
	return text.String(), nil
}

// Variables returns the names of the variables referenced by these segments,
// including references inside command substitutions, in order of their first
// appearance and without duplicates.
func (segs Segments) Variables() []string {
	var names []string
	seen := map[string]struct{}{}
	var walk func(Segments)
	walk = func(segs Segments) {
		for _, seg := range segs {
			switch ref := seg.(type) {
			case Variable:
				if _, ok := seen[ref.Name]; ok {
					continue
				}
				seen[ref.Name] = struct{}{}
				names = append(names, ref.Name)
			case Command:
				walk(ref.Body)
			}
		}
	}
	walk(segs)
	return names
}

// PlainText is just what it says on the tin: plain text, no substitutes. In
// these days, we might call it organic, authentic, whatever.
type PlainText string

// Text returns plain text without any substitutions
func (pt PlainText) Text(Scope) (string, error) {
	return string(pt), nil
}

// Span locates a reference inside the value of the variable it appears in,
// in bytes, with End being exclusive.
type Span struct {
	Start int
	End   int
}

// Variable represents a reference to another variable, either “$FOO” or
// “${FOO}”.
type Variable struct {
	Owner  string // name of the variable whose value contains this reference
	Name   string // name of the referenced variable
	Braced bool
	Span   Span
}

// Text returns the value of the referenced variable, which must have been
// resolved before.
func (v Variable) Text(s Scope) (string, error) {
	value, ok := s.Lookup(v.Name)
	if !ok {
		return "", errors.New("undefined variable " + v.Name)
	}
	return value, nil
}

// Command represents a command substitution “$(command)”. The command text
// might in turn reference variables.
type Command struct {
	Owner  string   // name of the variable whose value contains this reference
	Source string   // the command text as written, without interpolation
	Body   Segments // the parsed command text
	Span   Span
}

// Text interpolates the command text first, then runs the command and returns
// its output.
func (c Command) Text(s Scope) (string, error) {
	command, err := c.Body.Text(s)
	if err != nil {
		return "", err
	}
	return s.Run(command)
}

// parse the value of the named variable into a list of Segment objects if
// possible, otherwise return an error.
func parse(owner string, s string) (Segments, error) {
	return parseSegments(owner, s, 0)
}

// parseSegments parses s, which starts at offset base inside the value of the
// owning variable.
func parseSegments(owner string, s string, base int) (Segments, error) {
	segments := Segments{}
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			segments = append(segments, PlainText(text.String()))
			text.Reset()
		}
	}
	for idx := 0; idx < len(s); idx++ {
		if s[idx] != '$' || idx+1 >= len(s) {
			text.WriteByte(s[idx])
			continue
		}
		switch ch := s[idx+1]; {
		case ch == '{':
			end := strings.IndexByte(s[idx+2:], '}')
			if end < 0 {
				return nil, errors.New("unterminated ${")
			}
			name := s[idx+2 : idx+2+end]
			if name == "" {
				return nil, errors.New("missing variable name in ${}")
			}
			flush()
			segments = append(segments, Variable{
				Owner:  owner,
				Name:   name,
				Braced: true,
				Span:   Span{Start: base + idx, End: base + idx + 2 + end + 1},
			})
			idx += 2 + end
		case ch == '(':
			end := closingParen(s, idx+2)
			if end < 0 {
				return nil, errors.New("unterminated $(")
			}
			body, err := parseSegments(owner, s[idx+2:end], base+idx+2)
			if err != nil {
				return nil, err
			}
			flush()
			segments = append(segments, Command{
				Owner:  owner,
				Source: s[idx+2 : end],
				Body:   body,
				Span:   Span{Start: base + idx, End: base + end + 1},
			})
			idx = end
		case isNameStart(ch):
			// Note: we already know there's at least one valid character in
			// the name.
			name := parseName(s[idx+1:])
			flush()
			segments = append(segments, Variable{
				Owner: owner,
				Name:  name,
				Span:  Span{Start: base + idx, End: base + idx + 1 + len(name)},
			})
			idx += len(name)
		default:
			// A lonely $ that doesn't start a reference is taken literally.
			text.WriteByte('$')
		}
	}
	flush()
	return segments, nil
}

// closingParen returns the index of the parenthesis closing the one just
// before start, taking nested parentheses into account; it returns -1 if
// there is no such closing parenthesis. Parentheses inside braced references
// don't count.
func closingParen(s string, start int) int {
	depth := 1
	for idx := start; idx < len(s); idx++ {
		switch s[idx] {
		case '$':
			if idx+1 < len(s) && s[idx+1] == '{' {
				if end := strings.IndexByte(s[idx+2:], '}'); end >= 0 {
					idx += 2 + end
				}
			}
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return idx
			}
		}
	}
	return -1
}

func isNameStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

// parseName returns the variable name; if the name is "" then no name could be
// found at the beginning of the specified string s.
func parseName(s string) string {
	for idx := 0; idx < len(s); idx++ {
		ch := s[idx]
		if ch == '_' {
			continue
		}
		if ch >= 'a' && ch <= 'z' {
			continue
		}
		if ch >= 'A' && ch <= 'Z' {
			continue
		}
		if idx > 0 && ch >= '0' && ch <= '9' {
			continue
		}
		return s[:idx]
	}
	return s
}
