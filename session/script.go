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

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/thediveo/envlib"

	log "github.com/sirupsen/logrus"
)

// Script exports variables by writing POSIX shell statements to W.
type Script struct {
	W io.Writer
}

var (
	_ Exporter   = (*Script)(nil)
	_ Unexporter = (*Script)(nil)
)

// Export writes an “export NAME='value'” statement for each variable of the
// specified environment. Variables whose names cannot be used in shells are
// skipped and reported.
func (s *Script) Export(ctx context.Context, env *envlib.Environment) error {
	var errs []error
	for _, entry := range env.Entries() {
		if err := s.statement(entry.Name, "export %s=%s\n", entry.Name, quote(entry.Value)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Unexport writes an “unset NAME” statement for each of the named variables.
func (s *Script) Unexport(ctx context.Context, names []string) error {
	var errs []error
	for _, name := range names {
		if err := s.statement(name, "unset %s\n", name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Script) statement(name string, format string, args ...any) error {
	var err error
	if !isShellName(name) {
		err = errors.New("not a valid shell variable name")
	} else {
		_, err = fmt.Fprintf(s.W, format, args...)
	}
	if err != nil {
		log.WithField("name", name).WithError(err).Error("cannot write shell statement")
		return &PlatformError{Name: name, Err: err}
	}
	return nil
}

// quote the value in single quotes, so that the shell doesn't interpret it
// any further.
func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

func isShellName(name string) bool {
	if name == "" {
		return false
	}
	for idx := 0; idx < len(name); idx++ {
		ch := name[idx]
		switch {
		case ch == '_', ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
		case idx > 0 && ch >= '0' && ch <= '9':
		default:
			return false
		}
	}
	return true
}
