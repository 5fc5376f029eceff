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
	"os"

	"github.com/thediveo/envlib"

	log "github.com/sirupsen/logrus"
)

// Process exports variables into the environment of the current process.
type Process struct{}

var (
	_ Exporter   = Process{}
	_ Unexporter = Process{}
)

// Export sets all variables of the specified environment in the environment
// of the current process.
func (Process) Export(ctx context.Context, env *envlib.Environment) error {
	var errs []error
	for _, entry := range env.Entries() {
		if err := os.Setenv(entry.Name, entry.Value); err != nil {
			log.WithField("name", entry.Name).WithError(err).Error("cannot set variable")
			errs = append(errs, &PlatformError{Name: entry.Name, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Unexport removes the named variables from the environment of the current
// process.
func (Process) Unexport(ctx context.Context, names []string) error {
	var errs []error
	for _, name := range names {
		if err := os.Unsetenv(name); err != nil {
			log.WithField("name", name).WithError(err).Error("cannot unset variable")
			errs = append(errs, &PlatformError{Name: name, Err: err})
		}
	}
	return errors.Join(errs...)
}
