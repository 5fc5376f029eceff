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
	"os/exec"
	"strings"

	"github.com/thediveo/envlib"

	log "github.com/sirupsen/logrus"
)

// DefaultLaunchctl is the launchctl binary used unless configured otherwise.
const DefaultLaunchctl = "launchctl"

// Launchctl exports variables into the macOS user session, so that all
// processes launched later by launchd inherit them.
type Launchctl struct {
	Path string // path of the launchctl binary; defaults to DefaultLaunchctl.
}

var (
	_ Exporter   = (*Launchctl)(nil)
	_ Unexporter = (*Launchctl)(nil)
)

// Export sets each variable of the specified environment in the user session.
func (l *Launchctl) Export(ctx context.Context, env *envlib.Environment) error {
	var errs []error
	for _, entry := range env.Entries() {
		if err := l.launchctl(ctx, entry.Name, "setenv", entry.Name, entry.Value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Unexport removes the named variables from the user session.
func (l *Launchctl) Unexport(ctx context.Context, names []string) error {
	var errs []error
	for _, name := range names {
		if err := l.launchctl(ctx, name, "unsetenv", name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Launchctl) launchctl(ctx context.Context, name string, args ...string) error {
	path := l.Path
	if path == "" {
		path = DefaultLaunchctl
	}
	out, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		log.WithField("name", name).WithError(err).Errorf("launchctl %s failed", args[0])
		return &PlatformError{Name: name, Err: err}
	}
	log.Debugf("launchctl %s %s", args[0], name)
	return nil
}
