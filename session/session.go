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
	"fmt"

	"github.com/thediveo/envlib"
)

// Exporter exports all variables of an environment into a user session or
// process environment.
type Exporter interface {
	Export(ctx context.Context, env *envlib.Environment) error
}

// Unexporter removes variables from a user session or process environment.
type Unexporter interface {
	Unexport(ctx context.Context, names []string) error
}

// PlatformError reports a variable that couldn't be exported (or removed).
type PlatformError struct {
	Name string
	Err  error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("cannot export %s, reason: %s", e.Name, e.Err.Error())
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}
