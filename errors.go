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

import "fmt"

// FormatError reports malformed structured input, such as a record lacking a
// name or a duplicate name.
type FormatError struct {
	Index  int    // index of the offending record
	Name   string // name of the offending variable, if known
	Reason string
}

func (e *FormatError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("malformed environment entry #%d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("malformed environment entry #%d %q: %s", e.Index, e.Name, e.Reason)
}
