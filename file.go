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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	cp "github.com/otiai10/copy"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// FileEnvVar names the environment variable that, when set, overrides the
// default location of the persistent environment file.
const FileEnvVar = "ENVLIB_FILE"

// defaultFile is the location of the persistent environment file, unless
// overridden by FileEnvVar.
const defaultFile = "~/.config/envlib/environment.yaml"

// DefaultPath returns the path of the file that contains the persistent
// environment, with any leading “~” expanded.
func DefaultPath() (string, error) {
	path := os.Getenv(FileEnvVar)
	if path == "" {
		path = defaultFile
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("cannot determine environment file path, reason: %w", err)
	}
	return expanded, nil
}

// Load reads the environment from the specified YAML (or JSON) file. See
// Decode for the accepted structures.
func Load(path string) (*Environment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read environment, reason: %w", err)
	}
	defer f.Close()
	env, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("cannot load environment from %q, reason: %w", path, err)
	}
	log.Debugf("loaded %d variables from %q", env.Len(), path)
	return env, nil
}

// Decode reads an environment from the specified reader. The YAML document
// must either be a mapping of variable names to their values:
//
//	FOO: foo
//	BAR: $FOO/bar
//
// or a sequence of mappings, each with a name and a value:
//
//	- name: FOO
//	  value: foo
//
// In both cases the order of variables is kept. An empty document results in
// an empty environment.
func Decode(r io.Reader) (*Environment, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return FromEntries(nil)
		}
		return nil, fmt.Errorf("malformed environment, reason: %w", err)
	}
	node := &doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return FromEntries(nil)
		}
		node = node.Content[0]
	}
	var entries []Entry
	var err error
	switch node.Kind {
	case yaml.MappingNode:
		entries, err = mappingEntries(node)
	case yaml.SequenceNode:
		entries, err = sequenceEntries(node)
	case yaml.ScalarNode:
		if node.Tag != "!!null" {
			return nil, &FormatError{Reason: "neither a mapping nor a sequence"}
		}
	default:
		return nil, &FormatError{Reason: "neither a mapping nor a sequence"}
	}
	if err != nil {
		return nil, err
	}
	return FromEntries(entries)
}

// mappingEntries returns the entries of a name-value mapping in document
// order.
func mappingEntries(node *yaml.Node) ([]Entry, error) {
	entries := make([]Entry, 0, len(node.Content)/2)
	for idx := 0; idx+1 < len(node.Content); idx += 2 {
		key, value := node.Content[idx], node.Content[idx+1]
		if key.Kind != yaml.ScalarNode {
			return nil, &FormatError{Index: idx / 2, Reason: "name is not a string"}
		}
		name, err := scalarText(idx/2, "", key)
		if err != nil {
			return nil, err
		}
		v, err := scalarValue(idx/2, name, value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Name: name, Value: v})
	}
	return entries, nil
}

// sequenceEntries returns the entries of a sequence of name-value records.
func sequenceEntries(node *yaml.Node) ([]Entry, error) {
	entries := make([]Entry, 0, len(node.Content))
	for idx, record := range node.Content {
		if record.Kind != yaml.MappingNode {
			return nil, &FormatError{Index: idx, Reason: "record is not a mapping"}
		}
		var name, value *string
		for fidx := 0; fidx+1 < len(record.Content); fidx += 2 {
			key, field := record.Content[fidx], record.Content[fidx+1]
			switch key.Value {
			case "name":
				if field.Kind != yaml.ScalarNode || field.Tag == "!!null" {
					return nil, &FormatError{Index: idx, Reason: "name is not a string"}
				}
				n, err := scalarText(idx, "", field)
				if err != nil {
					return nil, err
				}
				name = &n
			case "value":
				v, err := scalarValue(idx, "", field)
				if err != nil {
					return nil, err
				}
				value = &v
			}
		}
		if name == nil {
			return nil, &FormatError{Index: idx, Reason: "missing name"}
		}
		if value == nil {
			return nil, &FormatError{Index: idx, Name: *name, Reason: "missing value"}
		}
		entries = append(entries, Entry{Name: *name, Value: *value})
	}
	return entries, nil
}

// scalarValue returns the textual value of a scalar node; other nodes as well
// as null values aren't allowed.
func scalarValue(idx int, name string, node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", &FormatError{Index: idx, Name: name, Reason: "value is not a string"}
	}
	if node.Tag == "!!null" {
		return "", &FormatError{Index: idx, Name: name, Reason: "missing value"}
	}
	return scalarText(idx, name, node)
}

// scalarText returns the text of a scalar node. Encoding writes strings that
// aren't valid UTF-8 as base64-encoded “!!binary” scalars, so these get
// decoded back into their original bytes.
func scalarText(idx int, name string, node *yaml.Node) (string, error) {
	if node.ShortTag() != "!!binary" {
		return node.Value, nil
	}
	var text string
	if err := node.Decode(&text); err != nil {
		return "", &FormatError{Index: idx, Name: name, Reason: "malformed binary value"}
	}
	return text, nil
}

// Encode writes the environment to the specified writer as a YAML sequence of
// name-value records, in order.
func (e *Environment) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(e.Entries()); err != nil {
		return fmt.Errorf("cannot write environment, reason: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("cannot write environment, reason: %w", err)
	}
	return nil
}

// Save writes the environment to the specified file, creating any missing
// parent directories. The previous file contents, if any, are kept in a backup
// file with a “~” appended to its name. The new contents are first written to
// a temporary file that then replaces the original file, keeping its
// permissions; new files get 0644.
func (e *Environment) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create environment directory, reason: %w", err)
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
		if err := cp.Copy(path, path+"~", cp.Options{PreserveTimes: true}); err != nil {
			return fmt.Errorf("cannot back up environment, reason: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".envlib-*")
	if err != nil {
		return fmt.Errorf("cannot save environment, reason: %w", err)
	}
	defer os.Remove(tmp.Name()) // fails silently after successful rename.
	err = e.Encode(tmp)
	if err == nil {
		err = tmp.Chmod(mode)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("cannot save environment, reason: %w", err)
	}
	log.Debugf("saved %d variables to %q", e.Len(), path)
	return nil
}
