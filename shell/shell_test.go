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

package shell

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thediveo/envlib/test/grab"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gbytes"
)

var _ = Describe("running commands", func() {

	ctx := context.Background()

	It("defaults", func() {
		r := New()
		Expect(r.shell).To(Equal(DefaultShell))
		Expect(r.timeout).To(Equal(DefaultTimeout))
		Expect(r.env).To(BeNil())
	})

	It("returns a command's output", func() {
		stdout, status, err := New().Run(ctx, "echo hello; echo world")
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(BeZero())
		Expect(string(stdout)).To(Equal("hello\nworld\n"))
	})

	It("returns a command's exit status", func() {
		stdout, status, err := New().Run(ctx, "echo foo; exit 42")
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(42))
		Expect(string(stdout)).To(Equal("foo\n"))
	})

	It("logs stderr instead of returning it", func() {
		buff := NewBuffer()
		DeferCleanup(grab.Log(buff, logrus.DebugLevel))
		stdout, _, err := New().Run(ctx, "echo D\\'OH; echo oops 1>&2")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(stdout)).To(Equal("D'OH\n"))
		Expect(buff).To(Say(`stderr: oops`))
	})

	It("runs commands with the specified environment", func() {
		stdout, _, err := New(WithEnv([]string{"FOO=bar"})).Run(ctx, "echo \"$FOO\"")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(stdout)).To(Equal("bar\n"))
	})

	It("runs commands in the specified directory", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "canary"), nil, 0o644)).To(Succeed())
		stdout, _, err := New(WithDir(dir)).Run(ctx, "ls")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(stdout)).To(Equal("canary\n"))
	})

	It("reports a missing shell", func() {
		stdout, status, err := New(WithShell("/nonexisting/sh")).Run(ctx, "echo foo")
		Expect(stdout).To(BeNil())
		Expect(status).To(Equal(-1))
		var eerr *ExecutionError
		Expect(errors.As(err, &eerr)).To(BeTrue())
		Expect(eerr.Command).To(Equal("echo foo"))
		Expect(err).To(MatchError(ContainSubstring(`cannot execute "echo foo", reason:`)))
	})

	It("kills commands taking too long, including their children", func() {
		start := time.Now()
		_, status, err := New(WithTimeout(200*time.Millisecond)).Run(ctx, "sleep 30 & sleep 30; wait")
		Expect(time.Since(start)).To(BeNumerically("<", 10*time.Second))
		Expect(status).To(Equal(-1))
		Expect(err).To(MatchError(context.DeadlineExceeded))
		Expect(err).To(MatchError(ContainSubstring("cannot execute")))
	})

	It("doesn't run commands with a cancelled context", func() {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		_, status, err := New().Run(ctx, "echo foo")
		Expect(status).To(Equal(-1))
		Expect(err).To(MatchError(context.Canceled))
	})

	It("runs without a time limit", func() {
		Expect(New(WithTimeout(0)).Run(ctx, "true")).Error().NotTo(HaveOccurred())
	})

})

var _ = Describe("execution errors", func() {

	It("includes stderr", func() {
		err := &ExecutionError{Command: "foo", Stderr: "bar", Err: errors.New("D'OH!")}
		Expect(err.Error()).To(Equal(`cannot execute "foo", reason: D'OH! (bar)`))
		Expect(errors.Unwrap(err)).To(MatchError("D'OH!"))
	})

})
