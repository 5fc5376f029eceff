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
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/thediveo/envlib"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

// fakeShell runs a few well-known commands without spawning any processes and
// remembers the commands it was asked to run.
type fakeShell struct {
	commands []string
}

func (f *fakeShell) Run(ctx context.Context, command string) ([]byte, int, error) {
	f.commands = append(f.commands, command)
	switch {
	case strings.HasPrefix(command, "echo "):
		return []byte(strings.TrimPrefix(command, "echo ") + "\n\n"), 0, nil
	case command == "dollar":
		return []byte("$B"), 0, nil
	case command == "false":
		return nil, 1, nil
	}
	return nil, -1, errors.New("command not found")
}

// environ returns a new environment from the specified name-value pairs, in
// that order.
func environ(nameValues ...string) *envlib.Environment {
	GinkgoHelper()
	entries := []envlib.Entry{}
	for idx := 0; idx < len(nameValues); idx += 2 {
		entries = append(entries, envlib.Entry{Name: nameValues[idx], Value: nameValues[idx+1]})
	}
	return Successful(envlib.FromEntries(entries))
}

var _ = Describe("interpolating environments", func() {

	var sh *fakeShell
	var interp *Interpolator
	ctx := context.Background()

	BeforeEach(func() {
		sh = &fakeShell{}
		interp = New(WithRunner(sh))
	})

	Context("errors", func() {

		It("names the kinds of errors", func() {
			Expect(SyntaxError.String()).To(Equal("syntax error"))
			Expect(CommandExecution.String()).To(Equal("command execution error"))
			Expect(Kind(42).String()).To(Equal("Kind(42)"))
		})

		It("matches sentinels", func() {
			err := error(undefinedError("A", "B"))
			Expect(err).To(MatchError(ErrUndefinedVariable))
			Expect(errors.Is(err, ErrCyclicReference)).To(BeFalse())
			Expect(err).To(MatchError("cannot interpolate A, reason: undefined variable B"))
		})

		It("unwraps the cause of a command failure", func() {
			cause := errors.New("D'OH!")
			err := commandError("A", "foo", -1, cause)
			Expect(err).To(MatchError(cause))
			Expect(err).To(MatchError(ErrCommandExecution))
			Expect(err.Reason).To(Equal(`command failed for variable A: "foo": D'OH!`))
			Expect(commandError("A", "false", 1, nil).Reason).To(Equal(
				`command failed for variable A: "false" exited with status 1`))
		})

	})

	Context("strict", func() {

		It("returns an environment without references unmodified", func() {
			env := environ("FOO", "foo", "BAR", "it's bar{}", "BAZ", "")
			Expect(interp.Strict(ctx, env)).To(
				WithTransform(env.Equal, BeTrue()))
			Expect(sh.commands).To(BeEmpty())
		})

		It("passes through dollars that don't start references", func() {
			env := environ("A", "$$", "B", "price: $5", "C", "$")
			Expect(Successful(interp.Strict(ctx, env)).Map()).To(Equal(map[string]string{
				"A": "$$", "B": "price: $5", "C": "$",
			}))
		})

		It("resolves references transitively", func() {
			env := environ("A", "$B", "B", "${C}!", "C", "c")
			Expect(Successful(interp.Strict(ctx, env)).Map()).To(Equal(map[string]string{
				"A": "c!", "B": "c!", "C": "c",
			}))
		})

		It("disambiguates braced references", func() {
			env := environ("A", "${B}C", "B", "b", "BC", "bc")
			Expect(Successful(interp.Strict(ctx, env)).Map()).To(HaveKeyWithValue("A", "bC"))
			env = environ("A", "$BC", "B", "b", "BC", "bc")
			Expect(Successful(interp.Strict(ctx, env)).Map()).To(HaveKeyWithValue("A", "bc"))
		})

		It("keeps the order of the environment", func() {
			env := environ("Z", "$A", "A", "a", "M", "m")
			Expect(Successful(interp.Strict(ctx, env)).Names()).To(
				HaveExactElements("Z", "A", "M"))
		})

		It("substitutes command output without trailing newlines", func() {
			env := environ("A", "[$(echo hi)]")
			Expect(Successful(interp.Strict(ctx, env)).Map()).To(HaveKeyWithValue("A", "[hi]"))
			Expect(sh.commands).To(HaveExactElements("echo hi"))
		})

		It("interpolates commands before running them", func() {
			env := environ("A", "$(echo $FOO ${BAR})", "FOO", "foo", "BAR", "bar")
			Expect(Successful(interp.Strict(ctx, env)).Map()).To(HaveKeyWithValue("A", "foo bar"))
			Expect(sh.commands).To(HaveExactElements("echo foo bar"))
		})

		It("doesn't rescan substituted text", func() {
			env := environ("A", "$(dollar)", "B", "b", "C", "$A")
			Expect(Successful(interp.Strict(ctx, env)).Map()).To(Equal(map[string]string{
				"A": "$B", "B": "b", "C": "$B",
			}))
		})

		It("runs each command only once", func() {
			env := environ("A", "$C", "B", "$C$C", "C", "$(echo c)")
			Expect(Successful(interp.Strict(ctx, env)).Map()).To(HaveKeyWithValue("B", "cc"))
			Expect(sh.commands).To(HaveExactElements("echo c"))
		})

		It("passes the context to the runner", func() {
			type key struct{}
			ctx := context.WithValue(context.Background(), key{}, "foo")
			var got any
			interp := New(WithRunner(RunnerFunc(func(ctx context.Context, command string) ([]byte, int, error) {
				got = ctx.Value(key{})
				return nil, 0, nil
			})))
			Expect(interp.Strict(ctx, environ("A", "$(bar)"))).Error().NotTo(HaveOccurred())
			Expect(got).To(Equal("foo"))
		})

		It("interpolates concurrently", func() {
			interp := New(WithRunner(RunnerFunc(func(ctx context.Context, command string) ([]byte, int, error) {
				return []byte(strings.TrimPrefix(command, "echo ") + "\n"), 0, nil
			})))
			env := environ("A", "$B-$(echo $C)", "B", "${C}b", "C", "c")
			const workers = 16
			results := make([]*envlib.Environment, workers)
			errs := make([]error, workers)
			var wg sync.WaitGroup
			for idx := 0; idx < workers; idx++ {
				wg.Add(1)
				go func(idx int) {
					defer GinkgoRecover()
					defer wg.Done()
					results[idx], errs[idx] = interp.Strict(ctx, env)
				}(idx)
			}
			wg.Wait()
			for idx := 0; idx < workers; idx++ {
				Expect(errs[idx]).NotTo(HaveOccurred())
				Expect(results[idx].Map()).To(Equal(map[string]string{
					"A": "cb-c", "B": "cb", "C": "c",
				}))
			}
		})

		It("is idempotent", func() {
			env := environ("A", "$B-$(echo x)", "B", "b")
			once := Successful(interp.Strict(ctx, env))
			Expect(interp.Strict(ctx, once)).To(WithTransform(once.Equal, BeTrue()))
		})

		It("resolves very long reference chains", func() {
			const n = 10000
			entries := make([]envlib.Entry, 0, n)
			for idx := 0; idx < n-1; idx++ {
				entries = append(entries, envlib.Entry{
					Name:  fmt.Sprintf("V%d", idx),
					Value: fmt.Sprintf("$V%d", idx+1),
				})
			}
			entries = append(entries, envlib.Entry{Name: fmt.Sprintf("V%d", n-1), Value: "end"})
			env := Successful(envlib.FromEntries(entries))
			result := Successful(interp.Strict(ctx, env))
			Expect(result.Len()).To(Equal(n))
			Expect(result.Map()).To(HaveKeyWithValue("V0", "end"))
		})

		DescribeTable("failing",
			func(nameValues []string, name string, kind error, reason string) {
				result, err := interp.Strict(ctx, environ(nameValues...))
				Expect(result).To(BeNil())
				Expect(err).To(MatchError(kind))
				var ierr *Error
				Expect(errors.As(err, &ierr)).To(BeTrue())
				Expect(ierr.Name).To(Equal(name))
				Expect(ierr.Reason).To(Equal(reason))
			},
			Entry("undefined variable", []string{"A", "x$B"},
				"A", ErrUndefinedVariable, "undefined variable B"),
			Entry("undefined variable in a dependency", []string{"A", "$B", "B", "${C}"},
				"B", ErrUndefinedVariable, "undefined variable C"),
			Entry("undefined variable in a command", []string{"A", "$(echo $B)"},
				"A", ErrUndefinedVariable, "undefined variable B"),
			Entry("first error in order", []string{"A", "$MISSING", "B", "${X"},
				"A", ErrUndefinedVariable, "undefined variable MISSING"),
			Entry("unterminated braces", []string{"A", "${B"},
				"A", ErrSyntax, "unterminated ${"),
			Entry("unterminated command", []string{"A", "$(echo"},
				"A", ErrSyntax, "unterminated $("),
			Entry("empty braces", []string{"A", "${}"},
				"A", ErrSyntax, "missing variable name in ${}"),
			Entry("self reference", []string{"A", "$A"},
				"A", ErrCyclicReference, "A references A"),
			Entry("cycle", []string{"A", "$B", "B", "$A"},
				"A", ErrCyclicReference, "A references B which references A"),
			Entry("longer cycle", []string{"X", "x", "A", "$B", "B", "$(echo $C)", "C", "${A}"},
				"A", ErrCyclicReference, "A references B which references C which references A"),
			Entry("failing command", []string{"A", "$(false)"},
				"A", ErrCommandExecution, `command failed for variable A: "false" exited with status 1`),
			Entry("unknown command", []string{"A", "$(foo)"},
				"A", ErrCommandExecution, `command failed for variable A: "foo": command not found`),
		)

		It("reports the cycle", func() {
			_, err := interp.Strict(ctx, environ("A", "$B", "B", "$C", "C", "$A"))
			var ierr *Error
			Expect(errors.As(err, &ierr)).To(BeTrue())
			Expect(ierr.Cycle).To(HaveExactElements("A", "B", "C", "A"))
		})

		It("doesn't run commands of variables with bad references", func() {
			_, err := interp.Strict(ctx, environ("A", "$(echo a) $B"))
			Expect(err).To(MatchError(ErrUndefinedVariable))
			Expect(sh.commands).To(BeEmpty())
		})

		It("fails deterministically", func() {
			env := environ("A", "$B", "B", "$C", "C", "$A", "D", "$E")
			_, err1 := interp.Strict(ctx, env)
			_, err2 := interp.Strict(ctx, env)
			Expect(err1).To(HaveOccurred())
			Expect(err2).To(Equal(err1))
		})

	})

	Context("reporting", func() {

		var reported []*Error
		var decision Decision
		var collect ErrorHandler

		BeforeEach(func() {
			reported = nil
			decision = Continue
			collect = func(err *Error) Decision {
				reported = append(reported, err)
				return decision
			}
		})

		It("returns all resolvable variables", func() {
			env := environ("A", "$X", "B", "${Y", "C", "ok", "D", "$A", "E", "$C$D")
			result := Successful(interp.Reporting(ctx, env, collect))
			Expect(result.Names()).To(HaveExactElements("C"))
			Expect(reported).To(HaveLen(2))
			Expect(reported[0].Name).To(Equal("A"))
			Expect(reported[0].Kind).To(Equal(UndefinedVariable))
			Expect(reported[1].Name).To(Equal("B"))
			Expect(reported[1].Kind).To(Equal(SyntaxError))
		})

		It("reports a cycle only once", func() {
			env := environ("A", "$B", "B", "$A", "C", "$B", "D", "d")
			result := Successful(interp.Reporting(ctx, env, collect))
			Expect(result.Map()).To(Equal(map[string]string{"D": "d"}))
			Expect(reported).To(HaveLen(1))
			Expect(reported[0].Kind).To(Equal(CyclicReference))
		})

		It("drops variables with failing commands", func() {
			env := environ("A", "$(false)", "B", "$(echo b)")
			result := Successful(interp.Reporting(ctx, env, collect))
			Expect(result.Map()).To(Equal(map[string]string{"B": "b"}))
			Expect(reported).To(HaveLen(1))
			Expect(reported[0]).To(MatchError(ErrCommandExecution))
		})

		It("continues when there is no error handler", func() {
			env := environ("A", "$X", "B", "b")
			Expect(Successful(interp.Reporting(ctx, env, nil)).Map()).To(Equal(map[string]string{
				"B": "b",
			}))
		})

		It("aborts when told so", func() {
			decision = Abort
			env := environ("A", "a", "B", "$X", "C", "${Y")
			result, err := interp.Reporting(ctx, env, collect)
			Expect(result).To(BeNil())
			Expect(err).To(MatchError("cannot interpolate B, reason: undefined variable X"))
			Expect(reported).To(HaveLen(1))
		})

		It("aborts on a cycle when told so", func() {
			decision = Abort
			_, err := interp.Reporting(ctx, environ("A", "$A"), collect)
			Expect(err).To(MatchError(ErrCyclicReference))
		})

	})

	It("runs commands using the default shell", func() {
		env := environ("A", "$(echo $B)", "B", "foo")
		Expect(Successful(Strict(ctx, env)).Map()).To(HaveKeyWithValue("A", "foo"))
		Expect(Successful(Reporting(ctx, environ("A", "$(exit 1)"), nil)).Len()).To(BeZero())
	})

})
