/*
Package shell runs the commands of command substitutions using a POSIX shell,
capturing their standard output.

A [Runner] runs each command as

	/bin/sh -c COMMAND

with a configurable environment, working directory and timeout. Commands
exiting with a non-zero status are reported through their exit status, while
commands that cannot be started or don't finish in time are reported as
[ExecutionError].
*/
package shell
