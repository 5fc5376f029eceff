/*
Package interpolate resolves the references inside the values of an
[envlib.Environment] to other variables and to commands, returning a new
environment with the fully resolved values.

The following references are supported inside a value:

	$NAME
	${NAME}
	$(command)

An unbraced NAME starts with a letter or underscore, followed by any number of
letters, digits, or underscores; it ends at the first other character. Use
braces to separate a name from adjacent text, such as in “${NAME}_suffix”.
Inside braces, the name is everything up to the closing brace.

A “$” that doesn't start a reference is kept as is, so “$$” stays “$$” and
“price: $5” stays “price: $5”.

A command substitution runs the command with the (interpolated) text between
the matching parentheses using a [Runner]; by default, this is the [shell]
package's Runner running “/bin/sh -c”. The command's standard output replaces
the reference, with all trailing newlines removed. Substituted values and
command output are never scanned again for references.

# Resolution

Variables may reference each other in any order, so the resolution follows the
references instead: a variable is resolved only after all variables it
references (including those referenced inside its command substitutions) have
been resolved. Each variable is resolved at most once; in particular, each
command runs only once.

# Errors

Resolution fails for a variable when its value is malformed, it references an
undefined variable, it is part of a reference cycle, or one of its commands
fails. [Interpolator.Strict] stops at the first [Error]. In contrast,
[Interpolator.Reporting] hands each error to an [ErrorHandler] which then
decides to either [Continue] or [Abort]. When continuing, the offending variable
is left out from the result, and so are all variables that depend on it,
directly or indirectly; only the root cause gets reported.
*/
package interpolate
