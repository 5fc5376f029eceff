/*
Package envlib manages a persistent set of environment variables whose values
may reference each other as well as the output of commands.

An [Environment] is an immutable, ordered mapping from variable names to
values. Environments are either built from Go maps and entry lists, or loaded
from YAML (or JSON) files using [Load]; [Environment.Save] writes them back.

Values may contain references in a shell-like syntax:

	$FOO
	${FOO}
	$(command)

Resolving these references is the job of the [interpolate] package, which
produces a new Environment with all references expanded. Exporting such a
resolved Environment into a user session is handled by the [session] package.

[interpolate]: https://pkg.go.dev/github.com/thediveo/envlib/interpolate
[session]: https://pkg.go.dev/github.com/thediveo/envlib/session
*/
package envlib
