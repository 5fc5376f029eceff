/*
envlib manages a persistent user environment whose variables may reference
each other as well as command output, and exports it into user sessions.

# Usage

	envlib [command]

# Commands

	check       checks that all variables can be interpolated
	export      interpolates and exports all variables
	list        lists all variables with their raw values
	set         sets a variable in the environment file
	show        shows all variables with their interpolated values
	unset       removes a variable from the environment file

# Flags

	    --debug              enable debug logging
	-f, --file string        environment file (default $ENVLIB_FILE or ~/.config/envlib/environment.yaml)
	-h, --help               help for envlib
	    --timeout duration   timeout for each command substitution (default 30s)
	-v, --version            version for envlib

# Exporting

To export the environment into the current shell:

	eval "$(envlib export)"

On macOS, to export the environment into the user session so that
applications launched from the Finder or Dock inherit it:

	envlib export --to launchctl
*/
package main
