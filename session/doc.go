/*
Package session exports resolved environments so that subsequently started
processes inherit their variables.

Three exporters are available:

  - [Process] sets the variables in the environment of the current process,
    and thus of all its future child processes.
  - [Script] writes POSIX shell “export” statements, to be evaluated by a
    shell, as in:

    eval "$(envlib export)"

  - [Launchctl] sets the variables in the macOS user session using
    “launchctl setenv”, so that applications started from the Finder or Dock
    see them as well.

Exporting is a one-shot operation: an exporter sets as many variables as it
can and reports those it couldn't set; variables set before a failure stay
set.
*/
package session
