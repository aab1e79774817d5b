package main

import (
	"os"
	"strings"
)

// init runs before Bubble Tea and lipgloss touch the terminal.
//
// Lipgloss/termenv background detection can emit OSC/DSR control sequences
// to stdout. They are harmless in a real terminal but end up in piped
// -print output, so non-interactive invocations set CI=1, which termenv
// takes as a signal not to query the terminal.
func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !shouldSuppressTTYQueries(os.Args[1:], os.Getenv("TK_TEST_MODE") != "") {
		return
	}
	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envTest bool) bool {
	if envTest {
		return true
	}
	for _, arg := range args {
		name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		switch name {
		case "print", "version", "help", "h", "format":
			return true
		}
	}
	return false
}
