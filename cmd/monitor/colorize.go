//go:build !tinygo

package main

import "strings"

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[1;31m"
	ansiYellow = "\x1b[33m"
	ansiGreen  = "\x1b[32m"
	ansiCyan   = "\x1b[36m"
	ansiDim    = "\x1b[2m"
)

var prefixColors = []struct {
	prefix string
	color  string
}{
	{"halt:", ansiRed},
	{"jumpstart:", ansiYellow},
	{"app:", ansiGreen},
	{"reactor:", ansiCyan},
	{"executor:", ansiDim},
	{"boot:", ansiDim},
}

// colorize wraps a log line in the colour of its component prefix.
func colorize(line string) string {
	trimmed := strings.TrimRight(line, "\r")
	for _, pc := range prefixColors {
		if strings.HasPrefix(trimmed, pc.prefix) {
			return pc.color + trimmed + ansiReset
		}
	}
	return trimmed
}
