package utils

import "flag"

// MakePath returns the package to analyze: the first non-flag argument, or
// "hello-world" when there is none.
func MakePath() string {
	if args := flag.Args(); len(args) >= 1 {
		return args[0]
	}
	return "hello-world"
}
