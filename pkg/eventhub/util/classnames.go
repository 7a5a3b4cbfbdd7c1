package util

import (
	"slices"
	"strings"
)

// ClassNames joins the keys whose value is true with single spaces.
// Keys are sorted so the output is stable:
//
//	ClassNames(map[string]bool{"il-dot": false, "btn": true, "btn-default": true})
//	// => "btn btn-default"
func ClassNames(classes map[string]bool) string {
	names := make([]string, 0, len(classes))
	for name, on := range classes {
		if on && name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return strings.Join(names, " ")
}
