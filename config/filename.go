package config

import (
	"strings"
	"unicode"
)

// illegal in file names on at least one of the supported systems
const illegalFileNameChars = `<>:"/\|?*`

// CleanFileName removes characters which are not allowed in file names, leading
// dots and surrounding spaces. Result is the same on every OS so produced trees
// could be moved between systems.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if sym == 0 || unicode.IsControl(sym) || strings.ContainsRune(illegalFileNameChars, sym) {
			return -1
		}
		return sym
	}, in)
	return strings.TrimRight(strings.TrimLeft(strings.TrimSpace(out), "."), ". ")
}
