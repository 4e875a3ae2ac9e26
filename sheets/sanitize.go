package sheets

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// reservedChars are rejected in file names on at least one common filesystem
const reservedChars = `/\:*?"<>|`

var windowsDeviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeName turns a table name into a file name without path separators or
// reserved characters, e.g. "A/B:C" becomes "ABC". Letters of any script are kept.
func SanitizeName(name string) string {
	name = norm.NFC.String(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if strings.ContainsRune(reservedChars, r) || unicode.IsControl(r) || r == unicode.ReplacementChar {
			continue
		}
		b.WriteRune(r)
	}

	sanitized := strings.TrimFunc(b.String(), func(r rune) bool {
		return unicode.IsSpace(r) || r == '.'
	})

	if sanitized == "" {
		return "table"
	}

	stem, _, _ := strings.Cut(sanitized, ".")
	if windowsDeviceNames[strings.ToUpper(strings.TrimSpace(stem))] {
		sanitized = "_" + sanitized
	}

	return sanitized
}
