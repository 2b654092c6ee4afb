package position

import (
	"regexp"
	"strings"
	"unicode"
)

// gradeQualifierSuffix matches the trailing qualifiers that do not change a
// grade's pay value: collective-agreement names (TV-L, TVöD), transition
// allowance markers (Ü, UE) and the civil-servant "a.Z." marker.
var gradeQualifierSuffix = regexp.MustCompile(`(TVL|TVÖD|TV-L|TVOED|UE|Ü|A\.Z\.)$`)

// NormalizeGrade maps a raw grade code to the key used everywhere grades are
// compared: whitespace removed, upper-cased, known qualifiers stripped.
//
//	"E 13"     -> "E13"
//	"e13 TV-L" -> "E13"
//	"A13 a.Z." -> "A13"
//	"E13A"     -> "E13A" (sub-grades stay distinct)
//
// Qualifiers are stripped until none is left so that the result is stable
// under repeated normalization.
func NormalizeGrade(code string) string {
	if strings.TrimSpace(code) == "" {
		return ""
	}
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToUpper(code))

	for {
		stripped := gradeQualifierSuffix.ReplaceAllString(normalized, "")
		if stripped == normalized {
			return normalized
		}
		normalized = stripped
	}
}
