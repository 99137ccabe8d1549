package security

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	MaxStringLength   = 5000
	MaxEmailLength    = 255
	MaxFilenameLength = 255
	MaxSlugLength     = 200
	MaxPhoneLength    = 20
)

var (
	angleBrackets     = regexp.MustCompile(`[<>]`)
	javascriptScheme  = regexp.MustCompile(`(?i)javascript:`)
	inlineHandler     = regexp.MustCompile(`(?i)on\w+\s*=`)
	unsafeFilename    = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	repeatedDots      = regexp.MustCompile(`\.{2,}`)
	nonSlugChars      = regexp.MustCompile(`[^a-z0-9-]`)
	repeatedDashes    = regexp.MustCompile(`-+`)
	nonPhoneChars     = regexp.MustCompile(`[^0-9+]`)
	nonNumberChars    = regexp.MustCompile(`[^0-9.-]`)
	nonIntegerChars   = regexp.MustCompile(`[^0-9-]`)
	leadingFloat      = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
	leadingInteger    = regexp.MustCompile(`^-?\d+`)
	htmlPolicy        = bluemonday.UGCPolicy()
	diacriticStripper = runes.Remove(runes.In(unicode.Mn))
)

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// SanitizeString trims, removes angle brackets, javascript: schemes and inline
// on*= handlers, then caps the result at MaxStringLength.
func SanitizeString(input string) string {
	s := strings.TrimSpace(input)
	s = angleBrackets.ReplaceAllString(s, "")
	s = javascriptScheme.ReplaceAllString(s, "")
	s = inlineHandler.ReplaceAllString(s, "")
	return truncate(s, MaxStringLength)
}

// SanitizeEmail lowercases and trims.
func SanitizeEmail(email string) string {
	return truncate(strings.TrimSpace(strings.ToLower(email)), MaxEmailLength)
}

// SanitizeHTML keeps formatting markup and drops scripts, iframes and event attributes.
func SanitizeHTML(html string) string {
	return htmlPolicy.Sanitize(html)
}

// SanitizeFilename replaces anything outside [a-zA-Z0-9._-] and collapses dot runs.
func SanitizeFilename(filename string) string {
	s := unsafeFilename.ReplaceAllString(filename, "_")
	s = repeatedDots.ReplaceAllString(s, ".")
	return truncate(s, MaxFilenameLength)
}

// stripDiacritics decomposes to NFD and removes combining marks.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, diacriticStripper, norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// SanitizeSlug normalises an arbitrary string into a URL slug.
func SanitizeSlug(slug string) string {
	s := stripDiacritics(strings.ToLower(slug))
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = repeatedDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return truncate(s, MaxSlugLength)
}

// SanitizePhoneNumber keeps digits and '+'.
func SanitizePhoneNumber(phone string) string {
	return truncate(nonPhoneChars.ReplaceAllString(phone, ""), MaxPhoneLength)
}

// SanitizeNumber parses the leading decimal of input after removing everything
// but digits, dots and minus signs. Returns nil when nothing parses.
func SanitizeNumber(input string) *float64 {
	cleaned := nonNumberChars.ReplaceAllString(input, "")
	m := leadingFloat.FindString(cleaned)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(m, "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// SanitizeInteger parses the leading integer of input after removing everything
// but digits and minus signs. Returns nil when nothing parses.
func SanitizeInteger(input string) *int64 {
	cleaned := nonIntegerChars.ReplaceAllString(input, "")
	m := leadingInteger.FindString(cleaned)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// SanitizeURL returns the normalised URL when it is absolute http(s), else "" and false.
func SanitizeURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}
