package security

import (
	"regexp"
)

// Signature sets. Heuristic: false positives and negatives are expected.
var (
	sqlInjectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE)\s+`),
		regexp.MustCompile(`(?i)\b(EXEC|EXECUTE)\s*\(`),
		regexp.MustCompile(`(?i)UNION\s+(ALL\s+)?SELECT`),
		regexp.MustCompile(`(?i)(OR|AND)\s+['"]?\d+['"]?\s*=\s*['"]?\d+['"]?`),
		regexp.MustCompile(`['"]\s*;\s*--`),
		regexp.MustCompile(`(?i)['"]\s*;\s*(DROP|DELETE|UPDATE|INSERT)`),
		regexp.MustCompile(`(?m)--\s*$`),
		regexp.MustCompile(`/\*[\s\S]*?\*/`),
		regexp.MustCompile(`(?i)\bOR\s+['"]?\w+['"]?\s*=\s*['"]?\w+['"]?\s*--`),
		regexp.MustCompile(`(?i);\s*(DROP|DELETE|TRUNCATE|ALTER)\s+`),
	}

	xssPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<script[^>]*>`),
		regexp.MustCompile(`(?i)<iframe[^>]*>`),
		regexp.MustCompile(`(?i)javascript\s*:`),
		regexp.MustCompile(`(?i)on\w+\s*=\s*["']?[^"']*["']?`),
		regexp.MustCompile(`(?i)<img[^>]+onerror\s*=`),
		regexp.MustCompile(`(?i)<svg[^>]*onload\s*=`),
		regexp.MustCompile(`(?i)expression\s*\(`),
		regexp.MustCompile(`(?i)url\s*\(\s*["']?\s*javascript:`),
	}
)

// RegexDetector is the default ThreatDetector, backed by fixed signature lists.
type RegexDetector struct{}

// NewRegexDetector creates the default detector.
func NewRegexDetector() RegexDetector {
	return RegexDetector{}
}

// LooksLikeSQLInjection implements ThreatDetector.
func (RegexDetector) LooksLikeSQLInjection(input string) bool {
	return DetectSQLInjection(input)
}

// LooksLikeXSS implements ThreatDetector.
func (RegexDetector) LooksLikeXSS(input string) bool {
	return DetectXSS(input)
}

// DetectSQLInjection reports whether input matches any SQL injection signature:
// statement keywords, UNION SELECT, tautologies such as OR 1=1, inline comments
// and stacked statements.
func DetectSQLInjection(input string) bool {
	return matchAny(sqlInjectionPatterns, input)
}

// DetectXSS reports whether input matches script or iframe tags, javascript: URIs,
// inline event handlers, or CSS expression()/url(javascript:) payloads.
func DetectXSS(input string) bool {
	return matchAny(xssPatterns, input)
}

// IsSuspiciousInput is DetectSQLInjection || DetectXSS.
func IsSuspiciousInput(input string) bool {
	return DetectSQLInjection(input) || DetectXSS(input)
}

func matchAny(patterns []*regexp.Regexp, input string) bool {
	for _, p := range patterns {
		if p.MatchString(input) {
			return true
		}
	}
	return false
}
