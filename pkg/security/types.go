package security

// ThreatKind names a class of hostile input.
type ThreatKind string

const (
	ThreatSQLInjection ThreatKind = "sql_injection"
	ThreatXSS          ThreatKind = "xss"
)

// ThreatDetector is the capability set the request pipeline relies on.
// Implementations must be safe for concurrent use and must never panic.
type ThreatDetector interface {
	LooksLikeSQLInjection(input string) bool
	LooksLikeXSS(input string) bool
}

// Classify returns every threat kind the detector reports for input, SQL first.
func Classify(d ThreatDetector, input string) []ThreatKind {
	var kinds []ThreatKind
	if d.LooksLikeSQLInjection(input) {
		kinds = append(kinds, ThreatSQLInjection)
	}
	if d.LooksLikeXSS(input) {
		kinds = append(kinds, ThreatXSS)
	}
	return kinds
}
