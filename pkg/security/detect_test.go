package security

import (
	"testing"
)

func TestDetectSQLInjection(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"tautology", "admin' OR 1=1", true},
		{"quoted tautology", "x' AND '1'='1'", true},
		{"union select", "1 UNION SELECT password FROM usuarios", true},
		{"union all select", "1 union all select 1", true},
		{"trailing comment", "admin'--", true},
		{"stacked drop", "1; DROP TABLE productos", true},
		{"quote terminator", "abc'; --", true},
		{"block comment", "na/**/me", true},
		{"exec call", "EXEC(xp_cmdshell)", true},
		{"select keyword", "select * from x", true},
		{"plain text", "Zapatillas rojas talle 42", false},
		{"email", "ana@example.com", false},
		{"apostrophe name", "O'Brien", false},
		{"number", "12345", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectSQLInjection(tt.input); got != tt.want {
				t.Errorf("DetectSQLInjection(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDetectXSS(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"script tag", "<script>alert(1)</script>", true},
		{"script with attrs", `<SCRIPT src="x.js">`, true},
		{"iframe", `<iframe src="https://evil">`, true},
		{"javascript uri", "javascript:alert(1)", true},
		{"javascript uri spaced", "javascript :alert(1)", true},
		{"event handler", `<b onclick="x()">`, true},
		{"img onerror", `<img src=x onerror=alert(1)>`, true},
		{"svg onload", `<svg onload=alert(1)>`, true},
		{"css expression", "width: expression(alert(1))", true},
		{"css url javascript", "background:url( 'javascript:alert(1)')", true},
		{"plain text", "Remera de algodon", false},
		{"angle brackets only", "3 < 4 > 2", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectXSS(tt.input); got != tt.want {
				t.Errorf("DetectXSS(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsSuspiciousInput(t *testing.T) {
	if !IsSuspiciousInput("' OR 1=1 --") {
		t.Error("SQL payload should be suspicious")
	}
	if !IsSuspiciousInput("<script>") {
		t.Error("XSS payload should be suspicious")
	}
	if IsSuspiciousInput("hola mundo") {
		t.Error("plain text should not be suspicious")
	}
}

func TestRegexDetectorImplementsThreatDetector(t *testing.T) {
	var d ThreatDetector = NewRegexDetector()

	kinds := Classify(d, "<script>x</script> UNION SELECT 1")
	if len(kinds) != 2 || kinds[0] != ThreatSQLInjection || kinds[1] != ThreatXSS {
		t.Errorf("Classify() = %v, want [sql_injection xss]", kinds)
	}

	if got := Classify(d, "inofensivo"); len(got) != 0 {
		t.Errorf("Classify(clean) = %v, want empty", got)
	}
}
