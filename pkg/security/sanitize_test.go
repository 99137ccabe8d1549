package security

import (
	"strings"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hola  ", "hola"},
		{"<b>negrita</b>", "bnegrita/b"},
		{"javascript:alert(1)", "alert(1)"},
		{`img onerror=alert(1)`, "img alert(1)"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeString(tt.input); got != tt.want {
			t.Errorf("SanitizeString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	long := strings.Repeat("a", MaxStringLength+100)
	if got := SanitizeString(long); len(got) != MaxStringLength {
		t.Errorf("SanitizeString(long) length = %d, want %d", len(got), MaxStringLength)
	}
}

func TestSanitizeEmail(t *testing.T) {
	if got := SanitizeEmail("  Ana@Example.COM "); got != "ana@example.com" {
		t.Errorf("SanitizeEmail() = %q", got)
	}
}

func TestSanitizeHTML(t *testing.T) {
	in := `<p onclick="steal()">Hola <strong>mundo</strong></p><script>alert(1)</script><iframe src="x"></iframe>`
	got := SanitizeHTML(in)

	if strings.Contains(got, "script") || strings.Contains(got, "iframe") || strings.Contains(got, "onclick") {
		t.Errorf("SanitizeHTML() kept dangerous markup: %q", got)
	}
	if !strings.Contains(got, "<strong>mundo</strong>") {
		t.Errorf("SanitizeHTML() dropped formatting: %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"foto perfil.png", "foto_perfil.png"},
		{"../../etc/passwd", "._._etc_passwd"},
		{"a....b.jpg", "a.b.jpg"},
		{"ok-name_1.webp", "ok-name_1.webp"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.input); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Camión Eléctrico", "camion-electrico"},
		{"--Hola__Mundo--", "hola-mundo"},
		{"Ñandú!!", "nandu"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeSlug(tt.input); got != tt.want {
			t.Errorf("SanitizeSlug(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizePhoneNumber(t *testing.T) {
	if got := SanitizePhoneNumber("+54 (11) 4444-5555"); got != "+541144445555" {
		t.Errorf("SanitizePhoneNumber() = %q", got)
	}
}

func TestSanitizeNumber(t *testing.T) {
	tests := []struct {
		input string
		want  *float64
	}{
		{"$1,234.50", ptr(1234.50)},
		{"-3.5", ptr(-3.5)},
		{"1.2.3", ptr(1.2)},
		{"abc", nil},
		{"-", nil},
	}

	for _, tt := range tests {
		got := SanitizeNumber(tt.input)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("SanitizeNumber(%q) = %v, want nil", tt.input, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("SanitizeNumber(%q) = %v, want %v", tt.input, got, *tt.want)
		}
	}
}

func TestSanitizeInteger(t *testing.T) {
	if got := SanitizeInteger("id: 42x"); got == nil || *got != 42 {
		t.Errorf("SanitizeInteger() = %v, want 42", got)
	}
	if got := SanitizeInteger("-7"); got == nil || *got != -7 {
		t.Errorf("SanitizeInteger(-7) = %v", got)
	}
	if got := SanitizeInteger("none"); got != nil {
		t.Errorf("SanitizeInteger(none) = %v, want nil", *got)
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"https://tienda.example.com/a?b=c", true},
		{"http://localhost:3000", true},
		{"javascript:alert(1)", false},
		{"ftp://files.example.com", false},
		{"not a url", false},
		{"http://", false},
	}

	for _, tt := range tests {
		if _, ok := SanitizeURL(tt.input); ok != tt.ok {
			t.Errorf("SanitizeURL(%q) ok = %v, want %v", tt.input, ok, tt.ok)
		}
	}
}

func ptr(f float64) *float64 { return &f }
