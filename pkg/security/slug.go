package security

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	maxSlugInput      = 200
	maxGeneratedSlug  = 100
	maxSlugCandidates = 1000
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	slugDrop      = regexp.MustCompile(`[^a-z0-9-]`)
	validSlug     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	reservedSlugs = map[string]bool{
		"admin": true, "api": true, "login": true, "logout": true, "registro": true,
		"cuenta": true, "carrito": true, "checkout": true, "unauthorized": true,
		"null": true, "undefined": true, "true": true, "false": true,
	}
)

// GenerateSlug derives a product slug from a display name.
// Returns "" when nothing usable is left.
func GenerateSlug(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	name = truncate(name, maxSlugInput)

	s := strings.TrimSpace(strings.ToLower(name))
	s = stripDiacritics(s)
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = slugDrop.ReplaceAllString(s, "")
	s = repeatedDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return ""
	}

	if len(s) > maxGeneratedSlug {
		s = strings.TrimRight(s[:maxGeneratedSlug], "-")
	}

	if reservedSlugs[s] {
		s = "producto-" + s
	}
	return s
}

// UniqueSlug returns GenerateSlug(name), suffixed with -2, -3, ... until exists
// reports it free. After maxSlugCandidates attempts a timestamp suffix is used.
func UniqueSlug(ctx context.Context, name string, exists func(context.Context, string) (bool, error)) (string, error) {
	base := GenerateSlug(name)
	if base == "" {
		return "", fmt.Errorf("cannot derive slug from %q", truncate(name, 50))
	}

	slug := base
	for n := 2; ; n++ {
		taken, err := exists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		if n > maxSlugCandidates {
			return fmt.Sprintf("%s-%d", base, time.Now().UnixMilli()), nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

// IsValidSlug checks shape, length and the reserved route names.
func IsValidSlug(slug string) bool {
	if slug == "" || len(slug) > maxGeneratedSlug {
		return false
	}
	if !validSlug.MatchString(slug) {
		return false
	}
	switch slug {
	case "null", "undefined", "true", "false":
		return true
	}
	return !reservedSlugs[slug]
}

// SlugToName turns "zapatilla-roja" into "Zapatilla Roja".
func SlugToName(slug string) string {
	parts := strings.Split(slug, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
