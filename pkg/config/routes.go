package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultRouteRules []byte

// RouteRules drive the edge authorisation gate.
type RouteRules struct {
	LoginPath        string     `yaml:"login_path"`
	UnauthorizedPath string     `yaml:"unauthorized_path"`
	Protected        []string   `yaml:"protected"`
	Roles            []RoleRule `yaml:"roles"`
}

// RoleRule restricts a path prefix to roles. A non-empty Redirect sends
// browsers there instead of answering 403.
type RoleRule struct {
	Prefix   string   `yaml:"prefix"`
	Roles    []string `yaml:"roles"`
	Redirect string   `yaml:"redirect,omitempty"`
}

// RequiresAuth reports whether path sits under a protected prefix.
func (rr *RouteRules) RequiresAuth(path string) bool {
	for _, p := range rr.Protected {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Match returns the first role rule covering path, or nil.
func (rr *RouteRules) Match(path string) *RoleRule {
	for i := range rr.Roles {
		if strings.HasPrefix(path, rr.Roles[i].Prefix) {
			return &rr.Roles[i]
		}
	}
	return nil
}

// Allows reports whether role may pass the rule.
func (r *RoleRule) Allows(role string) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

func (rr *RouteRules) validate() error {
	if !strings.HasPrefix(rr.LoginPath, "/") || !strings.HasPrefix(rr.UnauthorizedPath, "/") {
		return errors.New("login_path and unauthorized_path must be absolute paths")
	}
	for _, p := range rr.Protected {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("protected prefix %q must start with /", p)
		}
	}
	for _, r := range rr.Roles {
		if !strings.HasPrefix(r.Prefix, "/") {
			return fmt.Errorf("role rule prefix %q must start with /", r.Prefix)
		}
		if len(r.Roles) == 0 {
			return fmt.Errorf("role rule %q lists no roles", r.Prefix)
		}
	}
	return nil
}

// ParseRouteRules decodes and validates a rules document. Unknown keys are
// rejected so typos do not silently open a route.
func ParseRouteRules(data []byte) (*RouteRules, error) {
	var rr RouteRules
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rr); err != nil {
		return nil, fmt.Errorf("parse route rules: %w", err)
	}
	if err := rr.validate(); err != nil {
		return nil, fmt.Errorf("route rules: %w", err)
	}
	return &rr, nil
}

// LoadRouteRules reads path, or the built-in rules when path is empty.
func LoadRouteRules(path string) (*RouteRules, error) {
	if path == "" {
		return ParseRouteRules(defaultRouteRules)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route rules: %w", err)
	}
	return ParseRouteRules(data)
}

// DefaultRouteRules returns the built-in rules.
func DefaultRouteRules() *RouteRules {
	rr, err := ParseRouteRules(defaultRouteRules)
	if err != nil {
		panic(err)
	}
	return rr
}
