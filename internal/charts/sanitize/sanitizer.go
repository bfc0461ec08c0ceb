// Package sanitize turns the SVG returned by the chart-rendering service into
// self-contained markup: theme variables are inlined and style blocks dropped.
package sanitize

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultNamespace = "kerykeion"
	DefaultFallback  = "#888888"
	DefaultMaxDepth  = 10
	DefaultMaxPasses = 12

	maxResolvedLen = 64 << 10
)

// Options configures a Sanitizer. Zero fields fall back to the package defaults.
type Options struct {
	Namespace string            `yaml:"namespace"`
	Defaults  map[string]string `yaml:"defaults"`
	Fallback  string            `yaml:"fallback"`
	MaxDepth  int               `yaml:"max_depth"`
	MaxPasses int               `yaml:"max_passes"`
}

// DefaultThemeColors is the dark palette used when markup references a
// variable it never defines.
func DefaultThemeColors() map[string]string {
	return map[string]string{
		"kerykeion-color-black":           "#000000",
		"kerykeion-color-white":           "#ffffff",
		"kerykeion-color-base-100":        "#0b0b0c",
		"kerykeion-color-base-200":        "#1a1b1f",
		"kerykeion-color-base-300":        "#2a2c31",
		"kerykeion-color-base-content":    "#e5e7eb",
		"kerykeion-color-neutral":         "#a3a6ae",
		"kerykeion-color-neutral-content": "#cfd2da",
		"kerykeion-color-primary":         "#4f46e5",
		"kerykeion-color-secondary":       "#6b7280",
		"kerykeion-color-accent":          "#22c55e",
		"kerykeion-color-warning":         "#f59e0b",
		"kerykeion-color-success":         "#22c55e",
		"kerykeion-color-error":           "#ef4444",
		"kerykeion-chart-color-paper-0":   "#000000",
		"kerykeion-chart-color-paper-1":   "#0b0b0c",
	}
}

func DefaultOptions() Options {
	return Options{
		Namespace: DefaultNamespace,
		Defaults:  DefaultThemeColors(),
		Fallback:  DefaultFallback,
		MaxDepth:  DefaultMaxDepth,
		MaxPasses: DefaultMaxPasses,
	}
}

// LoadOptions reads a YAML theme file and overlays it on DefaultOptions.
// Keys under "defaults" are merged into the built-in table.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if path == "" {
		return opts, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read theme defaults: %w", err)
	}

	var file Options
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return opts, fmt.Errorf("parse theme defaults: %w", err)
	}

	if file.Namespace != "" {
		opts.Namespace = file.Namespace
	}
	if file.Fallback != "" {
		opts.Fallback = file.Fallback
	}
	if file.MaxDepth > 0 {
		opts.MaxDepth = file.MaxDepth
	}
	if file.MaxPasses > 0 {
		opts.MaxPasses = file.MaxPasses
	}
	for k, v := range file.Defaults {
		opts.Defaults[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return opts, nil
}

var (
	styleBlockRe    = regexp.MustCompile(`(?i)<style[\s\S]*?</style\s*>`)
	xmlHeaderRe     = regexp.MustCompile(`<\?xml[^>]*\?>`)
	strayQuoteRe    = regexp.MustCompile(`>\s*(?:'\s*)+<`)
	trailingQuoteRe = regexp.MustCompile(`(?i)(?:'\s*)+</svg>`)
	importantRe     = regexp.MustCompile(`(?i)!\s*important`)
	invisibleRe     = regexp.MustCompile(`[\x{00A0}\x{FEFF}]`)
)

// Sanitizer is safe for concurrent use; per-call state lives in a resolver.
type Sanitizer struct {
	opts  Options
	defRe *regexp.Regexp
	refRe *regexp.Regexp
}

func New(opts Options) *Sanitizer {
	def := DefaultOptions()
	if opts.Namespace == "" {
		opts.Namespace = def.Namespace
	}
	if opts.Defaults == nil {
		opts.Defaults = def.Defaults
	}
	if opts.Fallback == "" {
		opts.Fallback = def.Fallback
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = def.MaxPasses
	}

	ns := regexp.QuoteMeta(strings.ToLower(opts.Namespace))
	return &Sanitizer{
		opts:  opts,
		defRe: regexp.MustCompile(`(?i)--(` + ns + `-[a-z0-9-]+)\s*:\s*([^;]+);`),
		refRe: regexp.MustCompile(`(?i)var\(\s*--(` + ns + `-[a-z0-9-]+)\s*\)`),
	}
}

// Sanitize returns display-ready markup. It never fails: a reference caught
// by a guard is written as var(--key, fallback), which later calls leave alone.
func (s *Sanitizer) Sanitize(markup string) string {
	r := &resolver{
		s:        s,
		vars:     make(map[string]string),
		resolved: make(map[string]string),
		active:   make(map[string]bool),
	}
	out := markup
	for pass := 0; pass < s.opts.MaxPasses; pass++ {
		next := r.pass(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

// resolver carries the state of one Sanitize call. Each key is expanded at
// most once; later references reuse the stored value.
type resolver struct {
	s        *Sanitizer
	vars     map[string]string
	resolved map[string]string
	active   map[string]bool
}

func (r *resolver) pass(markup string) string {
	s := r.s
	collected := false
	out := styleBlockRe.ReplaceAllStringFunc(markup, func(block string) string {
		for _, m := range s.defRe.FindAllStringSubmatch(block, -1) {
			r.vars[strings.ToLower(m[1])] = cleanValue(m[2])
			collected = true
		}
		return ""
	})
	if collected {
		clear(r.resolved)
	}

	if s.refRe.MatchString(out) {
		out = r.expand(out, 0)
	}

	out = xmlHeaderRe.ReplaceAllString(out, "")
	out = strayQuoteRe.ReplaceAllString(out, "><")
	out = trailingQuoteRe.ReplaceAllString(out, "</svg>")
	out = invisibleRe.ReplaceAllString(out, " ")
	return out
}

func (r *resolver) expand(value string, depth int) string {
	return r.s.refRe.ReplaceAllStringFunc(value, func(ref string) string {
		key := strings.ToLower(r.s.refRe.FindStringSubmatch(ref)[1])
		return r.key(key, depth)
	})
}

func (r *resolver) key(key string, depth int) string {
	if v, ok := r.resolved[key]; ok {
		return v
	}
	if r.active[key] || depth > r.s.opts.MaxDepth {
		return r.unresolved(key)
	}

	v, ok := r.vars[key]
	if !ok {
		v, ok = r.s.opts.Defaults[key]
	}
	if !ok {
		v = r.s.opts.Fallback
	}

	if r.s.refRe.MatchString(v) {
		r.active[key] = true
		v = r.expand(v, depth+1)
		delete(r.active, key)
	}
	if len(v) > maxResolvedLen {
		v = r.unresolved(key)
	}
	r.resolved[key] = v
	return v
}

func (r *resolver) unresolved(key string) string {
	return "var(--" + key + ", " + r.s.opts.Fallback + ")"
}

func cleanValue(v string) string {
	v = importantRe.ReplaceAllString(v, "")
	return strings.TrimSpace(v)
}
