package worker

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Strategy is how a request is served.
type Strategy string

const (
	Passthrough          Strategy = "passthrough"
	NetworkFirst         Strategy = "network-first"
	CacheFirst           Strategy = "cache-first"
	StaleWhileRevalidate Strategy = "stale-while-revalidate"
)

// Rule pairs a predicate with the strategy used when it matches.
type Rule struct {
	Name     string
	Match    func(*http.Request) bool
	Strategy Strategy
}

// Router classifies requests by evaluating its rules top to bottom.
// The first match wins.
type Router struct {
	rules []Rule
}

// NewRouter builds the standard rule list from URL regular expressions:
// passthrough, network-first, cache-first, navigation, fallback.
func NewRouter(networkFirst, cacheFirst []string) (*Router, error) {
	nf, err := compileAll(networkFirst)
	if err != nil {
		return nil, fmt.Errorf("network_first: %w", err)
	}
	cf, err := compileAll(cacheFirst)
	if err != nil {
		return nil, fmt.Errorf("cache_first: %w", err)
	}
	return &Router{rules: []Rule{
		{Name: "passthrough", Match: notInterceptable, Strategy: Passthrough},
		{Name: "network-first", Match: matchAny(nf), Strategy: NetworkFirst},
		{Name: "cache-first", Match: matchAny(cf), Strategy: CacheFirst},
		{Name: "navigation", Match: IsNavigation, Strategy: StaleWhileRevalidate},
		{Name: "fallback", Match: func(*http.Request) bool { return true }, Strategy: CacheFirst},
	}}, nil
}

// Rules returns the rule list in evaluation order.
func (r *Router) Rules() []Rule {
	return r.rules
}

// Classify returns the first rule matching req.
func (r *Router) Classify(req *http.Request) Rule {
	for _, rule := range r.rules {
		if rule.Match(req) {
			return rule
		}
	}
	return Rule{Name: "none", Strategy: Passthrough}
}

// IsNavigation reports whether req loads a full document.
func IsNavigation(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	if mode := req.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}

func notInterceptable(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return true
	}
	return req.URL.Scheme != "http" && req.URL.Scheme != "https"
}

func matchAny(patterns []*regexp.Regexp) func(*http.Request) bool {
	return func(req *http.Request) bool {
		u := req.URL.String()
		for _, p := range patterns {
			if p.MatchString(u) {
				return true
			}
		}
		return false
	}
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// IsMapTile reports whether req fetches a map tile.
func IsMapTile(req *http.Request) bool {
	host := req.URL.Hostname()
	return strings.HasPrefix(host, "tile.") || strings.Contains(host, ".tile.")
}
