// Package depscan implements dependency extraction (§4.3): given a
// command's attributes and schema, producing the set of StorePaths the
// command reads from. Ported from the teacher's dotChainRe tokenizer
// (module/pipeline_template.go) and, per SPEC_FULL.md §4.12, exposed
// as its own standalone identifier scanner independent of template
// rendering, following original_source/src/dependencies/helpers.rs.
package depscan

import "regexp"

// identRe matches a bare dot-chain identifier such as "a.b.c" or, once
// braces are stripped by the caller, the body of a template action
// like "a.b[0].c".
var identRe = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*(?:(?:\.[a-zA-Z_][a-zA-Z0-9_]*)|(?:\[\d+\]))*`)

// actionRe finds {{ ... }} template actions within a larger string.
var actionRe = regexp.MustCompile(`\{\{(.*?)\}\}`)

// indexBracketRe turns a[0] into a.0 so that it dotted-parses into a
// StorePath the way spec §4.3 describes ("dotted_square_bracket_ident").
var indexBracketRe = regexp.MustCompile(`\[(\d+)\]`)

// keywords are template-language tokens that look like identifiers but
// are never variable references.
var keywords = map[string]struct{}{
	"if": {}, "else": {}, "end": {}, "range": {}, "with": {},
	"true": {}, "false": {}, "nil": {}, "and": {}, "or": {}, "not": {},
	"eq": {}, "ne": {}, "lt": {}, "le": {}, "gt": {}, "ge": {},
	"define": {}, "template": {}, "block": {},
}

// Tokens extracts every dotted/indexed identifier referenced by a
// template string's {{ ... }} actions, normalizing bracket indices
// ("a[0].b" -> "a.0.b") so each token dotted-parses cleanly. A leading
// "." (the Go template "field of current context" notation, e.g.
// ".cfg.n") is stripped. Bare literal text outside {{ }} contributes
// nothing.
func Tokens(tmplStr string) []string {
	var out []string
	for _, m := range actionRe.FindAllStringSubmatch(tmplStr, -1) {
		out = append(out, tokensInAction(m[1])...)
	}
	return out
}

func tokensInAction(action string) []string {
	var out []string
	for _, ident := range identRe.FindAllString(action, -1) {
		norm := indexBracketRe.ReplaceAllString(ident, ".$1")
		norm = stripLeadingDot(norm)
		if norm == "" {
			continue
		}
		if _, isKeyword := keywords[norm]; isKeyword {
			continue
		}
		if _, isKeyword := keywords[firstSegment(norm)]; isKeyword {
			continue
		}
		out = append(out, norm)
	}
	return out
}

func stripLeadingDot(s string) string {
	if len(s) > 0 && s[0] == '.' {
		return s[1:]
	}
	return s
}

func firstSegment(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s[:i]
		}
	}
	return s
}
