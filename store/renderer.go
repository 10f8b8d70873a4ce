package store

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/google/uuid"
)

// Renderer is the template engine dependency from spec §6: render an
// ad-hoc inline string against a variable context. The real "tera"
// engine implied by ReferenceKind's naming is replaced here by a
// text/template-based renderer, following the teacher's own
// TemplateEngine (module/pipeline_template.go) almost line for line.
type Renderer interface {
	RenderInline(tmplStr string, vars map[string]any) (string, error)
	// CheckSyntax parses tmplStr without executing it, used by
	// validate.Attributes to catch malformed template syntax (§4.2)
	// without requiring a populated store.
	CheckSyntax(tmplStr string) error
}

// dotChainRe matches dot-access chains like .steps.my-step.field.
// Identical in spirit to the teacher's regexp of the same name.
var dotChainRe = regexp.MustCompile(`\.[a-zA-Z_][a-zA-Z0-9_-]*(?:\.[a-zA-Z_][a-zA-Z0-9_-]*)*`)

var stringLiteralRe = regexp.MustCompile(`"(?:[^"\\]|\\.)*"` + "|`[^`]*`")

// preprocessTemplate rewrites hyphenated dot-access chains into index
// syntax so Go's text/template parser does not read a hyphen as minus:
// {{ .steps.my-step.field }} -> {{ (index .steps "my-step" "field") }}.
// Ported from the teacher's preprocessTemplate.
func preprocessTemplate(tmplStr string) string {
	if !strings.Contains(tmplStr, "{{") || !strings.Contains(tmplStr, "-") {
		return tmplStr
	}

	var out strings.Builder
	rest := tmplStr

	for {
		openIdx := strings.Index(rest, "{{")
		if openIdx < 0 {
			out.WriteString(rest)
			break
		}
		closeIdx := strings.Index(rest[openIdx:], "}}")
		if closeIdx < 0 {
			out.WriteString(rest)
			break
		}
		closeIdx += openIdx

		out.WriteString(rest[:openIdx])
		action := rest[openIdx+2 : closeIdx]

		trimmed := strings.TrimSpace(action)
		if strings.HasPrefix(trimmed, "/*") && strings.HasSuffix(trimmed, "*/") {
			out.WriteString("{{")
			out.WriteString(action)
			out.WriteString("}}")
			rest = rest[closeIdx+2:]
			continue
		}

		var placeholders []string
		stripped := stringLiteralRe.ReplaceAllStringFunc(action, func(m string) string {
			placeholders = append(placeholders, m)
			return "\x00"
		})

		rewritten := dotChainRe.ReplaceAllStringFunc(stripped, func(chain string) string {
			segments := strings.Split(chain[1:], ".")
			hasHyphen := false
			for _, seg := range segments {
				if strings.Contains(seg, "-") {
					hasHyphen = true
					break
				}
			}
			if !hasHyphen {
				return chain
			}

			firstHyphen := -1
			for i, seg := range segments {
				if strings.Contains(seg, "-") {
					firstHyphen = i
					break
				}
			}

			var prefix string
			if firstHyphen == 0 {
				prefix = "."
			} else {
				prefix = "." + strings.Join(segments[:firstHyphen], ".")
			}

			var quoted []string
			for _, seg := range segments[firstHyphen:] {
				quoted = append(quoted, `"`+seg+`"`)
			}

			return "(index " + prefix + " " + strings.Join(quoted, " ") + ")"
		})

		var restored string
		if len(placeholders) > 0 {
			phIdx := 0
			var final strings.Builder
			for i := 0; i < len(rewritten); i++ {
				if rewritten[i] == '\x00' && phIdx < len(placeholders) {
					final.WriteString(placeholders[phIdx])
					phIdx++
				} else {
					final.WriteByte(rewritten[i])
				}
			}
			restored = final.String()
		} else {
			restored = rewritten
		}

		out.WriteString("{{")
		out.WriteString(restored)
		out.WriteString("}}")
		rest = rest[closeIdx+2:]
	}

	return out.String()
}

var timeLayouts = map[string]string{
	"ANSIC":       time.ANSIC,
	"UnixDate":    time.UnixDate,
	"RubyDate":    time.RubyDate,
	"RFC822":      time.RFC822,
	"RFC822Z":     time.RFC822Z,
	"RFC850":      time.RFC850,
	"RFC1123":     time.RFC1123,
	"RFC1123Z":    time.RFC1123Z,
	"RFC3339":     time.RFC3339,
	"RFC3339Nano": time.RFC3339Nano,
	"Kitchen":     time.Kitchen,
	"Stamp":       time.Stamp,
	"StampMilli":  time.StampMilli,
	"StampMicro":  time.StampMicro,
	"StampNano":   time.StampNano,
	"DateTime":    time.DateTime,
	"DateOnly":    time.DateOnly,
	"TimeOnly":    time.TimeOnly,
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"uuid": func() string { return uuid.New().String() },
		"now": func(args ...string) string {
			layout := time.RFC3339
			if len(args) > 0 && args[0] != "" {
				if l, ok := timeLayouts[args[0]]; ok {
					layout = l
				} else {
					layout = args[0]
				}
			}
			return time.Now().UTC().Format(layout)
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		"default": func(fallback, val any) any {
			if val == nil {
				return fallback
			}
			if s, ok := val.(string); ok && s == "" {
				return fallback
			}
			return val
		},
	}
}

// GoTemplateRenderer implements Renderer on top of the standard
// library's text/template, with a compiled-template cache guarded by
// its own lock (SPEC_FULL.md §5): rendering acquires the write lock to
// populate the cache on a miss, matching the "write lock on the
// template engine... read lock on the context" ordering from spec §5.
type GoTemplateRenderer struct {
	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewGoTemplateRenderer creates an empty renderer.
func NewGoTemplateRenderer() *GoTemplateRenderer {
	return &GoTemplateRenderer{cache: make(map[string]*template.Template)}
}

func (r *GoTemplateRenderer) compile(tmplStr string) (*template.Template, error) {
	prepped := preprocessTemplate(tmplStr)

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.cache[prepped]; ok {
		return t, nil
	}
	t, err := template.New("").Funcs(funcMap()).Option("missingkey=zero").Parse(prepped)
	if err != nil {
		return nil, err
	}
	r.cache[prepped] = t
	return t, nil
}

// RenderInline evaluates tmplStr against vars. A string with no "{{" is
// returned unchanged, matching the teacher's Resolve fast path.
func (r *GoTemplateRenderer) RenderInline(tmplStr string, vars map[string]any) (string, error) {
	if !strings.Contains(tmplStr, "{{") {
		return tmplStr, nil
	}
	t, err := r.compile(tmplStr)
	if err != nil {
		return "", fmt.Errorf("template parse error: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("template exec error: %w", err)
	}
	return buf.String(), nil
}

// CheckSyntax parses tmplStr without executing it.
func (r *GoTemplateRenderer) CheckSyntax(tmplStr string) error {
	if !strings.Contains(tmplStr, "{{") {
		return nil
	}
	_, err := r.compile(tmplStr)
	return err
}
