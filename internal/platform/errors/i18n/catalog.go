// Package i18n renders user-facing messages for coded errors in the
// languages the launcher ships.
package i18n

import (
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// Code is a machine-readable error code. It mirrors errors.Code without
// importing it.
type Code = string

// BaseLocale answers every request no other catalog matches.
const BaseLocale = "en-US"

// Catalog holds the message templates of one locale, parsed once.
type Catalog struct {
	tag       language.Tag
	raw       map[Code]string
	templates map[Code]*template.Template
}

// NewCatalog parses messages for locale. Templates that fail to parse are
// kept as literal text.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	c := &Catalog{
		tag:       language.Make(locale),
		raw:       make(map[Code]string, len(messages)),
		templates: make(map[Code]*template.Template, len(messages)),
	}
	for code, text := range messages {
		c.raw[code] = text
		if t, err := template.New(code).Option("missingkey=zero").Parse(text); err == nil {
			c.templates[code] = t
		}
	}
	return c
}

// Locale returns the BCP 47 tag of this catalog.
func (c *Catalog) Locale() string {
	return c.tag.String()
}

// Format renders the template for code with metadata. An unknown code
// renders as itself.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	raw, ok := c.raw[code]
	if !ok {
		return code
	}
	t, ok := c.templates[code]
	if !ok {
		return raw
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var b strings.Builder
	if err := t.Execute(&b, metadata); err != nil {
		return raw
	}
	return b.String()
}

// catalogSet matches requested locales against the registered catalogs.
// Index 0 is always the base catalog.
type catalogSet struct {
	mu       sync.RWMutex
	catalogs []*Catalog
	matcher  language.Matcher
}

var registered = newCatalogSet(
	NewCatalog(BaseLocale, enUS),
	NewCatalog("de-DE", deDE),
)

func newCatalogSet(catalogs ...*Catalog) *catalogSet {
	s := &catalogSet{catalogs: catalogs}
	s.rebuild()
	return s
}

func (s *catalogSet) rebuild() {
	tags := make([]language.Tag, len(s.catalogs))
	for i, c := range s.catalogs {
		tags[i] = c.tag
	}
	s.matcher = language.NewMatcher(tags)
}

func (s *catalogSet) add(cat *Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.catalogs {
		if c.tag == cat.tag {
			s.catalogs[i] = cat
			s.rebuild()
			return
		}
	}
	s.catalogs = append(s.catalogs, cat)
	s.rebuild()
}

func (s *catalogSet) match(locale string) *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return s.catalogs[0]
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return s.catalogs[0]
	}
	_, index, confidence := s.matcher.Match(tag)
	if confidence == language.No {
		return s.catalogs[0]
	}
	return s.catalogs[index]
}

// GetCatalog returns the registered catalog that best matches locale,
// falling back to en-US.
func GetCatalog(locale string) *Catalog {
	return registered.match(locale)
}

// RegisterCatalog adds cat, replacing a catalog with the same locale.
// Intended for init or single-threaded test setup.
func RegisterCatalog(cat *Catalog) {
	registered.add(cat)
}
