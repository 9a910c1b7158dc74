// Package selector compiles CSS selectors once and treats malformed ones as
// matching nothing.
package selector

import (
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"pagecontent/pkg/logger"
)

type entry struct {
	sel cascadia.Selector
	ok  bool
}

// Set is a concurrency-safe cache of compiled selectors.
type Set struct {
	log   *logger.Logger
	cache sync.Map // string -> entry
}

func New(log *logger.Logger) *Set {
	if log == nil {
		log = logger.Nop()
	}
	return &Set{log: log}
}

// Compile returns the compiled selector, or false when sel does not parse.
// Failures are logged once per selector string.
func (s *Set) Compile(sel string) (cascadia.Selector, bool) {
	if v, ok := s.cache.Load(sel); ok {
		e := v.(entry)
		return e.sel, e.ok
	}
	compiled, err := cascadia.Compile(sel)
	e := entry{sel: compiled, ok: err == nil}
	if _, loaded := s.cache.LoadOrStore(sel, e); !loaded && err != nil {
		s.log.Debugf("selector %q ignored: %v", sel, err)
	}
	return e.sel, e.ok
}

// Find returns the descendants of root matching sel; a malformed selector
// yields an empty selection.
func (s *Set) Find(root *goquery.Selection, sel string) *goquery.Selection {
	m, ok := s.Compile(sel)
	if !ok {
		return root.FindNodes()
	}
	return root.FindMatcher(m)
}

// Any reports whether any of sels matches under root.
func (s *Set) Any(root *goquery.Selection, sels ...string) bool {
	for _, sel := range sels {
		if s.Find(root, sel).Length() > 0 {
			return true
		}
	}
	return false
}
