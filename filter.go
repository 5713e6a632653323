package arbor

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Matcher decides whether a label satisfies a non-empty filter string.
type Matcher interface {
	Match(label, filter string) bool
}

// SubstringMatcher matches when filter occurs inside the label.
// Matching is case-insensitive unless CaseSensitive is set.
type SubstringMatcher struct {
	CaseSensitive bool
}

// Match implements Matcher.
func (m SubstringMatcher) Match(label, filter string) bool {
	if m.CaseSensitive {
		return strings.Contains(label, filter)
	}
	return strings.Contains(strings.ToLower(label), strings.ToLower(filter))
}

// FuzzyMatcher matches when every filter character appears in the label in
// order, as in editor "go to file" pickers.
type FuzzyMatcher struct{}

// Match implements Matcher.
func (FuzzyMatcher) Match(label, filter string) bool {
	return len(fuzzy.Find(filter, []string{label})) > 0
}

// --- Filter pre-pass ---

// filterResult is the outcome of one pre-pass over the unfiltered tree.
type filterResult struct {
	include map[any]struct{} // matches and ancestors of matches
	expand  map[any]struct{} // ancestors forced open to reveal matches
}

func (r *filterResult) included(item any) bool {
	_, ok := r.include[item]
	return ok
}

// filterPass walks the full tree bottom-up. It never touches viewer state;
// the caller commits expand only once the paint succeeds.
type filterPass struct {
	content   ContentProvider
	labels    LabelProvider
	matcher   Matcher
	text      string
	maxDepth  int
	truncated bool
	result    filterResult
}

func runFilter(content ContentProvider, labels LabelProvider, matcher Matcher, input any, text string, maxDepth int) (*filterPass, error) {
	p := &filterPass{
		content:  content,
		labels:   labels,
		matcher:  matcher,
		text:     text,
		maxDepth: maxDepth,
		result: filterResult{
			include: make(map[any]struct{}),
			expand:  make(map[any]struct{}),
		},
	}
	roots, err := content.Roots(input)
	if err != nil {
		return nil, fmt.Errorf("arbor: filter roots: %w", err)
	}
	if _, err := p.visit(roots, 0); err != nil {
		return nil, err
	}
	return p, nil
}

// visit reports whether any of items (or their descendants) was included.
func (p *filterPass) visit(items []any, depth int) (bool, error) {
	found := false
	for _, item := range items {
		children, err := p.content.Children(item)
		if err != nil {
			return false, fmt.Errorf("arbor: filter children: %w", err)
		}
		childFound := false
		if depth+1 < p.maxDepth {
			childFound, err = p.visit(children, depth+1)
			if err != nil {
				return false, err
			}
		} else if len(children) > 0 {
			p.truncated = true
		}

		if childFound {
			p.result.expand[item] = struct{}{}
		}
		if childFound || p.matcher.Match(p.labels.Label(item), p.text) {
			p.result.include[item] = struct{}{}
			found = true
		}
	}
	return found, nil
}
