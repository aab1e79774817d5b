package tree

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vanderheijden86/treekit/pkg/metrics"
)

// Matcher decides whether a single node matches a search. A nil Matcher
// means no filter is active.
type Matcher func(n *Node) bool

// KeywordMatcher matches labels containing kw, ignoring case. An empty or
// blank keyword yields nil, which clears the filter.
func KeywordMatcher(kw string) Matcher {
	kw = strings.TrimSpace(kw)
	if kw == "" {
		return nil
	}
	needle := strings.ToLower(kw)
	return func(n *Node) bool {
		return strings.Contains(strings.ToLower(n.Label), needle)
	}
}

// RegexMatcher matches label or id against a case-insensitive regular
// expression. An empty pattern yields a nil Matcher.
func RegexMatcher(pattern string) (Matcher, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling search pattern %q: %w", pattern, err)
	}
	return func(n *Node) bool {
		return re.MatchString(n.Label) || (n.ID.Valid() && re.MatchString(string(n.ID)))
	}, nil
}

// Search marks every node with Searched = m(node) and Visible = Searched or
// any child visible, in a single post-order pass, so every ancestor of a
// match stays visible. It returns the number of matching nodes. A nil m
// clears the filter and makes every node visible again.
func Search(roots []*Node, m Matcher) int {
	defer metrics.Timer(metrics.Search)()

	if m == nil {
		ClearSearch(roots)
		return 0
	}
	matches := 0
	for _, r := range roots {
		searchNode(r, m, &matches)
	}
	return matches
}

func searchNode(n *Node, m Matcher, matches *int) bool {
	n.Searched = m(n)
	if n.Searched {
		*matches++
	}
	childVisible := false
	for _, c := range n.Children {
		if searchNode(c, m, matches) {
			childVisible = true
		}
	}
	n.Visible = n.Searched || childVisible
	return n.Visible
}

// ClearSearch resets Searched and makes every node visible.
func ClearSearch(roots []*Node) {
	Walk(roots, func(n *Node) bool {
		n.Searched = false
		n.Visible = true
		return true
	})
}

// SearchKeyword is Search with a KeywordMatcher.
func SearchKeyword(roots []*Node, kw string) int {
	return Search(roots, KeywordMatcher(kw))
}
