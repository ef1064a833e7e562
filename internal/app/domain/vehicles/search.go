package vehicles

import (
	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// KeywordMatcher tags free-text searches with the catalog makes and models
// they mention, feeding both filter suggestions and search analytics.
type KeywordMatcher struct {
	ac    ahocorasick.AhoCorasick
	names []string
}

// NewKeywordMatcher compiles the automaton over the catalog names.
func NewKeywordMatcher(names []string) *KeywordMatcher {
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	return &KeywordMatcher{
		ac:    builder.Build(names),
		names: names,
	}
}

// Match returns the distinct catalog names mentioned in the query, in order
// of first appearance.
func (m *KeywordMatcher) Match(query string) []string {
	if query == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var result []string
	for _, match := range m.ac.FindAll(query) {
		name := m.names[match.Pattern()]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}
	return result
}
