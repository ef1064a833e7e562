package vehicles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestMatcher() *KeywordMatcher {
	return NewKeywordMatcher([]string{"Mahindra", "Sonalika", "Swaraj", "575 DI"})
}

func TestKeywordMatcherFindsNames(t *testing.T) {
	m := newTestMatcher()

	got := m.Match("used mahindra tractor under 5 lakh")
	assert.Equal(t, []string{"Mahindra"}, got)
}

func TestKeywordMatcherCaseInsensitive(t *testing.T) {
	m := newTestMatcher()

	got := m.Match("SONALIKA or swaraj")
	assert.Equal(t, []string{"Sonalika", "Swaraj"}, got)
}

func TestKeywordMatcherWholeWordsOnly(t *testing.T) {
	m := newTestMatcher()

	assert.Empty(t, m.Match("swarajland"))
}

func TestKeywordMatcherDeduplicates(t *testing.T) {
	m := newTestMatcher()

	got := m.Match("mahindra vs mahindra")
	assert.Equal(t, []string{"Mahindra"}, got)
}

func TestKeywordMatcherEmptyQuery(t *testing.T) {
	m := newTestMatcher()

	assert.Nil(t, m.Match(""))
}
