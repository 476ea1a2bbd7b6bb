package automaton

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	coreac "github.com/coregx/ahocorasick"
	aho "github.com/petar-dambovaliev/aho-corasick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hit struct {
	ID    int
	Start int
}

func hits(matches []Match) []hit {
	out := make([]hit, 0, len(matches))
	for _, m := range matches {
		out = append(out, hit{ID: m.Pattern.ID, Start: m.Start})
	}
	sortHits(out)
	return out
}

func sortHits(h []hit) {
	sort.Slice(h, func(i, j int) bool {
		if h[i].Start == h[j].Start {
			return h[i].ID < h[j].ID
		}
		return h[i].Start < h[j].Start
	})
}

// bruteForce reports every occurrence of every non-empty pattern. Inputs are
// ASCII so byte offsets equal rune offsets.
func bruteForce(patterns []string, text string) []hit {
	var out []hit
	for id, p := range patterns {
		if p == "" {
			continue
		}
		for i := 0; i+len(p) <= len(text); i++ {
			if text[i:i+len(p)] == p {
				out = append(out, hit{ID: id, Start: i})
			}
		}
	}
	sortHits(out)
	return out
}

func randomString(rng *rand.Rand, alphabet string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[rng.Intn(len(alphabet))])
	}
	return b.String()
}

func TestSearchOverlappingPatterns(t *testing.T) {
	a := Build([]string{"he", "she", "his", "hers"})

	got := hits(a.FindAll("ahishers"))
	assert.Equal(t, []hit{
		{ID: 2, Start: 1},
		{ID: 1, Start: 3},
		{ID: 0, Start: 4},
		{ID: 3, Start: 4},
	}, got)
}

func TestSearchEventOrderFollowsEndPosition(t *testing.T) {
	a := Build([]string{"abcd", "bc", "c"})

	var ends []int
	lengths := map[int]int{0: 4, 1: 2, 2: 1}
	for m := range a.Search("xabcdx") {
		ends = append(ends, m.Start+lengths[m.Pattern.ID]-1)
	}
	require.NotEmpty(t, ends)
	assert.True(t, sort.IntsAreSorted(ends), "ends %v", ends)
}

func TestSearchDuplicatePatterns(t *testing.T) {
	a := Build([]string{"ab", "ab", "b"})

	got := hits(a.FindAll("abab"))
	assert.Equal(t, []hit{
		{ID: 0, Start: 0},
		{ID: 1, Start: 0},
		{ID: 2, Start: 1},
		{ID: 0, Start: 2},
		{ID: 1, Start: 2},
		{ID: 2, Start: 3},
	}, got)
}

func TestSearchEmptyInputs(t *testing.T) {
	empty := Build(nil)
	assert.Equal(t, 1, empty.Len())
	assert.Empty(t, empty.FindAll("anything"))
	assert.False(t, empty.Contains("anything"))

	a := Build([]string{"abc"})
	assert.Empty(t, a.FindAll(""))
	assert.Empty(t, a.FindAll("ab"), "pattern longer than text")
}

func TestSearchSkipsEmptyPatternButKeepsIDs(t *testing.T) {
	a := Build([]string{"", "b"})

	got := a.FindAll("abb")
	require.Len(t, got, 2)
	for _, m := range got {
		assert.Equal(t, 1, m.Pattern.ID)
		assert.Equal(t, "b", m.Pattern.Text)
	}
	assert.Equal(t, []Pattern{{ID: 0, Text: ""}, {ID: 1, Text: "b"}}, a.Patterns())
}

func TestSearchSingleCharacterPattern(t *testing.T) {
	a := Build([]string{"a"})

	var starts []int
	for m := range a.Search("banana") {
		starts = append(starts, m.Start)
	}
	assert.Equal(t, []int{1, 3, 5}, starts)
}

func TestSearchUsesRuneOffsets(t *testing.T) {
	a := Build([]string{"ёж", "ж"})

	got := hits(a.FindAll("кёжж"))
	assert.Equal(t, []hit{{ID: 0, Start: 1}, {ID: 1, Start: 2}, {ID: 1, Start: 3}}, got)
}

func TestSearchStopsWhenConsumerStops(t *testing.T) {
	a := Build([]string{"a"})

	count := 0
	for range a.Search("aaaa") {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestSearchMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, alphabet := range []string{"ab", "abc", "acgt"} {
		for round := 0; round < 200; round++ {
			patterns := make([]string, 1+rng.Intn(6))
			for i := range patterns {
				patterns[i] = randomString(rng, alphabet, 1+rng.Intn(4))
			}
			text := randomString(rng, alphabet, rng.Intn(40))

			got := hits(Build(patterns).FindAll(text))
			want := bruteForce(patterns, text)
			if len(want) == 0 {
				assert.Empty(t, got, "patterns=%q text=%q", patterns, text)
				continue
			}
			assert.Equal(t, want, got, "patterns=%q text=%q", patterns, text)
		}
	}
}

func TestSearchAgreesWithOverlappingReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 100; round++ {
		patterns := distinct(rng, "abc", 1+rng.Intn(5))
		text := randomString(rng, "abc", 1+rng.Intn(50))

		ref := aho.NewAhoCorasickBuilder(aho.Opts{DFA: true}).Build(patterns)
		iter := ref.IterOverlappingByte([]byte(text))
		var want []hit
		for next := iter.Next(); next != nil; next = iter.Next() {
			want = append(want, hit{ID: next.Pattern(), Start: next.Start()})
		}
		sortHits(want)

		got := hits(Build(patterns).FindAll(text))
		if len(want) == 0 {
			assert.Empty(t, got)
			continue
		}
		assert.Equal(t, want, got, "patterns=%q text=%q", patterns, text)
	}
}

func TestContainsAgreesWithLeftmostReference(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 100; round++ {
		patterns := distinct(rng, "abcd", 1+rng.Intn(5))
		text := randomString(rng, "abcd", rng.Intn(30))

		builder := coreac.NewBuilder()
		for _, p := range patterns {
			builder.AddPattern([]byte(p))
		}
		ref, err := builder.Build()
		require.NoError(t, err)

		a := Build(patterns)
		assert.Equal(t, ref.IsMatch([]byte(text)), a.Contains(text), "patterns=%q text=%q", patterns, text)

		first := ref.Find([]byte(text), 0)
		if first == nil {
			continue
		}
		found := false
		for _, m := range a.FindAll(text) {
			if m.Start == first.Start && m.Start+len(m.Pattern.Text) == first.End {
				found = true
				break
			}
		}
		assert.True(t, found, "reference match [%d,%d) missing, patterns=%q text=%q", first.Start, first.End, patterns, text)
	}
}

func distinct(rng *rand.Rand, alphabet string, n int) []string {
	seen := map[string]struct{}{}
	var out []string
	for len(out) < n {
		p := randomString(rng, alphabet, 1+rng.Intn(4))
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func TestBuildIsDeterministic(t *testing.T) {
	patterns := []string{"abra", "cad", "abracadabra", "a", "bra"}
	text := "abracadabra abracadabra"

	first := Build(patterns).FindAll(text)
	second := Build(patterns).FindAll(text)
	assert.Equal(t, first, second)
	assert.Equal(t, hits(first), hits(Build(patterns).FindAll(text)))
}

func TestFailureLinksPointShallower(t *testing.T) {
	a := Build([]string{"he", "she", "his", "hers", "ushers"})

	assert.Equal(t, noLink, a.nodes[root].fail)
	for i := 1; i < len(a.nodes); i++ {
		fail := a.nodes[i].fail
		require.NotEqual(t, noLink, fail, "node %d", i)
		assert.Less(t, a.nodes[fail].depth, a.nodes[i].depth, "node %d", i)
	}
}
