package server

import (
	"net/http"
	"sort"
	"unicode/utf8"

	"github.com/vladimirlihacky/CaAA/internal/automaton"
	"github.com/vladimirlihacky/CaAA/internal/config"
	"github.com/vladimirlihacky/CaAA/internal/logging"
	"github.com/vladimirlihacky/CaAA/internal/wildcard"
)

type SearchRequest struct {
	Patterns []string `json:"patterns"`
	Text     string   `json:"text"`
}

type SearchResponse struct {
	Matches []MatchResult `json:"matches"`
}

type MatchResult struct {
	PatternID int    `json:"pattern_id"`
	Pattern   string `json:"pattern"`
	Start     int    `json:"start"`
}

type WildcardRequest struct {
	Pattern  string `json:"pattern"`
	Wildcard string `json:"wildcard,omitempty"`
	Text     string `json:"text"`
	At       *int   `json:"at,omitempty"`
}

type WildcardResponse struct {
	Fragments []string `json:"fragments"`
	Offsets   []int    `json:"offsets"`
	Starts    []int    `json:"starts"`
}

type WildcardAtResponse struct {
	Fragments []string `json:"fragments"`
	Offsets   []int    `json:"offsets"`
	At        int      `json:"at"`
	Matched   bool     `json:"matched"`
}

// cancelCheckEvery is how many matches are collected between checks of the
// request context.
const cancelCheckEvery = 1024

var errCanceled = &requestError{status: http.StatusServiceUnavailable, msg: "request canceled"}

func (s *Server) handleSearch(r *http.Request, entry *logging.Request) (any, error) {
	var req SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	entry.Patterns = len(req.Patterns)
	entry.TextLength = utf8.RuneCountInString(req.Text)

	if len(req.Patterns) > s.limits.MaxPatterns {
		return nil, badRequest("too many patterns: %d > %d", len(req.Patterns), s.limits.MaxPatterns)
	}

	ctx := r.Context()
	ac := automaton.Build(req.Patterns, automaton.WithObserver(s.observer("literal")))
	matches := make([]MatchResult, 0)
	for m := range ac.Search(req.Text) {
		if len(matches)%cancelCheckEvery == 0 && ctx.Err() != nil {
			return nil, errCanceled
		}
		matches = append(matches, MatchResult{PatternID: m.Pattern.ID, Pattern: m.Pattern.Text, Start: m.Start})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Start == matches[j].Start {
			return matches[i].PatternID < matches[j].PatternID
		}
		return matches[i].Start < matches[j].Start
	})

	entry.Matches = len(matches)
	return SearchResponse{Matches: matches}, nil
}

func (s *Server) handleWildcard(r *http.Request, entry *logging.Request) (any, error) {
	var req WildcardRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	entry.Patterns = 1
	entry.Pattern = req.Pattern
	entry.TextLength = utf8.RuneCountInString(req.Text)

	symbol := s.wildcard
	if req.Wildcard != "" {
		parsed, err := config.ParseWildcard(req.Wildcard)
		if err != nil {
			return nil, err
		}
		symbol = parsed
	}

	pattern := wildcard.Decompose(req.Pattern, symbol)
	matcher := wildcard.NewMatcher(pattern, automaton.WithObserver(s.observer("fragment")))
	fragments, offsets := nonNil(pattern.Fragments), nonNil(pattern.Offsets)

	if req.At != nil {
		resp := WildcardAtResponse{
			Fragments: fragments,
			Offsets:   offsets,
			At:        *req.At,
			Matched:   matcher.MatchAt(req.Text, *req.At),
		}
		if resp.Matched {
			entry.Matches = 1
		}
		return resp, nil
	}

	starts := nonNil(matcher.FindAll(req.Text))
	entry.Matches = len(starts)
	return WildcardResponse{Fragments: fragments, Offsets: offsets, Starts: starts}, nil
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
