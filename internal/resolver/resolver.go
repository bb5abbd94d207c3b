package resolver

import (
	"strings"

	"signcast/internal/config"
	"signcast/internal/dictionary"
)

// ResolvedToken records the resolution outcome for one input token. Position
// is a strictly increasing ordinal covering every input token, matched or not,
// so downstream consumers can reconstruct exactly which words were skipped
// and where.
type ResolvedToken struct {
	RawText         string
	NormalizedToken string
	MatchedClip     *dictionary.SignClip
	Position        int
}

// Matched reports whether the token resolved to a clip.
func (t ResolvedToken) Matched() bool {
	return t.MatchedClip != nil
}

// Resolver applies tokenization, synonym canonicalization, and greedy phrase
// matching against dictionary snapshots.
type Resolver struct {
	maxPhraseWords int
	synonyms       map[string]string
}

// New builds a resolver from configuration.
func New(cfg config.Resolver) *Resolver {
	maxPhrase := cfg.MaxPhraseWords
	if maxPhrase < 1 {
		maxPhrase = 1
	}
	synonyms := make(map[string]string, len(cfg.Synonyms))
	for variant, canonical := range cfg.Synonyms {
		synonyms[variant] = canonical
	}
	return &Resolver{maxPhraseWords: maxPhrase, synonyms: synonyms}
}

// Resolve maps text to an ordered token list for the given avatar model.
// Phrase-level lookups are attempted greedily, longest first, before falling
// back to single words. Misses are recorded, never dropped.
func (r *Resolver) Resolve(snapshot *dictionary.Snapshot, text string, model dictionary.AvatarModel) []ResolvedToken {
	words := Tokenize(text)
	resolved := make([]ResolvedToken, 0, len(words))

	position := 0
	for i := 0; i < len(words); {
		phrase, consumed, clip := r.matchPhrase(snapshot, words, i, model)
		if consumed > 1 {
			resolved = append(resolved, ResolvedToken{
				RawText:         joinRaw(words[i : i+consumed]),
				NormalizedToken: phrase,
				MatchedClip:     clip,
				Position:        position,
			})
			position++
			i += consumed
			continue
		}

		word := words[i]
		normalized := r.canonical(word.Normalized)
		token := ResolvedToken{
			RawText:         word.Raw,
			NormalizedToken: normalized,
			Position:        position,
		}
		if clip, ok := snapshot.Lookup(model, normalized); ok {
			matched := clip
			token.MatchedClip = &matched
		}
		resolved = append(resolved, token)
		position++
		i++
	}

	return resolved
}

// matchPhrase attempts the longest dictionary phrase starting at index start.
// Returns the matched phrase, the number of words consumed (0 or 1 when no
// multi-word phrase matched), and the clip.
func (r *Resolver) matchPhrase(snapshot *dictionary.Snapshot, words []word, start int, model dictionary.AvatarModel) (string, int, *dictionary.SignClip) {
	maxLen := r.maxPhraseWords
	if remaining := len(words) - start; maxLen > remaining {
		maxLen = remaining
	}
	for n := maxLen; n >= 2; n-- {
		parts := make([]string, 0, n)
		for _, w := range words[start : start+n] {
			parts = append(parts, r.canonical(w.Normalized))
		}
		phrase := strings.Join(parts, " ")
		if clip, ok := snapshot.Lookup(model, phrase); ok {
			matched := clip
			return phrase, n, &matched
		}
	}
	return "", 0, nil
}

func (r *Resolver) canonical(token string) string {
	if canonical, ok := r.synonyms[token]; ok {
		return canonical
	}
	return token
}

func joinRaw(words []word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, w.Raw)
	}
	return strings.Join(parts, " ")
}
