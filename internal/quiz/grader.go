package quiz

import (
	"math"
	"strings"
)

// CorrectThreshold is the lowest similarity accepted as a correct answer.
const CorrectThreshold = 0.6

const (
	exactSimilarity    = 1.0
	containsSimilarity = 0.9

	overlapWeight  = 0.6
	coverageWeight = 0.4

	// Tokens longer than this may match by containment ("cell" vs "cells").
	minStemLength = 3
)

// Grade is the result of comparing a free-text answer with the reference.
type Grade struct {
	IsCorrect  bool    `json:"is_correct"`
	Similarity float64 `json:"similarity"`
}

const punctuation = ".,!?;:'\"()[]{}-_"

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "of": {}, "in": {}, "on": {}, "at": {}, "to": {},
	"for": {}, "and": {}, "or": {}, "but": {}, "it": {}, "its": {}, "this": {},
	"that": {}, "with": {}, "as": {}, "by": {}, "from": {}, "which": {},
	"what": {}, "who": {}, "do": {}, "does": {}, "did": {},
}

// Normalize lowercases s, drops punctuation and collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// GradeAnswer fuzzily compares userAnswer with referenceAnswer. It never
// fails: an empty answer is simply wrong.
func GradeAnswer(userAnswer, referenceAnswer string) Grade {
	if strings.TrimSpace(userAnswer) == "" {
		return Grade{}
	}

	user := Normalize(userAnswer)
	ref := Normalize(referenceAnswer)

	var sim float64
	switch {
	case user == ref:
		sim = exactSimilarity
	case user != "" && ref != "" && (strings.Contains(user, ref) || strings.Contains(ref, user)):
		sim = containsSimilarity
	default:
		sim = tokenSimilarity(user, ref)
	}
	return Grade{IsCorrect: sim >= CorrectThreshold, Similarity: sim}
}

func tokenSimilarity(user, ref string) float64 {
	userTokens := contentTokens(user)
	refTokens := contentTokens(ref)
	if len(userTokens) == 0 || len(refTokens) == 0 {
		if user == ref {
			return exactSimilarity
		}
		return 0
	}

	matched := 0
	for _, ut := range userTokens {
		for _, rt := range refTokens {
			if tokensMatch(ut, rt) {
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return 0
	}

	larger := max(len(userTokens), len(refTokens))
	smaller := min(len(userTokens), len(refTokens))
	overlap := float64(matched) / float64(larger)
	coverage := float64(matched) / float64(smaller)
	return math.Min(1.0, overlapWeight*overlap+coverageWeight*coverage)
}

func tokensMatch(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) > minStemLength && len(b) > minStemLength {
		return strings.Contains(a, b) || strings.Contains(b, a)
	}
	return false
}

// contentTokens splits s into distinct tokens, in order, without stop words.
func contentTokens(s string) []string {
	fields := strings.Fields(s)
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}
