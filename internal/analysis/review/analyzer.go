package review

import (
	"fmt"
	"strings"
)

// Verdict is the heuristic assessment of a set of candidate answers. It is
// the fallback used when the model-backed reviewer is unavailable.
type Verdict struct {
	Score        int // 0-100
	Strengths    []string
	Improvements []string
}

var depthSignals = []string{
	"because", "trade-off", "tradeoff", "latency", "throughput", "consistency",
	"index", "cache", "queue", "retry", "timeout", "rollback", "monitor",
	"metric", "test", "benchmark", "profil", "complexity", "o(n", "o(1",
	"concurren", "lock", "transaction", "idempoten", "partition", "replica",
}

var hedgeSignals = []string{
	"i guess", "maybe", "i'm not sure", "i am not sure", "probably",
	"i don't know", "i dont know", "kind of", "sort of", "i think maybe",
}

// Analyze scores candidate answers from surface signals: answer length,
// technical vocabulary and hedging. It is intentionally crude; the
// model-backed path produces the real assessment.
func Analyze(answers []string) Verdict {
	if len(answers) == 0 {
		return Verdict{
			Score:        0,
			Improvements: []string{"No answers were given; complete at least one question to receive feedback."},
		}
	}

	var (
		totalWords int
		depthHits  int
		hedgeHits  int
		shortOnes  int
	)

	for _, answer := range answers {
		normalized := strings.ToLower(answer)
		words := len(strings.Fields(answer))
		totalWords += words
		if words < 15 {
			shortOnes++
		}
		for _, signal := range depthSignals {
			if strings.Contains(normalized, signal) {
				depthHits++
			}
		}
		for _, signal := range hedgeSignals {
			if strings.Contains(normalized, signal) {
				hedgeHits++
			}
		}
	}

	avgWords := totalWords / len(answers)

	score := 40
	score += min(depthHits*5, 35)
	if avgWords >= 40 {
		score += 15
	} else if avgWords >= 20 {
		score += 8
	}
	score -= min(hedgeHits*4, 20)
	score -= min(shortOnes*5, 15)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var strengths, improvements []string
	if depthHits >= 3 {
		strengths = append(strengths, "Answers used concrete technical vocabulary rather than generalities.")
	}
	if avgWords >= 40 {
		strengths = append(strengths, "Answers were developed in enough depth to evaluate reasoning.")
	}
	if len(strengths) == 0 {
		strengths = append(strengths, "Engaged with every question asked.")
	}

	if shortOnes > 0 {
		improvements = append(improvements, fmt.Sprintf("%d answer(s) were too brief; walk through your reasoning step by step.", shortOnes))
	}
	if hedgeHits > 0 {
		improvements = append(improvements, "Reduce hedging language; commit to an approach and explain its trade-offs.")
	}
	if depthHits < 3 {
		improvements = append(improvements, "Ground answers in specifics: name the data structures, failure modes and numbers involved.")
	}

	return Verdict{
		Score:        score,
		Strengths:    strengths,
		Improvements: improvements,
	}
}
