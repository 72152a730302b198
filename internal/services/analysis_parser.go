package services

import (
	"strconv"
	"strings"
)

// Analysis is the structured form of a generated market report.
type Analysis struct {
	Overview        string `json:"overview"`
	OptionsAnalysis string `json:"options_analysis"`
	KeyFactors      string `json:"key_factors"`
	Reasoning       string `json:"reasoning"`
	Pick            string `json:"pick"`
	Score           int    `json:"score"` // 0-100 confidence
}

const (
	markerOverview  = "[OVERVIEW]:"
	markerOptions   = "[OPTIONS]:"
	markerFactors   = "[FACTORS]:"
	markerReasoning = "[REASONING]:"
	markerPick      = "[PICK]:"
	markerScore     = "[SCORE]:"
)

const defaultScore = 50

// ParseAnalysis extracts the labeled sections from generated free text.
// Each section is the substring between its marker and the next one in the
// fixed order above. Missing markers yield empty sections and the score
// falls back to a neutral 50; the parser never fails.
func ParseAnalysis(text string) Analysis {
	a := Analysis{
		Overview:        chunkBetween(text, markerOverview, markerOptions),
		OptionsAnalysis: chunkBetween(text, markerOptions, markerFactors),
		KeyFactors:      chunkBetween(text, markerFactors, markerReasoning),
		Reasoning:       chunkBetween(text, markerReasoning, markerPick),
		Pick:            chunkBetween(text, markerPick, markerScore),
		Score:           defaultScore,
	}

	if raw := chunkBetween(text, markerScore, ""); raw != "" {
		if n, err := strconv.Atoi(digitsOnly(raw)); err == nil {
			a.Score = n
		}
	}
	return a
}

// chunkBetween returns the trimmed text between startMarker and endMarker.
// An empty endMarker means "to end of text".
func chunkBetween(text, startMarker, endMarker string) string {
	start := strings.Index(text, startMarker)
	if start == -1 {
		return ""
	}
	rest := text[start+len(startMarker):]

	end := len(rest)
	if endMarker != "" {
		if idx := strings.Index(rest, endMarker); idx != -1 {
			end = idx
		}
	}
	return strings.TrimSpace(rest[:end])
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
