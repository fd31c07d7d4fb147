package ai

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

var coordinatePairRegex = regexp.MustCompile(`(\d+\.\d+),\s*(\d+\.\d+)`)

const locatePrompt = "determine longitude and latitude based on the context. " +
	"output just two comma separated values without any extra details. context: ```%s```"

// CoordinateGuesser asks an LLM to place a tender on the map from its text.
type CoordinateGuesser struct {
	LLM Completer
}

func NewCoordinateGuesser(llm Completer) *CoordinateGuesser {
	return &CoordinateGuesser{LLM: llm}
}

// Guess sends the serialized record as context. ok is false when the answer
// holds no coordinate pair.
func (g *CoordinateGuesser) Guess(ctx context.Context, record []byte) (lon, lat float64, ok bool, err error) {
	resp, err := g.LLM.GenerateCompletion(ctx, fmt.Sprintf(locatePrompt, record), false)
	if err != nil {
		return 0, 0, false, fmt.Errorf("guess coordinates: %w", err)
	}
	lon, lat, ok = ParseCoordinatePair(resp)
	return lon, lat, ok, nil
}

// ParseCoordinatePair extracts the first "a, b" decimal pair from text. The
// first value is the longitude, the second the latitude.
func ParseCoordinatePair(text string) (lon, lat float64, ok bool) {
	m := coordinatePairRegex.FindStringSubmatch(text)
	if len(m) != 3 {
		return 0, 0, false
	}
	lon, err1 := strconv.ParseFloat(m[1], 64)
	lat, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lon, lat, true
}
