package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnexpectedLabel is returned when the model answers outside the YES/NO vocabulary.
var ErrUnexpectedLabel = errors.New("unexpected classifier label")

const buildingPrompt = `Analyze the text and determine if it's related to restoring or building buildings, houses,
apartments, flats.
Text: %q

Respond with a text YES or NO.
Only one word in response, no other text.`

// BuildingClassifier asks an LLM whether a text concerns restoring or
// constructing residential buildings.
type BuildingClassifier struct {
	LLM Completer
}

func NewBuildingClassifier(llm Completer) *BuildingClassifier {
	return &BuildingClassifier{LLM: llm}
}

// IsBuilding returns the model's YES/NO verdict. Any other answer is an
// ErrUnexpectedLabel; the caller decides what to do with the record.
func (c *BuildingClassifier) IsBuilding(ctx context.Context, text string) (bool, error) {
	resp, err := c.LLM.GenerateCompletion(ctx, fmt.Sprintf(buildingPrompt, text), false)
	if err != nil {
		return false, fmt.Errorf("classify building: %w", err)
	}

	switch label := strings.TrimSpace(resp); label {
	case "YES":
		return true, nil
	case "NO":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnexpectedLabel, label)
	}
}
