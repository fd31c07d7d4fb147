package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/david/tender-tracker/internal/models"
)

// DefaultDamageKeywords are Ukrainian stems for damage, destruction, repair
// and reconstruction. Matching is plain substring matching.
var DefaultDamageKeywords = []string{
	"пошкодж", "руйнув", "зруйнов", "відновл", "реконструкц",
	"відбудов", "ремонт", "віднов", "реставрац",
}

// Classifier flags tenders concerning damaged buildings.
type Classifier interface {
	Classify(ctx context.Context, t models.Tender) (Verdict, error)
}

// Verdict is the outcome of classifying one tender.
type Verdict struct {
	IsDamagedBuilding bool     `json:"is_damaged_building"`
	MatchedKeywords   []string `json:"matched_keywords"`
}

// DamagedTender is a flagged tender with the classification attached.
type DamagedTender struct {
	models.Tender
	Analysis Verdict `json:"analysis"`
}

// KeywordClassifier matches lowercase keyword stems against the title and
// subject description.
type KeywordClassifier struct {
	Keywords []string
}

func NewKeywordClassifier(keywords []string) *KeywordClassifier {
	if len(keywords) == 0 {
		keywords = DefaultDamageKeywords
	}
	return &KeywordClassifier{Keywords: keywords}
}

func (c *KeywordClassifier) Classify(_ context.Context, t models.Tender) (Verdict, error) {
	texts := []string{strings.ToLower(t.Title)}
	if t.Subject != nil {
		texts = append(texts, strings.ToLower(t.Subject.Description))
	}

	matched := map[string]struct{}{}
	for _, kw := range c.Keywords {
		kw = strings.ToLower(kw)
		for _, text := range texts {
			if kw != "" && strings.Contains(text, kw) {
				matched[kw] = struct{}{}
			}
		}
	}

	keywords := make([]string, 0, len(matched))
	for kw := range matched {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	return Verdict{IsDamagedBuilding: len(keywords) > 0, MatchedKeywords: keywords}, nil
}

// BuildingJudge answers whether a text concerns residential buildings.
type BuildingJudge interface {
	IsBuilding(ctx context.Context, text string) (bool, error)
}

// LLMClassifier defers the decision to a language model. Answers outside the
// two-valued vocabulary surface as errors for that record.
type LLMClassifier struct {
	Judge BuildingJudge
}

func (c *LLMClassifier) Classify(ctx context.Context, t models.Tender) (Verdict, error) {
	text := t.Title
	if t.Subject != nil && t.Subject.Description != "" {
		text += "\n" + t.Subject.Description
	}
	ok, err := c.Judge.IsBuilding(ctx, text)
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{IsDamagedBuilding: ok, MatchedKeywords: []string{}}, nil
}

// DamagedBuildings returns the flagged tenders in corpus order. A record the
// classifier fails on is left out and its error is joined into the result;
// the remaining records are still classified.
func DamagedBuildings(ctx context.Context, tenders []models.Tender, c Classifier) ([]DamagedTender, error) {
	var (
		out  []DamagedTender
		errs []error
	)
	for _, t := range tenders {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		v, err := c.Classify(ctx, t)
		if err != nil {
			errs = append(errs, fmt.Errorf("classify tender %s: %w", t.TenderID, err))
			continue
		}
		if v.IsDamagedBuilding {
			out = append(out, DamagedTender{Tender: t, Analysis: v})
		}
	}
	return out, errors.Join(errs...)
}
