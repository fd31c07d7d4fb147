package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/david/tender-tracker/internal/ai"
	"github.com/david/tender-tracker/internal/models"
)

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier(nil)
	tests := []struct {
		name   string
		tender models.Tender
		want   Verdict
	}{
		{
			name:   "title match",
			tender: models.Tender{Title: "Капітальний РЕМОНТ покрівлі"},
			want:   Verdict{IsDamagedBuilding: true, MatchedKeywords: []string{"ремонт"}},
		},
		{
			name: "description match",
			tender: models.Tender{
				Title:   "Роботи",
				Subject: &models.Subject{Description: "Відновлення пошкодженого житлового будинку"},
			},
			want: Verdict{IsDamagedBuilding: true, MatchedKeywords: []string{"віднов", "відновл", "пошкодж"}},
		},
		{
			name:   "no match",
			tender: models.Tender{Title: "Закупівля канцтоварів"},
			want:   Verdict{IsDamagedBuilding: false, MatchedKeywords: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(context.Background(), tt.tender)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Classify mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type judgeFunc func(ctx context.Context, text string) (bool, error)

func (f judgeFunc) IsBuilding(ctx context.Context, text string) (bool, error) { return f(ctx, text) }

func TestDamagedBuildingsPropagatesLabelErrors(t *testing.T) {
	judge := judgeFunc(func(_ context.Context, text string) (bool, error) {
		switch text {
		case "будинок":
			return true, nil
		case "папір":
			return false, nil
		default:
			return false, fmt.Errorf("%w: %q", ai.ErrUnexpectedLabel, "MAYBE")
		}
	})
	tenders := []models.Tender{
		{TenderID: "T1", Title: "будинок"},
		{TenderID: "T2", Title: "незрозуміло"},
		{TenderID: "T3", Title: "папір"},
	}

	out, err := DamagedBuildings(context.Background(), tenders, &LLMClassifier{Judge: judge})
	if !errors.Is(err, ai.ErrUnexpectedLabel) {
		t.Fatalf("expected ErrUnexpectedLabel, got %v", err)
	}
	if len(out) != 1 || out[0].TenderID != "T1" {
		t.Fatalf("expected only T1 flagged, got %+v", out)
	}
}
