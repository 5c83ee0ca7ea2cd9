package database

import (
	"context"
	"errors"
	"testing"
)

func TestFilterRepository_Upsert(t *testing.T) {
	repo := NewFilterRepository(newTestDB(t))
	ctx := context.Background()

	title := "Ads"
	rule, err := repo.UpsertFilter(ctx, FilterRuleInput{Pattern: "/sponsored/", Title: &title})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if rule.Pattern != "/sponsored/" || rule.Title != "Ads" {
		t.Errorf("Unexpected rule: %+v", rule)
	}
	if rule.DateTime == "" {
		t.Error("Expected creation timestamp")
	}

	if _, err := repo.UpsertFilter(ctx, FilterRuleInput{Pattern: "/sponsored/"}); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate pattern, got: %v", err)
	}

	updated, err := repo.UpsertFilter(ctx, FilterRuleInput{ID: rule.ID, Pattern: `regex:^https://ads\.`})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if updated.Pattern != `regex:^https://ads\.` {
		t.Errorf("Expected updated pattern, got '%s'", updated.Pattern)
	}
	if updated.Title != "Ads" {
		t.Errorf("Expected title to be kept when omitted, got '%s'", updated.Title)
	}

	if _, err := repo.UpsertFilter(ctx, FilterRuleInput{ID: 999, Pattern: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown id, got: %v", err)
	}
}

func TestFilterRepository_ListAndDelete(t *testing.T) {
	repo := NewFilterRepository(newTestDB(t))
	ctx := context.Background()

	for _, pattern := range []string{"a", "b", "c"} {
		if _, err := repo.UpsertFilter(ctx, FilterRuleInput{Pattern: pattern}); err != nil {
			t.Fatalf("Failed to insert filter %s: %v", pattern, err)
		}
	}

	rules, err := repo.ListFilters(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("Expected 3 rules, got %d", len(rules))
	}

	page, err := repo.ListFiltersPage(ctx, 2, 2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(page.Items) != 1 || page.TotalPages != 2 {
		t.Errorf("Expected 1 item on page 2 of 2, got %d items of %d pages", len(page.Items), page.TotalPages)
	}

	if err := repo.DeleteFilter(ctx, rules[0].ID); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := repo.DeleteFilter(ctx, rules[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}
