package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeTags(t *testing.T) {
	got, err := NormalizeTags([]string{" Petrol", "ZOMATO", "petrol", "", "zomato "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"petrol", "zomato"}) {
		t.Fatalf("got %v", got)
	}

	many := make([]string, 11)
	for i := range many {
		many[i] = strings.Repeat("a", i+1)
	}
	if _, err := NormalizeTags(many); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected too many tags error, got %v", err)
	}
	if _, err := NormalizeTags([]string{strings.Repeat("x", 31)}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected long tag error, got %v", err)
	}
	// Duplicates do not count towards the limit.
	dups := append(many[:10:10], "A")
	if got, err := NormalizeTags(dups); err != nil || len(got) != 10 {
		t.Fatalf("dups: got %v err=%v", got, err)
	}
}
