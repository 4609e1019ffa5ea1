package core

import (
	"errors"
	"testing"
)

func validSettings() Settings {
	return Settings{
		Salary:           Money{Cents: 3000000},
		SalaryCreditDate: 3,
		FixedDeductions:  []FixedDeduction{{Name: "Rent", Amount: Money{Cents: 1000000}, DeductionDate: 5}},
		Categories: []Category{
			{Name: "Food", MonthlyLimit: Money{Cents: 300000}, Kind: CategoryVariable},
			{Name: "Travel", MonthlyLimit: Money{Cents: 200000}},
		},
	}
}

func TestSettingsValidate(t *testing.T) {
	if err := validSettings().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Settings)
		msg    string
	}{
		{"salary", func(s *Settings) { s.Salary = Money{} }, "Salary must be greater than 0."},
		{"credit day low", func(s *Settings) { s.SalaryCreditDate = 0 }, "Salary credit date must be between 1 and 31."},
		{"credit day high", func(s *Settings) { s.SalaryCreditDate = 32 }, "Salary credit date must be between 1 and 31."},
		{"deduction name", func(s *Settings) { s.FixedDeductions[0].Name = " " }, "Fixed deduction #1: Name is required."},
		{"deduction amount", func(s *Settings) { s.FixedDeductions[0].Amount = Money{} }, `Fixed deduction "Rent": Amount must be greater than 0.`},
		{"deduction date", func(s *Settings) { s.FixedDeductions[0].DeductionDate = 40 }, `Fixed deduction "Rent": Date must be between 1 and 31.`},
		{"no categories", func(s *Settings) { s.Categories = nil }, "At least one expense category is required."},
		{"category limit", func(s *Settings) { s.Categories[1].MonthlyLimit = Money{} }, `Category "Travel": Monthly limit must be greater than 0.`},
		{"category kind", func(s *Settings) { s.Categories[1].Kind = "weird" }, `Category "Travel": Type must be fixed or variable.`},
		{"duplicate", func(s *Settings) { s.Categories[1].Name = " food " }, `Duplicate category name: " food ".`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validSettings()
			tc.mutate(&s)
			err := s.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Message != tc.msg {
				t.Fatalf("message = %q, want %q", ve.Message, tc.msg)
			}
		})
	}
}

func TestSettingsNormalize(t *testing.T) {
	s := validSettings()
	s.Categories[0].Name = "  Food "
	n := s.Normalize()
	if n.Categories[0].Name != "Food" {
		t.Fatalf("name not trimmed: %q", n.Categories[0].Name)
	}
	if n.Categories[1].Kind != CategoryVariable {
		t.Fatalf("kind not defaulted: %q", n.Categories[1].Kind)
	}
	if s.Categories[0].Name != "  Food " {
		t.Fatalf("normalize must not mutate the receiver")
	}
	if n.TotalFixedDeductions().Cents != 1000000 {
		t.Fatalf("total deductions = %d", n.TotalFixedDeductions().Cents)
	}
}
