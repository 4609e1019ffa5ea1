package core

import (
	"fmt"
	"strings"
)

// Validate checks the settings form. The first problem found is returned,
// worded the way the settings page shows it.
func (s Settings) Validate() error {
	if s.Salary.Cents <= 0 {
		return &ValidationError{Field: "salary", Message: "Salary must be greater than 0."}
	}
	if s.SalaryCreditDate < 1 || s.SalaryCreditDate > 31 {
		return &ValidationError{Field: "salaryCreditDate", Message: "Salary credit date must be between 1 and 31."}
	}
	for i, d := range s.FixedDeductions {
		field := fmt.Sprintf("fixedDeductions[%d]", i)
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return &ValidationError{Field: field, Message: fmt.Sprintf("Fixed deduction #%d: Name is required.", i+1)}
		}
		if d.Amount.Cents <= 0 {
			return &ValidationError{Field: field, Message: fmt.Sprintf("Fixed deduction %q: Amount must be greater than 0.", name)}
		}
		if d.DeductionDate < 1 || d.DeductionDate > 31 {
			return &ValidationError{Field: field, Message: fmt.Sprintf("Fixed deduction %q: Date must be between 1 and 31.", name)}
		}
	}
	if len(s.Categories) == 0 {
		return &ValidationError{Field: "categories", Message: "At least one expense category is required."}
	}
	seen := make(map[string]struct{}, len(s.Categories))
	for i, c := range s.Categories {
		field := fmt.Sprintf("categories[%d]", i)
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return &ValidationError{Field: field, Message: fmt.Sprintf("Category #%d: Name is required.", i+1)}
		}
		if c.MonthlyLimit.Cents <= 0 {
			return &ValidationError{Field: field, Message: fmt.Sprintf("Category %q: Monthly limit must be greater than 0.", name)}
		}
		if c.Kind != "" && c.Kind != CategoryFixed && c.Kind != CategoryVariable {
			return &ValidationError{Field: field, Message: fmt.Sprintf("Category %q: Type must be fixed or variable.", name)}
		}
		lower := strings.ToLower(name)
		if _, dup := seen[lower]; dup {
			return &ValidationError{Field: field, Message: fmt.Sprintf("Duplicate category name: %q.", c.Name)}
		}
		seen[lower] = struct{}{}
	}
	return nil
}

// Normalize trims names and defaults category kinds to variable.
func (s Settings) Normalize() Settings {
	out := Settings{
		Salary:           s.Salary,
		SalaryCreditDate: s.SalaryCreditDate,
		FixedDeductions:  make([]FixedDeduction, len(s.FixedDeductions)),
		Categories:       make([]Category, len(s.Categories)),
	}
	for i, d := range s.FixedDeductions {
		d.Name = strings.TrimSpace(d.Name)
		out.FixedDeductions[i] = d
	}
	for i, c := range s.Categories {
		c.Name = strings.TrimSpace(c.Name)
		if c.Kind == "" {
			c.Kind = CategoryVariable
		}
		out.Categories[i] = c
	}
	return out
}

// Configured reports whether expenses can be budgeted at all.
func (s Settings) Configured() bool {
	return len(s.Categories) > 0
}

func (s Settings) CategoryNames() []string {
	names := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		names[i] = c.Name
	}
	return names
}

// TotalFixedDeductions sums the recurring deductions taken from every salary.
func (s Settings) TotalFixedDeductions() Money {
	var total Money
	for _, d := range s.FixedDeductions {
		total = total.Add(d.Amount)
	}
	return total
}

// Clone returns a deep copy so snapshots never alias live settings.
func (s Settings) Clone() Settings {
	out := s
	out.FixedDeductions = append([]FixedDeduction(nil), s.FixedDeductions...)
	out.Categories = append([]Category(nil), s.Categories...)
	return out
}
