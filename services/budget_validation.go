package services

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks a roster entry.
func (m TeamMember) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ID, validation.Required),
		validation.Field(&m.MonthlySalary, validation.Min(0.0)),
		validation.Field(&m.MonthlyBenefits, validation.Min(0.0)),
	)
}

// Validate checks a schedule entry in isolation. Member references are
// checked by ValidateScenario.
func (s ScheduleEntry) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.MemberID, validation.Required),
		validation.Field(&s.StartHour, validation.Min(0.0), validation.Max(24.0)),
		validation.Field(&s.EndHour, validation.Min(0.0), validation.Max(24.0)),
		validation.Field(&s.ShiftCode, validation.When(s.StartHour == 0 && s.EndHour == 0,
			validation.Required.Error("shift_code or start/end hours are required"),
			validation.By(knownShiftCode),
		)),
	)
}

func knownShiftCode(value any) error {
	code, _ := value.(string)
	if _, ok := shiftHours[code]; !ok {
		return fmt.Errorf("unknown shift code %q", code)
	}
	return nil
}

// Validate checks an ancillary cost line.
func (c OtherCostItem) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Category, validation.Required, validation.In(categoryValues()...)),
		validation.Field(&c.Quantity, validation.Min(0.0)),
		validation.Field(&c.UnitCost, validation.Min(0.0)),
	)
}

func categoryValues() []any {
	out := make([]any, len(CostCategories))
	for i, c := range CostCategories {
		out[i] = c
	}
	return out
}

// Validate checks a tax rate. Implausible percentages are left to the
// engine's warnings.
func (r TaxRate) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Percent, validation.Min(0.0)),
	)
}

// Validate checks every configured rate.
func (c TaxConfiguration) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Rates),
	)
}

// Validate checks the margin policy.
func (m MarginConfiguration) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Type, validation.Required, validation.In(MarginPercentOfCost, MarginFixedAmount)),
		validation.Field(&m.Value, validation.Min(0.0)),
		validation.Field(&m.MinimumPercent, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&m.TargetPercent, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&m.MaximumPercent, validation.Min(0.0), validation.Max(100.0)),
	)
}

// ValidateScenario is the boundary check run before a scenario reaches the
// engine. The returned error is a validation.Errors keyed by field name when
// the input is malformed.
func ValidateScenario(s Scenario) error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.Roster),
		validation.Field(&s.Schedule, validation.By(scheduleReferences(s.Roster))),
		validation.Field(&s.OtherCosts),
		validation.Field(&s.Taxes),
		validation.Field(&s.TaxBase, validation.In(TaxBaseCost, TaxBasePrice)),
		validation.Field(&s.Margin),
		validation.Field(&s.ContractMonths, validation.Required, validation.Min(1)),
		validation.Field(&s.Allocation, validation.In(AllocationSteady, AllocationSpread)),
		validation.Field(&s.StartMonth, validation.Min(0), validation.Max(12)),
	)
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return verrs
	}
	return fmt.Errorf("validate scenario: %w", err)
}

func scheduleReferences(roster []TeamMember) validation.RuleFunc {
	ids := make(map[string]bool, len(roster))
	for _, m := range roster {
		ids[m.ID] = true
	}
	return func(value any) error {
		entries, _ := value.([]ScheduleEntry)
		for i, e := range entries {
			if e.MemberID != "" && !ids[e.MemberID] {
				return fmt.Errorf("entry %d references unknown member %q", i, e.MemberID)
			}
		}
		return nil
	}
}
