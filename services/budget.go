// Package services implements the budget engine: team, ancillary cost, tax
// and margin calculations, their consolidation and the spreadsheet import
// and export around them.
package services

import (
	"fmt"
	"maps"
	"slices"
	"sort"
)

// CostCategory is the closed set of ancillary cost categories.
type CostCategory string

const (
	CategoryInfrastructure CostCategory = "infrastructure"
	CategoryLicense        CostCategory = "license"
	CategoryFacility       CostCategory = "facility"
	CategoryTraining       CostCategory = "training"
	CategoryCertification  CostCategory = "certification"
	CategoryContingency    CostCategory = "contingency"
	CategoryOther          CostCategory = "other"
)

// CostCategories lists every category in display order.
var CostCategories = []CostCategory{
	CategoryInfrastructure,
	CategoryLicense,
	CategoryFacility,
	CategoryTraining,
	CategoryCertification,
	CategoryContingency,
	CategoryOther,
}

// MarginType selects how a margin value turns cost into price.
type MarginType string

const (
	MarginPercentOfCost MarginType = "percentage-of-cost"
	MarginFixedAmount   MarginType = "fixed-amount"
)

// TaxBase selects the amount tax rates are applied to.
type TaxBase string

const (
	TaxBaseCost  TaxBase = "cost"
	TaxBasePrice TaxBase = "price"
)

// Allocation selects how totals map onto contract months.
type Allocation string

const (
	// AllocationSteady treats totals as the monthly run-rate: every month
	// bills the recurring price, so revenue sums to price × months when
	// nothing is one-time. One-time items are billed in month 1 only.
	AllocationSteady Allocation = "steady"
	// AllocationSpread spreads the total price evenly across the contract,
	// giving revenue = price / months per month (a 7975 price over 12
	// months is 664.58 a month).
	AllocationSpread Allocation = "spread"
)

// TeamMember is one staffed position on the roster.
type TeamMember struct {
	ID              string  `json:"id" yaml:"id"`
	Role            string  `json:"role" yaml:"role"`
	MonthlySalary   float64 `json:"monthly_salary" yaml:"monthly_salary"`
	MonthlyBenefits float64 `json:"monthly_benefits" yaml:"monthly_benefits"`
	Shift           string  `json:"shift,omitempty" yaml:"shift,omitempty"`
}

// MonthlyCost is salary plus benefits.
func (m TeamMember) MonthlyCost() float64 {
	return m.MonthlySalary + m.MonthlyBenefits
}

// ScheduleEntry places a member on a coverage window. Hours are 0-24; an
// end before the start wraps past midnight.
type ScheduleEntry struct {
	MemberID  string  `json:"member_id" yaml:"member_id"`
	ShiftCode string  `json:"shift_code,omitempty" yaml:"shift_code,omitempty"`
	StartHour float64 `json:"start_hour,omitempty" yaml:"start_hour,omitempty"`
	EndHour   float64 `json:"end_hour,omitempty" yaml:"end_hour,omitempty"`
}

// shiftHours maps shift codes to the hours one entry covers per day.
var shiftHours = map[string]float64{
	"4x1":   4,
	"6x1":   6,
	"8x5":   8,
	"12x36": 12,
	"24x7":  24,
}

// Hours returns the coverage hours of the entry.
func (s ScheduleEntry) Hours() float64 {
	if s.StartHour == 0 && s.EndHour == 0 {
		return shiftHours[s.ShiftCode]
	}
	h := s.EndHour - s.StartHour
	if h <= 0 {
		h += 24
	}
	return h
}

// OtherCostItem is a non-labor cost line.
type OtherCostItem struct {
	Category    CostCategory `json:"category" yaml:"category"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Quantity    float64      `json:"quantity" yaml:"quantity"`
	UnitCost    float64      `json:"unit_cost" yaml:"unit_cost"`
	OneTime     bool         `json:"one_time,omitempty" yaml:"one_time,omitempty"`
}

// Total is quantity times unit cost.
func (c OtherCostItem) Total() float64 {
	return c.Quantity * c.UnitCost
}

// TaxRate is a named percentage (0-100 scale).
type TaxRate struct {
	Name    string  `json:"name" yaml:"name"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// TaxConfiguration is an ordered set of tax rates.
type TaxConfiguration struct {
	Rates []TaxRate `json:"rates" yaml:"rates"`
}

// MarginConfiguration describes how price is derived from cost. The
// guardrail percentages only produce warnings.
type MarginConfiguration struct {
	Type           MarginType `json:"type" yaml:"type"`
	Value          float64    `json:"value" yaml:"value"`
	MinimumPercent float64    `json:"minimum_percent,omitempty" yaml:"minimum_percent,omitempty"`
	TargetPercent  float64    `json:"target_percent,omitempty" yaml:"target_percent,omitempty"`
	MaximumPercent float64    `json:"maximum_percent,omitempty" yaml:"maximum_percent,omitempty"`
}

// Warning codes attached to results.
const (
	WarnMarginBelowMinimum = "margin_below_minimum"
	WarnMarginBelowTarget  = "margin_below_target"
	WarnMarginAboveMaximum = "margin_above_maximum"
	WarnMarginOutOfRange   = "margin_out_of_range"
	WarnTaxRateHigh        = "tax_rate_high"
	WarnProjectedLoss      = "projected_loss"
	WarnFirstMonthLoss     = "first_month_loss"
)

// Warning is an advisory flag. It never stops a computation.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MemberCost is one line of the team cost breakdown.
type MemberCost struct {
	MemberID      string  `json:"member_id"`
	Role          string  `json:"role"`
	MonthlyCost   float64 `json:"monthly_cost"`
	Fraction      float64 `json:"fraction"`
	AllocatedCost float64 `json:"allocated_cost"`
}

// TeamCostSummary holds the labor subtotal and its per-member breakdown.
type TeamCostSummary struct {
	Salaries  float64      `json:"salaries"`
	Benefits  float64      `json:"benefits"`
	Total     float64      `json:"total"`
	Breakdown []MemberCost `json:"breakdown"`
}

// OtherCostSummary holds the ancillary cost subtotals.
type OtherCostSummary struct {
	ByCategory map[CostCategory]float64 `json:"by_category"`
	Recurring  float64                  `json:"recurring"`
	OneTime    float64                  `json:"one_time"`
	Total      float64                  `json:"total"`
}

// TaxLine is the computed amount for one configured rate.
type TaxLine struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
	Amount  float64 `json:"amount"`
}

// TaxSummary holds the per-rate breakdown and the tax total.
type TaxSummary struct {
	Base      float64   `json:"base"`
	Breakdown []TaxLine `json:"breakdown"`
	Total     float64   `json:"total"`
	Warnings  []Warning `json:"warnings,omitempty"`
}

// MarginResult is the price derived from a cost total.
type MarginResult struct {
	TotalPrice    float64   `json:"total_price"`
	MarginApplied float64   `json:"margin_applied"`
	MarginPercent float64   `json:"margin_percent"`
	OneTimeCost   float64   `json:"one_time_cost"`
	Warnings      []Warning `json:"warnings,omitempty"`
}

// MonthlyBudget is one contract month. Without a start date Month and Year
// count from the contract start (year 1, month 1).
type MonthlyBudget struct {
	Index         int     `json:"index"`
	Month         int     `json:"month"`
	Year          int     `json:"year"`
	Revenue       float64 `json:"revenue"`
	Cost          float64 `json:"cost"`
	Profit        float64 `json:"profit"`
	MarginPercent float64 `json:"margin_percent"`
}

// ConsolidatedBudget is the aggregate result. It is built fresh on every
// call and never updated in place.
type ConsolidatedBudget struct {
	Team                TeamCostSummary  `json:"team"`
	Other               OtherCostSummary `json:"other"`
	Taxes               TaxSummary       `json:"taxes"`
	TotalCost           float64          `json:"total_cost"`
	TotalPrice          float64          `json:"total_price"`
	Profit              float64          `json:"profit"`
	ProfitMarginPercent float64          `json:"profit_margin_percent"`
	Allocation          Allocation       `json:"allocation"`
	Months              []MonthlyBudget  `json:"months"`
	Warnings            []Warning        `json:"warnings,omitempty"`
}

// EngineOptions tunes the heuristics of an Engine.
type EngineOptions struct {
	TaxRateWarnPercent float64
	StandardShiftHours float64
	Allocation         Allocation
	TaxBase            TaxBase
	StartMonth         int // 1-12, zero when unknown
	StartYear          int
}

// DefaultEngineOptions returns the stock heuristics.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		TaxRateWarnPercent: 50,
		StandardShiftHours: 8,
		Allocation:         AllocationSteady,
		TaxBase:            TaxBaseCost,
	}
}

// Engine computes budgets. It holds no mutable state and is safe to share
// between goroutines.
type Engine struct {
	opts EngineOptions
}

// NewEngine returns an Engine using opts. Zero heuristics fall back to the
// defaults.
func NewEngine(opts EngineOptions) Engine {
	def := DefaultEngineOptions()
	if opts.TaxRateWarnPercent <= 0 {
		opts.TaxRateWarnPercent = def.TaxRateWarnPercent
	}
	if opts.StandardShiftHours <= 0 {
		opts.StandardShiftHours = def.StandardShiftHours
	}
	if opts.Allocation == "" {
		opts.Allocation = def.Allocation
	}
	if opts.TaxBase == "" {
		opts.TaxBase = def.TaxBase
	}
	return Engine{opts: opts}
}

// Options returns the effective options.
func (e Engine) Options() EngineOptions {
	return e.opts
}

// Prepare fills the policy fields a scenario left empty from the engine
// defaults.
func (e Engine) Prepare(s Scenario) Scenario {
	return s.WithDefaults(e.opts.TaxBase, e.opts.Allocation)
}

// WithAllocation returns a copy of e using a different allocation policy.
func (e Engine) WithAllocation(a Allocation) Engine {
	if a != "" {
		e.opts.Allocation = a
	}
	return e
}

// WithStart returns a copy of e whose monthly schedule starts at month/year.
func (e Engine) WithStart(month, year int) Engine {
	e.opts.StartMonth = month
	e.opts.StartYear = year
	return e
}

// CalcTeamCosts sums salary and benefits across the roster. The full monthly
// cost is attributed to every member unless fractional is set and the
// schedule is non-empty; then each scheduled member is weighted by
// scheduled hours over the standard shift, capped at 1.
func (e Engine) CalcTeamCosts(roster []TeamMember, schedule []ScheduleEntry, fractional bool) TeamCostSummary {
	summary := TeamCostSummary{Breakdown: make([]MemberCost, 0, len(roster))}

	var hours map[string]float64
	if fractional && len(schedule) > 0 {
		hours = make(map[string]float64, len(schedule))
		for _, s := range schedule {
			hours[s.MemberID] += s.Hours()
		}
	}

	for _, m := range roster {
		fraction := 1.0
		if h, ok := hours[m.ID]; ok {
			fraction = h / e.opts.StandardShiftHours
			if fraction > 1 {
				fraction = 1
			}
		}
		monthly := m.MonthlyCost()
		allocated := monthly * fraction

		summary.Salaries += m.MonthlySalary * fraction
		summary.Benefits += m.MonthlyBenefits * fraction
		summary.Total += allocated
		summary.Breakdown = append(summary.Breakdown, MemberCost{
			MemberID:      m.ID,
			Role:          m.Role,
			MonthlyCost:   monthly,
			Fraction:      fraction,
			AllocatedCost: allocated,
		})
	}
	return summary
}

// CalcOtherCosts sums ancillary items per category and splits recurring from
// one-time amounts.
func (e Engine) CalcOtherCosts(items []OtherCostItem) OtherCostSummary {
	summary := OtherCostSummary{ByCategory: make(map[CostCategory]float64)}
	for _, item := range items {
		total := item.Total()
		summary.ByCategory[item.Category] += total
		if item.OneTime {
			summary.OneTime += total
		} else {
			summary.Recurring += total
		}
	}
	summary.Total = summary.Recurring + summary.OneTime
	return summary
}

// CalcTaxes applies every configured rate to base. Rates are taken as given;
// a rate above the warning threshold is flagged but still applied.
func (e Engine) CalcTaxes(base float64, cfg TaxConfiguration) TaxSummary {
	summary := TaxSummary{Base: base, Breakdown: make([]TaxLine, 0, len(cfg.Rates))}
	for _, r := range cfg.Rates {
		amount := base * r.Percent / 100
		summary.Breakdown = append(summary.Breakdown, TaxLine{
			Name:    r.Name,
			Percent: r.Percent,
			Amount:  amount,
		})
		summary.Total += amount
		if r.Percent > e.opts.TaxRateWarnPercent {
			summary.Warnings = append(summary.Warnings, Warning{
				Code:    WarnTaxRateHigh,
				Message: fmt.Sprintf("tax %q rate %.2f%% exceeds %.2f%%", r.Name, r.Percent, e.opts.TaxRateWarnPercent),
			})
		}
	}
	return summary
}

// CalcMargins derives a price from totalCosts. For percentage-of-cost the
// margin is a share of the resulting price: 20% on 80 gives 100. A
// percentage of 100 or more cannot be priced, so the cost is returned as the
// price with a warning. items is only consulted to report the one-time
// costs the price has to recover.
func (e Engine) CalcMargins(totalCosts float64, cfg MarginConfiguration, items []OtherCostItem) MarginResult {
	var res MarginResult

	switch cfg.Type {
	case MarginFixedAmount:
		res.TotalPrice = totalCosts + cfg.Value
	default:
		if cfg.Value >= 100 {
			res.TotalPrice = totalCosts
			res.Warnings = append(res.Warnings, Warning{
				Code:    WarnMarginOutOfRange,
				Message: fmt.Sprintf("margin %.2f%% of price is not achievable, no margin applied", cfg.Value),
			})
		} else {
			res.TotalPrice = totalCosts / (1 - cfg.Value/100)
		}
	}

	res.MarginApplied = res.TotalPrice - totalCosts
	res.MarginPercent = marginPercent(res.MarginApplied, res.TotalPrice)
	res.Warnings = append(res.Warnings, guardrailWarnings(res.MarginPercent, cfg)...)

	for _, item := range items {
		if item.OneTime {
			res.OneTimeCost += item.Total()
		}
	}
	return res
}

func guardrailWarnings(pct float64, cfg MarginConfiguration) []Warning {
	var out []Warning
	if cfg.MinimumPercent > 0 && pct < cfg.MinimumPercent {
		out = append(out, Warning{
			Code:    WarnMarginBelowMinimum,
			Message: fmt.Sprintf("margin %.2f%% is below minimum %.2f%%", pct, cfg.MinimumPercent),
		})
	} else if cfg.TargetPercent > 0 && pct < cfg.TargetPercent {
		out = append(out, Warning{
			Code:    WarnMarginBelowTarget,
			Message: fmt.Sprintf("margin %.2f%% is below target %.2f%%", pct, cfg.TargetPercent),
		})
	}
	if cfg.MaximumPercent > 0 && pct > cfg.MaximumPercent {
		out = append(out, Warning{
			Code:    WarnMarginAboveMaximum,
			Message: fmt.Sprintf("margin %.2f%% is above maximum %.2f%%", pct, cfg.MaximumPercent),
		})
	}
	return out
}

// CalcConsolidatedBudget combines precomputed team costs and taxes with the
// ancillary items into a priced budget and its monthly schedule. Taxes must
// already be computed on whatever base the caller's policy selects. A
// contract shorter than one month is treated as one month.
func (e Engine) CalcConsolidatedBudget(team TeamCostSummary, items []OtherCostItem, taxes TaxSummary, margin MarginConfiguration, contractMonths int) ConsolidatedBudget {
	if contractMonths < 1 {
		contractMonths = 1
	}

	other := e.CalcOtherCosts(items)
	totalCost := team.Total + other.Total + taxes.Total
	priced := e.CalcMargins(totalCost, margin, items)

	b := ConsolidatedBudget{
		Team:       team,
		Other:      other,
		Taxes:      taxes,
		TotalCost:  totalCost,
		TotalPrice: priced.TotalPrice,
		Profit:     priced.TotalPrice - totalCost,
		Allocation: e.opts.Allocation,
	}
	b.ProfitMarginPercent = marginPercent(b.Profit, b.TotalPrice)
	b.Months = e.monthlySchedule(b.TotalPrice, totalCost, oneTimeShare(team, other, taxes), contractMonths)

	b.Warnings = append(b.Warnings, taxes.Warnings...)
	b.Warnings = append(b.Warnings, priced.Warnings...)
	if b.Profit < 0 {
		b.Warnings = append(b.Warnings, Warning{
			Code:    WarnProjectedLoss,
			Message: fmt.Sprintf("price %.2f is below cost %.2f", b.TotalPrice, b.TotalCost),
		})
	} else if len(b.Months) > 0 && b.Months[0].Profit < 0 {
		b.Warnings = append(b.Warnings, Warning{
			Code:    WarnFirstMonthLoss,
			Message: fmt.Sprintf("one-time costs of %.2f make month 1 loss-making", other.OneTime),
		})
	}
	return b
}

// monthlySchedule lays totals out over the contract. The one-time share of
// cost and price lands in the first month only. Percentage margins price
// both shares at the same rate; a fixed margin is split in proportion to
// cost.
func (e Engine) monthlySchedule(price, cost, oneTimeCost float64, months int) []MonthlyBudget {
	var oneTimePrice float64
	if cost > 0 {
		oneTimePrice = price * oneTimeCost / cost
	}
	revenue := price - oneTimePrice
	recurring := cost - oneTimeCost
	if e.opts.Allocation == AllocationSpread {
		revenue = price / float64(months)
		oneTimePrice = 0
		recurring = recurring / float64(months)
	}

	out := make([]MonthlyBudget, months)
	for i := range out {
		r, c := revenue, recurring
		if i == 0 {
			r += oneTimePrice
			c += oneTimeCost
		}
		month, year := e.calendar(i)
		out[i] = MonthlyBudget{
			Index:         i + 1,
			Month:         month,
			Year:          year,
			Revenue:       r,
			Cost:          c,
			Profit:        r - c,
			MarginPercent: marginPercent(r-c, r),
		}
	}
	return out
}

// oneTimeShare is the part of the total cost owed to one-time items,
// including the taxes levied on them.
func oneTimeShare(team TeamCostSummary, other OtherCostSummary, taxes TaxSummary) float64 {
	if other.OneTime == 0 {
		return 0
	}
	share := other.OneTime
	if base := team.Total + other.Total; base > 0 {
		share += taxes.Total * other.OneTime / base
	}
	return share
}

func (e Engine) calendar(offset int) (month, year int) {
	if e.opts.StartMonth < 1 || e.opts.StartMonth > 12 || e.opts.StartYear == 0 {
		return offset%12 + 1, offset/12 + 1
	}
	zero := e.opts.StartMonth - 1 + offset
	return zero%12 + 1, e.opts.StartYear + zero/12
}

// BuildBudget runs the whole pipeline for a scenario, resolving the tax base
// policy before the consolidation step.
func (e Engine) BuildBudget(s Scenario) ConsolidatedBudget {
	eng := e.WithAllocation(s.Allocation)
	if s.StartMonth != 0 || s.StartYear != 0 {
		eng = eng.WithStart(s.StartMonth, s.StartYear)
	}

	team := eng.CalcTeamCosts(s.Roster, s.Schedule, s.Fractional)
	other := eng.CalcOtherCosts(s.OtherCosts)

	base := team.Total + other.Total
	if s.TaxBase == TaxBasePrice {
		base = eng.CalcMargins(base, s.Margin, nil).TotalPrice
	}
	taxes := eng.CalcTaxes(base, s.Taxes)

	return eng.CalcConsolidatedBudget(team, s.OtherCosts, taxes, s.Margin, s.ContractMonths)
}

// SortedCategories returns the categories present in the summary, in
// CostCategories order followed by any unknown ones alphabetically.
func (s OtherCostSummary) SortedCategories() []CostCategory {
	known := make(map[CostCategory]bool, len(CostCategories))
	var out []CostCategory
	for _, c := range CostCategories {
		known[c] = true
		if _, ok := s.ByCategory[c]; ok {
			out = append(out, c)
		}
	}
	var extra []CostCategory
	for c := range s.ByCategory {
		if !known[c] {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// marginPercent returns amount/price as a percentage, 0 when price is 0.
func marginPercent(amount, price float64) float64 {
	if price == 0 {
		return 0
	}
	return amount / price * 100
}

// Clone returns a deep copy so cached results can be handed out safely.
func (b ConsolidatedBudget) Clone() ConsolidatedBudget {
	out := b
	out.Team.Breakdown = slices.Clone(b.Team.Breakdown)
	out.Other.ByCategory = maps.Clone(b.Other.ByCategory)
	out.Taxes.Breakdown = slices.Clone(b.Taxes.Breakdown)
	out.Taxes.Warnings = slices.Clone(b.Taxes.Warnings)
	out.Months = slices.Clone(b.Months)
	out.Warnings = slices.Clone(b.Warnings)
	return out
}
