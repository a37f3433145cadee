package services

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is the full input tuple of one budget computation.
type Scenario struct {
	Name           string              `json:"name" yaml:"name"`
	Roster         []TeamMember        `json:"roster" yaml:"roster"`
	Schedule       []ScheduleEntry     `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	Fractional     bool                `json:"fractional,omitempty" yaml:"fractional,omitempty"`
	OtherCosts     []OtherCostItem     `json:"other_costs,omitempty" yaml:"other_costs,omitempty"`
	Taxes          TaxConfiguration    `json:"taxes" yaml:"taxes"`
	TaxBase        TaxBase             `json:"tax_base,omitempty" yaml:"tax_base,omitempty"`
	Margin         MarginConfiguration `json:"margin" yaml:"margin"`
	ContractMonths int                 `json:"contract_months" yaml:"contract_months"`
	Allocation     Allocation          `json:"allocation,omitempty" yaml:"allocation,omitempty"`
	StartMonth     int                 `json:"start_month,omitempty" yaml:"start_month,omitempty"`
	StartYear      int                 `json:"start_year,omitempty" yaml:"start_year,omitempty"`
}

// WithDefaults fills unset policy fields from opts and returns the copy.
func (s Scenario) WithDefaults(taxBase TaxBase, allocation Allocation) Scenario {
	if s.TaxBase == "" {
		s.TaxBase = taxBase
	}
	if s.Allocation == "" {
		s.Allocation = allocation
	}
	if s.Margin.Type == "" {
		s.Margin.Type = MarginPercentOfCost
	}
	return s
}

// LoadScenarioYAML decodes a scenario from YAML.
func LoadScenarioYAML(r io.Reader) (Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario yaml: %w", err)
	}
	return s, nil
}

// LoadScenarioJSON decodes a scenario from JSON.
func LoadScenarioJSON(r io.Reader) (Scenario, error) {
	var s Scenario
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario json: %w", err)
	}
	return s, nil
}

// LoadScenario picks the decoder from the file extension. Anything that is
// not .json is read as YAML.
func LoadScenario(filename string, r io.Reader) (Scenario, error) {
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return LoadScenarioJSON(r)
	}
	return LoadScenarioYAML(r)
}
