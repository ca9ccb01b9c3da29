package models

// PlanType is the commercial tier of a license.
type PlanType string

const (
	PlanBasic      PlanType = "basic"
	PlanPremium    PlanType = "premium"
	PlanEnterprise PlanType = "enterprise"
)

// PlanLimits are the fixed caps and default monthly amount of a plan.
type PlanLimits struct {
	MaxUnits      int     `json:"maxUnits"`
	MaxUsers      int     `json:"maxUsers"`
	DefaultAmount float64 `json:"defaultAmount"`
}

// planLimits mirrors the commercial table: amounts in BRL per month.
var planLimits = map[PlanType]PlanLimits{
	PlanBasic:      {MaxUnits: 50, MaxUsers: 200, DefaultAmount: 299},
	PlanPremium:    {MaxUnits: 200, MaxUsers: 1000, DefaultAmount: 599},
	PlanEnterprise: {MaxUnits: 9999, MaxUsers: 9999, DefaultAmount: 1500},
}

// LimitsFor returns the caps for a plan. Unknown plans get the basic
// limits rather than zeros.
func LimitsFor(p PlanType) PlanLimits {
	if limits, ok := planLimits[p]; ok {
		return limits
	}
	return planLimits[PlanBasic]
}

// ValidPlan reports whether p names a known plan.
func ValidPlan(p PlanType) bool {
	_, ok := planLimits[p]
	return ok
}
