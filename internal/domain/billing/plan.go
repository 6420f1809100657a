package billing

import (
	"github.com/clinithetics/emr/internal/platform/presentation"
)

type Plan uint8

const (
	PlanBasic Plan = iota
	PlanPro
	PlanPremium
	planCount
)

var planNames = [...]string{"basic", "pro", "premium"}

var planBadges = [...]presentation.Badge{
	{Label: "Basic", Tone: presentation.ToneNeutral},
	{Label: "Pro", Tone: presentation.ToneInfo},
	{Label: "Premium", Tone: presentation.ToneSuccess},
}

var (
	_ = [1]struct{}{}[len(planNames)-int(planCount)]
	_ = [1]struct{}{}[len(planBadges)-int(planCount)]
)

func ParsePlan(s string) (Plan, error) {
	return presentation.Parse[Plan]("plan", planNames[:], s)
}

func (p Plan) String() string               { return presentation.Name(planNames[:], p) }
func (p Plan) Badge() presentation.Badge    { return presentation.BadgeOf(planBadges[:], p) }
func (p Plan) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
func (p *Plan) UnmarshalText(b []byte) error {
	v, err := ParsePlan(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// PlanInfo is one entry of the pricing page. Prices are monthly, in rand.
type PlanInfo struct {
	Plan        Plan     `json:"plan"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	Period      string   `json:"period"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Popular     bool     `json:"popular"`
}

var catalog = [...]PlanInfo{
	{
		Plan:        PlanBasic,
		Name:        "Basic",
		Price:       999,
		Description: "Perfect for small practices getting started",
		Features: []string{
			"Up to 500 patients",
			"Basic appointment scheduling",
			"Digital patient records",
			"Standard billing & invoicing",
			"Email support",
			"Basic reporting",
		},
	},
	{
		Plan:        PlanPro,
		Name:        "Pro",
		Price:       2499,
		Description: "Most popular for growing practices",
		Popular:     true,
		Features: []string{
			"Up to 2,000 patients",
			"Advanced scheduling with automation",
			"Complete EMR/EHR system",
			"Intelligent billing & PMB claims",
			"Telehealth consultations",
			"Digital prescriptions",
			"Advanced analytics",
			"Priority support",
		},
	},
	{
		Plan:        PlanPremium,
		Name:        "Premium",
		Price:       4999,
		Description: "Enterprise solution for large practices",
		Features: []string{
			"Unlimited patients",
			"Multi-location support",
			"Advanced telehealth features",
			"Custom integrations",
			"White-label options",
			"Dedicated account manager",
			"24/7 phone support",
			"Custom reporting",
			"API access",
		},
	},
}

var _ = [1]struct{}{}[len(catalog)-int(planCount)]

// Catalog returns a copy of the plan list, cheapest first.
func Catalog() []PlanInfo {
	out := make([]PlanInfo, len(catalog))
	for i, p := range catalog {
		p.Currency = "ZAR"
		p.Period = "month"
		p.Features = append([]string(nil), p.Features...)
		out[i] = p
	}
	return out
}

// Info returns the catalog entry of p.
func (p Plan) Info() (PlanInfo, bool) {
	if p >= planCount {
		return PlanInfo{}, false
	}
	return Catalog()[p], true
}
