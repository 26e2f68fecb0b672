package model

// RiskLevel is the holistic risk classification produced by impact analysis.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Identification is the validated output of the identify stage.
type Identification struct {
	ProductName string   `json:"product_name"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand,omitempty"`
	Confidence  float64  `json:"confidence"`
	VisualClues []string `json:"visual_clues"`
	// Error carries the failure text on the synthesized placeholder payload
	// produced when the identify stage itself fails.
	Error string `json:"error,omitempty"`
}

// Knowledge is the validated output of the enrich_knowledge stage.
type Knowledge struct {
	Overview       string   `json:"overview"`
	KeyFeatures    []string `json:"key_features"`
	CommonVariants []string `json:"common_variants"`
	Uncertainties  []string `json:"uncertainties"`
}

// UseCases is the validated output of the analyze_use_cases stage.
type UseCases struct {
	IntendedUsers  []string `json:"intended_users"`
	CommonUseCases []string `json:"common_use_cases"`
	UsageFrequency string   `json:"usage_frequency"`
	MisuseWarnings []string `json:"misuse_warnings"`
}

// Impact is the validated output of the analyze_impact stage.
type Impact struct {
	HealthImpact        string    `json:"health_impact"`
	EnvironmentalImpact string    `json:"environmental_impact"`
	RiskLevel           RiskLevel `json:"risk_level"`
	ImpactScore         float64   `json:"impact_score"`
	Limitations         []string  `json:"limitations"`
}

// Recommendation is the validated output of the recommend stage.
type Recommendation struct {
	Summary      string        `json:"recommendation_summary"`
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative suggests a safer or better product type.
type Alternative struct {
	AlternativeType string `json:"alternative_type"`
	Reason          string `json:"reason"`
}

// BuyLink is a single purchase candidate. Price fields are attached post-hoc
// by best-effort enrichment; enrichment failure for one link never affects
// the others.
type BuyLink struct {
	Platform      string `json:"platform"`
	Link          string `json:"link"`
	Description   string `json:"description"`
	Price         string `json:"price,omitempty"`
	PriceAmount   string `json:"price_amount,omitempty"`
	PriceCurrency string `json:"price_currency,omitempty"`
}

// BuyGuidance is the validated output of the buy_guidance stage, or one of
// the synthesized refusal payloads.
type BuyGuidance struct {
	PurchaseRecommended bool      `json:"purchase_recommended"`
	PurchaseReason      string    `json:"purchase_reason"`
	BuyLinks            []BuyLink `json:"buy_links"`
}

// SafetyRefusal is the fixed payload substituted for the buy_guidance stage
// when impact analysis reported high risk.
func SafetyRefusal() *BuyGuidance {
	return &BuyGuidance{
		PurchaseRecommended: false,
		PurchaseReason:      "High risk detected. Purchase links are disabled for safety.",
		BuyLinks:            []BuyLink{},
	}
}

// FailureRefusal is the default payload substituted when the buy_guidance
// stage itself fails. Distinct from the high-risk refusal.
func FailureRefusal() *BuyGuidance {
	return &BuyGuidance{
		PurchaseRecommended: false,
		PurchaseReason:      "Could not generate trustworthy direct purchase links.",
		BuyLinks:            []BuyLink{},
	}
}
