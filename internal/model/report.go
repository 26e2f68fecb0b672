package model

// ReportStatus represents the final state of an analysis report.
type ReportStatus string

const (
	ReportStatusProcessing ReportStatus = "processing"
	ReportStatusAborted    ReportStatus = "aborted"
	ReportStatusFailed     ReportStatus = "failed"
	ReportStatusComplete   ReportStatus = "complete"
)

// Stage identifies one step of the analysis pipeline.
type Stage string

const (
	StageWebContext Stage = "web_context"
	StageIdentify   Stage = "identify"
	StageKnowledge  Stage = "enrich_knowledge"
	StageUseCases   Stage = "analyze_use_cases"
	StageImpact     Stage = "analyze_impact"
	StageRecommend  Stage = "recommend"
	StageBuyLinks   Stage = "buy_guidance"

	// StageBuyLinksSkipped marks the deliberate high-risk short-circuit
	// of the buy-guidance stage. It carries no data payload of its own.
	StageBuyLinksSkipped Stage = "buy_link_skipped_safety"
)

// StageOrder is the fixed execution order of the pipeline.
var StageOrder = []Stage{
	StageIdentify,
	StageKnowledge,
	StageUseCases,
	StageImpact,
	StageRecommend,
	StageBuyLinks,
}

// Disclaimer is attached to every completed report.
const Disclaimer = "IMPORTANT: This report is generated by AI for informational purposes only. " +
	"It does not constitute medical, legal, or financial advice. " +
	"Always verify product safety labels and consult professionals."

// ReportData holds one optional payload per completed stage. A field is
// non-nil if and only if the corresponding stage identifier appears in
// Report.StepsCompleted.
type ReportData struct {
	InputURLs      []string        `json:"input_urls,omitempty"`
	WebContext     *WebContext     `json:"web_context,omitempty"`
	Identification *Identification `json:"product_summary,omitempty"`
	Knowledge      *Knowledge      `json:"knowledge,omitempty"`
	UseCases       *UseCases       `json:"usage,omitempty"`
	Impact         *Impact         `json:"impact,omitempty"`
	Recommendation *Recommendation `json:"recommendations,omitempty"`
	BuyGuidance    *BuyGuidance    `json:"buy_guidance,omitempty"`
}

// Report is the structured outcome of one pipeline run. It is created fresh
// per Process call, mutated only by the orchestrator during that run, and
// never shared across requests.
type Report struct {
	Status           ReportStatus `json:"status"`
	StepsCompleted   []Stage      `json:"steps_completed"`
	Data             ReportData   `json:"data"`
	Errors           []string     `json:"errors"`
	ConfidenceNotice string       `json:"confidence_notice,omitempty"`
	Disclaimer       string       `json:"disclaimer,omitempty"`
}

// NewReport returns an empty report in the processing state.
func NewReport() *Report {
	return &Report{
		Status:         ReportStatusProcessing,
		StepsCompleted: []Stage{},
		Errors:         []string{},
	}
}

// CompleteStep appends a stage identifier to the completion list.
func (r *Report) CompleteStep(s Stage) {
	r.StepsCompleted = append(r.StepsCompleted, s)
}

// AddError appends a human-readable failure description. Entries are
// additive and never overwrite prior ones.
func (r *Report) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// HasStep reports whether the stage identifier was recorded as completed.
func (r *Report) HasStep(s Stage) bool {
	for _, step := range r.StepsCompleted {
		if step == s {
			return true
		}
	}
	return false
}
