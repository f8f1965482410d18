package session

// Step is the contact-table stage of the wizard. The company context has its
// own lifecycle (ContextStage) because the original flow lets the two
// interleave: a CSV may be uploaded before the context is approved.
type Step string

// Wizard steps, in order.
const (
	StepNew      Step = "new"
	StepUploaded Step = "csv_uploaded"
	StepMapped   Step = "mapped"
	StepScraped  Step = "scraped"
	StepAnalyzed Step = "analyzed"
)

// stepTransitions is the validated transition table. Moving backwards to an
// earlier stage (re-upload, re-map, re-scrape) is allowed; skipping forward
// is not.
var stepTransitions = map[Step][]Step{
	StepNew:      {StepUploaded},
	StepUploaded: {StepUploaded, StepMapped},
	StepMapped:   {StepUploaded, StepMapped, StepScraped},
	StepScraped:  {StepUploaded, StepMapped, StepScraped, StepAnalyzed},
	StepAnalyzed: {StepUploaded, StepMapped, StepScraped, StepAnalyzed},
}

// CanTransition reports whether moving from s to next is a valid step change.
func (s Step) CanTransition(next Step) bool {
	for _, allowed := range stepTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AtLeast reports whether s has reached the given stage.
func (s Step) AtLeast(stage Step) bool {
	order := map[Step]int{
		StepNew:      0,
		StepUploaded: 1,
		StepMapped:   2,
		StepScraped:  3,
		StepAnalyzed: 4,
	}
	return order[s] >= order[stage]
}

// ContextStage is the company-context lifecycle stage.
type ContextStage string

// Context lifecycle stages.
const (
	ContextEmpty     ContextStage = "empty"
	ContextGenerated ContextStage = "generated"
	ContextApproved  ContextStage = "approved"
)

var contextTransitions = map[ContextStage][]ContextStage{
	// Manual entry jumps straight to approved.
	ContextEmpty:     {ContextGenerated, ContextApproved},
	ContextGenerated: {ContextGenerated, ContextApproved, ContextEmpty},
	// "Edit Context" reopens an approved context; "Start Over" clears it.
	ContextApproved: {ContextGenerated, ContextApproved, ContextEmpty},
}

// CanTransition reports whether moving from c to next is valid.
func (c ContextStage) CanTransition(next ContextStage) bool {
	for _, allowed := range contextTransitions[c] {
		if allowed == next {
			return true
		}
	}
	return false
}
