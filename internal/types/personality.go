package types

// PersonalityProfile holds the per-contact analysis fields returned by the LLM.
type PersonalityProfile struct {
	PersonalityAnalysis   string `json:"personality_analysis"`
	ConversationStyle     string `json:"conversation_style"`
	ProfessionalInterests string `json:"professional_interests"`
}

// IsEmpty reports whether the profile carries no analysis output.
func (p *PersonalityProfile) IsEmpty() bool {
	return p == nil || (p.PersonalityAnalysis == "" && p.ConversationStyle == "" && p.ProfessionalInterests == "")
}
