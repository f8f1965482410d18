package table

import "github.com/hunter/lead-enricher/internal/types"

// MergeProfiles writes analysis results back into the table by row index.
// Only rows present in profiles are touched; every other row keeps its prior
// values. The contextStamp, when non-empty, is written to the company_context
// column of the merged rows. Returns the number of rows updated.
func (t *Table) MergeProfiles(profiles map[int]types.PersonalityProfile, contextStamp string) int {
	if len(profiles) == 0 {
		return 0
	}
	t.EnsureColumn(ColPersonalityAnalysis)
	t.EnsureColumn(ColConversationStyle)
	t.EnsureColumn(ColProfessionalInterests)
	if contextStamp != "" {
		t.EnsureColumn(ColCompanyContext)
	}

	merged := 0
	for idx, profile := range profiles {
		if idx < 0 || idx >= len(t.Rows) {
			continue
		}
		t.Rows[idx][ColPersonalityAnalysis] = profile.PersonalityAnalysis
		t.Rows[idx][ColConversationStyle] = profile.ConversationStyle
		t.Rows[idx][ColProfessionalInterests] = profile.ProfessionalInterests
		if contextStamp != "" {
			t.Rows[idx][ColCompanyContext] = contextStamp
		}
		merged++
	}
	return merged
}
