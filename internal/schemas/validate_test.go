package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_CompanyContext_Valid(t *testing.T) {
	doc := `{
		"name": "Acme Plumbing Software",
		"description": "Acme builds scheduling software for plumbing contractors.",
		"target_geography": "North America",
		"confidence": "High"
	}`

	assert.NoError(t, Validate(CompanyContext, doc))
}

func TestValidate_CompanyContext_MissingDescription(t *testing.T) {
	doc := `{"name": "Acme"}`

	err := Validate(CompanyContext, doc)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotEmpty(t, validationErr.Errors)
}

func TestValidate_CompanyContext_BadConfidence(t *testing.T) {
	doc := `{"name": "Acme", "description": "desc", "confidence": "Very High"}`

	err := Validate(CompanyContext, doc)
	require.Error(t, err)
}

func TestValidate_Personality_Valid(t *testing.T) {
	doc := `{
		"personality_analysis": "Detail-oriented operator focused on efficiency.",
		"conversation_style": "Direct, data-first, low on small talk.",
		"professional_interests": "automation, margins, hiring"
	}`

	assert.NoError(t, Validate(Personality, doc))
}

func TestValidate_Personality_MissingFields(t *testing.T) {
	err := Validate(Personality, `{"professional_interests": "golf"}`)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Errors, 2)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nonexistent", `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(Personality, `{not json`)
	require.Error(t, err)
}
