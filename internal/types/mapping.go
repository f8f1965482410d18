package types

import "github.com/go-playground/validator/v10"

// ColumnMapping assigns CSV columns to semantic roles.
// Either NameColumn is set, or HasSeparateNames is true with both
// first/last columns set (the table then derives a full_name column).
type ColumnMapping struct {
	WebsiteColumn    string `json:"website_column" validate:"required,min=1"`
	NameColumn       string `json:"name_column,omitempty"`
	FirstNameColumn  string `json:"first_name_column,omitempty"`
	LastNameColumn   string `json:"last_name_column,omitempty"`
	HasSeparateNames bool   `json:"has_separate_names,omitempty"`
}

// Validate validates the ColumnMapping using the validator.
func (m *ColumnMapping) Validate() error {
	validate := validator.New()
	if err := validate.Struct(m); err != nil {
		return err
	}
	if m.HasSeparateNames {
		if m.FirstNameColumn == "" || m.LastNameColumn == "" {
			return &MappingError{Message: "separate names require both first_name_column and last_name_column"}
		}
	}
	return nil
}

// MappingError reports an invalid column mapping.
type MappingError struct {
	Message string
}

func (e *MappingError) Error() string {
	return "mapping error: " + e.Message
}
