// Package types provides type definitions for structured data used throughout the lead-enricher system.
package types

// CompanyContext is the user-approved description of the seller's company.
// It personalizes every personality prompt and is frozen once approved.
type CompanyContext struct {
	URL             string `json:"url,omitempty"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	TargetGeography string `json:"target_geography,omitempty"`
	WebsiteContent  string `json:"website_content,omitempty"`
	Confidence      string `json:"confidence,omitempty"`
	// Warning carries a non-fatal analysis problem (e.g. partial crawl).
	Warning string `json:"warning,omitempty"`
}

// IsEmpty reports whether the context has no usable content yet.
func (c *CompanyContext) IsEmpty() bool {
	return c == nil || (c.Name == "" && c.Description == "")
}

// HasDescription reports whether the context carries a non-empty description.
// Approval requires this.
func (c *CompanyContext) HasDescription() bool {
	if c == nil {
		return false
	}
	for _, r := range c.Description {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}

// Stamp returns the short "Name: description" form written into the
// company_context column of analyzed rows. Descriptions longer than
// 100 characters are truncated with an ellipsis.
func (c *CompanyContext) Stamp() string {
	if c == nil {
		return ""
	}
	name := c.Name
	if name == "" {
		name = "Unknown"
	}
	desc := c.Description
	if len(desc) > 100 {
		desc = desc[:97] + "..."
	}
	return name + ": " + desc
}
