// Package table implements the contact table: arbitrary CSV columns plus the
// derived enrichment columns, with row identity preserved by index so partial
// scrape and analysis results can be written back to the right contact.
package table

// Derived column names added by the enrichment workflow.
const (
	ColWebsiteContent        = "website_content"
	ColWebsiteLinks          = "website_links"
	ColWebsiteLanguage       = "website_language"
	ColFullName              = "full_name"
	ColPersonalityAnalysis   = "personality_analysis"
	ColConversationStyle     = "conversation_style"
	ColProfessionalInterests = "professional_interests"
	ColCompanyContext        = "company_context"
)

// Row is a single contact keyed by column name.
type Row map[string]string

// Table holds contacts with an explicit column order.
// The zero value is not usable; construct via New or LoadCSV.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols, Rows: []Row{}}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// EnsureColumn appends the column if missing and returns the table.
// Existing rows get an empty value for the new column.
func (t *Table) EnsureColumn(name string) *Table {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
	return t
}

// Get returns the value at (row, column). Missing cells return "".
func (t *Table) Get(row int, column string) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][column]
}

// Set writes a value at (row, column), creating the column if needed.
// Out-of-range rows are ignored so a stale index can never corrupt
// another contact.
func (t *Table) Set(row int, column, value string) {
	if row < 0 || row >= len(t.Rows) {
		return
	}
	t.EnsureColumn(column)
	if t.Rows[row] == nil {
		t.Rows[row] = Row{}
	}
	t.Rows[row][column] = value
}

// Append adds a row. Values for unknown columns are dropped.
func (t *Table) Append(row Row) {
	clean := Row{}
	for _, c := range t.Columns {
		clean[c] = row[c]
	}
	t.Rows = append(t.Rows, clean)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// Head returns a copy of the table truncated to at most n rows.
// Row indices within the head match the source table.
func (t *Table) Head(n int) *Table {
	out := t.Clone()
	if n >= 0 && n < len(out.Rows) {
		out.Rows = out.Rows[:n]
	}
	return out
}
