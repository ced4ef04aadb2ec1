package dataset

// CategoryIdentifier tags record-linkage variables in the codebook.
const CategoryIdentifier = "identifier"

// CodebookEntry describes one survey variable.
type CodebookEntry struct {
	VariableCode string
	Category     string
	Database     string
	Description  string
}

// Codebook classifies the variables kept for analysis.
type Codebook struct {
	entries []CodebookEntry
	codes   map[string]int
}

// NewCodebook indexes entries by variable code. Later duplicates win.
func NewCodebook(entries []CodebookEntry) *Codebook {
	cb := &Codebook{
		entries: make([]CodebookEntry, len(entries)),
		codes:   make(map[string]int, len(entries)),
	}
	copy(cb.entries, entries)
	for i, e := range cb.entries {
		cb.codes[e.VariableCode] = i
	}
	return cb
}

// Entries returns a copy of all entries in file order.
func (c *Codebook) Entries() []CodebookEntry {
	out := make([]CodebookEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Has reports whether code is listed.
func (c *Codebook) Has(code string) bool {
	_, ok := c.codes[code]
	return ok
}

// Category returns the category of code.
func (c *Codebook) Category(code string) (string, bool) {
	i, ok := c.codes[code]
	if !ok {
		return "", false
	}
	return c.entries[i].Category, true
}

// Identifiers returns the codes tagged as identifiers, in file order.
func (c *Codebook) Identifiers() []string {
	var out []string
	for _, e := range c.entries {
		if e.Category == CategoryIdentifier {
			out = append(out, e.VariableCode)
		}
	}
	return out
}

// IdentifierCount is the number of identifier entries. A secondary table
// with no more columns than this carries no attributes worth merging.
func (c *Codebook) IdentifierCount() int {
	return len(c.Identifiers())
}

// Restrict keeps only the table columns listed in the codebook.
func (c *Codebook) Restrict(t *Table) *Table {
	var keep []string
	for _, col := range t.Columns() {
		if c.Has(col) {
			keep = append(keep, col)
		}
	}
	out, _ := t.SelectColumns(keep...)
	return out
}
