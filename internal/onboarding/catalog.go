package onboarding

// AppliesTo reports whether documents of this type are valid evidence for
// clients of the given person type.
func (d DocumentType) AppliesTo(personType LegalPersonType) bool {
	p, ok := personProfiles[personType]
	if !ok {
		return false
	}
	return p.appliesTo(d)
}

// Catalog is a read-only index over the static document-type reference data.
// It is built per evaluation from the slice the caller passes in.
type Catalog struct {
	byID  map[DocumentTypeID]DocumentType
	order []DocumentTypeID
}

// NewCatalog indexes types by id. When an id repeats, the first entry wins.
func NewCatalog(types []DocumentType) *Catalog {
	c := &Catalog{
		byID:  make(map[DocumentTypeID]DocumentType, len(types)),
		order: make([]DocumentTypeID, 0, len(types)),
	}
	for _, t := range types {
		if _, dup := c.byID[t.ID]; dup {
			continue
		}
		c.byID[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	return c
}

// Lookup returns the catalog entry, or false when the id is unknown.
func (c *Catalog) Lookup(id DocumentTypeID) (DocumentType, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// AppliesTo is false for unknown ids.
func (c *Catalog) AppliesTo(id DocumentTypeID, personType LegalPersonType) bool {
	t, ok := c.byID[id]
	return ok && t.AppliesTo(personType)
}

// ValidityDays returns the validity window of a type. The boolean is false
// when the type is unknown or never expires.
func (c *Catalog) ValidityDays(id DocumentTypeID) (int, bool) {
	t, ok := c.byID[id]
	if !ok || t.ValidityDays == nil {
		return 0, false
	}
	return *t.ValidityDays, true
}

// Name returns the display name, falling back to a placeholder for unknown ids.
func (c *Catalog) Name(id DocumentTypeID) string {
	if t, ok := c.byID[id]; ok {
		return t.Name
	}
	return "unknown document type"
}

// Required lists, in catalog order, the non-optional types that apply to the
// person type.
func (c *Catalog) Required(personType LegalPersonType) []DocumentType {
	var out []DocumentType
	for _, id := range c.order {
		t := c.byID[id]
		if !t.Optional && t.AppliesTo(personType) {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of distinct entries.
func (c *Catalog) Len() int {
	return len(c.order)
}
