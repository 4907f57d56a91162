package company

import "strings"

// Attributes holds every caller-editable company field. Ids are provisioned
// by the store and never accepted from callers.
type Attributes struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Description   string   `json:"description,omitempty" validate:"max=255"`
	LogoURL       string   `json:"logo_url,omitempty" validate:"omitempty,url"`
	Website       string   `json:"website,omitempty" validate:"omitempty,url"`
	Location      Location `json:"location,omitzero"`
	Industry      Industry `json:"industry,omitzero"`
	EmployeeCount *int     `json:"employee_count,omitempty" validate:"omitempty,min=0,max=2147483647"`
	Founded       *int     `json:"founded,omitempty" validate:"omitempty,min=1800,notfuture"`
	CEO           CEO      `json:"ceo,omitzero"`
}

// Company is a directory record.
type Company struct {
	ID string `json:"id"`
	Attributes
}

// Normalize trims surrounding whitespace from the plain text fields.
func (a Attributes) Normalize() Attributes {
	a.Name = strings.TrimSpace(a.Name)
	a.Description = strings.TrimSpace(a.Description)
	a.LogoURL = strings.TrimSpace(a.LogoURL)
	a.Website = strings.TrimSpace(a.Website)
	return a
}

// IsComplete reports whether every optional field is filled in.
func (c Company) IsComplete() bool {
	return c.Name != "" &&
		c.Description != "" &&
		c.LogoURL != "" &&
		c.Website != "" &&
		!c.Location.IsZero() &&
		!c.Industry.IsZero() &&
		c.EmployeeCount != nil && *c.EmployeeCount != 0 &&
		c.Founded != nil && *c.Founded != 0 &&
		!c.CEO.IsZero()
}

// IndustryKey is the value the industry filter compares against: the plain
// string or the structured primary.
func (c Company) IndustryKey() string {
	return c.Industry.SimpleString()
}

// Patch is a partial update. Nil members are left untouched; a non-nil empty
// value clears the field.
type Patch struct {
	Name          *string   `json:"name,omitempty"`
	Description   *string   `json:"description,omitempty"`
	LogoURL       *string   `json:"logo_url,omitempty"`
	Website       *string   `json:"website,omitempty"`
	Location      *Location `json:"location,omitempty"`
	Industry      *Industry `json:"industry,omitempty"`
	EmployeeCount *int      `json:"employee_count,omitempty"`
	Founded       *int      `json:"founded,omitempty"`
	CEO           *CEO      `json:"ceo,omitempty"`
	// Unset names fields to clear: "employee_count", "founded",
	// "location", "industry", "ceo". A JSON null cannot express this since
	// it decodes to a nil member.
	Unset []string `json:"unset,omitempty"`
}

// PatchFrom builds a patch that overwrites every field with a. Absent
// optional fields are listed in Unset.
func PatchFrom(a Attributes) Patch {
	p := Patch{
		Name:          &a.Name,
		Description:   &a.Description,
		LogoURL:       &a.LogoURL,
		Website:       &a.Website,
		EmployeeCount: a.EmployeeCount,
		Founded:       a.Founded,
	}
	if a.Location.IsZero() {
		p.Unset = append(p.Unset, "location")
	} else {
		p.Location = &a.Location
	}
	if a.Industry.IsZero() {
		p.Unset = append(p.Unset, "industry")
	} else {
		p.Industry = &a.Industry
	}
	if a.EmployeeCount == nil {
		p.Unset = append(p.Unset, "employee_count")
	}
	if a.Founded == nil {
		p.Unset = append(p.Unset, "founded")
	}
	if a.CEO.IsZero() {
		p.Unset = append(p.Unset, "ceo")
	} else {
		p.CEO = &a.CEO
	}
	return p
}

// Apply returns a copy of a with the patch applied.
func (p Patch) Apply(a Attributes) Attributes {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.LogoURL != nil {
		a.LogoURL = *p.LogoURL
	}
	if p.Website != nil {
		a.Website = *p.Website
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.Industry != nil {
		a.Industry = *p.Industry
	}
	if p.EmployeeCount != nil {
		v := *p.EmployeeCount
		a.EmployeeCount = &v
	}
	if p.Founded != nil {
		v := *p.Founded
		a.Founded = &v
	}
	if p.CEO != nil {
		a.CEO = *p.CEO
	}
	for _, name := range p.Unset {
		switch name {
		case "employee_count":
			a.EmployeeCount = nil
		case "founded":
			a.Founded = nil
		case "location":
			a.Location = Location{}
		case "industry":
			a.Industry = Industry{}
		case "ceo":
			a.CEO = CEO{}
		}
	}
	return a
}

// Filters narrows a list query. Empty members are ignored.
type Filters struct {
	Search   string
	Industry string
}

// Normalize trims both clauses. Blank clauses are ignored everywhere.
func (f Filters) Normalize() Filters {
	f.Search = strings.TrimSpace(f.Search)
	f.Industry = strings.TrimSpace(f.Industry)
	return f
}

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	return strings.TrimSpace(f.Search) == "" && strings.TrimSpace(f.Industry) == ""
}
