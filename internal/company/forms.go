package company

import (
	"net/url"
	"strconv"
	"strings"
)

// SimpleForm is the flat edit form: every polymorphic field is free text.
type SimpleForm struct {
	Name          string
	Description   string
	LogoURL       string
	Website       string
	Location      string
	Industry      string
	EmployeeCount string
	Founded       string
	CEO           string
}

// SimpleFormFrom pre-fills a simple form from an existing record.
func SimpleFormFrom(c Company) SimpleForm {
	return SimpleForm{
		Name:          c.Name,
		Description:   c.Description,
		LogoURL:       c.LogoURL,
		Website:       c.Website,
		Location:      c.Location.SimpleString(),
		Industry:      c.Industry.SimpleString(),
		EmployeeCount: formatOptionalInt(c.EmployeeCount),
		Founded:       formatOptionalInt(c.Founded),
		CEO:           c.CEO.SimpleString(),
	}
}

// SimpleFormFromValues reads a submitted simple form.
func SimpleFormFromValues(v url.Values) SimpleForm {
	return SimpleForm{
		Name:          v.Get("name"),
		Description:   v.Get("description"),
		LogoURL:       v.Get("logo_url"),
		Website:       v.Get("website"),
		Location:      v.Get("location"),
		Industry:      v.Get("industry"),
		EmployeeCount: v.Get("employee_count"),
		Founded:       v.Get("founded"),
		CEO:           v.Get("ceo"),
	}
}

// Attributes converts the form and validates the result.
func (f SimpleForm) Attributes() (Attributes, error) {
	verr := &ValidationError{}
	a := Attributes{
		Name:          f.Name,
		Description:   f.Description,
		LogoURL:       f.LogoURL,
		Website:       f.Website,
		Location:      Simple[LocationDetails](strings.TrimSpace(f.Location)),
		Industry:      Simple[IndustryDetails](strings.TrimSpace(f.Industry)),
		CEO:           Simple[CEODetails](strings.TrimSpace(f.CEO)),
		EmployeeCount: parseOptionalInt(verr, "employee_count", f.EmployeeCount),
		Founded:       parseOptionalInt(verr, "founded", f.Founded),
	}
	return finish(a.Normalize(), verr)
}

// RichForm is the advanced edit form with one input per structured member.
// A *Simple value is used only when the matching structured inputs are blank.
type RichForm struct {
	Name          string
	Description   string
	LogoURL       string
	Website       string
	EmployeeCount string
	Founded       string

	LocationSimple  string
	LocationAddress string
	LocationCity    string
	LocationZipCode string
	LocationCountry string

	IndustrySimple  string
	IndustryPrimary string
	IndustrySectors string

	CEOSimple string
	CEOName   string
	CEOSince  string
	CEOBio    string
}

// RichFormFromValues reads a submitted advanced form.
func RichFormFromValues(v url.Values) RichForm {
	return RichForm{
		Name:            v.Get("name"),
		Description:     v.Get("description"),
		LogoURL:         v.Get("logo_url"),
		Website:         v.Get("website"),
		EmployeeCount:   v.Get("employee_count"),
		Founded:         v.Get("founded"),
		LocationSimple:  v.Get("location_simple"),
		LocationAddress: v.Get("location_address"),
		LocationCity:    v.Get("location_city"),
		LocationZipCode: v.Get("location_zip_code"),
		LocationCountry: v.Get("location_country"),
		IndustrySimple:  v.Get("industry_simple"),
		IndustryPrimary: v.Get("industry_primary"),
		IndustrySectors: v.Get("industry_sectors"),
		CEOSimple:       v.Get("ceo_simple"),
		CEOName:         v.Get("ceo_name"),
		CEOSince:        v.Get("ceo_since"),
		CEOBio:          v.Get("ceo_bio"),
	}
}

// Attributes converts the form and validates the result.
func (f RichForm) Attributes() (Attributes, error) {
	verr := &ValidationError{}
	a := Attributes{
		Name:          f.Name,
		Description:   f.Description,
		LogoURL:       f.LogoURL,
		Website:       f.Website,
		EmployeeCount: parseOptionalInt(verr, "employee_count", f.EmployeeCount),
		Founded:       parseOptionalInt(verr, "founded", f.Founded),
	}

	loc := LocationDetails{
		Address: strings.TrimSpace(f.LocationAddress),
		City:    strings.TrimSpace(f.LocationCity),
		ZipCode: strings.TrimSpace(f.LocationZipCode),
		Country: strings.TrimSpace(f.LocationCountry),
	}
	if loc != (LocationDetails{}) {
		a.Location = Structured(loc)
	} else {
		a.Location = LocationFromText(f.LocationSimple)
	}

	if primary := strings.TrimSpace(f.IndustryPrimary); primary != "" {
		a.Industry = Structured(IndustryDetails{Primary: primary, Sectors: splitList(f.IndustrySectors)})
	} else {
		a.Industry = IndustryFromText(f.IndustrySimple)
	}

	since := parseOptionalInt(verr, "ceo", f.CEOSince)
	if name := strings.TrimSpace(f.CEOName); name != "" {
		ceo := CEODetails{Name: name, Bio: strings.TrimSpace(f.CEOBio)}
		if since != nil {
			ceo.Since = *since
		}
		a.CEO = Structured(ceo)
	} else {
		a.CEO = CEOFromText(f.CEOSimple)
	}
	return finish(a.Normalize(), verr)
}

func finish(a Attributes, verr *ValidationError) (Attributes, error) {
	if err := a.Validate(); err != nil {
		if ve, ok := err.(*ValidationError); ok {
			for field, msgs := range ve.Fields {
				for _, m := range msgs {
					verr.Add(field, m)
				}
			}
		} else {
			return a, err
		}
	}
	return a, verr.OrNil()
}

func parseOptionalInt(verr *ValidationError, field, raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(field, "Expected a whole number")
		return nil
	}
	return &n
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
