package cards

// Card types stored in the index.
const (
	TypeCompany = "company"
	TypePerson  = "person"
)

// Company is a structured company record.
type Company struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Industry    string `json:"industry,omitempty"`
	Description string `json:"description,omitempty"`
	Founded     string `json:"founded,omitempty"`
	Location    string `json:"location,omitempty"`
	Website     string `json:"website,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	CardType    string `json:"card_type"`
}

// Person is a structured person record.
type Person struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Designation     string  `json:"designation,omitempty"`
	Company         string  `json:"company,omitempty"`
	LinkedInID      string  `json:"linkedin_id"`
	LinkedInURL     string  `json:"linkedin_url"`
	Education       string  `json:"education,omitempty"`
	ExperienceYears float64 `json:"experience_years,omitempty"`
	Location        string  `json:"location,omitempty"`
	CardType        string  `json:"card_type"`
}

// Card is a tagged union over the two entity record kinds. Exactly one of Company or
// Person is non-nil, matching Type.
type Card struct {
	Type    string
	Company *Company
	Person  *Person
}

// ID returns the record ID of whichever kind the card holds.
func (c *Card) ID() string {
	switch c.Type {
	case TypeCompany:
		return c.Company.ID
	case TypePerson:
		return c.Person.ID
	}
	return ""
}

// Name returns the display name of whichever kind the card holds.
func (c *Card) Name() string {
	switch c.Type {
	case TypeCompany:
		return c.Company.Name
	case TypePerson:
		return c.Person.Name
	}
	return ""
}
