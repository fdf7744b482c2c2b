package dto

// ApplicationInput is the raw, user-supplied form of an application before
// validation and parsing.
type ApplicationInput struct {
	CompanyName  string
	Position     string
	CompanyEmail string
	Location     string
	Salary       string
	Notes        string
	JobURL       string
	Status       string
	DateApplied  string
}
