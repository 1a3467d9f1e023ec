package model

// Template is a named subject/body pair with {{placeholder}} tokens.
type Template struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// FieldMapping assigns CSV headers to template placeholder roles.
// An empty string means the role is not mapped.
type FieldMapping struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email"`
}
