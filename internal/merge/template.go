// Package merge fills message templates from list records and hands each
// result to a Transport.
package merge

import (
	"regexp"
	"strconv"

	"github.com/nhle/listmailer/internal/model"
)

// Placeholder names filled from a FieldMapping.
const (
	VarFirstName = "firstName"
	VarLastName  = "lastName"
	VarEmail     = "email"
)

// placeholder matches {{key}} non-greedily.
var placeholder = regexp.MustCompile(`\{\{(.*?)\}\}`)

var catalog = []model.Template{
	{
		ID:      1,
		Title:   "Welcome Email",
		Subject: "Welcome to Our Service!",
		Body:    "Hi {{firstName}},\n\nThank you for joining our platform. We're excited to have you on board!\n\nBest regards,\nThe Team",
	},
	{
		ID:      2,
		Title:   "Follow-Up Email",
		Subject: "Just Checking In",
		Body:    "Hi {{firstName}},\n\nI wanted to follow up on our recent conversation and see if you have any questions.\n\nCheers,\nThe Team",
	},
	{
		ID:      3,
		Title:   "Password Reset",
		Subject: "Reset Your Password",
		Body:    "Hi {{firstName}},\n\nClick the link below to reset your password:\n{{resetLink}}\n\nIf you didn't request this, please ignore this email.\n\nThanks,\nSupport Team",
	},
	{
		ID:      4,
		Title:   "Software Engineer Hiring",
		Subject: "Exciting Opportunity: Software Engineer at {{companyName}}",
		Body: "Hi {{firstName}},\n\nI hope you're doing well. My name is {{hrName}}, and I'm a recruiter at {{companyName}}.\n\n" +
			"We came across your profile and were impressed by your experience with {{skillSet}} and your work on {{projectName}}.\n\n" +
			"We're currently hiring for a Software Engineer role on our team and would love to discuss how your background could be a great fit.\n\n" +
			"If you're interested, could we schedule a quick call this week? Let me know your availability.\n\n" +
			"Looking forward to your response.\n\n" +
			"Best regards,\n{{hrName}}\nRecruiter, {{companyName}}\nEmail: {{hrEmail}}\nPhone: {{hrPhone}}",
	},
}

// Catalog returns a fresh copy of the built-in templates. Callers may edit
// the copy freely; nothing is persisted.
func Catalog() []model.Template {
	out := make([]model.Template, len(catalog))
	copy(out, catalog)
	return out
}

// FindTemplate returns the catalog template whose ID or title matches.
func FindTemplate(key string) (model.Template, bool) {
	for _, t := range catalog {
		if t.Title == key || strconv.Itoa(t.ID) == key {
			return t, true
		}
	}
	return model.Template{}, false
}

// Fill replaces every {{key}} in tmpl with vars[key]. Unknown keys and
// empty values both become "".
func Fill(tmpl string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		return vars[key]
	})
}

// Placeholders lists the distinct keys referenced by tmpl in order of first
// appearance.
func Placeholders(tmpl string) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		keys = append(keys, m[1])
	}
	return keys
}
