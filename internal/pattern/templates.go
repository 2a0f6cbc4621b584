package pattern

// Template is a built-in pattern definition usable to seed a registry.
// Templates carry no ID; callers materialize them via Materialize.
type Template struct {
	// Category is the grouping label the materialized pattern gets.
	Category string

	// Type classifies the template within the closed type set.
	Type Type

	// Description explains what the template detects.
	Description string

	// RegexSet holds the detection regexes.
	RegexSet []string

	// Examples holds literal detection strings for formats too loose for regex.
	Examples []string
}

// Materialize turns the template into a saveable pattern.
func (t Template) Materialize() (*Pattern, error) {
	return New(t.Category, t.Type, t.RegexSet, t.Examples)
}

// Templates returns the built-in pattern catalog covering common
// sensitive-data formats.
func Templates() []Template {
	return []Template{
		// Identity
		{
			Category:    "ssn",
			Type:        TypeIdentity,
			Description: "US Social Security Number (dashed form)",
			RegexSet:    []string{`\d{3}-\d{2}-\d{4}`},
		},
		{
			Category:    "email",
			Type:        TypeIdentity,
			Description: "Email address",
			RegexSet:    []string{`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`},
		},
		{
			Category:    "phone",
			Type:        TypeIdentity,
			Description: "North American phone number",
			RegexSet: []string{
				`\(\d{3}\)\s?\d{3}-\d{4}`,
				`\d{3}-\d{3}-\d{4}`,
			},
		},
		{
			Category:    "passport",
			Type:        TypeIdentity,
			Description: "US passport number",
			RegexSet:    []string{`\b[A-Z]\d{8}\b`},
		},

		// Financial
		{
			Category:    "credit-card",
			Type:        TypeFinancial,
			Description: "Payment card number (dashed or spaced groups of four)",
			RegexSet: []string{
				`\d{4}[- ]\d{4}[- ]\d{4}[- ]\d{4}`,
			},
		},
		{
			Category:    "iban",
			Type:        TypeFinancial,
			Description: "International Bank Account Number",
			RegexSet:    []string{`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`},
		},
		{
			Category:    "routing-number",
			Type:        TypeFinancial,
			Description: "US ABA routing number with label",
			RegexSet:    []string{`(?:routing|aba)[#: ]+\d{9}`},
		},

		// Health
		{
			Category:    "icd10",
			Type:        TypeHealth,
			Description: "ICD-10 diagnosis code",
			RegexSet:    []string{`\b[A-TV-Z]\d{2}(?:\.\d{1,4})?\b`},
		},
		{
			Category:    "npi",
			Type:        TypeHealth,
			Description: "US National Provider Identifier with label",
			RegexSet:    []string{`NPI[#: ]+\d{10}`},
		},

		// Classification markings
		{
			Category:    "classification-marking",
			Type:        TypeClassification,
			Description: "Document classification markings",
			Examples: []string{
				"CONFIDENTIAL",
				"RESTRICTED",
				"TOP SECRET",
				"INTERNAL USE ONLY",
				"NOFORN",
			},
		},

		// Credentials (prefixes are self-identifying)
		{
			Category:    "api-credential",
			Type:        TypeCustom,
			Description: "Common API credential shapes",
			RegexSet: []string{
				`AKIA[A-Z0-9]{16}`,
				`ghp_[A-Za-z0-9]{36}`,
				`sk-[A-Za-z0-9]{48,}`,
				`xox[baprs]-[A-Za-z0-9\-]{10,}`,
			},
		},
	}
}
