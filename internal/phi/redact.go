// Package phi implements the PHI de-identification filter applied to all
// patient-identifying text before it reaches the documentation sink.
//
// The filter is a fixed, order-dependent sequence of regular-expression
// substitutions. Structured identifiers (emails, phone numbers, dates,
// addresses, record numbers) are scrubbed first; the broad person-name
// heuristic runs last so it can never clobber a field an earlier rule
// owns, and so placeholder tokens (all-uppercase) are never re-matched.
// The output is stable under re-application: redact(redact(x)) == redact(x).
//
// False positives from the name heuristic ("Blood Pressure") are an
// accepted trade-off; over-redaction is preferred to leaking PHI.
package phi

import (
	"regexp"
	"strings"
)

// Placeholder tokens substituted for each pattern kind.
const (
	PlaceholderEmail   = "[REDACTED_EMAIL]"
	PlaceholderPhone   = "[REDACTED_PHONE]"
	PlaceholderDate    = "[REDACTED_DATE]"
	PlaceholderAddress = "[REDACTED_ADDRESS]"
	PlaceholderMRN     = "[REDACTED_MRN]"
	PlaceholderID      = "[REDACTED_ID]"
	PlaceholderName    = "[REDACTED_NAME]"
)

// rule is one ordered substitution step.
type rule struct {
	kind  string
	apply func(text string) string
}

// Redactor applies the ordered rule sequence. The zero value is not
// usable; construct with NewRedactor.
type Redactor struct {
	rules []rule
}

// defaultRedactor is shared by the package-level Redact. Rules are
// compiled once at init; regexp compilation cannot fail here because the
// patterns are constants, but Redact still guards against runtime faults.
var defaultRedactor = NewRedactor()

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	datePattern  = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	addrPattern  = regexp.MustCompile(`\d{1,5}\s[\w\s.,#-]+(?:Street|St|Avenue|Ave|Road|Rd|Lane|Ln|Blvd|Drive|Dr)\b`)
	mrnPattern   = regexp.MustCompile(`\bMRN[:\s]*\d+\b`)
	idPattern    = regexp.MustCompile(`\bID[:\s]*\d+\b`)
	namePattern  = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s[A-Z][a-z]+)+\b`)
)

// nameLeadStopwords are directive or greeting words that commonly start a
// sentence immediately before a name. They are trimmed from the front of
// a name-heuristic match so "Contact John Smith" redacts only the name.
// Deliberately short: it must never contain clinical vocabulary, since
// over-redaction of terms like "Blood Pressure" is the accepted default.
var nameLeadStopwords = map[string]bool{
	"Contact": true,
	"Call":    true,
	"Email":   true,
	"Phone":   true,
	"Dear":    true,
	"Hello":   true,
	"Hi":      true,
	"Please":  true,
	"See":     true,
	"Ask":     true,
	"Tell":    true,
	"Visit":   true,
}

// NewRedactor builds a Redactor with the standard ordered rule set.
func NewRedactor() *Redactor {
	return &Redactor{rules: []rule{
		{kind: "email", apply: replaceAll(emailPattern, PlaceholderEmail)},
		{kind: "phone", apply: replaceAll(phonePattern, PlaceholderPhone)},
		{kind: "date", apply: replaceAll(datePattern, PlaceholderDate)},
		{kind: "address", apply: replaceAll(addrPattern, PlaceholderAddress)},
		{kind: "mrn", apply: replaceAll(mrnPattern, PlaceholderMRN)},
		{kind: "id", apply: replaceAll(idPattern, PlaceholderID)},
		{kind: "name", apply: redactNames},
	}}
}

// Redact removes PHI-shaped substrings from text, replacing each with a
// typed placeholder token. It never panics: any internal fault returns
// the input unchanged (fail-open; see DESIGN.md for the open question on
// this policy).
func (r *Redactor) Redact(text string) (out string) {
	out = text
	defer func() {
		if recover() != nil {
			out = text
		}
	}()

	scrubbed := text
	for _, rl := range r.rules {
		scrubbed = rl.apply(scrubbed)
	}
	return scrubbed
}

// Redact applies the standard rule set. See Redactor.Redact.
func Redact(text string) string {
	return defaultRedactor.Redact(text)
}

func replaceAll(re *regexp.Regexp, placeholder string) func(string) string {
	return func(text string) string {
		return re.ReplaceAllString(text, placeholder)
	}
}

// redactNames applies the two-or-more-capitalized-words heuristic,
// trimming directive lead-in words so they survive the substitution.
func redactNames(text string) string {
	return namePattern.ReplaceAllStringFunc(text, func(match string) string {
		words := strings.Split(match, " ")
		kept := 0
		for kept < len(words)-1 && nameLeadStopwords[words[kept]] {
			kept++
		}
		// Fewer than two words left means the remainder no longer looks
		// like a name; leave the match untouched.
		if len(words)-kept < 2 {
			return match
		}
		if kept == 0 {
			return PlaceholderName
		}
		return strings.Join(words[:kept], " ") + " " + PlaceholderName
	})
}
