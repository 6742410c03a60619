// Package normalizers canonicalizes contact field values so they can be compared
package normalizers

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

var (
	mu sync.RWMutex

	// registry holds all named normalizers
	registry = make(map[string]Normalizer)

	// fieldRegistry maps a contact field to the normalizer used for it
	fieldRegistry = make(map[string]Normalizer)
)

var linkedInProfileRe = regexp.MustCompile(`linkedin\.com/in/[^/?#\s]+`)

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("default", Default)
	Register("nemail", NormalizeEmail)
	Register("nphone", NormalizePhone)
	Register("nlinkedin", NormalizeLinkedIn)
	Register("nname", NormalizeFullName)
	Register("digits_only", DigitsOnly)

	RegisterField("email", NormalizeEmail)
	RegisterField("phone", NormalizePhone)
	RegisterField("linkedin_url", NormalizeLinkedIn)
	RegisterField("full_name", NormalizeFullName)
}

// Register adds a named normalizer to the registry
func Register(name string, fn Normalizer) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value. Unknown names leave the value untouched.
func Apply(value, normalizer string) string {
	fn, ok := Get(normalizer)
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// RegisterField sets the normalizer used for a contact field
func RegisterField(field string, fn Normalizer) {
	mu.Lock()
	defer mu.Unlock()
	fieldRegistry[field] = fn
}

// ForField returns the normalizer for a contact field, falling back to Default
func ForField(field string) Normalizer {
	mu.RLock()
	defer mu.RUnlock()
	if fn, ok := fieldRegistry[field]; ok {
		return fn
	}
	return Default
}

// Normalize canonicalizes value according to the rules for field
func Normalize(value, field string) string {
	return ForField(field)(value)
}

// Built-in normalizers

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// Default lowercases and trims
func Default(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail canonicalizes an email address:
// - lowercase and trim
// - drop a +alias from the local part
// - strip dots from the local part
func NormalizeEmail(s string) string {
	s = Default(s)

	at := strings.LastIndex(s, "@")
	if at < 0 {
		return s
	}

	local, domain := s[:at], s[at+1:]
	if plus := strings.Index(local, "+"); plus >= 0 {
		local = local[:plus]
	}
	local = strings.ReplaceAll(local, ".", "")

	// Dropping dots can expose whitespace at the start of the local part
	return strings.TrimSpace(local + "@" + domain)
}

// NormalizePhone removes all non-digit characters from a phone number
func NormalizePhone(s string) string {
	return DigitsOnly(s)
}

// NormalizeLinkedIn reduces a LinkedIn URL to its linkedin.com/in/<slug> form
func NormalizeLinkedIn(s string) string {
	s = Default(s)
	if match := linkedInProfileRe.FindString(s); match != "" {
		return match
	}
	return s
}

// NormalizeFullName lowercases a name and keeps only letters and whitespace
func NormalizeFullName(s string) string {
	s = cases.Lower(language.Und).String(norm.NFC.String(s))

	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
