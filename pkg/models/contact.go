package models

import "strings"

// ContactIDField is the key holding a contact's identifier
const ContactIDField = "id"

// Contact is a flat CRM contact record keyed by field name
type Contact map[string]string

// ID returns the contact's identifier, or "" if it has none
func (c Contact) ID() string {
	return strings.TrimSpace(c[ContactIDField])
}

// Get returns the value for field and whether it is populated
func (c Contact) Get(field string) (string, bool) {
	value, ok := c[field]
	if !ok || IsEmptyValue(value) {
		return "", false
	}
	return value, true
}

// PopulatedFieldCount counts fields that hold a non-empty value
func (c Contact) PopulatedFieldCount() int {
	count := 0
	for _, value := range c {
		if !IsEmptyValue(value) {
			count++
		}
	}
	return count
}

// IsEmptyValue reports whether a field value should be treated as missing
func IsEmptyValue(value string) bool {
	return strings.TrimSpace(value) == ""
}
