package models

import (
	"time"
)

// MatchType defines the comparison a deduplication rule applies to a field
type MatchType string

const (
	MatchTypeExact      MatchType = "exact"      // Case-insensitive equality
	MatchTypeFuzzy      MatchType = "fuzzy"      // Sequence similarity ratio
	MatchTypeNormalized MatchType = "normalized" // Equality after field normalization
	MatchTypeDomain     MatchType = "domain"     // Equality of email/URL domain
)

// MatchTypes lists every supported match type
var MatchTypes = []MatchType{
	MatchTypeExact,
	MatchTypeFuzzy,
	MatchTypeNormalized,
	MatchTypeDomain,
}

// IsValid reports whether t is one of the supported match types
func (t MatchType) IsValid() bool {
	switch t {
	case MatchTypeExact, MatchTypeFuzzy, MatchTypeNormalized, MatchTypeDomain:
		return true
	}
	return false
}

// DeduplicationRule scores one contact field for a pair of records
type DeduplicationRule struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Field     string    `json:"field" yaml:"field" validate:"required"`
	MatchType MatchType `json:"match_type" yaml:"match_type" validate:"required,oneof=exact fuzzy normalized domain"`
	Weight    float64   `json:"weight" yaml:"weight" validate:"gt=0"`
	Threshold float64   `json:"threshold" yaml:"threshold" validate:"gte=0,lte=1"`
	IsActive  bool      `json:"is_active" yaml:"is_active"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// RulePatch is a partial update to a deduplication rule
type RulePatch struct {
	Name      *string    `json:"name,omitempty"`
	Field     *string    `json:"field,omitempty"`
	MatchType *MatchType `json:"match_type,omitempty"`
	Weight    *float64   `json:"weight,omitempty"`
	Threshold *float64   `json:"threshold,omitempty"`
	IsActive  *bool      `json:"is_active,omitempty"`
}

// Apply returns a copy of rule with the patch applied
func (p RulePatch) Apply(rule DeduplicationRule) DeduplicationRule {
	if p.Name != nil {
		rule.Name = *p.Name
	}
	if p.Field != nil {
		rule.Field = *p.Field
	}
	if p.MatchType != nil {
		rule.MatchType = *p.MatchType
	}
	if p.Weight != nil {
		rule.Weight = *p.Weight
	}
	if p.Threshold != nil {
		rule.Threshold = *p.Threshold
	}
	if p.IsActive != nil {
		rule.IsActive = *p.IsActive
	}
	return rule
}

// DefaultRules returns the rule set seeded when a session starts
func DefaultRules() []DeduplicationRule {
	return []DeduplicationRule{
		{ID: "email-exact", Name: "Email Exact Match", Field: "email", MatchType: MatchTypeExact, Weight: 1.0, Threshold: 1.0, IsActive: true},
		{ID: "email-normalized", Name: "Email Normalized Match", Field: "email", MatchType: MatchTypeNormalized, Weight: 0.95, Threshold: 1.0, IsActive: true},
		{ID: "name-fuzzy", Name: "Full Name Fuzzy Match", Field: "full_name", MatchType: MatchTypeFuzzy, Weight: 0.7, Threshold: 0.85, IsActive: true},
		{ID: "phone-normalized", Name: "Phone Normalized Match", Field: "phone", MatchType: MatchTypeNormalized, Weight: 0.8, Threshold: 1.0, IsActive: true},
		{ID: "company-domain", Name: "Company Domain Match", Field: "company_domain", MatchType: MatchTypeDomain, Weight: 0.3, Threshold: 1.0, IsActive: true},
		{ID: "linkedin-normalized", Name: "LinkedIn Profile Match", Field: "linkedin_url", MatchType: MatchTypeNormalized, Weight: 0.9, Threshold: 1.0, IsActive: true},
	}
}
