package engine

import (
	"strings"

	"auditpro/internal/domain"
)

type keywordRule struct {
	domain   domain.Domain
	keywords []string
}

// domainRules are evaluated in order; the first rule with a keyword found in
// the finding text wins.
var domainRules = []keywordRule{
	{domain.DomainDataQuality, []string{"unused", "orphaned", "missing", "duplicate", "stale", "quality"}},
	{domain.DomainAutomation, []string{"automation", "manual", "workflow", "alert", "assignment"}},
	{domain.DomainReporting, []string{"report", "dashboard", "forecast", "pipeline", "analytics"}},
	{domain.DomainSecurity, []string{"security", "permission", "profile", "access", "user"}},
	{domain.DomainAdoption, []string{"adoption", "training", "usage", "layout", "configuration"}},
}

// categoryFallbacks apply when no keyword matches, by substring of the
// lower-cased legacy category.
var categoryFallbacks = []struct {
	fragment string
	domain   domain.Domain
}{
	{"time saving", domain.DomainAutomation},
	{"revenue leak", domain.DomainDataQuality},
	{"automation opportunit", domain.DomainAutomation},
}

// Classify assigns a finding to one of the five domains from its title and
// description, falling back on the legacy category and finally Data Quality.
func Classify(title, description, category string) domain.Domain {
	text := strings.ToLower(title + " " + description)
	for _, rule := range domainRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.domain
			}
		}
	}

	cat := strings.ToLower(category)
	for _, fb := range categoryFallbacks {
		if strings.Contains(cat, fb.fragment) {
			return fb.domain
		}
	}
	return domain.DomainDataQuality
}

// ClassifyRaw is Classify over a collector finding.
func ClassifyRaw(f domain.RawFinding) domain.Domain {
	return Classify(f.Title, f.Description, f.Category)
}
