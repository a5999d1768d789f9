package secrets

import (
	"fmt"
	"regexp"
)

// Rule defines a secret detection rule.
type Rule struct {
	ID          string
	Description string
	Pattern     string
	Severity    string
}

type compiledRule struct {
	Rule
	pattern *regexp.Regexp
}

// DefaultRules returns the rules applied to captured notes and task text.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "private-key",
			Description: "Private Key",
			Pattern:     `-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY(?:[- ]BLOCK)?-----`,
			Severity:    "high",
		},
		{
			ID:          "aws-access-key-id",
			Description: "AWS Access Key ID",
			Pattern:     `(?:A3T[A-Z0-9]|AKIA|ASIA)[A-Z0-9]{16}`,
			Severity:    "high",
		},
		{
			ID:          "openai-key",
			Description: "OpenAI API Key",
			Pattern:     `sk-(?:proj-)?[A-Za-z0-9_\-]{20,}`,
			Severity:    "high",
		},
		{
			ID:          "anthropic-key",
			Description: "Anthropic API Key",
			Pattern:     `sk-ant-[A-Za-z0-9_\-]{20,}`,
			Severity:    "high",
		},
		{
			ID:          "github-token",
			Description: "GitHub Token",
			Pattern:     `(?:ghp|gho|ghu|ghs)_[A-Za-z0-9]{36}|github_pat_[A-Za-z0-9_]{22,}`,
			Severity:    "high",
		},
		{
			ID:          "bearer-token",
			Description: "Bearer Token",
			Pattern:     `(?i)bearer\s+[A-Za-z0-9\-._~+/]{8,}=*`,
			Severity:    "medium",
		},
		{
			ID:          "generic-api-key",
			Description: "Generic API Key",
			Pattern:     `(?i)(?:api[_-]?key|apikey|token)\s*[:=]\s*['"]?[A-Za-z0-9_\-]{12,64}['"]?`,
			Severity:    "high",
		},
		{
			ID:          "password",
			Description: "Password",
			Pattern:     `(?i)(?:password|passwd|pwd|passcode|pin)\s*(?:is|[:=])\s*['"]?[^\s'"]{4,}['"]?`,
			Severity:    "high",
		},
		{
			ID:          "credit-card",
			Description: "Payment Card Number",
			Pattern:     `\b(?:\d[ -]?){13,16}\b`,
			Severity:    "medium",
		},
	}
}

func compileRules(rules []Rule) ([]*compiledRule, error) {
	compiled := make([]*compiledRule, 0, len(rules))
	for i, rule := range rules {
		if rule.ID == "" {
			return nil, fmt.Errorf("rule %d: ID is required", i)
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: invalid pattern: %w", rule.ID, err)
		}
		compiled = append(compiled, &compiledRule{Rule: rule, pattern: re})
	}
	return compiled, nil
}
