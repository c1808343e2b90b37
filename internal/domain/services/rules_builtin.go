package services

import "threatscope-lab/internal/domain/models"

// BuiltinRules returns the stock weighted rule table. Each record is an
// immutable tagged variant keyed by category; the matcher iterates the table
// functionally instead of branching per category.
func BuiltinRules() []models.RuleDefinition {
	return []models.RuleDefinition{
		{
			ID:          "rule-injection",
			Category:    models.CategoryInjection,
			Name:        "SQL Injection",
			Description: "Untrusted input reaches a query interpreter",
			RequiredSignals: []string{
				"keyword_sql", "keyword_query", "keyword_database",
				"keyword_input", "pattern_sql_shape",
			},
			Threshold:  0.4,
			BaseWeight: 0.90,
			References: models.ThreatReferences{
				CWE:   []string{"CWE-89"},
				OWASP: []string{"A03:2021"},
			},
		},
		{
			ID:          "rule-broken-auth",
			Category:    models.CategoryBrokenAuthentication,
			Name:        "Broken Authentication",
			Description: "Weak or missing authentication controls",
			RequiredSignals: []string{
				"keyword_password", "keyword_authentication", "keyword_login",
			},
			Threshold:  0.6,
			BaseWeight: 0.92,
			References: models.ThreatReferences{
				CWE:   []string{"CWE-287", "CWE-384"},
				OWASP: []string{"A07:2021"},
			},
		},
		{
			ID:          "rule-sensitive-data",
			Category:    models.CategorySensitiveDataExposure,
			Name:        "Sensitive Data Exposure",
			Description: "Sensitive data stored or transmitted unprotected",
			RequiredSignals: []string{
				"keyword_encryption", "keyword_plaintext", "keyword_personal",
				"keyword_card", "pattern_base64_shape",
			},
			Threshold:  0.4,
			BaseWeight: 0.88,
			References: models.ThreatReferences{
				CWE:   []string{"CWE-311", "CWE-312"},
				OWASP: []string{"A02:2021"},
			},
		},
		{
			ID:          "rule-xss",
			Category:    models.CategoryXSS,
			Name:        "Cross-Site Scripting",
			Description: "Untrusted input rendered into a browser context",
			RequiredSignals: []string{
				"pattern_script_tag", "keyword_script", "keyword_cookie", "keyword_input",
			},
			Threshold:  0.5,
			BaseWeight: 0.86,
			References: models.ThreatReferences{
				CWE:   []string{"CWE-79"},
				OWASP: []string{"A03:2021"},
			},
		},
		{
			ID:          "rule-access-control",
			Category:    models.CategoryBrokenAccessControl,
			Name:        "Broken Access Control",
			Description: "Missing or bypassable authorization checks",
			RequiredSignals: []string{
				"keyword_admin", "keyword_authorization", "keyword_role", "keyword_privilege",
			},
			Threshold:  0.5,
			BaseWeight: 0.85,
			References: models.ThreatReferences{
				CWE:   []string{"CWE-284", "CWE-639"},
				OWASP: []string{"A01:2021"},
			},
		},
		{
			ID:          "rule-misconfig",
			Category:    models.CategoryMisconfiguration,
			Name:        "Security Misconfiguration",
			Description: "Default, debug or hardened-surface misconfiguration",
			RequiredSignals: []string{
				"keyword_default", "keyword_configuration", "keyword_debug",
				"keyword_container", "context_deployment_cloud",
			},
			Threshold:  0.4,
			BaseWeight: 0.80,
			References: models.ThreatReferences{
				CWE:   []string{"CWE-16"},
				OWASP: []string{"A05:2021"},
			},
		},
		{
			ID:          "rule-ssrf",
			Category:    models.CategorySSRF,
			Name:        "Server-Side Request Forgery",
			Description: "Server fetches attacker-controlled URLs",
			RequiredSignals: []string{
				"pattern_url_shape", "pattern_ip_shape", "keyword_fetch", "keyword_internal",
			},
			Threshold:  0.5,
			BaseWeight: 0.84,
			References: models.ThreatReferences{
				CWE:   []string{"CWE-918"},
				OWASP: []string{"A10:2021"},
			},
		},
		{
			ID:          "rule-crypto",
			Category:    models.CategoryCryptographicFailure,
			Name:        "Cryptographic Failures",
			Description: "Weak algorithms or mishandled key material",
			RequiredSignals: []string{
				"keyword_md5", "keyword_sha1", "keyword_encryption",
				"keyword_key", "keyword_certificate",
			},
			Threshold:  0.4,
			BaseWeight: 0.82,
			References: models.ThreatReferences{
				CWE:   []string{"CWE-327", "CWE-321"},
				OWASP: []string{"A02:2021"},
			},
		},
		{
			ID:          "rule-logging",
			Category:    models.CategoryLoggingFailure,
			Name:        "Insufficient Logging and Monitoring",
			Description: "Security events are not recorded or watched",
			RequiredSignals: []string{
				"keyword_log", "keyword_monitor", "keyword_audit",
			},
			Threshold:  0.6,
			BaseWeight: 0.75,
			References: models.ThreatReferences{
				CWE:   []string{"CWE-778"},
				OWASP: []string{"A09:2021"},
			},
		},
		{
			ID:          "rule-api-abuse",
			Category:    models.CategoryAPIAbuse,
			Name:        "API Abuse",
			Description: "Unthrottled or token-leaking API surface",
			RequiredSignals: []string{
				"keyword_api", "keyword_endpoint", "pattern_jwt_shape", "keyword_rate",
			},
			Threshold:  0.5,
			BaseWeight: 0.80,
			References: models.ThreatReferences{
				CWE:   []string{"CWE-770"},
				OWASP: []string{"API4:2023"},
			},
		},
		{
			ID:          "rule-supply-chain",
			Category:    models.CategorySupplyChain,
			Name:        "Supply Chain Compromise",
			Description: "Risk inherited through external dependencies",
			RequiredSignals: []string{
				"keyword_dependency", "keyword_vendor", "keyword_third_party",
				"context_has_external_dependencies",
			},
			Threshold:  0.5,
			BaseWeight: 0.80,
			References: models.ThreatReferences{
				CWE:   []string{"CWE-1357"},
				OWASP: []string{"A06:2021"},
			},
		},
		{
			ID:          "rule-dos",
			Category:    models.CategoryDenialOfService,
			Name:        "Denial of Service",
			Description: "Resource exhaustion of exposed services",
			RequiredSignals: []string{
				"keyword_traffic", "keyword_flood", "keyword_availability", "keyword_rate",
			},
			Threshold:  0.5,
			BaseWeight: 0.78,
			References: models.ThreatReferences{
				CWE: []string{"CWE-400"},
			},
		},
	}
}

// BuiltinAttackChains returns the stock attack-chain table
func BuiltinAttackChains() []models.AttackChainDefinition {
	return []models.AttackChainDefinition{
		{
			ID:          "chain-apt",
			Name:        "Advanced Persistent Threat",
			Description: "Injection, credential compromise and data exposure co-occurring indicate a staged intrusion",
			RequiredCategories: []string{
				models.CategoryInjection,
				models.CategoryBrokenAuthentication,
				models.CategorySensitiveDataExposure,
			},
			ConfidenceBoost: 0.08,
			References: models.ThreatReferences{
				External: []string{"https://attack.mitre.org/groups/"},
			},
		},
		{
			ID:          "chain-data-exfiltration",
			Name:        "Data Exfiltration Path",
			Description: "Access-control gaps combined with exposed data form an exfiltration path",
			RequiredCategories: []string{
				models.CategoryBrokenAccessControl,
				models.CategorySensitiveDataExposure,
			},
			ConfidenceBoost: 0.05,
		},
		{
			ID:          "chain-full-compromise",
			Name:        "Full System Compromise",
			Description: "Injection plus misconfiguration plus access-control failure enables lateral movement",
			RequiredCategories: []string{
				models.CategoryInjection,
				models.CategoryBrokenAccessControl,
				models.CategoryMisconfiguration,
			},
			ConfidenceBoost: 0.06,
		},
		{
			ID:          "chain-account-takeover",
			Name:        "Account Takeover Chain",
			Description: "Script injection against weak session handling enables account takeover",
			RequiredCategories: []string{
				models.CategoryXSS,
				models.CategoryBrokenAuthentication,
			},
			ConfidenceBoost: 0.04,
		},
	}
}
