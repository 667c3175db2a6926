package senderlist

import (
	"strings"

	"go.uber.org/zap"
)

// defaultAutomatedLocalParts are mailbox names that never carry a human request
var defaultAutomatedLocalParts = []string{
	"noreply", "no-reply", "donotreply", "do-not-reply", "mailer-daemon", "postmaster", "bounce", "notifications",
}

// Checker matches sender addresses against excluded domains and automated mailboxes
type Checker struct {
	domains    []string
	localParts []string
	logger     *zap.Logger
}

// NewChecker creates a new sender checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	// Normalize domains (lowercase)
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		d := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "@")
		if d != "" {
			normalized = append(normalized, d)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized sender exclusion list", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains:    normalized,
		localParts: defaultAutomatedLocalParts,
		logger:     logger,
	}
}

// Excluded reports whether the sender should be excluded and names the matching rule
func (c *Checker) Excluded(from string) (string, bool) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(from)), "@")
	if len(parts) != 2 {
		return "", false
	}
	local, domain := parts[0], parts[1]

	for _, automated := range c.localParts {
		if local == automated {
			return "automated sender (" + local + ")", true
		}
	}

	// A listed domain also covers its subdomains
	for _, excluded := range c.domains {
		if domain == excluded || strings.HasSuffix(domain, "."+excluded) {
			if c.logger != nil {
				c.logger.Debug("Sender domain is excluded",
					zap.String("domain", domain),
					zap.String("email", from))
			}
			return "excluded sender domain (" + excluded + ")", true
		}
	}

	return "", false
}
