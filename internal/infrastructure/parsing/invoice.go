// Package parsing extracts structured invoice fields from plain text with
// label-anchored regex heuristics. Best-effort by contract: a field that
// cannot be found is nil, never an error, and a false positive is caught
// by the manual-approval safety net downstream.
package parsing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/docflow-labs/docflow/internal/core/domain"
)

// stringMatcher is one strategy in an ordered first-match-wins chain.
type stringMatcher struct {
	name    string
	pattern *regexp.Regexp
	accept  func(raw string) (string, bool)
}

var invoiceMatchers = []stringMatcher{
	{
		name:    "labeled",
		pattern: regexp.MustCompile(`(?i)invoice\s*(?:number|no\.?|#)?\s*:?\s*([A-Za-z0-9][A-Za-z0-9\-_]*)`),
	},
	{
		// LETTERS-DIGITS shaped token anywhere in the text.
		name:    "token_fallback",
		pattern: regexp.MustCompile(`([A-Z]{2,}-?\d{3,})`),
	},
}

var customerMatchers = []stringMatcher{
	{
		name:    "labeled",
		pattern: regexp.MustCompile(`(?i)name\s*:\s*([A-Za-z0-9.,&' -]+)`),
		accept:  acceptCustomerName,
	},
	{
		// Capitalized two-or-three-word sequence.
		name:    "capitalized_fallback",
		pattern: regexp.MustCompile(`([A-Z][a-z]+\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
	},
}

// amountPatterns are collected globally, not first-match-wins: every valid
// candidate is parsed and the maximum wins, since the largest labeled
// figure in an invoice is almost always the grand total.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:total|amount|sum|due)\s*:?\s*\$?([\d,]+\.?\d*)`),
	regexp.MustCompile(`\$\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)(?:usd|dollar|dollars)\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)([\d,]+\.?\d*)\s*(?:usd|dollar|dollars)`),
	regexp.MustCompile(`(?i)(?:price|cost|fee)\s*:?\s*\$?([\d,]+\.?\d*)`),
}

// amountFallback matches the first two-decimal-places number worth more
// than a token minimum when no currency-flavored pattern hits.
var amountFallback = regexp.MustCompile(`([\d,]+\.\d{2})`)

const fallbackMinimumAmount = 10.0

type InvoiceParser struct{}

func NewInvoiceParser() *InvoiceParser {
	return &InvoiceParser{}
}

func (p *InvoiceParser) Parse(text string) domain.ExtractedFields {
	fields := domain.ExtractedFields{}

	if value, ok := firstMatch(invoiceMatchers, text); ok {
		fields.InvoiceNumber = &value
	}
	if value, ok := firstMatch(customerMatchers, text); ok {
		fields.CustomerName = &value
	}
	if amount, ok := extractAmount(text); ok {
		fields.Amount = &amount
	}
	return fields
}

func firstMatch(matchers []stringMatcher, text string) (string, bool) {
	for _, m := range matchers {
		groups := m.pattern.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		value := strings.TrimSpace(groups[1])
		if m.accept != nil {
			accepted, ok := m.accept(value)
			if !ok {
				continue
			}
			value = accepted
		}
		if value != "" {
			return value, true
		}
	}
	return "", false
}

func acceptCustomerName(raw string) (string, bool) {
	name := strings.TrimSpace(strings.TrimRight(raw, ",."))
	if len(name) > 2 && len(name) < 100 {
		return name, true
	}
	return "", false
}

func extractAmount(text string) (float64, bool) {
	var candidates []float64
	for _, pattern := range amountPatterns {
		for _, groups := range pattern.FindAllStringSubmatch(text, -1) {
			if amount, ok := parseAmount(groups[1]); ok {
				candidates = append(candidates, amount)
			}
		}
	}
	if len(candidates) > 0 {
		max := candidates[0]
		for _, amount := range candidates[1:] {
			if amount > max {
				max = amount
			}
		}
		return max, true
	}

	if groups := amountFallback.FindStringSubmatch(text); groups != nil {
		if amount, ok := parseAmount(groups[1]); ok && amount > fallbackMinimumAmount {
			return amount, true
		}
	}
	return 0, false
}

func parseAmount(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}
