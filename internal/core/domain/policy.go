package domain

import "fmt"

// DefaultApprovalThreshold is the monetary cutoff separating automatic
// from manual approval.
const DefaultApprovalThreshold = 1000.0

// Decision is the transient routing outcome for one document.
type Decision struct {
	AutoApprove bool
	Amount      float64
	Reason      string
}

// ApprovalPolicy is the entire routing policy: a single threshold,
// injected at construction so extraction and orchestration stay untouched
// when it changes.
type ApprovalPolicy struct {
	Threshold float64
}

func NewApprovalPolicy(threshold float64) ApprovalPolicy {
	if threshold <= 0 {
		threshold = DefaultApprovalThreshold
	}
	return ApprovalPolicy{Threshold: threshold}
}

// Decide routes by amount. A missing amount counts as zero: an auditable
// default so documents without a detected figure are not blocked forever.
func (p ApprovalPolicy) Decide(amount *float64) Decision {
	value := 0.0
	if amount != nil {
		value = *amount
	}
	if value < p.Threshold {
		return Decision{
			AutoApprove: true,
			Amount:      value,
			Reason:      fmt.Sprintf("Amount below $%.0f threshold", p.Threshold),
		}
	}
	return Decision{
		AutoApprove: false,
		Amount:      value,
		Reason:      fmt.Sprintf("Document requires manual approval due to amount >= $%.0f", p.Threshold),
	}
}
