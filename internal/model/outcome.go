package model

// OutcomeCategory is the instance-local result of a single record
type OutcomeCategory string

const (
	OutcomeFavorableFirst         OutcomeCategory = "FAVORABLE_FIRST"          // Origin ruling favors the worker
	OutcomeUnfavorableFirst       OutcomeCategory = "UNFAVORABLE_FIRST"        // Origin ruling against the worker
	OutcomeAppealGranted          OutcomeCategory = "APPEAL_GRANTED"           // Appeal upheld
	OutcomeAppealDenied           OutcomeCategory = "APPEAL_DENIED"            // Appeal rejected or not admitted
	OutcomeAppealPartiallyGranted OutcomeCategory = "APPEAL_PARTIALLY_GRANTED" // Appeal upheld in part
	OutcomeExtinguishedNoMerit    OutcomeCategory = "EXTINGUISHED_NO_MERIT"    // Closed without a merits ruling
	OutcomeSettlementHomologated  OutcomeCategory = "SETTLEMENT_HOMOLOGATED"   // Settlement approved by the court
	OutcomeUnknown                OutcomeCategory = "UNKNOWN_OUTCOME"          // No decisive code, or codes conflict
)

// AllOutcomes lists every outcome category in a stable order
var AllOutcomes = []OutcomeCategory{
	OutcomeFavorableFirst,
	OutcomeUnfavorableFirst,
	OutcomeAppealGranted,
	OutcomeAppealDenied,
	OutcomeAppealPartiallyGranted,
	OutcomeExtinguishedNoMerit,
	OutcomeSettlementHomologated,
	OutcomeUnknown,
}

// Valid reports whether c is one of the fixed categories
func (c OutcomeCategory) Valid() bool {
	for _, o := range AllOutcomes {
		if c == o {
			return true
		}
	}
	return false
}

// IsOriginRuling reports whether the category is a first-instance merits ruling
func (c OutcomeCategory) IsOriginRuling() bool {
	return c == OutcomeFavorableFirst || c == OutcomeUnfavorableFirst
}

// IsAppealRuling reports whether the category decides an appeal
func (c OutcomeCategory) IsAppealRuling() bool {
	return c == OutcomeAppealGranted || c == OutcomeAppealDenied || c == OutcomeAppealPartiallyGranted
}

// Verdict is the final party outcome of a chain
type Verdict string

const (
	VerdictWorkerWins   Verdict = "WORKER_WINS"
	VerdictWorkerLoses  Verdict = "WORKER_LOSES"
	VerdictUndetermined Verdict = "UNDETERMINED"
)

// Appellant is the party inferred to have filed an appeal step
type Appellant string

const (
	AppellantWorker        Appellant = "WORKER_APPEALED"
	AppellantEmployer      Appellant = "EMPLOYER_APPEALED"
	AppellantNotApplicable Appellant = "NOT_APPLICABLE"
)
