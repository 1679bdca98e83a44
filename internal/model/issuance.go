package model

// IssuanceRequest carries the form fields submitted for one issuance.
// Values are opaque strings; only required-presence is validated.
type IssuanceRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
}

// LedgerEvent is the wire payload of one issuance event sent to the
// remote ledger. Action is filled in by the ledger client.
type LedgerEvent struct {
	Action     string `json:"action"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Location   string `json:"location"`
	CouponCode string `json:"couponCode"`
}

// CandidateStats aggregates redemption counts for one coupon code.
// Fields absent from the remote response decode to zero.
type CandidateStats struct {
	TotalCompleted  int64   `json:"totalCompleted"`
	TotalIneligible int64   `json:"totalIneligible"`
	TotalPending    int64   `json:"totalPending"`
	TotalCredit     float64 `json:"totalCredit"`
}
