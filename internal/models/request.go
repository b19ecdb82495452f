package models

import "time"

// RequestStatus enumerates workflow states shared by purchase and print
// requests.
type RequestStatus string

const (
	RequestStatusRequested RequestStatus = "REQUESTED"
	RequestStatusApproved  RequestStatus = "APPROVED"
	RequestStatusPrinted   RequestStatus = "PRINTED"
	RequestStatusReview    RequestStatus = "REVIEW"
)

var purchaseTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusRequested: {RequestStatusApproved, RequestStatusReview},
	RequestStatusReview:    {RequestStatusApproved},
}

var printTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusRequested: {RequestStatusApproved, RequestStatusReview},
	RequestStatusReview:    {RequestStatusApproved},
	RequestStatusApproved:  {RequestStatusPrinted},
}

func transitionAllowed(table map[RequestStatus][]RequestStatus, from, to RequestStatus) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PurchaseRequest asks the administration to buy supplies.
type PurchaseRequest struct {
	ID             string        `db:"id" json:"id"`
	SchoolID       string        `db:"school_id" json:"school_id"`
	RequesterID    string        `db:"requester_id" json:"requester_id"`
	Description    string        `db:"description" json:"description"`
	Quantity       int           `db:"quantity" json:"quantity"`
	UnitPriceCents int64         `db:"unit_price_cents" json:"unit_price_cents"`
	Status         RequestStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// CanTransitionTo reports whether the purchase workflow allows moving to
// the given status.
func (r PurchaseRequest) CanTransitionTo(next RequestStatus) bool {
	return transitionAllowed(purchaseTransitions, r.Status, next)
}

// PrintRequest asks the administration to print a document.
type PrintRequest struct {
	ID           string        `db:"id" json:"id"`
	SchoolID     string        `db:"school_id" json:"school_id"`
	RequesterID  string        `db:"requester_id" json:"requester_id"`
	DocumentName string        `db:"document_name" json:"document_name"`
	Copies       int           `db:"copies" json:"copies"`
	DueDate      *time.Time    `db:"due_date" json:"due_date,omitempty"`
	Status       RequestStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// CanTransitionTo reports whether the print workflow allows moving to
// the given status.
func (r PrintRequest) CanTransitionTo(next RequestStatus) bool {
	return transitionAllowed(printTransitions, r.Status, next)
}

// RequestFilter defines filter criteria shared by both request listings.
type RequestFilter struct {
	SchoolID    string
	RequesterID string
	Status      RequestStatus
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
