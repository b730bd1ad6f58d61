package model

import (
	"strconv"
	"strings"
)

// Payment is a charge owed or paid by an owner
type Payment struct {
	ID              int64   `json:"id"`
	OwnerID         int64   `json:"ownerId"`
	OwnerName       string  `json:"ownerName"`
	BoatID          int64   `json:"boatId,omitempty"`
	BoatName        string  `json:"boatName,omitempty"`
	Amount          float64 `json:"amount"`
	Reason          string  `json:"reason"`
	Status          string  `json:"status"`
	PaymentDate     string  `json:"paymentDate"`
	ReceiptFileName string  `json:"receiptFileName,omitempty"`
}

// HasReceipt reports whether a receipt was uploaded for the payment
func (p Payment) HasReceipt() bool {
	return p.ReceiptFileName != ""
}

// Matches applies the payment filters (search, reason, month, status) combined with AND
func (p Payment) Matches(f FilterState) bool {
	if search := f.Get("search"); search != "" && !containsFold(search, p.OwnerName, p.BoatName, p.ReceiptFileName) {
		return false
	}
	if month := f.Get("month"); month != "" && !matchMonth(p.PaymentDate, month) {
		return false
	}
	return equalFilter(f, "reason", p.Reason) && equalFilter(f, "status", p.Status)
}

// matchMonth accepts "YYYY-MM" or a bare month number ("5", "05")
func matchMonth(date, month string) bool {
	if len(date) < 7 {
		return false
	}
	if strings.Contains(month, "-") {
		return strings.HasPrefix(date, month)
	}
	want, err := strconv.Atoi(month)
	if err != nil {
		return false
	}
	got, err := strconv.Atoi(date[5:7])
	return err == nil && got == want
}

// Tally adds the payment to total, status and amount counters
func (p Payment) Tally(c Counters) {
	c.Add("total", 1)
	c.Add(counterKey("status", p.Status), 1)
	c.Add("amount", p.Amount)
	c.Add(counterKey("amount", p.Status), p.Amount)
}

// PaymentRequest is the body for recording or updating a payment
type PaymentRequest struct {
	OwnerID     int64   `json:"ownerId" validate:"required,gt=0"`
	BoatID      int64   `json:"boatId,omitempty" validate:"gte=0"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Reason      string  `json:"reason" validate:"required,oneof=MOORING MAINTENANCE MEMBERSHIP INSURANCE OTHER"`
	Status      string  `json:"status" validate:"required,oneof=PENDING PAID OVERDUE"`
	PaymentDate string  `json:"paymentDate" validate:"required,datetime=2006-01-02"`
}

// Validate checks the request and returns field errors
func (r *PaymentRequest) Validate() map[string]string {
	return validateStruct(r)
}
