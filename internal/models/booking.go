package models

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	StatusReserved  BookingStatus = "reserved"
	StatusCollected BookingStatus = "collected"
	StatusReturned  BookingStatus = "returned"
	StatusInspected BookingStatus = "inspected"
	StatusCancelled BookingStatus = "cancelled"
	StatusRefunded  BookingStatus = "refunded"
)

// Statuses lists every booking status in display order.
var Statuses = []BookingStatus{
	StatusReserved,
	StatusCollected,
	StatusReturned,
	StatusInspected,
	StatusCancelled,
	StatusRefunded,
}

var statusInfo = map[BookingStatus]struct {
	order       int
	label       string
	description string
}{
	StatusReserved:  {0, "Reserved", "Reserved, ready for pickup"},
	StatusCollected: {0, "Collected", "Collected, on the road"},
	StatusReturned:  {1, "Returned", "Returned, pending inspection"},
	StatusInspected: {2, "Inspected", "Inspected and charged"},
	StatusCancelled: {2, "Cancelled", "Cancelled, pending refund"},
	StatusRefunded:  {2, "Refunded", "Refunded"},
}

func (s BookingStatus) Valid() bool {
	_, ok := statusInfo[s]
	return ok
}

// Rank orders statuses for history display: active, awaiting inspection, resolved.
func (s BookingStatus) Rank() int {
	if info, ok := statusInfo[s]; ok {
		return info.order
	}
	return len(statusInfo)
}

func (s BookingStatus) Label() string {
	if info, ok := statusInfo[s]; ok {
		return info.label
	}
	return string(s)
}

func (s BookingStatus) Description() string {
	if info, ok := statusInfo[s]; ok {
		return info.description
	}
	return string(s)
}

// Active is true while the customer still holds or is about to hold the car.
func (s BookingStatus) Active() bool {
	return s == StatusReserved || s == StatusCollected
}

// Final is true once no further change is accepted.
func (s BookingStatus) Final() bool {
	return s == StatusInspected || s == StatusRefunded
}

type Booking struct {
	ID           int64         `json:"id" validate:"min=0"`
	CarID        int64         `json:"carId" validate:"min=0"`
	UserID       string        `json:"userId"`
	DateTimeFrom string        `json:"dateTimeFrom" validate:"required"`
	DateTo       string        `json:"dateTo" validate:"required"`
	Last4CC      string        `json:"last4cc"`
	Total        float64       `json:"total" validate:"min=0"`
	Penalty      *float64      `json:"penalty,omitempty"`
	Status       BookingStatus `json:"status" validate:"required,oneof=reserved collected returned inspected cancelled refunded"`
	CheckedOutAt int64         `json:"checkedOutAt"`
	Comment      *string       `json:"comment,omitempty"`
	PlaceID      *string       `json:"placeId,omitempty"`
}

func (b Booking) PenaltyAmount() float64 {
	if b.Penalty == nil {
		return 0
	}
	return *b.Penalty
}

// DisplayedTotal is what the customer pays: nothing once refunded, otherwise total plus penalty.
func (b Booking) DisplayedTotal() float64 {
	if b.Status == StatusRefunded {
		return 0
	}
	return b.Total + b.PenaltyAmount()
}

// RefundAmount is what goes back to the customer when a cancelled booking is refunded.
func (b Booking) RefundAmount() float64 {
	amount := b.Total - b.PenaltyAmount()
	if amount < 0 {
		return 0
	}
	return amount
}

// StartTime parses DateTimeFrom; the zero time is returned for unparseable values.
func (b Booking) StartTime() time.Time {
	t, _ := ParseDate(b.DateTimeFrom)
	return t
}

func (b Booking) EndTime() time.Time {
	t, _ := ParseDate(b.DateTo)
	return t
}

func (b Booking) CheckedOutTime() time.Time {
	return time.UnixMilli(b.CheckedOutAt)
}

// ParseDate parses the date formats produced by the checkout form. Values without
// an offset are taken as UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var err error
	for _, layout := range DateLayouts {
		var t time.Time
		t, err = time.ParseInLocation(layout, value, time.UTC)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// CheckoutRequest carries the checkout form.
type CheckoutRequest struct {
	CarID      int64
	Account    *Account
	RentFrom   string
	RentTo     string
	CardNumber string
	PlaceID    string
}

// Quote is the price breakdown shown before checkout.
type Quote struct {
	Days     int     `json:"days"`
	Subtotal float64 `json:"subtotal"`
	GST      float64 `json:"gst"`
	Total    float64 `json:"total"`
}

// AdminUpdate is a partial update from the admin console. Penalty is the raw
// form value and is applied only when it parses to a positive number.
type AdminUpdate struct {
	Status  *BookingStatus
	Penalty string
	Comment *string
}

// BookingFilter selects bookings for the admin list. CarID -1, AccountID ""
// or "-1" and Status "" match everything.
type BookingFilter struct {
	CarID     int64
	AccountID string
	Status    BookingStatus
}

// AnyCar is the CarID filter value that matches every car.
const AnyCar int64 = -1

func (f BookingFilter) Match(b Booking) bool {
	if f.CarID != AnyCar && f.CarID != b.CarID {
		return false
	}
	if f.AccountID != "" && f.AccountID != "-1" && f.AccountID != b.UserID {
		return false
	}
	if f.Status != "" && f.Status != b.Status {
		return false
	}
	return true
}
