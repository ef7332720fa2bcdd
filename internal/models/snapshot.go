package models

// Snapshot is the complete persisted application state.
type Snapshot struct {
	Version        int            `json:"version"`
	Accounts       []Account      `json:"accounts" validate:"dive"`
	CurrentAccount *Account       `json:"currentAccount"`
	CarQty         map[string]int `json:"carQty" validate:"dive,min=0"`
	Bookings       []Booking      `json:"bookings" validate:"dive"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version:  SchemaVersion,
		Accounts: []Account{},
		CarQty:   map[string]int{},
		Bookings: []Booking{},
	}
}

// Clone returns a deep copy so a transaction can be discarded without touching s.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Version:  s.Version,
		Accounts: make([]Account, len(s.Accounts)),
		CarQty:   make(map[string]int, len(s.CarQty)),
		Bookings: make([]Booking, len(s.Bookings)),
	}
	for i, a := range s.Accounts {
		out.Accounts[i] = a.Clone()
	}
	if s.CurrentAccount != nil {
		acc := s.CurrentAccount.Clone()
		out.CurrentAccount = &acc
	}
	for k, v := range s.CarQty {
		out.CarQty[k] = v
	}
	for i, b := range s.Bookings {
		out.Bookings[i] = b.Clone()
	}
	return out
}

// Clone returns a copy that shares no pointers with a.
func (a Account) Clone() Account {
	if a.LoginMs != nil {
		ms := *a.LoginMs
		a.LoginMs = &ms
	}
	return a
}

// Clone returns a copy that shares no pointers with b.
func (b Booking) Clone() Booking {
	if b.Penalty != nil {
		p := *b.Penalty
		b.Penalty = &p
	}
	if b.Comment != nil {
		c := *b.Comment
		b.Comment = &c
	}
	if b.PlaceID != nil {
		p := *b.PlaceID
		b.PlaceID = &p
	}
	return b
}

// FindBooking returns the index of the booking with id, or -1.
func (s *Snapshot) FindBooking(id int64) int {
	for i := range s.Bookings {
		if s.Bookings[i].ID == id {
			return i
		}
	}
	return -1
}

// FindAccount returns the index of the account with id, or -1.
func (s *Snapshot) FindAccount(id string) int {
	for i := range s.Accounts {
		if s.Accounts[i].ID == id {
			return i
		}
	}
	return -1
}
