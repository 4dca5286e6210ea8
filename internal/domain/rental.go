package domain

import "time"

// CustomerSnapshot is the copy of the customer taken when the rental was created.
type CustomerSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// MovieSnapshot is the copy of the movie taken when the rental was created.
// Fees are always computed from this rate, not from the live movie record.
type MovieSnapshot struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	DailyRentalRateCents int64  `json:"dailyRentalRateCents"`
}

type Rental struct {
	ID       string           `json:"id"`
	Customer CustomerSnapshot `json:"customer"`
	Movie    MovieSnapshot    `json:"movie"`
	DateOut  time.Time        `json:"dateOut"`
	// DateReturned and RentalFeeCents are set together, exactly once, when the
	// return is processed.
	DateReturned   *time.Time `json:"dateReturned,omitempty"`
	RentalFeeCents *int64     `json:"rentalFeeCents,omitempty"`
	CreatedOn      time.Time  `json:"createdOn"`
	UpdatedOn      time.Time  `json:"updatedOn"`
}

// NewRental snapshots the customer and movie into an open rental.
func NewRental(id string, customer *Customer, movie *Movie, dateOut time.Time) *Rental {
	return &Rental{
		ID:       id,
		Customer: SnapshotCustomer(customer),
		Movie:    SnapshotMovie(movie),
		DateOut:  dateOut,
	}
}

func SnapshotCustomer(c *Customer) CustomerSnapshot {
	return CustomerSnapshot{ID: c.ID, Name: c.Name, Phone: c.Phone}
}

func SnapshotMovie(m *Movie) MovieSnapshot {
	return MovieSnapshot{ID: m.ID, Title: m.Title, DailyRentalRateCents: m.DailyRentalRateCents}
}

// IsReturned reports whether the rental reached its terminal state.
func (r *Rental) IsReturned() bool {
	return r.DateReturned != nil
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (r *Rental) Clone() *Rental {
	cp := *r
	if r.DateReturned != nil {
		t := *r.DateReturned
		cp.DateReturned = &t
	}
	if r.RentalFeeCents != nil {
		f := *r.RentalFeeCents
		cp.RentalFeeCents = &f
	}
	return &cp
}
