package domain

import "time"

type Movie struct {
	ID                   string    `json:"id" yaml:"id"`
	Title                string    `json:"title" yaml:"title"`
	Genre                string    `json:"genre" yaml:"genre"`
	DailyRentalRateCents int64     `json:"dailyRentalRateCents" yaml:"daily_rental_rate_cents"`
	NumberInStock        int       `json:"numberInStock" yaml:"number_in_stock"`
	CreatedOn            time.Time `json:"createdOn" yaml:"-"`
	UpdatedOn            time.Time `json:"updatedOn" yaml:"-"`
}

func (m *Movie) InStock() bool {
	return m.NumberInStock > 0
}
