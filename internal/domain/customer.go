package domain

import "time"

type Customer struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Phone     string    `json:"phone" yaml:"phone"`
	IsGold    bool      `json:"isGold" yaml:"is_gold"`
	CreatedOn time.Time `json:"createdOn" yaml:"-"`
	UpdatedOn time.Time `json:"updatedOn" yaml:"-"`
}
