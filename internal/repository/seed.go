package repository

import (
	"fmt"
	"os"

	"movie-rental-backend/internal/domain"

	"gopkg.in/yaml.v3"
)

// SeedData is the layout of the YAML seed file shared by the memory store
// and the seed command.
type SeedData struct {
	Customers []domain.Customer `yaml:"customers"`
	Movies    []domain.Movie    `yaml:"movies"`
}

func LoadSeedFile(path string) (*SeedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for _, c := range seed.Customers {
		if c.ID == "" {
			return nil, &domain.MissingFieldError{Field: "customer.id"}
		}
	}
	for _, m := range seed.Movies {
		if m.ID == "" {
			return nil, &domain.MissingFieldError{Field: "movie.id"}
		}
		if m.NumberInStock < 0 {
			return nil, fmt.Errorf("movie %s has negative stock: %w", m.ID, domain.ErrInvalidInput)
		}
	}
	return &seed, nil
}
