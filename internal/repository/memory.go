package repository

import (
	"context"
	"errors"
	"sync"

	"greetings/internal/domain"
)

// Memory is an in-process greeting store keyed the same way as the table.
type Memory struct {
	mu    sync.RWMutex
	items map[string]domain.CountryGreeting
}

func NewMemory() *Memory {
	return &Memory{items: map[string]domain.CountryGreeting{}}
}

func (m *Memory) GetCountryGreeting(_ context.Context, country string) (*domain.CountryGreeting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.items[countryPK(country)]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (m *Memory) PutCountryGreeting(_ context.Context, greeting domain.CountryGreeting) (*domain.CountryGreeting, error) {
	if greeting.Country == "" {
		return nil, errors.New("repository: PutCountryGreeting: country is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := countryPK(greeting.Country)
	prev, ok := m.items[key]
	m.items[key] = greeting
	if !ok {
		return nil, nil
	}
	return &prev, nil
}

// Len returns the number of stored greetings.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
