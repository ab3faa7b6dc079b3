package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"greetings/internal/domain"
)

// DefaultGreeting is served for countries that have no stored greeting.
var DefaultGreeting = domain.CountryGreeting{
	Country:  "USA",
	Greeting: DefaultPhrase,
}

type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// GreetingStore is a point read/write store of country greetings.
// GetCountryGreeting returns nil, nil when no greeting is stored.
type GreetingStore interface {
	GetCountryGreeting(ctx context.Context, country string) (*domain.CountryGreeting, error)
	PutCountryGreeting(ctx context.Context, greeting domain.CountryGreeting) (*domain.CountryGreeting, error)
}

// StoreResolver returns the store for the current invocation. It fails when
// the store is not configured.
type StoreResolver func(ctx context.Context) (GreetingStore, error)

type GreetingService struct {
	resolve StoreResolver

	params       ParamGetter
	defaultParam string

	cacheMu       sync.RWMutex
	defaultLoaded bool
	fallback      domain.CountryGreeting
}

type Option func(*GreetingService)

// WithDefaultGreetingParam reads the fallback greeting from the named
// parameter instead of using DefaultGreeting. The value is read once.
func WithDefaultGreetingParam(p ParamGetter, name string) Option {
	return func(s *GreetingService) {
		s.params = p
		s.defaultParam = strings.TrimSpace(name)
	}
}

func NewGreetingService(resolve StoreResolver, opts ...Option) (*GreetingService, error) {
	if resolve == nil {
		return nil, errors.New("usecase: store resolver must not be nil")
	}
	s := &GreetingService{resolve: resolve, fallback: DefaultGreeting}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultParam != "" && s.params == nil {
		return nil, errors.New("usecase: param getter must not be nil when a default greeting parameter is set")
	}
	return s, nil
}

// CheckStore reports a configuration error if the store cannot be resolved.
func (s *GreetingService) CheckStore(ctx context.Context) error {
	_, err := s.store(ctx)
	return err
}

// GetGreeting returns the stored greeting for country, or the default
// greeting when none is stored.
func (s *GreetingService) GetGreeting(ctx context.Context, country string) (domain.CountryGreeting, error) {
	if country == "" {
		return domain.CountryGreeting{}, BadRequest(ReasonMissingCountry)
	}
	store, err := s.store(ctx)
	if err != nil {
		return domain.CountryGreeting{}, err
	}

	found, err := store.GetCountryGreeting(ctx, country)
	if err != nil {
		return domain.CountryGreeting{}, newError(ErrorInternal, "storage_read_error", err)
	}
	if found != nil {
		return *found, nil
	}

	fallback, err := s.defaultGreeting(ctx)
	if err != nil {
		return domain.CountryGreeting{}, newError(ErrorInternal, "default_greeting_error", err)
	}
	return fallback, nil
}

// PutGreeting stores greeting, replacing any earlier greeting for the same
// country, and returns the stored value.
func (s *GreetingService) PutGreeting(ctx context.Context, greeting domain.CountryGreeting) (domain.CountryGreeting, error) {
	if greeting.Country == "" {
		return domain.CountryGreeting{}, BadRequest(ReasonMissingCountry)
	}
	if strings.TrimSpace(greeting.Greeting) == "" {
		return domain.CountryGreeting{}, BadRequest(ReasonInvalidBody)
	}
	store, err := s.store(ctx)
	if err != nil {
		return domain.CountryGreeting{}, err
	}
	if _, err := store.PutCountryGreeting(ctx, greeting); err != nil {
		return domain.CountryGreeting{}, newError(ErrorInternal, "storage_write_error", err)
	}
	return greeting, nil
}

func (s *GreetingService) store(ctx context.Context) (GreetingStore, error) {
	store, err := s.resolve(ctx)
	if err != nil {
		return nil, newError(ErrorConfiguration, "storage_not_configured", err)
	}
	if store == nil {
		return nil, newError(ErrorConfiguration, "storage_not_configured", errors.New("usecase: resolver returned no store"))
	}
	return store, nil
}

func (s *GreetingService) defaultGreeting(ctx context.Context) (domain.CountryGreeting, error) {
	if s.defaultParam == "" {
		return s.fallback, nil
	}

	s.cacheMu.RLock()
	if s.defaultLoaded {
		g := s.fallback
		s.cacheMu.RUnlock()
		return g, nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.defaultLoaded {
		return s.fallback, nil
	}

	phrase, err := s.params.GetParameter(ctx, s.defaultParam)
	if err != nil {
		return domain.CountryGreeting{}, fmt.Errorf("usecase: load default greeting: %w", err)
	}
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return domain.CountryGreeting{}, errors.New("usecase: default greeting parameter is empty")
	}
	s.fallback = domain.CountryGreeting{Country: DefaultGreeting.Country, Greeting: phrase}
	s.defaultLoaded = true
	return s.fallback, nil
}
