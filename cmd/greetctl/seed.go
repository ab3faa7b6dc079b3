package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"greetings/internal/domain"
	"greetings/internal/usecase"
)

// seedFile is the YAML layout accepted by greetctl seed.
//
//	greetings:
//	  - country: UK
//	    greeting: Wotcha
type seedFile struct {
	Greetings []domain.CountryGreeting `yaml:"greetings"`
}

func parseSeed(r io.Reader) ([]domain.CountryGreeting, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, g := range f.Greetings {
		if strings.TrimSpace(g.Country) == "" {
			return nil, fmt.Errorf("seed entry %d: missing country", i)
		}
	}
	return f.Greetings, nil
}

// builtinSeed returns the built-in lookup table as greetings, sorted by
// country.
func builtinSeed() []domain.CountryGreeting {
	countries := usecase.KnownCountries()
	sort.Strings(countries)
	out := make([]domain.CountryGreeting, 0, len(countries))
	for _, c := range countries {
		out = append(out, domain.CountryGreeting{Country: c, Greeting: usecase.Lookup(c)})
	}
	return out
}

func (c *cli) seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store greetings from a YAML file or the built-in table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			greetings := builtinSeed()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				if greetings, err = parseSeed(f); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := c.newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			put := a.Wrap("put-greeting", a.Handler.PutGreeting)
			for _, g := range greetings {
				body, err := json.Marshal(map[string]string{"greeting": g.Greeting})
				if err != nil {
					return err
				}
				if _, err := invoke(ctx, put, greetingEvent(http.MethodPut, g.Country, string(body))); err != nil {
					return fmt.Errorf("seed %s: %w", g.Country, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", g.Country, g.Greeting)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML seed file (default: built-in table)")
	return cmd
}
