package delivery

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNotEligible indicates no configured zone matches the location. It is a
// business outcome, distinct from store failures.
var ErrNotEligible = errors.New("delivery not available for location")

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Normalize lowercases the value and strips whitespace and non-word
// characters, so spacing/punctuation differences between user input and
// configured zones still match. No transliteration happens here: a city
// entered in a different script than its configured zone will not match.
func Normalize(s string) string {
	return nonWord.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

// ZoneSource is the read surface the resolver needs.
type ZoneSource interface {
	ZonesForCountry(ctx context.Context, countryKey string) ([]Zone, error)
}

// Resolver matches candidate shipping locations against configured zones.
type Resolver struct {
	zones ZoneSource
}

// NewResolver returns a Resolver backed by the given zone source.
func NewResolver(zones ZoneSource) *Resolver {
	return &Resolver{zones: zones}
}

// Resolve returns the most specific active zone matching the location.
// Precedence is strict: exact city+region+country beats region+country with
// a city wildcard, which beats a country-only zone. No match returns
// ErrNotEligible; only store access problems return other errors.
func (r *Resolver) Resolve(ctx context.Context, loc Location) (*Zone, error) {
	countryKey := Normalize(loc.Country)
	if countryKey == "" {
		return nil, ErrNotEligible
	}

	zones, err := r.zones.ZonesForCountry(ctx, countryKey)
	if err != nil {
		return nil, fmt.Errorf("load zones: %w", err)
	}

	region := Normalize(loc.Region)
	city := Normalize(loc.City)

	var regionMatch, countryMatch *Zone
	for i := range zones {
		z := &zones[i]
		zRegion := Normalize(z.Region)
		zCity := Normalize(z.City)

		switch {
		case zRegion != "" && zCity != "":
			if zRegion == region && zCity == city {
				// exact match wins immediately
				return z, nil
			}
		case zRegion != "":
			if zRegion == region && regionMatch == nil {
				regionMatch = z
			}
		default:
			if countryMatch == nil {
				countryMatch = z
			}
		}
	}

	if regionMatch != nil {
		return regionMatch, nil
	}
	if countryMatch != nil {
		return countryMatch, nil
	}
	return nil, ErrNotEligible
}
