// Package pricing computes per-guest scaling prices on top of a flat base
// price. Pure functions, no I/O.
package pricing

import (
	"errors"
	"fmt"
)

var ErrGuestCountTooLow = errors.New("guest count must be at least 1")

// ScalingComponent charges PerPersonCents for every guest above
// IncludedGuests, optionally capped by its own MaxGuests.
type ScalingComponent struct {
	Name           string
	IncludedGuests int
	PerPersonCents int64
	MaxGuests      *int
}

// Tier is a priced offering with optional scaling rules.
type Tier struct {
	PriceCents int64
	MaxGuests  *int
	Components []ScalingComponent
}

type ComponentBreakdown struct {
	Name             string `json:"name"`
	IncludedGuests   int    `json:"includedGuests"`
	AdditionalGuests int    `json:"additionalGuests"`
	PerPersonCents   int64  `json:"perPersonCents"`
	SubtotalCents    int64  `json:"subtotalCents"`
}

type Quote struct {
	BasePriceCents        int64                `json:"basePriceCents"`
	ScalingTotalCents     int64                `json:"scalingTotalCents"`
	TotalBeforeCommission int64                `json:"totalBeforeCommission"`
	ComponentBreakdown    []ComponentBreakdown `json:"componentBreakdown"`
}

// CalculateScalingPrice evaluates each component independently, in
// declaration order. Bound violations fail fast before any money math.
func CalculateScalingPrice(tier Tier, guestCount int) (*Quote, error) {
	if len(tier.Components) == 0 {
		return &Quote{
			BasePriceCents:        tier.PriceCents,
			ScalingTotalCents:     0,
			TotalBeforeCommission: tier.PriceCents,
			ComponentBreakdown:    []ComponentBreakdown{},
		}, nil
	}

	if guestCount < 1 {
		return nil, ErrGuestCountTooLow
	}
	if tier.MaxGuests != nil && guestCount > *tier.MaxGuests {
		return nil, fmt.Errorf("guest count %d exceeds the maximum of %d for this package", guestCount, *tier.MaxGuests)
	}

	var scalingTotal int64
	breakdown := make([]ComponentBreakdown, 0, len(tier.Components))

	for _, comp := range tier.Components {
		if comp.MaxGuests != nil && guestCount > *comp.MaxGuests {
			return nil, fmt.Errorf("guest count %d exceeds the maximum of %d for component %q", guestCount, *comp.MaxGuests, comp.Name)
		}

		additional := guestCount - comp.IncludedGuests
		if additional < 0 {
			additional = 0
		}
		subtotal := int64(additional) * comp.PerPersonCents
		scalingTotal += subtotal

		breakdown = append(breakdown, ComponentBreakdown{
			Name:             comp.Name,
			IncludedGuests:   comp.IncludedGuests,
			AdditionalGuests: additional,
			PerPersonCents:   comp.PerPersonCents,
			SubtotalCents:    subtotal,
		})
	}

	return &Quote{
		BasePriceCents:        tier.PriceCents,
		ScalingTotalCents:     scalingTotal,
		TotalBeforeCommission: tier.PriceCents + scalingTotal,
		ComponentBreakdown:    breakdown,
	}, nil
}
