package core

import (
	"context"
	"fmt"
	"plantary/pkg/domain"
)

// PaymentVerifier compares the attached deposit with the required price.
type PaymentVerifier interface {
	Verify(price, attached domain.Balance) error
}

// ExactPayment requires the attached value to equal the price.
type ExactPayment struct{}

// Verify implements PaymentVerifier.
func (ExactPayment) Verify(price, attached domain.Balance) error {
	if price != attached {
		return fmt.Errorf("%w: attached %d, price %d", domain.ErrUnpaid, attached, price)
	}
	return nil
}

// PriceTable holds per-category prices for minting plants and harvesting.
// Categories without an entry are free.
type PriceTable struct {
	Plant   map[domain.Category]domain.Balance `json:"plant" toml:"plant" mapstructure:"plant"`
	Harvest map[domain.Category]domain.Balance `json:"harvest" toml:"harvest" mapstructure:"harvest"`
}

// DefaultPrices returns the launch price tables.
func DefaultPrices() PriceTable {
	return PriceTable{
		Plant: map[domain.Category]domain.Balance{
			domain.CategoryOracle:   10,
			domain.CategoryPortrait: 20,
			domain.CategoryMoney:    30,
		},
		Harvest: map[domain.Category]domain.Balance{
			domain.CategoryOracle:     5,
			domain.CategoryPortrait:   5,
			domain.CategoryCompliment: 5,
			domain.CategoryInsult:     5,
			domain.CategorySeed:       50,
		},
	}
}

// PriceFor returns the price of creating a veggie of kind in category.
func (p PriceTable) PriceFor(kind domain.Kind, category domain.Category) domain.Balance {
	switch kind {
	case domain.KindPlant:
		return p.Plant[category]
	case domain.KindHarvest:
		return p.Harvest[category]
	}
	return 0
}

func (p PriceTable) clone() PriceTable {
	out := PriceTable{
		Plant:   make(map[domain.Category]domain.Balance, len(p.Plant)),
		Harvest: make(map[domain.Category]domain.Balance, len(p.Harvest)),
	}
	for c, v := range p.Plant {
		out.Plant[c] = v
	}
	for c, v := range p.Harvest {
		out.Harvest[c] = v
	}
	return out
}

// Prices returns a copy of the active price tables.
func (s *Service) Prices() PriceTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices.clone()
}

// SetPrices replaces the price tables. Admin only.
func (s *Service) SetPrices(ctx context.Context, prices PriceTable) error {
	if err := s.AssertAdmin(ctx); err != nil {
		return err
	}
	for c := range prices.Plant {
		if err := domain.ValidateCategory(c); err != nil {
			return err
		}
	}
	for c := range prices.Harvest {
		if err := domain.ValidateCategory(c); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.prices = prices.clone()
	s.mu.Unlock()
	s.logger.Info("price tables updated", "plant", len(prices.Plant), "harvest", len(prices.Harvest))
	return nil
}

// verifyPayment checks the deposit attached to ctx against the price for
// kind and category.
func (s *Service) verifyPayment(ctx context.Context, kind domain.Kind, category domain.Category) error {
	price := s.Prices().PriceFor(kind, category)
	return s.payments.Verify(price, AttachedDeposit(ctx))
}
