package billing

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"willtank/internal/config"
	apperrors "willtank/internal/errors"
	"willtank/internal/model"
)

// Plan describes a subscription tier. Amounts are in the smallest currency unit.
type Plan struct {
	Type         model.PlanType                `yaml:"type" json:"type"`
	Name         string                        `yaml:"name" json:"name"`
	Description  string                        `yaml:"description" json:"description"`
	ProductID    string                        `yaml:"productId" json:"-"`
	Prices       map[model.PlanInterval]int64  `yaml:"prices" json:"-"`
	Features     []string                      `yaml:"features" json:"features"`
	ContactSales bool                          `yaml:"contactSales" json:"contactSales"`
	Display      map[model.PlanInterval]string `yaml:"-" json:"prices,omitempty"`
}

// Catalog is the set of purchasable plans.
type Catalog struct {
	Currency string
	plans    map[model.PlanType]*Plan
}

var planOrder = map[model.PlanType]int{
	model.PlanStarter:    0,
	model.PlanGold:       1,
	model.PlanPlatinum:   2,
	model.PlanEnterprise: 3,
}

// DefaultCatalog returns the built-in plans with product ids from config.
func DefaultCatalog(cfg config.StripeConfig) *Catalog {
	c := &Catalog{Currency: normalizeCurrency(cfg.Currency), plans: map[model.PlanType]*Plan{}}
	if c.Currency == "" {
		c.Currency = "usd"
	}

	c.add(&Plan{
		Type:        model.PlanStarter,
		Name:        "Starter",
		Description: "One will with guided AI drafting",
		ProductID:   cfg.ProductStarter,
		Prices: map[model.PlanInterval]int64{
			model.IntervalMonth:    1499,
			model.IntervalYear:     14999,
			model.IntervalLifetime: 29999,
		},
		Features: []string{"1 will", "AI assistant", "5 document uploads"},
	})
	c.add(&Plan{
		Type:        model.PlanGold,
		Name:        "Gold",
		Description: "Unlimited wills with video testimony",
		ProductID:   cfg.ProductGold,
		Prices: map[model.PlanInterval]int64{
			model.IntervalMonth:    2999,
			model.IntervalYear:     29999,
			model.IntervalLifetime: 59999,
		},
		Features: []string{"Unlimited wills", "Video testimony", "Unlimited documents"},
	})
	c.add(&Plan{
		Type:        model.PlanPlatinum,
		Name:        "Platinum",
		Description: "Everything in Gold plus priority support",
		ProductID:   cfg.ProductPlatinum,
		Prices: map[model.PlanInterval]int64{
			model.IntervalMonth:    5499,
			model.IntervalYear:     54999,
			model.IntervalLifetime: 99999,
		},
		Features: []string{"Everything in Gold", "Priority support", "Legal review credits"},
	})
	c.add(&Plan{
		Type:         model.PlanEnterprise,
		Name:         "Enterprise",
		Description:  "Custom deployments for firms and organisations",
		Features:     []string{"Custom onboarding", "Dedicated account manager"},
		ContactSales: true,
	})
	return c
}

type planFile struct {
	Currency string `yaml:"currency"`
	Plans    []Plan `yaml:"plans"`
}

// LoadCatalog starts from DefaultCatalog and applies overrides from a YAML
// file when path is set.
func LoadCatalog(path string, cfg config.StripeConfig) (*Catalog, error) {
	c := DefaultCatalog(cfg)
	if path == "" {
		return c, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plans file: %w", err)
	}
	if err := c.Apply(raw); err != nil {
		return nil, err
	}
	return c, nil
}

// normalizeCurrency lower-cases an ISO code the way the provider reports it.
func normalizeCurrency(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Apply merges a YAML document into the catalog. Only fields present in the
// document replace the defaults.
func (c *Catalog) Apply(raw []byte) error {
	var pf planFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return fmt.Errorf("parse plans file: %w", err)
	}
	if cur := normalizeCurrency(pf.Currency); cur != "" {
		c.Currency = cur
	}

	for _, override := range pf.Plans {
		if _, ok := planOrder[override.Type]; !ok {
			return fmt.Errorf("plans file: unknown plan type %q", override.Type)
		}
		p, ok := c.plans[override.Type]
		if !ok {
			p = &Plan{Type: override.Type}
			c.add(p)
		}
		if override.Name != "" {
			p.Name = override.Name
		}
		if override.Description != "" {
			p.Description = override.Description
		}
		if override.ProductID != "" {
			p.ProductID = override.ProductID
		}
		if len(override.Features) > 0 {
			p.Features = override.Features
		}
		for interval, amount := range override.Prices {
			if p.Prices == nil {
				p.Prices = map[model.PlanInterval]int64{}
			}
			p.Prices[interval] = amount
		}
		p.ContactSales = p.ContactSales || override.ContactSales
	}
	return nil
}

func (c *Catalog) add(p *Plan) {
	c.plans[p.Type] = p
}

// Plans returns every plan in display order with formatted prices.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		cp := *p
		cp.Display = make(map[model.PlanInterval]string, len(p.Prices))
		for interval, amount := range p.Prices {
			cp.Display[interval] = FormatAmount(amount)
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return planOrder[out[i].Type] < planOrder[out[j].Type] })
	return out
}

// Get returns a plan by type.
func (c *Catalog) Get(t model.PlanType) (*Plan, error) {
	p, ok := c.plans[t]
	if !ok {
		return nil, apperrors.ErrUnknownPlan
	}
	return p, nil
}

// Resolve finds the product and amount for a purchasable plan and interval.
func (c *Catalog) Resolve(t model.PlanType, interval model.PlanInterval) (productID string, amount int64, err error) {
	p, err := c.Get(t)
	if err != nil {
		return "", 0, err
	}
	if p.ContactSales {
		return "", 0, apperrors.ErrEnterprisePlan
	}
	amount, ok := p.Prices[interval]
	if !ok {
		return "", 0, apperrors.ErrUnknownPlan
	}
	if p.ProductID == "" {
		return "", 0, apperrors.ErrUnknownProduct
	}
	return p.ProductID, amount, nil
}

// PlanForProduct maps a product id back to its plan type.
func (c *Catalog) PlanForProduct(productID string) (model.PlanType, bool) {
	for _, p := range c.plans {
		if p.ProductID != "" && p.ProductID == productID {
			return p.Type, true
		}
	}
	return "", false
}

// FormatAmount renders minor units as a decimal string, e.g. 1499 -> "14.99".
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
