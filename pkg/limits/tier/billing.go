package tier

import "fmt"

type tierInfo struct {
	name    string
	price   int
	upgrade string
}

var catalog = map[Tier]tierInfo{
	Free:    {name: "Free", price: 0, upgrade: "Upgrade to Starter to unlock more AI generations and platforms"},
	Starter: {name: "Starter", price: 19, upgrade: "Upgrade to Pro for unlimited platforms and Canva integration"},
	Pro:     {name: "Pro", price: 49, upgrade: "Upgrade to Agency for unlimited everything and white-label options"},
	Agency:  {name: "Agency", price: 149, upgrade: "You are on the highest tier!"},
}

// DisplayName returns the human-readable tier name.
func DisplayName(t Tier) (string, error) {
	info, ok := catalog[t]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	return info.name, nil
}

// MonthlyPrice returns the tier's monthly price in whole US dollars.
func MonthlyPrice(t Tier) (int, error) {
	info, ok := catalog[t]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	return info.price, nil
}

// UpgradeMessage returns the upgrade hint shown to users of tier t.
func UpgradeMessage(t Tier) (string, error) {
	info, ok := catalog[t]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	return info.upgrade, nil
}

// NextTier returns the tier above t. The second result is false for agency.
func NextTier(t Tier) (Tier, bool) {
	switch t {
	case Free:
		return Starter, true
	case Starter:
		return Pro, true
	case Pro:
		return Agency, true
	}
	return "", false
}

// PriceCatalog maps billing price identifiers to tiers.
type PriceCatalog struct {
	byPriceID map[string]Tier
}

// NewPriceCatalog builds a catalog from tier → price id. Empty price ids
// are ignored so that unconfigured tiers never match.
func NewPriceCatalog(priceIDs map[Tier]string) *PriceCatalog {
	c := &PriceCatalog{byPriceID: make(map[string]Tier, len(priceIDs))}
	for t, id := range priceIDs {
		if id == "" || !t.Valid() {
			continue
		}
		c.byPriceID[id] = t
	}
	return c
}

// TierForPriceID resolves the tier a subscription price belongs to. A price
// that belongs to no paid tier resolves to free, which is what a customer
// without a paid subscription has.
func (c *PriceCatalog) TierForPriceID(priceID string) Tier {
	if t, ok := c.byPriceID[priceID]; ok {
		return t
	}
	return Free
}

// PriceID returns the configured price id of a tier.
func (c *PriceCatalog) PriceID(t Tier) (string, bool) {
	for id, candidate := range c.byPriceID {
		if candidate == t {
			return id, true
		}
	}
	return "", false
}
