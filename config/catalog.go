package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/ledger"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/status"
)

// Catalog is the operator-editable data: extra status synonyms and the price
// table. Example:
//
//	status_tokens:
//	  success: [ABONADO]
//	  failure: [REVERSADO]
//	prices:
//	  apoderado: {almuerzo: 5500, colacion: 2000}
//	  funcionario: {almuerzo: 4500, colacion: 1500}
type Catalog struct {
	StatusTokens status.TokenSets         `mapstructure:"status_tokens"`
	Prices       map[string]ledger.Prices `mapstructure:"prices"`
}

// LoadCatalog reads path, or returns the built-in catalog for "". File tokens
// are added to the defaults; file prices replace the default table.
func LoadCatalog(path string) (*Catalog, error) {
	cat := &Catalog{}
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		if err := v.Unmarshal(cat); err != nil {
			return nil, fmt.Errorf("decode catalog %s: %w", path, err)
		}
	}

	defaults := status.DefaultTokenSets()
	cat.StatusTokens = status.TokenSets{
		Success: append(defaults.Success, cat.StatusTokens.Success...),
		Failure: append(defaults.Failure, cat.StatusTokens.Failure...),
		Pending: append(defaults.Pending, cat.StatusTokens.Pending...),
	}
	return cat, nil
}

// Normalizer builds the status normalizer. Overlapping token sets are a
// configuration error.
func (c *Catalog) Normalizer() (*status.Normalizer, error) {
	return status.NewNormalizer(c.StatusTokens)
}

// PriceTable returns the configured prices, or the defaults when none are set.
func (c *Catalog) PriceTable() (ledger.PriceTable, error) {
	if len(c.Prices) == 0 {
		return ledger.DefaultPrices(), nil
	}
	table := make(ledger.PriceTable, len(c.Prices))
	for name, p := range c.Prices {
		ut := domain.UserType(name)
		if ut != domain.UserTypeApoderado && ut != domain.UserTypeFuncionario {
			return nil, domain.NewServiceError(domain.ErrConfiguration,
				fmt.Sprintf("catalog prices: unknown user type %q", name), "CATALOG_INVALID")
		}
		if p.Almuerzo < 0 || p.Colacion < 0 {
			return nil, domain.NewServiceError(domain.ErrConfiguration,
				fmt.Sprintf("catalog prices: negative price for %s", name), "CATALOG_INVALID")
		}
		table[ut] = p
	}
	return table, nil
}
