// Package ledger prices a week of menu selections and turns them into a draft
// order whose total is what the payer is charged.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

const dateLayout = "2006-01-02"

// Prices is the per-item price for one user type, in CLP.
type Prices struct {
	Almuerzo int64 `mapstructure:"almuerzo"`
	Colacion int64 `mapstructure:"colacion"`
}

// PriceTable keys prices by user type.
type PriceTable map[domain.UserType]Prices

// DefaultPrices is used when the catalog file has no price table.
func DefaultPrices() PriceTable {
	return PriceTable{
		domain.UserTypeApoderado:   {Almuerzo: 5500, Colacion: 2000},
		domain.UserTypeFuncionario: {Almuerzo: 4500, Colacion: 1500},
	}
}

// Selection is one client-side choice: a day, optionally a dependent, and the
// menu codes picked for that day. Either code may be empty, not both.
type Selection struct {
	Date      string `json:"date" binding:"required"`
	Dependent string `json:"dependent,omitempty"`
	Almuerzo  string `json:"almuerzo,omitempty"`
	Colacion  string `json:"colacion,omitempty"`
}

// Summary is the priced week.
type Summary struct {
	WeekStart  string                    `json:"weekStart"`
	Days       []domain.DaySelection     `json:"days"`
	ByCategory map[domain.Category]int64 `json:"byCategory"`
	ByPayer    map[string]int64          `json:"byPayer"`
	Total      int64                     `json:"total"`
}

// SelfPayer keys the account holder's own meals in Summary.ByPayer.
const SelfPayer = "self"

// Ledger prices selections. It holds no per-user state and is safe for
// concurrent use.
type Ledger struct {
	prices PriceTable
	newID  func() string
}

// New creates a ledger over prices.
func New(prices PriceTable) *Ledger {
	if len(prices) == 0 {
		prices = DefaultPrices()
	}
	return &Ledger{prices: prices, newID: uuid.NewString}
}

// Price validates and totals selections for the week starting on weekStart.
// Any non-empty mix of lunch and snack on any subset of Monday to Friday is
// accepted.
func (l *Ledger) Price(userType domain.UserType, weekStart string, selections []Selection) (*Summary, error) {
	prices, ok := l.prices[userType]
	if !ok {
		return nil, invalid(fmt.Sprintf("unknown user type %q", userType))
	}
	monday, err := time.Parse(dateLayout, weekStart)
	if err != nil {
		return nil, invalid("weekStart must be a date in YYYY-MM-DD format")
	}
	if monday.Weekday() != time.Monday {
		return nil, invalid("weekStart must be a Monday")
	}
	if len(selections) == 0 {
		return nil, invalid("at least one selection is required")
	}

	sum := &Summary{
		WeekStart:  weekStart,
		ByCategory: map[domain.Category]int64{domain.CategoryAlmuerzo: 0, domain.CategoryColacion: 0},
		ByPayer:    map[string]int64{},
	}
	seen := make(map[string]bool, len(selections))
	for _, s := range selections {
		day, err := l.priceDay(userType, prices, monday, s)
		if err != nil {
			return nil, err
		}
		key := day.Date + "/" + day.Dependent
		if seen[key] {
			return nil, invalid(fmt.Sprintf("duplicate selection for %s", describe(day)))
		}
		seen[key] = true

		if day.Almuerzo != nil {
			sum.ByCategory[domain.CategoryAlmuerzo] += day.Almuerzo.Price
		}
		if day.Colacion != nil {
			sum.ByCategory[domain.CategoryColacion] += day.Colacion.Price
		}
		payer := day.Dependent
		if payer == "" {
			payer = SelfPayer
		}
		sum.ByPayer[payer] += day.Subtotal()
		sum.Total += day.Subtotal()
		sum.Days = append(sum.Days, day)
	}

	sort.Slice(sum.Days, func(i, j int) bool {
		if sum.Days[i].Date != sum.Days[j].Date {
			return sum.Days[i].Date < sum.Days[j].Date
		}
		return sum.Days[i].Dependent < sum.Days[j].Dependent
	})
	return sum, nil
}

func (l *Ledger) priceDay(userType domain.UserType, prices Prices, monday time.Time, s Selection) (domain.DaySelection, error) {
	day := domain.DaySelection{
		Date:      strings.TrimSpace(s.Date),
		Dependent: strings.TrimSpace(s.Dependent),
	}
	date, err := time.Parse(dateLayout, day.Date)
	if err != nil {
		return day, invalid(fmt.Sprintf("selection date %q must be in YYYY-MM-DD format", s.Date))
	}
	offset := int(date.Sub(monday).Hours() / 24)
	if offset < 0 || offset > 4 {
		return day, invalid(fmt.Sprintf("selection date %s is outside the week of %s", day.Date, monday.Format(dateLayout)))
	}
	if day.Dependent != "" && userType == domain.UserTypeFuncionario {
		return day, invalid("funcionario accounts order for themselves only")
	}

	almuerzo := strings.TrimSpace(s.Almuerzo)
	colacion := strings.TrimSpace(s.Colacion)
	if almuerzo == "" && colacion == "" {
		return day, invalid(fmt.Sprintf("selection for %s has no items", describe(day)))
	}
	if almuerzo != "" {
		if prices.Almuerzo <= 0 {
			return day, invalid(fmt.Sprintf("almuerzo is not offered to %s", userType))
		}
		day.Almuerzo = &domain.LineItem{Code: almuerzo, Price: prices.Almuerzo}
	}
	if colacion != "" {
		if prices.Colacion <= 0 {
			return day, invalid(fmt.Sprintf("colacion is not offered to %s", userType))
		}
		day.Colacion = &domain.LineItem{Code: colacion, Price: prices.Colacion}
	}
	return day, nil
}

// BuildOrder prices selections and returns a draft order carrying the total.
func (l *Ledger) BuildOrder(userID string, userType domain.UserType, weekStart string, selections []Selection) (*domain.Order, *Summary, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil, invalid("userId is required")
	}
	sum, err := l.Price(userType, weekStart, selections)
	if err != nil {
		return nil, nil, err
	}
	order := &domain.Order{
		ID:         l.newID(),
		UserID:     strings.TrimSpace(userID),
		UserType:   userType,
		WeekStart:  weekStart,
		Selections: sum.Days,
		Total:      sum.Total,
		Status:     domain.StatusDraft,
	}
	return order, sum, nil
}

func describe(d domain.DaySelection) string {
	if d.Dependent == "" {
		return d.Date
	}
	return d.Date + " (" + d.Dependent + ")"
}

func invalid(msg string) error {
	return domain.NewServiceError(domain.ErrValidation, msg, "INVALID_SELECTION")
}
