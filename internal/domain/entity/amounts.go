package entity

import (
	"github.com/shopspring/decimal"
)

// Amounts is the payment-mode breakdown shared by summaries, entries and
// posted records.
type Amounts struct {
	Cash        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"cash"`
	Fonepay     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"fonepay"`
	Cheque      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"cheque"`
	BankDeposit decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"bank_deposit"`
	Discount    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"discount"`
}

// Total is the sum of the five modes. Discount counts towards the total
// because it settles part of the party's balance.
func (a Amounts) Total() decimal.Decimal {
	return a.Cash.Add(a.Fonepay).Add(a.Cheque).Add(a.BankDeposit).Add(a.Discount)
}

// Add returns the field-wise sum
func (a Amounts) Add(b Amounts) Amounts {
	return Amounts{
		Cash:        a.Cash.Add(b.Cash),
		Fonepay:     a.Fonepay.Add(b.Fonepay),
		Cheque:      a.Cheque.Add(b.Cheque),
		BankDeposit: a.BankDeposit.Add(b.BankDeposit),
		Discount:    a.Discount.Add(b.Discount),
	}
}

// Sub returns the field-wise difference a - b
func (a Amounts) Sub(b Amounts) Amounts {
	return Amounts{
		Cash:        a.Cash.Sub(b.Cash),
		Fonepay:     a.Fonepay.Sub(b.Fonepay),
		Cheque:      a.Cheque.Sub(b.Cheque),
		BankDeposit: a.BankDeposit.Sub(b.BankDeposit),
		Discount:    a.Discount.Sub(b.Discount),
	}
}

// HasNegative reports the first negative mode, if any
func (a Amounts) HasNegative() (string, bool) {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"cash", a.Cash},
		{"fonepay", a.Fonepay},
		{"cheque", a.Cheque},
		{"bank_deposit", a.BankDeposit},
		{"discount", a.Discount},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return f.name, true
		}
	}
	return "", false
}

// IsZero is true when every mode is zero
func (a Amounts) IsZero() bool {
	return a.Cash.IsZero() && a.Fonepay.IsZero() && a.Cheque.IsZero() &&
		a.BankDeposit.IsZero() && a.Discount.IsZero()
}
