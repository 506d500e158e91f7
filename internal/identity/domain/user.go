package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// User is a registered customer or administrator.
type User struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	PasswordHash   string          `json:"-"`
	Role           Role            `json:"role"`
	Phone          string          `json:"phone"`
	EmailVerified  bool            `json:"email_verified"`
	Addresses      []Address       `json:"addresses"`
	PaymentMethods []PaymentMethod `json:"payment_methods"`
	RewardPoints   int             `json:"reward_points"`
	UsedCoupons    []string        `json:"used_coupons"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NormalizeEmail lower-cases and trims an address and checks its syntax.
func NormalizeEmail(value string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(value))
	if email == "" {
		return "", errors.New("email is required")
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return "", errors.New("email must be valid")
	}
	return email, nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > 72 {
		return errors.New("password must be at most 72 bytes")
	}
	return nil
}

// HasUsedCoupon reports whether code is in the user's used set.
func (u User) HasUsedCoupon(code string) bool {
	for _, used := range u.UsedCoupons {
		if strings.EqualFold(used, code) {
			return true
		}
	}
	return false
}

// DefaultAddress returns the address flagged as default, if any.
func (u User) DefaultAddress() (Address, bool) {
	for _, a := range u.Addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return Address{}, false
}

type Address struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"is_default"`
}

func (a Address) Validate() error {
	switch {
	case strings.TrimSpace(a.Line1) == "":
		return errors.New("address line1 is required")
	case strings.TrimSpace(a.City) == "":
		return errors.New("address city is required")
	case strings.TrimSpace(a.PostalCode) == "":
		return errors.New("address postal_code is required")
	case strings.TrimSpace(a.Country) == "":
		return errors.New("address country is required")
	}
	return nil
}

// SaveAddress inserts or replaces addr. The first address, or any address
// saved with IsDefault, becomes the single default.
func (u *User) SaveAddress(addr Address) {
	if len(u.Addresses) == 0 {
		addr.IsDefault = true
	}

	replaced := false
	for i := range u.Addresses {
		if u.Addresses[i].ID == addr.ID {
			u.Addresses[i] = addr
			replaced = true
		}
	}
	if !replaced {
		u.Addresses = append(u.Addresses, addr)
	}

	if addr.IsDefault {
		for i := range u.Addresses {
			u.Addresses[i].IsDefault = u.Addresses[i].ID == addr.ID
		}
	}
}

// RemoveAddress deletes the address with id and promotes the first remaining
// address when the default was removed.
func (u *User) RemoveAddress(id string) bool {
	for i, a := range u.Addresses {
		if a.ID != id {
			continue
		}
		u.Addresses = append(u.Addresses[:i], u.Addresses[i+1:]...)
		if a.IsDefault && len(u.Addresses) > 0 {
			u.Addresses[0].IsDefault = true
		}
		return true
	}
	return false
}

// PaymentMethod is a display snapshot of a saved card. Full card numbers are never stored.
type PaymentMethod struct {
	ID         string `json:"id"`
	Brand      string `json:"brand"`
	Last4      string `json:"last4"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	HolderName string `json:"holder_name"`
}

func (p PaymentMethod) Validate(now time.Time) error {
	if strings.TrimSpace(p.Brand) == "" {
		return errors.New("brand is required")
	}
	if len(p.Last4) != 4 || strings.IndexFunc(p.Last4, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
		return errors.New("last4 must be exactly 4 digits")
	}
	if p.ExpMonth < 1 || p.ExpMonth > 12 {
		return errors.New("exp_month must be between 1 and 12")
	}
	if p.ExpYear < now.Year() || (p.ExpYear == now.Year() && p.ExpMonth < int(now.Month())) {
		return errors.New("card has expired")
	}
	return nil
}

func (u *User) RemovePaymentMethod(id string) bool {
	for i, p := range u.PaymentMethods {
		if p.ID == id {
			u.PaymentMethods = append(u.PaymentMethods[:i], u.PaymentMethods[i+1:]...)
			return true
		}
	}
	return false
}
