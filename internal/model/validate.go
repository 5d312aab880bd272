package model

import (
	"errors"
	"fmt"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/and161185/receivables-client/internal/errs"
)

// KnownRoles lists roles accepted by UpdateUser.
var KnownRoles = []string{RoleAdmin, RoleAnalyst, RoleManager}

// Validate checks the login payload before it leaves the client.
func (c Credentials) Validate() error {
	return wrapValidation(validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Password, validation.Required),
	))
}

// Validate checks the registration payload before it leaves the client.
func (r Registration) Validate() error {
	return wrapValidation(validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	))
}

// Validate checks a user update.
func (u UpdateUser) Validate() error {
	return wrapValidation(validation.ValidateStruct(&u,
		validation.Field(&u.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&u.Roles, validation.By(knownRoles)),
	))
}

// Validate checks a customer update.
func (c UpdateCustomer) Validate() error {
	return wrapValidation(validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&c.ContactInfo, validation.Length(0, 1000)),
	))
}

// Validate checks a new debt-work record.
func (d NewDebtWork) Validate() error {
	return wrapValidation(validation.ValidateStruct(&d,
		validation.Field(&d.ActionType, validation.Required, validation.In(toAny(DebtWorkActionTypes)...)),
		validation.Field(&d.Result, validation.Required, validation.In(toAny(DebtWorkResults)...)),
		validation.Field(&d.ActionDate, validation.Required),
	))
}

func knownRoles(value interface{}) error {
	roles, _ := value.([]string)
	for _, r := range roles {
		if !slices.Contains(KnownRoles, r) {
			return errors.New("unknown role " + r)
		}
	}
	return nil
}

func toAny(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", errs.ErrValidation, err)
}
