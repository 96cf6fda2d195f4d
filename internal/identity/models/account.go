package models

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	dErrors "identitykit/pkg/domain-errors"
)

// Gender is the user gender as reported by the identity provider.
type Gender int

const (
	GenderUnspecified Gender = iota
	GenderFemale
	GenderMale
	GenderOther
)

// ParseGender maps a provider gender string to a Gender. Unknown values map
// to GenderUnspecified rather than failing: the account payload is
// provider-controlled and the field is informational.
func ParseGender(s string) Gender {
	switch strings.ToLower(s) {
	case "female":
		return GenderFemale
	case "male":
		return GenderMale
	case "other":
		return GenderOther
	default:
		return GenderUnspecified
	}
}

func (g Gender) String() string {
	switch g {
	case GenderFemale:
		return "female"
	case GenderMale:
		return "male"
	case GenderOther:
		return "other"
	default:
		return "unspecified"
	}
}

// Account holds the profile of the logged-in user. It is replaced wholesale
// on each successful refetch; validity is contingent on the session token
// remaining valid.
type Account struct {
	UID          string
	PublicUID    string
	DisplayName  string
	EmailAddress string
	FirstName    string
	LastName     string
	Gender       Gender
	Birthdate    *time.Time
	Verified     bool
}

// birthdateLayout is the date-only format used by the account endpoint.
const birthdateLayout = "2006-01-02"

type accountPayload struct {
	UID         string `json:"id"`
	PublicUID   string `json:"publicUid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Gender      string `json:"gender"`
	Birthdate   string `json:"birthdate"`
	Verified    bool   `json:"verified"`
}

// DecodeAccount parses the account endpoint JSON payload. A payload that does
// not decode, or with an unparseable birthdate, yields CodeInvalidData.
func DecodeAccount(r io.Reader) (*Account, error) {
	var payload accountPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidData, "decode account payload")
	}

	account := &Account{
		UID:          payload.UID,
		PublicUID:    payload.PublicUID,
		DisplayName:  payload.DisplayName,
		EmailAddress: payload.Email,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Gender:       ParseGender(payload.Gender),
		Verified:     payload.Verified,
	}
	if payload.Birthdate != "" {
		birthdate, err := time.Parse(birthdateLayout, payload.Birthdate)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidData, "parse account birthdate")
		}
		account.Birthdate = &birthdate
	}
	return account, nil
}
