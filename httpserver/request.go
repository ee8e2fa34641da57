package httpserver

import (
	"contactbook/contact"
)

// ContactRequest is the body of POST /contact and both PUT routes. The
// by-name PUT ignores the name fields but still requires them, as the
// stored contact keeps its names. Only a missing or null email address is
// absent; an empty string fails the emailaddr rule.
type ContactRequest struct {
	FirstName    string  `json:"firstName" validate:"required,min=2"`
	LastName     string  `json:"lastName" validate:"required,min=2"`
	MobileNumber string  `json:"mobileNumber" validate:"required,len=11"`
	EmailAddress *string `json:"emailAddress" validate:"omitnil,emailaddr"`
	DateOfBirth  string  `json:"dateOfBirth" validate:"omitempty,isodate"`
}

func (r ContactRequest) ToContact() contact.Contact {
	c := contact.Contact{
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		MobileNumber: r.MobileNumber,
	}
	if r.EmailAddress != nil {
		c.EmailAddress = *r.EmailAddress
	}
	if r.DateOfBirth != "" {
		// already checked by the isodate rule
		c.DateOfBirth, _ = contact.ParseDate(r.DateOfBirth)
	}
	return c
}
