package contact

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"contactbook/errs"
)

const (
	minNameLength      = 2
	mobileNumberLength = 11
)

var emailPattern = regexp.MustCompile(`^.+@.+\.[a-z]+$`)

var (
	ErrInvalidFirstName    = errs.Errorf(errs.EINVALID, "First name must be provided.")
	ErrInvalidLastName     = errs.Errorf(errs.EINVALID, "Last name must be provided.")
	ErrInvalidMobileNumber = errs.Errorf(errs.EINVALID, "Mobile number must be 11-digit long (when dialling within the UK).")
	ErrInvalidEmailAddress = errs.Errorf(errs.EINVALID, "Email address is invalid.")
)

// Sentinel errors returned by Repository implementations.
var (
	ErrContactNotFound = errors.New("contact: not found")
	ErrNameTaken       = errors.New("contact: name pair already taken")
)

type Contact struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	MobileNumber string `json:"mobileNumber"`
	EmailAddress string `json:"emailAddress,omitempty"`
	DateOfBirth  *Date  `json:"dateOfBirth"`
}

func (c Contact) Validate() error {
	if utf8.RuneCountInString(c.FirstName) < minNameLength {
		return ErrInvalidFirstName
	}

	if utf8.RuneCountInString(c.LastName) < minNameLength {
		return ErrInvalidLastName
	}

	if utf8.RuneCountInString(c.MobileNumber) != mobileNumberLength {
		return ErrInvalidMobileNumber
	}

	if c.EmailAddress != "" && !ValidEmailAddress(c.EmailAddress) {
		return ErrInvalidEmailAddress
	}

	return nil
}

// ValidEmailAddress reports whether s has the local@domain.tld shape.
func ValidEmailAddress(s string) bool {
	return emailPattern.MatchString(s)
}

// String renders missing values as null, so an unsaved contact reads id=null.
func (c Contact) String() string {
	id, email, dob := "null", "null", "null"
	if c.ID != 0 {
		id = strconv.FormatInt(c.ID, 10)
	}
	if c.EmailAddress != "" {
		email = c.EmailAddress
	}
	if c.DateOfBirth != nil {
		dob = c.DateOfBirth.String()
	}
	return fmt.Sprintf("Contact [id=%s, firstName=%s, lastName=%s, mobileNumber=%s, emailAddress=%s, dateOfBirth=%s]",
		id, c.FirstName, c.LastName, c.MobileNumber, email, dob)
}

// Date is a calendar date without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const DateLayout = time.DateOnly

func NewDate(year int, month time.Month, day int) *Date {
	return &Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (*Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return DateOf(t), nil
}

// DateOf returns the date in which t occurs, in t's location.
func DateOf(t time.Time) *Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(data []byte) error {
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}
