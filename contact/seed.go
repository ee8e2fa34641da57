package contact

import (
	"context"
	"errors"
	"time"
)

// DevelopmentContacts are loaded into an empty book for local development.
func DevelopmentContacts() []Contact {
	return []Contact{
		{
			FirstName:    "Kate",
			LastName:     "Beckett",
			MobileNumber: "07777777777",
			EmailAddress: "kate.beckett@mycoolmail.com",
			DateOfBirth:  NewDate(1993, time.April, 6),
		},
		{
			FirstName:    "Richard",
			LastName:     "Castle",
			MobileNumber: "07777777767",
			EmailAddress: "richard.castle@mygreatmail.com",
			DateOfBirth:  NewDate(1992, time.March, 5),
		},
		{
			FirstName:    "Kevin",
			LastName:     "Ryan",
			MobileNumber: "07777777757",
			EmailAddress: "kevin.ryan@mygoodmail.com",
			DateOfBirth:  NewDate(1991, time.February, 4),
		},
	}
}

// Seed inserts every contact whose name pair is not stored yet and returns
// the number inserted. Invalid contacts abort the seed.
func Seed(ctx context.Context, r Repository, contacts []Contact) (int, error) {
	inserted := 0
	for _, c := range contacts {
		c.ID = 0
		if err := c.Validate(); err != nil {
			return inserted, err
		}
		_, err := r.CreateContact(ctx, c)
		if errors.Is(err, ErrNameTaken) {
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
