package contact

import (
	"context"
	"errors"

	"contactbook/errs"
)

type Service interface {
	FetchAll(ctx context.Context) ([]Contact, error)
	FetchByID(ctx context.Context, id int64) (Contact, error)
	FetchByLastNameAndFirstName(ctx context.Context, lastName, firstName string) (*Contact, error)
	Generate(ctx context.Context, c Contact) (Contact, error)
	EditByID(ctx context.Context, id int64, patch Contact) (Contact, error)
	EditByLastNameAndFirstName(ctx context.Context, lastName, firstName string, patch Contact) (Contact, error)
	Remove(ctx context.Context, id int64) error
	RemoveAll(ctx context.Context) error
}

// Repository is the storage port. Every method is atomic on its own:
// CreateContact checks the name pair and inserts in one step, and the update
// methods run the mutate callback between load and save of the same unit.
// When several contacts share a name pair, name-based methods address the
// one with the lowest ID.
type Repository interface {
	AllContacts(ctx context.Context) ([]Contact, error)
	GetByID(ctx context.Context, id int64) (Contact, error)
	GetByName(ctx context.Context, lastName, firstName string) (Contact, error)
	CreateContact(ctx context.Context, c Contact) (Contact, error)
	UpdateByID(ctx context.Context, id int64, mutate func(*Contact)) (Contact, error)
	UpdateByName(ctx context.Context, lastName, firstName string, mutate func(*Contact)) (Contact, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
}

type Usecase struct {
	r Repository
}

func NewUsecase(r Repository) *Usecase {
	return &Usecase{r: r}
}

func (uc *Usecase) FetchAll(ctx context.Context) ([]Contact, error) {
	return uc.r.AllContacts(ctx)
}

func (uc *Usecase) FetchByID(ctx context.Context, id int64) (Contact, error) {
	c, err := uc.r.GetByID(ctx, id)
	if errors.Is(err, ErrContactNotFound) {
		return Contact{}, errs.Errorf(errs.ENOTFOUND, "Cannot find contact with ID %d", id)
	}
	return c, err
}

// FetchByLastNameAndFirstName returns nil without an error when no contact
// matches, unlike FetchByID.
func (uc *Usecase) FetchByLastNameAndFirstName(ctx context.Context, lastName, firstName string) (*Contact, error) {
	c, err := uc.r.GetByName(ctx, lastName, firstName)
	if errors.Is(err, ErrContactNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (uc *Usecase) Generate(ctx context.Context, c Contact) (Contact, error) {
	c.ID = 0
	if err := c.Validate(); err != nil {
		return Contact{}, err
	}

	created, err := uc.r.CreateContact(ctx, c)
	if errors.Is(err, ErrNameTaken) {
		return Contact{}, errs.Errorf(errs.EDUPLICATE, "Contact %s is a duplicate", c)
	}
	return created, err
}

func (uc *Usecase) EditByID(ctx context.Context, id int64, patch Contact) (Contact, error) {
	if err := patch.Validate(); err != nil {
		return Contact{}, err
	}

	updated, err := uc.r.UpdateByID(ctx, id, func(c *Contact) {
		c.FirstName = patch.FirstName
		c.LastName = patch.LastName
		c.MobileNumber = patch.MobileNumber
		c.EmailAddress = patch.EmailAddress
		c.DateOfBirth = patch.DateOfBirth
	})
	if errors.Is(err, ErrContactNotFound) {
		return Contact{}, errs.Errorf(errs.ENOTFOUND, "Cannot edit contact with ID %d", id)
	}
	return updated, err
}

func (uc *Usecase) EditByLastNameAndFirstName(ctx context.Context, lastName, firstName string, patch Contact) (Contact, error) {
	if err := patch.Validate(); err != nil {
		return Contact{}, err
	}

	updated, err := uc.r.UpdateByName(ctx, lastName, firstName, func(c *Contact) {
		c.MobileNumber = patch.MobileNumber
		c.EmailAddress = patch.EmailAddress
		c.DateOfBirth = patch.DateOfBirth
	})
	if errors.Is(err, ErrContactNotFound) {
		return Contact{}, errs.Errorf(errs.ENOTFOUND,
			"Cannot edit contact with first name %s and last name %s", firstName, lastName)
	}
	return updated, err
}

func (uc *Usecase) Remove(ctx context.Context, id int64) error {
	err := uc.r.DeleteByID(ctx, id)
	if errors.Is(err, ErrContactNotFound) {
		return errs.Errorf(errs.ENOTFOUND, "Cannot remove non-existent contact with ID %d", id)
	}
	return err
}

func (uc *Usecase) RemoveAll(ctx context.Context) error {
	return uc.r.DeleteAll(ctx)
}
