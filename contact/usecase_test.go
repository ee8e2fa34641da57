// nolint: funlen
package contact_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"contactbook/contact"
	"contactbook/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) AllContacts(ctx context.Context) ([]contact.Contact, error) {
	args := m.Called(ctx)
	return args.Get(0).([]contact.Contact), args.Error(1)
}

func (m *MockContactRepository) GetByID(ctx context.Context, id int64) (contact.Contact, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(contact.Contact), args.Error(1)
}

func (m *MockContactRepository) GetByName(ctx context.Context, lastName, firstName string) (contact.Contact, error) {
	args := m.Called(ctx, lastName, firstName)
	return args.Get(0).(contact.Contact), args.Error(1)
}

func (m *MockContactRepository) CreateContact(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(contact.Contact), args.Error(1)
}

// UpdateByID applies mutate to the stored contact the expectation returns.
func (m *MockContactRepository) UpdateByID(ctx context.Context, id int64, mutate func(*contact.Contact)) (contact.Contact, error) {
	args := m.Called(ctx, id)
	if err := args.Error(1); err != nil {
		return contact.Contact{}, err
	}
	stored := args.Get(0).(contact.Contact)
	mutate(&stored)
	return stored, nil
}

func (m *MockContactRepository) UpdateByName(ctx context.Context, lastName, firstName string, mutate func(*contact.Contact)) (contact.Contact, error) {
	args := m.Called(ctx, lastName, firstName)
	if err := args.Error(1); err != nil {
		return contact.Contact{}, err
	}
	stored := args.Get(0).(contact.Contact)
	mutate(&stored)
	return stored, nil
}

func (m *MockContactRepository) DeleteByID(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockContactRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func kateBeckett() contact.Contact {
	return contact.Contact{
		ID:           1,
		FirstName:    "Kate",
		LastName:     "Beckett",
		MobileNumber: "07777777777",
		EmailAddress: "kate.beckett@mycoolmail.com",
		DateOfBirth:  contact.NewDate(1993, time.April, 6),
	}
}

func richardFeynman() contact.Contact {
	return contact.Contact{
		FirstName:    "Richard",
		LastName:     "Feynman",
		MobileNumber: "07777777757",
		EmailAddress: "rick.feynman@myquantummail.com",
		DateOfBirth:  contact.NewDate(1960, time.January, 1),
	}
}

func TestFetchAll(t *testing.T) {
	r := new(MockContactRepository)
	uc := contact.NewUsecase(r)

	t.Run("should return every stored contact", func(t *testing.T) {
		contacts := []contact.Contact{kateBeckett(), {ID: 2, FirstName: "Richard", LastName: "Castle", MobileNumber: "07777777767"}}
		r.On("AllContacts", mock.Anything).Return(contacts, nil).Once()

		result, err := uc.FetchAll(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, contacts, result)
		r.AssertExpectations(t)
	})

	t.Run("should propagate storage failure", func(t *testing.T) {
		boom := errors.New("connection reset")
		r.On("AllContacts", mock.Anything).Return([]contact.Contact(nil), boom).Once()

		_, err := uc.FetchAll(context.Background())

		assert.ErrorIs(t, err, boom)
		r.AssertExpectations(t)
	})
}

func TestFetchByID(t *testing.T) {
	r := new(MockContactRepository)
	uc := contact.NewUsecase(r)

	t.Run("should return contact with matching id", func(t *testing.T) {
		r.On("GetByID", mock.Anything, int64(1)).Return(kateBeckett(), nil).Once()

		result, err := uc.FetchByID(context.Background(), 1)

		assert.NoError(t, err)
		assert.Equal(t, kateBeckett(), result)
		r.AssertExpectations(t)
	})

	t.Run("should fail with not found on unknown id", func(t *testing.T) {
		r.On("GetByID", mock.Anything, int64(55)).Return(contact.Contact{}, contact.ErrContactNotFound).Once()

		_, err := uc.FetchByID(context.Background(), 55)

		assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
		assert.Equal(t, "Cannot find contact with ID 55", errs.ErrorMessage(err))
		r.AssertExpectations(t)
	})
}

func TestFetchByLastNameAndFirstName(t *testing.T) {
	r := new(MockContactRepository)
	uc := contact.NewUsecase(r)

	t.Run("should return contact with matching name pair", func(t *testing.T) {
		r.On("GetByName", mock.Anything, "Beckett", "Kate").Return(kateBeckett(), nil).Once()

		result, err := uc.FetchByLastNameAndFirstName(context.Background(), "Beckett", "Kate")

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, kateBeckett(), *result)
		r.AssertExpectations(t)
	})

	t.Run("should return nil without error when no contact matches", func(t *testing.T) {
		r.On("GetByName", mock.Anything, "Beckett", "kate").Return(contact.Contact{}, contact.ErrContactNotFound).Once()

		result, err := uc.FetchByLastNameAndFirstName(context.Background(), "Beckett", "kate")

		assert.NoError(t, err)
		assert.Nil(t, result)
		r.AssertExpectations(t)
	})
}

func TestGenerate(t *testing.T) {
	r := new(MockContactRepository)
	uc := contact.NewUsecase(r)

	t.Run("should persist new contact and return it with id", func(t *testing.T) {
		candidate := richardFeynman()
		persisted := candidate
		persisted.ID = 4
		r.On("CreateContact", mock.Anything, candidate).Return(persisted, nil).Once()

		result, err := uc.Generate(context.Background(), candidate)

		assert.NoError(t, err)
		assert.Equal(t, persisted, result)
		r.AssertExpectations(t)
	})

	t.Run("should ignore caller supplied id", func(t *testing.T) {
		candidate := richardFeynman()
		candidate.ID = 42
		expected := richardFeynman()
		persisted := expected
		persisted.ID = 5
		r.On("CreateContact", mock.Anything, expected).Return(persisted, nil).Once()

		result, err := uc.Generate(context.Background(), candidate)

		assert.NoError(t, err)
		assert.Equal(t, int64(5), result.ID)
		r.AssertExpectations(t)
	})

	t.Run("should fail with duplicate when name pair exists", func(t *testing.T) {
		candidate := kateBeckett()
		candidate.ID = 0
		r.On("CreateContact", mock.Anything, candidate).Return(contact.Contact{}, contact.ErrNameTaken).Once()

		_, err := uc.Generate(context.Background(), candidate)

		assert.Equal(t, errs.EDUPLICATE, errs.ErrorCode(err))
		assert.Equal(t,
			"Contact Contact [id=null, firstName=Kate, lastName=Beckett, mobileNumber=07777777777, "+
				"emailAddress=kate.beckett@mycoolmail.com, dateOfBirth=1993-04-06] is a duplicate",
			errs.ErrorMessage(err))
		r.AssertExpectations(t)
	})

	t.Run("should fail on short first name", func(t *testing.T) {
		fresh := new(MockContactRepository)
		candidate := richardFeynman()
		candidate.FirstName = "R"

		_, err := contact.NewUsecase(fresh).Generate(context.Background(), candidate)

		assert.Equal(t, contact.ErrInvalidFirstName, err)
		fresh.AssertNotCalled(t, "CreateContact", mock.Anything, mock.Anything)
	})
}

func TestEditByID(t *testing.T) {
	r := new(MockContactRepository)
	uc := contact.NewUsecase(r)

	t.Run("should replace every field but the id", func(t *testing.T) {
		patch := richardFeynman()
		patch.ID = 99
		r.On("UpdateByID", mock.Anything, int64(1)).Return(kateBeckett(), nil).Once()

		result, err := uc.EditByID(context.Background(), 1, patch)

		expected := richardFeynman()
		expected.ID = 1
		assert.NoError(t, err)
		assert.Equal(t, expected, result)
		r.AssertExpectations(t)
	})

	t.Run("should update mobile number and keep names", func(t *testing.T) {
		patch := kateBeckett()
		patch.MobileNumber = "07777777778"
		r.On("UpdateByID", mock.Anything, int64(1)).Return(kateBeckett(), nil).Once()

		result, err := uc.EditByID(context.Background(), 1, patch)

		assert.NoError(t, err)
		assert.Equal(t, int64(1), result.ID)
		assert.Equal(t, "07777777778", result.MobileNumber)
		assert.Equal(t, "Kate", result.FirstName)
		assert.Equal(t, "Beckett", result.LastName)
		r.AssertExpectations(t)
	})

	t.Run("should fail with not found on unknown id", func(t *testing.T) {
		r.On("UpdateByID", mock.Anything, int64(55)).Return(contact.Contact{}, contact.ErrContactNotFound).Once()

		_, err := uc.EditByID(context.Background(), 55, richardFeynman())

		assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
		assert.Equal(t, "Cannot edit contact with ID 55", errs.ErrorMessage(err))
		r.AssertExpectations(t)
	})

	t.Run("should fail on invalid mobile number", func(t *testing.T) {
		patch := richardFeynman()
		patch.MobileNumber = "0777"
		fresh := new(MockContactRepository)

		_, err := contact.NewUsecase(fresh).EditByID(context.Background(), 1, patch)

		assert.Equal(t, contact.ErrInvalidMobileNumber, err)
		fresh.AssertNotCalled(t, "UpdateByID", mock.Anything, mock.Anything)
	})
}

func TestEditByLastNameAndFirstName(t *testing.T) {
	r := new(MockContactRepository)
	uc := contact.NewUsecase(r)

	t.Run("should replace details and keep id and names", func(t *testing.T) {
		patch := richardFeynman()
		r.On("UpdateByName", mock.Anything, "Beckett", "Kate").Return(kateBeckett(), nil).Once()

		result, err := uc.EditByLastNameAndFirstName(context.Background(), "Beckett", "Kate", patch)

		assert.NoError(t, err)
		assert.Equal(t, contact.Contact{
			ID:           1,
			FirstName:    "Kate",
			LastName:     "Beckett",
			MobileNumber: patch.MobileNumber,
			EmailAddress: patch.EmailAddress,
			DateOfBirth:  patch.DateOfBirth,
		}, result)
		r.AssertExpectations(t)
	})

	t.Run("should clear date of birth when patch omits it", func(t *testing.T) {
		patch := kateBeckett()
		patch.DateOfBirth = nil
		r.On("UpdateByName", mock.Anything, "Beckett", "Kate").Return(kateBeckett(), nil).Once()

		result, err := uc.EditByLastNameAndFirstName(context.Background(), "Beckett", "Kate", patch)

		assert.NoError(t, err)
		assert.Nil(t, result.DateOfBirth)
		r.AssertExpectations(t)
	})

	t.Run("should fail with not found on unknown name pair", func(t *testing.T) {
		r.On("UpdateByName", mock.Anything, "Feynman", "Richard").Return(contact.Contact{}, contact.ErrContactNotFound).Once()

		_, err := uc.EditByLastNameAndFirstName(context.Background(), "Feynman", "Richard", richardFeynman())

		assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
		assert.Equal(t, "Cannot edit contact with first name Richard and last name Feynman", errs.ErrorMessage(err))
		r.AssertExpectations(t)
	})
}

func TestRemove(t *testing.T) {
	r := new(MockContactRepository)
	uc := contact.NewUsecase(r)

	t.Run("should delete existing contact", func(t *testing.T) {
		r.On("DeleteByID", mock.Anything, int64(1)).Return(nil).Once()

		err := uc.Remove(context.Background(), 1)

		assert.NoError(t, err)
		r.AssertExpectations(t)
	})

	t.Run("should fail with not found on unknown id", func(t *testing.T) {
		r.On("DeleteByID", mock.Anything, int64(99)).Return(contact.ErrContactNotFound).Once()

		err := uc.Remove(context.Background(), 99)

		assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
		assert.Equal(t, "Cannot remove non-existent contact with ID 99", errs.ErrorMessage(err))
		r.AssertExpectations(t)
	})
}

func TestRemoveAll(t *testing.T) {
	r := new(MockContactRepository)
	uc := contact.NewUsecase(r)

	r.On("DeleteAll", mock.Anything).Return(nil).Once()

	err := uc.RemoveAll(context.Background())

	assert.NoError(t, err)
	r.AssertExpectations(t)
}
