// Package contacttest holds the behaviour every contact.Repository adapter
// has to satisfy. Adapters run it from their own tests:
//
//	contacttest.RepositoryContract{Subject: newRepository}.Test(t)
package contacttest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contactbook/contact"

	randomdata "github.com/Pallinder/go-randomdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RepositoryContract runs against a fresh, empty repository per subtest.
// Subject must return a store whose id assignment starts at 1.
type RepositoryContract struct {
	Subject func(testing.TB) contact.Repository
}

func (rc RepositoryContract) Test(t *testing.T) {
	t.Run("CreateContact", rc.testCreateContact)
	t.Run("GetByID", rc.testGetByID)
	t.Run("GetByName", rc.testGetByName)
	t.Run("UpdateByID", rc.testUpdateByID)
	t.Run("UpdateByName", rc.testUpdateByName)
	t.Run("DeleteByID", rc.testDeleteByID)
	t.Run("DeleteAll", rc.testDeleteAll)
	t.Run("Scenario", rc.testSeededScenario)
}

var fixtureSeq int64

// NewContact returns a valid contact with a name pair no other fixture uses.
func NewContact() contact.Contact {
	seq := atomic.AddInt64(&fixtureSeq, 1)
	return contact.Contact{
		FirstName:    randomdata.FirstName(randomdata.RandomGender),
		LastName:     fmt.Sprintf("%s-%d", randomdata.LastName(), seq),
		MobileNumber: fmt.Sprintf("07%09d", randomdata.Number(0, 999999999)),
		EmailAddress: randomdata.Email(),
		DateOfBirth: contact.NewDate(
			randomdata.Number(1950, 2005),
			time.Month(randomdata.Number(1, 13)),
			randomdata.Number(1, 29),
		),
	}
}

func mustCreate(t testing.TB, r contact.Repository, c contact.Contact) contact.Contact {
	t.Helper()
	created, err := r.CreateContact(context.Background(), c)
	require.NoError(t, err)
	return created
}

func (rc RepositoryContract) testCreateContact(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns increasing ids and stores every field", func(t *testing.T) {
		r := rc.Subject(t)
		first := NewContact()
		second := NewContact()
		second.EmailAddress = ""
		second.DateOfBirth = nil

		createdFirst := mustCreate(t, r, first)
		createdSecond := mustCreate(t, r, second)

		assert.Equal(t, int64(1), createdFirst.ID)
		assert.Equal(t, int64(2), createdSecond.ID)
		first.ID, second.ID = 1, 2
		assert.Equal(t, first, createdFirst)
		assert.Equal(t, second, createdSecond)

		all, err := r.AllContacts(ctx)
		require.NoError(t, err)
		assert.Equal(t, []contact.Contact{first, second}, all)
	})

	t.Run("rejects taken name pair and leaves storage unchanged", func(t *testing.T) {
		r := rc.Subject(t)
		existing := mustCreate(t, r, NewContact())
		candidate := NewContact()
		candidate.FirstName, candidate.LastName = existing.FirstName, existing.LastName

		_, err := r.CreateContact(ctx, candidate)

		assert.ErrorIs(t, err, contact.ErrNameTaken)
		all, err := r.AllContacts(ctx)
		require.NoError(t, err)
		assert.Equal(t, []contact.Contact{existing}, all)
	})

	t.Run("name pair comparison is case sensitive", func(t *testing.T) {
		r := rc.Subject(t)
		existing := mustCreate(t, r, NewContact())
		candidate := NewContact()
		candidate.FirstName, candidate.LastName = existing.FirstName+"x", existing.LastName

		_, err := r.CreateContact(ctx, candidate)

		assert.NoError(t, err)
	})

	t.Run("concurrent creates of one name pair store it once", func(t *testing.T) {
		r := rc.Subject(t)
		candidate := NewContact()
		const workers = 8

		var (
			wg      sync.WaitGroup
			created int64
			taken   int64
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := r.CreateContact(ctx, candidate)
				switch {
				case err == nil:
					atomic.AddInt64(&created, 1)
				case assert.ErrorIs(t, err, contact.ErrNameTaken):
					atomic.AddInt64(&taken, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), created)
		assert.Equal(t, int64(workers-1), taken)
		all, err := r.AllContacts(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func (rc RepositoryContract) testGetByID(t *testing.T) {
	ctx := context.Background()
	r := rc.Subject(t)
	created := mustCreate(t, r, NewContact())

	t.Run("returns stored contact", func(t *testing.T) {
		got, err := r.GetByID(ctx, created.ID)

		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("fails on unknown id", func(t *testing.T) {
		_, err := r.GetByID(ctx, created.ID+100)

		assert.ErrorIs(t, err, contact.ErrContactNotFound)
	})
}

func (rc RepositoryContract) testGetByName(t *testing.T) {
	ctx := context.Background()
	r := rc.Subject(t)
	created := mustCreate(t, r, NewContact())

	t.Run("returns stored contact", func(t *testing.T) {
		got, err := r.GetByName(ctx, created.LastName, created.FirstName)

		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("fails when arguments are swapped", func(t *testing.T) {
		_, err := r.GetByName(ctx, created.FirstName, created.LastName)

		assert.ErrorIs(t, err, contact.ErrContactNotFound)
	})

	t.Run("returns lowest id when an edit duplicated the pair", func(t *testing.T) {
		other := mustCreate(t, r, NewContact())
		_, err := r.UpdateByID(ctx, other.ID, func(c *contact.Contact) {
			c.FirstName, c.LastName = created.FirstName, created.LastName
		})
		require.NoError(t, err)

		got, err := r.GetByName(ctx, created.LastName, created.FirstName)

		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})
}

func (rc RepositoryContract) testUpdateByID(t *testing.T) {
	ctx := context.Background()

	t.Run("saves mutated fields and keeps id", func(t *testing.T) {
		r := rc.Subject(t)
		created := mustCreate(t, r, NewContact())
		patch := NewContact()

		updated, err := r.UpdateByID(ctx, created.ID, func(c *contact.Contact) {
			c.ID = 999
			c.FirstName = patch.FirstName
			c.LastName = patch.LastName
			c.MobileNumber = patch.MobileNumber
			c.EmailAddress = ""
			c.DateOfBirth = nil
		})

		require.NoError(t, err)
		expected := contact.Contact{
			ID:           created.ID,
			FirstName:    patch.FirstName,
			LastName:     patch.LastName,
			MobileNumber: patch.MobileNumber,
		}
		assert.Equal(t, expected, updated)
		stored, err := r.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, expected, stored)
	})

	t.Run("mutate receives the stored contact", func(t *testing.T) {
		r := rc.Subject(t)
		created := mustCreate(t, r, NewContact())

		var seen contact.Contact
		_, err := r.UpdateByID(ctx, created.ID, func(c *contact.Contact) { seen = *c })

		require.NoError(t, err)
		assert.Equal(t, created, seen)
	})

	t.Run("fails on unknown id without calling mutate", func(t *testing.T) {
		r := rc.Subject(t)
		called := false

		_, err := r.UpdateByID(ctx, 42, func(*contact.Contact) { called = true })

		assert.ErrorIs(t, err, contact.ErrContactNotFound)
		assert.False(t, called)
	})
}

func (rc RepositoryContract) testUpdateByName(t *testing.T) {
	ctx := context.Background()

	t.Run("saves mutated fields", func(t *testing.T) {
		r := rc.Subject(t)
		created := mustCreate(t, r, NewContact())

		updated, err := r.UpdateByName(ctx, created.LastName, created.FirstName, func(c *contact.Contact) {
			c.MobileNumber = "07777777778"
		})

		require.NoError(t, err)
		expected := created
		expected.MobileNumber = "07777777778"
		assert.Equal(t, expected, updated)
		stored, err := r.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, expected, stored)
	})

	t.Run("fails on unknown name pair", func(t *testing.T) {
		r := rc.Subject(t)

		_, err := r.UpdateByName(ctx, "Feynman", "Richard", func(*contact.Contact) {})

		assert.ErrorIs(t, err, contact.ErrContactNotFound)
	})
}

func (rc RepositoryContract) testDeleteByID(t *testing.T) {
	ctx := context.Background()
	r := rc.Subject(t)
	kept := mustCreate(t, r, NewContact())
	removed := mustCreate(t, r, NewContact())

	t.Run("deletes contact", func(t *testing.T) {
		err := r.DeleteByID(ctx, removed.ID)

		require.NoError(t, err)
		_, err = r.GetByID(ctx, removed.ID)
		assert.ErrorIs(t, err, contact.ErrContactNotFound)
	})

	t.Run("frees the name pair", func(t *testing.T) {
		again := removed
		again.ID = 0

		recreated, err := r.CreateContact(ctx, again)

		require.NoError(t, err)
		assert.Greater(t, recreated.ID, removed.ID)
		require.NoError(t, r.DeleteByID(ctx, recreated.ID))
	})

	t.Run("fails on unknown id and leaves storage unchanged", func(t *testing.T) {
		err := r.DeleteByID(ctx, 99)

		assert.ErrorIs(t, err, contact.ErrContactNotFound)
		all, err := r.AllContacts(ctx)
		require.NoError(t, err)
		assert.Equal(t, []contact.Contact{kept}, all)
	})
}

func (rc RepositoryContract) testDeleteAll(t *testing.T) {
	ctx := context.Background()
	r := rc.Subject(t)
	var last contact.Contact
	for i := 0; i < 3; i++ {
		last = mustCreate(t, r, NewContact())
	}

	require.NoError(t, r.DeleteAll(ctx))

	all, err := r.AllContacts(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	t.Run("does not reuse ids", func(t *testing.T) {
		next := mustCreate(t, r, NewContact())

		assert.Greater(t, next.ID, last.ID)
	})

	t.Run("succeeds on empty storage", func(t *testing.T) {
		require.NoError(t, r.DeleteAll(ctx))
		require.NoError(t, r.DeleteAll(ctx))
	})
}

func (rc RepositoryContract) testSeededScenario(t *testing.T) {
	ctx := context.Background()
	r := rc.Subject(t)
	uc := contact.NewUsecase(r)
	seed := contact.DevelopmentContacts()
	beckett := mustCreate(t, r, seed[0])
	castle := mustCreate(t, r, seed[1])

	ryan, err := uc.Generate(ctx, seed[2])
	require.NoError(t, err)
	assert.Equal(t, int64(3), ryan.ID)

	all, err := uc.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []contact.Contact{beckett, castle, ryan}, all)

	byID, err := uc.FetchByID(ctx, ryan.ID)
	require.NoError(t, err)
	assert.Equal(t, ryan, byID)

	byName, err := uc.FetchByLastNameAndFirstName(ctx, "Ryan", "Kevin")
	require.NoError(t, err)
	assert.Equal(t, &ryan, byName)

	_, err = uc.Generate(ctx, seed[0])
	assert.EqualError(t, err, "application error: code=duplicate message=Contact Contact [id=null, firstName=Kate, "+
		"lastName=Beckett, mobileNumber=07777777777, emailAddress=kate.beckett@mycoolmail.com, dateOfBirth=1993-04-06] is a duplicate")

	patch := seed[0]
	patch.MobileNumber = "07777777778"
	edited, err := uc.EditByID(ctx, beckett.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, int64(1), edited.ID)
	assert.Equal(t, "07777777778", edited.MobileNumber)
	assert.Equal(t, "Kate", edited.FirstName)
	assert.Equal(t, "Beckett", edited.LastName)

	err = uc.Remove(ctx, 99)
	assert.EqualError(t, err, "application error: code=not_found message=Cannot remove non-existent contact with ID 99")

	require.NoError(t, uc.RemoveAll(ctx))
	all, err = uc.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
