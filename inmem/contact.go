package inmem

import (
	"context"
	"slices"
	"sync"

	"contactbook/contact"
)

// ContactRepository implements [contact.Repository] on a slice kept in id
// order. Ids are never reused, even after DeleteAll.
type ContactRepository struct {
	mu       sync.Mutex
	lastID   int64
	contacts []contact.Contact
}

var _ contact.Repository = (*ContactRepository)(nil)

func NewContactRepository() *ContactRepository {
	return &ContactRepository{}
}

func (r *ContactRepository) AllContacts(_ context.Context) ([]contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]contact.Contact, len(r.contacts))
	for i, c := range r.contacts {
		out[i] = clone(c)
	}
	return out, nil
}

func (r *ContactRepository) GetByID(_ context.Context, id int64) (contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.indexByID(id)
	if !ok {
		return contact.Contact{}, contact.ErrContactNotFound
	}
	return clone(r.contacts[i]), nil
}

func (r *ContactRepository) GetByName(_ context.Context, lastName, firstName string) (contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.indexByName(lastName, firstName)
	if !ok {
		return contact.Contact{}, contact.ErrContactNotFound
	}
	return clone(r.contacts[i]), nil
}

func (r *ContactRepository) CreateContact(_ context.Context, c contact.Contact) (contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.indexByName(c.LastName, c.FirstName); taken {
		return contact.Contact{}, contact.ErrNameTaken
	}
	r.lastID++
	c.ID = r.lastID
	c = clone(c)
	r.contacts = append(r.contacts, c)
	return clone(c), nil
}

func (r *ContactRepository) UpdateByID(_ context.Context, id int64, mutate func(*contact.Contact)) (contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.indexByID(id)
	if !ok {
		return contact.Contact{}, contact.ErrContactNotFound
	}
	return r.update(i, mutate), nil
}

func (r *ContactRepository) UpdateByName(_ context.Context, lastName, firstName string, mutate func(*contact.Contact)) (contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.indexByName(lastName, firstName)
	if !ok {
		return contact.Contact{}, contact.ErrContactNotFound
	}
	return r.update(i, mutate), nil
}

func (r *ContactRepository) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.indexByID(id)
	if !ok {
		return contact.ErrContactNotFound
	}
	r.contacts = slices.Delete(r.contacts, i, i+1)
	return nil
}

func (r *ContactRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts = nil
	return nil
}

// update must be called with mu held.
func (r *ContactRepository) update(i int, mutate func(*contact.Contact)) contact.Contact {
	c := clone(r.contacts[i])
	id := c.ID
	mutate(&c)
	c.ID = id
	r.contacts[i] = c
	return clone(c)
}

func (r *ContactRepository) indexByID(id int64) (int, bool) {
	return slices.BinarySearchFunc(r.contacts, id, func(c contact.Contact, id int64) int {
		switch {
		case c.ID < id:
			return -1
		case c.ID > id:
			return 1
		default:
			return 0
		}
	})
}

func (r *ContactRepository) indexByName(lastName, firstName string) (int, bool) {
	i := slices.IndexFunc(r.contacts, func(c contact.Contact) bool {
		return c.LastName == lastName && c.FirstName == firstName
	})
	return i, i >= 0
}

// clone detaches the date pointer so callers cannot mutate stored state.
func clone(c contact.Contact) contact.Contact {
	if c.DateOfBirth != nil {
		d := *c.DateOfBirth
		c.DateOfBirth = &d
	}
	return c
}
