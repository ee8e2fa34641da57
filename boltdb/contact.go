package boltdb

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"

	"contactbook/contact"

	"github.com/boltdb/bolt"
)

var contactsBucket = []byte("contacts")

// errStop ends a bucket walk early.
var errStop = errors.New("stop")

// contactRecord is the gob-encoded value stored under the big-endian id key.
type contactRecord struct {
	FirstName    string
	LastName     string
	MobileNumber string
	EmailAddress string
	DateOfBirth  string
}

// ContactRepository implements [contact.Repository] on a bolt bucket. Ids
// come from the bucket sequence, so they keep growing across DeleteAll.
// Name lookups walk the bucket in key order, which is id order.
type ContactRepository struct {
	db *bolt.DB
}

var _ contact.Repository = (*ContactRepository)(nil)

func NewContactRepository(db *bolt.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) AllContacts(_ context.Context) ([]contact.Contact, error) {
	contacts := []contact.Contact{}
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(contactsBucket).ForEach(func(k, v []byte) error {
			c, err := decodeContact(k, v)
			if err != nil {
				return err
			}
			contacts = append(contacts, c)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("boltdb: list contacts: %w", err)
	}
	return contacts, nil
}

func (r *ContactRepository) GetByID(_ context.Context, id int64) (contact.Contact, error) {
	var c contact.Contact
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		c, err = getByID(tx.Bucket(contactsBucket), id)
		return err
	})
	return c, err
}

func (r *ContactRepository) GetByName(_ context.Context, lastName, firstName string) (contact.Contact, error) {
	var c contact.Contact
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		c, err = findByName(tx.Bucket(contactsBucket), lastName, firstName)
		return err
	})
	return c, err
}

func (r *ContactRepository) CreateContact(_ context.Context, c contact.Contact) (contact.Contact, error) {
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(contactsBucket)

		_, err := findByName(b, c.LastName, c.FirstName)
		switch {
		case err == nil:
			return contact.ErrNameTaken
		case !errors.Is(err, contact.ErrContactNotFound):
			return err
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		c.ID = int64(seq)
		return put(b, c)
	})
	if err != nil {
		return contact.Contact{}, err
	}
	return c, nil
}

func (r *ContactRepository) UpdateByID(_ context.Context, id int64, mutate func(*contact.Contact)) (contact.Contact, error) {
	var updated contact.Contact
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(contactsBucket)
		c, err := getByID(b, id)
		if err != nil {
			return err
		}
		updated, err = update(b, c, mutate)
		return err
	})
	return updated, err
}

func (r *ContactRepository) UpdateByName(_ context.Context, lastName, firstName string, mutate func(*contact.Contact)) (contact.Contact, error) {
	var updated contact.Contact
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(contactsBucket)
		c, err := findByName(b, lastName, firstName)
		if err != nil {
			return err
		}
		updated, err = update(b, c, mutate)
		return err
	})
	return updated, err
}

func (r *ContactRepository) DeleteByID(_ context.Context, id int64) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(contactsBucket)
		key := idToBytes(id)
		if b.Get(key) == nil {
			return contact.ErrContactNotFound
		}
		return b.Delete(key)
	})
}

func (r *ContactRepository) DeleteAll(_ context.Context) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		seq := tx.Bucket(contactsBucket).Sequence()
		if err := tx.DeleteBucket(contactsBucket); err != nil {
			return err
		}
		b, err := tx.CreateBucket(contactsBucket)
		if err != nil {
			return err
		}
		return b.SetSequence(seq)
	})
	if err != nil {
		return fmt.Errorf("boltdb: delete contacts: %w", err)
	}
	return nil
}

func getByID(b *bolt.Bucket, id int64) (contact.Contact, error) {
	key := idToBytes(id)
	v := b.Get(key)
	if v == nil {
		return contact.Contact{}, contact.ErrContactNotFound
	}
	return decodeContact(key, v)
}

func findByName(b *bolt.Bucket, lastName, firstName string) (contact.Contact, error) {
	var found *contact.Contact
	err := b.ForEach(func(k, v []byte) error {
		c, err := decodeContact(k, v)
		if err != nil {
			return err
		}
		if c.LastName == lastName && c.FirstName == firstName {
			found = &c
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return contact.Contact{}, err
	}
	if found == nil {
		return contact.Contact{}, contact.ErrContactNotFound
	}
	return *found, nil
}

func update(b *bolt.Bucket, c contact.Contact, mutate func(*contact.Contact)) (contact.Contact, error) {
	id := c.ID
	mutate(&c)
	c.ID = id
	if err := put(b, c); err != nil {
		return contact.Contact{}, err
	}
	return c, nil
}

func put(b *bolt.Bucket, c contact.Contact) error {
	rec := contactRecord{
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		MobileNumber: c.MobileNumber,
		EmailAddress: c.EmailAddress,
	}
	if c.DateOfBirth != nil {
		rec.DateOfBirth = c.DateOfBirth.String()
	}

	buf := new(bytes.Buffer)
	if err := gob.NewEncoder(buf).Encode(rec); err != nil {
		return fmt.Errorf("boltdb: encode contact: %w", err)
	}
	return b.Put(idToBytes(c.ID), buf.Bytes())
}

func decodeContact(k, v []byte) (contact.Contact, error) {
	var rec contactRecord
	if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&rec); err != nil {
		return contact.Contact{}, fmt.Errorf("boltdb: decode contact: %w", err)
	}

	c := contact.Contact{
		ID:           int64(binary.BigEndian.Uint64(k)),
		FirstName:    rec.FirstName,
		LastName:     rec.LastName,
		MobileNumber: rec.MobileNumber,
		EmailAddress: rec.EmailAddress,
	}
	if rec.DateOfBirth != "" {
		dob, err := contact.ParseDate(rec.DateOfBirth)
		if err != nil {
			return contact.Contact{}, fmt.Errorf("boltdb: decode date of birth: %w", err)
		}
		c.DateOfBirth = dob
	}
	return c, nil
}

// idToBytes returns an 8-byte big endian representation of id so keys sort
// numerically.
func idToBytes(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}
