package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contactbook/contact"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContactModel represents the database model for contacts
type ContactModel struct {
	ID           int64      `gorm:"primaryKey;autoIncrement"`
	FirstName    string     `gorm:"not null"`
	LastName     string     `gorm:"not null"`
	MobileNumber string     `gorm:"not null"`
	EmailAddress *string    `gorm:"default:null"`
	DateOfBirth  *time.Time `gorm:"type:date;default:null"`
}

// TableName specifies the table name for GORM
func (ContactModel) TableName() string {
	return "contacts"
}

// ContactRepository implements contact.Repository interface. There is no
// unique index on the name pair because edits may introduce duplicates;
// CreateContact serialises on a transaction scoped advisory lock instead.
type ContactRepository struct {
	db *gorm.DB
}

var _ contact.Repository = (*ContactRepository)(nil)

// NewContactRepository creates a new contact repository
func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) AllContacts(ctx context.Context) ([]contact.Contact, error) {
	var models []ContactModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("postgres: list contacts: %w", err)
	}

	contacts := make([]contact.Contact, len(models))
	for i, model := range models {
		contacts[i] = toDomainContact(model)
	}
	return contacts, nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id int64) (contact.Contact, error) {
	var model ContactModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		return contact.Contact{}, mapNotFound(err, "get contact by id")
	}
	return toDomainContact(model), nil
}

// GetByName returns the lowest id carrying the pair.
func (r *ContactRepository) GetByName(ctx context.Context, lastName, firstName string) (contact.Contact, error) {
	var model ContactModel
	err := r.db.WithContext(ctx).
		Where("last_name = ? AND first_name = ?", lastName, firstName).
		Order("id").
		Take(&model).Error
	if err != nil {
		return contact.Contact{}, mapNotFound(err, "get contact by name")
	}
	return toDomainContact(model), nil
}

// CreateContact inserts c unless its name pair is already stored.
func (r *ContactRepository) CreateContact(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	var created contact.Contact
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?), hashtext(?))", c.LastName, c.FirstName).Error; err != nil {
			return err
		}

		var count int64
		err := tx.Model(&ContactModel{}).
			Where("last_name = ? AND first_name = ?", c.LastName, c.FirstName).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return contact.ErrNameTaken
		}

		model := toModelContact(c)
		model.ID = 0
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		created = toDomainContact(model)
		return nil
	})
	return created, wrapTx(err, "create contact")
}

func (r *ContactRepository) UpdateByID(ctx context.Context, id int64, mutate func(*contact.Contact)) (contact.Contact, error) {
	return r.update(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ?", id)
	}, mutate)
}

func (r *ContactRepository) UpdateByName(ctx context.Context, lastName, firstName string, mutate func(*contact.Contact)) (contact.Contact, error) {
	return r.update(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("last_name = ? AND first_name = ?", lastName, firstName).Order("id")
	}, mutate)
}

// update locks the first row matched by scope, applies mutate and saves it
// in one transaction.
func (r *ContactRepository) update(ctx context.Context, scope func(*gorm.DB) *gorm.DB, mutate func(*contact.Contact)) (contact.Contact, error) {
	var updated contact.Contact
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model ContactModel
		err := scope(tx.Clauses(clause.Locking{Strength: "UPDATE"})).Take(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return contact.ErrContactNotFound
			}
			return err
		}

		c := toDomainContact(model)
		mutate(&c)
		c.ID = model.ID

		next := toModelContact(c)
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		updated = toDomainContact(next)
		return nil
	})
	return updated, wrapTx(err, "update contact")
}

func (r *ContactRepository) DeleteByID(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ContactModel{})
	if result.Error != nil {
		return fmt.Errorf("postgres: delete contact %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return contact.ErrContactNotFound
	}
	return nil
}

// DeleteAll leaves the id sequence untouched so ids are never reused.
func (r *ContactRepository) DeleteAll(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&ContactModel{}).Error
	if err != nil {
		return fmt.Errorf("postgres: delete all contacts: %w", err)
	}
	return nil
}

func mapNotFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return contact.ErrContactNotFound
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}

// wrapTx wraps a failed transaction, leaving repository sentinels bare.
func wrapTx(err error, op string) error {
	if err == nil || errors.Is(err, contact.ErrNameTaken) || errors.Is(err, contact.ErrContactNotFound) {
		return err
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}

func toDomainContact(model ContactModel) contact.Contact {
	c := contact.Contact{
		ID:           model.ID,
		FirstName:    model.FirstName,
		LastName:     model.LastName,
		MobileNumber: model.MobileNumber,
	}
	if model.EmailAddress != nil {
		c.EmailAddress = *model.EmailAddress
	}
	if model.DateOfBirth != nil {
		c.DateOfBirth = contact.DateOf(*model.DateOfBirth)
	}
	return c
}

func toModelContact(c contact.Contact) ContactModel {
	model := ContactModel{
		ID:           c.ID,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		MobileNumber: c.MobileNumber,
	}
	if c.EmailAddress != "" {
		email := c.EmailAddress
		model.EmailAddress = &email
	}
	if c.DateOfBirth != nil {
		dob := c.DateOfBirth.Time()
		model.DateOfBirth = &dob
	}
	return model
}
