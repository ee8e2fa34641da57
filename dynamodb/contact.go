package dynamodb

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"contactbook/contact"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	contactPrefix = "contact#"
	namePrefix    = "name#"
	counterKey    = "counter#contact"

	// maxUpdateAttempts bounds optimistic retries when a concurrent writer
	// bumps the contact version between read and write.
	maxUpdateAttempts = 10
	retryDelay        = 20 * time.Millisecond
	batchWriteLimit   = 25
)

var errVersionConflict = errors.New("dynamodb: contact version conflict")

// ContactRepository implements [contact.Repository] on a single table keyed
// by "pk". Three item kinds share it:
//
//	contact#<id>               the contact itself, with an optimistic version
//	name#<len>#<last>#<first>  guard counting the contacts holding a name pair
//	counter#contact            id sequence, never reset
type ContactRepository struct {
	client *dynamodb.Client
	table  string
}

var _ contact.Repository = (*ContactRepository)(nil)

type contactItem struct {
	PK           string `dynamodbav:"pk"`
	ID           int64  `dynamodbav:"id"`
	FirstName    string `dynamodbav:"first_name"`
	LastName     string `dynamodbav:"last_name"`
	MobileNumber string `dynamodbav:"mobile_number"`
	EmailAddress string `dynamodbav:"email_address,omitempty"`
	DateOfBirth  string `dynamodbav:"date_of_birth,omitempty"`
	Version      int64  `dynamodbav:"version"`
}

type guardItem struct {
	PK      string `dynamodbav:"pk"`
	Holders int64  `dynamodbav:"holders"`
}

func NewContactRepository(client *dynamodb.Client, table string) *ContactRepository {
	return &ContactRepository{
		client: client,
		table:  table,
	}
}

func (r *ContactRepository) AllContacts(ctx context.Context) ([]contact.Contact, error) {
	if err := validateTable(r.table); err != nil {
		return nil, err
	}

	items, err := r.scanContacts(ctx, nil)
	if err != nil {
		return nil, err
	}

	contacts := make([]contact.Contact, 0, len(items))
	for _, item := range items {
		c, err := toDomainContact(item)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id int64) (contact.Contact, error) {
	if err := validateTable(r.table); err != nil {
		return contact.Contact{}, err
	}

	item, err := r.getItem(ctx, id)
	if err != nil {
		return contact.Contact{}, err
	}
	return toDomainContact(item)
}

func (r *ContactRepository) GetByName(ctx context.Context, lastName, firstName string) (contact.Contact, error) {
	if err := validateTable(r.table); err != nil {
		return contact.Contact{}, err
	}

	item, err := r.findByName(ctx, lastName, firstName)
	if err != nil {
		return contact.Contact{}, err
	}
	return toDomainContact(item)
}

// CreateContact writes the contact and its name guard in one transaction.
// The guard put only succeeds when no contact holds the pair yet. An id
// drawn for a rejected create is skipped, never handed out again.
func (r *ContactRepository) CreateContact(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	if err := validateTable(r.table); err != nil {
		return contact.Contact{}, err
	}

	if _, err := r.findGuard(ctx, c.LastName, c.FirstName); err == nil {
		return contact.Contact{}, contact.ErrNameTaken
	} else if !errors.Is(err, contact.ErrContactNotFound) {
		return contact.Contact{}, err
	}

	id, err := r.nextID(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	c.ID = id

	item := toContactItem(c)
	item.Version = 1
	contactAV, err := attributevalue.MarshalMap(item)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("dynamodb: marshal contact: %w", err)
	}
	guardAV, err := attributevalue.MarshalMap(guardItem{PK: nameKey(c.LastName, c.FirstName), Holders: 1})
	if err != nil {
		return contact.Contact{}, fmt.Errorf("dynamodb: marshal name guard: %w", err)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           &r.table,
				Item:                guardAV,
				ConditionExpression: aws.String("attribute_not_exists(pk) OR holders <= :zero"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":zero": numberValue(0),
				},
			}},
			{Put: &types.Put{
				TableName:           &r.table,
				Item:                contactAV,
				ConditionExpression: aws.String("attribute_not_exists(pk)"),
			}},
		},
	}
	for attempt := 0; ; attempt++ {
		_, err = r.client.TransactWriteItems(ctx, input)
		switch {
		case err == nil:
			return c, nil
		case isConditionFailed(err):
			return contact.Contact{}, contact.ErrNameTaken
		case isTransactionConflict(err) && attempt < maxUpdateAttempts:
			if err := backoff(ctx, attempt); err != nil {
				return contact.Contact{}, err
			}
		default:
			return contact.Contact{}, fmt.Errorf("dynamodb: create contact: %w", err)
		}
	}
}

func (r *ContactRepository) UpdateByID(ctx context.Context, id int64, mutate func(*contact.Contact)) (contact.Contact, error) {
	if err := validateTable(r.table); err != nil {
		return contact.Contact{}, err
	}
	return r.update(ctx, func(ctx context.Context) (contactItem, error) {
		return r.getItem(ctx, id)
	}, mutate)
}

func (r *ContactRepository) UpdateByName(ctx context.Context, lastName, firstName string, mutate func(*contact.Contact)) (contact.Contact, error) {
	if err := validateTable(r.table); err != nil {
		return contact.Contact{}, err
	}
	return r.update(ctx, func(ctx context.Context) (contactItem, error) {
		return r.findByName(ctx, lastName, firstName)
	}, mutate)
}

func (r *ContactRepository) DeleteByID(ctx context.Context, id int64) error {
	if err := validateTable(r.table); err != nil {
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		item, err := r.getItem(ctx, id)
		if err != nil {
			return err
		}

		guard := nameKey(item.LastName, item.FirstName)
		_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: []types.TransactWriteItem{
				{Delete: &types.Delete{
					TableName:           &r.table,
					Key:                 keyOf(item.PK),
					ConditionExpression: aws.String("version = :v"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":v": numberValue(item.Version),
					},
				}},
				r.addHolders(guard, -1),
			},
		})
		if err == nil {
			return r.dropEmptyGuard(ctx, guard)
		}
		if !retryable(err) {
			return fmt.Errorf("dynamodb: delete contact: %w", err)
		}
		if err := backoff(ctx, attempt); err != nil {
			return err
		}
	}
	return errVersionConflict
}

// DeleteAll removes contacts and name guards but keeps the id counter.
func (r *ContactRepository) DeleteAll(ctx context.Context) error {
	if err := validateTable(r.table); err != nil {
		return err
	}

	var keys []string
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:            &r.table,
		ConsistentRead:       aws.Bool(true),
		ProjectionExpression: aws.String("pk"),
	})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("dynamodb: scan contacts: %w", err)
		}
		for _, av := range out.Items {
			var item guardItem
			if err := attributevalue.UnmarshalMap(av, &item); err != nil {
				return fmt.Errorf("dynamodb: unmarshal key: %w", err)
			}
			if item.PK != counterKey {
				keys = append(keys, item.PK)
			}
		}
	}

	for chunk := range slices.Chunk(keys, batchWriteLimit) {
		requests := make([]types.WriteRequest, len(chunk))
		for i, pk := range chunk {
			requests[i] = types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: keyOf(pk)}}
		}
		if err := r.batchWrite(ctx, requests); err != nil {
			return err
		}
	}
	return nil
}

// update runs load, mutate and conditional save until the save wins against
// concurrent writers. Guards are moved in the same transaction when the
// name pair changes.
func (r *ContactRepository) update(ctx context.Context, load func(context.Context) (contactItem, error), mutate func(*contact.Contact)) (contact.Contact, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		item, err := load(ctx)
		if err != nil {
			return contact.Contact{}, err
		}
		c, err := toDomainContact(item)
		if err != nil {
			return contact.Contact{}, err
		}

		mutate(&c)
		c.ID = item.ID

		next := toContactItem(c)
		next.Version = item.Version + 1
		av, err := attributevalue.MarshalMap(next)
		if err != nil {
			return contact.Contact{}, fmt.Errorf("dynamodb: marshal contact: %w", err)
		}

		oldGuard := nameKey(item.LastName, item.FirstName)
		newGuard := nameKey(next.LastName, next.FirstName)

		writes := []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           &r.table,
				Item:                av,
				ConditionExpression: aws.String("version = :v"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":v": numberValue(item.Version),
				},
			}},
		}
		if oldGuard != newGuard {
			writes = append(writes, r.addHolders(oldGuard, -1), r.addHolders(newGuard, 1))
		}

		_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
		if err != nil {
			if !retryable(err) {
				return contact.Contact{}, fmt.Errorf("dynamodb: update contact: %w", err)
			}
			if err := backoff(ctx, attempt); err != nil {
				return contact.Contact{}, err
			}
			continue
		}

		if oldGuard != newGuard {
			if err := r.dropEmptyGuard(ctx, oldGuard); err != nil {
				return contact.Contact{}, err
			}
		}
		return c, nil
	}
	return contact.Contact{}, errVersionConflict
}

func (r *ContactRepository) getItem(ctx context.Context, id int64) (contactItem, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &r.table,
		Key:            keyOf(contactKey(id)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return contactItem{}, fmt.Errorf("dynamodb: get contact: %w", err)
	}
	if len(out.Item) == 0 {
		return contactItem{}, contact.ErrContactNotFound
	}

	var item contactItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return contactItem{}, fmt.Errorf("dynamodb: unmarshal contact: %w", err)
	}
	return item, nil
}

// findByName returns the lowest id holding the pair.
func (r *ContactRepository) findByName(ctx context.Context, lastName, firstName string) (contactItem, error) {
	items, err := r.scanContacts(ctx, &nameFilter{lastName: lastName, firstName: firstName})
	if err != nil {
		return contactItem{}, err
	}
	if len(items) == 0 {
		return contactItem{}, contact.ErrContactNotFound
	}
	return items[0], nil
}

func (r *ContactRepository) findGuard(ctx context.Context, lastName, firstName string) (guardItem, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &r.table,
		Key:            keyOf(nameKey(lastName, firstName)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return guardItem{}, fmt.Errorf("dynamodb: get name guard: %w", err)
	}
	if len(out.Item) == 0 {
		return guardItem{}, contact.ErrContactNotFound
	}

	var guard guardItem
	if err := attributevalue.UnmarshalMap(out.Item, &guard); err != nil {
		return guardItem{}, fmt.Errorf("dynamodb: unmarshal name guard: %w", err)
	}
	if guard.Holders <= 0 {
		return guardItem{}, contact.ErrContactNotFound
	}
	return guard, nil
}

type nameFilter struct {
	lastName  string
	firstName string
}

// scanContacts returns contact items sorted by id, optionally restricted to
// one name pair.
func (r *ContactRepository) scanContacts(ctx context.Context, filter *nameFilter) ([]contactItem, error) {
	input := &dynamodb.ScanInput{
		TableName:        &r.table,
		ConsistentRead:   aws.Bool(true),
		FilterExpression: aws.String("begins_with(pk, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: contactPrefix},
		},
	}
	if filter != nil {
		input.FilterExpression = aws.String("begins_with(pk, :prefix) AND last_name = :last AND first_name = :first")
		input.ExpressionAttributeValues[":last"] = &types.AttributeValueMemberS{Value: filter.lastName}
		input.ExpressionAttributeValues[":first"] = &types.AttributeValueMemberS{Value: filter.firstName}
	}

	var items []contactItem
	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb: scan contacts: %w", err)
		}

		var page []contactItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("dynamodb: unmarshal contacts: %w", err)
		}
		items = append(items, page...)
	}

	slices.SortFunc(items, func(a, b contactItem) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return items, nil
}

func (r *ContactRepository) nextID(ctx context.Context) (int64, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        &r.table,
		Key:              keyOf(counterKey),
		UpdateExpression: aws.String("ADD seq :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": numberValue(1),
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("dynamodb: next contact id: %w", err)
	}

	var id int64
	if err := attributevalue.Unmarshal(out.Attributes["seq"], &id); err != nil {
		return 0, fmt.Errorf("dynamodb: unmarshal contact id: %w", err)
	}
	return id, nil
}

func (r *ContactRepository) addHolders(guard string, delta int64) types.TransactWriteItem {
	return types.TransactWriteItem{Update: &types.Update{
		TableName:        &r.table,
		Key:              keyOf(guard),
		UpdateExpression: aws.String("ADD holders :delta"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta": numberValue(delta),
		},
	}}
}

// dropEmptyGuard deletes a guard nobody holds any more. Losing the race to a
// writer that re-took the pair is fine.
func (r *ContactRepository) dropEmptyGuard(ctx context.Context, guard string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &r.table,
		Key:                 keyOf(guard),
		ConditionExpression: aws.String("holders <= :zero"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": numberValue(0),
		},
	})
	if err != nil && !isConditionFailed(err) {
		return fmt.Errorf("dynamodb: delete name guard: %w", err)
	}
	return nil
}

func (r *ContactRepository) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	return writeBatch(ctx, r.client, map[string][]types.WriteRequest{r.table: requests})
}

type batchWriter interface {
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// writeBatch resubmits unprocessed items with backoff until none are left.
func writeBatch(ctx context.Context, w batchWriter, pending map[string][]types.WriteRequest) error {
	for attempt := 0; len(pending) > 0; attempt++ {
		if attempt > 0 {
			if attempt >= maxUpdateAttempts {
				return fmt.Errorf("dynamodb: batch delete contacts: items still unprocessed after %d attempts", attempt)
			}
			if err := backoff(ctx, attempt-1); err != nil {
				return fmt.Errorf("dynamodb: batch delete contacts: %w", err)
			}
		}
		out, err := w.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("dynamodb: batch delete contacts: %w", err)
		}
		pending = out.UnprocessedItems
	}
	return nil
}

func contactKey(id int64) string {
	return contactPrefix + strconv.FormatInt(id, 10)
}

// nameKey length-prefixes the last name so that "#" inside names cannot make
// two different pairs collide.
func nameKey(lastName, firstName string) string {
	return namePrefix + strconv.Itoa(len(lastName)) + "#" + lastName + "#" + firstName
}

func keyOf(pk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pk},
	}
}

func numberValue(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

// isConditionFailed reports a failed condition, either on a single write or
// on any item of a cancelled transaction.
func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	return cancelledWith(err, "ConditionalCheckFailed")
}

// isTransactionConflict reports a transaction cancelled because another
// transaction was touching one of its items.
func isTransactionConflict(err error) bool {
	var tc *types.TransactionConflictException
	if errors.As(err, &tc) {
		return true
	}
	return cancelledWith(err, "TransactionConflict")
}

func retryable(err error) bool {
	return isConditionFailed(err) || isTransactionConflict(err)
}

func cancelledWith(err error, code string) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	for _, reason := range tce.CancellationReasons {
		if aws.ToString(reason.Code) == code {
			return true
		}
	}
	return strings.Contains(aws.ToString(tce.Message), code)
}

func backoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt+1) * retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func toContactItem(c contact.Contact) contactItem {
	item := contactItem{
		PK:           contactKey(c.ID),
		ID:           c.ID,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		MobileNumber: c.MobileNumber,
		EmailAddress: c.EmailAddress,
	}
	if c.DateOfBirth != nil {
		item.DateOfBirth = c.DateOfBirth.String()
	}
	return item
}

func toDomainContact(item contactItem) (contact.Contact, error) {
	c := contact.Contact{
		ID:           item.ID,
		FirstName:    item.FirstName,
		LastName:     item.LastName,
		MobileNumber: item.MobileNumber,
		EmailAddress: item.EmailAddress,
	}
	if item.DateOfBirth != "" {
		dob, err := contact.ParseDate(item.DateOfBirth)
		if err != nil {
			return contact.Contact{}, fmt.Errorf("dynamodb: decode date of birth: %w", err)
		}
		c.DateOfBirth = dob
	}
	return c, nil
}
