package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/cenkalti/backoff/v4"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
	"github.com/rocketscienceinc/tictactoe-session/internal/snapshot"
)

const sessionItemType = "SessionItem"

// SessionItem is the DynamoDB record for one session. Version mirrors the snapshot version and guards
// conditional writes; ExpiresAt feeds the table's TTL attribute.
type SessionItem struct {
	PK        string
	SK        string
	Type      string
	Version   uint64
	Snapshot  string
	ExpiresAt int64 `dynamodbav:",omitempty"`
}

type dynamoSession struct {
	db         dynamodbiface.DynamoDBAPI
	tableName  string
	ttl        time.Duration
	now        func() time.Time
	maxRetries uint64
}

func NewDynamoSessionRepository(db dynamodbiface.DynamoDBAPI, tableName string, ttl time.Duration) SessionRepository {
	return &dynamoSession{
		db:         db,
		tableName:  tableName,
		ttl:        ttl,
		now:        time.Now,
		maxRetries: defaultMaxRetries,
	}
}

func sessionPK(id string) string {
	return fmt.Sprintf("SESSION#%s", id)
}

func (that *dynamoSession) key(id string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"PK": {S: aws.String(sessionPK(id))},
		"SK": {S: aws.String(sessionPK(id))},
	}
}

// itemFromSession - builds the stored item for a session.
func (that *dynamoSession) itemFromSession(session *entity.Session) (*SessionItem, error) {
	data, err := snapshot.Encode(session)
	if err != nil {
		return nil, err
	}

	item := &SessionItem{
		PK:       sessionPK(session.ID),
		SK:       sessionPK(session.ID),
		Type:     sessionItemType,
		Version:  session.Version,
		Snapshot: string(data),
	}

	if that.ttl > 0 {
		item.ExpiresAt = that.now().Add(that.ttl).Unix()
	}

	return item, nil
}

func (that *dynamoSession) put(ctx context.Context, session *entity.Session, condition string, values map[string]*dynamodb.AttributeValue) error {
	item, err := that.itemFromSession(session)
	if err != nil {
		return err
	}

	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal session item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		Item:                      av,
		TableName:                 aws.String(that.tableName),
		ConditionExpression:       aws.String(condition),
		ExpressionAttributeValues: values,
	}

	_, err = that.db.PutItemWithContext(ctx, input)

	return err
}

func (that *dynamoSession) Create(ctx context.Context, session *entity.Session) error {
	err := that.put(ctx, session, "attribute_not_exists(PK)", nil)
	if isConditionFailed(err) {
		return fmt.Errorf("%w: session %s already exists", apperror.ErrConflict, session.ID)
	}

	if err != nil {
		return fmt.Errorf("failed to put session: %w", err)
	}

	return nil
}

func (that *dynamoSession) GetByID(ctx context.Context, id string) (*entity.Session, error) {
	result, err := that.db.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(that.tableName),
		Key:            that.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	if len(result.Item) == 0 {
		return nil, apperror.ErrSessionNotFound
	}

	var item SessionItem
	if err = dynamodbattribute.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session item: %w", err)
	}

	session, err := snapshot.Decode([]byte(item.Snapshot))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return session, nil
}

// Update - reads the item, applies fn and writes back only if nobody bumped the version in between.
func (that *dynamoSession) Update(ctx context.Context, id string, fn UpdateFunc) (*entity.Session, error) {
	var updated *entity.Session

	operation := func() error {
		session, err := that.GetByID(ctx, id)
		if err != nil {
			return backoff.Permanent(err)
		}

		expected := session.Version
		if err = fn(session); err != nil {
			return backoff.Permanent(err)
		}

		err = that.put(ctx, session, "Version = :expected", map[string]*dynamodb.AttributeValue{
			":expected": {N: aws.String(strconv.FormatUint(expected, 10))},
		})
		if isConditionFailed(err) {
			return apperror.ErrConflict
		}

		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to put session: %w", err))
		}

		updated = session

		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newRetryBackOff(), that.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("%w: session %s", err, id)
		}

		return nil, err
	}

	return updated, nil
}

func (that *dynamoSession) DeleteByID(ctx context.Context, id string) error {
	_, err := that.db.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(that.tableName),
		Key:                 that.key(id),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if isConditionFailed(err) {
		return apperror.ErrSessionNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to delete session by ID: %w", err)
	}

	return nil
}

func isConditionFailed(err error) bool {
	var awsErr awserr.Error
	return errors.As(err, &awsErr) && awsErr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
}
