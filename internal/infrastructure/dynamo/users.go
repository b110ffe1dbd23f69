package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/succession-vault/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

// Create inserts a new user. An existing user_id is reported as domain.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": fieldUserID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("user already exists: %w", domain.ErrConflict)
	}
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexEmail),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": fieldEmail},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": strVal(email)},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update applies a partial update to an existing user. Missing users are domain.ErrNotFound.
func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	if _, ok := updates[fieldUpdatedAt]; !ok {
		updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#pk"] = fieldUserID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return err
}

// ScanPage returns a page of users.
// cursor is a base64-encoded user_id used as ExclusiveStartKey; page.Next is
// empty when no more pages remain. Items are decoded one by one, and an item
// that does not decode lands in page.Skipped rather than failing the page.
func (r *UserRepo) ScanPage(ctx context.Context, limit int32, cursor string) (*domain.UserPage, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if cursor != "" {
		userID, err := decodeCursor(cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey(fieldUserID, userID)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, err
	}
	page := &domain.UserPage{Users: make([]domain.User, 0, len(out.Items))}
	for _, item := range out.Items {
		var u domain.User
		if err := attributevalue.UnmarshalMap(item, &u); err != nil {
			page.Skipped = append(page.Skipped, domain.SkippedRecord{
				ID:  stringAttr(item, fieldUserID),
				Err: fmt.Errorf("decode user: %w", err),
			})
			continue
		}
		page.Users = append(page.Users, u)
	}
	if v, ok := out.LastEvaluatedKey[fieldUserID].(*types.AttributeValueMemberS); ok {
		page.Next = encodeCursor(v.Value)
	}
	return page, nil
}
