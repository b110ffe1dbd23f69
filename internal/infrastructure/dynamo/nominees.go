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

// NomineeRepo provides typed DynamoDB operations for the nominees table.
type NomineeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNomineeRepo(client *dynamodb.Client, tableName string) *NomineeRepo {
	return &NomineeRepo{client: client, tableName: tableName}
}

func (r *NomineeRepo) Put(ctx context.Context, n *domain.Nominee) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal nominee: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NomineeRepo) Get(ctx context.Context, nomineeID string) (*domain.Nominee, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldNomineeID, nomineeID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("nominee not found: %w", domain.ErrNotFound)
	}
	var n domain.Nominee
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Update applies a partial update and returns the stored nominee.
// The owner attribute is never part of an update.
func (r *NomineeRepo) Update(ctx context.Context, nomineeID string, updates map[string]interface{}) (*domain.Nominee, error) {
	if _, ok := updates[fieldUpdatedAt]; !ok {
		updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	}
	delete(updates, fieldOwnerUserID)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	ue.Names["#pk"] = fieldNomineeID
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldNomineeID, nomineeID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, fmt.Errorf("nominee not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var n domain.Nominee
	if err := attributevalue.UnmarshalMap(out.Attributes, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByOwner returns every nominee designated by ownerUserID.
func (r *NomineeRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Nominee, error) {
	var nominees []domain.Nominee
	err := queryOwner(ctx, r.client, r.tableName, ownerUserID, func(items []map[string]types.AttributeValue) error {
		var page []domain.Nominee
		if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
			return err
		}
		nominees = append(nominees, page...)
		return nil
	})
	return nominees, err
}

// queryOwner pages through the owner_user_id index of tableName.
func queryOwner(ctx context.Context, client *dynamodb.Client, tableName, ownerUserID string, fn func([]map[string]types.AttributeValue) error) error {
	p := dynamodb.NewQueryPaginator(client, &dynamodb.QueryInput{
		TableName:                 aws.String(tableName),
		IndexName:                 aws.String(indexOwner),
		KeyConditionExpression:    aws.String("#o = :o"),
		ExpressionAttributeNames:  map[string]string{"#o": fieldOwnerUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":o": strVal(ownerUserID)},
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return err
		}
		if err := fn(out.Items); err != nil {
			return err
		}
	}
	return nil
}
