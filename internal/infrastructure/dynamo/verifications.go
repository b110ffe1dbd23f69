package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/succession-vault/internal/domain"
)

// VerificationRepo stores nominee claims.
// PK: nominee_id, so at most one request can exist per nominee. GSI: request_id-index.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

// Create inserts a request only if none exists for the nominee. A second insert
// for the same nominee fails with domain.ErrConflict, whichever caller loses the race.
func (r *VerificationRepo) Create(ctx context.Context, v *domain.VerificationRequest) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification request: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": fieldNomineeID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("verification request already exists for nominee %s: %w", v.NomineeID, domain.ErrConflict)
	}
	return err
}

func (r *VerificationRepo) GetByNominee(ctx context.Context, nomineeID string) (*domain.VerificationRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldNomineeID, nomineeID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification request not found: %w", domain.ErrNotFound)
	}
	var v domain.VerificationRequest
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByID resolves a request through the request_id index.
func (r *VerificationRepo) GetByID(ctx context.Context, requestID string) (*domain.VerificationRequest, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexRequestID),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": fieldRequestID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": strVal(requestID)},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("verification request not found: %w", domain.ErrNotFound)
	}
	var v domain.VerificationRequest
	if err := attributevalue.UnmarshalMap(out.Items[0], &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Review records the admin decision. The write only succeeds while the stored
// status is still pending; a decided request yields domain.ErrInvalidState.
func (r *VerificationRepo) Review(ctx context.Context, nomineeID string, decision domain.VerificationRequest) (*domain.VerificationRequest, error) {
	reviewedAt, err := attributevalue.Marshal(decision.ReviewedAt)
	if err != nil {
		return nil, fmt.Errorf("marshal reviewed_at: %w", err)
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldNomineeID, nomineeID),
		UpdateExpression:    aws.String("SET #s = :s, admin_notes = :n, rejection_reason = :r, reviewed_at = :t"),
		ConditionExpression: aws.String("#s = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldStatus,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s":       strVal(decision.Status),
			":n":       strVal(decision.AdminNotes),
			":r":       strVal(decision.RejectionReason),
			":t":       reviewedAt,
			":pending": strVal(domain.StatusPendingAdminReview),
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, fmt.Errorf("verification request already reviewed: %w", domain.ErrInvalidState)
	}
	if err != nil {
		return nil, err
	}
	var v domain.VerificationRequest
	if err := attributevalue.UnmarshalMap(out.Attributes, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns every verification request.
func (r *VerificationRepo) List(ctx context.Context) ([]domain.VerificationRequest, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	var out []domain.VerificationRequest
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var reqs []domain.VerificationRequest
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &reqs); err != nil {
			return nil, err
		}
		out = append(out, reqs...)
	}
	return out, nil
}
