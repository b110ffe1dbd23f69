package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/succession-vault/internal/domain"
)

// ActivityLogRepo appends audit entries. Entries are never updated or deleted.
type ActivityLogRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewActivityLogRepo(client *dynamodb.Client, tableName string) *ActivityLogRepo {
	return &ActivityLogRepo{client: client, tableName: tableName}
}

func (r *ActivityLogRepo) Append(ctx context.Context, l *domain.ActivityLog) error {
	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return fmt.Errorf("marshal activity log: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": fieldLogID},
	})
	return err
}

// ListExcludingActor returns entries whose actor type differs from actorType,
// newest first, capped at limit when limit > 0.
func (r *ActivityLogRepo) ListExcludingActor(ctx context.Context, actorType string, limit int) ([]domain.ActivityLog, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String("#t <> :t"),
		ExpressionAttributeNames:  map[string]string{"#t": fieldActorType},
		ExpressionAttributeValues: map[string]types.AttributeValue{":t": strVal(actorType)},
	})
	var logs []domain.ActivityLog
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []domain.ActivityLog
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		logs = append(logs, page...)
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Timestamp.After(logs[j].Timestamp) })
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}
