package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/succession-vault/internal/domain"
)

// removeAttempts bounds retries when the nominee list shifts under a removal.
const removeAttempts = 3

// AssetRepo provides typed DynamoDB operations for the assets table.
// Nominee assignment is conditioned on the nominees table, so it needs both names.
type AssetRepo struct {
	client       *dynamodb.Client
	tableName    string
	nomineeTable string
}

func NewAssetRepo(client *dynamodb.Client, tableName, nomineeTable string) *AssetRepo {
	return &AssetRepo{client: client, tableName: tableName, nomineeTable: nomineeTable}
}

func (r *AssetRepo) Put(ctx context.Context, a *domain.Asset) error {
	// Stored as an empty list, never NULL, so list_append works on first assign.
	if a.NomineeIDs == nil {
		a.NomineeIDs = []string{}
	}
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal asset: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// PutLinked stores a new asset already linked to nomineeID. The put is one
// transaction with a check that the nominee still exists and belongs to the
// asset's owner, so an upload racing a nominee delete never stores a dangling
// link. A failed nominee check is domain.ErrNotFound.
func (r *AssetRepo) PutLinked(ctx context.Context, a *domain.Asset, nomineeID string) error {
	a.NomineeIDs = []string{nomineeID}
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal asset: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.tableName),
				Item:                     item,
				ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
				ExpressionAttributeNames: map[string]string{"#pk": fieldAssetID},
			}},
			nomineeOwnerCheck(r.nomineeTable, nomineeID, a.OwnerUserID),
		},
	})
	codes := cancellationCodes(err)
	if codes == nil {
		return err
	}
	if len(codes) > 1 && codes[1] == "ConditionalCheckFailed" {
		return fmt.Errorf("nominee not found: %w", domain.ErrNotFound)
	}
	if codes[0] == "ConditionalCheckFailed" {
		return fmt.Errorf("asset already exists: %w", domain.ErrConflict)
	}
	return fmt.Errorf("put linked asset: %w", domain.ErrConflict)
}

func (r *AssetRepo) Get(ctx context.Context, assetID string) (*domain.Asset, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldAssetID, assetID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("asset not found: %w", domain.ErrNotFound)
	}
	return unmarshalAsset(out.Item)
}

func (r *AssetRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Asset, error) {
	var assets []domain.Asset
	err := queryOwner(ctx, r.client, r.tableName, ownerUserID, func(items []map[string]types.AttributeValue) error {
		var page []domain.Asset
		if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
			return err
		}
		assets = append(assets, page...)
		return nil
	})
	return assets, err
}

// Update applies a partial update and returns the stored asset.
func (r *AssetRepo) Update(ctx context.Context, assetID string, updates map[string]interface{}) (*domain.Asset, error) {
	if _, ok := updates[fieldUpdatedAt]; !ok {
		updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	ue.Names["#pk"] = fieldAssetID
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldAssetID, assetID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, fmt.Errorf("asset not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return unmarshalAsset(out.Attributes)
}

// AddNominee appends nomineeID to the asset's nominee list unless it is already there.
// The append is one transaction with a check that the nominee still exists and
// belongs to ownerUserID, so a nominee deleted concurrently is never linked.
// Returns the current asset and whether the list changed.
func (r *AssetRepo) AddNominee(ctx context.Context, assetID, ownerUserID, nomineeID string) (*domain.Asset, bool, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName:           aws.String(r.tableName),
				Key:                 strKey(fieldAssetID, assetID),
				UpdateExpression:    aws.String("SET #n = list_append(if_not_exists(#n, :empty), :nl), #u = :now"),
				ConditionExpression: aws.String("#o = :owner AND NOT contains(#n, :nid)"),
				ExpressionAttributeNames: map[string]string{
					"#n": fieldNomineeIDs,
					"#u": fieldUpdatedAt,
					"#o": fieldOwnerUserID,
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
					":nl":    &types.AttributeValueMemberL{Value: []types.AttributeValue{strVal(nomineeID)}},
					":nid":   strVal(nomineeID),
					":owner": strVal(ownerUserID),
					":now":   strVal(now),
				},
			}},
			nomineeOwnerCheck(r.nomineeTable, nomineeID, ownerUserID),
		},
	})
	if err == nil {
		a, gErr := r.Get(ctx, assetID)
		return a, true, gErr
	}
	codes := cancellationCodes(err)
	if codes == nil {
		return nil, false, err
	}
	if len(codes) > 1 && codes[1] == "ConditionalCheckFailed" {
		return nil, false, fmt.Errorf("nominee not found: %w", domain.ErrNotFound)
	}
	if codes[0] == "ConditionalCheckFailed" {
		a, gErr := r.Get(ctx, assetID)
		if gErr != nil {
			return nil, false, gErr
		}
		if a.OwnerUserID != ownerUserID {
			return nil, false, fmt.Errorf("forbidden: %w", domain.ErrForbidden)
		}
		return a, false, nil
	}
	return nil, false, fmt.Errorf("assign nominee: %w", domain.ErrConflict)
}

// RemoveNominee removes nomineeID from the asset's nominee list. Removing an absent
// id is a no-op. The removal is conditioned on the element still being at the
// index that was read; a shifted list is re-read and retried.
func (r *AssetRepo) RemoveNominee(ctx context.Context, assetID, nomineeID string) (*domain.Asset, error) {
	for attempt := 0; attempt < removeAttempts; attempt++ {
		a, err := r.Get(ctx, assetID)
		if err != nil {
			return nil, err
		}
		idx := a.NomineeIndex(nomineeID)
		if idx < 0 {
			return a, nil
		}
		out, err := r.client.UpdateItem(ctx, removeNomineeUpdate(r.tableName, assetID, nomineeID, idx).toInput())
		if isConditionFailed(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return unmarshalAsset(out.Attributes)
	}
	return nil, fmt.Errorf("remove nominee from asset %s: %w", assetID, domain.ErrConflict)
}

func (r *AssetRepo) Delete(ctx context.Context, assetID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldAssetID, assetID),
	})
	return err
}

// Count returns the number of assets in the table.
func (r *AssetRepo) Count(ctx context.Context) (int, error) {
	return countTable(ctx, r.client, r.tableName)
}

// listUpdate is a conditional single-item update shared by removal paths.
type listUpdate struct {
	table  string
	key    map[string]types.AttributeValue
	expr   string
	cond   string
	names  map[string]string
	values map[string]types.AttributeValue
}

func removeNomineeUpdate(table, assetID, nomineeID string, idx int) listUpdate {
	elem := "#n[" + strconv.Itoa(idx) + "]"
	return listUpdate{
		table: table,
		key:   strKey(fieldAssetID, assetID),
		expr:  "REMOVE " + elem + " SET #u = :now",
		cond:  elem + " = :nid",
		names: map[string]string{"#n": fieldNomineeIDs, "#u": fieldUpdatedAt},
		values: map[string]types.AttributeValue{
			":nid": strVal(nomineeID),
			":now": strVal(time.Now().UTC().Format(time.RFC3339)),
		},
	}
}

func (u listUpdate) toInput() *dynamodb.UpdateItemInput {
	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(u.table),
		Key:                       u.key,
		UpdateExpression:          aws.String(u.expr),
		ConditionExpression:       aws.String(u.cond),
		ExpressionAttributeNames:  u.names,
		ExpressionAttributeValues: u.values,
		ReturnValues:              types.ReturnValueAllNew,
	}
}

func (u listUpdate) toTransactItem() types.TransactWriteItem {
	return types.TransactWriteItem{Update: &types.Update{
		TableName:                 aws.String(u.table),
		Key:                       u.key,
		UpdateExpression:          aws.String(u.expr),
		ConditionExpression:       aws.String(u.cond),
		ExpressionAttributeNames:  u.names,
		ExpressionAttributeValues: u.values,
	}}
}

// nomineeOwnerCheck fails its transaction unless nomineeID exists and belongs to ownerUserID.
func nomineeOwnerCheck(table, nomineeID, ownerUserID string) types.TransactWriteItem {
	return types.TransactWriteItem{ConditionCheck: &types.ConditionCheck{
		TableName:                 aws.String(table),
		Key:                       strKey(fieldNomineeID, nomineeID),
		ConditionExpression:       aws.String("#o = :owner"),
		ExpressionAttributeNames:  map[string]string{"#o": fieldOwnerUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":owner": strVal(ownerUserID)},
	}}
}

func unmarshalAsset(item map[string]types.AttributeValue) (*domain.Asset, error) {
	var a domain.Asset
	if err := attributevalue.UnmarshalMap(item, &a); err != nil {
		return nil, err
	}
	if a.NomineeIDs == nil {
		a.NomineeIDs = []string{}
	}
	return &a, nil
}

// cancellationCodes returns the per-item reason codes of a cancelled transaction,
// or nil when err is not a cancellation.
func cancellationCodes(err error) []string {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return nil
	}
	codes := make([]string, len(tce.CancellationReasons))
	for i, reason := range tce.CancellationReasons {
		codes[i] = aws.ToString(reason.Code)
	}
	if len(codes) == 0 {
		codes = []string{""}
	}
	return codes
}

func countTable(ctx context.Context, client *dynamodb.Client, tableName string) (int, error) {
	p := dynamodb.NewScanPaginator(client, &dynamodb.ScanInput{
		TableName: aws.String(tableName),
		Select:    types.SelectCount,
	})
	total := 0
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		total += int(out.Count)
	}
	return total, nil
}
