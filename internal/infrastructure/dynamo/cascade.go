package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/succession-vault/internal/domain"
)

// maxTransactItems is the DynamoDB per-transaction item limit.
const maxTransactItems = 100

// CascadeRepo deletes a nominee together with every reference to it in its owner's assets.
type CascadeRepo struct {
	client        *dynamodb.Client
	nomineesTable string
	assetsTable   string
}

func NewCascadeRepo(client *dynamodb.Client, nomineesTable, assetsTable string) *CascadeRepo {
	return &CascadeRepo{client: client, nomineesTable: nomineesTable, assetsTable: assetsTable}
}

// DeleteNominee removes nomineeID from each of the given assets and deletes the
// nominee record. Each asset removal is conditioned on the list element read by
// the caller. Up to 99 assets go in one transaction with the nominee delete;
// larger sets are split and the nominee delete rides in the last chunk, so a
// failure part-way leaves the nominee in place and the call can be repeated.
// A cancelled transaction is reported as domain.ErrConflict.
func (r *CascadeRepo) DeleteNominee(ctx context.Context, nomineeID string, assets []domain.Asset) error {
	var updates []types.TransactWriteItem
	for i := range assets {
		idx := assets[i].NomineeIndex(nomineeID)
		if idx < 0 {
			continue
		}
		updates = append(updates, removeNomineeUpdate(r.assetsTable, assets[i].AssetID, nomineeID, idx).toTransactItem())
	}

	chunks := cascadeChunks(len(updates))
	for i, c := range chunks {
		items := append([]types.TransactWriteItem{}, updates[c[0]:c[1]]...)
		if i == len(chunks)-1 {
			items = append(items, types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(r.nomineesTable),
				Key:       strKey(fieldNomineeID, nomineeID),
			}})
		}
		_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
		if isTransactionCanceled(err) {
			return fmt.Errorf("nominee cascade: %w", domain.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("nominee cascade: %w", err)
		}
	}
	return nil
}

// cascadeChunks splits n asset updates into [start, end) ranges that leave room
// for the nominee delete in the final transaction. It always returns at least one range.
func cascadeChunks(n int) [][2]int {
	size := maxTransactItems - 1
	if n == 0 {
		return [][2]int{{0, 0}}
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}
