package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/doc-analyzer-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTable keeps items by analysis_id and answers owner queries by scanning.
type fakeTable struct {
	items   map[string]map[string]types.AttributeValue
	lastQry *dynamodb.QueryInput
	lastUpd *dynamodb.UpdateItemInput
	fail    error
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(m map[string]types.AttributeValue) string {
	return m[fieldAnalysisID].(*types.AttributeValueMemberS).Value
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.items[keyOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeTable) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQry = in
	owner := in.ExpressionAttributeValues[":o"].(*types.AttributeValueMemberS).Value
	var out []map[string]types.AttributeValue
	for _, it := range f.items {
		if it[fieldOwnerID].(*types.AttributeValueMemberS).Value == owner {
			out = append(out, it)
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func (f *fakeTable) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.lastUpd = in
	id := keyOf(in.Key)
	item, ok := f.items[id]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	for nameKey, attr := range in.ExpressionAttributeNames {
		item[attr] = in.ExpressionAttributeValues[":v"+nameKey[2:]]
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	delete(f.items, keyOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func sampleAnalysis(id, owner string) *domain.Analysis {
	return &domain.Analysis{
		AnalysisID:  id,
		OwnerID:     owner,
		FileName:    "report.pdf",
		FileSize:    1024,
		TextLength:  500,
		Pages:       2,
		Summary:     "## Summary",
		ContextText: "body text",
		ProcessedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ExpiresAt:   1800000000,
	}
}

func TestAnalysisRepo_PutGet(t *testing.T) {
	tbl := newFakeTable()
	repo := NewAnalysisRepo(tbl, "documents")

	require.NoError(t, repo.Put(context.Background(), sampleAnalysis("a1", "user_1")))

	got, err := repo.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "user_1", got.OwnerID)
	assert.Equal(t, "body text", got.ContextText)
	assert.True(t, got.ProcessedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	var stored struct {
		ExpiresAt int64 `dynamodbav:"expires_at"`
	}
	require.NoError(t, attributevalue.UnmarshalMap(tbl.items["a1"], &stored))
	assert.Equal(t, int64(1800000000), stored.ExpiresAt)
}

func TestAnalysisRepo_GetMissing(t *testing.T) {
	repo := NewAnalysisRepo(newFakeTable(), "documents")
	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalysisRepo_StorageFailure(t *testing.T) {
	tbl := newFakeTable()
	tbl.fail = errors.New("connection refused")
	repo := NewAnalysisRepo(tbl, "documents")

	err := repo.Put(context.Background(), sampleAnalysis("a1", "u"))
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	_, err = repo.Get(context.Background(), "a1")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestAnalysisRepo_ListByOwner(t *testing.T) {
	tbl := newFakeTable()
	repo := NewAnalysisRepo(tbl, "documents")
	require.NoError(t, repo.Put(context.Background(), sampleAnalysis("a1", "user_1")))
	require.NoError(t, repo.Put(context.Background(), sampleAnalysis("a2", "user_1")))
	require.NoError(t, repo.Put(context.Background(), sampleAnalysis("b1", "user_2")))

	items, err := repo.ListByOwner(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, ownerIndex, *tbl.lastQry.IndexName)
	assert.False(t, *tbl.lastQry.ScanIndexForward)
}

func TestAnalysisRepo_Touch(t *testing.T) {
	tbl := newFakeTable()
	repo := NewAnalysisRepo(tbl, "documents")
	require.NoError(t, repo.Put(context.Background(), sampleAnalysis("a1", "u")))

	require.NoError(t, repo.Touch(context.Background(), "a1", 1900000000))
	got, err := repo.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(1900000000), got.ExpiresAt)
	assert.Equal(t, "attribute_exists(analysis_id)", *tbl.lastUpd.ConditionExpression)

	err = repo.Touch(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestAnalysisRepo_Delete(t *testing.T) {
	tbl := newFakeTable()
	repo := NewAnalysisRepo(tbl, "documents")
	require.NoError(t, repo.Put(context.Background(), sampleAnalysis("a1", "u")))
	require.NoError(t, repo.Delete(context.Background(), "a1"))
	_, err := repo.Get(context.Background(), "a1")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}
