package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/doc-analyzer-api/internal/domain"
)

// API is the subset of the DynamoDB client the repository uses.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// AnalysisRepo provides typed DynamoDB operations for the documents table.
type AnalysisRepo struct {
	client    API
	tableName string
}

func NewAnalysisRepo(client API, tableName string) *AnalysisRepo {
	return &AnalysisRepo{client: client, tableName: tableName}
}

func (r *AnalysisRepo) Put(ctx context.Context, a *domain.Analysis) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put analysis: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *AnalysisRepo) Get(ctx context.Context, analysisID string) (*domain.Analysis, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldAnalysisID, analysisID),
	})
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w: %w", domain.ErrStorageUnavailable, err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("analysis %s: %w", analysisID, domain.ErrDocumentNotFound)
	}
	var a domain.Analysis
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, fmt.Errorf("unmarshal analysis: %w", err)
	}
	return &a, nil
}

// ListByOwner returns the owner's analyses, newest first.
func (r *AnalysisRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Analysis, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(ownerIndex),
		KeyConditionExpression: aws.String("#o = :o"),
		ExpressionAttributeNames: map[string]string{
			"#o": fieldOwnerID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":o": &types.AttributeValueMemberS{Value: ownerID},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w: %w", domain.ErrStorageUnavailable, err)
	}
	items := make([]domain.Analysis, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("unmarshal analyses: %w", err)
	}
	return items, nil
}

// Touch pushes the record's TTL out to expiresAt.
func (r *AnalysisRepo) Touch(ctx context.Context, analysisID string, expiresAt int64) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldExpiresAt: expiresAt})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldAnalysisID, analysisID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(" + fieldAnalysisID + ")"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("analysis %s: %w", analysisID, domain.ErrDocumentNotFound)
	}
	if err != nil {
		return fmt.Errorf("touch analysis: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *AnalysisRepo) Delete(ctx context.Context, analysisID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldAnalysisID, analysisID),
	})
	if err != nil {
		return fmt.Errorf("delete analysis: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}
