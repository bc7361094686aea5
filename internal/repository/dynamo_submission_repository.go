package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/networkhq/network-intake/internal/domain"
)

// DynamoAPI is the subset of the DynamoDB client used by the repository.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoTables maps each kind to its table. Both tables use "email" as the
// partition key.
type DynamoTables struct {
	Waitlist    string
	Partnership string
}

type dynamoSubmissionRepository struct {
	client DynamoAPI
	tables DynamoTables
}

// NewDynamoSubmissionRepository returns a DynamoDB-backed implementation.
func NewDynamoSubmissionRepository(client DynamoAPI, tables DynamoTables) SubmissionRepository {
	return &dynamoSubmissionRepository{client: client, tables: tables}
}

func (r *dynamoSubmissionRepository) table(kind domain.SubmissionKind) (string, error) {
	switch kind {
	case domain.KindWaitlist:
		return r.tables.Waitlist, nil
	case domain.KindPartnership:
		return r.tables.Partnership, nil
	default:
		return "", fmt.Errorf("unknown submission kind %q", kind)
	}
}

func (r *dynamoSubmissionRepository) Exists(ctx context.Context, kind domain.SubmissionKind, email string) (bool, error) {
	table, err := r.table(kind)
	if err != nil {
		return false, err
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
		ProjectionExpression: aws.String("email"),
	})
	if err != nil {
		return false, err
	}
	return len(out.Item) > 0, nil
}

func (r *dynamoSubmissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	table, err := r.table(sub.Kind)
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(sub)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrDuplicate
	}
	return err
}

func (r *dynamoSubmissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]domain.Submission, error) {
	kinds := []domain.SubmissionKind{domain.KindWaitlist, domain.KindPartnership}
	if filter.Kind != "" {
		kinds = []domain.SubmissionKind{filter.Kind}
	}

	items := []domain.Submission{}
	for _, kind := range kinds {
		table, err := r.table(kind)
		if err != nil {
			return nil, err
		}
		paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(table)})
		for paginator.HasMorePages() {
			out, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			var batch []domain.Submission
			if err := attributevalue.UnmarshalListOfMaps(out.Items, &batch); err != nil {
				return nil, fmt.Errorf("decode submissions: %w", err)
			}
			for i := range batch {
				if batch[i].Kind == "" {
					batch[i].Kind = kind
				}
			}
			items = append(items, batch...)
		}
	}

	sortNewestFirst(items)
	return page(items, filter), nil
}

func (r *dynamoSubmissionRepository) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.tables.Waitlist)})
	return err
}
