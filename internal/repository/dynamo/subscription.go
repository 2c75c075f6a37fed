// Package dynamo implements the subscription directory store on a single
// DynamoDB table using the PK/SK layout shared with the rest of the platform.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/ignite/subscription-intake/internal/domain"
	"github.com/ignite/subscription-intake/internal/service/subscription"
)

const sortKey = "SUBSCRIPTION"

// dynamoAPI is the slice of the DynamoDB client the repository uses.
type dynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// subscriptionItem represents a subscription stored in DynamoDB
type subscriptionItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	ID        string `dynamodbav:"ID"`
	Email     string `dynamodbav:"Email"`
	Source    string `dynamodbav:"Source,omitempty"`
	CreatedAt string `dynamodbav:"CreatedAt"`
}

func (it subscriptionItem) toDomain() *domain.Subscription {
	created, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	return &domain.Subscription{ID: it.ID, Email: it.Email, Source: it.Source, CreatedAt: created}
}

// SubscriptionRepo implements subscription.DirectoryStore against DynamoDB.
type SubscriptionRepo struct {
	client dynamoAPI
	table  string
}

// NewSubscriptionRepo wraps an existing DynamoDB client.
func NewSubscriptionRepo(client dynamoAPI, table string) *SubscriptionRepo {
	return &SubscriptionRepo{client: client, table: table}
}

// NewFromConfig loads the default AWS credential chain (optionally a named
// profile) and returns a repository on table.
func NewFromConfig(ctx context.Context, table, region, profile string) (*SubscriptionRepo, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewSubscriptionRepo(dynamodb.NewFromConfig(cfg), table), nil
}

func key(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "SUB#" + email},
		"SK": &types.AttributeValueMemberS{Value: sortKey},
	}
}

// CreateSubscription writes a new item guarded by attribute_not_exists(PK).
// If the email is already present the stored item is returned instead.
func (r *SubscriptionRepo) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	item := subscriptionItem{
		PK:        "SUB#" + sub.Email,
		SK:        sortKey,
		ID:        uuid.New().String(),
		Email:     sub.Email,
		Source:    sub.Source,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshaling item: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	var exists *types.ConditionalCheckFailedException
	if errors.As(err, &exists) {
		existing, ferr := r.FindSubscription(ctx, sub.Email)
		if ferr != nil {
			return fmt.Errorf("loading existing subscription: %w", ferr)
		}
		*sub = *existing
		return nil
	}
	if err != nil {
		return fmt.Errorf("putting item to DynamoDB: %w", err)
	}

	*sub = *item.toDomain()
	return nil
}

// DeleteSubscription removes the item and uses ALL_OLD to learn whether it
// existed.
func (r *SubscriptionRepo) DeleteSubscription(ctx context.Context, email string) (bool, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.table),
		Key:          key(email),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, fmt.Errorf("deleting item from DynamoDB: %w", err)
	}
	return len(out.Attributes) > 0, nil
}

func (r *SubscriptionRepo) FindSubscription(ctx context.Context, email string) (*domain.Subscription, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            key(email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting item from DynamoDB: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, subscription.ErrNotFound
	}
	var it subscriptionItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshaling item: %w", err)
	}
	return it.toDomain(), nil
}

func (r *SubscriptionRepo) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)})
	if err != nil {
		return fmt.Errorf("describing table %s: %w", r.table, err)
	}
	return nil
}
