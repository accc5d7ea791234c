package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/timeweaver-api/internal/domain"
)

// TimerRepo provides typed DynamoDB operations for the timers table.
type TimerRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTimerRepo(client *dynamodb.Client, tableName string) *TimerRepo {
	return &TimerRepo{client: client, tableName: tableName}
}

func (r *TimerRepo) Put(ctx context.Context, t *domain.Timer) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal timer: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TimerRepo) Get(ctx context.Context, timerID string) (*domain.Timer, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("timer_id", timerID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("timer not found: %w", domain.ErrNotFound)
	}
	var t domain.Timer
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByUser queries the user_id-target_date GSI. The range key is the
// RFC3339 target date, so results come back already ordered ascending.
func (r *TimerRepo) ListByUser(ctx context.Context, userID string) ([]domain.Timer, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-target_date-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	var timers []domain.Timer
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &timers); err != nil {
		return nil, err
	}
	return timers, nil
}

// ScanActive returns every timer in the table, ordered ascending by target.
// Used once at startup to seed the expiry scheduler.
func (r *TimerRepo) ScanActive(ctx context.Context) ([]domain.Timer, error) {
	var timers []domain.Timer
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Timer
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		timers = append(timers, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	sort.Slice(timers, func(i, j int) bool {
		return timers[i].TargetDate.Before(timers[j].TargetDate)
	})
	return timers, nil
}

func (r *TimerRepo) Delete(ctx context.Context, timerID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("timer_id", timerID),
	})
	return err
}
