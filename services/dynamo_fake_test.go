package services

import (
	"context"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"dronearena_server/models"
)

// fakeDynamo is an in-memory DynamoAPI for tests. It understands the two
// condition expressions the services use: attribute_not_exists(...) and the
// version guard.
type fakeDynamo struct {
	mu        sync.Mutex
	tables    map[string]map[string]map[string]types.AttributeValue
	keySchema map[string][]string
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		tables: make(map[string]map[string]map[string]types.AttributeValue),
		keySchema: map[string][]string{
			models.MatchesTable:        {"matchId"},
			models.DroneTelemetryTable: {"matchId", "telemetryId"},
			models.ESPDevicesTable:     {"macAddress"},
		},
	}
}

func attrString(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *fakeDynamo) itemKey(table string, item map[string]types.AttributeValue) string {
	parts := make([]string, 0, 2)
	for _, attr := range f.keySchema[table] {
		parts = append(parts, attrString(item, attr))
	}
	return strings.Join(parts, "|")
}

func (f *fakeDynamo) table(name string) map[string]map[string]types.AttributeValue {
	if f.tables[name] == nil {
		f.tables[name] = make(map[string]map[string]types.AttributeValue)
	}
	return f.tables[name]
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := f.table(aws.ToString(params.TableName))
	key := f.itemKey(aws.ToString(params.TableName), params.Item)
	existing, exists := table[key]

	if cond := aws.ToString(params.ConditionExpression); cond != "" {
		switch {
		case strings.Contains(cond, "attribute_not_exists"):
			if exists {
				return nil, &types.ConditionalCheckFailedException{Message: aws.String("item already exists")}
			}
		case strings.Contains(cond, "version"):
			expected, ok := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN)
			if !ok || !exists {
				return nil, &types.ConditionalCheckFailedException{Message: aws.String("version missing")}
			}
			current, ok := existing["version"].(*types.AttributeValueMemberN)
			if !ok || current.Value != expected.Value {
				return nil, &types.ConditionalCheckFailedException{Message: aws.String("stale version")}
			}
		}
	}

	table[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := f.table(aws.ToString(params.TableName))
	item := table[f.itemKey(aws.ToString(params.TableName), params.Key)]
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// The services only query "#pk = :pk".
	var pkName string
	for _, name := range params.ExpressionAttributeNames {
		pkName = name
	}
	pkValue := ""
	if v, ok := params.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS); ok {
		pkValue = v.Value
	}

	var items []map[string]types.AttributeValue
	for _, item := range f.table(aws.ToString(params.TableName)) {
		if attrString(item, pkName) == pkValue {
			items = append(items, item)
		}
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []map[string]types.AttributeValue
	for _, item := range f.table(aws.ToString(params.TableName)) {
		items = append(items, item)
	}
	return &dynamodb.ScanOutput{Items: items}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := f.table(aws.ToString(params.TableName))
	delete(table, f.itemKey(aws.ToString(params.TableName), params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

// captureEmitter records realtime events for assertions.
type captureEmitter struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	MatchID string
	Event   string
	Payload interface{}
}

func (c *captureEmitter) EmitToMatch(matchID, event string, payload interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, capturedEvent{MatchID: matchID, Event: event, Payload: payload})
}

func (c *captureEmitter) count(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Event == event {
			n++
		}
	}
	return n
}
