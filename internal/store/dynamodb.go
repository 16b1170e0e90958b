package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/hamed0406/regionalmonitor/internal/domain"
)

var _ Store = (*DynamoStore)(nil)

// DynamoStore is the central-table Store backend described in spec
// §4.4: a single DynamoDB table keyed by (pk, sk) with item-level TTL.
// Construction follows the teacher's repo/postgres.Store.New: resolve
// the client, ping it, wrap it in a thin struct alongside a logger.
type DynamoStore struct {
	client *dynamodb.Client
	table  string
	log    *zap.Logger
}

// New resolves the default AWS SDK v2 credential chain for region and
// connects to table. It pings the table with a bounded DescribeTable
// call so construction fails fast if the table or credentials are bad,
// mirroring the teacher's Ping-on-connect behavior.
func New(ctx context.Context, region, table string, log *zap.Logger) (*DynamoStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.DescribeTable(pingCtx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	}); err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	return &DynamoStore{client: client, table: table, log: log}, nil
}

type item struct {
	PK        string `dynamodbav:"pk"`
	SK        string `dynamodbav:"sk"`
	ExpiresAt int64  `dynamodbav:"expires_at,omitempty"`
}

type checkItem struct {
	item
	domain.CheckResult
}

func (s *DynamoStore) PutCheck(ctx context.Context, cr domain.CheckResult) error {
	rec := checkItem{
		item: item{
			PK:        checkPK(cr.MonitorID),
			SK:        checkSK(cr.TimestampMS, cr.Region),
			ExpiresAt: epochSeconds(time.Now().Add(CheckTTL)),
		},
		CheckResult: cr,
	}
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal check: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.table), Item: av})
	if err != nil {
		return fmt.Errorf("put check: %w", err)
	}
	return nil
}

func (s *DynamoStore) RecentChecks(ctx context.Context, monitorID string, sinceMS int64) ([]domain.CheckResult, error) {
	out, err := s.queryGreaterThan(ctx, checkPK(monitorID), padTS(sinceMS+1))
	if err != nil {
		return nil, fmt.Errorf("query recent checks: %w", err)
	}
	results := make([]domain.CheckResult, 0, len(out))
	for _, av := range out {
		var rec checkItem
		if err := attributevalue.UnmarshalMap(av, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal check: %w", err)
		}
		results = append(results, rec.CheckResult)
	}
	return results, nil
}

type latencyItem struct {
	item
	domain.LatencyPoint
}

func (s *DynamoStore) PutLatency(ctx context.Context, lp domain.LatencyPoint) error {
	rec := latencyItem{
		item: item{
			PK:        latencyPK(lp.MonitorID, lp.Region),
			SK:        latencySK(lp.TimestampMS),
			ExpiresAt: epochSeconds(time.Now().Add(LatencyTTL)),
		},
		LatencyPoint: lp,
	}
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal latency: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.table), Item: av})
	if err != nil {
		return fmt.Errorf("put latency: %w", err)
	}
	return nil
}

func (s *DynamoStore) LatencyHistory(ctx context.Context, monitorID, region string, sinceMS int64) ([]domain.LatencyPoint, error) {
	out, err := s.queryGreaterThan(ctx, latencyPK(monitorID, region), padTS(sinceMS))
	if err != nil {
		return nil, fmt.Errorf("query latency history: %w", err)
	}
	results := make([]domain.LatencyPoint, 0, len(out))
	for _, av := range out {
		var rec latencyItem
		if err := attributevalue.UnmarshalMap(av, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal latency: %w", err)
		}
		results = append(results, rec.LatencyPoint)
	}
	return results, nil
}

type stateItem struct {
	item
	domain.MonitorState
}

func (s *DynamoStore) GetState(ctx context.Context, monitorID string) (*domain.MonitorState, error) {
	key, err := attributevalue.MarshalMap(item{PK: statePK(monitorID), SK: stateSK})
	if err != nil {
		return nil, fmt.Errorf("marshal state key: %w", err)
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: aws.String(s.table), Key: key})
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var rec stateItem
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &rec.MonitorState, nil
}

func (s *DynamoStore) PutState(ctx context.Context, state domain.MonitorState) error {
	rec := stateItem{item: item{PK: statePK(state.MonitorID), SK: stateSK}, MonitorState: state}
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.table), Item: av})
	if err != nil {
		return fmt.Errorf("put state: %w", err)
	}
	return nil
}

// ListStates scans the whole table for sk = "CURRENT" items. Nothing on
// the probe or query-layer request path calls it; the query handlers
// read each monitor's state with GetState.
func (s *DynamoStore) ListStates(ctx context.Context) ([]domain.MonitorState, error) {
	var out []domain.MonitorState
	var startKey map[string]types.AttributeValue
	for {
		res, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			FilterExpression:  aws.String("sk = :sk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":sk": &types.AttributeValueMemberS{Value: stateSK},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan states: %w", err)
		}
		for _, av := range res.Items {
			var rec stateItem
			if err := attributevalue.UnmarshalMap(av, &rec); err != nil {
				return nil, fmt.Errorf("unmarshal state: %w", err)
			}
			out = append(out, rec.MonitorState)
		}
		if res.LastEvaluatedKey == nil {
			break
		}
		startKey = res.LastEvaluatedKey
	}
	return out, nil
}

type incidentItem struct {
	item
	domain.Incident
}

func (s *DynamoStore) GetOpenIncident(ctx context.Context, monitorID string) (*domain.Incident, error) {
	out, err := s.queryGreaterThan(ctx, incidentPK(monitorID), "")
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	for i := len(out) - 1; i >= 0; i-- {
		var rec incidentItem
		if err := attributevalue.UnmarshalMap(out[i], &rec); err != nil {
			return nil, fmt.Errorf("unmarshal incident: %w", err)
		}
		if rec.Incident.Open() {
			inc := rec.Incident
			return &inc, nil
		}
	}
	return nil, nil
}

func (s *DynamoStore) GetIncident(ctx context.Context, monitorID string, startMS int64) (*domain.Incident, error) {
	key, err := attributevalue.MarshalMap(item{PK: incidentPK(monitorID), SK: incidentSK(startMS)})
	if err != nil {
		return nil, fmt.Errorf("marshal incident key: %w", err)
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: aws.String(s.table), Key: key})
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var rec incidentItem
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal incident: %w", err)
	}
	return &rec.Incident, nil
}

func (s *DynamoStore) PutIncident(ctx context.Context, inc domain.Incident) error {
	rec := incidentItem{
		item: item{
			PK:        incidentPK(inc.MonitorID),
			SK:        incidentSK(inc.StartMS),
			ExpiresAt: epochSeconds(time.Now().Add(IncidentTTL)),
		},
		Incident: inc,
	}
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal incident: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.table), Item: av})
	if err != nil {
		return fmt.Errorf("put incident: %w", err)
	}
	return nil
}

func (s *DynamoStore) ListIncidents(ctx context.Context, monitorID string) ([]domain.Incident, error) {
	if monitorID == "" {
		return nil, errors.New("dynamodb store requires a monitor id for ListIncidents (no global secondary index over INCIDENT#)")
	}
	out, err := s.queryGreaterThan(ctx, incidentPK(monitorID), "")
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	results := make([]domain.Incident, 0, len(out))
	for i := len(out) - 1; i >= 0; i-- {
		var rec incidentItem
		if err := attributevalue.UnmarshalMap(out[i], &rec); err != nil {
			return nil, fmt.Errorf("unmarshal incident: %w", err)
		}
		results = append(results, rec.Incident)
	}
	return results, nil
}

type globalItem struct {
	item
	domain.GlobalSummary
}

func (s *DynamoStore) GetGlobalSummary(ctx context.Context) (*domain.GlobalSummary, error) {
	key, err := attributevalue.MarshalMap(item{PK: globalPK, SK: globalSK})
	if err != nil {
		return nil, fmt.Errorf("marshal summary key: %w", err)
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: aws.String(s.table), Key: key})
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var rec globalItem
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &rec.GlobalSummary, nil
}

func (s *DynamoStore) PutGlobalSummary(ctx context.Context, summary domain.GlobalSummary) error {
	rec := globalItem{item: item{PK: globalPK, SK: globalSK}, GlobalSummary: summary}
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.table), Item: av})
	if err != nil {
		return fmt.Errorf("put summary: %w", err)
	}
	return nil
}

// queryGreaterThan runs a Query for pk with sk > skExclusiveStart
// (or the whole partition when skExclusiveStart is empty), ascending.
func (s *DynamoStore) queryGreaterThan(ctx context.Context, pk, skExclusiveStart string) ([]map[string]types.AttributeValue, error) {
	keyCond := "pk = :pk"
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: pk},
	}
	if skExclusiveStart != "" {
		keyCond += " AND sk > :sk"
		values[":sk"] = &types.AttributeValueMemberS{Value: skExclusiveStart}
	}

	var out []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		res, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.table),
			KeyConditionExpression:    aws.String(keyCond),
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         startKey,
			ScanIndexForward:          aws.Bool(true),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if res.LastEvaluatedKey == nil {
			break
		}
		startKey = res.LastEvaluatedKey
	}
	return out, nil
}
