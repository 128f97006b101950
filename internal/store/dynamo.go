package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DynamoStore implements IncidentStore on a DynamoDB table keyed by
// incident_id.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

var _ IncidentStore = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table.
// The client should be initialized from the shared AWS config.
func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}
}

func (s *DynamoStore) PutIncident(ctx context.Context, incident *Incident) error {
	if incident.IncidentID == "" {
		incident.IncidentID = uuid.NewString()
	}
	if incident.CreatedAt == "" {
		incident.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	item, err := attributevalue.MarshalMap(incident)
	if err != nil {
		return fmt.Errorf("marshal incident %s: %w", incident.IncidentID, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem incident %s: %w", incident.IncidentID, err)
	}

	log.Debug().
		Str("incidentId", incident.IncidentID).
		Str("timestamp", incident.Timestamp).
		Msg("Incident persisted to DynamoDB")
	return nil
}

func (s *DynamoStore) ListIncidents(ctx context.Context) ([]Incident, error) {
	input := &dynamodb.ScanInput{TableName: &s.tableName}

	var incidents []Incident

	// Scan is fine at dispatch-log volumes; paginate for the 1MB page limit.
	for {
		result, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("Scan %s: %w", s.tableName, err)
		}

		for _, item := range result.Items {
			var incident Incident
			if err := attributevalue.UnmarshalMap(item, &incident); err != nil {
				log.Warn().Err(err).Msg("Failed to unmarshal incident, skipping")
				continue
			}
			incidents = append(incidents, incident)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	sortNewestFirst(incidents)
	return incidents, nil
}

// sortNewestFirst orders incidents by timestamp descending. Timestamps are
// RFC 3339 strings, so lexical order is chronological order.
func sortNewestFirst(incidents []Incident) {
	sort.SliceStable(incidents, func(i, j int) bool {
		return incidents[i].Timestamp > incidents[j].Timestamp
	})
}
