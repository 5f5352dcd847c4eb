// audit/repository.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/aria7-op/schoolguard/model"
)

const (
	decisionIndex = "access-decisions"
	activityIndex = "subject-activity"
	loginIndex    = "login-attempts"

	// Activity queries stay bounded; the behavioral evaluator only ever
	// looks at the most recent handful of entries anyway.
	activityQuerySize = 50
)

type Repository interface {
	RecordDecision(ctx context.Context, log AccessLog) error
	QueryDecisions(ctx context.Context, from, to time.Time, subjectID, resourceID string) ([]AccessLog, error)
	RecentActivity(ctx context.Context, subjectID string, since time.Time) ([]model.Activity, error)
	FailedLogins(ctx context.Context, subjectID string, since time.Time) ([]model.LoginAttempt, error)
}

type ElasticsearchRepository struct {
	esClient *elasticsearch.Client
}

// NewElasticsearchRepository creates a new repository with a given Elasticsearch client URL.
func NewElasticsearchRepository(esURL string) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}
	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ElasticsearchRepository{esClient: esClient}, nil
}

// RecordDecision indexes one access decision.
func (r *ElasticsearchRepository) RecordDecision(ctx context.Context, log AccessLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      decisionIndex,
		DocumentID: log.EvaluationID,
		Body:       strings.NewReader(string(data)),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, r.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}

	return nil
}

// QueryDecisions searches the decision log within a time frame, optionally
// filtered by subject and resource.
func (r *ElasticsearchRepository) QueryDecisions(ctx context.Context, from, to time.Time, subjectID, resourceID string) ([]AccessLog, error) {
	must := []interface{}{
		map[string]interface{}{
			"range": map[string]interface{}{
				"timestamp": map[string]interface{}{
					"gte": from.Format(time.RFC3339),
					"lte": to.Format(time.RFC3339),
				},
			},
		},
	}
	if subjectID != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"subject_id": subjectID},
		})
	}
	if resourceID != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"resource_id": resourceID},
		})
	}

	hits, err := r.search(ctx, decisionIndex, must, 0)
	if err != nil {
		return nil, err
	}

	logs := make([]AccessLog, len(hits))
	for i, hit := range hits {
		data, _ := json.Marshal(hit)
		json.Unmarshal(data, &logs[i])
	}
	return logs, nil
}

// RecentActivity returns the subject's activity entries since the given
// time, most recent first.
func (r *ElasticsearchRepository) RecentActivity(ctx context.Context, subjectID string, since time.Time) ([]model.Activity, error) {
	must := []interface{}{
		map[string]interface{}{
			"match": map[string]interface{}{"subject_id": subjectID},
		},
		map[string]interface{}{
			"range": map[string]interface{}{
				"timestamp": map[string]interface{}{
					"gte": since.Format(time.RFC3339),
				},
			},
		},
	}

	hits, err := r.search(ctx, activityIndex, must, activityQuerySize)
	if err != nil {
		return nil, err
	}

	activities := make([]model.Activity, len(hits))
	for i, hit := range hits {
		data, _ := json.Marshal(hit)
		json.Unmarshal(data, &activities[i])
	}
	return activities, nil
}

// FailedLogins returns the subject's failed login attempts since the given
// time.
func (r *ElasticsearchRepository) FailedLogins(ctx context.Context, subjectID string, since time.Time) ([]model.LoginAttempt, error) {
	must := []interface{}{
		map[string]interface{}{
			"match": map[string]interface{}{"subject_id": subjectID},
		},
		map[string]interface{}{
			"match": map[string]interface{}{"success": false},
		},
		map[string]interface{}{
			"range": map[string]interface{}{
				"timestamp": map[string]interface{}{
					"gte": since.Format(time.RFC3339),
				},
			},
		},
	}

	hits, err := r.search(ctx, loginIndex, must, activityQuerySize)
	if err != nil {
		return nil, err
	}

	attempts := make([]model.LoginAttempt, len(hits))
	for i, hit := range hits {
		data, _ := json.Marshal(hit)
		json.Unmarshal(data, &attempts[i])
	}
	return attempts, nil
}

func (r *ElasticsearchRepository) search(ctx context.Context, index string, must []interface{}, size int) ([]interface{}, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": must,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"timestamp": map[string]interface{}{"order": "desc"}},
		},
	}
	if size > 0 {
		query["size"] = size
	}

	var buf strings.Builder
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(index),
		r.esClient.Search.WithBody(strings.NewReader(buf.String())),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching documents: %s", res.String())
	}

	var rmap map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&rmap); err != nil {
		return nil, err
	}

	rawHits := rmap["hits"].(map[string]interface{})["hits"].([]interface{})
	sources := make([]interface{}, len(rawHits))
	for i, hit := range rawHits {
		sources[i] = hit.(map[string]interface{})["_source"]
	}
	return sources, nil
}
