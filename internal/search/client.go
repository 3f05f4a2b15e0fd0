// Package search 알람 발생 이력의 Elasticsearch 인덱싱/검색.
// 인덱스는 일 단위로 롤링된다: {prefix}-YYYY.MM.DD
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"pulseone-console/internal/config"
	"pulseone-console/internal/models"
)

// OccurrenceDoc ES에 저장되는 발생 문서
type OccurrenceDoc struct {
	OccurrenceID  uint      `json:"occurrence_id"`
	RuleID        uint      `json:"rule_id"`
	RuleName      string    `json:"rule_name"`
	DeviceID      string    `json:"device_id,omitempty"`
	DeviceName    string    `json:"device_name,omitempty"`
	DataPointName string    `json:"data_point_name,omitempty"`
	Severity      string    `json:"severity"`
	State         string    `json:"state"`
	Category      string    `json:"category,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	TriggerValue  string    `json:"trigger_value,omitempty"`
	AlarmMessage  string    `json:"alarm_message,omitempty"`
	Location      string    `json:"location,omitempty"`
	SourceName    string    `json:"source_name,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
	Timestamp     time.Time `json:"@timestamp"`
}

// Client alarm.Indexer 구현
type Client struct {
	es     *elasticsearch.Client
	cfg    config.ElasticsearchConfig
	logger *zap.Logger
}

// NewClient 비활성 설정이면 (nil, nil)을 돌려준다
func NewClient(cfg config.ElasticsearchConfig, log *zap.Logger) (*Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if log == nil {
		log = zap.NewNop()
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	log.Info("elasticsearch client initialized",
		zap.Strings("addresses", cfg.Addresses),
		zap.String("index_prefix", cfg.IndexPrefix))

	return &Client{es: es, cfg: cfg, logger: log}, nil
}

// Ping 클러스터 연결 확인 (헬스 체크용)
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.es == nil {
		return fmt.Errorf("elasticsearch not configured")
	}

	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch returned error: %s", res.String())
	}
	return nil
}

// indexName 호출 시점 기준의 일별 인덱스 이름
func (c *Client) indexName() string {
	return fmt.Sprintf("%s-%s", c.cfg.IndexPrefix, time.Now().Format("2006.01.02"))
}

func (c *Client) indexPattern() string {
	return fmt.Sprintf("%s-*", c.cfg.IndexPrefix)
}

// IndexOccurrence 발생 1건 인덱싱
func (c *Client) IndexOccurrence(ctx context.Context, occ *models.AlarmOccurrence) error {
	if c == nil || c.es == nil {
		return nil
	}

	doc := OccurrenceDoc{
		OccurrenceID:  occ.ID,
		RuleID:        occ.RuleID,
		RuleName:      occ.RuleName,
		DeviceID:      occ.DeviceID,
		DeviceName:    occ.DeviceName,
		DataPointName: occ.DataPointName,
		Severity:      occ.Severity,
		State:         occ.State,
		Category:      occ.Category,
		Tags:          parseTags(occ.Tags),
		TriggerValue:  occ.TriggerValue,
		AlarmMessage:  occ.AlarmMessage,
		Location:      occ.Location,
		SourceName:    occ.SourceName,
		OccurredAt:    occ.OccurrenceTime,
		Timestamp:     time.Now().UTC(),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal occurrence doc: %w", err)
	}

	// 같은 발생의 상태 전이는 같은 문서를 덮어쓴다
	req := esapi.IndexRequest{
		Index:      c.indexName(),
		DocumentID: fmt.Sprintf("%d", occ.ID),
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("failed to index occurrence: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch indexing error: %s", res.String())
	}

	c.logger.Debug("occurrence indexed",
		zap.Uint("occurrence_id", occ.ID),
		zap.String("index", c.indexName()))
	return nil
}

// Query 이력 검색 조건
type Query struct {
	RuleID    *uint
	DeviceID  string
	Severity  string
	State     string
	Category  string
	Tag       string
	QueryText string
	StartTime *time.Time
	EndTime   *time.Time
	Size      int
	From      int
}

// Result 검색 결과
type Result struct {
	Total int64           `json:"total"`
	Hits  []OccurrenceDoc `json:"hits"`
}

// Search 일별 인덱스 전체를 와일드카드로 검색
func (c *Client) Search(ctx context.Context, q Query) (*Result, error) {
	if c == nil || c.es == nil {
		return &Result{Total: 0, Hits: []OccurrenceDoc{}}, nil
	}

	var must []map[string]interface{}

	if q.RuleID != nil {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"rule_id": *q.RuleID},
		})
	}
	if q.DeviceID != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"device_id": q.DeviceID},
		})
	}
	if q.Severity != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"severity": q.Severity},
		})
	}
	if q.State != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"state": q.State},
		})
	}
	if q.Category != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"category": q.Category},
		})
	}
	if q.Tag != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"tags": q.Tag},
		})
	}
	if q.StartTime != nil || q.EndTime != nil {
		rangeQuery := map[string]interface{}{}
		if q.StartTime != nil {
			rangeQuery["gte"] = q.StartTime.Format(time.RFC3339)
		}
		if q.EndTime != nil {
			rangeQuery["lte"] = q.EndTime.Format(time.RFC3339)
		}
		must = append(must, map[string]interface{}{
			"range": map[string]interface{}{"occurred_at": rangeQuery},
		})
	}
	if q.QueryText != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.QueryText,
				"fields": []string{"rule_name", "alarm_message", "device_name", "data_point_name"},
			},
		})
	}

	size := q.Size
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	searchBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
		"size": size,
		"from": q.From,
		"sort": []map[string]interface{}{
			{"occurred_at": map[string]interface{}{"order": "desc"}},
		},
	}

	body, err := json.Marshal(searchBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.indexPattern()},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return nil, fmt.Errorf("failed to search occurrences: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source OccurrenceDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	result := &Result{
		Total: response.Hits.Total.Value,
		Hits:  make([]OccurrenceDoc, 0, len(response.Hits.Hits)),
	}
	for _, hit := range response.Hits.Hits {
		result.Hits = append(result.Hits, hit.Source)
	}
	return result, nil
}

// CreateIndexTemplate 일별 인덱스에 적용될 매핑 템플릿 생성
func (c *Client) CreateIndexTemplate(ctx context.Context) error {
	if c == nil || c.es == nil {
		return nil
	}

	templateName := fmt.Sprintf("%s-template", c.cfg.IndexPrefix)

	template := map[string]interface{}{
		"index_patterns": []string{c.indexPattern()},
		"template": map[string]interface{}{
			"settings": map[string]interface{}{
				"number_of_shards":   1,
				"number_of_replicas": 1,
				"refresh_interval":   "5s",
			},
			"mappings": map[string]interface{}{
				"properties": map[string]interface{}{
					"occurrence_id":   map[string]string{"type": "long"},
					"rule_id":         map[string]string{"type": "long"},
					"rule_name":       map[string]string{"type": "text"},
					"device_id":       map[string]string{"type": "keyword"},
					"device_name":     map[string]string{"type": "text"},
					"data_point_name": map[string]string{"type": "text"},
					"severity":        map[string]string{"type": "keyword"},
					"state":           map[string]string{"type": "keyword"},
					"category":        map[string]string{"type": "keyword"},
					"tags":            map[string]string{"type": "keyword"},
					"trigger_value":   map[string]string{"type": "keyword"},
					"alarm_message":   map[string]string{"type": "text"},
					"location":        map[string]string{"type": "keyword"},
					"source_name":     map[string]string{"type": "keyword"},
					"occurred_at":     map[string]string{"type": "date"},
					"@timestamp":      map[string]string{"type": "date"},
				},
			},
		},
	}

	body, err := json.Marshal(template)
	if err != nil {
		return fmt.Errorf("failed to marshal index template: %w", err)
	}

	req := esapi.IndicesPutIndexTemplateRequest{
		Name: templateName,
		Body: bytes.NewReader(body),
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("failed to create index template: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		c.logger.Warn("failed to create index template", zap.String("response", res.String()))
	} else {
		c.logger.Info("index template created", zap.String("template", templateName))
	}
	return nil
}

func parseTags(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}
