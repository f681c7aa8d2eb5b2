package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"talent-match-go/internal/config"
	"talent-match-go/internal/matcher"
	"talent-match-go/internal/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var qdrantTracer = otel.Tracer("talent-match-go/storage/qdrant")

// Qdrant 提供向量数据库功能
// 同一客户端管理候选人和岗位两个集合，集合均使用余弦距离
type Qdrant struct {
	endpoint   string
	apiKey     string
	vectorSize int
	httpClient *http.Client
}

// QdrantOption 定义Qdrant构造函数选项
type QdrantOption func(*Qdrant)

// WithQdrantHTTPClient 替换底层HTTP客户端(测试注入用)
func WithQdrantHTTPClient(client *http.Client) QdrantOption {
	return func(q *Qdrant) {
		q.httpClient = client
	}
}

// NewQdrant 创建Qdrant客户端并确保候选人/岗位集合存在
func NewQdrant(cfg *config.QdrantConfig, opts ...QdrantOption) (*Qdrant, error) {
	if cfg == nil {
		return nil, fmt.Errorf("qdrant配置不能为空")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:6333"
	}
	vectorSize := cfg.Dimension
	if vectorSize <= 0 {
		vectorSize = 1024
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	q := &Qdrant{
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		vectorSize: vectorSize,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(q)
	}

	for _, collection := range []string{cfg.CandidateCollection, cfg.JobCollection} {
		if collection == "" {
			continue
		}
		if err := q.EnsureCollection(context.Background(), collection); err != nil {
			return nil, fmt.Errorf("确保集合 '%s' 存在失败: %w", collection, err)
		}
	}

	log.Printf("成功连接到Qdrant服务器: %s", endpoint)
	return q, nil
}

// EnsureCollection 确保集合存在，不存在时创建
func (q *Qdrant) EnsureCollection(ctx context.Context, collection string) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.EnsureCollection",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "qdrant"),
			attribute.String("db.collection", collection),
		))
	defer span.End()

	err := q.doRequest(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", collection), nil, nil)
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return nil
	}

	createReq := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     q.vectorSize,
			"distance": "Cosine",
		},
		"optimizers_config": map[string]interface{}{
			"default_segment_number": 2,
		},
	}
	if err := q.doRequest(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", collection), createReq, nil); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("创建集合失败: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	log.Printf("已成功创建Qdrant集合: %s，维度: %d", collection, q.vectorSize)
	return nil
}

// UpsertPoint 写入或覆盖一个向量点
// pointID 必须是UUID格式(与MySQL中的实体ID一致)
func (q *Qdrant) UpsertPoint(ctx context.Context, collection, pointID string, vector []float64, payload map[string]interface{}) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.UpsertPoint",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "qdrant"),
			attribute.String("db.operation", "upsert_points"),
			attribute.String("db.collection", collection),
			attribute.String("point.id", pointID),
		))
	defer span.End()

	if len(vector) != q.vectorSize {
		err := fmt.Errorf("向量维度(%d)与配置维度(%d)不匹配", len(vector), q.vectorSize)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return err
	}

	reqBody := map[string]interface{}{
		"points": []map[string]interface{}{
			{
				"id":      pointID,
				"vector":  vector,
				"payload": payload,
			},
		},
	}
	if err := q.doRequest(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", collection), reqBody, nil); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// NearestNeighbors 检索指定集合中与查询向量最近的k个条目
// Qdrant返回余弦相似度分数，这里换算为距离(1 - score)后按距离升序返回
func (q *Qdrant) NearestNeighbors(ctx context.Context, collection string, queryVector []float64, k int) ([]matcher.Neighbor, error) {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.NearestNeighbors",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "qdrant"),
			attribute.String("db.operation", "search_vectors"),
			attribute.String("db.collection", collection),
			attribute.Int("search.limit", k),
			attribute.Int("query_vector.size", len(queryVector)),
		))
	defer span.End()

	if len(queryVector) != q.vectorSize {
		err := fmt.Errorf("查询向量维度(%d)与配置维度(%d)不匹配", len(queryVector), q.vectorSize)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}
	if k <= 0 {
		k = 10
	}

	searchReq := map[string]interface{}{
		"vector":       queryVector,
		"limit":        k,
		"with_payload": false,
	}

	var result struct {
		Result []struct {
			ID    string  `json:"id"`
			Score float64 `json:"score"`
		} `json:"result"`
		Status string  `json:"status"`
		Time   float64 `json:"time"`
	}
	err := q.doRequest(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", collection), searchReq, &result)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return nil, err
	}

	neighbors := make([]matcher.Neighbor, 0, len(result.Result))
	for _, point := range result.Result {
		neighbors = append(neighbors, matcher.Neighbor{
			ID:       point.ID,
			Distance: 1 - point.Score,
		})
	}

	span.SetAttributes(
		attribute.Int("search.results.count", len(neighbors)),
		attribute.Float64("qdrant.response_time", result.Time),
	)
	span.SetStatus(codes.Ok, "")
	return neighbors, nil
}

// DeletePoint 删除一个向量点
func (q *Qdrant) DeletePoint(ctx context.Context, collection, pointID string) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.DeletePoint",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "qdrant"),
			attribute.String("db.operation", "delete_points"),
			attribute.String("db.collection", collection),
			attribute.String("point.id", pointID),
		))
	defer span.End()

	reqBody := map[string]interface{}{
		"points": []string{pointID},
	}
	if err := q.doRequest(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", collection), reqBody, nil); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// doRequest 执行带追踪的Qdrant HTTP请求
func (q *Qdrant) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	ctx, span := qdrantTracer.Start(ctx, fmt.Sprintf("%s %s", method, path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("net.peer.name", q.endpoint),
			attribute.String("db.system", "qdrant"),
			attribute.String("db.operation", path),
		))
	defer span.End()

	var req *http.Request
	var err error
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}
		req, err = http.NewRequestWithContext(ctx, method, q.endpoint+path, bytes.NewBuffer(jsonBody))
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		span.SetAttributes(attribute.Int("http.request.body.size", len(jsonBody)))
	} else {
		req, err = http.NewRequestWithContext(ctx, method, q.endpoint+path, nil)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := q.httpClient.Do(req)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return err
	}
	span.SetAttributes(attribute.Int("http.response.body.size", len(respBody)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("qdrant API error: status=%d, body=%s", resp.StatusCode, tracing.TruncateString(string(respBody), tracing.DefaultMaxLength))
		tracing.RecordHTTPError(span, err, resp.StatusCode)
		return err
	}

	if result != nil && len(respBody) > 0 {
		if err = json.Unmarshal(respBody, result); err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

var _ matcher.VectorIndex = (*Qdrant)(nil)
