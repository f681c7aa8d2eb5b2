package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"talent-match-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQdrantConfig(endpoint string) *config.QdrantConfig {
	return &config.QdrantConfig{
		Endpoint:            endpoint,
		CandidateCollection: "candidate_profiles",
		JobCollection:       "job_postings",
		Dimension:           4,
		TimeoutSeconds:      5,
	}
}

func TestNewQdrant_CreatesMissingCollections(t *testing.T) {
	created := make(map[string]bool)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			// 集合尚不存在
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"status":{"error":"Not found"}}`)
		case http.MethodPut:
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			vectors := body["vectors"].(map[string]interface{})
			assert.Equal(t, float64(4), vectors["size"])
			assert.Equal(t, "Cosine", vectors["distance"])
			name := strings.TrimPrefix(r.URL.Path, "/collections/")
			created[name] = true
			fmt.Fprint(w, `{"result":true,"status":"ok"}`)
		default:
			t.Errorf("意外的请求方法: %s", r.Method)
		}
	}))
	defer server.Close()

	_, err := NewQdrant(testQdrantConfig(server.URL))
	require.NoError(t, err)
	assert.True(t, created["candidate_profiles"])
	assert.True(t, created["job_postings"])
}

func TestQdrant_NearestNeighbors(t *testing.T) {
	var gotLimit float64
	var gotVector []interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"result":{"status":"green"},"status":"ok"}`)
			return
		}
		require.Equal(t, "/collections/job_postings/points/search", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotLimit = body["limit"].(float64)
		gotVector = body["vector"].([]interface{})
		fmt.Fprint(w, `{
			"result": [
				{"id": "job-1", "score": 0.92},
				{"id": "job-2", "score": 0.75},
				{"id": "job-3", "score": 0.40}
			],
			"status": "ok",
			"time": 0.002
		}`)
	}))
	defer server.Close()

	q, err := NewQdrant(testQdrantConfig(server.URL))
	require.NoError(t, err)

	neighbors, err := q.NearestNeighbors(context.Background(), "job_postings", []float64{0.1, 0.2, 0.3, 0.4}, 20)
	require.NoError(t, err)
	assert.Equal(t, float64(20), gotLimit)
	assert.Len(t, gotVector, 4)

	require.Len(t, neighbors, 3)
	assert.Equal(t, "job-1", neighbors[0].ID)
	assert.InDelta(t, 0.08, neighbors[0].Distance, 1e-9)
	assert.Equal(t, "job-2", neighbors[1].ID)
	assert.InDelta(t, 0.25, neighbors[1].Distance, 1e-9)
	assert.InDelta(t, 0.60, neighbors[2].Distance, 1e-9)
}

func TestQdrant_NearestNeighborsDimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"status":"green"},"status":"ok"}`)
	}))
	defer server.Close()

	q, err := NewQdrant(testQdrantConfig(server.URL))
	require.NoError(t, err)

	_, err = q.NearestNeighbors(context.Background(), "job_postings", []float64{0.1, 0.2}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "维度")
}

func TestQdrant_NearestNeighborsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"result":{"status":"green"},"status":"ok"}`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"status":{"error":"segment crashed"}}`)
	}))
	defer server.Close()

	q, err := NewQdrant(testQdrantConfig(server.URL))
	require.NoError(t, err)

	_, err = q.NearestNeighbors(context.Background(), "candidate_profiles", []float64{0.1, 0.2, 0.3, 0.4}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=500")
}

func TestQdrant_UpsertPoint(t *testing.T) {
	var upsertBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"result":{"status":"green"},"status":"ok"}`)
			return
		}
		require.Equal(t, "/collections/candidate_profiles/points", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &upsertBody))
		fmt.Fprint(w, `{"result":{"operation_id":1,"status":"completed"},"status":"ok"}`)
	}))
	defer server.Close()

	q, err := NewQdrant(testQdrantConfig(server.URL))
	require.NoError(t, err)

	err = q.UpsertPoint(context.Background(), "candidate_profiles",
		"6f1e4a3c-9d2b-4c8e-b7a1-0f5e6d7c8b9a",
		[]float64{0.1, 0.2, 0.3, 0.4},
		map[string]interface{}{"name": "张伟"})
	require.NoError(t, err)

	points := upsertBody["points"].([]interface{})
	require.Len(t, points, 1)
	point := points[0].(map[string]interface{})
	assert.Equal(t, "6f1e4a3c-9d2b-4c8e-b7a1-0f5e6d7c8b9a", point["id"])
}

func TestQdrant_UpsertPointDimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"status":"green"},"status":"ok"}`)
	}))
	defer server.Close()

	q, err := NewQdrant(testQdrantConfig(server.URL))
	require.NoError(t, err)

	err = q.UpsertPoint(context.Background(), "candidate_profiles", "p1", []float64{0.1}, nil)
	require.Error(t, err)
}

func TestQdrant_DeletePoint(t *testing.T) {
	var deleteBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"result":{"status":"green"},"status":"ok"}`)
			return
		}
		require.Equal(t, "/collections/job_postings/points/delete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&deleteBody))
		fmt.Fprint(w, `{"result":{"operation_id":2,"status":"completed"},"status":"ok"}`)
	}))
	defer server.Close()

	q, err := NewQdrant(testQdrantConfig(server.URL))
	require.NoError(t, err)

	require.NoError(t, q.DeletePoint(context.Background(), "job_postings", "job-9"))
	points := deleteBody["points"].([]interface{})
	require.Len(t, points, 1)
	assert.Equal(t, "job-9", points[0])
}
