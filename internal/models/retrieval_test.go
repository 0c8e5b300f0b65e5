package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendResponse_MissingFieldsDegrade(t *testing.T) {
	var resp BackendResponse
	require.NoError(t, json.Unmarshal([]byte(`{"citations": null, "chunks_retrieved": -3}`), &resp))
	resp.Sanitize()

	assert.Equal(t, "", resp.Answer)
	assert.NotNil(t, resp.Citations)
	assert.Empty(t, resp.Citations)
	assert.Equal(t, 0, resp.ChunksRetrieved)
}

func TestBackendResponse_ClampsScores(t *testing.T) {
	resp := (&BackendResponse{Citations: []Citation{
		{SourceName: "a", SimilarityScore: 1.4},
		{SourceName: "b", SimilarityScore: -0.2},
		{SourceName: "c", SimilarityScore: 0.6},
	}}).Sanitize()

	assert.Equal(t, 1.0, resp.Citations[0].SimilarityScore)
	assert.Equal(t, 0.0, resp.Citations[1].SimilarityScore)
	assert.Equal(t, 0.6, resp.Citations[2].SimilarityScore)
}

func TestRetrievalConfig_WireNames(t *testing.T) {
	data, err := json.Marshal(RetrievalConfig{MaxChunks: 15, SimilarityThreshold: 0.5, CompetitorList: []string{"Ariel"}, Category: "detergentes"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"max_chunks":15,"similarity_threshold":0.5,"competitor_list":["Ariel"],"category":"detergentes"}`, string(data))
}
