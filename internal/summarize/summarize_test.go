// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/geo-engine/pkg/types"
)

func withStubClaudeServer(t *testing.T, responseText string, statusCode int) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req claudeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Messages)

		w.WriteHeader(statusCode)
		if statusCode == http.StatusOK {
			_ = json.NewEncoder(w).Encode(claudeResponse{
				Content: []struct {
					Type string `json:"type"`
					Text string `json:"text"`
				}{{Type: "text", Text: responseText}},
			})
		}
	}))
	t.Cleanup(server.Close)

	original := claudeAPIURL
	claudeAPIURL = server.URL
	t.Cleanup(func() { claudeAPIURL = original })
}

func TestClaudeSummarizer_Summarize_ReturnsTrimmedText(t *testing.T) {
	withStubClaudeServer(t, "  This dataset profiles gene expression in liver tissue.  ", http.StatusOK)

	s := NewClaudeSummarizer("test-key", "claude-3-opus")
	sections := map[types.SectionName]string{
		types.SectionAbstract: "We profiled gene expression...",
		types.SectionMethods:  "RNA was extracted...",
	}

	text, err := s.Summarize(context.Background(), "existing summary", sections)
	require.NoError(t, err)
	assert.Equal(t, "This dataset profiles gene expression in liver tissue.", text)
}

func TestClaudeSummarizer_Summarize_PropagatesHTTPError(t *testing.T) {
	withStubClaudeServer(t, "", http.StatusInternalServerError)

	s := NewClaudeSummarizer("test-key", "claude-3-opus")
	_, err := s.Summarize(context.Background(), "summary", map[types.SectionName]string{})
	require.Error(t, err)
}

func TestRenderPrompt_IncludesOnlyPresentSectionsInCanonicalOrder(t *testing.T) {
	sections := map[types.SectionName]string{
		types.SectionResults:  "results text",
		types.SectionAbstract: "abstract text",
	}

	prompt, err := renderPrompt("dataset summary", sections)
	require.NoError(t, err)

	abstractIdx := indexOf(prompt, "abstract text")
	resultsIdx := indexOf(prompt, "results text")
	require.NotEqual(t, -1, abstractIdx)
	require.NotEqual(t, -1, resultsIdx)
	assert.Less(t, abstractIdx, resultsIdx)
	assert.NotContains(t, prompt, "## methods")
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
