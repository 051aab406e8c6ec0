// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize implements the out-of-scope LLM-summarizer
// collaborator contract: (dataset_summary, parsed_sections) -> text.
// The request/response shapes and the direct Anthropic Messages API HTTP
// call are adapted from the teacher's internal/extract.ClaudeBackend,
// retargeted from a knowledge-item-extraction prompt to a dataset
// enrichment-summary prompt.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"

	"github.com/meshintel/geo-engine/pkg/types"
)

var summaryPromptTmpl = template.Must(template.New("summary").Parse(`You are a biomedical research assistant. Given a GEO dataset's existing summary and the parsed full-text sections of its associated publications, write a two-to-four sentence enrichment summary describing what the dataset was used to study and its key findings. Do not invent facts not supported by the text.

Existing dataset summary:
{{.DatasetSummary}}

Parsed publication sections:
{{.Sections}}
`))

// claudeAPIURL is the Claude Messages API endpoint. Package-level var for
// httptest substitution, matching the teacher's claudeAPIURL idiom.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// Summarizer is the LLM-backed collaborator: Summarize(datasetSummary,
// sections) -> enrichment text.
type Summarizer interface {
	Summarize(ctx context.Context, datasetSummary string, sections map[types.SectionName]string) (string, error)
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// ClaudeSummarizer calls the Claude API to produce a dataset enrichment
// summary from parsed publication sections.
type ClaudeSummarizer struct {
	APIKey string
	Model  string
	Client *http.Client
}

func NewClaudeSummarizer(apiKey, model string) *ClaudeSummarizer {
	return &ClaudeSummarizer{APIKey: apiKey, Model: model}
}

func (c *ClaudeSummarizer) Summarize(ctx context.Context, datasetSummary string, sections map[types.SectionName]string) (string, error) {
	prompt, err := renderPrompt(datasetSummary, sections)
	if err != nil {
		return "", fmt.Errorf("rendering summary prompt: %w", err)
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: 1024,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}

func renderPrompt(datasetSummary string, sections map[types.SectionName]string) (string, error) {
	var sectionsText strings.Builder
	for _, name := range []types.SectionName{
		types.SectionAbstract, types.SectionIntroduction, types.SectionMethods,
		types.SectionResults, types.SectionDiscussion, types.SectionConclusion,
	} {
		if body, ok := sections[name]; ok && body != "" {
			fmt.Fprintf(&sectionsText, "## %s\n%s\n\n", name, body)
		}
	}

	var buf bytes.Buffer
	if err := summaryPromptTmpl.Execute(&buf, struct {
		DatasetSummary string
		Sections       string
	}{DatasetSummary: datasetSummary, Sections: sectionsText.String()}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
