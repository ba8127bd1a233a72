package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fyrsmithlabs/extractd/internal/task"
)

// Default configuration values.
const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-5-sonnet-20241022"
	defaultOpenAIBaseURL    = "https://api.openai.com"
	defaultOpenAIModel      = "gpt-4o-mini"
	defaultMaxTokens        = 1024
	defaultTimeout          = 60 * time.Second
	defaultMaxRetries       = 3
	defaultBaseBackoff      = 1 * time.Second
)

// Rate limiter defaults: 50 requests per minute for both APIs.
const (
	defaultRateLimit = 50.0 / 60.0 // ~0.83 requests per second
	defaultBurst     = 5           // Allow bursts of up to 5 requests
)

// clarifyPrompt is the system prompt for task clarification.
const clarifyPrompt = `You are an expert at reviewing action items extracted from meeting transcripts.

Given a candidate action item and the transcript utterance it came from, decide whether it describes a real, actionable commitment. If it does, restate it cleanly.

Respond with a JSON object containing:
- "valid": true if this is a real action item, false otherwise
- "description": a clean, actionable restatement of the task (required when valid)
- "assignee": the person responsible, or "" if unclear (use names from the utterance only)
- "confidence": your confidence in this judgment (0.0 to 1.0)

Respond ONLY with the JSON object, no additional text.`

// clarifyUserContent renders a record into the user message.
func clarifyUserContent(record task.TaskRecord) string {
	return fmt.Sprintf("Pattern matched: %s\nConfidence: %.2f\nAssignee: %s\n\nCandidate action item:\n%s\n\nSource utterance:\n%s",
		record.PatternType, record.Confidence, record.Assignee,
		scrubSecrets(record.Description), scrubSecrets(record.RawText))
}

// clarifyResponse represents the expected JSON response from LLMs.
type clarifyResponse struct {
	Valid       bool    `json:"valid"`
	Description string  `json:"description"`
	Assignee    string  `json:"assignee"`
	Confidence  float64 `json:"confidence"`
}

// applyClarification interprets an LLM response against the original
// record. A parse failure keeps the record untouched: the oracle is
// advisory and must not destroy heuristic output it cannot improve.
func applyClarification(content string, record task.TaskRecord) (*task.TaskRecord, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var resp clarifyResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return &record, nil
	}

	if !resp.Valid {
		return nil, nil
	}

	if resp.Description != "" {
		record.Description = resp.Description
		record.ID = task.NewRecordID(record.Description, record.Assignee, record.UtteranceIndex)
	}
	if resp.Assignee != "" && resp.Assignee != record.Assignee {
		record.Assignee = resp.Assignee
		record.ID = task.NewRecordID(record.Description, record.Assignee, record.UtteranceIndex)
	}
	if resp.Confidence > 0 && resp.Confidence <= 1.0 {
		record.Confidence = resp.Confidence
	}
	return &record, nil
}

// retryableError wraps an error to indicate it can be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryableError checks if an error should be retried.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	for e := err; e != nil; {
		if _, ok := e.(*retryableError); ok {
			return true
		}
		if unwrapper, ok := e.(interface{ Unwrap() error }); ok {
			e = unwrapper.Unwrap()
		} else {
			break
		}
	}
	return false
}

// scrubSecrets removes common secret patterns from content before sending to API.
// This prevents accidental leakage of API keys, tokens, passwords, etc.
func scrubSecrets(content string) string {
	patterns := []struct {
		regex       *regexp.Regexp
		replacement string
	}{
		{
			regexp.MustCompile(`(OPENAI_API_KEY|ANTHROPIC_API_KEY|GITHUB_TOKEN|GITLAB_TOKEN|AWS_SECRET_ACCESS_KEY)\s*=\s*([^\s]+)`),
			"$1=[REDACTED:ENV_SECRET]",
		},
		{
			regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`),
			"[REDACTED:OPENAI_KEY]",
		},
		{
			regexp.MustCompile(`sk-ant-[a-zA-Z0-9-]{20,}`),
			"[REDACTED:ANTHROPIC_KEY]",
		},
		{
			regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*["']?\s*([^"'\s]{8,})["']?`),
			"$1=[REDACTED:API_KEY]",
		},
		{
			regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_\-\.=]{20,}`),
			"[REDACTED:BEARER_TOKEN]",
		},
		{
			regexp.MustCompile(`(?i)(token|auth[_-]?token)\s*[:=]\s*["']?\s*([^"'\s]{8,})["']?`),
			"$1=[REDACTED:TOKEN]",
		},
		{
			regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*["']?\s*([^"'\s]{4,})["']?`),
			"$1=[REDACTED:PASSWORD]",
		},
	}

	result := content
	for _, p := range patterns {
		result = p.regex.ReplaceAllString(result, p.replacement)
	}

	return result
}
