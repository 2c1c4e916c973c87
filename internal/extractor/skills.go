package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	skillRetrievalQuery = "required skills"
	skillRetrievalTopK  = 2

	skillSystem = "Return ONLY a raw JSON array of skill names."
)

// Retriever serves top-k reference documents for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
}

// SkillExtractionError carries the raw model output that contained no
// parseable skill array.
type SkillExtractionError struct {
	RawOutput string
	Err       error
}

func (e *SkillExtractionError) Error() string {
	return fmt.Sprintf("skill extraction failed: %v", e.Err)
}

func (e *SkillExtractionError) Unwrap() error { return e.Err }

// SkillExtractor derives the required-skill set from the reference corpus:
// retrieval narrows the corpus to relevant documents, then one generation
// call turns them into a flat skill array. No repair retry here: the
// output space is simple enough that malformed answers are rare.
type SkillExtractor struct {
	index     Retriever
	generator Generator
	logger    *zap.Logger
}

func NewSkillExtractor(index Retriever, generator Generator, logger *zap.Logger) *SkillExtractor {
	return &SkillExtractor{index: index, generator: generator, logger: logger}
}

// RequiredSkills retrieves context from the corpus and extracts the skill
// names it requires.
func (e *SkillExtractor) RequiredSkills(ctx context.Context) ([]string, error) {
	docs, err := e.index.Retrieve(ctx, skillRetrievalQuery, skillRetrievalTopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve reference context: %w", err)
	}

	return e.ExtractRequiredSkills(ctx, strings.Join(docs, "\n"))
}

// ExtractRequiredSkills asks the generation service for a strict JSON
// array of skills found in the given context text.
func (e *SkillExtractor) ExtractRequiredSkills(ctx context.Context, contextText string) ([]string, error) {
	raw, err := e.generator.Complete(ctx, skillSystem, skillPrompt(contextText), 0)
	if err != nil {
		return nil, fmt.Errorf("skill extraction request failed: %w", err)
	}

	skills, err := parseSkillArray(raw)
	if err != nil {
		return nil, &SkillExtractionError{RawOutput: raw, Err: err}
	}

	e.logger.Debug("required skills extracted", zap.Strings("skills", skills))
	return skills, nil
}

func parseSkillArray(raw string) ([]string, error) {
	raw = strings.ReplaceAll(raw, "```json", "")
	raw = strings.ReplaceAll(raw, "```", "")
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array detected in output")
	}

	var skills []string
	if err := json.Unmarshal([]byte(raw[start:end+1]), &skills); err != nil {
		return nil, fmt.Errorf("parse skill array: %w", err)
	}

	return skills, nil
}

func skillPrompt(contextText string) string {
	return fmt.Sprintf(`
Extract required technical skills from the job description below.

Return ONLY a JSON array of skill names.

Example:
["Python", "RAG", "AWS"]

Do NOT include explanations.
Do NOT use markdown.

Job Description:
%s
`, contextText)
}
