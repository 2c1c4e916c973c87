package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	// Two attempts total: the initial call plus one repair round trip.
	maxExtractionAttempts = 2

	extractionTemperature = 0.1
	extractionSystem      = "Return ONLY strict valid JSON."
)

// Generator is the text-generation service consumed by the extractors.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
}

type Education struct {
	Degree         string `json:"degree"`
	Institution    string `json:"institution"`
	Location       string `json:"location"`
	GPA            any    `json:"gpa"`
	GraduationDate string `json:"graduation_date"`
	Duration       string `json:"duration"`
}

type PreviousRole struct {
	Role     string `json:"role"`
	Company  string `json:"company"`
	Duration string `json:"duration"`
}

// Candidate is the structured extraction result. It lives only for the
// duration of one pipeline run; the completed task row carries its JSON.
type Candidate struct {
	Name                 string         `json:"candidate_name"`
	Email                string         `json:"email"`
	Phone                string         `json:"phone"`
	YearsOfExperience    float64        `json:"years_of_experience"`
	Skills               []string       `json:"skills"`
	Education            []Education    `json:"education"`
	PreviousRoles        []PreviousRole `json:"previous_roles"`
	ExtractionConfidence float64        `json:"extraction_confidence"`
}

// ExtractionError carries the last raw model output alongside the parse or
// validation error that killed the final attempt.
type ExtractionError struct {
	RawOutput string
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("candidate extraction failed after repair attempt: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// CandidateExtractor turns raw resume text into a Candidate via the
// generation service, with a single bounded JSON-repair retry. Models are
// unreliable JSON emitters; one repair round trip raises the success rate
// without unbounded cost.
type CandidateExtractor struct {
	generator Generator
	logger    *zap.Logger
}

func NewCandidateExtractor(generator Generator, logger *zap.Logger) *CandidateExtractor {
	return &CandidateExtractor{generator: generator, logger: logger}
}

func (e *CandidateExtractor) Extract(ctx context.Context, resumeText string) (*Candidate, error) {
	prompt := extractionPrompt(resumeText)

	var rawOutput string
	var lastErr error

	for attempt := 0; attempt < maxExtractionAttempts; attempt++ {
		candidate, raw, err := e.attempt(ctx, prompt)
		if err == nil {
			if attempt > 0 {
				e.logger.Info("candidate extraction recovered on repair attempt")
			}
			return candidate, nil
		}

		rawOutput, lastErr = raw, err
		e.logger.Warn("candidate extraction attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt == 0 {
			prompt = repairPrompt(rawOutput)
		}
	}

	return nil, &ExtractionError{RawOutput: rawOutput, Err: lastErr}
}

func (e *CandidateExtractor) attempt(ctx context.Context, prompt string) (*Candidate, string, error) {
	raw, err := e.generator.Complete(ctx, extractionSystem, prompt, extractionTemperature)
	if err != nil {
		return nil, raw, err
	}

	cleaned, err := sliceJSONObject(raw)
	if err != nil {
		return nil, raw, err
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, raw, fmt.Errorf("parse candidate JSON: %w", err)
	}

	normalizeCandidatePayload(payload)

	normalized, err := json.Marshal(payload)
	if err != nil {
		return nil, raw, fmt.Errorf("re-encode candidate JSON: %w", err)
	}

	if err := validateCandidateJSON(normalized); err != nil {
		return nil, raw, err
	}

	var candidate Candidate
	if err := json.Unmarshal(normalized, &candidate); err != nil {
		return nil, raw, fmt.Errorf("decode candidate record: %w", err)
	}

	return &candidate, raw, nil
}

// sliceJSONObject strips markdown fences and takes the substring between
// the first '{' and the last '}'. Models routinely wrap JSON in prose.
func sliceJSONObject(text string) (string, error) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in model output")
	}

	return text[start : end+1], nil
}

// Field-alias tables consulted during normalization. Models name the same
// fields differently between runs; the first non-empty alias wins.
var (
	previousRoleAliases = []aliasedField{
		{canonical: "role", aliases: []string{"role", "title"}},
		{canonical: "company", aliases: []string{"company"}},
		{canonical: "duration", aliases: []string{"duration", "dates"}},
	}
	educationAliases = []aliasedField{
		{canonical: "degree", aliases: []string{"degree"}},
		{canonical: "institution", aliases: []string{"institution", "university"}},
		{canonical: "location", aliases: []string{"location"}},
		{canonical: "gpa", aliases: []string{"gpa"}},
		{canonical: "graduation_date", aliases: []string{"graduation_date", "year"}},
		{canonical: "duration", aliases: []string{"duration"}},
	}
)

type aliasedField struct {
	canonical string
	aliases   []string
}

func normalizeCandidatePayload(payload map[string]any) {
	payload["previous_roles"] = normalizeEntries(payload["previous_roles"], previousRoleAliases)
	payload["education"] = normalizeEntries(payload["education"], educationAliases)
}

func normalizeEntries(raw any, fields []aliasedField) []map[string]any {
	entries, _ := raw.([]any)
	normalized := make([]map[string]any, 0, len(entries))

	for _, item := range entries {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out := make(map[string]any, len(fields))
		for _, field := range fields {
			out[field.canonical] = firstAliasValue(entry, field.aliases)
		}
		normalized = append(normalized, out)
	}

	return normalized
}

func firstAliasValue(entry map[string]any, aliases []string) any {
	for _, key := range aliases {
		v, ok := entry[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			continue
		}
		return v
	}
	return ""
}

func extractionPrompt(resumeText string) string {
	return fmt.Sprintf(`
You are an expert HR data extraction agent.

Extract structured data from the resume below.

Return ONLY strict valid JSON in this format:

{
    "candidate_name": "",
    "email": "",
    "phone": "",
    "years_of_experience": number,
    "skills": [],
    "education": [],
    "previous_roles": [],
    "extraction_confidence": number between 0 and 1
}

STRICT RULES:
- Output must be valid JSON.
- All strings must be quoted.
- Year ranges must be strings (example: "2011-2016").
- Do NOT include explanations.
- Do NOT use markdown.
- Do NOT wrap in code fences.

Resume:
%s
`, resumeText)
}

func repairPrompt(previousOutput string) string {
	return fmt.Sprintf(`
The previous output was invalid JSON.

Fix it and return ONLY strict valid JSON.
Do not include explanations.
Do not use markdown.

Previous output:
%s
`, previousOutput)
}
