package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRetriever struct {
	docs      []string
	err       error
	lastQuery string
	lastTopK  int
}

func (s *stubRetriever) Retrieve(_ context.Context, query string, topK int) ([]string, error) {
	s.lastQuery = query
	s.lastTopK = topK
	return s.docs, s.err
}

func TestRequiredSkillsRetrievesAndExtracts(t *testing.T) {
	retriever := &stubRetriever{docs: []string{"job description", "hiring policy"}}
	stub := &stubGenerator{responses: []string{`["Python", "RAG", "AWS"]`}}
	e := NewSkillExtractor(retriever, stub, zap.NewNop())

	skills, err := e.RequiredSkills(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Python", "RAG", "AWS"}, skills)
	assert.Equal(t, "required skills", retriever.lastQuery)
	assert.Equal(t, 2, retriever.lastTopK)
	// Both retrieved documents must land in the prompt.
	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "job description")
	assert.Contains(t, stub.prompts[0], "hiring policy")
}

func TestExtractRequiredSkillsToleratesFencesAndProse(t *testing.T) {
	stub := &stubGenerator{responses: []string{"Sure!\n```json\n[\"Go\", \"Docker\"]\n```"}}
	e := NewSkillExtractor(&stubRetriever{}, stub, zap.NewNop())

	skills, err := e.ExtractRequiredSkills(context.Background(), "context")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Docker"}, skills)
}

func TestExtractRequiredSkillsNoArrayFails(t *testing.T) {
	stub := &stubGenerator{responses: []string{"I could not find any skills."}}
	e := NewSkillExtractor(&stubRetriever{}, stub, zap.NewNop())

	_, err := e.ExtractRequiredSkills(context.Background(), "context")
	require.Error(t, err)

	var skillErr *SkillExtractionError
	require.ErrorAs(t, err, &skillErr)
	assert.Equal(t, "I could not find any skills.", skillErr.RawOutput)
	// No repair retry for the simpler array output space.
	assert.Equal(t, 1, stub.calls)
}

func TestExtractRequiredSkillsPropagatesGenerationError(t *testing.T) {
	transportErr := errors.New("service unavailable")
	stub := &stubGenerator{errs: []error{transportErr}}
	e := NewSkillExtractor(&stubRetriever{}, stub, zap.NewNop())

	_, err := e.ExtractRequiredSkills(context.Background(), "context")
	require.ErrorIs(t, err, transportErr)
}

func TestRequiredSkillsPropagatesRetrievalError(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("index unavailable")}
	e := NewSkillExtractor(retriever, &stubGenerator{}, zap.NewNop())

	_, err := e.RequiredSkills(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieve reference context")
}
