package parsing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/career-copilot/internal/llm"
	"github.com/jonathan/career-copilot/internal/prompts"
	"github.com/jonathan/career-copilot/internal/schemas"
	"github.com/jonathan/career-copilot/internal/types"
)

type mockClient struct {
	response string
	err      error
	prompt   string
	tier     llm.ModelTier
}

func (m *mockClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return m.GenerateJSON(ctx, prompt, tier)
}

func (m *mockClient) GenerateJSON(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.prompt = prompt
	m.tier = tier
	return m.response, m.err
}

func (m *mockClient) GetModel(llm.ModelTier) string { return "mock" }
func (m *mockClient) Close() error                  { return nil }

func newExtractor(t *testing.T, client llm.Client) *Extractor {
	t.Helper()
	e, err := NewExtractor(client, prompts.Embedded(), nil)
	require.NoError(t, err)
	return e
}

func rawJob() types.RawJob {
	return types.RawJob{
		JobID:       "1",
		Title:       "Platform Engineer",
		Company:     "Acme",
		Location:    "Berlin",
		Description: "We run Kubernetes clusters.",
		URL:         "https://www.linkedin.com/jobs/view/1",
		Source:      "LinkedIn",
		ScrapedAt:   time.Now(),
	}
}

func TestNewExtractor_MissingPrompts(t *testing.T) {
	loader := prompts.NewLoader(fstest.MapFS{
		prompts.ExtractionFile: {Data: []byte(`{"extract-job": "x"}`)},
	})
	_, err := NewExtractor(&mockClient{}, loader, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), prompts.KeyExtractResume)
}

func TestExtractJob(t *testing.T) {
	client := &mockClient{response: "```json\n" + `{
		"description": " Run the platform. ",
		"requirements": ["3 years ops", "", "3 years ops"],
		"key_technologies": ["k8s", "Kubernetes", "golang"]
	}` + "\n```"}
	e := newExtractor(t, client)

	got, err := e.ExtractJob(context.Background(), rawJob())
	require.NoError(t, err)

	assert.Equal(t, "Run the platform.", got.Description)
	assert.Equal(t, []string{"3 years ops"}, got.Requirements)
	assert.Equal(t, []string{"Kubernetes", "Go"}, got.KeyTechnologies)

	assert.Contains(t, client.prompt, "Title: Platform Engineer\nCompany: Acme\nLocation: Berlin")
	assert.Contains(t, client.prompt, "We run Kubernetes clusters.")
	assert.Equal(t, llm.TierLite, client.tier)
}

func TestExtract_LogsTruncatedPreviews(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	client := &mockClient{response: `{"description": "` + strings.Repeat("x", 2*previewLength) + `", "requirements": ["Go"], "key_technologies": ["go"]}`}
	e, err := NewExtractor(client, prompts.Embedded(), zap.New(core))
	require.NoError(t, err)

	_, err = e.ExtractJob(context.Background(), rawJob())
	require.NoError(t, err)

	prompt := logs.FilterMessage("extraction prompt").All()
	require.Len(t, prompt, 1)
	assert.Equal(t, "job_extraction", prompt[0].ContextMap()["schema"])

	response := logs.FilterMessage("extraction response").All()
	require.Len(t, response, 1)
	preview, _ := response[0].ContextMap()["preview"].(string)
	assert.Len(t, []rune(preview), previewLength+len("..."))
	assert.True(t, strings.HasSuffix(preview, "..."))
}

func TestExtractJob_Errors(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		check    func(t *testing.T, err error)
	}{
		{
			name: "api failure",
			err:  errors.New("quota"),
			check: func(t *testing.T, err error) {
				var apiErr *APICallError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, schemas.JobExtraction, apiErr.Schema)
			},
		},
		{
			name:     "schema mismatch",
			response: `{"description": "x", "requirements": "all of them", "key_technologies": []}`,
			check: func(t *testing.T, err error) {
				var pe *ParseError
				require.True(t, errors.As(err, &pe))
				assert.Equal(t, schemas.JobExtraction, pe.Schema)
				assert.Equal(t, "response does not match the schema", pe.Message)
			},
		},
		{
			name:     "not json",
			response: "Sorry, I cannot help with that.",
			check: func(t *testing.T, err error) {
				var pe *ParseError
				assert.True(t, errors.As(err, &pe))
			},
		},
		{
			name:     "blank description after trim",
			response: `{"description": "   ", "requirements": [], "key_technologies": []}`,
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "job", ve.Record)
				assert.Equal(t, "JobExtraction.Description - required", ve.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExtractor(t, &mockClient{response: tt.response, err: tt.err})
			_, err := e.ExtractJob(context.Background(), rawJob())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestExtractResume(t *testing.T) {
	client := &mockClient{response: `{
		"name": " Grace Hopper ",
		"email": "grace@example.com",
		"phone_number": null,
		"summary": "Compiler pioneer",
		"skills": ["COBOL", "cobol", "js"],
		"education": [{"institution": "Yale", "degree": "PhD"}],
		"experience": [{"company": "Navy", "title": "Rear Admiral", "responsibilities": ["Wrote compilers", " "]}],
		"projects": [{"name": "FLOW-MATIC", "technologies": ["UNIVAC"]}]
	}`}
	e := newExtractor(t, client)

	got, err := e.ExtractResume(context.Background(), "Grace Hopper\nRear Admiral")
	require.NoError(t, err)

	assert.Equal(t, "Grace Hopper", got.Name)
	assert.Empty(t, got.PhoneNumber)
	assert.Equal(t, []string{"COBOL", "JavaScript"}, got.Skills)
	require.Len(t, got.Experience, 1)
	assert.Equal(t, []string{"Wrote compilers"}, got.Experience[0].Responsibilities)
	assert.Equal(t, "FLOW-MATIC", got.Projects[0].Name)
	assert.Equal(t, llm.TierLite, client.tier)
	assert.True(t, strings.HasSuffix(client.prompt, "Grace Hopper\nRear Admiral"))
}

func TestExtractResume_EmptyText(t *testing.T) {
	client := &mockClient{}
	e := newExtractor(t, client)

	_, err := e.ExtractResume(context.Background(), " \n ")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "invalid resume: resume text is empty", ve.Error())
	assert.Empty(t, client.prompt, "model must not be called")
}

func TestExtractResume_MissingResponsibilities(t *testing.T) {
	e := newExtractor(t, &mockClient{response: `{"name": "A", "skills": [], "education": [], "experience": [{"company": "X"}]}`})

	_, err := e.ExtractResume(context.Background(), "text")
	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}
