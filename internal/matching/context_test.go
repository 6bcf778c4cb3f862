package matching

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-copilot/internal/skills"
	"github.com/jonathan/career-copilot/internal/types"
	"github.com/jonathan/career-copilot/internal/vectorindex"
)

type queryCall struct {
	text    string
	limit   int
	docType vectorindex.DocType
}

// fakeKnowledge answers queries from a table keyed by type and text.
type fakeKnowledge struct {
	answers map[vectorindex.DocType]map[string][]vectorindex.Result
	err     error
	calls   []queryCall
}

func (f *fakeKnowledge) Query(_ context.Context, text string, limit int, docType vectorindex.DocType) ([]vectorindex.Result, error) {
	f.calls = append(f.calls, queryCall{text: text, limit: limit, docType: docType})
	if f.err != nil {
		return nil, f.err
	}
	results := f.answers[docType][text]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func doc(docType vectorindex.DocType, skill, content, tool string) vectorindex.Result {
	return vectorindex.Result{Document: vectorindex.Document{
		ID:       skill + ":" + content,
		Content:  content,
		Metadata: vectorindex.Metadata{Type: docType, Skill: skill, Tool: tool},
	}}
}

func testJob() *types.Job {
	return &types.Job{
		JobID:           "42",
		Title:           "Data Engineer",
		Company:         "Acme",
		KeyTechnologies: `["Python", " SQL "]`,
		Requirements:    `["Build ETL pipelines", "", "Build ETL pipelines"]`,
	}
}

func testResume() *types.Resume {
	return &types.Resume{
		ID:         7,
		Name:       "Ada",
		Skills:     `["python", "Docker"]`,
		Experience: `[{"company": "X", "responsibilities": ["Wrote Airflow DAGs", "  "]}]`,
	}
}

func knowledgeFixture() *fakeKnowledge {
	return &fakeKnowledge{answers: map[vectorindex.DocType]map[string][]vectorindex.Result{
		vectorindex.TypeDefinition: {
			"python": {doc(vectorindex.TypeDefinition, "python", "Skill: python\nDefinition: language", "")},
			"sql":    {doc(vectorindex.TypeDefinition, "SQL", "Skill: sql\nDefinition: queries", "")},
		},
		vectorindex.TypeTool: {
			"python": {doc(vectorindex.TypeTool, "python", "Tool: pytest is a tool for: python", "pytest")},
			"docker": {doc(vectorindex.TypeTool, "docker", "Tool: compose is a tool for: docker", "")},
		},
		vectorindex.TypeManifestation: {
			"Wrote Airflow DAGs": {
				doc(vectorindex.TypeManifestation, "python", "Resume example: airflow demonstrates skill: python", ""),
				doc(vectorindex.TypeManifestation, "airflow", "Resume example: dags demonstrates skill: airflow", ""),
			},
			"Build ETL pipelines": {
				doc(vectorindex.TypeManifestation, "python", "Resume example: airflow demonstrates skill: python", ""),
			},
		},
	}}
}

func TestNewContextBuilder_RejectsNil(t *testing.T) {
	store := knowledgeFixture()

	tests := []struct {
		name   string
		job    *types.Job
		resume *types.Resume
		store  KnowledgeQuerier
		field  string
	}{
		{name: "job", resume: testResume(), store: store, field: "job"},
		{name: "resume", job: testJob(), store: store, field: "resume"},
		{name: "store", job: testJob(), resume: testResume(), field: "knowledge store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewContextBuilder(tt.job, tt.resume, tt.store, DefaultLimits(), nil)
			var die *DataIntegrityError
			require.True(t, errors.As(err, &die))
			assert.Equal(t, tt.field, die.Field)
		})
	}
	assert.Empty(t, store.calls)
}

func TestCollect(t *testing.T) {
	store := knowledgeFixture()
	b, err := NewContextBuilder(testJob(), testResume(), store, DefaultLimits(), nil)
	require.NoError(t, err)

	sc, err := b.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"airflow", "docker", "python", "sql"}, sc.Skills())

	assert.Equal(t, "Skill: python\nDefinition: language", sc["python"].Definition)
	assert.Equal(t, []string{"pytest"}, sc["python"].Tools.Items())
	assert.Equal(t, []string{"Resume example: airflow demonstrates skill: python"}, sc["python"].Examples.Items())

	// metadata skill is normalized
	assert.Equal(t, "Skill: sql\nDefinition: queries", sc["sql"].Definition)

	// tool without metadata falls back to content
	assert.Equal(t, []string{"Tool: compose is a tool for: docker"}, sc["docker"].Tools.Items())
	assert.Empty(t, sc["docker"].Definition)

	assert.Equal(t, 0, sc["airflow"].Tools.Len())
	assert.Equal(t, 1, sc["airflow"].Examples.Len())
}

func TestCollect_QueriesEachSkillOnce(t *testing.T) {
	store := knowledgeFixture()
	b, err := NewContextBuilder(testJob(), testResume(), store, Limits{Definitions: 2, Tools: 3, Manifestations: 4}, nil)
	require.NoError(t, err)

	_, err = b.Collect(context.Background())
	require.NoError(t, err)

	byType := map[vectorindex.DocType][]string{}
	for _, c := range store.calls {
		byType[c.docType] = append(byType[c.docType], c.text)
		switch c.docType {
		case vectorindex.TypeDefinition:
			assert.Equal(t, 2, c.limit)
		case vectorindex.TypeTool:
			assert.Equal(t, 3, c.limit)
		case vectorindex.TypeManifestation:
			assert.Equal(t, 4, c.limit)
		}
	}

	// python appears in both the job and the resume but is queried once
	assert.Equal(t, []string{"docker", "python", "sql"}, byType[vectorindex.TypeDefinition])
	assert.Equal(t, []string{"docker", "python", "sql"}, byType[vectorindex.TypeTool])
	// blank and duplicate lines are skipped
	assert.Equal(t, []string{"Wrote Airflow DAGs", "Build ETL pipelines"}, byType[vectorindex.TypeManifestation])
}

func TestCollect_BlankFieldsAreEmpty(t *testing.T) {
	store := knowledgeFixture()
	job := &types.Job{JobID: "1"}
	resume := &types.Resume{Skills: "  "}

	b, err := NewContextBuilder(job, resume, store, DefaultLimits(), nil)
	require.NoError(t, err)

	sc, err := b.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sc)
	assert.Empty(t, store.calls)
	assert.Equal(t, NoContext, Render(sc))
}

func TestCollect_MalformedField(t *testing.T) {
	tests := []struct {
		name   string
		job    *types.Job
		resume *types.Resume
		field  string
	}{
		{name: "key technologies", job: &types.Job{KeyTechnologies: "python, sql"}, resume: testResume(), field: "job.key_technologies"},
		{name: "skills", job: testJob(), resume: &types.Resume{Skills: `{"a": 1}`}, field: "resume.skills"},
		{name: "experience", job: testJob(), resume: &types.Resume{Skills: `[]`, Experience: `["not a record"]`}, field: "resume.experience"},
		{name: "requirements", job: &types.Job{Requirements: `[1, 2]`}, resume: &types.Resume{}, field: "job.requirements"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := knowledgeFixture()
			b, err := NewContextBuilder(tt.job, tt.resume, store, DefaultLimits(), nil)
			require.NoError(t, err)

			_, err = b.Collect(context.Background())
			var die *DataIntegrityError
			require.True(t, errors.As(err, &die), "got %v", err)
			assert.Equal(t, tt.field, die.Field)
			assert.Empty(t, store.calls)
		})
	}
}

func TestCollect_QueryError(t *testing.T) {
	store := knowledgeFixture()
	store.err = vectorindex.ErrCollectionNotFound

	b, err := NewContextBuilder(testJob(), testResume(), store, DefaultLimits(), nil)
	require.NoError(t, err)

	_, err = b.BuildContext(context.Background())
	assert.ErrorIs(t, err, vectorindex.ErrCollectionNotFound)
}

func TestRender(t *testing.T) {
	sc := SkillContext{}
	py := sc.entry("python")
	py.Definition = "Skill: python"
	py.Tools.Add("pytest", "pip")
	py.Examples.Add("example one", "example two")
	sc.entry("aws")

	want := strings.Join([]string{
		"TECHNICAL KNOWLEDGE CONTEXT:",
		strings.Repeat("=", 80),
		"",
		"SKILL: AWS",
		strings.Repeat("-", 80),
		"Definition: Not available",
		"Common Tools/Technologies: None listed",
		"Practical Applications: None listed",
		"",
		"SKILL: PYTHON",
		strings.Repeat("-", 80),
		"Definition: Skill: python",
		"Common Tools/Technologies: pytest, pip",
		"Practical Applications:",
		"  1. example one",
		"  2. example two",
		"",
	}, "\n")

	assert.Equal(t, want, Render(sc))
}

func TestRender_Deterministic(t *testing.T) {
	build := func() string {
		b, err := NewContextBuilder(testJob(), testResume(), knowledgeFixture(), DefaultLimits(), nil)
		require.NoError(t, err)
		out, err := b.BuildContext(context.Background())
		require.NoError(t, err)
		return out
	}
	first := build()
	assert.Equal(t, first, build())
	assert.Less(t, strings.Index(first, "SKILL: AIRFLOW"), strings.Index(first, "SKILL: SQL"))
}

func TestSkillKnowledgeSetsAreOrdered(t *testing.T) {
	k := &SkillKnowledge{Tools: skills.NewSet("b", "a", "b")}
	assert.Equal(t, []string{"b", "a"}, k.Tools.Items())
}
