package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/career-copilot/internal/skills"
	"github.com/jonathan/career-copilot/internal/types"
	"github.com/jonathan/career-copilot/internal/vectorindex"
)

// NoContext is the rendered context when no knowledge was found.
const NoContext = "No additional technical context available."

// Limits bounds how many documents of each type are fetched per query.
type Limits struct {
	Definitions    int
	Tools          int
	Manifestations int
}

// DefaultLimits returns the standard per-query limits.
func DefaultLimits() Limits {
	return Limits{Definitions: 1, Tools: 1, Manifestations: 3}
}

// KnowledgeQuerier is the part of the knowledge store the builder needs.
type KnowledgeQuerier interface {
	Query(ctx context.Context, text string, limit int, docType vectorindex.DocType) ([]vectorindex.Result, error)
}

// SkillKnowledge is what the knowledge base returned for one skill.
type SkillKnowledge struct {
	Definition string
	Tools      *skills.Set
	Examples   *skills.Set
}

// SkillContext maps a normalized skill to its knowledge.
type SkillContext map[string]*SkillKnowledge

func (sc SkillContext) entry(skill string) *SkillKnowledge {
	k, ok := sc[skill]
	if !ok {
		k = &SkillKnowledge{Tools: skills.NewSet(), Examples: skills.NewSet()}
		sc[skill] = k
	}
	return k
}

// Skills returns the skills in alphabetical order.
func (sc SkillContext) Skills() []string {
	names := make([]string, 0, len(sc))
	for name := range sc {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContextBuilder gathers skill knowledge relevant to one resume and job pair.
type ContextBuilder struct {
	job    *types.Job
	resume *types.Resume
	store  KnowledgeQuerier
	limits Limits
	logger *zap.Logger
}

// NewContextBuilder returns a builder for the pair. Missing inputs are a DataIntegrityError.
func NewContextBuilder(job *types.Job, resume *types.Resume, store KnowledgeQuerier, limits Limits, logger *zap.Logger) (*ContextBuilder, error) {
	switch {
	case job == nil:
		return nil, &DataIntegrityError{Field: "job", Message: "must not be nil"}
	case resume == nil:
		return nil, &DataIntegrityError{Field: "resume", Message: "must not be nil"}
	case store == nil:
		return nil, &DataIntegrityError{Field: "knowledge store", Message: "must not be nil"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextBuilder{job: job, resume: resume, store: store, limits: limits, logger: logger}, nil
}

// Collect queries the knowledge store for every skill and experience line of the pair.
func (b *ContextBuilder) Collect(ctx context.Context) (SkillContext, error) {
	jobTech, err := parseStringList("job.key_technologies", b.job.KeyTechnologies)
	if err != nil {
		return nil, err
	}
	resumeSkills, err := parseStringList("resume.skills", b.resume.Skills)
	if err != nil {
		return nil, err
	}
	experience, err := parseExperience("resume.experience", b.resume.Experience)
	if err != nil {
		return nil, err
	}
	requirements, err := parseStringList("job.requirements", b.job.Requirements)
	if err != nil {
		return nil, err
	}

	candidates := skills.Union(
		skills.NewSet(skills.NormalizeAll(jobTech)...),
		skills.NewSet(skills.NormalizeAll(resumeSkills)...),
	)

	sc := make(SkillContext)

	for _, candidate := range candidates.Sorted() {
		definitions, err := b.store.Query(ctx, candidate, b.limits.Definitions, vectorindex.TypeDefinition)
		if err != nil {
			return nil, fmt.Errorf("definitions for %q: %w", candidate, err)
		}
		for _, d := range definitions {
			if key := skills.Normalize(d.Metadata.Skill); key != "" {
				sc.entry(key).Definition = d.Content
			}
		}

		tools, err := b.store.Query(ctx, candidate, b.limits.Tools, vectorindex.TypeTool)
		if err != nil {
			return nil, fmt.Errorf("tools for %q: %w", candidate, err)
		}
		for _, d := range tools {
			key := skills.Normalize(d.Metadata.Skill)
			if key == "" {
				continue
			}
			tool := d.Metadata.Tool
			if tool == "" {
				tool = d.Content
			}
			sc.entry(key).Tools.Add(tool)
		}
	}

	pool := skills.NewSet()
	for _, exp := range experience {
		pool.Add(trimmed(exp.Responsibilities)...)
	}
	pool.Add(trimmed(requirements)...)

	for _, text := range pool.Items() {
		examples, err := b.store.Query(ctx, text, b.limits.Manifestations, vectorindex.TypeManifestation)
		if err != nil {
			return nil, fmt.Errorf("manifestations for %q: %w", text, err)
		}
		for _, d := range examples {
			if key := skills.Normalize(d.Metadata.Skill); key != "" {
				sc.entry(key).Examples.Add(d.Content)
			}
		}
	}

	b.logger.Debug("skill context collected",
		zap.String("job_id", b.job.JobID),
		zap.Int("candidates", candidates.Len()),
		zap.Int("experience_lines", pool.Len()),
		zap.Int("skills", len(sc)),
	)
	return sc, nil
}

// BuildContext collects and renders the pair's context document.
func (b *ContextBuilder) BuildContext(ctx context.Context) (string, error) {
	sc, err := b.Collect(ctx)
	if err != nil {
		return "", err
	}
	return Render(sc), nil
}

// Render formats sc as the text block inserted into the matching prompt.
func Render(sc SkillContext) string {
	if len(sc) == 0 {
		return NoContext
	}

	rule := strings.Repeat("=", 80)
	sep := strings.Repeat("-", 80)

	lines := []string{"TECHNICAL KNOWLEDGE CONTEXT:", rule, ""}
	for _, skill := range sc.Skills() {
		k := sc[skill]
		lines = append(lines, "SKILL: "+strings.ToUpper(skill), sep)

		if k.Definition != "" {
			lines = append(lines, "Definition: "+k.Definition)
		} else {
			lines = append(lines, "Definition: Not available")
		}

		if k.Tools.Len() > 0 {
			lines = append(lines, "Common Tools/Technologies: "+strings.Join(k.Tools.Items(), ", "))
		} else {
			lines = append(lines, "Common Tools/Technologies: None listed")
		}

		if k.Examples.Len() > 0 {
			lines = append(lines, "Practical Applications:")
			for i, example := range k.Examples.Items() {
				lines = append(lines, fmt.Sprintf("  %d. %s", i+1, example))
			}
		} else {
			lines = append(lines, "Practical Applications: None listed")
		}

		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func parseStringList(field, raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &DataIntegrityError{Field: field, Message: "not a JSON list of strings", Cause: err}
	}
	return out, nil
}

func parseExperience(field, raw string) ([]types.Experience, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []types.Experience
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &DataIntegrityError{Field: field, Message: "not a JSON list of experience records", Cause: err}
	}
	return out, nil
}

func trimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
