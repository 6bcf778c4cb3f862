package knowledge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/career-copilot/internal/skills"
	"github.com/jonathan/career-copilot/internal/vectorindex"
)

// SkillFile is the YAML layout of one skill knowledge file.
type SkillFile struct {
	SkillName            string   `yaml:"skill_name"`
	Definition           string   `yaml:"definition"`
	RelatedSkills        []string `yaml:"related_skills"`
	SpecificTools        []string `yaml:"specific_tools"`
	ResumeManifestations []string `yaml:"resume_manifestations"`
	Category             string   `yaml:"category"`

	// Source is the file name, filled in by the loader.
	Source string `yaml:"-"`
}

// ParseSkillFile decodes a skill file. source names the file in metadata and errors.
func ParseSkillFile(data []byte, source string) (*SkillFile, error) {
	var sf SkillFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&sf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SkillFileError{File: source, Message: "file is empty"}
		}
		return nil, &SkillFileError{File: source, Message: "invalid YAML", Cause: err}
	}

	sf.SkillName = strings.TrimSpace(sf.SkillName)
	if sf.SkillName == "" {
		return nil, &SkillFileError{File: source, Message: "skill_name is required"}
	}
	sf.Definition = strings.TrimSpace(sf.Definition)
	sf.Category = strings.TrimSpace(sf.Category)
	sf.Source = source
	return &sf, nil
}

func readSkillFile(path string) (*SkillFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SkillFileError{File: path, Message: "failed to read", Cause: err}
	}
	return ParseSkillFile(data, filepath.Base(path))
}

// DefinitionContent renders the text embedded for a skill definition.
func DefinitionContent(name, definition string, related []string) string {
	return fmt.Sprintf("Skill: %s\nDefinition: %s\nSimilar Skills: %s", name, definition, strings.Join(related, ", "))
}

// ManifestationContent renders the text embedded for a resume example.
func ManifestationContent(example, name string) string {
	return fmt.Sprintf("Resume example: %s demonstrates skill: %s", example, name)
}

// ToolContent renders the text embedded for a tool.
func ToolContent(tool, name string) string {
	return fmt.Sprintf("Tool: %s is a tool for: %s", tool, name)
}

type skillDocs struct {
	definition     *vectorindex.Document
	manifestations []vectorindex.Document
	tools          []vectorindex.Document
	seen           map[string]struct{}
}

// documentBuilder merges skill files into documents, keyed by normalized skill.
type documentBuilder struct {
	order   []string
	bySkill map[string]*skillDocs
}

func newDocumentBuilder() *documentBuilder {
	return &documentBuilder{bySkill: make(map[string]*skillDocs)}
}

// add merges sf. A later definition of the same skill replaces the earlier one;
// tools and manifestations accumulate without duplicates.
func (b *documentBuilder) add(sf *SkillFile) {
	key := skills.Normalize(sf.SkillName)
	sd, ok := b.bySkill[key]
	if !ok {
		sd = &skillDocs{seen: make(map[string]struct{})}
		b.bySkill[key] = sd
		b.order = append(b.order, key)
	}

	sd.definition = &vectorindex.Document{
		ID:      uuid.NewString(),
		Content: DefinitionContent(sf.SkillName, sf.Definition, trimAll(sf.RelatedSkills)),
		Metadata: vectorindex.Metadata{
			Type:     vectorindex.TypeDefinition,
			Skill:    key,
			Category: sf.Category,
			Source:   sf.Source,
		},
	}

	for _, example := range trimAll(sf.ResumeManifestations) {
		content := ManifestationContent(example, sf.SkillName)
		if sd.markSeen(content) {
			sd.manifestations = append(sd.manifestations, vectorindex.Document{
				ID:      uuid.NewString(),
				Content: content,
				Metadata: vectorindex.Metadata{
					Type:   vectorindex.TypeManifestation,
					Skill:  key,
					Source: sf.Source,
				},
			})
		}
	}

	for _, tool := range trimAll(sf.SpecificTools) {
		content := ToolContent(tool, sf.SkillName)
		if sd.markSeen(content) {
			sd.tools = append(sd.tools, vectorindex.Document{
				ID:      uuid.NewString(),
				Content: content,
				Metadata: vectorindex.Metadata{
					Type:   vectorindex.TypeTool,
					Skill:  key,
					Tool:   tool,
					Source: sf.Source,
				},
			})
		}
	}
}

func (sd *skillDocs) markSeen(content string) bool {
	if _, ok := sd.seen[content]; ok {
		return false
	}
	sd.seen[content] = struct{}{}
	return true
}

func (b *documentBuilder) skillCount() int {
	return len(b.order)
}

// documents returns every document in skill first-seen order.
func (b *documentBuilder) documents() []vectorindex.Document {
	var docs []vectorindex.Document
	for _, key := range b.order {
		sd := b.bySkill[key]
		docs = append(docs, *sd.definition)
		docs = append(docs, sd.manifestations...)
		docs = append(docs, sd.tools...)
	}
	return docs
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
