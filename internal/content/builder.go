// Package content builds the HTML body that gets published: either a
// direct markdown conversion or an AI-assisted merge of the markdown
// into a named page template, with truncation fallbacks layered on top.
package content

import (
	"fmt"
	"regexp"
	"strings"

	"pagepress/internal/confluence"
	"pagepress/internal/gemini"
	"pagepress/internal/markdown"
	"pagepress/pkg/logger"
)

// lateSectionMarker is a heading known to sit late in the documents
// this tool publishes. If it survives the merge but the output still
// shrank below the source, the model almost certainly dropped content.
const lateSectionMarker = "## How to Use"

// headingPattern captures heading text for the truncation guard. It
// intentionally also matches deeper heading levels; the sloppiness is
// part of the compatibility contract.
var headingPattern = regexp.MustCompile(`##\s+([^\n]+)`)

type Builder struct {
	generator gemini.Generator
	log       *logger.Logger
}

func NewBuilder(generator gemini.Generator, log *logger.Logger) *Builder {
	return &Builder{generator: generator, log: log}
}

// Direct converts the markdown source straight to HTML. Pure function
// of the source, no network calls.
func (b *Builder) Direct(source string) (string, error) {
	return markdown.ToHTML(source)
}

// MergeWithTemplate asks the generative model to convert the markdown
// and merge it into the template's structure. Every failure mode falls
// back to the direct conversion: a model error, and a response that
// kept the late-section marker yet came back shorter than the source.
func (b *Builder) MergeWithTemplate(template *confluence.Template, source string) (string, error) {
	direct, err := b.Direct(source)
	if err != nil {
		return "", err
	}

	prompt := buildMergePrompt(template.Body, source)

	generation, err := b.generator.GenerateContent(prompt)
	if err != nil {
		b.log.Warn("Generative merge failed, using direct conversion: %v", err)
		return direct, nil
	}

	generation = stripFenceMarkers(generation)

	if strings.Contains(source, lateSectionMarker) &&
		strings.Contains(generation, lateSectionMarker) &&
		len(generation) < len(source) {
		b.log.Warn("Generated content may be truncated, using direct conversion")
		return direct, nil
	}

	return generation, nil
}

func buildMergePrompt(templateBody, markdownContent string) string {
	return fmt.Sprintf(`I need to convert markdown content into Confluence-compatible HTML and merge it with a template.

CONFLUENCE TEMPLATE:
%s

MARKDOWN CONTENT:
%s

Please:
1. Convert ALL of the markdown content to proper Confluence HTML format
2. Merge it with the template structure
3. Ensure ALL sections of the markdown are included (especially beyond "## How to Use")
4. Format inline code tags (`+"`like this`"+`) as <code> elements
5. Format code blocks correctly for Confluence (without `+"```html or ```"+` markers)
6. Preserve all headings, lists, tables and other formatting
7. DO NOT truncate the content - include EVERYTHING from the markdown file

Return ONLY the final HTML content without any markdown or code block markers.`, templateBody, markdownContent)
}

func stripFenceMarkers(s string) string {
	s = strings.ReplaceAll(s, "```html", "")
	return strings.ReplaceAll(s, "```", "")
}

// EnsureComplete is the truncation guard. If the last heading of the
// source does not appear verbatim in the built content, the full
// direct conversion is appended under an "Additional Content" rule.
// The built content only ever grows, it is never replaced. The check
// is plain string containment: heading text that reappears in a
// different casing is a false positive and truncation after the final
// heading a false negative; both are accepted for compatibility.
func (b *Builder) EnsureComplete(source, built string) (string, error) {
	sections := headingPattern.FindAllStringSubmatch(source, -1)
	if len(sections) == 0 {
		return built, nil
	}

	last := sections[len(sections)-1][1]
	if strings.Contains(built, last) {
		return built, nil
	}

	b.log.Warn("Content appears truncated, appending direct conversion")
	direct, err := b.Direct(source)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\n<hr/>\n<h2>Additional Content:</h2>\n%s", built, direct), nil
}
