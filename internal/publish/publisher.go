// Package publish resolves the target title and parent, creates or
// updates the page, and attaches supplementary files.
package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"pagepress/internal/confluence"
	"pagepress/pkg/logger"
)

// DefaultTitleBase is the phrase auto-generated titles are built from.
const DefaultTitleBase = "New Generated Document"

// searchLimit caps the title search. Matches past this window are not
// observed, so a space with more than 100 generated documents can
// produce a colliding suffix; the collision resolves to an update of
// the existing page rather than a duplicate.
const searchLimit = 100

var titleSuffixPattern = regexp.MustCompile(`^` + regexp.QuoteMeta(DefaultTitleBase) + `(?: (\d+))?`)

type Publisher struct {
	client confluence.ConfluenceClient
	log    *logger.Logger
}

func New(client confluence.ConfluenceClient, log *logger.Logger) *Publisher {
	return &Publisher{client: client, log: log}
}

// ResolveTitle returns the explicit title unchanged, or synthesizes
// the next free generated title for the space: the base phrase plus
// max(observed suffix)+1 zero-padded to three digits. A bare
// base-phrase title counts as suffix 0, so it is incremented past,
// never ignored.
func (p *Publisher) ResolveTitle(space, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	cql := fmt.Sprintf(`space = "%s" AND title ~ "%s"`, space, DefaultTitleBase)
	results, err := p.client.SearchPages(cql, searchLimit)
	if err != nil {
		return "", fmt.Errorf("failed to search existing titles: %w", err)
	}

	var numbers []int
	for _, page := range results {
		m := titleSuffixPattern.FindStringSubmatch(page.Title)
		if m == nil {
			continue
		}
		if m[1] == "" {
			numbers = append(numbers, 0)
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}

	next := 1
	if len(numbers) > 0 {
		max := numbers[0]
		for _, n := range numbers[1:] {
			if n > max {
				max = n
			}
		}
		next = max + 1
	}

	return fmt.Sprintf("%s %03d", DefaultTitleBase, next), nil
}

// ResolveParentID looks up the named parent page and returns its ID.
// No name, a lookup miss, or a lookup error all degrade to "" (a
// top-level page) with a warning; the parent is never a hard failure.
func (p *Publisher) ResolveParentID(space, parentName string) string {
	if parentName == "" {
		return ""
	}

	parent, err := p.client.FindPageByTitle(space, parentName)
	if err != nil {
		p.log.Warn("Failed to look up parent page '%s': %v", parentName, err)
		return ""
	}
	if parent == nil {
		p.log.Warn("Parent page '%s' not found in space '%s'", parentName, space)
		return ""
	}

	p.log.Debug("Found parent page '%s' with ID %s", parentName, parent.ID)
	return parent.ID
}

// CreateOrUpdate publishes the body under (space, title): an existing
// page is replaced in full, otherwise a new page is created under
// parentID. The lookup-then-act sequence is not transactional; a page
// created concurrently between the two calls loses the race.
func (p *Publisher) CreateOrUpdate(space, title, body, parentID string) (string, error) {
	existing, err := p.client.FindPageByTitle(space, title)
	if err != nil {
		return "", fmt.Errorf("failed to look up page '%s': %w", title, err)
	}

	if existing != nil {
		if _, err := p.client.UpdatePage(existing.ID, title, body); err != nil {
			return "", fmt.Errorf("failed to update page '%s': %w", title, err)
		}
		p.log.Info("Page '%s' updated successfully", title)
		return existing.ID, nil
	}

	page, err := p.client.CreatePageWithParent(space, title, body, parentID)
	if err != nil {
		return "", fmt.Errorf("failed to create page '%s': %w", title, err)
	}
	p.log.Info("Page '%s' created successfully with ID %s", title, page.ID)
	return page.ID, nil
}

// AttachFiles uploads each local file to the page and returns the
// filenames of the successful uploads. Missing files and upload
// failures are logged and skipped; they never abort the run.
func (p *Publisher) AttachFiles(pageID string, paths []string) []string {
	var attached []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			p.log.Warn("Attachment file not found, skipping: %s", path)
			continue
		}

		filename := filepath.Base(path)
		p.log.Debug("Attaching file %s to page %s", filename, pageID)

		if _, err := p.client.UploadAttachment(pageID, path); err != nil {
			p.log.Warn("Failed to attach %s: %v", filename, err)
			continue
		}

		p.log.Info("Attached %s", filename)
		attached = append(attached, filename)
	}
	return attached
}

// AttachmentSection renders the "Attachments" block appended to the
// page body, one attachment link macro per uploaded file.
func AttachmentSection(filenames []string) string {
	if len(filenames) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n<h2>Attachments</h2>\n<ul>")
	for _, name := range filenames {
		fmt.Fprintf(&sb, "\n<li><ac:link><ri:attachment ri:filename=\"%s\" /></ac:link></li>", name)
	}
	sb.WriteString("\n</ul>")
	return sb.String()
}

// PublishAttachments uploads the given files and, when at least one
// succeeded, appends the attachment links to the body and issues a
// second full-body update. Links are only ever written for confirmed
// uploads. With zero successes the page body is left untouched.
func (p *Publisher) PublishAttachments(pageID, title, body string, paths []string) (string, error) {
	attached := p.AttachFiles(pageID, paths)
	if len(attached) == 0 {
		return body, nil
	}

	updated := body + AttachmentSection(attached)
	if _, err := p.client.UpdatePage(pageID, title, updated); err != nil {
		return "", fmt.Errorf("failed to add attachment links: %w", err)
	}
	p.log.Info("Added attachment links to page '%s'", title)
	return updated, nil
}
