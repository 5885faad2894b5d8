package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pagepress/internal/confluence"
	"pagepress/pkg/logger"
)

func newTestPublisher() (*Publisher, *confluence.MockClient) {
	mock := confluence.NewMockClient()
	return New(mock, logger.New(false)), mock
}

func TestResolveTitleExplicit(t *testing.T) {
	p, mock := newTestPublisher()
	mock.SearchResults = []confluence.Page{{Title: DefaultTitleBase}}

	title, err := p.ResolveTitle("DBT", "My Explicit Title")
	if err != nil {
		t.Fatalf("ResolveTitle returned error: %v", err)
	}
	if title != "My Explicit Title" {
		t.Errorf("Expected explicit title unchanged, got %q", title)
	}
}

func TestResolveTitleIncrementsMaxSuffix(t *testing.T) {
	p, mock := newTestPublisher()
	mock.SearchResults = []confluence.Page{
		{Title: DefaultTitleBase},        // counts as 0
		{Title: DefaultTitleBase + " 2"}, // 2
		{Title: DefaultTitleBase + " 5"}, // 5
	}

	title, err := p.ResolveTitle("DBT", "")
	if err != nil {
		t.Fatalf("ResolveTitle returned error: %v", err)
	}
	if title != "New Generated Document 006" {
		t.Errorf("Expected 'New Generated Document 006', got %q", title)
	}
}

func TestResolveTitleNoMatches(t *testing.T) {
	p, _ := newTestPublisher()

	title, err := p.ResolveTitle("DBT", "")
	if err != nil {
		t.Fatalf("ResolveTitle returned error: %v", err)
	}
	if title != "New Generated Document 001" {
		t.Errorf("Expected 'New Generated Document 001', got %q", title)
	}
}

func TestResolveTitleIgnoresUnrelatedTitles(t *testing.T) {
	p, mock := newTestPublisher()
	mock.SearchResults = []confluence.Page{
		{Title: "Some Other Page"},
		{Title: DefaultTitleBase + " 3"},
	}

	title, err := p.ResolveTitle("DBT", "")
	if err != nil {
		t.Fatalf("ResolveTitle returned error: %v", err)
	}
	if title != "New Generated Document 004" {
		t.Errorf("Expected 'New Generated Document 004', got %q", title)
	}
}

func TestResolveTitleSearchError(t *testing.T) {
	p, mock := newTestPublisher()
	mock.SearchErr = errors.New("cql rejected")

	_, err := p.ResolveTitle("DBT", "")
	if err == nil {
		t.Fatal("Expected search error to propagate")
	}
}

func TestResolveParentID(t *testing.T) {
	p, mock := newTestPublisher()
	parent, _ := mock.CreatePage("DBT", "Parent Page", "content")

	id := p.ResolveParentID("DBT", "Parent Page")
	if id != parent.ID {
		t.Errorf("Expected parent ID %q, got %q", parent.ID, id)
	}
}

func TestResolveParentIDMissDegrades(t *testing.T) {
	p, _ := newTestPublisher()

	if id := p.ResolveParentID("DBT", "Ghost Page"); id != "" {
		t.Errorf("Expected empty ID on lookup miss, got %q", id)
	}
}

func TestResolveParentIDErrorDegrades(t *testing.T) {
	p, mock := newTestPublisher()
	mock.FindErr = errors.New("boom")

	if id := p.ResolveParentID("DBT", "Parent Page"); id != "" {
		t.Errorf("Expected empty ID on lookup error, got %q", id)
	}
}

func TestResolveParentIDEmptyName(t *testing.T) {
	p, _ := newTestPublisher()

	if id := p.ResolveParentID("DBT", ""); id != "" {
		t.Errorf("Expected empty ID for empty name, got %q", id)
	}
}

func TestCreateOrUpdateCreates(t *testing.T) {
	p, mock := newTestPublisher()

	pageID, err := p.CreateOrUpdate("DBT", "Fresh Page", "<p>body</p>", "parent-1")
	if err != nil {
		t.Fatalf("CreateOrUpdate returned error: %v", err)
	}
	if pageID == "" {
		t.Fatal("Expected a page ID")
	}
	if len(mock.CreateCalls) != 1 || mock.CreateCalls[0] != "Fresh Page" {
		t.Fatalf("Expected one create call, got %v", mock.CreateCalls)
	}
	if mock.ParentIDs["Fresh Page"] != "parent-1" {
		t.Errorf("Expected parent ID forwarded, got %q", mock.ParentIDs["Fresh Page"])
	}
	if len(mock.UpdateCalls) != 0 {
		t.Errorf("Did not expect update calls, got %v", mock.UpdateCalls)
	}
}

func TestCreateOrUpdateUpdatesExisting(t *testing.T) {
	p, mock := newTestPublisher()
	existing, _ := mock.CreatePage("DBT", "Known Page", "old")

	pageID, err := p.CreateOrUpdate("DBT", "Known Page", "<p>new</p>", "")
	if err != nil {
		t.Fatalf("CreateOrUpdate returned error: %v", err)
	}
	if pageID != existing.ID {
		t.Errorf("Expected existing page ID %q, got %q", existing.ID, pageID)
	}
	if len(mock.UpdateCalls) != 1 {
		t.Fatalf("Expected one update call, got %v", mock.UpdateCalls)
	}
	if got := mock.Pages[existing.ID].Body.Storage.Value; got != "<p>new</p>" {
		t.Errorf("Expected full body replace, got %q", got)
	}
}

func TestAttachFilesSkipsMissing(t *testing.T) {
	p, mock := newTestPublisher()
	page, _ := mock.CreatePage("DBT", "Page", "body")

	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	if err := os.WriteFile(good, []byte("data"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	missing := filepath.Join(dir, "missing.txt")

	attached := p.AttachFiles(page.ID, []string{good, missing})
	if len(attached) != 1 || attached[0] != "good.txt" {
		t.Fatalf("Expected only good.txt attached, got %v", attached)
	}
	// The missing file never reaches the client.
	if len(mock.UploadedFiles) != 1 {
		t.Errorf("Expected one upload attempt, got %v", mock.UploadedFiles)
	}
}

func TestAttachFilesSkipsUploadFailure(t *testing.T) {
	p, mock := newTestPublisher()
	page, _ := mock.CreatePage("DBT", "Page", "body")

	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	bad := filepath.Join(dir, "bad.txt")
	for _, f := range []string{good, bad} {
		if err := os.WriteFile(f, []byte("data"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
	mock.UploadFailFor["bad.txt"] = true

	attached := p.AttachFiles(page.ID, []string{good, bad})
	if len(attached) != 1 || attached[0] != "good.txt" {
		t.Fatalf("Expected upload failure skipped, got %v", attached)
	}
}

func TestAttachmentSection(t *testing.T) {
	section := AttachmentSection([]string{"a.pdf", "b.csv"})

	if !strings.Contains(section, "<h2>Attachments</h2>") {
		t.Errorf("Expected attachments heading, got %q", section)
	}
	if !strings.Contains(section, `<ri:attachment ri:filename="a.pdf" />`) ||
		!strings.Contains(section, `<ri:attachment ri:filename="b.csv" />`) {
		t.Errorf("Expected link macros for both files, got %q", section)
	}
	if AttachmentSection(nil) != "" {
		t.Error("Expected empty section for no filenames")
	}
}

func TestPublishAttachmentsNoSuccessLeavesBody(t *testing.T) {
	p, mock := newTestPublisher()
	page, _ := mock.CreatePage("DBT", "Page", "<p>published</p>")

	body, err := p.PublishAttachments(page.ID, "Page", "<p>published</p>", []string{filepath.Join(t.TempDir(), "nope.txt")})
	if err != nil {
		t.Fatalf("PublishAttachments returned error: %v", err)
	}
	if body != "<p>published</p>" {
		t.Errorf("Expected body unchanged, got %q", body)
	}
	if strings.Contains(body, "Attachments") {
		t.Error("Did not expect attachments heading")
	}
	if len(mock.UpdateCalls) != 0 {
		t.Errorf("Expected no second update, got %v", mock.UpdateCalls)
	}
}

func TestPublishAttachmentsPartialSuccess(t *testing.T) {
	p, mock := newTestPublisher()
	page, _ := mock.CreatePage("DBT", "Page", "<p>published</p>")

	dir := t.TempDir()
	one := filepath.Join(dir, "one.txt")
	two := filepath.Join(dir, "two.txt")
	for _, f := range []string{one, two} {
		if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
	missing := filepath.Join(dir, "three.txt")

	body, err := p.PublishAttachments(page.ID, "Page", "<p>published</p>", []string{one, missing, two})
	if err != nil {
		t.Fatalf("PublishAttachments returned error: %v", err)
	}

	if count := strings.Count(body, "<ri:attachment"); count != 2 {
		t.Errorf("Expected exactly 2 attachment links, got %d in %q", count, body)
	}
	if !strings.Contains(body, `ri:filename="one.txt"`) || !strings.Contains(body, `ri:filename="two.txt"`) {
		t.Errorf("Expected links only for the successful uploads, got %q", body)
	}
	if strings.Contains(body, "three.txt") {
		t.Errorf("Did not expect a link for the failed attachment, got %q", body)
	}
	if len(mock.UpdateCalls) != 1 {
		t.Fatalf("Expected one link update, got %v", mock.UpdateCalls)
	}
	if got := mock.Pages[page.ID].Body.Storage.Value; got != body {
		t.Errorf("Expected page body persisted, got %q", got)
	}
}
