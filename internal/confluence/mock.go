package confluence

import (
	"fmt"
	"path/filepath"
)

// MockClient is an in-memory implementation of ConfluenceClient for tests.
type MockClient struct {
	Pages          map[string]*Page // pageID -> Page
	PagesByTitle   map[string]*Page // spaceKey:title -> Page
	Templates      []Template
	SearchResults  []Page                  // returned by SearchPages
	Attachments    map[string][]Attachment // pageID -> attachments
	CreateCalls    []string                // titles created (for assertions)
	UpdateCalls    []string                // titles updated
	UpdateBodies   []string                // bodies sent on update, in call order
	UploadedFiles  []string                // file paths passed to UploadAttachment
	ParentIDs      map[string]string       // created title -> parentID
	SearchErr      error
	FindErr        error
	TemplatesErr   error
	UploadFailFor  map[string]bool // basename -> force upload failure
	nextPageSerial int
}

func NewMockClient() *MockClient {
	return &MockClient{
		Pages:         make(map[string]*Page),
		PagesByTitle:  make(map[string]*Page),
		Attachments:   make(map[string][]Attachment),
		ParentIDs:     make(map[string]string),
		UploadFailFor: make(map[string]bool),
	}
}

func (m *MockClient) key(spaceKey, title string) string { return spaceKey + ":" + title }

func (m *MockClient) CreatePage(spaceKey, title, content string) (*Page, error) {
	return m.CreatePageWithParent(spaceKey, title, content, "")
}

func (m *MockClient) CreatePageWithParent(spaceKey, title, content, parentID string) (*Page, error) {
	m.nextPageSerial++
	p := &Page{ID: fmt.Sprintf("page-%d", m.nextPageSerial), Title: title}
	p.Body.Storage.Value = content
	m.Pages[p.ID] = p
	m.PagesByTitle[m.key(spaceKey, title)] = p
	m.CreateCalls = append(m.CreateCalls, title)
	m.ParentIDs[title] = parentID
	return p, nil
}

func (m *MockClient) UpdatePage(pageID, title, content string) (*Page, error) {
	p, ok := m.Pages[pageID]
	if !ok {
		return nil, fmt.Errorf("page %s not found", pageID)
	}
	p.Title = title
	p.Body.Storage.Value = content
	p.Version.Number++
	m.UpdateCalls = append(m.UpdateCalls, title)
	m.UpdateBodies = append(m.UpdateBodies, content)
	return p, nil
}

func (m *MockClient) GetPage(pageID string) (*Page, error) {
	p, ok := m.Pages[pageID]
	if !ok {
		return nil, fmt.Errorf("page %s not found", pageID)
	}
	return p, nil
}

func (m *MockClient) FindPageByTitle(spaceKey, title string) (*Page, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	return m.PagesByTitle[m.key(spaceKey, title)], nil
}

func (m *MockClient) SearchPages(cql string, limit int) ([]Page, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if limit < len(m.SearchResults) {
		return m.SearchResults[:limit], nil
	}
	return m.SearchResults, nil
}

func (m *MockClient) GetContentTemplates() ([]Template, error) {
	if m.TemplatesErr != nil {
		return nil, m.TemplatesErr
	}
	return m.Templates, nil
}

func (m *MockClient) GetTemplateByName(name string) (*Template, error) {
	templates, err := m.GetContentTemplates()
	if err != nil {
		return nil, err
	}
	for i := range templates {
		if templates[i].Name == name {
			return &templates[i], nil
		}
	}
	return nil, nil
}

func (m *MockClient) UploadAttachment(pageID, filePath string) (*Attachment, error) {
	m.UploadedFiles = append(m.UploadedFiles, filePath)
	name := filepath.Base(filePath)
	if m.UploadFailFor[name] {
		return nil, fmt.Errorf("forced upload failure for %s", name)
	}
	att := Attachment{ID: "att-" + name, Title: name}
	m.Attachments[pageID] = append(m.Attachments[pageID], att)
	return &att, nil
}

func (m *MockClient) ListAttachments(pageID string) ([]Attachment, error) {
	return m.Attachments[pageID], nil
}

var _ ConfluenceClient = (*MockClient)(nil)
