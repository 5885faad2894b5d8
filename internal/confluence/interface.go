package confluence

// ConfluenceClient defines the wiki operations the pipeline consumes.
type ConfluenceClient interface {
	CreatePage(spaceKey, title, content string) (*Page, error)
	CreatePageWithParent(spaceKey, title, content, parentID string) (*Page, error)
	UpdatePage(pageID, title, content string) (*Page, error)
	GetPage(pageID string) (*Page, error)
	FindPageByTitle(spaceKey, title string) (*Page, error)
	SearchPages(cql string, limit int) ([]Page, error)
	GetContentTemplates() ([]Template, error)
	GetTemplateByName(name string) (*Template, error)
	UploadAttachment(pageID, filePath string) (*Attachment, error)
	ListAttachments(pageID string) ([]Attachment, error)
}

// Ensure Client implements the interface
var _ ConfluenceClient = (*Client)(nil)
