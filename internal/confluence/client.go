package confluence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pagepress/pkg/logger"
)

type Client struct {
	baseURL  string
	username string
	apiToken string
	client   *http.Client
	logger   *logger.Logger
}

type Page struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Body  struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
		View struct {
			Value string `json:"value"`
		} `json:"view"`
	} `json:"body,omitempty"`
	Space struct {
		Key string `json:"key"`
	} `json:"space,omitempty"`
	Version struct {
		Number int `json:"number"`
	} `json:"version,omitempty"`
}

// Template is a server-side content template. Body is resolved to a
// plain string at fetch time; see resolveTemplateBody.
type Template struct {
	TemplateID string
	Name       string
	Body       string
}

type Attachment struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Links struct {
		Download string `json:"download"`
	} `json:"_links,omitempty"`
}

func NewClient(baseURL, username, apiToken string, log *logger.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		apiToken: apiToken,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   log,
	}
}

// DoAuthenticatedRequest executes req with the client's basic auth
// credentials applied.
func (c *Client) DoAuthenticatedRequest(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(c.username, c.apiToken)
	return c.client.Do(req)
}

func (c *Client) getJSON(path string, out interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.DoAuthenticatedRequest(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) sendJSON(method, path string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal page data: %w", err)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.DoAuthenticatedRequest(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func pageBody(content string) map[string]interface{} {
	return map[string]interface{}{
		"storage": map[string]interface{}{
			"value":          content,
			"representation": "storage",
		},
	}
}

func (c *Client) CreatePage(spaceKey, title, content string) (*Page, error) {
	return c.CreatePageWithParent(spaceKey, title, content, "")
}

// CreatePageWithParent creates a page in the space; an empty parentID
// means a top-level page.
func (c *Client) CreatePageWithParent(spaceKey, title, content, parentID string) (*Page, error) {
	page := map[string]interface{}{
		"type":  "page",
		"title": title,
		"space": map[string]string{"key": spaceKey},
		"body":  pageBody(content),
	}
	if c.logger != nil {
		c.logger.Debug("Creating page '%s' in space '%s' (parent=%q)", title, spaceKey, parentID)
	}
	if parentID != "" {
		page["ancestors"] = []map[string]string{
			{"id": parentID},
		}
	}

	var result Page
	if err := c.sendJSON("POST", "/rest/api/content", page, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdatePage replaces the full body and title of an existing page. The
// current version is read first so the update carries version+1. Do
// not retry this call; a concurrent edit between read and write would
// be silently overwritten by a stale replay.
func (c *Client) UpdatePage(pageID, title, content string) (*Page, error) {
	currentPage, err := c.GetPage(pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current page version: %w", err)
	}

	page := map[string]interface{}{
		"id":    pageID,
		"type":  "page",
		"title": title,
		"body":  pageBody(content),
		"version": map[string]interface{}{
			"number": currentPage.Version.Number + 1,
		},
	}

	var result Page
	if err := c.sendJSON("PUT", "/rest/api/content/"+pageID, page, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetPage(pageID string) (*Page, error) {
	var result Page
	if err := c.getJSON("/rest/api/content/"+pageID+"?expand=version,body.storage", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindPageByTitle returns the page with the exact title in the space,
// or nil if no such page exists.
func (c *Client) FindPageByTitle(spaceKey, title string) (*Page, error) {
	params := url.Values{}
	params.Add("spaceKey", spaceKey)
	params.Add("title", title)
	params.Add("expand", "body.storage,version")

	var result struct {
		Results []Page `json:"results"`
	}
	if err := c.getJSON("/rest/api/content?"+params.Encode(), &result); err != nil {
		return nil, err
	}

	if len(result.Results) == 0 {
		return nil, nil
	}
	return &result.Results[0], nil
}

// SearchPages runs a CQL query and returns the matching pages. Only
// the first limit results are observed; pagination beyond that window
// is not followed.
func (c *Client) SearchPages(cql string, limit int) ([]Page, error) {
	params := url.Values{}
	params.Add("cql", cql)
	params.Add("limit", fmt.Sprintf("%d", limit))

	var result struct {
		Results []Page `json:"results"`
	}
	if err := c.getJSON("/rest/api/content/search?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// GetContentTemplates lists the content templates visible to the
// authenticated user.
func (c *Client) GetContentTemplates() ([]Template, error) {
	var result struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := c.getJSON("/rest/api/template/page", &result); err != nil {
		return nil, err
	}

	templates := make([]Template, 0, len(result.Results))
	for _, raw := range result.Results {
		templates = append(templates, decodeTemplate(raw))
	}
	return templates, nil
}

// GetTemplateByName returns the named template, or nil if absent.
func (c *Client) GetTemplateByName(name string) (*Template, error) {
	templates, err := c.GetContentTemplates()
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

// templateBodyKeys are the field names observed to hold template
// markup across Confluence server versions.
var templateBodyKeys = []string{"body", "templateBody", "contentTemplateBody", "value"}

func decodeTemplate(raw json.RawMessage) Template {
	var record map[string]interface{}
	if err := json.Unmarshal(raw, &record); err != nil {
		return Template{Body: string(raw)}
	}

	t := Template{}
	if id, ok := record["templateId"].(string); ok {
		t.TemplateID = id
	}
	if name, ok := record["name"].(string); ok {
		t.Name = name
	}
	t.Body = resolveTemplateBody(record)
	return t
}

// resolveTemplateBody probes the candidate body fields, one nested
// level deep, and falls back to a JSON coercion of the whole record.
// The result is always a plain string so callers never re-probe.
func resolveTemplateBody(record map[string]interface{}) string {
	if s, ok := probeBodyKeys(record); ok {
		return s
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Sprintf("%v", record)
	}
	return string(data)
}

func probeBodyKeys(record map[string]interface{}) (string, bool) {
	for _, key := range templateBodyKeys {
		v, ok := record[key]
		if !ok {
			continue
		}
		switch value := v.(type) {
		case string:
			return value, true
		case map[string]interface{}:
			if s, ok := probeBodyKeys(value); ok {
				return s, true
			}
			// Confluence cloud nests markup under storage.value.
			if storage, ok := value["storage"].(map[string]interface{}); ok {
				if s, ok := probeBodyKeys(storage); ok {
					return s, true
				}
			}
		}
	}
	return "", false
}

// UploadAttachment attaches a local file to the page. When the server
// rejects the upload because an attachment with the same filename
// already exists, the existing attachment is returned instead.
func (c *Client) UploadAttachment(pageID, filePath string) (*Attachment, error) {
	if c.logger != nil {
		c.logger.Debug("Uploading attachment %s to page %s", filepath.Base(filePath), pageID)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/rest/api/content/"+pageID+"/child/attachment", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Atlassian-Token", "no-check")

	resp, err := c.DoAuthenticatedRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(string(body), "same file name") {
			return c.findAttachmentByFilename(pageID, filepath.Base(filePath))
		}
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Results []Attachment `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Results) == 0 {
		return nil, fmt.Errorf("attachment upload returned no results")
	}
	return &result.Results[0], nil
}

func (c *Client) ListAttachments(pageID string) ([]Attachment, error) {
	var result struct {
		Results []Attachment `json:"results"`
	}
	if err := c.getJSON("/rest/api/content/"+pageID+"/child/attachment", &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

func (c *Client) findAttachmentByFilename(pageID, filename string) (*Attachment, error) {
	attachments, err := c.ListAttachments(pageID)
	if err != nil {
		return nil, err
	}

	for i := range attachments {
		if attachments[i].Title == filename {
			return &attachments[i], nil
		}
	}
	return nil, fmt.Errorf("attachment with filename '%s' not found on page %s", filename, pageID)
}
