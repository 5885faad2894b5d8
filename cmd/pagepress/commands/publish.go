package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pagepress/internal/config"
	"pagepress/internal/confluence"
	"pagepress/internal/content"
	"pagepress/internal/publish"
	"pagepress/pkg/logger"
)

var (
	publishTemplateName string
	publishNoTemplate   bool
	publishSpace        string
	publishTitle        string
	publishMarkdownFile string
	publishParentPage   string
	publishAttachments  []string
)

// publishCmd runs the full pipeline: resolve title and parent, build
// the page body, publish it, then attach files and link them.
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Create or update a Confluence page from a markdown file",
	Long: `Create or update a Confluence page from a local markdown file.

Without --title a title is generated by scanning the space for pages
named after "New Generated Document" and incrementing the highest
numeric suffix.

With --template-name the markdown is merged into the named Confluence
content template by a generative-AI pass; if the template cannot be
found, the model call fails, or the response looks truncated, the page
falls back to a direct markdown conversion. --no-template skips the
template path entirely.

Files given via --attach are uploaded to the page after publishing and
linked from an "Attachments" section at the bottom of the body. Missing
files are skipped with a warning.`,
	Example: `  pagepress publish --markdown-file doc.md
  pagepress publish --markdown-file doc.md --template-name "Design Doc"
  pagepress publish --markdown-file doc.md --parent-page "Team Docs" --attach report.pdf`,
	RunE: runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	if publishMarkdownFile == "" {
		return fmt.Errorf("markdown-file flag is required for publish command")
	}

	log := logger.New(verbose)

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	source, err := os.ReadFile(publishMarkdownFile)
	if err != nil {
		return fmt.Errorf("failed to read markdown file: %w", err)
	}

	client := newConfluenceClient(cfg.Confluence.BaseURL, cfg.Confluence.Username, cfg.Confluence.APIToken, log)
	publisher := publish.New(client, log)

	title, err := publisher.ResolveTitle(publishSpace, publishTitle)
	if err != nil {
		return err
	}
	if publishTitle == "" {
		log.Info("Using generated title: %s", title)
	}

	parentID := publisher.ResolveParentID(publishSpace, publishParentPage)

	body, err := buildBody(cfg, client, string(source), log)
	if err != nil {
		return err
	}

	pageID, err := publisher.CreateOrUpdate(publishSpace, title, body, parentID)
	if err != nil {
		return err
	}

	if len(publishAttachments) > 0 {
		if _, err := publisher.PublishAttachments(pageID, title, body, publishAttachments); err != nil {
			return err
		}
	}

	fmt.Printf("Published '%s' (ID: %s) in space '%s'\n", title, pageID, publishSpace)
	return nil
}

// buildBody selects the content path: a template merge when a template
// name is given and --no-template is absent, direct conversion
// otherwise. A named template that cannot be found degrades to the
// direct path with a warning, and the Gemini key is only required once
// a found template actually triggers the merge.
func buildBody(cfg *config.Config, client confluence.ConfluenceClient, source string, log *logger.Logger) (string, error) {
	useTemplate := publishTemplateName != "" && !publishNoTemplate

	var template *confluence.Template
	if useTemplate {
		var err error
		template, err = client.GetTemplateByName(publishTemplateName)
		if err != nil {
			return "", fmt.Errorf("failed to fetch template '%s': %w", publishTemplateName, err)
		}
		if template == nil {
			log.Warn("Template '%s' not found, using direct markdown conversion", publishTemplateName)
		}
	}

	if template == nil {
		if !useTemplate {
			log.Info("Using direct markdown conversion for %s", publishMarkdownFile)
		}
		builder := content.NewBuilder(nil, log)
		body, err := builder.Direct(source)
		if err != nil {
			return "", err
		}
		return builder.EnsureComplete(source, body)
	}

	if err := cfg.RequireGemini(); err != nil {
		return "", err
	}
	generator := newGenerator(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.MaxOutputTokens, log)
	builder := content.NewBuilder(generator, log)

	log.Info("Filling template '%s' with content from %s", publishTemplateName, publishMarkdownFile)
	body, err := builder.MergeWithTemplate(template, source)
	if err != nil {
		return "", err
	}
	return builder.EnsureComplete(source, body)
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().StringVar(&publishTemplateName, "template-name", "", "Name of the Confluence template to merge into")
	publishCmd.Flags().BoolVar(&publishNoTemplate, "no-template", false, "Skip template processing and use direct markdown conversion")
	publishCmd.Flags().StringVarP(&publishSpace, "space", "s", "DBT", "Confluence space code")
	publishCmd.Flags().StringVarP(&publishTitle, "title", "t", "", "Title for the Confluence page (generated when omitted)")
	publishCmd.Flags().StringVarP(&publishMarkdownFile, "markdown-file", "f", "", "Path to the markdown file (required)")
	publishCmd.Flags().StringVarP(&publishParentPage, "parent-page", "p", "", "Name of the parent page in the specified space")
	publishCmd.Flags().StringArrayVar(&publishAttachments, "attach", nil, "Path to a file to attach to the page (repeatable)")

	if err := publishCmd.MarkFlagRequired("markdown-file"); err != nil {
		panic(fmt.Sprintf("Failed to mark markdown-file flag as required: %v", err))
	}
}
