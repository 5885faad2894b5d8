package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pagepress/internal/config"
)

var (
	configureSets           []string
	configureYes            bool
	configurePrint          bool
	configureNonInteractive bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Create or edit the configuration file interactively or via flags",
	Long: `Interactively create or edit the configuration file (config.yaml by default).

Features:
- Interactive prompts for the Confluence and Gemini sections
- Apply key=value overrides via --set
- Non-interactive scripting with --non-interactive --yes --set ...
- Print resulting YAML with --print instead of writing

Credentials can also come from the environment (CONFLUENCE_URL,
CONFLUENCE_USERNAME, CONFLUENCE_API_TOKEN, GEMINI_API_KEY), which
always takes precedence over the file.`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
	configureCmd.Flags().StringArrayVar(&configureSets, "set", nil, "Set a config field using dotted path (e.g. confluence.base_url=http://example)")
	configureCmd.Flags().BoolVar(&configureYes, "yes", false, "Automatically confirm saving changes")
	configureCmd.Flags().BoolVar(&configurePrint, "print", false, "Print resulting YAML instead of writing to file")
	configureCmd.Flags().BoolVar(&configureNonInteractive, "non-interactive", false, "Disable interactive prompts (use with --set)")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	path := configFile
	cfg, existed, err := loadOrInitConfig(path)
	if err != nil {
		return err
	}

	// Apply flag mutations first (non-interactive layer)
	if err := applySetOperations(cfg, configureSets); err != nil {
		return err
	}

	interactive := !configureNonInteractive && len(args) == 0
	if interactive {
		if err := interactiveEdit(cfg, existed); err != nil {
			return err
		}
	}

	outYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}

	if configurePrint {
		cmd.Print(string(outYAML))
		return nil
	}

	if !configureYes && interactive {
		confirm := false
		prompt := &survey.Confirm{Message: "Save configuration to " + path + "?", Default: true}
		if err := survey.AskOne(prompt, &confirm); err != nil {
			return err
		}
		if !confirm {
			fmt.Println("Aborted (no changes saved).")
			return nil
		}
	}

	if err := writeConfigFile(path, outYAML); err != nil {
		return err
	}
	cmd.Printf("Configuration saved to %s\n", path)
	return nil
}

func loadOrInitConfig(path string) (*config.Config, bool, error) {
	if fileExists(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, true, err
		}
		var cfg config.Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, true, fmt.Errorf("failed to parse config: %w", err)
		}
		return &cfg, true, nil
	}
	return &config.Config{}, false, nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func writeConfigFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func applySetOperations(cfg *config.Config, sets []string) error {
	for _, s := range sets {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid --set value '%s' (expected key=value)", s)
		}
		key := parts[0]
		val := parts[1]
		if err := setField(cfg, key, val); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

func setField(cfg *config.Config, key, value string) error {
	switch key {
	case "confluence.base_url":
		cfg.Confluence.BaseURL = value
	case "confluence.username":
		cfg.Confluence.Username = value
	case "confluence.api_token":
		cfg.Confluence.APIToken = value
	case "gemini.api_key":
		cfg.Gemini.APIKey = value
	case "gemini.model":
		cfg.Gemini.Model = value
	case "gemini.max_output_tokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Gemini.MaxOutputTokens = n
	default:
		return fmt.Errorf("unsupported key '%s'", key)
	}
	return nil
}

// Interactive editing -------------------------------------------------------

func interactiveEdit(cfg *config.Config, existed bool) error {
	fmt.Println("Interactive configuration editor. Press Enter to accept defaults.")
	if existed {
		fmt.Println("Loaded existing configuration. You can modify sections.")
	}

	if err := promptConfluence(cfg); err != nil {
		return err
	}
	return promptGemini(cfg)
}

func promptConfluence(cfg *config.Config) error {
	qs := []*survey.Question{
		{Name: "base_url", Prompt: &survey.Input{Message: "Confluence Base URL", Default: cfg.Confluence.BaseURL}},
		{Name: "username", Prompt: &survey.Input{Message: "Confluence Username", Default: cfg.Confluence.Username}},
		{Name: "api_token", Prompt: &survey.Password{Message: "Confluence API Token (leave blank to keep)"}},
	}
	answers := struct {
		BaseURL  string `survey:"base_url"`
		Username string `survey:"username"`
		APIToken string `survey:"api_token"`
	}{}
	if err := survey.Ask(qs, &answers); err != nil {
		return err
	}
	cfg.Confluence.BaseURL = answers.BaseURL
	cfg.Confluence.Username = answers.Username
	if answers.APIToken != "" { // keep existing if blank
		cfg.Confluence.APIToken = answers.APIToken
	}
	return nil
}

func promptGemini(cfg *config.Config) error {
	defaultModel := cfg.Gemini.Model
	if defaultModel == "" {
		defaultModel = config.DefaultGeminiModel
	}
	defaultTokens := cfg.Gemini.MaxOutputTokens
	if defaultTokens == 0 {
		defaultTokens = config.DefaultMaxOutputTokens
	}

	qs := []*survey.Question{
		{Name: "api_key", Prompt: &survey.Password{Message: "Gemini API Key (leave blank to keep)"}},
		{Name: "model", Prompt: &survey.Input{Message: "Gemini Model", Default: defaultModel}},
		{Name: "max_output_tokens", Prompt: &survey.Input{Message: "Max Output Tokens", Default: strconv.Itoa(defaultTokens)}},
	}
	answers := struct {
		APIKey          string `survey:"api_key"`
		Model           string `survey:"model"`
		MaxOutputTokens string `survey:"max_output_tokens"`
	}{}
	if err := survey.Ask(qs, &answers); err != nil {
		return err
	}
	if answers.APIKey != "" { // keep existing if blank
		cfg.Gemini.APIKey = answers.APIKey
	}
	cfg.Gemini.Model = answers.Model
	if answers.MaxOutputTokens != "" {
		n, err := strconv.Atoi(answers.MaxOutputTokens)
		if err != nil {
			return fmt.Errorf("invalid max output tokens: %w", err)
		}
		cfg.Gemini.MaxOutputTokens = n
	}
	return nil
}
