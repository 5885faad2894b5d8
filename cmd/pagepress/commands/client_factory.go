package commands

import (
	"pagepress/internal/confluence"
	"pagepress/internal/gemini"
	"pagepress/pkg/logger"
)

// newConfluenceClient is a package-level variable to allow test injection of a mock.
// Production code uses the real client constructor; tests can override this.
var newConfluenceClient = func(baseURL, user, token string, log *logger.Logger) confluence.ConfluenceClient {
	return confluence.NewClient(baseURL, user, token, log)
}

// newGenerator is the equivalent seam for the generative-AI client.
var newGenerator = func(apiKey, model string, maxOutputTokens int, log *logger.Logger) gemini.Generator {
	return gemini.NewClient(apiKey, model, maxOutputTokens, log)
}
