package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type ManagerConfig struct {
	Model      string
	EmbedModel string
	Timeout    int
}

// Manager owns the prompt templates and binds a provider to the configured
// models. Services never build prompts themselves.
type Manager struct {
	provider IProvider
	cfg      ManagerConfig
}

func NewManager(provider IProvider, cfg ManagerConfig) *Manager {
	return &Manager{provider: provider, cfg: cfg}
}

const diffSummaryPrompt = `You are an expert programmer, and you are trying to summarize a git diff.
Reminders about the git diff format:
for every file, there are a few metadata lines, like (for example):
` + "```" + `
diff --git a/lib/index.js b/lib/index.js
index 8d6f2a1..e4f0a5b 100644
` + "```" + `
This means that ` + "`lib/index.js`" + ` was modified in the commit. Note that this is only an example.
Then there is a specifier of the lines that were modified.
A line starting with ` + "`+`" + ` means that the line was added,
A line starting with ` + "`-`" + ` means that the line was removed.
A line that starts with neither ` + "`+`" + ` nor ` + "`-`" + ` is code given for context and better understanding.
It is not part of the diff.
EXAMPLE SUMMARY COMMENTS:
` + "```" + `
* Raised the amount of returned recordings from 10 to 100 [packages/server/recordings_api.ts], [packages/server/constants.ts]
* Fixed a typo in the github action name [.github/workflows/gpt-summarizer.yml]
* Moved the octokit initialization to a separate file [src/octokit.ts], [src/index.ts]
* Added an OpenAI API for completions [packages/utils/apis/openai.ts]
* Lowered numeric tolerance for test files
` + "```" + `
Most commits will have less comments than this examples list.
The last comment does not include the file names,
because there were more than two relevant files in the hypothetical commit.
Do not include parts of the example in your summary.
It is given only as an example of appropriate comments.`

// RefusalPhrase is the fixed reply the answer prompt instructs the model to
// use when the retrieved context cannot answer the question.
const RefusalPhrase = "I'm sorry, but I don't have the answer to that question."

// SummarizeFile asks for a short onboarding summary of one repository file,
// with the prompt framing chosen by file category.
func (m *Manager) SummarizeFile(ctx context.Context, filePath, content string) (string, error) {
	lower := strings.ToLower(filePath)
	var prompt string
	switch {
	case strings.HasSuffix(lower, ".md") || strings.Contains(lower, "readme"):
		prompt = fmt.Sprintf("Summarize this documentation file for a new developer joining the project in 100 words or less:\n\n%s", content)
	case strings.Contains(lower, "config") || strings.HasSuffix(lower, ".json") ||
		strings.HasSuffix(lower, ".env") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml"):
		prompt = fmt.Sprintf("Explain the purpose of this configuration file in 100 words or less for someone new to the project:\n\n%s", content)
	default:
		prompt = fmt.Sprintf(`You are a senior software engineer onboarding a junior developer.

Explain in 100 words or less what the following file (%s) does, and its role in the project.

Here is the file content:
---
%s
---`, filePath, content)
	}
	return m.generate(ctx, prompt)
}

func (m *Manager) SummarizeDiff(ctx context.Context, diff string) (string, error) {
	prompt := fmt.Sprintf("%s\n\nPlease summarise the following diff file:\n\n%s", diffSummaryPrompt, diff)
	return m.generate(ctx, prompt)
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text passed to embed")
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.provider.Embed(ctx, m.cfg.EmbedModel, text, taskType)
}

// StreamAnswer issues one streaming generation over the assembled context
// block. Providers without streaming deliver the whole answer as a single
// chunk. The stream is finite and not restartable.
func (m *Manager) StreamAnswer(ctx context.Context, contextBlock, question string) (<-chan string, error) {
	prompt := fmt.Sprintf(`You are an ai code assistant who answers questions about the codebase. Your target audience is a technical intern who is looking to understand the codebase.
The assistant has expert knowledge, is helpful, clever and articulate.
If the question is asking about code or a specific file, the assistant will provide a detailed answer, giving step by step instructions, including code snippets.
START CONTEXT BLOCK
%s
END OF CONTEXT BLOCK

START QUESTION
%s
END OF QUESTION
The assistant will take into account any CONTEXT BLOCK that is provided.
If the context does not provide the answer to the question, the assistant will say: "%s"
The assistant will not invent anything that is not drawn directly from the context.
Answer in markdown syntax with code snippets if needed. Be as detailed as possible when answering.`, contextBlock, question, RefusalPhrase)

	if streamer, ok := m.provider.(IStreamProvider); ok {
		return streamer.GenerateStream(ctx, m.cfg.Model, prompt)
	}
	text, err := m.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	out := make(chan string, 1)
	out <- text
	close(out)
	return out, nil
}

func (m *Manager) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	resp, err := m.provider.Generate(ctx, m.cfg.Model, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
}
