package generator

import (
	"fmt"
	"strings"
	"text/template"
)

// Prompt 表示发送给 LLM 的消息。
type Prompt struct {
	System string
	User   string
}

// 模板名称。
const (
	TemplateAnalysis   = "analysis"
	TemplateStyle      = "style"
	TemplateThread     = "thread"
	TemplateLongForm   = "longform"
	TemplateNewsletter = "newsletter"
	TemplateCritique   = "critique"
)

// ThreadDelimiter 是要求模型在推文之间输出的分隔符。
const ThreadDelimiter = "---TWEET---"

const analysisTemplate = `You are an expert content analyst. Analyze the following video transcript and extract key insights.

Your analysis should identify:
1. Main topic and thesis
2. Key value propositions and insights
3. Memorable quotes or statements
4. Target audience
5. Core takeaways
6. Emotional tone

Transcript:
{{.Transcript}}

Provide a structured analysis that will be used to create platform-specific social media content.`

const styleTemplate = `Follow these style guidelines when creating content:

{{.Rules}}

Tone: {{.Tone}}
Voice: {{.Voice}}

Examples of good content:
{{.Examples}}

Apply these guidelines to make the content authentic and on-brand.`

const threadTemplate = `You are a social media expert who writes Twitter/X threads people actually finish reading.

Context Analysis:
{{.Analysis}}

Style Guidelines:
{{.Style}}

Write a thread of 5-8 tweets that:
1. Opens with a hook that stops the scroll
2. Walks through the key insights from the video
3. Uses short, punchy sentences
4. Uses emojis sparingly
5. Ends with a call to action or an open question
6. Keeps every tweet under 280 characters

Put "{{.Delimiter}}" on its own line between consecutive tweets.
Sound like you're explaining it to a smart friend.`

const longFormTemplate = `You are a professional LinkedIn writer whose posts start real conversations.

Context Analysis:
{{.Analysis}}

Style Guidelines:
{{.Style}}

Write a LinkedIn post (1300-2000 characters) that:
1. Opens with a strong hook or a short personal story
2. Lays out the key insights with clear structure
3. Uses line breaks for readability
4. Includes 3-5 takeaways or lessons
5. Stays professional but conversational
6. Ends with a question that invites discussion
7. Has NO hashtags in the body; put 3-5 hashtags on the final line only

Write like a practitioner sharing what they learned, not like a salesperson.`

const newsletterTemplate = `You are an experienced newsletter writer who makes educational emails people look forward to.

Context Analysis:
{{.Analysis}}

Style Guidelines:
{{.Style}}

Write a newsletter email.

Start with the subject on the first line in the form "Subject: <subject>" (curiosity-driven, under 50 characters), followed by a blank line.

Body structure:
1. Personal greeting and hook
2. Quick context on why this matters now
3. Main insights in clear sections with headers
4. Practical takeaways or action items
5. A conclusion with a call to action

Tone: educational yet conversational.
Length: 400-600 words.
Format: markdown headers, bullet points and emphasis for readability.`

const critiqueTemplate = `You are a content quality reviewer. Check the generated content against the style guide and the original context.

Original Context:
{{.Analysis}}

Style Guide:
{{.Style}}

Generated Content:
{{.Content}}

Platform: {{.Platform}}

Review for:
1. Factual accuracy against the original content
2. Style compliance with the brand voice and guidelines
3. Engagement potential
4. Platform fit for {{.Platform}}
5. Grammar and clarity
{{- if .Hint}}

{{.Hint}}
{{- end}}

If the content needs improvement, provide specific edits. Otherwise approve it.

Respond in exactly this format:
VERDICT: [APPROVE/REVISE]
ISSUES: [issues found, or "None"]
REVISED_CONTENT: [only if REVISE, the complete improved version]`

var prompts = template.Must(template.New(TemplateAnalysis).Option("missingkey=error").Parse(analysisTemplate))

func init() {
	for name, text := range map[string]string{
		TemplateStyle:      styleTemplate,
		TemplateThread:     threadTemplate,
		TemplateLongForm:   longFormTemplate,
		TemplateNewsletter: newsletterTemplate,
		TemplateCritique:   critiqueTemplate,
	} {
		template.Must(prompts.New(name).Parse(text))
	}
}

// Render 用命名字段渲染命名模板，无副作用。
func Render(name string, fields map[string]any) (string, error) {
	t := prompts.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, fields); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return sb.String(), nil
}

// BuildAnalysisPrompt 生成分析提示词；有标题/简介时放在最前面作为背景。
func BuildAnalysisPrompt(transcript string, metadata map[string]any) (Prompt, error) {
	body, err := Render(TemplateAnalysis, map[string]any{"Transcript": transcript})
	if err != nil {
		return Prompt{}, err
	}
	title := metadataString(metadata, "title")
	description := metadataString(metadata, "description")
	if title != "" || description != "" {
		body = fmt.Sprintf("Video Title: %s\n\nDescription: %s\n\n%s", title, description, body)
	}
	return Prompt{User: body}, nil
}

// BuildGenerationPrompt 按平台模板生成创作提示词。
func BuildGenerationPrompt(p Platform, analysis, style string) (Prompt, error) {
	spec, err := Lookup(p)
	if err != nil {
		return Prompt{}, err
	}
	body, err := Render(spec.Template, map[string]any{
		"Analysis":  analysis,
		"Style":     style,
		"Delimiter": ThreadDelimiter,
	})
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{User: body}, nil
}

// BuildCritiquePrompt 生成审稿提示词。
func BuildCritiquePrompt(analysis, style, content, platformLabel, hint string) (Prompt, error) {
	body, err := Render(TemplateCritique, map[string]any{
		"Analysis": analysis,
		"Style":    style,
		"Content":  content,
		"Platform": platformLabel,
		"Hint":     hint,
	})
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{User: body}, nil
}

func metadataString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	v, ok := metadata[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
