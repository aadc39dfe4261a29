package publisher

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"

	"content_repurposer/generator"
	"content_repurposer/logger"
	"content_repurposer/workflow"
)

const (
	// defaultSubject is used when the newsletter came back without a subject line.
	defaultSubject = "Newsletter"
	previewLimit   = 120
)

// Payload is one delivery-ready artifact handed to the external delivery adapters.
type Payload struct {
	RunID    string             `json:"run_id"`
	Platform generator.Platform `json:"platform"`
	// Text is the final content as approved by the critic.
	Text string `json:"text"`
	// Parts is set for threads: one entry per post, in order.
	Parts    []string `json:"parts,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Preview  string   `json:"preview,omitempty"`
	HTML     string   `json:"html,omitempty"`
	// Revised is true when the critic replaced the generated text.
	Revised bool `json:"revised"`
}

// Publisher turns finished runs into delivery payloads.
type Publisher struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{log: log.With("component", "publisher")}
}

// Render builds one payload per refined branch, in platform order. Failed branches are skipped.
func (p *Publisher) Render(bundle workflow.Bundle) ([]Payload, error) {
	var out []Payload
	for _, platform := range generator.Platforms() {
		res, ok := bundle.Get(platform)
		if !ok {
			continue
		}
		if res.Status != workflow.StatusRefined {
			p.log.Warn("payload_skipped", "run_id", bundle.RunID, "platform", platform.String(), "error", res.Error)
			continue
		}
		payload, err := p.RenderBranch(res)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", platform, err)
		}
		payload.RunID = bundle.RunID
		out = append(out, payload)
	}
	p.log.Info("payloads_rendered", "run_id", bundle.RunID, "count", len(out))
	return out, nil
}

// RenderBranch builds the payload for one refined branch.
func (p *Publisher) RenderBranch(res workflow.BranchResult) (Payload, error) {
	if res.Final == nil || res.Refinement == nil {
		return Payload{}, errors.New("branch has no final content")
	}
	final := *res.Final
	payload := Payload{
		Platform: res.Platform,
		Text:     res.Content(),
		Revised:  res.Refinement.NeedsRevision && res.Generation != nil && res.Content() != res.Generation.Content,
	}

	switch res.Platform {
	case generator.Twitter:
		payload.Parts = append([]string(nil), final.Segments...)
	case generator.LinkedIn:
		payload.Hashtags = append([]string(nil), final.Hashtags...)
	case generator.Newsletter:
		payload.Subject = final.Subject
		if payload.Subject == "" {
			payload.Subject = defaultSubject
		}
		payload.Preview = preview(payload.Text, previewLimit)
		html, err := mdToHTML(payload.Text)
		if err != nil {
			return Payload{}, err
		}
		payload.HTML = normalizeForEmail(html)
	default:
		return Payload{}, fmt.Errorf("unknown platform %s", res.Platform)
	}
	return payload, nil
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	olRe = regexp.MustCompile(`(?s)<ol[^>]*>(.*?)</ol>`)
	ulRe = regexp.MustCompile(`(?s)<ul[^>]*>(.*?)</ul>`)
	liRe = regexp.MustCompile(`(?s)<li[^>]*>(.*?)</li>`)
	hRe  = regexp.MustCompile(`(?s)<h([1-6])[^>]*>(.*?)</h[1-6]>`)
)

// Many email clients drop list and heading styles, so lists become numbered or bulleted
// paragraphs and headings become sized bold paragraphs.
func flattenLists(html string) string {
	html = olRe.ReplaceAllStringFunc(html, func(block string) string {
		items := liRe.FindAllStringSubmatch(block, -1)
		if len(items) == 0 {
			return block
		}
		var b strings.Builder
		for i, item := range items {
			fmt.Fprintf(&b, "<p>%d. %s</p>", i+1, strings.TrimSpace(item[1]))
		}
		return b.String()
	})

	return ulRe.ReplaceAllStringFunc(html, func(block string) string {
		items := liRe.FindAllStringSubmatch(block, -1)
		if len(items) == 0 {
			return block
		}
		var b strings.Builder
		for _, item := range items {
			b.WriteString("<p>• ")
			b.WriteString(strings.TrimSpace(item[1]))
			b.WriteString("</p>")
		}
		return b.String()
	})
}

func convertHeadings(html string) string {
	sizes := map[string]string{
		"1": "24px",
		"2": "22px",
		"3": "20px",
		"4": "18px",
		"5": "16px",
		"6": "15px",
	}
	return hRe.ReplaceAllStringFunc(html, func(block string) string {
		parts := hRe.FindStringSubmatch(block)
		if len(parts) != 3 {
			return block
		}
		size := sizes[parts[1]]
		if size == "" {
			size = "18px"
		}
		return fmt.Sprintf(`<p style="font-size:%s;font-weight:700;margin:1em 0 0.6em;">%s</p>`, size, strings.TrimSpace(parts[2]))
	})
}

func normalizeForEmail(html string) string {
	return flattenLists(convertHeadings(html))
}

// preview is the inbox preheader: the first limit characters of the body with whitespace collapsed.
func preview(md string, limit int) string {
	joined := strings.Join(strings.Fields(md), " ")
	runes := []rune(joined)
	if len(runes) <= limit {
		return joined
	}
	return string(runes[:limit])
}
