package generator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// TweetLimit 是单条推文的硬上限（按字符计）。
	TweetLimit = 280
	ellipsis   = "..."
)

var blankLines = regexp.MustCompile(`\n[ \t]*\n`)

// SplitThread 按分隔符切分推文串，逐条 trim，超长的截断并加省略号。
func SplitThread(raw string) []string {
	return clampSegments(strings.Split(raw, ThreadDelimiter))
}

func clampSegments(parts []string) []string {
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		seg := strings.TrimSpace(part)
		if seg == "" {
			continue
		}
		segments = append(segments, TruncateSegment(seg))
	}
	return segments
}

// TruncateSegment 保证结果不超过 TweetLimit；被截断时长度恰好等于 TweetLimit。
func TruncateSegment(seg string) string {
	if utf8.RuneCountInString(seg) <= TweetLimit {
		return seg
	}
	runes := []rune(seg)
	return string(runes[:TweetLimit-utf8.RuneCountInString(ellipsis)]) + ellipsis
}

func shapeThread(raw string) (GenerationResult, error) {
	return threadResult(SplitThread(raw))
}

// 修订稿可能丢了分隔符，此时按空行切分；仍超长且含单换行的段落再逐行切分。
func reshapeThread(revised string) (GenerationResult, error) {
	if strings.Contains(revised, ThreadDelimiter) {
		return shapeThread(revised)
	}
	var parts []string
	for _, block := range blankLines.Split(revised, -1) {
		block = strings.TrimSpace(block)
		if utf8.RuneCountInString(block) > TweetLimit && strings.Contains(block, "\n") {
			parts = append(parts, strings.Split(block, "\n")...)
			continue
		}
		parts = append(parts, block)
	}
	return threadResult(clampSegments(parts))
}

func threadResult(segments []string) (GenerationResult, error) {
	if len(segments) == 0 {
		return GenerationResult{}, errors.New("model returned no tweets")
	}
	content := strings.Join(segments, "\n\n")
	return GenerationResult{
		Platform:     Twitter,
		Content:      content,
		Segments:     segments,
		CharCount:    utf8.RuneCountInString(content),
		WordCount:    len(strings.Fields(content)),
		SegmentCount: len(segments),
	}, nil
}

// ExtractHashtags 把只由 #标签 组成的行从正文里拿掉，标签按出现顺序去重。
// 夹在句子里的标签不处理。
func ExtractHashtags(raw string) (string, []string) {
	var (
		body []string
		tags []string
		seen = map[string]bool{}
	)
	for _, line := range strings.Split(raw, "\n") {
		tokens, ok := hashtagLine(line)
		if !ok {
			body = append(body, line)
			continue
		}
		for _, tok := range tokens {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			tags = append(tags, tok)
		}
	}
	return strings.TrimSpace(strings.Join(body, "\n")), tags
}

func hashtagLine(line string) ([]string, bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil, false
	}
	for _, tok := range tokens {
		if len(tok) < 2 || !strings.HasPrefix(tok, "#") || strings.HasPrefix(tok, "##") {
			return nil, false
		}
	}
	return tokens, true
}

func shapeLongForm(raw string) (GenerationResult, error) {
	body, tags := ExtractHashtags(strings.TrimSpace(raw))
	if body == "" {
		return GenerationResult{}, errors.New("model returned empty post")
	}
	content := body
	if len(tags) > 0 {
		content = body + "\n\n" + strings.Join(tags, " ")
	}
	return GenerationResult{
		Platform:  LinkedIn,
		Content:   content,
		Hashtags:  tags,
		CharCount: utf8.RuneCountInString(body),
		WordCount: len(strings.Fields(body)),
	}, nil
}

var subjectMarkers = []string{"subject line:", "subject:"}

// ExtractSubject 识别开头的 "Subject:" 行，去掉它和紧随的一个空行。
func ExtractSubject(raw string) (subject, body string) {
	text := strings.TrimSpace(raw)
	first, rest, _ := strings.Cut(text, "\n")
	subject, ok := parseSubjectLine(first)
	if !ok {
		return "", text
	}
	if next, after, found := strings.Cut(rest, "\n"); strings.TrimSpace(next) == "" {
		if found {
			rest = after
		} else {
			rest = ""
		}
	}
	return subject, strings.TrimSpace(rest)
}

func parseSubjectLine(line string) (string, bool) {
	// 兼容 "**Subject:** xxx" 这类 markdown 装饰。
	cleaned := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "*#_ "))
	lower := strings.ToLower(cleaned)
	for _, marker := range subjectMarkers {
		if !strings.HasPrefix(lower, marker) {
			continue
		}
		subject := strings.Trim(strings.TrimSpace(cleaned[len(marker):]), "*_ ")
		subject = strings.TrimSpace(subject)
		if subject == "" {
			return "", false
		}
		return subject, true
	}
	return "", false
}

func shapeNewsletter(raw string) (GenerationResult, error) {
	subject, body := ExtractSubject(raw)
	if body == "" && subject != "" {
		// 只有一行 Subject 时不拆分，整段作为正文。
		subject, body = "", strings.TrimSpace(raw)
	}
	if body == "" {
		return GenerationResult{}, errors.New("model returned empty newsletter body")
	}
	return GenerationResult{
		Platform:  Newsletter,
		Content:   body,
		Subject:   subject,
		CharCount: utf8.RuneCountInString(body),
		WordCount: len(strings.Fields(body)),
	}, nil
}
