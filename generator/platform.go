package generator

import (
	"fmt"
	"strings"
)

// Platform 是目标平台的封闭枚举。新增平台 = 新增一个值 + 一条 platformTable 记录。
type Platform int

const (
	Twitter Platform = iota + 1
	LinkedIn
	Newsletter
)

// PlatformSpec 描述一个平台的提示词模板、后处理规则和调用预算。
type PlatformSpec struct {
	Platform  Platform
	Key       string
	Label     string
	Template  string
	MaxTokens int

	// ReviewHint 附加到审稿提示词，提醒模型保留平台格式。
	ReviewHint string

	// Shape 处理生成器原始输出；Reshape 处理审稿后的修订稿。
	Shape   func(raw string) (GenerationResult, error)
	Reshape func(revised string) (GenerationResult, error)
}

var platformTable = []PlatformSpec{
	{
		Platform:   Twitter,
		Key:        "twitter",
		Label:      "Twitter",
		Template:   TemplateThread,
		MaxTokens:  2500,
		ReviewHint: "Tweets are separated by blank lines. If you revise, put \"" + ThreadDelimiter + "\" on its own line between tweets.",
		Shape:      shapeThread,
		Reshape:    reshapeThread,
	},
	{
		Platform:   LinkedIn,
		Key:        "linkedin",
		Label:      "LinkedIn",
		Template:   TemplateLongForm,
		MaxTokens:  3000,
		ReviewHint: "Hashtags belong only on the final line.",
		Shape:      shapeLongForm,
		Reshape:    shapeLongForm,
	},
	{
		Platform:   Newsletter,
		Key:        "newsletter",
		Label:      "Newsletter",
		Template:   TemplateNewsletter,
		MaxTokens:  3500,
		ReviewHint: "Review the email body only; do not add a subject line.",
		Shape:      shapeNewsletter,
		Reshape:    shapeNewsletter,
	},
}

// Platforms 返回全部平台，顺序稳定。
func Platforms() []Platform {
	out := make([]Platform, 0, len(platformTable))
	for _, s := range platformTable {
		out = append(out, s.Platform)
	}
	return out
}

// Lookup 返回平台对应的表项。
func Lookup(p Platform) (PlatformSpec, error) {
	for _, s := range platformTable {
		if s.Platform == p {
			return s, nil
		}
	}
	return PlatformSpec{}, fmt.Errorf("unknown platform %d", int(p))
}

// ParsePlatform 把配置/请求里的名字解析成枚举值。
func ParsePlatform(name string) (Platform, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, s := range platformTable {
		if s.Key == key {
			return s.Platform, nil
		}
	}
	return 0, fmt.Errorf("unknown platform %q", name)
}

func (p Platform) String() string {
	if s, err := Lookup(p); err == nil {
		return s.Key
	}
	return fmt.Sprintf("platform(%d)", int(p))
}

// Label 返回给模型看的平台名。
func (p Platform) Label() string {
	if s, err := Lookup(p); err == nil {
		return s.Label
	}
	return p.String()
}

func (p Platform) MarshalText() ([]byte, error) {
	if _, err := Lookup(p); err != nil {
		return nil, err
	}
	return []byte(p.String()), nil
}

func (p *Platform) UnmarshalText(text []byte) error {
	v, err := ParsePlatform(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
