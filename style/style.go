// Package style resolves the style guidance applied to every generation and critique in a run.
package style

import (
	"context"
	"strings"

	"content_repurposer/generator"
	"content_repurposer/logger"
)

// Guide is one style record: rules, tone, voice and example posts.
type Guide struct {
	Name     string   `json:"name" yaml:"name"`
	Platform string   `json:"platform,omitempty" yaml:"platform,omitempty"`
	Rules    string   `json:"rules" yaml:"rules"`
	Tone     string   `json:"tone,omitempty" yaml:"tone,omitempty"`
	Voice    string   `json:"voice,omitempty" yaml:"voice,omitempty"`
	Examples []string `json:"examples,omitempty" yaml:"examples,omitempty"`
	Active   bool     `json:"active" yaml:"-"`
}

// Default is used when no active guide is configured or the lookup fails.
var Default = Guide{
	Name:   "built-in",
	Rules:  "Create engaging, authentic content.",
	Tone:   "conversational",
	Voice:  "Knowledgeable but approachable",
	Active: true,
}

// Render formats the guide into the block embedded in generation and critique prompts.
func (g Guide) Render() (string, error) {
	tone := strings.TrimSpace(g.Tone)
	if tone == "" {
		tone = "conversational"
	}
	voice := strings.TrimSpace(g.Voice)
	if voice == "" {
		voice = "Authentic and engaging"
	}
	return generator.Render(generator.TemplateStyle, map[string]any{
		"Rules":    strings.TrimSpace(g.Rules),
		"Tone":     tone,
		"Voice":    voice,
		"Examples": strings.Join(g.Examples, "\n"),
	})
}

// DefaultText is the rendering of Default.
func DefaultText() string {
	text, err := Default.Render()
	if err != nil {
		// The built-in template and fields are fixed; this only trips on a broken build.
		panic(err)
	}
	return text
}

// Store looks up active style guides. FindActive returns nil, nil when nothing matches;
// an empty platform means a general guide with no platform scope.
type Store interface {
	FindActive(ctx context.Context, platform string) (*Guide, error)
}

// Source tells where a resolved guide came from.
type Source string

const (
	SourcePlatform Source = "platform"
	SourceGeneral  Source = "general"
	SourceDefault  Source = "default"
)

// Resolution is the outcome of a style lookup.
type Resolution struct {
	Guide  Guide
	Text   string
	Source Source
}

// Provider applies the lookup policy: platform guide, then general guide, then Default.
// It never fails; lookup errors are logged and degrade to Default.
type Provider struct {
	store Store
	log   *logger.Logger
}

func NewProvider(store Store, log *logger.Logger) *Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &Provider{store: store, log: log.With("component", "style")}
}

// Resolve returns the style guidance for platform ("" for the general guide).
func (p *Provider) Resolve(ctx context.Context, platform string) Resolution {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if p.store == nil {
		return p.fallback(platform, "no style store configured", nil)
	}

	if platform != "" {
		g, err := p.store.FindActive(ctx, platform)
		if err != nil {
			return p.fallback(platform, "style guide lookup failed", err)
		}
		if g != nil {
			return p.resolved(*g, SourcePlatform, platform)
		}
	}

	g, err := p.store.FindActive(ctx, "")
	if err != nil {
		return p.fallback(platform, "style guide lookup failed", err)
	}
	if g == nil {
		return p.fallback(platform, "no style guide found", nil)
	}
	return p.resolved(*g, SourceGeneral, platform)
}

func (p *Provider) resolved(g Guide, src Source, platform string) Resolution {
	text, err := g.Render()
	if err != nil {
		return p.fallback(platform, "style guide render failed", err)
	}
	p.log.Info("style_guide_retrieved", "name", g.Name, "platform", platform, "source", src)
	return Resolution{Guide: g, Text: text, Source: src}
}

func (p *Provider) fallback(platform, reason string, err error) Resolution {
	if err != nil {
		p.log.Error("style_guide_fallback", "platform", platform, "reason", reason, "error", err)
	} else {
		p.log.Warn("style_guide_fallback", "platform", platform, "reason", reason)
	}
	return Resolution{Guide: Default, Text: DefaultText(), Source: SourceDefault}
}
