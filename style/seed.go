package style

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout for importing style guides:
//
//	guides:
//	  - name: general
//	    rules: |
//	      Short sentences.
//	    tone: direct
//	    examples: ["..."]
//	  - name: thread-voice
//	    platform: twitter
//	    active: false
type seedFile struct {
	Guides []seedGuide `yaml:"guides"`
}

type seedGuide struct {
	Guide  `yaml:",inline"`
	Active *bool `yaml:"active"`
}

// ParseSeed decodes guides from YAML. Guides are active unless they say otherwise.
func ParseSeed(r io.Reader) ([]Guide, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse style seed: %w", err)
	}
	out := make([]Guide, 0, len(f.Guides))
	for _, sg := range f.Guides {
		g := sg.Guide
		g.Active = sg.Active == nil || *sg.Active
		out = append(out, g)
	}
	return out, nil
}

// LoadSeedFile imports every guide in path into the store and returns how many were written.
func (s *GormStore) LoadSeedFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	guides, err := ParseSeed(f)
	if err != nil {
		return 0, err
	}
	for i, g := range guides {
		if err := s.Upsert(ctx, g); err != nil {
			return i, fmt.Errorf("import %s: %w", g.Name, err)
		}
		s.log.Info("style_guide_imported", "name", g.Name, "platform", g.Platform, "active", g.Active)
	}
	return len(guides), nil
}
