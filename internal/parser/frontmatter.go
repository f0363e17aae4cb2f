package parser

import (
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/dgallion1/papertrans/internal/mdblock"
)

// FrontMatter is the metadata a paper may carry in a leading yaml block.
type FrontMatter struct {
	Title    string         `yaml:"title" json:"title,omitempty"`
	Author   string         `yaml:"author" json:"author,omitempty"`
	Source   string         `yaml:"source" json:"source,omitempty"`
	Language string         `yaml:"lang" json:"lang,omitempty"`
	Tags     []string       `yaml:"tags" json:"tags,omitempty"`
	Custom   map[string]any `yaml:",inline" json:"-"`
}

// ParseFrontMatter decodes the document's first block when it is a yaml
// block. Malformed yaml is ignored.
func ParseFrontMatter(blocks []mdblock.Block) (FrontMatter, bool) {
	var meta FrontMatter
	if len(blocks) == 0 || blocks[0].Kind != mdblock.KindYAML {
		return meta, false
	}
	if _, err := frontmatter.Parse(strings.NewReader(blocks[0].Content), &meta); err != nil {
		return FrontMatter{}, false
	}
	return meta, true
}
