package content

import (
	"regexp"
	"strings"
)

// BlockKind classifies a chunk of lesson explanation.
type BlockKind string

const (
	BlockParagraph BlockKind = "paragraph"
	BlockHeading   BlockKind = "heading"
	BlockBullets   BlockKind = "bullets"
	BlockOrdered   BlockKind = "ordered"
	BlockCodeFence BlockKind = "code-fence"
)

// Block is one display unit of an explanation. Inline markup (**bold**, `code`)
// is left in Text and Items for the renderer.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Text  string    `json:"text,omitempty"`
	Items []string  `json:"items,omitempty"`
}

var (
	orderedPrefix = regexp.MustCompile(`^\d+\.\s*`)
	bulletPrefix  = regexp.MustCompile(`^[•-]\s*`)
)

// Format splits an explanation on blank lines and classifies each paragraph.
func Format(text string) []Block {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var blocks []Block
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		blocks = append(blocks, classify(para))
	}
	return blocks
}

func classify(para string) Block {
	switch {
	case strings.HasPrefix(para, "```"):
		return Block{Kind: BlockCodeFence, Text: para}
	case strings.HasPrefix(para, "1."):
		return Block{Kind: BlockOrdered, Items: listItems(para, orderedPrefix)}
	case strings.HasPrefix(para, "•"), strings.HasPrefix(para, "-"):
		return Block{Kind: BlockBullets, Items: listItems(para, bulletPrefix)}
	case isHeading(para):
		return Block{Kind: BlockHeading, Text: strings.ReplaceAll(para, "**", "")}
	}
	return Block{Kind: BlockParagraph, Text: para}
}

func isHeading(para string) bool {
	return len(para) > 4 &&
		strings.HasPrefix(para, "**") &&
		strings.HasSuffix(para, "**") &&
		!strings.Contains(para, "\n")
}

func listItems(para string, prefix *regexp.Regexp) []string {
	var items []string
	for _, line := range strings.Split(para, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, prefix.ReplaceAllString(line, ""))
	}
	return items
}
