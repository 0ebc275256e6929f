package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidFrontmatter indicates the frontmatter delimiter was opened but
// never closed.
var ErrInvalidFrontmatter = errors.New("invalid frontmatter")

const (
	yamlDelimiter = "---"
	tomlDelimiter = "+++"
)

// ExtractFrontmatter splits content into a raw frontmatter block and the
// remaining body, supporting both `---`-delimited YAML and `+++`-delimited
// TOML frontmatter. Ported case-for-case from the teacher's
// pkg/plugins/frontmatter.go ExtractFrontmatter (own-line delimiter
// requirement, empty-frontmatter short-circuit, unclosed-delimiter error),
// generalized to accept either delimiter so content/utils.CONTENT_EXTENSIONS'
// .md/.markdown/.rst/.txt files can use whichever convention their author
// prefers.
func ExtractFrontmatter(content string) (delimiter, frontmatter, body string, err error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	for _, delim := range []string{yamlDelimiter, tomlDelimiter} {
		if !strings.HasPrefix(content, delim) {
			continue
		}
		afterOpening := content[len(delim):]
		if len(afterOpening) > 0 && afterOpening[0] != '\n' {
			continue
		}
		if len(afterOpening) > 0 {
			afterOpening = afterOpening[1:]
		}

		if strings.HasPrefix(afterOpening, delim) {
			remaining := afterOpening[len(delim):]
			remaining = strings.TrimPrefix(remaining, "\n")
			return delim, "", remaining, nil
		}

		closingIdx := strings.Index(afterOpening, "\n"+delim)
		if closingIdx == -1 {
			if strings.HasSuffix(afterOpening, "\n"+delim) {
				closingIdx = len(afterOpening) - len(delim) - 1
			} else {
				return "", "", "", fmt.Errorf("%w: unclosed %q frontmatter delimiter", ErrInvalidFrontmatter, delim)
			}
		}

		frontmatter = afterOpening[:closingIdx]
		remaining := afterOpening[closingIdx+1:]
		remaining = strings.TrimPrefix(remaining, delim)
		remaining = strings.TrimPrefix(remaining, "\n")
		return delim, frontmatter, remaining, nil
	}

	return "", "", content, nil
}

// ParseFrontmatter extracts and decodes a content file's frontmatter into
// Metadata, returning the remaining body. A file with no frontmatter block
// yields empty Metadata and the full content as body.
func ParseFrontmatter(content string) (Metadata, string, error) {
	delim, raw, body, err := ExtractFrontmatter(content)
	if err != nil {
		return nil, "", err
	}
	if raw == "" {
		return Metadata{}, body, nil
	}

	var decoded map[string]interface{}
	switch delim {
	case tomlDelimiter:
		if err := toml.Unmarshal([]byte(raw), &decoded); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	default:
		if err := yaml.Unmarshal([]byte(raw), &decoded); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}
	if decoded == nil {
		decoded = map[string]interface{}{}
	}
	return MetadataFromInterface(decoded), body, nil
}
