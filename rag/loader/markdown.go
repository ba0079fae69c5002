package loader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"

	"github.com/smallnest/minirag/log"
	"github.com/smallnest/minirag/rag"
)

// MarkdownLoader loads local markdown files as Documents, stripping the
// markup down to plain text. A file that cannot be read or parsed is
// logged and omitted.
type MarkdownLoader struct {
	paths  []string
	logger log.Logger
}

// NewMarkdownLoader creates a loader for the given file paths.
func NewMarkdownLoader(paths []string, logger log.Logger) *MarkdownLoader {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &MarkdownLoader{
		paths:  paths,
		logger: logger,
	}
}

// Load reads each file in order and returns the successfully parsed
// documents.
func (l *MarkdownLoader) Load(ctx context.Context) ([]rag.Document, error) {
	documents := make([]rag.Document, 0, len(l.paths))
	for _, path := range l.paths {
		doc, err := l.loadFile(path)
		if err != nil {
			l.logger.Warn("skipping %s: %v", path, err)
			continue
		}
		documents = append(documents, doc)
	}
	return documents, nil
}

func (l *MarkdownLoader) loadFile(path string) (rag.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rag.Document{}, fmt.Errorf("failed to read file: %w", err)
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	root := p.Parse(data)

	title, content := flattenMarkdown(root)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if content == "" {
		return rag.Document{}, fmt.Errorf("no extractable text")
	}

	return rag.Document{
		Source:  path,
		Title:   title,
		Content: content,
		Metadata: map[string]any{
			"path":      path,
			"load_date": time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// flattenMarkdown walks the parsed tree collecting the text of every
// leaf. The first level-1 heading becomes the title; block boundaries
// become newlines.
func flattenMarkdown(root ast.Node) (title, content string) {
	var buf bytes.Buffer
	var headingBuf *bytes.Buffer

	ast.WalkFunc(root, func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.Heading:
			if entering && n.Level == 1 && title == "" {
				headingBuf = &bytes.Buffer{}
			} else if !entering && headingBuf != nil {
				title = strings.TrimSpace(headingBuf.String())
				headingBuf = nil
			}
		case *ast.Text:
			if entering {
				buf.Write(n.Literal)
				if headingBuf != nil {
					headingBuf.Write(n.Literal)
				}
			}
		case *ast.Code:
			if entering {
				buf.Write(n.Literal)
			}
		case *ast.CodeBlock:
			if entering {
				buf.Write(n.Literal)
				buf.WriteByte('\n')
			}
		}
		if _, isContainer := node.(*ast.Paragraph); isContainer && !entering {
			buf.WriteByte('\n')
		}
		if _, isHeading := node.(*ast.Heading); isHeading && !entering {
			buf.WriteByte('\n')
		}
		return ast.GoToNext
	})

	return title, strings.TrimSpace(buf.String())
}
