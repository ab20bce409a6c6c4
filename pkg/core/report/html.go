package report

import (
	"bytes"
	"fmt"
	"html"

	"statement_engine/pkg/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML renders the Markdown report as a standalone HTML document.
func HTML(result *models.ModelResult, opts Options) (string, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(result, opts)), &body); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}

	title := opts.Title
	if title == "" {
		title = "Financial Model"
	}
	return fmt.Sprintf(htmlPage, html.EscapeString(title), body.String()), nil
}

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { padding: 2px 10px; border-bottom: 1px solid #ddd; }
</style>
</head>
<body>
%s</body>
</html>
`
