package preview

import (
	"strings"

	"github.com/Strob0t/showcase/internal/domain/project"
)

const (
	charsetMeta  = `<meta charset="UTF-8">`
	viewportMeta = `<meta name="viewport" content="width=device-width, initial-scale=1.0">`
)

// Bundles holds the concatenated text of every file of one kind, in file order.
type Bundles struct {
	Style     string
	Script    string
	Auxiliary string
}

// Add appends the text of a file to the bundle for its kind. Markup and
// unrecognized kinds are ignored.
func (b *Bundles) Add(kind project.Kind, name, text string) {
	switch kind {
	case project.KindStyle:
		b.Style += "/* " + name + " */\n" + text + "\n\n"
	case project.KindScript:
		b.Script += "/* " + name + " */\n" + text + "\n\n"
	case project.KindAuxiliary:
		b.Auxiliary += "# " + name + "\n" + text + "\n\n"
	}
}

// Assemble injects the bundles into markup. Every insertion is a single
// first-match substring replacement; the markup is never parsed, so unusual
// markup such as repeated or attributed <head> tags is taken literally.
func Assemble(markup string, b Bundles) string {
	doc := markup

	styleBlock := ""
	if b.Style != "" {
		styleBlock = "<style>\n" + b.Style + "</style>\n"
	}

	switch {
	case strings.Contains(doc, "charset"):
		if strings.Contains(doc, "<head>") && styleBlock != "" {
			doc = strings.Replace(doc, "</head>", styleBlock+"</head>", 1)
		}
	case strings.Contains(doc, "<head>"):
		if !strings.Contains(doc, "<meta charset") {
			doc = strings.Replace(doc, "<head>", "<head>\n"+charsetMeta, 1)
		}
		if styleBlock != "" {
			doc = strings.Replace(doc, "</head>", styleBlock+"</head>", 1)
		}
	case strings.Contains(doc, "<html>"):
		head := "<html>\n<head>\n" + charsetMeta + "\n" + viewportMeta + "\n" + styleBlock + "</head>"
		doc = strings.Replace(doc, "<html>", head, 1)
	default:
		doc = "<!DOCTYPE html>\n<html lang=\"ar\" dir=\"rtl\">\n<head>\n" +
			charsetMeta + "\n" + viewportMeta + "\n" + styleBlock +
			"</head>\n<body>\n" + doc + "\n</body>\n</html>"
	}

	if b.Script != "" {
		scriptBlock := "<script>\n" + b.Script + "</script>\n"
		switch {
		case strings.Contains(doc, "</body>"):
			doc = strings.Replace(doc, "</body>", scriptBlock+"</body>", 1)
		case strings.Contains(doc, "</html>"):
			doc = strings.Replace(doc, "</html>", scriptBlock+"</html>", 1)
		default:
			doc += "\n<script>\n" + b.Script + "</script>"
		}
	}

	if b.Auxiliary != "" && strings.Contains(doc, "</body>") {
		comment := "\n<!-- Python Files (for reference):\n" + escapeComment(b.Auxiliary) + "\n-->"
		doc = strings.Replace(doc, "</body>", comment+"\n</body>", 1)
	}

	return doc
}

// escapeComment keeps text from terminating an enclosing HTML comment.
func escapeComment(s string) string {
	return strings.ReplaceAll(s, "-->", "--&gt;")
}
