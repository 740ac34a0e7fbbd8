package browser

import (
	"strings"

	"e2e_harness/domain/entities"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Tags never rendered by a browser
var nonRendered = map[string]bool{
	"head": true, "script": true, "style": true, "template": true,
	"title": true, "meta": true, "link": true, "noscript": true,
}

// roleOf returns the explicit role of s, or its implicit ARIA role
func roleOf(s *goquery.Selection) string {
	if role, ok := s.Attr("role"); ok {
		if fields := strings.Fields(role); len(fields) > 0 {
			return strings.ToLower(fields[0])
		}
	}

	switch goquery.NodeName(s) {
	case "a", "area":
		if _, ok := s.Attr("href"); ok {
			return "link"
		}
	case "button":
		return "button"
	case "input":
		switch inputType(s) {
		case "button", "submit", "reset", "image":
			return "button"
		case "checkbox":
			return "checkbox"
		case "radio":
			return "radio"
		case "search":
			if _, ok := s.Attr("list"); !ok {
				return "searchbox"
			}
			return "combobox"
		case "text", "email", "tel", "url":
			if _, ok := s.Attr("list"); ok {
				return "combobox"
			}
			return "textbox"
		case "number":
			return "spinbutton"
		case "range":
			return "slider"
		}
	case "textarea":
		return "textbox"
	case "select":
		if _, ok := s.Attr("multiple"); ok {
			return "listbox"
		}
		return "combobox"
	case "option":
		return "option"
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return "heading"
	case "img":
		if alt, ok := s.Attr("alt"); ok && alt == "" {
			return "presentation"
		}
		return "img"
	case "ul", "ol":
		return "list"
	case "li":
		return "listitem"
	case "nav":
		return "navigation"
	case "main":
		return "main"
	case "table":
		return "table"
	case "tr":
		return "row"
	case "td":
		return "cell"
	case "th":
		return "columnheader"
	case "dialog":
		return "dialog"
	case "form":
		if _, ok := s.Attr("aria-label"); ok {
			return "form"
		}
	}
	return ""
}

func inputType(s *goquery.Selection) string {
	t := strings.ToLower(strings.TrimSpace(s.AttrOr("type", "text")))
	if t == "" {
		return "text"
	}
	return t
}

// nameFromContent lists roles whose accessible name comes from their subtree
var nameFromContent = map[string]bool{
	"button": true, "link": true, "heading": true, "checkbox": true,
	"radio": true, "option": true, "listitem": true, "cell": true,
	"columnheader": true, "row": true, "tab": true, "menuitem": true,
	"menuitemradio": true, "menuitemcheckbox": true, "switch": true,
}

// accessibleName computes a simplified accessible name for s
func accessibleName(doc *goquery.Document, s *goquery.Selection) string {
	if name := labelledBy(doc, s); name != "" {
		return name
	}
	if label := strings.TrimSpace(s.AttrOr("aria-label", "")); label != "" {
		return entities.NormalizeText(label)
	}

	tag := goquery.NodeName(s)
	if isLabelable(s) {
		if labels := associatedLabels(doc, s); len(labels) > 0 {
			return strings.Join(labels, " ")
		}
	}
	if tag == "input" {
		switch inputType(s) {
		case "button", "submit", "reset":
			if v, ok := s.Attr("value"); ok {
				return entities.NormalizeText(v)
			}
			if inputType(s) == "submit" {
				return "Submit"
			}
		case "image":
			if alt := s.AttrOr("alt", ""); alt != "" {
				return entities.NormalizeText(alt)
			}
		}
	}
	if tag == "img" {
		if alt := s.AttrOr("alt", ""); alt != "" {
			return entities.NormalizeText(alt)
		}
	}

	if nameFromContent[roleOf(s)] {
		if text := renderedText(s); text != "" {
			return text
		}
	}
	if title := s.AttrOr("title", ""); title != "" {
		return entities.NormalizeText(title)
	}
	return entities.NormalizeText(s.AttrOr("placeholder", ""))
}

// labelsOf returns every label text that getByLabel-style matching considers
func labelsOf(doc *goquery.Document, s *goquery.Selection) []string {
	var out []string
	if name := labelledBy(doc, s); name != "" {
		out = append(out, name)
	}
	if label := strings.TrimSpace(s.AttrOr("aria-label", "")); label != "" {
		out = append(out, entities.NormalizeText(label))
	}
	if isLabelable(s) {
		out = append(out, associatedLabels(doc, s)...)
	}
	return out
}

func labelledBy(doc *goquery.Document, s *goquery.Selection) string {
	ids := strings.Fields(s.AttrOr("aria-labelledby", ""))
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		ref := findByID(doc, id)
		if ref.Length() == 0 {
			continue
		}
		if text := renderedText(ref); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func isLabelable(s *goquery.Selection) bool {
	switch goquery.NodeName(s) {
	case "input":
		return inputType(s) != "hidden"
	case "select", "textarea", "button", "meter", "output", "progress":
		return true
	}
	return false
}

// associatedLabels returns the texts of <label for=id> elements and of a
// wrapping <label>
func associatedLabels(doc *goquery.Document, s *goquery.Selection) []string {
	var out []string
	if id, ok := s.Attr("id"); ok && id != "" {
		doc.Find("label").Each(func(_ int, label *goquery.Selection) {
			if label.AttrOr("for", "") == id {
				if text := renderedText(label); text != "" {
					out = append(out, text)
				}
			}
		})
	}
	if wrap := s.Closest("label"); wrap.Length() > 0 {
		if _, hasFor := wrap.Attr("for"); !hasFor {
			if text := renderedText(wrap); text != "" {
				out = append(out, text)
			}
		}
	}
	return out
}

func findByID(doc *goquery.Document, id string) *goquery.Selection {
	return doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("id", "") == id
	}).First()
}

// renderedText is the normalised text of s without non-rendered subtrees
func renderedText(s *goquery.Selection) string {
	clone := s.Clone()
	clone.Find("script, style, template, noscript").Remove()
	return entities.NormalizeText(clone.Text())
}

// isVisible approximates CSS visibility from markup: hidden attributes,
// inline display/visibility styles, and non-rendered tags on s or an ancestor.
func isVisible(s *goquery.Selection) bool {
	if goquery.NodeName(s) == "input" && inputType(s) == "hidden" {
		return false
	}
	for cur := s; cur.Length() > 0; cur = cur.Parent() {
		if cur.Get(0).Type != html.ElementNode {
			break
		}
		if nonRendered[goquery.NodeName(cur)] {
			return false
		}
		if _, ok := cur.Attr("hidden"); ok {
			return false
		}
		style := strings.ToLower(strings.ReplaceAll(cur.AttrOr("style", ""), " ", ""))
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

// isEnabled follows the HTML disabled rules plus aria-disabled
func isEnabled(s *goquery.Selection) bool {
	if strings.EqualFold(s.AttrOr("aria-disabled", ""), "true") {
		return false
	}
	switch goquery.NodeName(s) {
	case "button", "input", "select", "textarea", "option", "optgroup", "fieldset":
	default:
		return true
	}
	if _, ok := s.Attr("disabled"); ok {
		return false
	}
	// A disabled fieldset disables everything but the contents of its first legend
	disabled := false
	s.ParentsFiltered("fieldset").EachWithBreak(func(_ int, fs *goquery.Selection) bool {
		if _, ok := fs.Attr("disabled"); !ok {
			return true
		}
		legend := fs.ChildrenFiltered("legend").First()
		if legend.Length() > 0 && legend.Contains(s.Get(0)) {
			return true
		}
		disabled = true
		return false
	})
	return !disabled
}
