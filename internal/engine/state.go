package engine

import (
	"fmt"
	"strings"
)

// indexScript tags visible interactive elements with a stable data attribute
// and returns their descriptions. Re-run before every index-addressed action
// so indices always reflect the live DOM.
const indexScript = `() => {
	const selector = 'a, button, input, textarea, select, [role="button"], [role="link"], [role="checkbox"], [onclick], [contenteditable="true"]';
	const out = [];
	let i = 0;
	for (const el of document.querySelectorAll(selector)) {
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		if (rect.width === 0 || rect.height === 0 || style.visibility === 'hidden' || style.display === 'none') {
			el.removeAttribute('data-bd-index');
			continue;
		}
		el.setAttribute('data-bd-index', String(i));
		const label = (el.innerText || el.value || el.getAttribute('placeholder') || el.getAttribute('aria-label') || '').trim();
		out.push({
			index: i,
			tag: el.tagName.toLowerCase(),
			type: el.getAttribute('type') || '',
			text: label.slice(0, 120),
			href: el.getAttribute('href') || '',
		});
		i++;
	}
	return out;
}`

// indexSelector returns the selector addressing the element tagged with the
// given index by indexScript.
func indexSelector(index int) string {
	return fmt.Sprintf(`[data-bd-index="%d"]`, index)
}

// parseElements converts the raw Evaluate result of indexScript into typed
// elements.
func parseElements(raw any) []Element {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	elements := make([]Element, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		elements = append(elements, Element{
			Index: asInt(m["index"]),
			Tag:   asString(m["tag"]),
			Type:  asString(m["type"]),
			Text:  asString(m["text"]),
			Href:  asString(m["href"]),
		})
	}
	return elements
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

// Render formats the state the way clients and the task runner consume it:
// the page header followed by one line per interactive element.
func (s *PageState) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\nTitle: %s\n", s.URL, s.Title)
	if len(s.Elements) == 0 {
		b.WriteString("No interactive elements found.\n")
		return b.String()
	}
	b.WriteString("Interactive elements:\n")
	for _, el := range s.Elements {
		fmt.Fprintf(&b, "[%d]<%s>", el.Index, describeTag(el))
		if el.Text != "" {
			fmt.Fprintf(&b, " %s", el.Text)
		}
		if el.Href != "" {
			fmt.Fprintf(&b, " (%s)", el.Href)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func describeTag(el Element) string {
	if el.Type != "" {
		return el.Tag + ":" + el.Type
	}
	return el.Tag
}

// NormalizeURL prefixes bare host names with https so "example.com" opens
// without ceremony.
func NormalizeURL(url string) string {
	if url == "" {
		return url
	}
	if strings.Contains(url, "://") || strings.HasPrefix(url, "about:") {
		return url
	}
	return "https://" + url
}
