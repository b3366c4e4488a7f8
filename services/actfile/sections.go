package actfile

import "strings"

// splitSections walks the raw source line by line, grouping content
// under each `[name]` header until the next header or EOF (§4.1).
func splitSections(src, path string) ([]rawSection, error) {
	lines := strings.Split(src, "\n")

	var sections []rawSection
	var current *rawSection

	for i, text := range lines {
		num := i + 1
		if m := headerRe.FindStringSubmatch(text); m != nil {
			if current != nil {
				sections = append(sections, *current)
			}
			current = &rawSection{name: strings.TrimSpace(m[1]), header: num}
			continue
		}
		if current == nil {
			// Content before any section header is ignored.
			continue
		}
		current.body = append(current.body, rawLine{text: text, num: num})
	}
	if current != nil {
		sections = append(sections, *current)
	}
	return sections, nil
}
