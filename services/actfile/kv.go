package actfile

import (
	"strings"

	"actengine/services/value"
)

type kvPair struct {
	key   string
	value value.Value
}

// multilineKeys are the keys that may open a triple-quoted block
// (§4.1 Multiline blocks: "The same rule applies to prompt").
var multilineKeys = map[string]bool{"code": true, "prompt": true}

// parseKeyValueBody processes the lines of a generic key=value section
// body (workflow/parameters/settings/configuration/deployment/node:*),
// honoring full-line comments, triple-quote blocks, and multi-line JSON.
func parseKeyValueBody(lines []rawLine, path string) ([]kvPair, error) {
	var out []kvPair
	i := 0
	for i < len(lines) {
		ln := lines[i]
		trimmed := strings.TrimSpace(ln.text)
		if trimmed == "" || isFullLineComment(trimmed) {
			i++
			continue
		}

		key, rest, ok := splitKeyValue(trimmed)
		if !ok {
			return nil, newParseError(path, ln.num, "malformed key=value line: %q", trimmed)
		}
		restTrimmed := strings.TrimSpace(rest)

		// Triple-quote multiline block for code/prompt.
		if multilineKeys[key] && strings.HasPrefix(restTrimmed, `"""`) {
			body, next, err := consumeTripleQuoteBlock(lines, i, restTrimmed, path)
			if err != nil {
				return nil, err
			}
			out = append(out, kvPair{key: key, value: value.String(body)})
			i = next
			continue
		}

		// Multi-line JSON: value opens a bracket that doesn't close on
		// this line.
		if jsonOpenStart(restTrimmed) {
			joined, next, err := consumeMultilineJSON(lines, i, restTrimmed, path)
			if err != nil {
				return nil, err
			}
			v, ok := tryParseJSON(joined)
			if !ok {
				v = value.String(joined)
			}
			out = append(out, kvPair{key: key, value: v})
			i = next
			continue
		}

		out = append(out, kvPair{key: key, value: parseScalar(restTrimmed)})
		i++
	}
	return out, nil
}

// consumeTripleQuoteBlock reads lines from i until one containing the
// closing """, returning the assembled body text and the index just
// past the closing line.
func consumeTripleQuoteBlock(lines []rawLine, i int, firstRest string, path string) (string, int, error) {
	var body []string

	// firstRest begins with `"""`; anything after it on the opening
	// line is the first content line, unless it was bare `"""`.
	afterOpen := strings.TrimPrefix(firstRest, `"""`)
	if idx := strings.Index(afterOpen, `"""`); idx >= 0 {
		// Opens and closes on the same line.
		return afterOpen[:idx], i + 1, nil
	}
	if strings.TrimSpace(afterOpen) != "" {
		body = append(body, afterOpen)
	}

	for j := i + 1; j < len(lines); j++ {
		text := lines[j].text
		if idx := strings.Index(text, `"""`); idx >= 0 {
			if pre := text[:idx]; pre != "" {
				body = append(body, pre)
			}
			return strings.Join(body, "\n"), j + 1, nil
		}
		body = append(body, text)
	}
	return "", len(lines), newParseError(path, lines[i].num, "unterminated multiline block")
}

// consumeMultilineJSON reads lines from i, tracking bracket depth,
// until depth returns to zero, returning the joined raw text.
func consumeMultilineJSON(lines []rawLine, i int, firstRest string, path string) (string, int, error) {
	var parts []string
	parts = append(parts, firstRest)
	depth := bracketDepth(firstRest)

	j := i + 1
	for depth > 0 && j < len(lines) {
		text := lines[j].text
		parts = append(parts, text)
		depth += bracketDepth(text)
		j++
	}
	if depth > 0 {
		return "", j, newParseError(path, lines[i].num, "unterminated multi-line JSON value")
	}
	return strings.Join(parts, "\n"), j, nil
}
