package actfile

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"actengine/services/value"
)

var headerRe = regexp.MustCompile(`^\s*\[(.+?)\]\s*(?:[#;].*)?$`)

type rawLine struct {
	text string
	num  int
}

type rawSection struct {
	name     string
	header   int
	body     []rawLine
}

// Parse loads and parses an Actfile from path.
func Parse(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newParseError(path, 0, "cannot read file: %v", err)
	}
	return parse(string(data), path)
}

// ParseString parses Actfile source already in memory. baseDir anchors
// relative `path = ...` node file loads (§4.1); with "" a relative path
// is read relative to the process's working directory.
func ParseString(src, baseDir string) (*Workflow, error) {
	return parse(src, baseDir)
}

func parse(src, pathOrDir string) (*Workflow, error) {
	baseDir := pathOrDir
	if info, err := os.Stat(pathOrDir); err == nil && !info.IsDir() {
		baseDir = filepath.Dir(pathOrDir)
	}

	sections, err := splitSections(src, pathOrDir)
	if err != nil {
		return nil, err
	}

	wf := NewWorkflow()

	for _, sec := range sections {
		lname := strings.ToLower(sec.name)
		switch {
		case lname == "workflow":
			if err := applyWorkflowSection(wf, sec, pathOrDir); err != nil {
				return nil, err
			}
		case lname == "parameters":
			kvs, err := parseKeyValueBody(sec.body, pathOrDir)
			if err != nil {
				return nil, err
			}
			for _, kv := range kvs {
				wf.Parameters[kv.key] = kv.value
			}
		case lname == "env":
			if err := applyEnvSection(wf, sec); err != nil {
				return nil, err
			}
		case lname == "settings":
			kvs, err := parseKeyValueBody(sec.body, pathOrDir)
			if err != nil {
				return nil, err
			}
			for _, kv := range kvs {
				wf.Settings[kv.key] = kv.value
			}
		case lname == "configuration":
			kvs, err := parseKeyValueBody(sec.body, pathOrDir)
			if err != nil {
				return nil, err
			}
			for _, kv := range kvs {
				wf.Configuration[kv.key] = kv.value
			}
		case lname == "deployment":
			kvs, err := parseKeyValueBody(sec.body, pathOrDir)
			if err != nil {
				return nil, err
			}
			for _, kv := range kvs {
				wf.Deployment[kv.key] = kv.value
			}
		case lname == "edges":
			if err := applyListSection(sec, pathOrDir, wf.AddEdges); err != nil {
				return nil, err
			}
		case lname == "dependencies":
			if err := applyListSection(sec, pathOrDir, func(k string, vs ...string) {
				wf.Dependencies[k] = append(wf.Dependencies[k], vs...)
			}); err != nil {
				return nil, err
			}
		case strings.HasPrefix(lname, "node:"):
			nodeID := sec.name[len("node:"):]
			if err := applyNodeSection(wf, nodeID, sec, baseDir, pathOrDir); err != nil {
				return nil, err
			}
		default:
			// Unknown section names are ignored, matching the source
			// parser's tolerance of forward-compatible sections.
		}
	}

	if err := validateStructure(wf, pathOrDir); err != nil {
		return nil, err
	}

	applyStaticSubstitution(wf)

	return wf, nil
}

func applyWorkflowSection(wf *Workflow, sec rawSection, path string) error {
	kvs, err := parseKeyValueBody(sec.body, path)
	if err != nil {
		return err
	}
	for _, kv := range kvs {
		s, _ := kv.value.AsString()
		switch kv.key {
		case "name":
			wf.Name = s
		case "description":
			wf.Description = s
		case "start_node":
			wf.StartNode = s
		}
	}
	return nil
}

func applyEnvSection(wf *Workflow, sec rawSection) error {
	for _, ln := range sec.body {
		trimmed := strings.TrimSpace(ln.text)
		if trimmed == "" || isFullLineComment(trimmed) {
			continue
		}
		key, raw, ok := splitKeyValue(trimmed)
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		if strings.HasPrefix(raw, "${") && strings.HasSuffix(raw, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(raw, "${"), "}")
			v, found := os.LookupEnv(envKey)
			if !found {
				// Missing env var: log a warning and resolve to empty string.
				slog.Warn("actfile: env var not set, using empty string", "key", key, "env", envKey)
				wf.Env[key] = ""
			} else {
				wf.Env[key] = v
			}
		} else {
			wf.Env[key] = raw
		}
	}
	return nil
}

// applyListSection parses "SRC = T1, T2, ..." lines (edges/dependencies).
func applyListSection(sec rawSection, path string, add func(string, ...string)) error {
	for _, ln := range sec.body {
		trimmed := strings.TrimSpace(ln.text)
		if trimmed == "" || isFullLineComment(trimmed) {
			continue
		}
		key, raw, ok := splitKeyValue(trimmed)
		if !ok {
			return newParseError(path, ln.num, "malformed line in %q section: %q", sec.name, trimmed)
		}
		raw = stripTrailingComment(raw)
		parts := strings.Split(raw, ",")
		var targets []string
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			targets = append(targets, p)
		}
		add(key, targets...)
	}
	return nil
}

func applyNodeSection(wf *Workflow, nodeID string, sec rawSection, baseDir, path string) error {
	kvs, err := parseKeyValueBody(sec.body, path)
	if err != nil {
		return err
	}

	n := NewNodeDef(nodeID, "")
	for _, kv := range kvs {
		if kv.key == "type" {
			s, _ := kv.value.AsString()
			n.Type = s
			continue
		}
		n.Set(kv.key, kv.value)
	}

	if n.Type == "" {
		return newParseError(path, sec.header, "node %q missing required field: type", nodeID)
	}

	if (n.Type == "py" || n.Type == "python") {
		if rel, ok := n.Params["path"]; ok {
			relStr, _ := rel.AsString()
			full := relStr
			if !filepath.IsAbs(relStr) && baseDir != "" {
				full = filepath.Join(baseDir, relStr)
			}
			data, err := os.ReadFile(full)
			if err != nil {
				return newParseError(path, sec.header, "node %q: cannot load code file %q: %v", nodeID, relStr, err)
			}
			n.Set("code", value.String(string(data)))
		}
	}

	wf.AddNode(n)
	return nil
}

func isFullLineComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";")
}

// splitKeyValue splits a line on the first '=', trimming the key.
func splitKeyValue(line string) (key, rest string, ok bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	rest = line[idx+1:]
	return key, rest, key != ""
}

// stripTrailingComment removes a trailing "# ..." or "; ..." comment
// from a value (used only by the edges/dependencies list grammar,
// §4.1 — general key=value lines do NOT strip trailing comments).
func stripTrailingComment(s string) string {
	for _, marker := range []string{"#", ";"} {
		if idx := strings.Index(s, marker); idx >= 0 {
			s = s[:idx]
		}
	}
	return s
}
