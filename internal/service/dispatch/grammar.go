package dispatch

import "strings"

type actionKind int

const (
	actionText actionKind = iota
	actionImage
	actionConclusion
)

type action struct {
	kind    actionKind
	url     string
	caption string
	body    string
	labels  []string
}

// classify maps one completed line onto the command grammar. Checks run in
// priority order and the first match wins; a line that carries a known
// prefix but fails its field shape falls through to plain text rather than
// erroring. Fields are semicolon-split with no escaping.
func classify(line, conclusionPrefix string) action {
	if act, ok := parseImage(line); ok {
		return act
	}
	if act, ok := parseConclusion(line, conclusionPrefix+" "); ok {
		return act
	}
	return action{kind: actionText}
}

func parseImage(line string) (action, bool) {
	rest, ok := strings.CutPrefix(line, ImagePrefix)
	if !ok || !strings.Contains(rest, ";") {
		return action{}, false
	}

	fields := strings.Split(rest, ";")
	url := strings.TrimSpace(fields[0])
	if url == "" {
		return action{}, false
	}

	var caption string
	if len(fields) > 1 {
		caption = strings.TrimSpace(fields[1])
	}
	return action{kind: actionImage, url: url, caption: caption}, true
}

func parseConclusion(line, prefix string) (action, bool) {
	rest, ok := strings.CutPrefix(line, prefix)
	if !ok || !strings.Contains(rest, ";") {
		return action{}, false
	}

	fields := strings.Split(rest, ";")
	body := strings.TrimSpace(fields[0])

	var labels []string
	for _, f := range fields[1:] {
		if l := strings.TrimSpace(f); l != "" {
			labels = append(labels, l)
		}
	}

	// A conclusion needs a body and at least one suggestion to mean
	// anything as a keyboard.
	if body == "" || len(labels) == 0 {
		return action{}, false
	}
	return action{kind: actionConclusion, body: body, labels: labels}, true
}
