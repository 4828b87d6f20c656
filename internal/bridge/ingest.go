package bridge

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"regexp"
	"strings"

	"github.com/arjunv/headlamp/schema"
)

// Ingest reads the per-run JSON artifact (if present and parseable) and
// scans captured stdout for inline sentinel-prefixed events, merging
// console entries into the corresponding file result, per spec.md §4.8. If
// the artifact is missing or unparseable, it falls back to a synthesized
// document built by the text prettifier.
func Ingest(captured []byte, artifactPath string) schema.BridgeDocument {
	doc, ok := readArtifact(artifactPath)
	events := scanEvents(captured)

	if !ok {
		return fallbackDocument(captured, events)
	}

	mergeConsoleEvents(&doc, events)
	return doc
}

func readArtifact(path string) (schema.BridgeDocument, bool) {
	if path == "" {
		return schema.BridgeDocument{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.BridgeDocument{}, false
	}
	var doc schema.BridgeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return schema.BridgeDocument{}, false
	}
	return doc, true
}

// scanEvents extracts every sentinel-prefixed inline event from captured
// stdout, tolerating unknown fields and malformed lines.
func scanEvents(captured []byte) []schema.BridgeEvent {
	var events []schema.BridgeEvent
	sentinel := []byte(schema.BridgeEventSentinel)

	scanner := bufio.NewScanner(bytes.NewReader(captured))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		idx := bytes.Index(line, sentinel)
		if idx < 0 {
			continue
		}
		payload := line[idx+len(sentinel):]

		var raw map[string]any
		if err := json.Unmarshal(payload, &raw); err != nil {
			continue
		}
		var ev schema.BridgeEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			continue
		}
		ev.Raw = raw
		events = append(events, ev)
	}
	return events
}

// mergeConsoleEvents groups console entries by their testPath field and
// merges them into the matching TestResult in doc, per spec.md §4.8.
func mergeConsoleEvents(doc *schema.BridgeDocument, events []schema.BridgeEvent) {
	byPath := make(map[string][]schema.ConsoleEntry)
	for _, ev := range events {
		switch ev.Type {
		case schema.EventConsole:
			if ev.Console != nil {
				byPath[ev.Console.TestPath] = append(byPath[ev.Console.TestPath], *ev.Console)
			}
		case schema.EventConsoleBatch:
			for _, entry := range ev.Batch {
				byPath[entry.TestPath] = append(byPath[entry.TestPath], entry)
			}
		}
	}
	if len(byPath) == 0 {
		return
	}

	for i := range doc.TestResults {
		if extra, ok := byPath[doc.TestResults[i].TestFilePath]; ok {
			doc.TestResults[i].ConsoleEntries = append(doc.TestResults[i].ConsoleEntries, extra...)
		}
	}
}

// errorLineRegex recognizes a bare "Error:" line with no following detail
// block, the "sparse output" signal from spec.md §4.9.
var errorLineRegex = regexp.MustCompile(`(?m)^\s*Error:.*$`)

// LooksSparse reports whether captured output contains an Error: line with
// no accompanying detail block, per spec.md §4.9.
func LooksSparse(captured []byte) bool {
	return errorLineRegex.Match(captured) && !bytes.Contains(captured, []byte("at "))
}

// fallbackDocument synthesizes a minimal BridgeDocument from raw captured
// output when the JSON artifact is missing or unparseable, per spec.md
// §4.8's last-resort path and §8 scenario 6: the summary comes from the text
// prettifier, but aggregated counts stay absent since no structured result
// was ever produced.
func fallbackDocument(captured []byte, events []schema.BridgeEvent) schema.BridgeDocument {
	text := Prettify(captured)
	status := schema.StatusPassed
	if strings.Contains(text, "FAIL") || bytes.Contains(captured, []byte("Error:")) {
		status = schema.StatusFailed
	}

	doc := schema.BridgeDocument{
		TestResults: []schema.TestResult{{
			TestFilePath: "(unparseable run)",
			TestCases: []schema.TestCaseResult{{
				NamePath: []string{text},
				Status:   status,
			}},
		}},
	}
	mergeConsoleEvents(&doc, events)
	return doc
}

// Prettify renders raw captured output as a plain-text summary, stripping
// the sentinel-prefixed inline event lines that aren't meant for humans.
func Prettify(captured []byte) string {
	var out strings.Builder
	scanner := bufio.NewScanner(bytes.NewReader(captured))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, schema.BridgeEventSentinel) {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return strings.TrimSpace(out.String())
}
