// Package sanitize normalizes the raw text captured from a sandboxed run
// before it is stored as a job result. Every step is idempotent: sanitizing
// already-sanitized text is a no-op.
package sanitize

import (
	"regexp"
	"strings"
)

// TimeoutSentinel is the fixed marker the executor appends to captured
// output when the wall-clock ceiling fires.
const TimeoutSentinel = "[EXECUTION_TIMEOUT]"

// timeoutNotice is prepended ahead of the raw sentinel so clients get a
// readable explanation without parsing the marker.
const timeoutNotice = "Execution timed out: wall-clock limit exceeded."

// redactedOrigin replaces a truncated IP-metadata JSON fragment. Keeping it
// a complete object protects downstream JSON consumers.
const redactedOrigin = `{"origin": "[redacted]"}`

// controlChars matches control bytes that are noise in captured output.
// Newlines and tabs are kept; carriage returns are dropped so CRLF output
// normalizes to LF.
var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0D\x0E-\x1F\x7F]`)

// noisyMarkers identify whole lines emitted by package installers rather
// than by the user code.
var noisyMarkers = []string{
	"WARNING: Running pip as the 'root' user",
	"[notice] A new release of pip",
	"[notice] To update, run:",
	"npm warn",
	"npm notice",
}

// logLine is the structured-log convention of the reference runtimes:
// "HH:MM:SS LEVEL message".
var logLine = regexp.MustCompile(`^\d{2}:\d{2}:\d{2} (?:DEBUG|INFO|WARNING|ERROR|CRITICAL) (.*)$`)

func Sanitize(raw string) string {
	text := controlChars.ReplaceAllString(raw, "")
	text = dropNoisyLines(text)
	// Trim ahead of the collapse so it sees the same text a second pass
	// would, keeping the whole pipeline idempotent.
	text = strings.TrimSpace(text)
	text = collapseLogLines(text)
	text = prependTimeoutNotice(text)
	text = redactTruncatedJSON(text)
	return strings.TrimSpace(text)
}

func dropNoisyLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isNoisy(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isNoisy(line string) bool {
	for _, marker := range noisyMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// collapseLogLines reduces structured log output to just the message bodies,
// preserving order. It only fires when every non-empty line follows the log
// convention; mixed output is left untouched. Collapsing repeats until a
// fixpoint so a message body that itself follows the convention is fully
// reduced and a later pass finds nothing left to strip.
func collapseLogLines(text string) string {
	for {
		next := collapseOnce(text)
		if next == text {
			return text
		}
		text = next
	}
}

func collapseOnce(text string) string {
	lines := strings.Split(text, "\n")
	matched := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !logLine.MatchString(line) {
			return text
		}
		matched = true
	}
	if !matched {
		return text
	}
	collapsed := make([]string, len(lines))
	for i, line := range lines {
		if m := logLine.FindStringSubmatch(line); m != nil {
			collapsed[i] = m[1]
		} else {
			collapsed[i] = line
		}
	}
	return strings.Join(collapsed, "\n")
}

func prependTimeoutNotice(text string) string {
	if !strings.Contains(text, TimeoutSentinel) || strings.Contains(text, timeoutNotice) {
		return text
	}
	return timeoutNotice + "\n" + text
}

// redactTruncatedJSON handles output cut off mid-object by the capture
// limit. The truncated fragment starts at the first opening brace with no
// closing brace anywhere after it; if that fragment carries an "origin" key
// it is IP-address metadata and is replaced wholesale with a placeholder.
func redactTruncatedJSON(text string) string {
	searchFrom := strings.LastIndex(text, "}") + 1
	offset := strings.Index(text[searchFrom:], "{")
	if offset < 0 {
		return text
	}
	idx := searchFrom + offset
	if !strings.Contains(text[idx:], `"origin"`) {
		return text
	}
	return text[:idx] + redactedOrigin
}
