package hostsfile

import "strings"

const (
	StartMarker = "# BLOCKER START"
	EndMarker   = "# BLOCKER END"
)

// Splice replaces the managed marker block in a hosts file body with the
// given entries, appending a fresh block when no markers exist. An empty
// entry list removes the block entirely.
func Splice(body string, entries []string) string {
	stripped := Strip(body)
	if len(entries) == 0 {
		return stripped
	}
	block := StartMarker + "\n" + strings.Join(entries, "\n") + "\n" + EndMarker

	if strings.TrimSpace(stripped) == "" {
		return block + "\n"
	}
	if !strings.HasSuffix(stripped, "\n") {
		stripped += "\n"
	}
	return stripped + block + "\n"
}

// Strip removes the managed block, leaving the rest of the file untouched.
func Strip(body string) string {
	lines := strings.Split(body, "\n")
	kept := make([]string, 0, len(lines))
	inBlock := false
	for _, line := range lines {
		switch strings.TrimSpace(line) {
		case StartMarker:
			inBlock = true
			continue
		case EndMarker:
			inBlock = false
			continue
		}
		if !inBlock {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// HasBlock reports whether the managed markers are present.
func HasBlock(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == StartMarker {
			return true
		}
	}
	return false
}
