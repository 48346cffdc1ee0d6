package ipc

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Describe renders msg in the protocol log format: the command name on its own
// line, then one indented line per container. Paths and ids are reduced to
// their base names so logs are stable across machines.
func Describe(msg Message) string {
	var sb strings.Builder
	msg = deref(msg)
	if msg == nil {
		return ""
	}
	sb.WriteString(msg.Kind().String())
	sb.WriteByte('\n')

	switch m := msg.(type) {
	case RegisterTranslationUnitForCodeCompletionCommand:
		for _, fc := range m.FileContainers {
			describeFile(&sb, fc)
		}
	case UnregisterTranslationUnitsForCodeCompletionCommand:
		writeNames(&sb, m.FilePaths)
	case RegisterProjectPartsForCodeCompletionCommand:
		for _, pc := range m.ProjectContainers {
			fmt.Fprintf(&sb, "  ProjectPartContainer id: %s\n", baseName(pc.ProjectPartID))
		}
	case UnregisterProjectPartsForCodeCompletionCommand:
		writeNames(&sb, m.ProjectPartIDs)
	case CompleteCodeCommand:
		fmt.Fprintf(&sb, "  Path: %s ProjectPart: %s Line: %d Column: %d\n",
			baseName(m.FilePath), baseName(m.ProjectPartID), m.Line, m.Column)
	case CodeCompletedCommand:
		fmt.Fprintf(&sb, "  Ticket: %d Completions: %d\n", m.TicketNumber, len(m.CodeCompletions))
	case TranslationUnitDoesNotExistCommand:
		describeFile(&sb, m.FileContainer)
	case ProjectPartsDoNotExistCommand:
		writeNames(&sb, m.ProjectPartIDs)
	case ReadyCommand:
		fmt.Fprintf(&sb, "  Protocol: %s\n", m.ProtocolVersion)
	}
	return sb.String()
}

func describeFile(sb *strings.Builder, fc FileContainer) {
	fmt.Fprintf(sb, "  Path: %s ProjectPart: %s\n", baseName(fc.FilePath), baseName(fc.ProjectPartID))
}

func writeNames(sb *strings.Builder, names []string) {
	bases := make([]string, len(names))
	for i, n := range names {
		bases[i] = baseName(n)
	}
	fmt.Fprintf(sb, "  %s\n", strings.Join(bases, ","))
}

func baseName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
