package ipc

import (
	"slices"

	"github.com/teranos/clangcomplete/chunk"
)

// EndCommand asks the backend to finish the session and exit.
type EndCommand struct{}

func (EndCommand) Kind() MessageKind { return KindEnd }

// RegisterTranslationUnitForCodeCompletionCommand registers or updates files.
type RegisterTranslationUnitForCodeCompletionCommand struct {
	FileContainers []FileContainer `msgpack:"files"`
}

func (RegisterTranslationUnitForCodeCompletionCommand) Kind() MessageKind {
	return KindRegisterTranslationUnitForCodeCompletion
}

// UnregisterTranslationUnitsForCodeCompletionCommand drops files by path.
type UnregisterTranslationUnitsForCodeCompletionCommand struct {
	FilePaths []string `msgpack:"paths"`
}

func (UnregisterTranslationUnitsForCodeCompletionCommand) Kind() MessageKind {
	return KindUnregisterTranslationUnitsForCodeCompletion
}

// RegisterProjectPartsForCodeCompletionCommand registers or replaces project parts.
type RegisterProjectPartsForCodeCompletionCommand struct {
	ProjectContainers []ProjectPartContainer `msgpack:"parts"`
}

func (RegisterProjectPartsForCodeCompletionCommand) Kind() MessageKind {
	return KindRegisterProjectPartsForCodeCompletion
}

// UnregisterProjectPartsForCodeCompletionCommand drops project parts by id.
type UnregisterProjectPartsForCodeCompletionCommand struct {
	ProjectPartIDs []string `msgpack:"ids"`
}

func (UnregisterProjectPartsForCodeCompletionCommand) Kind() MessageKind {
	return KindUnregisterProjectPartsForCodeCompletion
}

// CompleteCodeCommand requests completion at a 1-based line and column.
type CompleteCodeCommand struct {
	FilePath      string `msgpack:"path"`
	ProjectPartID string `msgpack:"project_part"`
	Line          uint32 `msgpack:"line"`
	Column        uint32 `msgpack:"column"`
	TicketNumber  uint64 `msgpack:"ticket"`
}

func (CompleteCodeCommand) Kind() MessageKind { return KindCompleteCode }

// ReadyCommand is the backend handshake, sent once after start.
type ReadyCommand struct {
	ProtocolVersion string `msgpack:"protocol"`
	SessionID       string `msgpack:"session"`
	Pid             int    `msgpack:"pid"`
}

func (ReadyCommand) Kind() MessageKind { return KindReady }

// AliveCommand is the backend heartbeat.
type AliveCommand struct{}

func (AliveCommand) Kind() MessageKind { return KindAlive }

// CodeCompletedCommand answers a CompleteCodeCommand.
type CodeCompletedCommand struct {
	CodeCompletions []CodeCompletion `msgpack:"completions"`
	TicketNumber    uint64           `msgpack:"ticket"`
}

func (CodeCompletedCommand) Kind() MessageKind { return KindCodeCompleted }

// TranslationUnitDoesNotExistCommand reports an unknown file.
type TranslationUnitDoesNotExistCommand struct {
	FileContainer FileContainer `msgpack:"file"`
	TicketNumber  uint64        `msgpack:"ticket"`
}

func (TranslationUnitDoesNotExistCommand) Kind() MessageKind {
	return KindTranslationUnitDoesNotExist
}

// ProjectPartsDoNotExistCommand reports unknown project parts.
type ProjectPartsDoNotExistCommand struct {
	ProjectPartIDs []string `msgpack:"ids"`
	TicketNumber   uint64   `msgpack:"ticket"`
}

func (ProjectPartsDoNotExistCommand) Kind() MessageKind { return KindProjectPartsDoNotExist }

// SessionEndedCommand acknowledges EndCommand.
type SessionEndedCommand struct{}

func (SessionEndedCommand) Kind() MessageKind { return KindSessionEnded }

// Ticket returns the ticket a response answers, 0 for unsolicited messages.
func Ticket(msg Message) uint64 {
	switch m := deref(msg).(type) {
	case CodeCompletedCommand:
		return m.TicketNumber
	case TranslationUnitDoesNotExistCommand:
		return m.TicketNumber
	case ProjectPartsDoNotExistCommand:
		return m.TicketNumber
	default:
		return 0
	}
}

// Equal reports whether two messages are structurally equal.
func Equal(a, b Message) bool {
	a, b = deref(a), deref(b)
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case RegisterTranslationUnitForCodeCompletionCommand:
		return slices.Equal(x.FileContainers, b.(RegisterTranslationUnitForCodeCompletionCommand).FileContainers)
	case UnregisterTranslationUnitsForCodeCompletionCommand:
		return slices.Equal(x.FilePaths, b.(UnregisterTranslationUnitsForCodeCompletionCommand).FilePaths)
	case RegisterProjectPartsForCodeCompletionCommand:
		return slices.EqualFunc(x.ProjectContainers, b.(RegisterProjectPartsForCodeCompletionCommand).ProjectContainers,
			ProjectPartContainer.Equal)
	case UnregisterProjectPartsForCodeCompletionCommand:
		return slices.Equal(x.ProjectPartIDs, b.(UnregisterProjectPartsForCodeCompletionCommand).ProjectPartIDs)
	case CompleteCodeCommand:
		return x == b.(CompleteCodeCommand)
	case ReadyCommand:
		return x == b.(ReadyCommand)
	case CodeCompletedCommand:
		y := b.(CodeCompletedCommand)
		return x.TicketNumber == y.TicketNumber &&
			slices.EqualFunc(x.CodeCompletions, y.CodeCompletions, func(p, q CodeCompletion) bool {
				return p.Text == q.Text && p.Kind == q.Kind && p.Priority == q.Priority && chunk.EqualChunks(p.Chunks, q.Chunks)
			})
	case TranslationUnitDoesNotExistCommand:
		return x == b.(TranslationUnitDoesNotExistCommand)
	case ProjectPartsDoNotExistCommand:
		y := b.(ProjectPartsDoNotExistCommand)
		return x.TicketNumber == y.TicketNumber && slices.Equal(x.ProjectPartIDs, y.ProjectPartIDs)
	default:
		// payload-free messages
		return true
	}
}

// deref normalizes pointer messages to values so both forms compare equal.
func deref(msg Message) Message {
	switch m := msg.(type) {
	case *EndCommand:
		return derefOrNil(m)
	case *RegisterTranslationUnitForCodeCompletionCommand:
		return derefOrNil(m)
	case *UnregisterTranslationUnitsForCodeCompletionCommand:
		return derefOrNil(m)
	case *RegisterProjectPartsForCodeCompletionCommand:
		return derefOrNil(m)
	case *UnregisterProjectPartsForCodeCompletionCommand:
		return derefOrNil(m)
	case *CompleteCodeCommand:
		return derefOrNil(m)
	case *ReadyCommand:
		return derefOrNil(m)
	case *AliveCommand:
		return derefOrNil(m)
	case *CodeCompletedCommand:
		return derefOrNil(m)
	case *TranslationUnitDoesNotExistCommand:
		return derefOrNil(m)
	case *ProjectPartsDoNotExistCommand:
		return derefOrNil(m)
	case *SessionEndedCommand:
		return derefOrNil(m)
	default:
		return msg
	}
}

func derefOrNil[T Message](m *T) Message {
	if m == nil {
		return nil
	}
	return *m
}
