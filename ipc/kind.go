package ipc

import "fmt"

// MessageKind tags a message on the wire.
type MessageKind uint8

const (
	KindInvalid MessageKind = iota
	KindEnd
	KindRegisterTranslationUnitForCodeCompletion
	KindUnregisterTranslationUnitsForCodeCompletion
	KindRegisterProjectPartsForCodeCompletion
	KindUnregisterProjectPartsForCodeCompletion
	KindCompleteCode

	KindReady
	KindAlive
	KindCodeCompleted
	KindTranslationUnitDoesNotExist
	KindProjectPartsDoNotExist
	KindSessionEnded
)

var messageKindNames = map[MessageKind]string{
	KindEnd: "EndCommand",
	KindRegisterTranslationUnitForCodeCompletion:    "RegisterTranslationUnitForCodeCompletionCommand",
	KindUnregisterTranslationUnitsForCodeCompletion: "UnregisterTranslationUnitsForCodeCompletionCommand",
	KindRegisterProjectPartsForCodeCompletion:       "RegisterProjectPartsForCodeCompletionCommand",
	KindUnregisterProjectPartsForCodeCompletion:     "UnregisterProjectPartsForCodeCompletionCommand",
	KindCompleteCode:                "CompleteCodeCommand",
	KindReady:                       "ReadyCommand",
	KindAlive:                       "AliveCommand",
	KindCodeCompleted:               "CodeCompletedCommand",
	KindTranslationUnitDoesNotExist: "TranslationUnitDoesNotExistCommand",
	KindProjectPartsDoNotExist:      "ProjectPartsDoNotExistCommand",
	KindSessionEnded:                "SessionEndedCommand",
}

func (k MessageKind) String() string {
	if name, ok := messageKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("MessageKind(%d)", uint8(k))
}

// IsCommand reports whether k is sent from client to backend.
func (k MessageKind) IsCommand() bool {
	return k >= KindEnd && k <= KindCompleteCode
}

// IsResponse reports whether k is sent from backend to client.
func (k MessageKind) IsResponse() bool {
	return k >= KindReady && k <= KindSessionEnded
}

// Message is any value that can travel in a frame.
type Message interface {
	Kind() MessageKind
}

// newMessage allocates the concrete message for kind, nil if unknown.
func newMessage(kind MessageKind) Message {
	switch kind {
	case KindEnd:
		return &EndCommand{}
	case KindRegisterTranslationUnitForCodeCompletion:
		return &RegisterTranslationUnitForCodeCompletionCommand{}
	case KindUnregisterTranslationUnitsForCodeCompletion:
		return &UnregisterTranslationUnitsForCodeCompletionCommand{}
	case KindRegisterProjectPartsForCodeCompletion:
		return &RegisterProjectPartsForCodeCompletionCommand{}
	case KindUnregisterProjectPartsForCodeCompletion:
		return &UnregisterProjectPartsForCodeCompletionCommand{}
	case KindCompleteCode:
		return &CompleteCodeCommand{}
	case KindReady:
		return &ReadyCommand{}
	case KindAlive:
		return &AliveCommand{}
	case KindCodeCompleted:
		return &CodeCompletedCommand{}
	case KindTranslationUnitDoesNotExist:
		return &TranslationUnitDoesNotExistCommand{}
	case KindProjectPartsDoNotExist:
		return &ProjectPartsDoNotExistCommand{}
	case KindSessionEnded:
		return &SessionEndedCommand{}
	default:
		return nil
	}
}
