/*
Package ipc defines the messages exchanged between the completion client and
the backend process, and the wire codec that carries them.

# Messages

Client to backend:

	EndCommand
	RegisterTranslationUnitForCodeCompletionCommand{FileContainers}
	UnregisterTranslationUnitsForCodeCompletionCommand{FilePaths}
	RegisterProjectPartsForCodeCompletionCommand{ProjectContainers}
	UnregisterProjectPartsForCodeCompletionCommand{ProjectPartIDs}
	CompleteCodeCommand{FilePath, ProjectPartID, Line, Column, TicketNumber}

Backend to client:

	ReadyCommand{ProtocolVersion, SessionID, Pid}
	AliveCommand
	CodeCompletedCommand{CodeCompletions, TicketNumber}
	TranslationUnitDoesNotExistCommand{FileContainer, TicketNumber}
	ProjectPartsDoNotExistCommand{ProjectPartIDs, TicketNumber}
	SessionEndedCommand

Register commands carry whole snapshots, never deltas. Responses that answer
a CompleteCodeCommand carry its ticket number; a zero ticket marks an
unsolicited event.

# Wire format

Every message travels as one frame:

	+----------------+---------------------------------------+
	| length: uint32 | msgpack Envelope{Kind, Payload}       |
	| big endian     | Payload is the msgpack-encoded message |
	+----------------+---------------------------------------+

The kind tag makes each frame self describing. Frames larger than
MaxFrameSize are rejected.
*/
package ipc
