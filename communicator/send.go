package communicator

import (
	"slices"

	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/logger"
)

// RegisterTranslationUnitsForCodeCompletion records the files and sends them
// when the backend is Ready. Otherwise the next replay carries them.
func (c *Communicator) RegisterTranslationUnitsForCodeCompletion(cmd ipc.RegisterTranslationUnitForCodeCompletionCommand) error {
	if len(cmd.FileContainers) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.unlock()

	c.reg.registerUnits(cmd.FileContainers)
	return c.sendLocked(cmd)
}

// UnregisterTranslationUnitsForCodeCompletion drops the registered paths.
// Unknown paths are ignored; nothing is sent when none is known.
func (c *Communicator) UnregisterTranslationUnitsForCodeCompletion(cmd ipc.UnregisterTranslationUnitsForCodeCompletionCommand) error {
	c.mu.Lock()
	defer c.unlock()

	removed := c.reg.unregisterUnits(cmd.FilePaths)
	if len(removed) == 0 {
		return nil
	}
	return c.sendLocked(ipc.UnregisterTranslationUnitsForCodeCompletionCommand{FilePaths: removed})
}

// RegisterProjectPartsForCodeCompletion records the parts. A part with a
// known id replaces the old one in place.
func (c *Communicator) RegisterProjectPartsForCodeCompletion(cmd ipc.RegisterProjectPartsForCodeCompletionCommand) error {
	if len(cmd.ProjectContainers) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.unlock()

	c.reg.registerParts(cmd.ProjectContainers)
	return c.sendLocked(cmd)
}

// UnregisterProjectPartsForCodeCompletion drops the known parts. Their
// translation units move to the project-less part and are re-registered.
// The project-less part itself cannot be unregistered.
func (c *Communicator) UnregisterProjectPartsForCodeCompletion(cmd ipc.UnregisterProjectPartsForCodeCompletionCommand) error {
	c.mu.Lock()
	defer c.unlock()

	removed, moved := c.reg.unregisterParts(cmd.ProjectPartIDs)
	if len(removed) == 0 {
		return nil
	}
	if err := c.sendLocked(ipc.UnregisterProjectPartsForCodeCompletionCommand{ProjectPartIDs: removed}); err != nil {
		return err
	}
	if len(moved) == 0 {
		return nil
	}
	return c.sendLocked(ipc.RegisterTranslationUnitForCodeCompletionCommand{FileContainers: moved})
}

// CompleteCode sends a completion request whose answer nobody waits for. A
// zero ticket is replaced by a fresh one.
func (c *Communicator) CompleteCode(cmd ipc.CompleteCodeCommand) error {
	_, err := c.Complete(cmd, nil)
	return err
}

// Complete sends a completion request and routes the backend answer to
// handler. While the backend restarts the request is queued and sent after
// the replay. Requests in flight when the backend is lost are never answered.
func (c *Communicator) Complete(cmd ipc.CompleteCodeCommand, handler ResponseHandler) (uint64, error) {
	c.mu.Lock()
	defer c.unlock()

	if c.state.Terminal() {
		return 0, errors.Wrapf(errors.ErrBackendUnavailable, "cannot complete %s: backend %s", cmd.FilePath, c.state)
	}
	if cmd.TicketNumber == 0 {
		cmd.TicketNumber = c.nextTicket
		c.nextTicket++
	} else if cmd.TicketNumber >= c.nextTicket {
		c.nextTicket = cmd.TicketNumber + 1
	}

	if c.state != StateReady {
		c.queued = append(c.queued, queuedCompletion{cmd: cmd, handler: handler})
		c.logger.Debugw("queued completion until backend is ready",
			logger.FieldTicket, cmd.TicketNumber,
			logger.FieldState, c.state.String())
		return cmd.TicketNumber, nil
	}
	return cmd.TicketNumber, c.sendCompletionLocked(cmd, handler)
}

// Forget drops the handler for ticket; a late answer is then discarded.
func (c *Communicator) Forget(ticket uint64) {
	c.mu.Lock()
	defer c.unlock()
	delete(c.pending, ticket)
	c.queued = slices.DeleteFunc(c.queued, func(q queuedCompletion) bool {
		return q.cmd.TicketNumber == ticket
	})
}

func (c *Communicator) sendCompletionLocked(cmd ipc.CompleteCodeCommand, handler ResponseHandler) error {
	if handler != nil {
		c.pending[cmd.TicketNumber] = handler
	}
	if err := c.sender.CompleteCode(cmd); err != nil {
		delete(c.pending, cmd.TicketNumber)
		return errors.Wrapf(err, "failed to send completion request for %s", cmd.FilePath)
	}
	return nil
}

// sendLocked transmits a registration command when Ready. In every other
// state the registry already holds the change for the next replay.
func (c *Communicator) sendLocked(msg ipc.Message) error {
	if c.state != StateReady {
		c.logger.Debugw("recorded registration for replay",
			logger.FieldCommand, msg.Kind().String(),
			logger.FieldState, c.state.String())
		return nil
	}
	if err := send(c.sender, msg); err != nil {
		return errors.Wrapf(err, "failed to send %s", msg.Kind())
	}
	return nil
}

// send dispatches msg to the matching Sender operation.
func send(s ipc.Sender, msg ipc.Message) error {
	switch m := msg.(type) {
	case ipc.EndCommand:
		return s.End()
	case ipc.RegisterTranslationUnitForCodeCompletionCommand:
		return s.RegisterTranslationUnitsForCodeCompletion(m)
	case ipc.UnregisterTranslationUnitsForCodeCompletionCommand:
		return s.UnregisterTranslationUnitsForCodeCompletion(m)
	case ipc.RegisterProjectPartsForCodeCompletionCommand:
		return s.RegisterProjectPartsForCodeCompletion(m)
	case ipc.UnregisterProjectPartsForCodeCompletionCommand:
		return s.UnregisterProjectPartsForCodeCompletion(m)
	case ipc.CompleteCodeCommand:
		return s.CompleteCode(m)
	default:
		return errors.AssertionFailedf("%s is not a client command", msg.Kind())
	}
}
