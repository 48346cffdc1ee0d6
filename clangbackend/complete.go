package clangbackend

import (
	"context"
	"time"

	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/logger"
	"github.com/teranos/clangcomplete/parser"
)

// prepareCompletion snapshots the registration state a completion needs. It
// returns the failure notification to send when the unit or part is unknown.
func (s *Server) prepareCompletion(cmd ipc.CompleteCodeCommand) (parser.Request, ipc.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.units[cmd.FilePath]; !ok {
		return parser.Request{}, ipc.TranslationUnitDoesNotExistCommand{
			FileContainer: ipc.NewFileContainer(cmd.FilePath, cmd.ProjectPartID),
			TicketNumber:  cmd.TicketNumber,
		}
	}
	if !s.hasProjectPartLocked(cmd.ProjectPartID) {
		return parser.Request{}, ipc.ProjectPartsDoNotExistCommand{
			ProjectPartIDs: []string{cmd.ProjectPartID},
			TicketNumber:   cmd.TicketNumber,
		}
	}

	req := parser.Request{
		FilePath:     cmd.FilePath,
		UnsavedFiles: map[string]string{},
		Line:         cmd.Line,
		Column:       cmd.Column,
	}
	for path, fc := range s.units {
		if fc.HasUnsavedContent {
			req.UnsavedFiles[path] = fc.UnsavedContent
		}
	}
	if part, ok := s.projectParts[cmd.ProjectPartID]; ok {
		req.Defines = part.DefineMap()
		req.IncludePaths = append([]string(nil), part.IncludePaths...)
		req.LanguageVersion = part.LanguageVersion
	}
	return req, nil
}

func (s *Server) complete(ctx context.Context, cmd ipc.CompleteCodeCommand, req parser.Request) {
	start := time.Now()
	results, err := s.engine.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			s.sendOrLog(ipc.TranslationUnitDoesNotExistCommand{
				FileContainer: ipc.NewFileContainer(cmd.FilePath, cmd.ProjectPartID),
				TicketNumber:  cmd.TicketNumber,
			})
			return
		}
		s.logger.Warnw("completion failed",
			logger.FieldFile, cmd.FilePath,
			logger.FieldTicket, cmd.TicketNumber,
			logger.FieldError, err)
		results = nil
	}

	completions := make([]ipc.CodeCompletion, 0, len(results))
	for _, r := range results {
		completions = append(completions, r.CodeCompletion())
	}

	s.logger.Debugw("completed",
		logger.FieldFile, cmd.FilePath,
		logger.FieldTicket, cmd.TicketNumber,
		logger.FieldCount, len(completions),
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	s.sendOrLog(ipc.CodeCompletedCommand{CodeCompletions: completions, TicketNumber: cmd.TicketNumber})
}
