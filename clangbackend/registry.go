package clangbackend

import (
	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/logger"
)

func (s *Server) registerProjectParts(cmd ipc.RegisterProjectPartsForCodeCompletionCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, part := range cmd.ProjectContainers {
		s.projectParts[part.ProjectPartID] = part
		s.logger.Debugw("registered project part", logger.FieldProjectPart, part.ProjectPartID)
	}
}

func (s *Server) unregisterProjectParts(cmd ipc.UnregisterProjectPartsForCodeCompletionCommand) {
	s.mu.Lock()
	var missing []string
	for _, id := range cmd.ProjectPartIDs {
		if _, ok := s.projectParts[id]; !ok {
			missing = append(missing, id)
			continue
		}
		delete(s.projectParts, id)
	}
	s.mu.Unlock()

	if len(missing) > 0 {
		s.notify(ipc.ProjectPartsDoNotExistCommand{ProjectPartIDs: missing})
	}
}

// registerTranslationUnits stores files whose project part is known. The
// project-less part always exists.
func (s *Server) registerTranslationUnits(cmd ipc.RegisterTranslationUnitForCodeCompletionCommand) {
	s.mu.Lock()
	var missing []string
	for _, fc := range cmd.FileContainers {
		if !s.hasProjectPartLocked(fc.ProjectPartID) {
			missing = append(missing, fc.ProjectPartID)
			continue
		}
		s.units[fc.FilePath] = fc
		s.logger.Debugw("registered translation unit",
			logger.FieldFile, fc.FilePath,
			logger.FieldProjectPart, fc.ProjectPartID)
	}
	s.mu.Unlock()

	if len(missing) > 0 {
		s.notify(ipc.ProjectPartsDoNotExistCommand{ProjectPartIDs: missing})
	}
}

func (s *Server) unregisterTranslationUnits(cmd ipc.UnregisterTranslationUnitsForCodeCompletionCommand) {
	s.mu.Lock()
	var missing []ipc.FileContainer
	for _, path := range cmd.FilePaths {
		if _, ok := s.units[path]; !ok {
			missing = append(missing, ipc.NewFileContainer(path, ""))
			continue
		}
		delete(s.units, path)
	}
	s.mu.Unlock()

	notes := make([]ipc.Message, 0, len(missing))
	for _, fc := range missing {
		notes = append(notes, ipc.TranslationUnitDoesNotExistCommand{FileContainer: fc})
	}
	s.notify(notes...)
}

func (s *Server) hasProjectPartLocked(id string) bool {
	if id == "" {
		return true
	}
	_, ok := s.projectParts[id]
	return ok
}

// ProjectPartIDs returns the registered project part ids.
func (s *Server) ProjectPartIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.projectParts))
	for id := range s.projectParts {
		ids = append(ids, id)
	}
	return ids
}

// TranslationUnit returns the registered container for path.
func (s *Server) TranslationUnit(path string) (ipc.FileContainer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fc, ok := s.units[path]
	return fc, ok
}
