package assist

import (
	"sync"

	"github.com/teranos/clangcomplete/communicator"
	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/logger"
	"github.com/teranos/clangcomplete/parser"
	"github.com/teranos/clangcomplete/proposal"
	"go.uber.org/zap"
)

// Backend is the part of the communicator a ClangProcessor uses.
type Backend interface {
	RegisterTranslationUnitsForCodeCompletion(ipc.RegisterTranslationUnitForCodeCompletionCommand) error
	Complete(ipc.CompleteCodeCommand, communicator.ResponseHandler) (uint64, error)
	Forget(ticket uint64)
}

// Verify *communicator.Communicator satisfies Backend
var _ Backend = (*communicator.Communicator)(nil)

// ClangProcessor completes C/C++ code. Include paths and preprocessor
// directives are answered at once; everything else goes to the backend.
type ClangProcessor struct {
	backend Backend
	logger  *zap.SugaredLogger

	mu      sync.Mutex
	handler func(Proposal)
	ticket  uint64
}

// NewClangProcessor returns a processor sending requests through backend.
func NewClangProcessor(backend Backend, logger *zap.SugaredLogger) *ClangProcessor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ClangProcessor{backend: backend, logger: logger}
}

func (p *ClangProcessor) SetAsyncCompletionAvailableHandler(fn func(Proposal)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = fn
}

func (p *ClangProcessor) Perform(iface Interface) Proposal {
	if pr := completeInclude(iface); pr != nil {
		return pr
	}
	if pr := completeDirective(iface); pr != nil {
		return pr
	}
	return p.performAsync(iface)
}

// Cancel forgets the outstanding backend request.
func (p *ClangProcessor) Cancel() {
	p.mu.Lock()
	ticket := p.ticket
	p.ticket = 0
	p.mu.Unlock()
	if ticket != 0 {
		p.backend.Forget(ticket)
	}
}

func (p *ClangProcessor) performAsync(iface Interface) Proposal {
	doc := iface.Document()
	base := wordStart(doc.Content, iface.Position())
	line, column := parser.Position(doc.Content, iface.Position())

	err := p.backend.RegisterTranslationUnitsForCodeCompletion(ipc.RegisterTranslationUnitForCodeCompletionCommand{
		FileContainers: []ipc.FileContainer{
			ipc.NewUnsavedFileContainer(doc.FilePath, doc.ProjectPartID, doc.Content, doc.Revision),
		},
	})
	if err != nil {
		p.logger.Warnw("failed to register document", logger.FieldFile, doc.FilePath, logger.FieldError, err)
		return NewProposal(nil, base)
	}

	ticket, err := p.backend.Complete(ipc.CompleteCodeCommand{
		FilePath:      doc.FilePath,
		ProjectPartID: doc.ProjectPartID,
		Line:          line,
		Column:        column,
	}, func(msg ipc.Message) { p.answer(msg, base) })
	if err != nil {
		p.logger.Warnw("failed to request completion", logger.FieldFile, doc.FilePath, logger.FieldError, err)
		return NewProposal(nil, base)
	}

	p.mu.Lock()
	p.ticket = ticket
	p.mu.Unlock()

	p.logger.Debugw("completion requested",
		logger.FieldFile, doc.FilePath,
		logger.FieldTicket, ticket,
		logger.FieldLine, line,
		logger.FieldColumn, column)
	return nil
}

func (p *ClangProcessor) answer(msg ipc.Message, base int) {
	var pr Proposal
	switch m := msg.(type) {
	case ipc.CodeCompletedCommand:
		pr = NewProposal(proposal.FromCodeCompletions(m.CodeCompletions), base)
	default:
		p.logger.Warnw("backend could not complete", logger.FieldCommand, msg.Kind().String(), "detail", ipc.Describe(msg))
		pr = NewProposal(nil, base)
	}

	p.mu.Lock()
	p.ticket = 0
	handler := p.handler
	p.mu.Unlock()

	if handler != nil {
		handler(pr)
	}
}

// wordStart returns the offset where the identifier ending at pos begins.
func wordStart(content string, pos int) int {
	for pos > 0 {
		c := content[pos-1]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			pos--
			continue
		}
		break
	}
	return pos
}
