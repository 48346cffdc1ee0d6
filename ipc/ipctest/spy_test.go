package ipctest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/teranos/clangcomplete/ipc"
)

func TestSenderSpyRecordsInOrder(t *testing.T) {
	spy := NewSenderSpy()

	_ = spy.RegisterProjectPartsForCodeCompletion(ipc.RegisterProjectPartsForCodeCompletionCommand{
		ProjectContainers: []ipc.ProjectPartContainer{{ProjectPartID: "/p/app.pro"}},
	})
	_ = spy.RegisterTranslationUnitsForCodeCompletion(ipc.RegisterTranslationUnitForCodeCompletionCommand{
		FileContainers: []ipc.FileContainer{ipc.NewFileContainer("/p/main.cpp", "/p/app.pro")},
	})
	_ = spy.End()

	assert.Equal(t, []ipc.MessageKind{
		ipc.KindRegisterProjectPartsForCodeCompletion,
		ipc.KindRegisterTranslationUnitForCodeCompletion,
		ipc.KindEnd,
	}, spy.Kinds())
	assert.Equal(t, "RegisterProjectPartsForCodeCompletionCommand\n"+
		"  ProjectPartContainer id: app.pro\n"+
		"RegisterTranslationUnitForCodeCompletionCommand\n"+
		"  Path: main.cpp ProjectPart: app.pro\n"+
		"EndCommand\n", spy.Log())

	spy.Reset()
	assert.Equal(t, 0, spy.Len())
	assert.Empty(t, spy.Log())
}

func TestSenderSpyWaitForLen(t *testing.T) {
	spy := NewSenderSpy()

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = spy.CompleteCode(ipc.CompleteCodeCommand{FilePath: "/a.cpp"})
	}()

	assert.True(t, spy.WaitForLen(1, time.Second))
	assert.False(t, spy.WaitForLen(2, 20*time.Millisecond))
}
