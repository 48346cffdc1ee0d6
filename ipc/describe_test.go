package ipc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "project parts",
			msg: RegisterProjectPartsForCodeCompletionCommand{ProjectContainers: []ProjectPartContainer{
				{ProjectPartID: ""},
				{ProjectPartID: "/home/dev/app/qt-widgets-app.pro"},
			}},
			want: "RegisterProjectPartsForCodeCompletionCommand\n" +
				"  ProjectPartContainer id: \n" +
				"  ProjectPartContainer id: qt-widgets-app.pro\n",
		},
		{
			name: "translation units",
			msg: &RegisterTranslationUnitForCodeCompletionCommand{FileContainers: []FileContainer{
				NewFileContainer("/home/dev/app/myheader.h", ""),
			}},
			want: "RegisterTranslationUnitForCodeCompletionCommand\n" +
				"  Path: myheader.h ProjectPart: \n",
		},
		{
			name: "unregister project parts",
			msg:  UnregisterProjectPartsForCodeCompletionCommand{ProjectPartIDs: []string{"/a/one.pro", "/a/two.pro"}},
			want: "UnregisterProjectPartsForCodeCompletionCommand\n  one.pro,two.pro\n",
		},
		{
			name: "end",
			msg:  EndCommand{},
			want: "EndCommand\n",
		},
		{
			name: "complete",
			msg:  CompleteCodeCommand{FilePath: "/a/main.cpp", Line: 3, Column: 9},
			want: "CompleteCodeCommand\n  Path: main.cpp ProjectPart:  Line: 3 Column: 9\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.msg))
		})
	}
}

func TestProjectPartArguments(t *testing.T) {
	part := ProjectPartContainer{
		ProjectPartID:   "app",
		Defines:         []string{"DEBUG", "LEVEL=2"},
		IncludePaths:    []string{"/usr/include/qt"},
		LanguageVersion: "c++17",
	}

	assert.Equal(t, []string{"-std=c++17", "-DDEBUG", "-DLEVEL=2", "-I/usr/include/qt"}, part.Arguments())
	assert.Equal(t, map[string]string{"DEBUG": "1", "LEVEL": "2"}, part.DefineMap())
}

func TestEqual(t *testing.T) {
	a := RegisterProjectPartsForCodeCompletionCommand{ProjectContainers: []ProjectPartContainer{{ProjectPartID: "p", Defines: []string{"A"}}}}
	b := RegisterProjectPartsForCodeCompletionCommand{ProjectContainers: []ProjectPartContainer{{ProjectPartID: "p", Defines: []string{"B"}}}}

	assert.True(t, Equal(a, &a))
	assert.False(t, Equal(a, b))
	assert.False(t, Equal(a, EndCommand{}))
	assert.True(t, Equal(AliveCommand{}, &AliveCommand{}))
}

func TestCompletionKindText(t *testing.T) {
	text, err := CompletionFunction.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "function", string(text))

	var k CompletionKind
	assert.NoError(t, k.UnmarshalText([]byte("doxygen")))
	assert.Equal(t, CompletionDoxygen, k)
}
