package treesitter

var cppKeywords = []string{
	"alignas", "alignof", "asm", "auto", "bool", "break", "case", "catch",
	"char", "char16_t", "char32_t", "class", "const", "const_cast", "constexpr",
	"continue", "decltype", "default", "delete", "do", "double", "dynamic_cast",
	"else", "enum", "explicit", "export", "extern", "false", "float", "for",
	"friend", "goto", "if", "inline", "int", "long", "mutable", "namespace",
	"new", "noexcept", "nullptr", "operator", "private", "protected", "public",
	"register", "reinterpret_cast", "return", "short", "signed", "sizeof",
	"static", "static_assert", "static_cast", "struct", "switch", "template",
	"this", "thread_local", "throw", "true", "try", "typedef", "typeid",
	"typename", "union", "unsigned", "using", "virtual", "void", "volatile",
	"wchar_t", "while",
}

// cKeywords is used for translation units compiled as C.
var cKeywords = []string{
	"auto", "break", "case", "char", "const", "continue", "default", "do",
	"double", "else", "enum", "extern", "float", "for", "goto", "if", "inline",
	"int", "long", "register", "restrict", "return", "short", "signed",
	"sizeof", "static", "struct", "switch", "typedef", "union", "unsigned",
	"void", "volatile", "while", "_Bool",
}

var doxygenCommands = []string{
	"a", "addindex", "addtogroup", "anchor", "arg", "attention", "author",
	"authors", "b", "brief", "bug", "c", "callgraph", "callergraph", "category",
	"cite", "class", "code", "cond", "copybrief", "copydetails", "copydoc",
	"copyright", "date", "def", "defgroup", "deprecated", "details", "dir",
	"docbookonly", "dontinclude", "dot", "dotfile", "e", "else", "elseif", "em",
	"endcode", "endcond", "enddot", "endif", "endinternal", "endlink",
	"endparblock", "endverbatim", "enum", "example", "exception", "extends",
	"file", "fn", "headerfile", "hidecallgraph", "hideinitializer", "if",
	"ifnot", "image", "implements", "include", "includelineno", "ingroup",
	"interface", "internal", "invariant", "li", "line", "link", "mainpage",
	"memberof", "name", "namespace", "nosubgrouping", "note", "overload", "p",
	"package", "page", "par", "paragraph", "param", "parblock", "post", "pre",
	"private", "protected", "public", "pure", "ref", "related", "relates",
	"remark", "remarks", "result", "return", "returns", "retval", "sa", "section",
	"see", "short", "showinitializer", "since", "skip", "skipline", "snippet",
	"static", "struct", "subpage", "subsection", "test", "throw", "throws",
	"todo", "tparam", "typedef", "union", "until", "var", "verbatim", "version",
	"warning", "weakgroup",
}
