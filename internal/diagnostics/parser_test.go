package diagnostics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"labta/internal/types"
)

func TestFirstError_C(t *testing.T) {
	stderr := "main.c: In function 'main':\n" +
		"main.c:4:5: error: expected ';' before 'return'\n" +
		"main.c:6:1: warning: control reaches end of non-void function\n"

	diag := FirstError(stderr, types.LangC)
	assert.Equal(t, "4", diag.Line)
	assert.Equal(t, "5", diag.Column)
	assert.Equal(t, "expected ';' before 'return'", diag.Message)
}

func TestFirstError_CPPWarningAlsoMatches(t *testing.T) {
	stderr := "main.cpp:2:10: warning: unused variable 'x' [-Wunused-variable]\n"

	diag := FirstError(stderr, types.LangCPP)
	assert.Equal(t, "2", diag.Line)
	assert.Equal(t, "10", diag.Column)
	assert.Contains(t, diag.Message, "unused variable")
}

func TestFirstError_JavaCompile(t *testing.T) {
	stderr := "Main.java:12: error: ';' expected\n        int x = 5\n                 ^\n1 error\n"

	diag := FirstError(stderr, types.LangJava)
	assert.Equal(t, "12", diag.Line)
	assert.Equal(t, "0", diag.Column)
	assert.Equal(t, "';' expected", diag.Message)
}

func TestFirstError_JavaRuntimeStackWalk(t *testing.T) {
	stderr := "Exception in thread \"main\" java.lang.ArrayIndexOutOfBoundsException: Index 5 out of bounds for length 3\n" +
		"\tat Main.helper(Main.java:9)\n" +
		"\tat Main.main(Main.java:4)\n"

	diag := FirstError(stderr, types.LangJava)
	assert.Equal(t, "9", diag.Line, "first Main.java frame wins")
	assert.Contains(t, diag.Message, "ArrayIndexOutOfBoundsException")
}

func TestFirstError_PythonDeepestFrame(t *testing.T) {
	stderr := "Traceback (most recent call last):\n" +
		"  File \"main.py\", line 7, in <module>\n" +
		"    run()\n" +
		"  File \"main.py\", line 3, in run\n" +
		"    return 1 / 0\n" +
		"ZeroDivisionError: division by zero\n"

	diag := FirstError(stderr, types.LangPython)
	assert.Equal(t, "3", diag.Line, "deepest frame wins")
	assert.Equal(t, "ZeroDivisionError: division by zero", diag.Message)
}

func TestFirstError_PythonNoTraceback(t *testing.T) {
	diag := FirstError("NameError: name 'x' is not defined\n", types.LangPython)
	assert.Equal(t, "?", diag.Line)
	assert.Equal(t, "NameError: name 'x' is not defined", diag.Message)
}

func TestFirstError_EmptyStderr(t *testing.T) {
	diag := FirstError("", types.LangC)
	assert.Equal(t, "?", diag.Line)
	assert.Equal(t, "?", diag.Column)
	assert.Equal(t, "Unknown Error", diag.Message)
}

func TestFirstError_UnmatchedFallbackTruncates(t *testing.T) {
	long := strings.Repeat("x", 300)

	diag := FirstError(long, types.LangC)
	assert.Equal(t, "?", diag.Line)
	assert.Len(t, diag.Message, 150)
	assert.Equal(t, long, diag.Raw)
}
