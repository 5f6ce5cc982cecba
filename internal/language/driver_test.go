package language

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labta/internal/sandbox"
	"labta/internal/types"
)

// scriptedRunner records the spec it was called with and replays a fixed
// result.
type scriptedRunner struct {
	lastSpec sandbox.Spec
	result   *sandbox.Result
	err      error
}

func (r *scriptedRunner) Run(ctx context.Context, spec sandbox.Spec) (*sandbox.Result, error) {
	r.lastSpec = spec
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func TestForLanguage(t *testing.T) {
	for _, lang := range Supported() {
		assert.NotNil(t, ForLanguage(lang), "driver for %s", lang)
	}
	assert.Nil(t, ForLanguage("rust"))
}

func TestDriverCommands(t *testing.T) {
	tests := []struct {
		lang     types.Language
		fileName string
		first    string
		last     string
	}{
		{types.LangC, "main.c", "gcc /app/main.c -o /app/main.out", "/app/main.out"},
		{types.LangCPP, "main.cpp", "g++ /app/main.cpp -o /app/main.out", "/app/main.out"},
		{types.LangPython, "main.py", "python3 /app/main.py", "python3 /app/main.py"},
		{types.LangJava, "Main.java", "javac /app/Main.java", "java -cp /app Main"},
	}

	for _, tt := range tests {
		driver := ForLanguage(tt.lang)
		require.NotNil(t, driver)
		assert.Equal(t, tt.fileName, driver.FileName)

		cmds := driver.commands("/app")
		require.NotEmpty(t, cmds)
		assert.Equal(t, tt.first, cmds[0])
		assert.Equal(t, tt.last, cmds[len(cmds)-1])
	}
}

func TestCompileClassifier(t *testing.T) {
	classify := compileClassifier("gcc", "main.c")

	assert.Equal(t, types.StatusCompilationError,
		classify("main.c:3:1: error: expected ';' before '}' token"))
	assert.Equal(t, types.Status(""), classify("runtime noise without markers"))
	// An "error:" without the tool or file name is not a compile failure.
	assert.Equal(t, types.Status(""), classify("ValueError: error: something"))
}

func TestClassifyPython(t *testing.T) {
	assert.Equal(t, types.StatusSyntaxError,
		classifyPython(`File "main.py", line 1\n    print(\nSyntaxError: unexpected EOF`))
	assert.Equal(t, types.StatusSyntaxError,
		classifyPython("IndentationError: unexpected indent"))
	assert.Equal(t, types.StatusTypeError,
		classifyPython(`TypeError: can only concatenate str (not "int") to str`))
	assert.Equal(t, types.Status(""), classifyPython("ZeroDivisionError: division by zero"))
}

func TestClassifyJava(t *testing.T) {
	assert.Equal(t, types.StatusCompilationError,
		classifyJava("Main.java:5: error: ';' expected"))
	assert.Equal(t, types.StatusTypeError,
		classifyJava("Exception in thread \"main\" java.lang.ClassCastException: class A"))
	assert.Equal(t, types.Status(""), classifyJava("Exception in thread \"main\" java.lang.ArithmeticException"))
}

func TestExecute_WritesSourceAndPipesStdin(t *testing.T) {
	root := t.TempDir()
	runner := &scriptedRunner{result: &sandbox.Result{ExitCode: 0, Stdout: "ok"}}

	exec, err := NewExecutor(runner, root, "/app")
	require.NoError(t, err)

	res, err := exec.Execute(context.Background(), ForLanguage(types.LangPython), "print(input())", "42\n")
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "ok", res.Stdout)
	assert.False(t, res.IsPreClassified())

	assert.Equal(t, "42\n", runner.lastSpec.Stdin)
	assert.Equal(t, []string{"python3 /app/main.py"}, runner.lastSpec.Commands)
	assert.True(t, strings.HasPrefix(runner.lastSpec.WorkDir, root))
}

func TestExecute_WorkspaceRemovedOnSuccess(t *testing.T) {
	root := t.TempDir()
	runner := &scriptedRunner{result: &sandbox.Result{ExitCode: 0}}

	exec, err := NewExecutor(runner, root, "/app")
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), ForLanguage(types.LangC), "int main(){}", "")
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "job directory must not survive the call")
}

func TestExecute_WorkspaceRemovedOnRunnerError(t *testing.T) {
	root := t.TempDir()
	runner := &scriptedRunner{err: errors.New("docker daemon down")}

	exec, err := NewExecutor(runner, root, "/app")
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), ForLanguage(types.LangC), "int main(){}", "")
	require.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "job directory must not survive a failure")
}

func TestExecute_PreClassifiesCompileError(t *testing.T) {
	root := t.TempDir()
	runner := &scriptedRunner{result: &sandbox.Result{
		ExitCode: 1,
		Stderr:   "main.c:1:14: error: expected declaration",
	}}

	exec, err := NewExecutor(runner, root, "/app")
	require.NoError(t, err)

	res, err := exec.Execute(context.Background(), ForLanguage(types.LangC), "int main(){", "")
	require.NoError(t, err)

	assert.True(t, res.IsPreClassified())
	assert.Equal(t, types.StatusCompilationError, res.Pre)
}
