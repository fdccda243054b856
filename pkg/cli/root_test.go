package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/slnreload/pkg/dependencies"
	"github.com/platinummonkey/slnreload/pkg/projectpath"
	"github.com/platinummonkey/slnreload/pkg/reload"
)

const fixtureSln = `
Microsoft Visual Studio Solution File, Format Version 12.00
# Visual Studio Version 17
Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "App", "src\App\App.csproj", "{11111111-1111-1111-1111-111111111111}"
EndProject
Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "Core", "src\Core\Core.csproj", "{22222222-2222-2222-2222-222222222222}"
EndProject
Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "Util", "src\Util\Util.csproj", "{33333333-3333-3333-3333-333333333333}"
EndProject
Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "Tool", "src\Tool\Tool.csproj", "{44444444-4444-4444-4444-444444444444}"
EndProject
Global
EndGlobal
`

type fixture struct {
	dir string
	sln string
}

// newFixture lays out a solution where
//
//	App -> Core, Util (through $(SolutionDir))
//	Core -> Util
//	Tool (standalone)
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{dir: dir, sln: filepath.Join(dir, "App.sln")}

	f.write(t, "App.sln", fixtureSln)
	f.project(t, "src/App/App.csproj", `..\Core\Core.csproj`, `$(SolutionDir)src\Util\Util.csproj`)
	f.project(t, "src/Core/Core.csproj", `..\Util\Util.csproj`)
	f.project(t, "src/Util/Util.csproj")
	f.project(t, "src/Tool/Tool.csproj")
	return f
}

func (f *fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	full := filepath.Join(f.dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	return full
}

func (f *fixture) project(t *testing.T, rel string, includes ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("<Project Sdk=\"Microsoft.NET.Sdk\">\n  <ItemGroup>\n")
	for _, inc := range includes {
		b.WriteString("    <ProjectReference Include=\"" + inc + "\" />\n")
	}
	b.WriteString("  </ItemGroup>\n</Project>\n")
	return f.write(t, rel, b.String())
}

// path returns the normalized absolute path of rel
func (f *fixture) path(t *testing.T, rel string) string {
	t.Helper()
	p, err := projectpath.Normalize(filepath.Join(f.dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(p)
}

func (f *fixture) file(rel string) string {
	return filepath.Join(f.dir, filepath.FromSlash(rel))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := newRootCommand(&out, &errOut).ExecuteArgs(args)
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	assert.Equal(t, "slnreload", root.Name)
	assert.NotNil(t, root.Flags)

	expectedCommands := []string{
		"closure",
		"reload",
		"reload-all",
		"unload-all",
		"list",
		"watch",
		"serve",
		"version",
	}
	for _, name := range expectedCommands {
		assert.Contains(t, root.Subcommands, name)
		assert.Equal(t, name, root.Subcommands[name].Name)
		assert.NotNil(t, root.Subcommands[name].Run)
	}
	assert.Equal(t, len(expectedCommands), len(root.Subcommands))
}

func TestCommandUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"-h"}, {"--HELP"}, {"help"}} {
		out, err := run(t, args...)

		assert.NoError(t, err)
		assert.Contains(t, out, "Usage: slnreload <command> [flags] [projects...]")
		assert.Contains(t, out, "closure")
		assert.Contains(t, out, "reload-all")
		assert.Less(t, strings.Index(out, "closure"), strings.Index(out, "version"), "commands are sorted")
	}
}

func TestCommandExecute_UnknownCommand(t *testing.T) {
	_, err := run(t, "nonexistent")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: nonexistent")
}

func TestCommandExecute_SubcommandWithArgs(t *testing.T) {
	root := newRootCommand(&bytes.Buffer{}, &bytes.Buffer{})

	var received []string
	root.Subcommands["test"] = &Command{
		Name: "test",
		Run: func(args []string) error {
			received = args
			return nil
		},
	}

	require.NoError(t, root.ExecuteArgs([]string{"test", "-x", "A.csproj"}))
	assert.Equal(t, []string{"-x", "A.csproj"}, received)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "slnreload "+Version))
}

func TestClosureCommand(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "closure", "-solution", f.sln, f.file("src/App/App.csproj"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		f.path(t, "src/Util/Util.csproj"),
		f.path(t, "src/Core/Core.csproj"),
		f.path(t, "src/App/App.csproj"),
	}, lines(out))
}

func TestClosureCommand_UnionOfRoots(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "closure", "-solution", f.sln, f.file("src/Core/Core.csproj"), f.file("src/Tool/Tool.csproj"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		f.path(t, "src/Util/Util.csproj"),
		f.path(t, "src/Core/Core.csproj"),
		f.path(t, "src/Tool/Tool.csproj"),
	}, lines(out))
}

func TestClosureCommand_JSON(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "closure", "-json", "-solution", f.sln, f.file("src/Core/Core.csproj"))
	require.NoError(t, err)

	var closures []closureJSON
	require.NoError(t, json.Unmarshal([]byte(out), &closures))
	require.Len(t, closures, 1)
	assert.Equal(t, f.path(t, "src/Core/Core.csproj"), closures[0].Root)
	assert.Len(t, closures[0].Projects, 2)
	assert.Equal(t, f.path(t, "src/Core/Core.csproj"), closures[0].Order[1])
	assert.Equal(t, []dependencies.Edge{{
		From: projectpath.Path(f.path(t, "src/Core/Core.csproj")),
		To:   projectpath.Path(f.path(t, "src/Util/Util.csproj")),
	}}, closures[0].Edges)
}

func TestClosureCommand_Graph(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "closure", "-graph", "-depth", "1", "-solution", f.sln, f.file("src/App/App.csproj"))
	require.NoError(t, err)

	var graph dependencies.CytoscapeGraph
	require.NoError(t, json.Unmarshal([]byte(out), &graph))
	assert.Len(t, graph.Nodes, 3)
	assert.Len(t, graph.Edges, 2, "depth 1 keeps only the root's own references")

	_, err = run(t, "closure", "-graph", f.file("src/App/App.csproj"), f.file("src/Tool/Tool.csproj"))
	assert.Error(t, err)
}

func TestClosureCommand_DependencyQueries(t *testing.T) {
	f := newFixture(t)
	app := f.file("src/App/App.csproj")

	t.Run("direct dependencies", func(t *testing.T) {
		out, err := run(t, "closure", "-solution", f.sln, "-dependencies", f.file("src/Core/Core.csproj"), app)
		require.NoError(t, err)
		assert.Equal(t, []string{f.path(t, "src/Util/Util.csproj")}, lines(out))
	})

	t.Run("transitive dependencies as JSON", func(t *testing.T) {
		out, err := run(t, "closure", "-solution", f.sln, "-json", "-transitive", "-dependencies", app, app)
		require.NoError(t, err)

		var deps []dependencies.Dependency
		require.NoError(t, json.Unmarshal([]byte(out), &deps))
		assert.ElementsMatch(t, []dependencies.Dependency{
			{Project: f.path(t, "src/Core/Core.csproj"), Type: "transitive"},
			{Project: f.path(t, "src/Util/Util.csproj"), Type: "transitive"},
		}, deps)
	})

	t.Run("dependents", func(t *testing.T) {
		out, err := run(t, "closure", "-solution", f.sln, "-dependents", f.file("src/Util/Util.csproj"), app)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			f.path(t, "src/App/App.csproj"),
			f.path(t, "src/Core/Core.csproj"),
		}, lines(out))
	})

	t.Run("project outside the closure", func(t *testing.T) {
		_, err := run(t, "closure", "-solution", f.sln, "-dependents", f.file("src/Tool/Tool.csproj"), app)
		assert.ErrorIs(t, err, dependencies.ErrNotInClosure)
	})

	t.Run("conflicting flags", func(t *testing.T) {
		_, err := run(t, "closure", "-solution", f.sln,
			"-dependents", app, "-dependencies", app, app)
		assert.Error(t, err)

		_, err = run(t, "closure", "-solution", f.sln, "-dependents", app, app, f.file("src/Tool/Tool.csproj"))
		assert.Error(t, err)
	})
}

func TestClosureCommand_Errors(t *testing.T) {
	f := newFixture(t)
	broken := f.project(t, "src/Broken/Broken.csproj", `..\Missing\Missing.csproj`)

	t.Run("no roots", func(t *testing.T) {
		_, err := run(t, "closure")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "root project is required")
	})

	t.Run("missing reference names the project", func(t *testing.T) {
		_, err := run(t, "closure", broken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Missing.csproj")
	})

	t.Run("project bound", func(t *testing.T) {
		_, err := run(t, "closure", "-max-projects", "2", "-solution", f.sln, f.file("src/App/App.csproj"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "raise -max-projects")
	})

	t.Run("unknown property without solution", func(t *testing.T) {
		_, err := run(t, "closure", f.file("src/App/App.csproj"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SolutionDir")
	})

	t.Run("property from the command line", func(t *testing.T) {
		out, err := run(t, "closure", "-p", "SolutionDir="+f.dir+string(filepath.Separator), f.file("src/App/App.csproj"))
		require.NoError(t, err)
		assert.Len(t, lines(out), 3)
	})

	t.Run("bad flag", func(t *testing.T) {
		_, err := run(t, "closure", "-nope")
		assert.Error(t, err)
	})
}

func TestReloadCommand(t *testing.T) {
	f := newFixture(t)
	filter := f.file("App.slnf")

	out, err := run(t, "reload", "-solution", f.sln, f.file("src/Core/Core.csproj"))
	require.NoError(t, err)
	assert.Contains(t, out, "2 projects reloaded")

	data, err := os.ReadFile(filter)
	require.NoError(t, err)
	assert.Contains(t, string(data), `src\\Core\\Core.csproj`)
	assert.Contains(t, string(data), `src\\Util\\Util.csproj`)
	assert.NotContains(t, string(data), `App.csproj`)

	out, err = run(t, "reload", "-json", "-filter", filter, f.file("src/App/App.csproj"))
	require.NoError(t, err)

	var report reload.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{f.path(t, "src/App/App.csproj")}, report.Reloaded)
	assert.ElementsMatch(t, []string{
		f.path(t, "src/Util/Util.csproj"),
		f.path(t, "src/Core/Core.csproj"),
	}, report.Skipped)
}

func TestReloadCommand_DryRun(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "reload", "-dry-run", "-solution", f.sln, f.file("src/App/App.csproj"))
	require.NoError(t, err)
	assert.Contains(t, out, "3 projects would have reloaded")

	_, err = os.Stat(f.file("App.slnf"))
	assert.True(t, os.IsNotExist(err), "dry run must not write the filter")
}

func TestReloadCommand_ResolutionFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.project(t, "src/Core/Core.csproj", `..\Gone\Gone.csproj`)

	_, err := run(t, "reload", "-solution", f.sln, f.file("src/App/App.csproj"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gone.csproj")

	_, err = os.Stat(f.file("App.slnf"))
	assert.True(t, os.IsNotExist(err))
}

func TestReloadCommand_RequiresSolution(t *testing.T) {
	f := newFixture(t)

	_, err := run(t, "reload", f.file("src/App/App.csproj"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errNoSolution)
}

func TestReloadAllAndUnloadAll(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "reload-all", "-solution", f.sln)
	require.NoError(t, err)
	assert.Contains(t, out, "4 projects reloaded")

	out, err = run(t, "list", "-state", "unloaded", "-solution", f.sln)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))

	out, err = run(t, "unload-all", "-solution", f.sln)
	require.NoError(t, err)
	assert.Contains(t, out, "4 projects unloaded")

	_, err = run(t, "unload-all", "-solution", f.sln, f.file("src/App/App.csproj"))
	assert.Error(t, err)
}

func TestListCommand(t *testing.T) {
	f := newFixture(t)
	_, err := run(t, "reload", "-solution", f.sln, f.file("src/Core/Core.csproj"))
	require.NoError(t, err)

	out, err := run(t, "list", "-solution", f.sln)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"loaded    " + f.path(t, "src/Core/Core.csproj"),
		"loaded    " + f.path(t, "src/Util/Util.csproj"),
		"unloaded  " + f.path(t, "src/App/App.csproj"),
		"unloaded  " + f.path(t, "src/Tool/Tool.csproj"),
	}, lines(out))

	out, err = run(t, "list", "-json", "-state", "loaded", "-solution", f.sln)
	require.NoError(t, err)
	var rows []listRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, 2)

	_, err = run(t, "list", "-state", "sideways", "-solution", f.sln)
	assert.Error(t, err)
}

func TestWatchCommand_RequiresRoots(t *testing.T) {
	_, err := run(t, "watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root project is required")
}

func TestServeCommand_RequiresSolution(t *testing.T) {
	_, err := run(t, "serve", "-addr", "127.0.0.1:0")
	assert.ErrorIs(t, err, errNoSolution)
}

func TestDescribeOperationError(t *testing.T) {
	hostErr := &reload.HostError{Op: "reload", Project: "/repo/Lib.csproj", Err: os.ErrPermission}

	err := describeOperationError(hostErr)
	assert.True(t, reload.IsHostError(err))
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Contains(t, err.Error(), "changed before the failure")

	timeout := &dependencies.ResolutionTimeout{Root: "/repo/App.csproj", Limit: 2}
	err = describeOperationError(timeout)
	assert.True(t, dependencies.IsResolutionTimeout(err))
	assert.Contains(t, err.Error(), "raise -max-projects")
}

func TestCommandContext_StopCancels(t *testing.T) {
	ctx, stop := commandContext()
	require.NoError(t, ctx.Err())

	stop()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
