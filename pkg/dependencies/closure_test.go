package dependencies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/slnreload/pkg/projectpath"
)

func TestClosure_DependencyQueries(t *testing.T) {
	// App -> Lib1, Lib2; Lib1 -> Shared; Lib2 -> Shared
	closure := resolveFake(t, map[string][]string{
		"/repo/App.csproj":  {"/repo/Lib1.csproj", "/repo/Lib2.csproj"},
		"/repo/Lib1.csproj": {"/repo/Shared.csproj"},
		"/repo/Lib2.csproj": {"/repo/Shared.csproj"},
	}, "/repo/App.csproj")

	t.Run("direct dependencies", func(t *testing.T) {
		deps, err := closure.Dependencies("/repo/App.csproj", false)
		require.NoError(t, err)
		assert.Equal(t, []Dependency{
			{Project: "/repo/Lib1.csproj", Type: "direct"},
			{Project: "/repo/Lib2.csproj", Type: "direct"},
		}, deps)
	})

	t.Run("transitive dependencies", func(t *testing.T) {
		deps, err := closure.Dependencies("/repo/App.csproj", true)
		require.NoError(t, err)
		assert.Equal(t, []Dependency{
			{Project: "/repo/Lib1.csproj", Type: "transitive"},
			{Project: "/repo/Shared.csproj", Type: "transitive"},
			{Project: "/repo/Lib2.csproj", Type: "transitive"},
		}, deps)
	})

	t.Run("leaf has no dependencies", func(t *testing.T) {
		deps, err := closure.Dependencies("/repo/Shared.csproj", false)
		require.NoError(t, err)
		assert.NotNil(t, deps)
		assert.Empty(t, deps)
	})

	t.Run("dependents", func(t *testing.T) {
		deps, err := closure.Dependents("/repo/Shared.csproj")
		require.NoError(t, err)
		assert.Equal(t, []Dependency{
			{Project: "/repo/Lib1.csproj", Type: "direct"},
			{Project: "/repo/Lib2.csproj", Type: "direct"},
		}, deps)

		deps, err = closure.Dependents("/repo/App.csproj")
		require.NoError(t, err)
		assert.Empty(t, deps)
	})

	t.Run("edges", func(t *testing.T) {
		assert.Equal(t, []Edge{
			{From: "/repo/App.csproj", To: "/repo/Lib1.csproj"},
			{From: "/repo/App.csproj", To: "/repo/Lib2.csproj"},
			{From: "/repo/Lib1.csproj", To: "/repo/Shared.csproj"},
			{From: "/repo/Lib2.csproj", To: "/repo/Shared.csproj"},
		}, closure.Edges())
	})

	t.Run("project outside the closure", func(t *testing.T) {
		_, err := closure.Dependencies("/repo/Other.csproj", false)
		assert.ErrorIs(t, err, ErrNotInClosure)

		_, err = closure.Dependents("/repo/Other.csproj")
		assert.ErrorIs(t, err, ErrNotInClosure)
	})

	t.Run("relative project path", func(t *testing.T) {
		_, err := closure.Dependents("Shared.csproj")
		assert.ErrorIs(t, err, projectpath.ErrNotAbsolute)
	})
}
