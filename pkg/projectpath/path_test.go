package projectpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Path
		wantErr error
	}{
		{name: "posix path", input: "/sol/App/App.csproj", want: "/sol/App/App.csproj"},
		{name: "dot segments", input: "/sol/App/../Lib/./Lib.csproj", want: "/sol/Lib/Lib.csproj"},
		{name: "windows separators", input: `C:\sol\App\App.csproj`, want: "C:/sol/App/App.csproj"},
		{name: "lower drive letter", input: `c:\sol\App.csproj`, want: "C:/sol/App.csproj"},
		{name: "unc share", input: `\\build\share\App\App.csproj`, want: "//build/share/App/App.csproj"},
		{name: "file uri", input: "file:///sol/My%20App/App.csproj", want: "/sol/My App/App.csproj"},
		{name: "file uri with drive", input: "file:///C:/sol/App.csproj", want: "C:/sol/App.csproj"},
		{name: "file uri with host", input: "file://build/share/App.csproj", want: "//build/share/App.csproj"},
		{name: "surrounding whitespace", input: "  /sol/App.csproj \n", want: "/sol/App.csproj"},
		{name: "relative", input: "App/App.csproj", wantErr: ErrNotAbsolute},
		{name: "drive relative", input: "C:App.csproj", wantErr: ErrNotAbsolute},
		{name: "http scheme", input: "https://example.com/App.csproj", wantErr: ErrInvalidReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		base    Path
		ref     string
		want    Path
		wantErr error
	}{
		{
			name: "sibling directory",
			base: "/solution/App/App.csproj",
			ref:  "../Lib/Lib.csproj",
			want: "/solution/Lib/Lib.csproj",
		},
		{
			name: "backslash reference on posix base",
			base: "/solution/App/App.csproj",
			ref:  `..\Lib\Lib.csproj`,
			want: "/solution/Lib/Lib.csproj",
		},
		{
			name: "same directory",
			base: "/solution/App/App.csproj",
			ref:  "Helpers.csproj",
			want: "/solution/App/Helpers.csproj",
		},
		{
			name: "absolute reference replaces base",
			base: "/solution/App/App.csproj",
			ref:  "/other/Shared/Shared.csproj",
			want: "/other/Shared/Shared.csproj",
		},
		{
			name: "drive base",
			base: "C:/solution/App/App.csproj",
			ref:  `..\..\Shared\Shared.csproj`,
			want: "C:/Shared/Shared.csproj",
		},
		{
			name: "climbing above root clamps",
			base: "/App/App.csproj",
			ref:  "../../../Lib/Lib.csproj",
			want: "/Lib/Lib.csproj",
		},
		{
			name: "project at filesystem root",
			base: "/App.csproj",
			ref:  "a/b/Lib.csproj",
			want: "/a/b/Lib.csproj",
		},
		{
			name: "unc base",
			base: "//build/share/App/App.csproj",
			ref:  "../Lib/Lib.csproj",
			want: "//build/share/Lib/Lib.csproj",
		},
		{
			name: "file uri reference",
			base: "/solution/App/App.csproj",
			ref:  "file:///solution/Lib/Lib.csproj",
			want: "/solution/Lib/Lib.csproj",
		},
		{name: "empty", base: "/solution/App/App.csproj", ref: "   ", wantErr: ErrEmptyReference},
		{name: "nul byte", base: "/solution/App/App.csproj", ref: "Lib\x00.csproj", wantErr: ErrInvalidReference},
		{name: "drive relative", base: "/solution/App/App.csproj", ref: "D:Lib.csproj", wantErr: ErrInvalidReference},
		{name: "foreign scheme", base: "/solution/App/App.csproj", ref: "ftp://host/Lib.csproj", wantErr: ErrInvalidReference},
		{name: "no base", base: "", ref: "Lib.csproj", wantErr: ErrNotAbsolute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.base, tt.ref)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_IgnoresWorkingDirectory(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(wd)

	require.NoError(t, os.Chdir(t.TempDir()))

	got, err := Resolve("/sol/App/App.csproj", "../Lib/Lib.csproj")
	require.NoError(t, err)
	assert.Equal(t, Path("/sol/Lib/Lib.csproj"), got)
}

func TestAbs(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(wd)
	require.NoError(t, os.Chdir(dir))

	got, err := Abs("App/App.csproj")
	require.NoError(t, err)

	resolvedDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	// t.TempDir may sit behind a symlink (macOS /var), so compare either form.
	assert.Contains(t, []Path{
		Path(filepath.ToSlash(filepath.Join(dir, "App", "App.csproj"))),
		Path(filepath.ToSlash(filepath.Join(resolvedDir, "App", "App.csproj"))),
	}, got)

	_, err = Abs("")
	assert.ErrorIs(t, err, ErrEmptyReference)
}

func TestPathAccessors(t *testing.T) {
	p := Path("C:/sol/App/App.csproj")

	assert.Equal(t, Path("C:/sol/App"), p.Dir())
	assert.Equal(t, "App.csproj", p.Base())
	assert.Equal(t, "App", p.Name())
	assert.Equal(t, ".csproj", p.Ext())
	assert.Equal(t, "C:/sol/App/App.csproj", p.String())
}

func TestComparer(t *testing.T) {
	a := Path("/Sol/App/App.csproj")
	b := Path("/sol/app/app.csproj")

	insensitive := Comparer{CaseInsensitive: true}
	sensitive := Comparer{CaseInsensitive: false}

	assert.True(t, insensitive.Equal(a, b))
	assert.Equal(t, insensitive.Key(a), insensitive.Key(b))
	assert.False(t, sensitive.Equal(a, b))
	assert.True(t, sensitive.Equal(a, a))
}

func TestComparer_Rel(t *testing.T) {
	cmp := Comparer{CaseInsensitive: true}

	tests := []struct {
		name   string
		dir    Path
		target Path
		want   string
	}{
		{name: "child", dir: "/sol", target: "/sol/App/App.csproj", want: "App/App.csproj"},
		{name: "sibling", dir: "/sol/filters", target: "/sol/App/App.csproj", want: "../App/App.csproj"},
		{name: "same", dir: "/sol", target: "/sol", want: "."},
		{name: "case folded", dir: "C:/Sol", target: "c:/sol/App.csproj", want: "App.csproj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cmp.Rel(tt.dir, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := cmp.Rel("C:/sol", "D:/sol/App.csproj")
	assert.Error(t, err)
}
