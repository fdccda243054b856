package projectpath

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	// ErrNotAbsolute is returned when a path that must be absolute is not
	ErrNotAbsolute = errors.New("path is not absolute")

	// ErrEmptyReference is returned for blank reference values
	ErrEmptyReference = errors.New("empty reference")

	// ErrInvalidReference is returned for references that cannot name a file
	ErrInvalidReference = errors.New("invalid reference")
)

// Path is an absolute, cleaned, forward-slash project file path
type Path string

// Key is the identity of a Path under a Comparer
type Key string

// String returns the path as stored
func (p Path) String() string {
	return string(p)
}

// OS converts the path to the host operating system's separator
func (p Path) OS() string {
	return filepath.FromSlash(string(p))
}

// Dir returns the directory containing the path
func (p Path) Dir() Path {
	vol, rest := split(string(p))
	return Path(vol + path.Dir(rest))
}

// Base returns the last element of the path
func (p Path) Base() string {
	_, rest := split(string(p))
	return path.Base(rest)
}

// Name returns the file name without its extension
func (p Path) Name() string {
	base := p.Base()
	return strings.TrimSuffix(base, path.Ext(base))
}

// Ext returns the file extension including the dot
func (p Path) Ext() string {
	return path.Ext(p.Base())
}

// Normalize converts an absolute path or file URI to a Path.
func Normalize(p string) (Path, error) {
	s, err := fromURI(strings.TrimSpace(p))
	if err != nil {
		return "", err
	}
	if strings.ContainsRune(s, 0) {
		return "", fmt.Errorf("%w: %q contains NUL", ErrInvalidReference, p)
	}

	s = toSlash(s)
	if !isAbs(s) {
		return "", fmt.Errorf("%w: %s", ErrNotAbsolute, p)
	}
	return Path(clean(s)), nil
}

// Abs is like Normalize but makes a relative path absolute against the
// working directory. Only use it for paths typed by a user.
func Abs(p string) (Path, error) {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		return "", ErrEmptyReference
	}
	if !isAbs(toSlash(trimmed)) && !strings.Contains(trimmed, "://") {
		abs, err := filepath.Abs(trimmed)
		if err != nil {
			return "", fmt.Errorf("failed to make %s absolute: %w", p, err)
		}
		trimmed = abs
	}
	return Normalize(trimmed)
}

// Resolve combines a reference declared inside the project at base into an
// absolute Path. Relative references are resolved against base's directory.
func Resolve(base Path, ref string) (Path, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrEmptyReference
	}
	if strings.ContainsRune(ref, 0) {
		return "", fmt.Errorf("%w: %q contains NUL", ErrInvalidReference, ref)
	}

	s, err := fromURI(ref)
	if err != nil {
		return "", err
	}
	s = toSlash(s)
	if isAbs(s) {
		return Path(clean(s)), nil
	}
	if vol, _ := split(s); vol != "" {
		return "", fmt.Errorf("%w: drive-relative path %q", ErrInvalidReference, ref)
	}
	if base == "" {
		return "", fmt.Errorf("%w: no base for relative reference %q", ErrNotAbsolute, ref)
	}

	dir := strings.TrimSuffix(string(base.Dir()), "/")
	return Path(clean(dir + "/" + s)), nil
}

// Comparer decides when two paths name the same file
type Comparer struct {
	CaseInsensitive bool
}

// DefaultComparer matches the usual case sensitivity of the host filesystem
func DefaultComparer() Comparer {
	return Comparer{CaseInsensitive: runtime.GOOS == "windows" || runtime.GOOS == "darwin"}
}

// Key returns the identity of p
func (c Comparer) Key(p Path) Key {
	if c.CaseInsensitive {
		return Key(strings.ToLower(string(p)))
	}
	return Key(p)
}

// Equal reports whether a and b name the same file
func (c Comparer) Equal(a, b Path) bool {
	return c.Key(a) == c.Key(b)
}

// Rel returns target relative to dir using forward slashes.
func (c Comparer) Rel(dir, target Path) (string, error) {
	dv, dr := split(string(dir))
	tv, tr := split(string(target))
	if !strings.EqualFold(dv, tv) {
		return "", fmt.Errorf("%s is on a different volume than %s", target, dir)
	}

	ds := segments(dr)
	ts := segments(tr)
	i := 0
	for i < len(ds) && i < len(ts) && c.sameSegment(ds[i], ts[i]) {
		i++
	}

	parts := make([]string, 0, len(ds)-i+len(ts)-i)
	for range ds[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, ts[i:]...)
	if len(parts) == 0 {
		return ".", nil
	}
	return strings.Join(parts, "/"), nil
}

func (c Comparer) sameSegment(a, b string) bool {
	if c.CaseInsensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func segments(p string) []string {
	out := make([]string, 0)
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// fromURI decodes file URIs and rejects any other URL scheme. Plain paths
// pass through untouched.
func fromURI(p string) (string, error) {
	i := strings.Index(p, "://")
	if i <= 1 {
		return p, nil
	}
	scheme := strings.ToLower(p[:i])
	if scheme != "file" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidReference, scheme)
	}

	u, err := url.Parse(toSlash(p))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}

	decoded := u.Path
	if len(decoded) >= 3 && decoded[0] == '/' && decoded[2] == ':' && isLetter(decoded[1]) {
		decoded = decoded[1:]
	}
	if u.Host != "" && !strings.EqualFold(u.Host, "localhost") {
		decoded = "//" + u.Host + decoded
	}
	return decoded, nil
}

// split separates a drive letter ("C:") or UNC share ("//server/share")
// prefix from the rest of a slash path.
func split(p string) (vol, rest string) {
	if len(p) >= 2 && p[1] == ':' && isLetter(p[0]) {
		return strings.ToUpper(p[:1]) + ":", p[2:]
	}
	if strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "///") {
		parts := strings.SplitN(p[2:], "/", 3)
		if len(parts) >= 2 && parts[0] != "" && parts[1] != "" {
			vol = "//" + parts[0] + "/" + parts[1]
			if len(parts) == 3 {
				return vol, "/" + parts[2]
			}
			return vol, "/"
		}
	}
	return "", p
}

func isAbs(p string) bool {
	vol, rest := split(p)
	if strings.HasPrefix(vol, "//") {
		return true
	}
	return strings.HasPrefix(rest, "/")
}

func clean(p string) string {
	vol, rest := split(p)
	if rest == "" {
		rest = "/"
	}
	return vol + path.Clean(rest)
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
