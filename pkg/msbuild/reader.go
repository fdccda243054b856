package msbuild

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/platinummonkey/slnreload/pkg/projectpath"
)

const (
	// DefaultCacheSize bounds the number of parsed projects a LoadContext keeps
	DefaultCacheSize = 1024

	// DirectoryBuildProps is imported from the nearest enclosing directory
	// of every project unless ImportDirectoryBuildProps is "false"
	DirectoryBuildProps = "Directory.Build.props"

	maxExpansionDepth = 16
)

var (
	propertyPattern = regexp.MustCompile(`\$\(\s*([A-Za-z_][A-Za-z0-9_.\-]*)\s*\)`)
	escapePattern   = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)

	errUnknownProperty       = errors.New("unknown property")
	errUnsupportedExpression = errors.New("unsupported MSBuild expression")
)

// Options configures a Reader
type Options struct {
	// Properties are global properties such as SolutionDir or Configuration
	Properties map[string]string

	// CacheSize bounds each LoadContext; zero means DefaultCacheSize
	CacheSize int

	Comparer projectpath.Comparer
}

// Reader turns project files into resolved reference paths
type Reader struct {
	opts       Options
	properties map[string]string
}

// NewReader creates a new project reader
func NewReader(opts Options) *Reader {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}

	props := make(map[string]string, len(opts.Properties))
	for k, v := range opts.Properties {
		props[strings.ToLower(k)] = v
	}

	return &Reader{
		opts:       opts,
		properties: props,
	}
}

// Load reads and parses a project file without caching it
func (r *Reader) Load(path projectpath.Path) (*Project, error) {
	data, err := os.ReadFile(path.OS())
	if err != nil {
		return nil, &ProjectReadError{Path: path, Err: err}
	}
	return Parse(path, data)
}

// ReadReferences loads a single project in a throwaway context
func (r *Reader) ReadReferences(ctx context.Context, path projectpath.Path) ([]projectpath.Path, error) {
	lc := r.NewLoadContext()
	defer lc.Close()

	return lc.ReadReferences(ctx, path)
}

// References resolves a parsed project's reference values against its own
// location. Targets are returned in declaration order without duplicates.
// Properties from imported files are not consulted; LoadContext.ReadReferences
// adds the project's Directory.Build.props.
func (r *Reader) References(p *Project) ([]projectpath.Path, error) {
	return r.references(evaluation{project: p})
}

// evaluation is the property scope of one project: its own document and the
// Directory.Build.props it imports, if any
type evaluation struct {
	project *Project
	props   *Project
}

// lookup finds a lower-cased property name. The props file is imported
// before the project body, so project values win, and conditional defaults
// only apply when no unconditional value exists anywhere.
func (ev evaluation) lookup(name string) (string, projectpath.Path, bool) {
	if v, ok := ev.project.Properties[name]; ok {
		return v, ev.project.Path, true
	}
	if ev.props != nil {
		if v, ok := ev.props.Properties[name]; ok {
			return v, ev.props.Path, true
		}
	}
	if v, ok := ev.project.Defaults[name]; ok {
		return v, ev.project.Path, true
	}
	if ev.props != nil {
		if v, ok := ev.props.Defaults[name]; ok {
			return v, ev.props.Path, true
		}
	}
	return "", "", false
}

func (r *Reader) references(ev evaluation) ([]projectpath.Path, error) {
	p := ev.project
	seen := make(map[projectpath.Key]bool, len(p.References))
	result := make([]projectpath.Path, 0, len(p.References))

	for _, raw := range p.References {
		targets, err := r.resolve(ev, raw)
		if err != nil {
			return nil, &UnresolvedReferencePath{Project: p.Path, Reference: raw, Err: err}
		}

		for _, target := range targets {
			key := r.opts.Comparer.Key(target)
			if seen[key] {
				continue
			}
			seen[key] = true
			result = append(result, target)
		}
	}

	return result, nil
}

func (r *Reader) resolve(ev evaluation, raw string) ([]projectpath.Path, error) {
	p := ev.project
	expanded, err := r.expand(ev, p.Path, raw, 0)
	if err != nil {
		return nil, err
	}
	expanded = unescape(expanded)

	if !strings.ContainsAny(expanded, "*?") {
		target, err := projectpath.Resolve(p.Path, expanded)
		if err != nil {
			return nil, err
		}
		return []projectpath.Path{target}, nil
	}

	// filepath.Glob has no recursive wildcard, so ** matches one level
	pattern, err := projectpath.Resolve(p.Path, strings.ReplaceAll(expanded, "**", "*"))
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(pattern.OS())
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	targets := make([]projectpath.Path, 0, len(matches))
	for _, match := range matches {
		target, err := projectpath.Normalize(match)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// expand substitutes $(Name) references in value. thisFile is the file
// value was defined in, which MSBuildThisFile* properties refer to.
func (r *Reader) expand(ev evaluation, thisFile projectpath.Path, value string, depth int) (string, error) {
	if depth > maxExpansionDepth {
		return "", fmt.Errorf("%w: property expansion too deep in %q", errUnsupportedExpression, value)
	}

	var firstErr error
	out := propertyPattern.ReplaceAllStringFunc(value, func(match string) string {
		name := propertyPattern.FindStringSubmatch(match)[1]
		v, definedIn, ok := r.lookup(ev, thisFile, name)
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w $(%s)", errUnknownProperty, name)
			}
			return match
		}
		expanded, err := r.expand(ev, definedIn, v, depth+1)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return expanded
	})
	if firstErr != nil {
		return "", firstErr
	}

	if strings.Contains(out, "$(") || strings.Contains(out, "@(") || strings.Contains(out, "%(") {
		return "", fmt.Errorf("%w in %q", errUnsupportedExpression, value)
	}
	return out, nil
}

// lookup resolves reserved properties first, then global, then those of
// the project and its imports. It also returns the file that defined the
// value.
func (r *Reader) lookup(ev evaluation, thisFile projectpath.Path, name string) (string, projectpath.Path, bool) {
	project := ev.project.Path

	switch lower := strings.ToLower(name); lower {
	case "msbuildthisfiledirectory":
		return dirOf(thisFile) + "/", thisFile, true
	case "msbuildprojectdirectory":
		if dir := dirOf(project); dir != "" {
			return dir, thisFile, true
		}
		return "/", thisFile, true
	case "msbuildthisfilefullpath":
		return string(thisFile), thisFile, true
	case "msbuildprojectfullpath":
		return string(project), thisFile, true
	case "msbuildthisfilename":
		return thisFile.Name(), thisFile, true
	case "msbuildprojectname":
		return project.Name(), thisFile, true
	case "msbuildthisfile":
		return thisFile.Base(), thisFile, true
	case "msbuildprojectfile":
		return project.Base(), thisFile, true
	case "msbuildthisfileextension":
		return thisFile.Ext(), thisFile, true
	case "msbuildprojectextension":
		return project.Ext(), thisFile, true
	default:
		if v, ok := r.properties[lower]; ok {
			return v, thisFile, true
		}
		return ev.lookup(lower)
	}
}

func dirOf(p projectpath.Path) string {
	return strings.TrimSuffix(string(p.Dir()), "/")
}

// importsProps reports whether Directory.Build.props should be read
func (r *Reader) importsProps() bool {
	return !strings.EqualFold(strings.TrimSpace(r.properties["importdirectorybuildprops"]), "false")
}

// unescape decodes MSBuild %XX escapes such as %3B for ';'
func unescape(s string) string {
	return escapePattern.ReplaceAllStringFunc(s, func(m string) string {
		b, err := strconv.ParseUint(m[1:], 16, 8)
		if err != nil {
			return m
		}
		return string(rune(b))
	})
}

// NewLoadContext creates a cache scoped to one resolution
func (r *Reader) NewLoadContext() *LoadContext {
	cache, err := lru.New[projectpath.Key, *Project](r.opts.CacheSize)
	if err != nil {
		// lru.New only fails for non-positive sizes, which NewReader rules out
		panic(err)
	}
	return &LoadContext{
		reader: r,
		cache:  cache,
		props:  make(map[projectpath.Key]projectpath.Path),
	}
}

// LoadContext caches parsed projects for one resolution. Each project is
// visited once, but the Directory.Build.props files they import are shared,
// so those are the cache hits. It is safe for concurrent use but is meant to
// be owned by a single caller.
type LoadContext struct {
	reader *Reader
	cache  *lru.Cache[projectpath.Key, *Project]

	// props maps a directory to the Directory.Build.props governing it, or
	// "" when there is none
	props map[projectpath.Key]projectpath.Path

	mu     sync.Mutex
	closed bool
	loads  int
}

// Load returns the parsed project at path, reading the file on first use
func (lc *LoadContext) Load(path projectpath.Path) (*Project, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if lc.closed {
		return nil, ErrContextClosed
	}

	key := lc.reader.opts.Comparer.Key(path)
	if project, ok := lc.cache.Get(key); ok {
		return project, nil
	}

	project, err := lc.reader.Load(path)
	if err != nil {
		return nil, err
	}
	lc.loads++
	lc.cache.Add(key, project)

	return project, nil
}

// ReadReferences returns the resolved reference targets of the project at
// path. Cancellation is checked before the file is touched.
func (lc *LoadContext) ReadReferences(ctx context.Context, path projectpath.Path) ([]projectpath.Path, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	project, err := lc.Load(path)
	if err != nil {
		return nil, err
	}
	props, err := lc.directoryProps(path)
	if err != nil {
		return nil, err
	}
	return lc.reader.references(evaluation{project: project, props: props})
}

// directoryProps loads the Directory.Build.props the project at path imports
func (lc *LoadContext) directoryProps(path projectpath.Path) (*Project, error) {
	if !lc.reader.importsProps() {
		return nil, nil
	}
	propsPath, ok := lc.findProps(path.Dir())
	if !ok {
		return nil, nil
	}
	return lc.Load(propsPath)
}

// findProps searches dir and its ancestors for Directory.Build.props
func (lc *LoadContext) findProps(dir projectpath.Path) (projectpath.Path, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	cmp := lc.reader.opts.Comparer
	var searched []projectpath.Key
	var found projectpath.Path
	for {
		key := cmp.Key(dir)
		if cached, ok := lc.props[key]; ok {
			found = cached
			break
		}
		searched = append(searched, key)

		candidate := projectpath.Path(dirOf(dir) + "/" + DirectoryBuildProps)
		if info, err := os.Stat(candidate.OS()); err == nil && !info.IsDir() {
			found = candidate
			break
		}

		parent := dir.Dir()
		if parent == dir {
			break
		}
		dir = parent
	}

	for _, key := range searched {
		lc.props[key] = found
	}
	return found, found != ""
}

// Loads returns how many files this context has parsed
func (lc *LoadContext) Loads() int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.loads
}

// Close drops every cached project. Further reads fail with ErrContextClosed.
func (lc *LoadContext) Close() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if lc.closed {
		return nil
	}
	lc.closed = true
	lc.cache.Purge()
	clear(lc.props)
	return nil
}
