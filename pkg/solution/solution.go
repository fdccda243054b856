package solution

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"github.com/platinummonkey/slnreload/pkg/msbuild"
	"github.com/platinummonkey/slnreload/pkg/projectpath"
)

// ErrInvalidSolution is wrapped by every solution parse failure
var ErrInvalidSolution = errors.New("invalid solution file")

// Project("{type-guid}") = "Name", "relative\path.csproj", "{project-guid}"
var projectLine = regexp.MustCompile(`^\s*Project\("\{([0-9A-Fa-f-]+)\}"\)\s*=\s*"([^"]*)"\s*,\s*"([^"]*)"\s*,\s*"\{([0-9A-Fa-f-]+)\}"`)

// Project is one project entry of a solution
type Project struct {
	Name    string           `json:"name"`
	Path    projectpath.Path `json:"path"`
	RelPath string           `json:"rel_path"` // as written in the solution, forward slashes
	ID      string           `json:"id,omitempty"`
	TypeID  string           `json:"type_id,omitempty"`
}

// Solution is the set of projects a solution file lists, in file order
type Solution struct {
	Path     projectpath.Path
	Projects []Project
}

// ParseSolution reads a .sln or .slnx file. Solution folders and other
// entries that are not project files are skipped.
func ParseSolution(path string) (*Solution, error) {
	p, err := projectpath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid solution path %q: %w", path, err)
	}

	data, err := os.ReadFile(p.OS())
	if err != nil {
		return nil, fmt.Errorf("failed to read solution %s: %w", p, err)
	}

	if strings.EqualFold(p.Ext(), ".slnx") {
		return parseSlnx(p, data)
	}
	return parseSln(p, data)
}

func parseSln(path projectpath.Path, data []byte) (*Solution, error) {
	sol := &Solution{Path: path, Projects: make([]Project, 0)}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	headerSeen := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "Microsoft Visual Studio Solution File") {
			headerSeen = true
			continue
		}

		m := projectLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if err := sol.add(m[2], m[3], strings.ToUpper(m[4]), strings.ToUpper(m[1])); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSolution, path, err)
	}
	if !headerSeen {
		return nil, fmt.Errorf("%w: %s has no solution header", ErrInvalidSolution, path)
	}

	return sol, nil
}

func parseSlnx(path projectpath.Path, data []byte) (*Solution, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSolution, path, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "Solution" {
		return nil, fmt.Errorf("%w: %s has no <Solution> root", ErrInvalidSolution, path)
	}

	sol := &Solution{Path: path, Projects: make([]Project, 0)}
	for _, e := range root.FindElements("//Project") {
		rel := e.SelectAttrValue("Path", "")
		if rel == "" {
			continue
		}
		name := e.SelectAttrValue("DisplayName", "")
		if name == "" {
			name = projectpath.Path(strings.ReplaceAll(rel, `\`, "/")).Name()
		}
		id := strings.Trim(strings.ToUpper(e.SelectAttrValue("Id", "")), "{}")
		if err := sol.add(name, rel, id, ""); err != nil {
			return nil, err
		}
	}

	return sol, nil
}

func (s *Solution) add(name, rel, id, typeID string) error {
	if !msbuild.IsProjectFile(rel) {
		return nil
	}
	full, err := projectpath.Resolve(s.Path, rel)
	if err != nil {
		return fmt.Errorf("%w: project %q in %s: %v", ErrInvalidSolution, name, s.Path, err)
	}
	s.Projects = append(s.Projects, Project{
		Name:    name,
		Path:    full,
		RelPath: strings.ReplaceAll(rel, `\`, "/"),
		ID:      id,
		TypeID:  typeID,
	})
	return nil
}

// Find returns the project at path
func (s *Solution) Find(cmp projectpath.Comparer, path projectpath.Path) (Project, bool) {
	key := cmp.Key(path)
	for _, p := range s.Projects {
		if cmp.Key(p.Path) == key {
			return p, true
		}
	}
	return Project{}, false
}

// Properties returns the Solution* global properties MSBuild defines for
// projects built as part of the solution
func (s *Solution) Properties() map[string]string {
	dir := string(s.Path.Dir())
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return map[string]string{
		"SolutionDir":      dir,
		"SolutionPath":     string(s.Path),
		"SolutionName":     s.Path.Name(),
		"SolutionFileName": s.Path.Base(),
		"SolutionExt":      s.Path.Ext(),
	}
}
