package msbuild

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/platinummonkey/slnreload/pkg/projectpath"
)

// Extensions lists the project file extensions the reader understands
var Extensions = []string{".csproj", ".vbproj", ".fsproj", ".vcxproj", ".sqlproj", ".proj"}

// IsProjectFile checks if a file name has a known project extension
func IsProjectFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Project is the part of a project file needed to follow its references
type Project struct {
	Path projectpath.Path

	// References holds raw ProjectReference Include values in document order
	References []string

	// Properties holds unconditional PropertyGroup values keyed by
	// lower-cased name. A later definition replaces an earlier one.
	Properties map[string]string

	// Defaults holds the first conditional value of each property, such as
	// <LibRoot Condition="'$(LibRoot)' == ''">. Conditions are not
	// evaluated, so these only apply when nothing else defines the name.
	Defaults map[string]string
}

// Parse extracts references and properties from project file content
func Parse(path projectpath.Path, data []byte) (*Project, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &ProjectReadError{Path: path, Err: err}
	}

	root := doc.Root()
	if root == nil || root.Tag != "Project" {
		return nil, &ProjectReadError{Path: path, Err: ErrNotAProject}
	}

	project := &Project{
		Path:       path,
		References: make([]string, 0),
		Properties: make(map[string]string),
		Defaults:   make(map[string]string),
	}
	project.collect(root, false)

	return project, nil
}

func (p *Project) collect(e *etree.Element, conditional bool) {
	for _, child := range e.ChildElements() {
		cond := conditional || child.SelectAttr("Condition") != nil
		switch child.Tag {
		case "Target":
			// Items created inside targets only exist at build time
			continue
		case "PropertyGroup":
			p.addProperties(child, cond)
		case "ProjectReference":
			p.addReference(child)
		default:
			p.collect(child, cond)
		}
	}
}

func (p *Project) addReference(e *etree.Element) {
	include := e.SelectAttrValue("Include", "")
	for _, value := range strings.Split(include, ";") {
		value = strings.TrimSpace(value)
		if value != "" {
			p.References = append(p.References, value)
		}
	}
}

func (p *Project) addProperties(group *etree.Element, conditional bool) {
	for _, prop := range group.ChildElements() {
		name := strings.ToLower(prop.Tag)
		value := strings.TrimSpace(prop.Text())
		if conditional || prop.SelectAttr("Condition") != nil {
			if _, ok := p.Defaults[name]; !ok {
				p.Defaults[name] = value
			}
			continue
		}
		p.Properties[name] = value
	}
}
