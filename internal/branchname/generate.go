package branchname

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"text/template"
	"text/template/parse"

	"github.com/Masterminds/sprig/v3"

	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
	"git.home.luguber.info/inful/mdredirect/internal/logfields"
)

// MinHashLength is the shortest hash used for hashed branch names.
const MinHashLength = 6

// Default templates.
const (
	DefaultBranchPrefix = "renovate/"
	DefaultBranchName   = "{{.branchPrefix}}{{.additionalBranchPrefix}}{{.branchTopic}}"
	DefaultBranchTopic  = "{{.depNameSanitized}}-{{.newMajor}}{{if and .separateMinorPatch .isPatch}}.{{.newMinor}}{{end}}.x{{if .isLockfileUpdate}}-lockfile{{end}}"
	DefaultGroupTopic   = "{{.groupSlug}}"
)

// Group carries group-level overrides.
type Group struct {
	BranchTopic string `yaml:"branchTopic"`
	BranchName  string `yaml:"branchName"`
}

// Update describes one dependency update. Template fields use the yaml names.
type Update struct {
	DepName            string `yaml:"depName"`
	DepNameSanitized   string `yaml:"depNameSanitized"`
	PackageFile        string `yaml:"packageFile"`
	Manager            string `yaml:"manager"`
	CurrentVersion     string `yaml:"currentVersion"`
	NewVersion         string `yaml:"newVersion"`
	NewMajor           int    `yaml:"newMajor"`
	NewMinor           int    `yaml:"newMinor"`
	NewPatch           int    `yaml:"newPatch"`
	UpdateType         string `yaml:"updateType"`
	IsLockfileUpdate   bool   `yaml:"isLockfileUpdate"`
	GroupName          string `yaml:"groupName"`
	GroupSlug          string `yaml:"groupSlug"`
	SharedVariableName string `yaml:"sharedVariableName"`
	Group              Group  `yaml:"group"`

	SeparateMajorMinor    bool `yaml:"separateMajorMinor"`
	SeparateMultipleMajor bool `yaml:"separateMultipleMajor"`
	SeparateMultipleMinor bool `yaml:"separateMultipleMinor"`
	SeparateMinorPatch    bool `yaml:"separateMinorPatch"`

	BranchPrefix           string `yaml:"branchPrefix"`
	AdditionalBranchPrefix string `yaml:"additionalBranchPrefix"`
	BranchTopic            string `yaml:"branchTopic"`
	BranchName             string `yaml:"branchName"`
	HashedBranchLength     int    `yaml:"hashedBranchLength"`
	BranchNameStrict       bool   `yaml:"branchNameStrict"`

	// Extra holds additional template fields.
	Extra map[string]string `yaml:"extra"`
}

// WithDefaults fills empty template settings with the defaults.
func (u Update) WithDefaults() Update {
	if u.BranchPrefix == "" {
		u.BranchPrefix = DefaultBranchPrefix
	}
	if u.BranchName == "" {
		u.BranchName = DefaultBranchName
	}
	if u.BranchTopic == "" {
		u.BranchTopic = DefaultBranchTopic
		if u.GroupName != "" || u.SharedVariableName != "" {
			u.BranchTopic = DefaultGroupTopic
		}
	}
	if u.DepNameSanitized == "" {
		u.DepNameSanitized = SanitizeDepName(u.DepName)
	}
	return u
}

func (u Update) fields() map[string]any {
	data := make(map[string]any, len(u.Extra)+32)
	for k, v := range u.Extra {
		data[k] = v
	}
	data["depName"] = u.DepName
	data["depNameSanitized"] = u.DepNameSanitized
	data["packageFile"] = u.PackageFile
	data["manager"] = u.Manager
	data["currentVersion"] = u.CurrentVersion
	data["newVersion"] = u.NewVersion
	data["newMajor"] = u.NewMajor
	data["newMinor"] = u.NewMinor
	data["newPatch"] = u.NewPatch
	data["updateType"] = u.UpdateType
	data["isMajor"] = u.UpdateType == "major"
	data["isMinor"] = u.UpdateType == "minor"
	data["isPatch"] = u.UpdateType == "patch"
	data["isLockfileUpdate"] = u.IsLockfileUpdate
	data["groupName"] = u.GroupName
	data["groupSlug"] = u.GroupSlug
	data["sharedVariableName"] = u.SharedVariableName
	data["separateMajorMinor"] = u.SeparateMajorMinor
	data["separateMultipleMajor"] = u.SeparateMultipleMajor
	data["separateMultipleMinor"] = u.SeparateMultipleMinor
	data["separateMinorPatch"] = u.SeparateMinorPatch
	data["branchPrefix"] = u.BranchPrefix
	data["additionalBranchPrefix"] = u.AdditionalBranchPrefix
	data["branchTopic"] = u.BranchTopic
	data["branchName"] = u.BranchName
	return data
}

// Generator renders branch names.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator returns a Generator logging through logger (slog.Default when nil).
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger}
}

// Generate returns the branch name for update.
func Generate(update Update) (string, error) {
	return NewGenerator(nil).Generate(update)
}

// Generate returns the branch name for update.
func (g *Generator) Generate(update Update) (string, error) {
	u := update.WithDefaults()

	if u.GroupName == "" && u.SharedVariableName != "" {
		g.logger.Debug("Using sharedVariableName as groupName",
			slog.String("shared_variable_name", u.SharedVariableName),
			slog.String("dep_name", u.DepName))
		u.GroupName = u.SharedVariableName
	}

	if u.GroupName != "" {
		var err error
		if u.GroupName, err = compile(u.GroupName, u); err != nil {
			return "", err
		}
		if u.GroupSlug != "" {
			if u.GroupSlug, err = compile(u.GroupSlug, u); err != nil {
				return "", err
			}
		} else {
			u.GroupSlug = u.GroupName
		}
		u.GroupSlug = Slugify(u.GroupSlug)
		u.GroupSlug = separatedGroupSlug(u)

		if u.Group.BranchTopic != "" {
			u.BranchTopic = u.Group.BranchTopic
		}
		if u.Group.BranchName != "" {
			u.BranchName = u.Group.BranchName
		}
	}

	var name string
	if u.HashedBranchLength > 0 {
		hashed, err := g.hashedName(u)
		if err != nil {
			return "", err
		}
		name = hashed
	} else {
		var err error
		if name, err = compileNested(u.BranchName, u); err != nil {
			return "", err
		}
	}

	name = CleanBranchName(name, u.BranchPrefix, u.BranchNameStrict)
	g.logger.Debug("Generated branch name", logfields.Branch(name), slog.String("dep_name", u.DepName))
	return name, nil
}

func separatedGroupSlug(u Update) string {
	switch {
	case u.UpdateType == "major" && u.SeparateMajorMinor && u.SeparateMultipleMajor:
		return "major-" + strconv.Itoa(u.NewMajor) + "-" + u.GroupSlug
	case u.UpdateType == "major" && u.SeparateMajorMinor:
		return "major-" + u.GroupSlug
	case u.UpdateType == "minor" && u.SeparateMultipleMinor:
		return fmt.Sprintf("minor-%d.%d-%s", u.NewMajor, u.NewMinor, u.GroupSlug)
	case u.UpdateType == "patch" && u.SeparateMinorPatch:
		return "patch-" + u.GroupSlug
	default:
		return u.GroupSlug
	}
}

func (g *Generator) hashedName(u Update) (string, error) {
	hashLength := u.HashedBranchLength - len(u.BranchPrefix)
	if hashLength < MinHashLength {
		g.logger.Warn(fmt.Sprintf("hashedBranchLength must allow for at least %d characters hashing in addition to branchPrefix. Using %d character hash instead.", MinHashLength, MinHashLength),
			slog.Int("hashed_branch_length", u.HashedBranchLength))
		hashLength = MinHashLength
	}

	prefix, err := compile(u.AdditionalBranchPrefix, u)
	if err != nil {
		return "", err
	}
	topic, err := compile(u.BranchTopic, u)
	if err != nil {
		return "", err
	}
	input, err := compileTimes(prefix+topic, u, 2)
	if err != nil {
		return "", err
	}

	sum := sha512.Sum512([]byte(input))
	digest := hex.EncodeToString(sum[:])
	return u.BranchPrefix + digest[:min(hashLength, len(digest))], nil
}

// compileNested renders tmpl three times so templates that expand to other
// templates are resolved.
func compileNested(tmpl string, u Update) (string, error) {
	return compileTimes(tmpl, u, 3)
}

func compileTimes(tmpl string, u Update, passes int) (string, error) {
	out := tmpl
	for range passes {
		var err error
		if out, err = compile(out, u); err != nil {
			return "", err
		}
	}
	return out, nil
}

func compile(tmpl string, u Update) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}
	t, err := template.New("branch").Funcs(sprig.TxtFuncMap()).Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryTemplate, "parse branch template").
			WithContext("template", tmpl).
			Build()
	}

	// Fields the update does not define render empty.
	data := u.fields()
	for _, name := range referencedFields(t) {
		if _, ok := data[name]; !ok {
			data[name] = ""
		}
	}

	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", errors.WrapError(err, errors.CategoryTemplate, "render branch template").
			WithContext("template", tmpl).
			Build()
	}
	return b.String(), nil
}

// referencedFields lists the top-level field names used by every template
// associated with t.
func referencedFields(t *template.Template) []string {
	var names []string
	var walk func(n parse.Node)
	walk = func(n parse.Node) {
		switch n := n.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, c := range n.Nodes {
				walk(c)
			}
		case *parse.ActionNode:
			walk(n.Pipe)
		case *parse.IfNode:
			walk(&n.BranchNode)
		case *parse.RangeNode:
			walk(&n.BranchNode)
		case *parse.WithNode:
			walk(&n.BranchNode)
		case *parse.BranchNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.TemplateNode:
			walk(n.Pipe)
		case *parse.PipeNode:
			if n == nil {
				return
			}
			for _, cmd := range n.Cmds {
				walk(cmd)
			}
		case *parse.CommandNode:
			for _, arg := range n.Args {
				walk(arg)
			}
		case *parse.ChainNode:
			walk(n.Node)
		case *parse.FieldNode:
			if len(n.Ident) > 0 {
				names = append(names, n.Ident[0])
			}
		}
	}
	for _, tt := range t.Templates() {
		if tt.Tree != nil {
			walk(tt.Tree.Root)
		}
	}
	return names
}
