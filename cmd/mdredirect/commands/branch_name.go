package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/mdredirect/internal/branchname"
	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
)

// BranchNameCmd implements the 'branch-name' command. Flags override values
// read from --file; the branch section of the configuration fills whatever is
// still unset.
type BranchNameCmd struct {
	File string `short:"f" help:"YAML file describing the update ('-' reads standard input)"`

	DepName        string `name:"dep-name" help:"Dependency name"`
	Manager        string `help:"Package manager"`
	PackageFile    string `name:"package-file" help:"Package file the dependency is declared in"`
	CurrentVersion string `name:"current-version" help:"Current version"`
	NewVersion     string `name:"new-version" help:"New version"`
	NewMajor       *int   `name:"new-major" help:"Major component of the new version"`
	NewMinor       *int   `name:"new-minor" help:"Minor component of the new version"`
	NewPatch       *int   `name:"new-patch" help:"Patch component of the new version"`
	UpdateType     string `name:"update-type" help:"Update type (major, minor, patch, ...)"`
	Lockfile       bool   `help:"The update only touches lock files"`
	GroupName      string `name:"group-name" help:"Group the update belongs to"`
	GroupSlug      string `name:"group-slug" help:"Slug used for the group instead of the name"`

	Prefix       string `help:"Branch prefix (overrides branch.prefix)"`
	Topic        string `help:"Branch topic template (overrides branch.topic)"`
	Template     string `name:"template" help:"Branch name template (overrides branch.name)"`
	HashedLength int    `name:"hashed-length" help:"Generate a hashed branch name of this length"`
	Strict       bool   `help:"Replace special characters after the prefix"`
}

func (c *BranchNameCmd) Run(_ context.Context, g *Global) error {
	update, err := c.load(g.Stdin)
	if err != nil {
		return err
	}
	update = c.override(update)
	update = g.Config.Branch.Apply(update)

	if update.DepName == "" && update.GroupName == "" && update.SharedVariableName == "" {
		return errors.ValidationError("a dependency or group name is required").
			WithContext("flags", "--dep-name, --group-name or --file").
			Build()
	}

	name, err := branchname.NewGenerator(g.Logger).Generate(update)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(g.Stdout, name)
	return err
}

func (c *BranchNameCmd) load(stdin io.Reader) (branchname.Update, error) {
	var update branchname.Update
	if c.File == "" {
		return update, nil
	}

	var (
		data []byte
		err  error
	)
	if c.File == stdinPath {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return update, errors.WrapError(err, errors.CategoryFileSystem, "failed to read update file").
			WithContext("path", c.File).
			Build()
	}
	if err := yaml.Unmarshal(data, &update); err != nil {
		return update, errors.WrapError(err, errors.CategoryValidation, "invalid update file").
			WithContext("path", c.File).
			Build()
	}
	return update, nil
}

func (c *BranchNameCmd) override(u branchname.Update) branchname.Update {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&u.DepName, c.DepName)
	set(&u.Manager, c.Manager)
	set(&u.PackageFile, c.PackageFile)
	set(&u.CurrentVersion, c.CurrentVersion)
	set(&u.NewVersion, c.NewVersion)
	set(&u.UpdateType, c.UpdateType)
	set(&u.GroupName, c.GroupName)
	set(&u.GroupSlug, c.GroupSlug)
	set(&u.BranchPrefix, c.Prefix)
	set(&u.BranchTopic, c.Topic)
	set(&u.BranchName, c.Template)

	if c.NewMajor != nil {
		u.NewMajor = *c.NewMajor
	}
	if c.NewMinor != nil {
		u.NewMinor = *c.NewMinor
	}
	if c.NewPatch != nil {
		u.NewPatch = *c.NewPatch
	}
	if c.HashedLength > 0 {
		u.HashedBranchLength = c.HashedLength
	}
	u.IsLockfileUpdate = u.IsLockfileUpdate || c.Lockfile
	u.BranchNameStrict = u.BranchNameStrict || c.Strict
	return u
}
