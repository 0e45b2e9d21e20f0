package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	cliconfig "github.com/yndnr/objhost-go/internal/cli/config"
	"github.com/yndnr/objhost-go/internal/cli/output"
)

// ProfileCommand returns the profile subcommand group.
func ProfileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Manage saved connection profiles",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List saved profiles",
				Action: profileList,
			},
			{
				Name:      "save",
				Usage:     "Save the current global flags as a profile",
				ArgsUsage: "NAME",
				Action:    profileSave,
			},
			{
				Name:      "use",
				Usage:     "Make a profile the default",
				ArgsUsage: "NAME",
				Action:    profileUse,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a profile",
				ArgsUsage: "NAME",
				Action:    profileDelete,
			},
		},
	}
}

type profileListView struct {
	Current  string                       `json:"current,omitempty"`
	Profiles map[string]cliconfig.Profile `json:"profiles"`
	names    []string
}

func (v *profileListView) Table() *output.Table {
	t := &output.Table{Headers: []string{"CURRENT", "NAME", "SERVER", "SOCKET", "OUTPUT"}}
	for _, name := range v.names {
		p := v.Profiles[name]
		mark := ""
		if name == v.Current {
			mark = "*"
		}
		t.AddRow(mark, name, output.Cell(p.Server), output.Cell(p.Socket), output.Cell(p.Output))
	}
	return t
}

// profileName returns the single NAME argument.
func profileName(c *cli.Context) (string, error) {
	if c.NArg() != 1 || c.Args().First() == "" {
		return "", fmt.Errorf("usage: profile %s NAME", c.Command.Name)
	}
	return c.Args().First(), nil
}

func profileList(c *cli.Context) error {
	cfg, err := cliconfig.Load(ParseGlobalFlags(c).Config)
	if err != nil {
		return err
	}

	// Tokens stay out of the listing.
	profiles := make(map[string]cliconfig.Profile, len(cfg.Profiles))
	for name, p := range cfg.Profiles {
		p.Token = ""
		profiles[name] = p
	}
	return render(c, &profileListView{
		Current:  cfg.CurrentProfile,
		Profiles: profiles,
		names:    cfg.ProfileNames(),
	})
}

func profileSave(c *cli.Context) error {
	name, err := profileName(c)
	if err != nil {
		return err
	}
	flags := ParseGlobalFlags(c)
	cfg, err := cliconfig.Load(flags.Config)
	if err != nil {
		return err
	}

	cfg.Profiles[name] = cliconfig.Profile{
		Server: flags.Server,
		Socket: flags.Socket,
		Token:  flags.Token,
		CAFile: flags.CAFile,
		Output: flags.Output,
	}
	if err := cliconfig.Save(cfg, flags.Config); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Profile %q saved to %s\n", name, flags.Config)
	return nil
}

func profileUse(c *cli.Context) error {
	name, err := profileName(c)
	if err != nil {
		return err
	}
	flags := ParseGlobalFlags(c)
	cfg, err := cliconfig.Load(flags.Config)
	if err != nil {
		return err
	}
	if _, ok := cfg.Profiles[name]; !ok {
		return fmt.Errorf("%w: %s", cliconfig.ErrUnknownProfile, name)
	}

	cfg.CurrentProfile = name
	if err := cliconfig.Save(cfg, flags.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Now using profile %q\n", name)
	return nil
}

func profileDelete(c *cli.Context) error {
	name, err := profileName(c)
	if err != nil {
		return err
	}
	flags := ParseGlobalFlags(c)
	cfg, err := cliconfig.Load(flags.Config)
	if err != nil {
		return err
	}
	if _, ok := cfg.Profiles[name]; !ok {
		return fmt.Errorf("%w: %s", cliconfig.ErrUnknownProfile, name)
	}

	delete(cfg.Profiles, name)
	if cfg.CurrentProfile == name {
		cfg.CurrentProfile = ""
	}
	if err := cliconfig.Save(cfg, flags.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Profile %q deleted\n", name)
	return nil
}
