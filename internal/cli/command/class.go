package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/objhost-go/internal/cli/output"
)

// ClassCommand returns the class subcommand group.
func ClassCommand() *cli.Command {
	return &cli.Command{
		Name:  "class",
		Usage: "Inspect registered classes",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List registered classes",
				Action: classList,
			},
		},
	}
}

type classView struct {
	ID           string    `json:"id"`
	Description  string    `json:"description,omitempty"`
	PID          int       `json:"pid"`
	RegisteredAt time.Time `json:"registered_at"`
}

type classListView struct {
	Items []classView `json:"items"`
}

func (l *classListView) Table() *output.Table {
	t := &output.Table{Headers: []string{"CLASS", "PID", "REGISTERED", "DESCRIPTION"}}
	for _, cls := range l.Items {
		t.AddRow(cls.ID, output.Cell(cls.PID), output.Time(cls.RegisteredAt), output.Cell(cls.Description))
	}
	return t
}

func classList(c *cli.Context) error {
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var list classListView
	if err := mgr.HTTP().Get(ctx, "/classes", &list); err != nil {
		return fmt.Errorf("list classes: %w", err)
	}
	return render(c, &list)
}
