package command

import (
	"fmt"
	"net/url"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/objhost-go/internal/cli/output"
)

// ObjectCommand returns the object subcommand group.
func ObjectCommand() *cli.Command {
	return &cli.Command{
		Name:    "object",
		Aliases: []string{"obj"},
		Usage:   "Manage hosted objects",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an object of a registered class",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "class",
						Aliases:  []string{"c"},
						Usage:    "Class ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "owner",
						Usage: "Owner label recorded on the object",
					},
				},
				Action: objectCreate,
			},
			{
				Name:      "get",
				Usage:     "Show one object",
				ArgsUsage: "OBJECT_ID",
				Action:    objectGet,
			},
			{
				Name:   "list",
				Usage:  "List live objects",
				Action: objectList,
			},
			{
				Name:      "renew",
				Usage:     "Extend an object's lease",
				ArgsUsage: "OBJECT_ID",
				Action:    objectRenew,
			},
			{
				Name:      "release",
				Aliases:   []string{"rm"},
				Usage:     "Release an object",
				ArgsUsage: "OBJECT_ID",
				Action:    objectRelease,
			},
		},
	}
}

// objectView mirrors one object as returned by the API.
type objectView struct {
	ID          string         `json:"id"`
	ClassID     string         `json:"class_id"`
	Owner       string         `json:"owner,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	LastRenewed time.Time      `json:"last_renewed"`
	ExpiresAt   time.Time      `json:"expires_at,omitzero"`
	State       map[string]any `json:"state,omitempty"`
}

var objectHeaders = []string{"ID", "CLASS", "OWNER", "CREATED", "EXPIRES"}

func (o *objectView) row() []string {
	return []string{o.ID, o.ClassID, output.Cell(o.Owner), output.Time(o.CreatedAt), output.Time(o.ExpiresAt)}
}

func (o *objectView) Table() *output.Table {
	t := &output.Table{Headers: objectHeaders}
	t.AddRow(o.row()...)
	return t
}

// objectListView mirrors GET /objects.
type objectListView struct {
	Items []objectView `json:"items"`
	Total int          `json:"total"`
}

func (l *objectListView) Table() *output.Table {
	t := &output.Table{Headers: objectHeaders}
	for i := range l.Items {
		t.AddRow(l.Items[i].row()...)
	}
	return t
}

// objectID returns the single OBJECT_ID argument.
func objectID(c *cli.Context) (string, error) {
	if c.NArg() != 1 || c.Args().First() == "" {
		return "", fmt.Errorf("usage: %s OBJECT_ID", c.Command.Name)
	}
	return c.Args().First(), nil
}

func objectCreate(c *cli.Context) error {
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	body := map[string]string{"class_id": c.String("class")}
	if owner := c.String("owner"); owner != "" {
		body["owner"] = owner
	}

	var obj objectView
	if err := mgr.HTTP().Post(ctx, "/objects", body, &obj); err != nil {
		return fmt.Errorf("create object: %w", err)
	}
	return render(c, &obj)
}

func objectGet(c *cli.Context) error {
	id, err := objectID(c)
	if err != nil {
		return err
	}
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var obj objectView
	if err := mgr.HTTP().Get(ctx, "/objects/"+url.PathEscape(id), &obj); err != nil {
		return fmt.Errorf("get object: %w", err)
	}
	return render(c, &obj)
}

func objectList(c *cli.Context) error {
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var list objectListView
	if err := mgr.HTTP().Get(ctx, "/objects", &list); err != nil {
		return fmt.Errorf("list objects: %w", err)
	}
	if err := render(c, &list); err != nil {
		return err
	}
	if isTable(c) {
		fmt.Fprintf(c.App.Writer, "\nTotal: %d\n", list.Total)
	}
	return nil
}

func objectRenew(c *cli.Context) error {
	id, err := objectID(c)
	if err != nil {
		return err
	}
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var obj objectView
	if err := mgr.HTTP().Post(ctx, "/objects/"+url.PathEscape(id)+"/renew", nil, &obj); err != nil {
		return fmt.Errorf("renew object: %w", err)
	}
	return render(c, &obj)
}

func objectRelease(c *cli.Context) error {
	id, err := objectID(c)
	if err != nil {
		return err
	}
	mgr, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := mgr.HTTP().Delete(ctx, "/objects/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("release object: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Object %s released\n", id)
	return nil
}
