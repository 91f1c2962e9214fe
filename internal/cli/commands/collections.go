package commands

import (
	"SchemaDesk/internal/config"
	"context"
	"fmt"
)

type collectionsCmd struct{}

func (collectionsCmd) Name() string        { return "collections" }
func (collectionsCmd) Description() string { return "List collections with item counts" }
func (collectionsCmd) Usage() string {
	return "collections [-page N] [-limit N] [-sort f] [-desc] [-f k=v]"
}

func (collectionsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	var o listOptions
	fs := newListFlags("collections", &o)
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return ErrUsage
	}
	s, err := loggedIn(ctx, cfg)
	if err != nil {
		return err
	}
	p, err := fetchPage(ctx, s.Client, "/api/collections", &o)
	if err != nil {
		return err
	}
	if len(p.Items) == 0 {
		fmt.Fprintln(Out, "No collections")
		printFooter(p)
		return nil
	}

	tw := newTable()
	fmt.Fprintln(tw, "ID\tNAME\tITEMS\tCREATED")
	for _, row := range p.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", cell(row["id"]), cell(row["name"]), cell(row["itemsCount"]), cell(row["createdAt"]))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printFooter(p)
	return nil
}

func init() { RegisterCmd(collectionsCmd{}) }
