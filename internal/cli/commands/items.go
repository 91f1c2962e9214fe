package commands

import (
	"SchemaDesk/internal/config"
	"context"
	"fmt"
	"net/url"
	"strings"
)

// maxColumns - сколько полей схемы выводить в таблице.
const maxColumns = 4

type itemsCmd struct{}

func (itemsCmd) Name() string        { return "items" }
func (itemsCmd) Description() string { return "List items of a collection" }
func (itemsCmd) Usage() string {
	return "items <collection-id> [-page N] [-limit N] [-sort f] [-desc] [-f k=v]"
}

func (itemsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		return ErrUsage
	}
	cid := args[0]
	var o listOptions
	fs := newListFlags("items", &o)
	if err := fs.Parse(args[1:]); err != nil || fs.NArg() != 0 {
		return ErrUsage
	}
	s, err := loggedIn(ctx, cfg)
	if err != nil {
		return err
	}
	p, err := fetchPage(ctx, s.Client, itemsPath(cid), &o)
	if err != nil {
		return err
	}
	printItems(p)
	return nil
}

func itemsPath(cid string) string {
	return "/api/collections/" + url.PathEscape(cid) + "/items"
}

func printItems(p *listPage) {
	if len(p.Items) == 0 {
		fmt.Fprintln(Out, "No items")
		printFooter(p)
		return
	}
	var cols []string
	if p.Collection != nil {
		for _, f := range p.Collection.Fields {
			if len(cols) == maxColumns {
				break
			}
			cols = append(cols, f.Name)
		}
	}

	tw := newTable()
	header := append([]string{"ID"}, upper(cols)...)
	fmt.Fprintln(tw, strings.Join(append(header, "CREATED"), "\t"))
	for _, row := range p.Items {
		line := []string{cell(row["id"])}
		for _, c := range cols {
			line = append(line, cell(row[c]))
		}
		fmt.Fprintln(tw, strings.Join(append(line, cell(row["createdAt"])), "\t"))
	}
	_ = tw.Flush()
	printFooter(p)
}

func upper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}

type deleteItemsCmd struct{}

func (deleteItemsCmd) Name() string        { return "delete-items" }
func (deleteItemsCmd) Description() string { return "Delete items of a page: all of them or the given ids" }
func (deleteItemsCmd) Usage() string {
	return "delete-items <collection-id> [-page N] [-limit N] (all | <id>...)"
}

func (deleteItemsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		return ErrUsage
	}
	cid := args[0]
	var o listOptions
	fs := newListFlags("delete-items", &o)
	if err := fs.Parse(args[1:]); err != nil || fs.NArg() == 0 {
		return ErrUsage
	}
	targets := fs.Args()

	s, err := loggedIn(ctx, cfg)
	if err != nil {
		return err
	}
	base := "/api/collections/" + url.PathEscape(cid)
	// выбор живёт в серверном представлении страницы, поэтому сначала грузим её
	if _, err := fetchPage(ctx, s.Client, base+"/items", &o); err != nil {
		return err
	}
	if len(targets) == 1 && strings.EqualFold(targets[0], "all") {
		if _, err := s.Client.PostJSON(ctx, base+"/selection/all", nil, nil); err != nil {
			return err
		}
	} else {
		for _, id := range targets {
			if _, err := s.Client.PostJSON(ctx, base+"/selection/"+url.PathEscape(id), nil, nil); err != nil {
				return err
			}
		}
	}

	var res struct {
		Deleted int       `json:"deleted"`
		Page    *listPage `json:"page"`
	}
	if err := s.Client.DeleteJSON(ctx, base+"/items", &res); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Deleted %d item(s)\n", res.Deleted)
	if res.Page != nil {
		printFooter(res.Page)
	}
	return nil
}

func init() {
	RegisterCmd(itemsCmd{})
	RegisterCmd(deleteItemsCmd{})
}
