package commands

import (
	"SchemaDesk/internal/cli/api"
	"SchemaDesk/internal/model"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// filterFlags - повторяемый флаг -f field=value.
type filterFlags map[string]string

func (f filterFlags) String() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (f filterFlags) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return errors.New("filter must be field=value")
	}
	f[strings.TrimSpace(k)] = v
	return nil
}

// listOptions - параметры просмотра списка, общие для коллекций и элементов.
type listOptions struct {
	page    int
	limit   int
	sort    string
	desc    bool
	filters filterFlags
}

func newListFlags(name string, o *listOptions) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(Out)
	o.filters = filterFlags{}
	fs.IntVar(&o.page, "page", 1, "page number")
	fs.IntVar(&o.limit, "limit", 0, "items per page (5, 10, 25, 50, 100, 500)")
	fs.StringVar(&o.sort, "sort", "", "sort field")
	fs.BoolVar(&o.desc, "desc", false, "sort descending")
	fs.Var(o.filters, "f", "filter field=value (repeatable)")
	return fs
}

func (o *listOptions) query(page int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if o.limit > 0 {
		q.Set("limit", strconv.Itoa(o.limit))
	}
	if o.sort != "" {
		q.Set("sort", o.sort)
		if o.desc {
			q.Set("dir", "desc")
		} else {
			q.Set("dir", "asc")
		}
	}
	for k, v := range o.filters {
		q.Set("filter."+k, v)
	}
	return q
}

// listPage - ответ сервера со страницей списка.
type listPage struct {
	Items       []map[string]any  `json:"items"`
	TotalItems  int64             `json:"totalItems"`
	HasMore     bool              `json:"hasMore"`
	CurrentPage int               `json:"currentPage"`
	LastPage    int               `json:"lastPage"`
	Selected    []string          `json:"selected"`
	Collection  *model.Collection `json:"collection,omitempty"`
}

// fetchPage загружает страницы 1..o.page подряд: сервер отдаёт страницу N
// только после N-1 в том же состоянии сортировки и фильтров.
func fetchPage(ctx context.Context, c *api.Client, path string, o *listOptions) (*listPage, error) {
	if o.page < 1 {
		return nil, ErrUsage
	}
	var p listPage
	for n := 1; n <= o.page; n++ {
		p = listPage{}
		if err := c.GetJSON(ctx, path+"?"+o.query(n).Encode(), &p); err != nil {
			return nil, err
		}
		if n < o.page && !p.HasMore {
			return nil, fmt.Errorf("page %d out of range (last page %d)", o.page, p.LastPage)
		}
	}
	return &p, nil
}

func printFooter(p *listPage) {
	fmt.Fprintf(Out, "page %d/%d, %d total\n", p.CurrentPage, p.LastPage, p.TotalItems)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(Out, 0, 4, 2, ' ', 0)
}

// maxCellRunes - ширина ячейки таблицы в символах.
const maxCellRunes = 40

// cell превращает значение строки в короткий текст для таблицы.
func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return t.Local().Format("2006-01-02 15:04")
		}
		if r := []rune(x); len(r) > maxCellRunes {
			return string(r[:maxCellRunes-3]) + "..."
		}
		return x
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = cell(e)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}
