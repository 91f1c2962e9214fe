package listing

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ItemsCountKey - поле строки дашборда с числом элементов коллекции.
const ItemsCountKey = "itemsCount"

// countConcurrency ограничивает число одновременных count-запросов.
const countConcurrency = 16

// Counter считает документы контейнера.
type Counter interface {
	Count(ctx context.Context, container string) (int64, error)
}

// ItemsCountDecorator для каждой коллекции на странице параллельно считает
// её элементы. Если упал хотя бы один подсчёт, страница не загружается.
func ItemsCountDecorator(c Counter) Decorator {
	return func(ctx context.Context, rows []Row) error {
		counts := make([]int64, len(rows))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(countConcurrency)
		for i := range rows {
			i := i
			g.Go(func() error {
				n, err := c.Count(gctx, rows[i].ID)
				if err != nil {
					return fmt.Errorf("count items of %s: %w", rows[i].ID, err)
				}
				counts[i] = n
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for i := range rows {
			if rows[i].Values == nil {
				rows[i].Values = map[string]any{}
			}
			rows[i].Values[ItemsCountKey] = counts[i]
		}
		return nil
	}
}
