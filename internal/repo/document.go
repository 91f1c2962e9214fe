package repo

import (
	"SchemaDesk/internal/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Служебные ключи сортировки. Остальные ключи - имена полей в Data.
const (
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
)

// ErrInvalidSortField - ключ сортировки нельзя подставить в запрос.
var ErrInvalidSortField = errors.New("invalid sort field")

// Cursor - позиция в упорядоченной выборке: значение ключа сортировки
// и id последнего документа страницы.
type Cursor struct {
	ID    string
	Value any
}

// PageQuery - запрос одной страницы контейнера.
type PageQuery struct {
	Container string
	SortField string
	Desc      bool
	Limit     int
	// After - документ, после которого начинается страница; nil для первой.
	After *Cursor
}

// DocumentRepository - доступ к schema-less документам.
type DocumentRepository interface {
	// Get возвращает gorm.ErrRecordNotFound, если документа нет.
	Get(ctx context.Context, container, id string) (*model.Document, error)
	Create(ctx context.Context, doc *model.Document) error
	// Merge накладывает fields поверх Data и ставит updated_at.
	Merge(ctx context.Context, container, id string, fields map[string]any, updatedAt time.Time) error
	// Replace заменяет Data целиком и ставит updated_at.
	Replace(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, container, id string) error
	// DeleteBatch удаляет документы одной транзакцией.
	DeleteBatch(ctx context.Context, container string, ids []string) (int64, error)
	Query(ctx context.Context, q PageQuery) ([]model.Document, error)
	Count(ctx context.Context, container string) (int64, error)
	ListIDs(ctx context.Context, container string, limit int) ([]string, error)
}

type documentRepo struct {
	db *gorm.DB
}

// NewDocumentRepository создаёт реализацию DocumentRepository поверх gorm.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Get(ctx context.Context, container, id string) (*model.Document, error) {
	var d model.Document
	err := r.db.WithContext(ctx).
		Where("container = ? AND id = ?", container, id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *documentRepo) Create(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepo) Merge(ctx context.Context, container, id string, fields map[string]any, updatedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d model.Document
		if err := tx.Where("container = ? AND id = ?", container, id).First(&d).Error; err != nil {
			return err
		}
		data, err := d.Fields()
		if err != nil {
			return err
		}
		for k, v := range fields {
			data[k] = v
		}
		if err := d.SetFields(data); err != nil {
			return err
		}
		at := updatedAt.UTC()
		return tx.Model(&model.Document{}).
			Where("container = ? AND id = ?", container, id).
			Updates(map[string]any{"data": d.Data, "updated_at": at}).Error
	})
}

func (r *documentRepo) Replace(ctx context.Context, doc *model.Document) error {
	tx := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("container = ? AND id = ?", doc.Container, doc.ID).
		Updates(map[string]any{"data": doc.Data, "updated_at": doc.UpdatedAt})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *documentRepo) Delete(ctx context.Context, container, id string) error {
	return r.db.WithContext(ctx).
		Where("container = ? AND id = ?", container, id).
		Delete(&model.Document{}).Error
}

func (r *documentRepo) DeleteBatch(ctx context.Context, container string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("container = ? AND id IN ?", container, ids).Delete(&model.Document{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

func (r *documentRepo) Query(ctx context.Context, q PageQuery) ([]model.Document, error) {
	tx, err := r.pageQuery(r.db.WithContext(ctx), q)
	if err != nil {
		return nil, err
	}
	var docs []model.Document
	err = tx.Find(&docs).Error
	return docs, err
}

// pageQuery собирает запрос страницы: фильтр по контейнеру, keyset-условие и порядок.
func (r *documentRepo) pageQuery(tx *gorm.DB, q PageQuery) (*gorm.DB, error) {
	pg := isPostgres(r.db)
	expr, ph, err := sortExprFor(pg, q.SortField)
	if err != nil {
		return nil, err
	}
	dir, cmp := "ASC", ">"
	if q.Desc {
		dir, cmp = "DESC", "<"
	}

	tx = tx.Where("container = ?", q.Container)
	if q.After != nil {
		v := cursorArgFor(pg, q.After.Value)
		tx = tx.Where(
			fmt.Sprintf("(%s %s %s OR (%s = %s AND id %s ?))", expr, cmp, ph, expr, ph, cmp),
			v, v, q.After.ID,
		)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx.Order(expr + " " + dir).Order("id " + dir), nil
}

func (r *documentRepo) Count(ctx context.Context, container string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Document{}).Where("container = ?", container).Count(&n).Error
	return n, err
}

func (r *documentRepo) ListIDs(ctx context.Context, container string, limit int) ([]string, error) {
	var ids []string
	tx := r.db.WithContext(ctx).Model(&model.Document{}).Where("container = ?", container).Order("id")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	err := tx.Pluck("id", &ids).Error
	return ids, err
}

// sortExprFor возвращает SQL-выражение ключа сортировки и плейсхолдер
// для значения курсора. Отсутствующее поле сортируется как пустая строка.
// В Postgres сравниваются значения jsonb, поэтому числа идут по величине, а не как текст.
func sortExprFor(pg bool, field string) (expr, placeholder string, err error) {
	switch field {
	case "", SortCreatedAt:
		return "created_at", "?", nil
	case SortUpdatedAt:
		return "COALESCE(updated_at, created_at)", "?", nil
	}
	// имя поля подставляется в SQL, поэтому пропускаем только безопасные имена
	if !model.ValidFieldName(field) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortField, field)
	}
	if pg {
		return fmt.Sprintf(`COALESCE(data->'%s', '""'::jsonb)`, field), "?::jsonb", nil
	}
	return fmt.Sprintf(`COALESCE(json_extract(data, '$."%s"'), '')`, field), "?", nil
}

// cursorArgFor приводит значение курсора к виду, в котором его вернёт sortExprFor.
func cursorArgFor(pg bool, v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	if pg {
		return jsonbLiteral(v)
	}
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		if x {
			return 1
		}
		return 0
	case []any, map[string]any:
		b, _ := json.Marshal(x)
		return string(b)
	}
	return v
}

// jsonbLiteral - текст jsonb-значения; отсутствие поля совпадает с '""'.
func jsonbLiteral(v any) string {
	if v == nil {
		return `""`
	}
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}

// NewCursor строит курсор по документу для ключа сортировки sortField.
func NewCursor(doc *model.Document, sortField string) (Cursor, error) {
	c := Cursor{ID: doc.ID}
	switch sortField {
	case "", SortCreatedAt:
		c.Value = doc.CreatedAt.UTC()
	case SortUpdatedAt:
		if doc.UpdatedAt != nil {
			c.Value = doc.UpdatedAt.UTC()
		} else {
			c.Value = doc.CreatedAt.UTC()
		}
	default:
		fields, err := doc.Fields()
		if err != nil {
			return Cursor{}, err
		}
		c.Value = fields[sortField]
	}
	return c, nil
}
