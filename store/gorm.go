package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCollection is a Collection backed by one table through gorm.
type GormCollection[T any] struct {
	db     *gorm.DB
	schema Schema
}

func NewGormCollection[T any](db *gorm.DB, schema Schema) *GormCollection[T] {
	return &GormCollection[T]{db: db, schema: schema}
}

func (g *GormCollection[T]) Name() string { return g.schema.Name }

func (g *GormCollection[T]) Select(ctx context.Context, q Query) (Result[T], error) {
	var out Result[T]

	tx := g.db.WithContext(ctx).Model(new(T))

	if term := strings.TrimSpace(q.Search); term != "" {
		cols, err := g.schema.searchColumns(q.Fields)
		if err != nil {
			return out, err
		}
		pattern := "%" + escapeLike(term) + "%"
		conds := make([]string, 0, len(cols))
		args := make([]any, 0, len(cols))
		for _, col := range cols {
			conds = append(conds, col+" ILIKE ?")
			args = append(args, pattern)
		}
		tx = tx.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	cols, err := g.schema.checkFilters(q.Filters)
	if err != nil {
		return out, err
	}
	for _, col := range cols {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: col}, Value: q.Filters[col]})
	}

	if q.Count {
		var total int64
		if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return out, fmt.Errorf("count %s: %w", g.schema.Name, err)
		}
		out.Total = &total
	}

	if q.OrderBy != "" {
		if err := g.schema.checkOrder(q.OrderBy); err != nil {
			return out, err
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.OrderBy}, Desc: q.Desc})
	}
	if q.From > 0 {
		tx = tx.Offset(q.From)
	}
	if q.To >= q.From {
		tx = tx.Limit(q.To - q.From + 1)
	}

	var rows []T
	if err := tx.Find(&rows).Error; err != nil {
		return out, fmt.Errorf("select %s: %w", g.schema.Name, err)
	}
	if err := decodeRows(g.schema.Name, rows); err != nil {
		return out, err
	}
	out.Rows = rows
	return out, nil
}

func (g *GormCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rec, ErrNotFound
		}
		return rec, fmt.Errorf("get %s: %w", g.schema.Name, err)
	}
	return rec, decodeOne(g.schema.Name, &rec)
}

func (g *GormCollection[T]) Insert(ctx context.Context, rec T) (T, error) {
	if err := g.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return rec, g.writeError("insert", err)
	}
	return rec, nil
}

// Update applies the patch and reads the row back in one transaction. A row
// that no longer decodes is rolled back.
func (g *GormCollection[T]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	var rec T
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(patch) > 0 {
			res := tx.Model(new(T)).Where("id = ?", id).Updates(patch)
			if res.Error != nil {
				return g.writeError("update", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrNotFound
			}
		}
		if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get %s: %w", g.schema.Name, err)
		}
		return decodeOne(g.schema.Name, &rec)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

// writeError maps unique index violations to ErrDuplicate. The pool must be
// opened with TranslateError.
func (g *GormCollection[T]) writeError(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s %s: %w", op, g.schema.Name, ErrDuplicate)
	}
	return fmt.Errorf("%s %s: %w", op, g.schema.Name, err)
}

func (g *GormCollection[T]) Delete(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", g.schema.Name, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormCollection[T]) DeleteWhere(ctx context.Context, filters map[string]any) (int64, error) {
	if len(filters) == 0 {
		return 0, ErrUnsafeDelete
	}
	cols, err := g.schema.checkFilters(filters)
	if err != nil {
		return 0, err
	}
	tx := g.db.WithContext(ctx)
	for _, col := range cols {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: col}, Value: filters[col]})
	}
	res := tx.Delete(new(T))
	if res.Error != nil {
		return 0, fmt.Errorf("delete %s: %w", g.schema.Name, res.Error)
	}
	return res.RowsAffected, nil
}

// escapeLike makes % and _ in user input match literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
