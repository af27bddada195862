package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/Beeta/pynotex/internal/model"
	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
)

var notebookFields = []string{"id", "name", "description", "ctime", "mtime"}

type NotebookRepo struct {
	db *sql.DB
}

func NewNotebookRepo(db *sql.DB) *NotebookRepo {
	return &NotebookRepo{db: db}
}

func (r *NotebookRepo) Create(ctx context.Context, nb *model.Notebook) error {
	data := map[string]interface{}{
		"id":          nb.ID,
		"name":        nb.Name,
		"description": nb.Description,
		"ctime":       nb.Ctime,
		"mtime":       nb.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("notebooks", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *NotebookRepo) Update(ctx context.Context, nb *model.Notebook) error {
	where := map[string]interface{}{
		"id": nb.ID,
	}
	update := map[string]interface{}{
		"name":        nb.Name,
		"description": nb.Description,
		"mtime":       nb.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("notebooks", where, update)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *NotebookRepo) Delete(ctx context.Context, id string) error {
	where := map[string]interface{}{
		"id": id,
	}
	sqlStr, args, err := builder.BuildDelete("notebooks", where)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *NotebookRepo) GetByID(ctx context.Context, id string) (*model.Notebook, error) {
	where := map[string]interface{}{
		"id": id,
	}
	sqlStr, args, err := builder.BuildSelect("notebooks", where, notebookFields)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var nb model.Notebook
	if err := rows.Scan(&nb.ID, &nb.Name, &nb.Description, &nb.Ctime, &nb.Mtime); err != nil {
		return nil, err
	}
	return &nb, nil
}

func (r *NotebookRepo) List(ctx context.Context) ([]model.Notebook, error) {
	where := map[string]interface{}{
		"_orderby": "mtime desc",
	}
	sqlStr, args, err := builder.BuildSelect("notebooks", where, notebookFields)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []model.Notebook
	for rows.Next() {
		var nb model.Notebook
		if err := rows.Scan(&nb.ID, &nb.Name, &nb.Description, &nb.Ctime, &nb.Mtime); err != nil {
			return nil, err
		}
		list = append(list, nb)
	}
	return list, rows.Err()
}
