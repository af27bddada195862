package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/Beeta/pynotex/internal/model"
	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
)

var sourceFields = []string{"id", "notebook_id", "name", "type", "content", "file_name", "file_size", "chunk_count", "ctime"}

type SourceRepo struct {
	db *sql.DB
}

func NewSourceRepo(db *sql.DB) *SourceRepo {
	return &SourceRepo{db: db}
}

func (r *SourceRepo) Create(ctx context.Context, src *model.Source) error {
	data := map[string]interface{}{
		"id":          src.ID,
		"notebook_id": src.NotebookID,
		"name":        src.Name,
		"type":        src.Type,
		"content":     src.Content,
		"file_name":   src.FileName,
		"file_size":   src.FileSize,
		"chunk_count": src.ChunkCount,
		"ctime":       src.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("sources", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SourceRepo) UpdateChunkCount(ctx context.Context, id string, count int) error {
	where := map[string]interface{}{
		"id": id,
	}
	update := map[string]interface{}{
		"chunk_count": count,
	}
	sqlStr, args, err := builder.BuildUpdate("sources", where, update)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SourceRepo) Delete(ctx context.Context, notebookID, id string) error {
	where := map[string]interface{}{
		"id":          id,
		"notebook_id": notebookID,
	}
	sqlStr, args, err := builder.BuildDelete("sources", where)
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

func (r *SourceRepo) DeleteByNotebook(ctx context.Context, notebookID string) error {
	where := map[string]interface{}{
		"notebook_id": notebookID,
	}
	sqlStr, args, err := builder.BuildDelete("sources", where)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SourceRepo) GetByID(ctx context.Context, notebookID, id string) (*model.Source, error) {
	where := map[string]interface{}{
		"id":          id,
		"notebook_id": notebookID,
	}
	sqlStr, args, err := builder.BuildSelect("sources", where, sourceFields)
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
	var src model.Source
	if err := scanSource(rows, &src); err != nil {
		return nil, err
	}
	return &src, nil
}

// ListByNotebook returns sources ordered by creation time. The order is
// what the index rebuild walks, so it must be stable.
func (r *SourceRepo) ListByNotebook(ctx context.Context, notebookID string) ([]model.Source, error) {
	where := map[string]interface{}{
		"notebook_id": notebookID,
		"_orderby":    "ctime asc, id asc",
	}
	sqlStr, args, err := builder.BuildSelect("sources", where, sourceFields)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []model.Source
	for rows.Next() {
		var src model.Source
		if err := scanSource(rows, &src); err != nil {
			return nil, err
		}
		list = append(list, src)
	}
	return list, rows.Err()
}

func scanSource(rows *sql.Rows, src *model.Source) error {
	return rows.Scan(&src.ID, &src.NotebookID, &src.Name, &src.Type, &src.Content,
		&src.FileName, &src.FileSize, &src.ChunkCount, &src.Ctime)
}
