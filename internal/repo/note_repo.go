package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/Beeta/pynotex/internal/model"
	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
)

var noteFields = []string{"id", "notebook_id", "title", "content", "type", "source_ids", "metadata", "ctime"}

type NoteRepo struct {
	db *sql.DB
}

func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

func (r *NoteRepo) Create(ctx context.Context, note *model.Note) error {
	sourceIDs, err := json.Marshal(note.SourceIDs)
	if err != nil {
		return err
	}
	metadata, err := json.Marshal(note.Metadata)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":          note.ID,
		"notebook_id": note.NotebookID,
		"title":       note.Title,
		"content":     note.Content,
		"type":        note.Type,
		"source_ids":  string(sourceIDs),
		"metadata":    string(metadata),
		"ctime":       note.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("notes", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *NoteRepo) Delete(ctx context.Context, notebookID, id string) error {
	where := map[string]interface{}{
		"id":          id,
		"notebook_id": notebookID,
	}
	sqlStr, args, err := builder.BuildDelete("notes", where)
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

func (r *NoteRepo) DeleteByNotebook(ctx context.Context, notebookID string) error {
	where := map[string]interface{}{
		"notebook_id": notebookID,
	}
	sqlStr, args, err := builder.BuildDelete("notes", where)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *NoteRepo) GetByID(ctx context.Context, notebookID, id string) (*model.Note, error) {
	where := map[string]interface{}{
		"id":          id,
		"notebook_id": notebookID,
	}
	sqlStr, args, err := builder.BuildSelect("notes", where, noteFields)
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
	var note model.Note
	if err := scanNote(rows, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *NoteRepo) ListByNotebook(ctx context.Context, notebookID string) ([]model.Note, error) {
	where := map[string]interface{}{
		"notebook_id": notebookID,
		"_orderby":    "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("notes", where, noteFields)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []model.Note
	for rows.Next() {
		var note model.Note
		if err := scanNote(rows, &note); err != nil {
			return nil, err
		}
		list = append(list, note)
	}
	return list, rows.Err()
}

func scanNote(rows *sql.Rows, note *model.Note) error {
	var sourceIDs, metadata string
	if err := rows.Scan(&note.ID, &note.NotebookID, &note.Title, &note.Content,
		&note.Type, &sourceIDs, &metadata, &note.Ctime); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(sourceIDs), &note.SourceIDs); err != nil {
		return err
	}
	return json.Unmarshal([]byte(metadata), &note.Metadata)
}
