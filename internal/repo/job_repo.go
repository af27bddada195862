package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/Beeta/pynotex/internal/model"
	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
)

var jobFields = []string{"id", "notebook_id", "kind", "source_ids", "status", "output", "fail_reason", "image_error", "assets", "ctime", "mtime"}

type JobRepo struct {
	db *sql.DB
}

func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{db: db}
}

func (r *JobRepo) Create(ctx context.Context, job *model.TransformationJob) error {
	sourceIDs, err := json.Marshal(job.SourceIDs)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":          job.ID,
		"notebook_id": job.NotebookID,
		"kind":        job.Kind,
		"source_ids":  string(sourceIDs),
		"status":      job.Status,
		"assets":      "[]",
		"ctime":       job.Ctime,
		"mtime":       job.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("transformation_jobs", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Save writes the job's current status and result fields. Guarding on the
// previous status keeps a terminal row terminal even under a racing writer.
func (r *JobRepo) Save(ctx context.Context, job *model.TransformationJob, prevStatus string) error {
	assets, err := json.Marshal(job.Assets)
	if err != nil {
		return err
	}
	where := map[string]interface{}{
		"id":     job.ID,
		"status": prevStatus,
	}
	update := map[string]interface{}{
		"status":      job.Status,
		"output":      job.Output,
		"fail_reason": job.FailReason,
		"image_error": job.ImageError,
		"assets":      string(assets),
		"mtime":       job.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("transformation_jobs", where, update)
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
		return appErr.ErrConflict
	}
	return nil
}

func (r *JobRepo) GetByID(ctx context.Context, notebookID, id string) (*model.TransformationJob, error) {
	where := map[string]interface{}{
		"id":          id,
		"notebook_id": notebookID,
	}
	sqlStr, args, err := builder.BuildSelect("transformation_jobs", where, jobFields)
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
	var job model.TransformationJob
	if err := scanJob(rows, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepo) ListByNotebook(ctx context.Context, notebookID string) ([]model.TransformationJob, error) {
	where := map[string]interface{}{
		"notebook_id": notebookID,
		"_orderby":    "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("transformation_jobs", where, jobFields)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []model.TransformationJob
	for rows.Next() {
		var job model.TransformationJob
		if err := scanJob(rows, &job); err != nil {
			return nil, err
		}
		list = append(list, job)
	}
	return list, rows.Err()
}

func (r *JobRepo) DeleteByNotebook(ctx context.Context, notebookID string) error {
	where := map[string]interface{}{
		"notebook_id": notebookID,
	}
	sqlStr, args, err := builder.BuildDelete("transformation_jobs", where)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// DeleteTerminalBefore removes done and failed jobs last touched before the
// given time. Running and pending rows are never swept.
func (r *JobRepo) DeleteTerminalBefore(ctx context.Context, mtime int64) (int64, error) {
	where := map[string]interface{}{
		"status in": []interface{}{model.JobStatusDone, model.JobStatusFailed},
		"mtime <":   mtime,
	}
	sqlStr, args, err := builder.BuildDelete("transformation_jobs", where)
	if err != nil {
		return 0, err
	}
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanJob(rows *sql.Rows, job *model.TransformationJob) error {
	var sourceIDs, assets string
	if err := rows.Scan(&job.ID, &job.NotebookID, &job.Kind, &sourceIDs, &job.Status,
		&job.Output, &job.FailReason, &job.ImageError, &assets, &job.Ctime, &job.Mtime); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(sourceIDs), &job.SourceIDs); err != nil {
		return err
	}
	return json.Unmarshal([]byte(assets), &job.Assets)
}
