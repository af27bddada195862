package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/Beeta/pynotex/internal/model"
	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
)

var chatSessionFields = []string{"id", "notebook_id", "title", "ctime", "mtime"}
var chatMessageFields = []string{"id", "session_id", "role", "content", "source_ids", "ctime"}

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) CreateSession(ctx context.Context, session *model.ChatSession) error {
	data := map[string]interface{}{
		"id":          session.ID,
		"notebook_id": session.NotebookID,
		"title":       session.Title,
		"ctime":       session.Ctime,
		"mtime":       session.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("chat_sessions", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ChatRepo) GetSession(ctx context.Context, notebookID, id string) (*model.ChatSession, error) {
	where := map[string]interface{}{
		"id":          id,
		"notebook_id": notebookID,
	}
	sqlStr, args, err := builder.BuildSelect("chat_sessions", where, chatSessionFields)
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
	var session model.ChatSession
	if err := rows.Scan(&session.ID, &session.NotebookID, &session.Title, &session.Ctime, &session.Mtime); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *ChatRepo) ListSessions(ctx context.Context, notebookID string) ([]model.ChatSession, error) {
	where := map[string]interface{}{
		"notebook_id": notebookID,
		"_orderby":    "mtime desc",
	}
	sqlStr, args, err := builder.BuildSelect("chat_sessions", where, chatSessionFields)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []model.ChatSession
	for rows.Next() {
		var session model.ChatSession
		if err := rows.Scan(&session.ID, &session.NotebookID, &session.Title, &session.Ctime, &session.Mtime); err != nil {
			return nil, err
		}
		list = append(list, session)
	}
	return list, rows.Err()
}

func (r *ChatRepo) UpdateSessionTitle(ctx context.Context, notebookID, id, title string, mtime int64) error {
	where := map[string]interface{}{
		"id":          id,
		"notebook_id": notebookID,
	}
	update := map[string]interface{}{
		"title": title,
		"mtime": mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("chat_sessions", where, update)
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

func (r *ChatRepo) DeleteSession(ctx context.Context, notebookID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sqlStr, args, err := builder.BuildDelete("chat_sessions", map[string]interface{}{
		"id":          id,
		"notebook_id": notebookID,
	})
	if err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, sqlStr, args...)
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

	sqlStr, args, err = builder.BuildDelete("chat_messages", map[string]interface{}{
		"session_id": id,
	})
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ChatRepo) DeleteByNotebook(ctx context.Context, notebookID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sqlStr, args, err := builder.BuildSelect("chat_sessions", map[string]interface{}{
		"notebook_id": notebookID,
	}, []string{"id"})
	if err != nil {
		return err
	}
	rows, err := tx.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return tx.Commit()
	}

	sqlStr, args, err = builder.BuildDelete("chat_messages", map[string]interface{}{"session_id in": ids})
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	sqlStr, args, err = builder.BuildDelete("chat_sessions", map[string]interface{}{"notebook_id": notebookID})
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ChatRepo) ListMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	where := map[string]interface{}{
		"session_id": sessionID,
		"_orderby":   "seq asc",
	}
	sqlStr, args, err := builder.BuildSelect("chat_messages", where, chatMessageFields)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []model.ChatMessage
	for rows.Next() {
		var msg model.ChatMessage
		var sourceIDs string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &sourceIDs, &msg.Ctime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(sourceIDs), &msg.SourceIDs); err != nil {
			return nil, err
		}
		list = append(list, msg)
	}
	return list, rows.Err()
}

// AppendTurn persists the user question and the assistant answer in one
// transaction, so the history never holds a question without its answer.
func (r *ChatRepo) AppendTurn(ctx context.Context, sessionID string, question, answer model.ChatMessage, mtime int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	row := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), -1) + 1 FROM chat_messages WHERE session_id = ?", sessionID)
	if err := row.Scan(&next); err != nil {
		return err
	}

	for i, msg := range []model.ChatMessage{question, answer} {
		sourceIDs, err := json.Marshal(msg.SourceIDs)
		if err != nil {
			return err
		}
		data := map[string]interface{}{
			"id":         msg.ID,
			"session_id": sessionID,
			"role":       msg.Role,
			"content":    msg.Content,
			"source_ids": string(sourceIDs),
			"seq":        next + i,
			"ctime":      msg.Ctime,
		}
		sqlStr, args, err := builder.BuildInsert("chat_messages", []map[string]interface{}{data})
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}

	sqlStr, args, err := builder.BuildUpdate("chat_sessions",
		map[string]interface{}{"id": sessionID},
		map[string]interface{}{"mtime": mtime})
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	return tx.Commit()
}
