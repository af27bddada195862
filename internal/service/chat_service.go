package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Beeta/pynotex/internal/ai"
	"github.com/Beeta/pynotex/internal/index"
	"github.com/Beeta/pynotex/internal/model"
	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
	"github.com/Beeta/pynotex/internal/pkg/ids"
	"github.com/Beeta/pynotex/internal/pkg/timeutil"
	"github.com/Beeta/pynotex/internal/prompt"
	"github.com/Beeta/pynotex/internal/repo"
	"github.com/Beeta/pynotex/internal/retriever"
)

const sessionTitleRunes = 60

type ChatService struct {
	notebooks *repo.NotebookRepo
	chats     *repo.ChatRepo
	indexes   *index.Registry
	retriever *retriever.Retriever
	assembler *prompt.Assembler
	gen       ai.IGenerator
	topK      int

	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewChatService(notebooks *repo.NotebookRepo, chats *repo.ChatRepo, indexes *index.Registry, ret *retriever.Retriever, assembler *prompt.Assembler, gen ai.IGenerator, topK int) *ChatService {
	if topK <= 0 {
		topK = 5
	}
	return &ChatService{
		notebooks: notebooks,
		chats:     chats,
		indexes:   indexes,
		retriever: ret,
		assembler: assembler,
		gen:       gen,
		topK:      topK,
		locks:     map[string]chan struct{}{},
	}
}

func (s *ChatService) CreateSession(ctx context.Context, notebookID, title string) (*model.ChatSession, error) {
	if _, err := s.notebooks.GetByID(ctx, notebookID); err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	session := &model.ChatSession{
		ID:         ids.New(),
		NotebookID: notebookID,
		Title:      strings.TrimSpace(title),
		Ctime:      now,
		Mtime:      now,
	}
	if err := s.chats.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) ListSessions(ctx context.Context, notebookID string) ([]model.ChatSession, error) {
	if _, err := s.notebooks.GetByID(ctx, notebookID); err != nil {
		return nil, err
	}
	return s.chats.ListSessions(ctx, notebookID)
}

func (s *ChatService) GetSession(ctx context.Context, notebookID, sessionID string) (*model.ChatSession, error) {
	session, err := s.chats.GetSession(ctx, notebookID, sessionID)
	if err != nil {
		return nil, err
	}
	session.Messages, err = s.chats.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) DeleteSession(ctx context.Context, notebookID, sessionID string) error {
	return s.chats.DeleteSession(ctx, notebookID, sessionID)
}

// Ask runs one chat turn: retrieve, prompt, generate, persist. Turns on
// the same session queue behind each other, so each one sees the history
// the previous turn committed; a caller that gives up while queued gets
// ErrSessionBusy and the session is untouched. A provider failure likewise
// leaves the history exactly as it was.
func (s *ChatService) Ask(ctx context.Context, notebookID, sessionID, question string) (*model.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, appErr.ErrInvalid
	}
	lock := s.sessionLock(sessionID)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", appErr.ErrSessionBusy, ctx.Err())
	}
	defer func() { <-lock }()

	nb, err := s.notebooks.GetByID(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	session, err := s.chats.GetSession(ctx, notebookID, sessionID)
	if err != nil {
		return nil, err
	}
	history, err := s.chats.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	hits := s.retriever.Retrieve(question, s.indexes.Get(notebookID).Chunks(), s.topK)
	answer, err := s.gen.Generate(ctx, s.assembler.Chat(*nb, hits, history, question))
	if err != nil {
		logutil.GetLogger(ctx).Error("chat generation failed",
			zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	now := timeutil.NowUnix()
	userMsg := model.ChatMessage{
		ID:        ids.New(),
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   question,
		Ctime:     now,
	}
	assistantMsg := model.ChatMessage{
		ID:        ids.New(),
		SessionID: sessionID,
		Role:      model.RoleAssistant,
		Content:   answer,
		SourceIDs: hitSourceIDs(hits),
		Ctime:     now,
	}
	if err := s.chats.AppendTurn(ctx, sessionID, userMsg, assistantMsg, now); err != nil {
		return nil, err
	}
	if session.Title == "" {
		title := question
		if runes := []rune(title); len(runes) > sessionTitleRunes {
			title = string(runes[:sessionTitleRunes])
		}
		if err := s.chats.UpdateSessionTitle(ctx, notebookID, sessionID, title, now); err != nil {
			logutil.GetLogger(ctx).Warn("update session title failed", zap.Error(err))
		}
	}
	return &assistantMsg, nil
}

// sessionLock hands out the one-slot channel serializing a session's turns.
func (s *ChatService) sessionLock(sessionID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = make(chan struct{}, 1)
		s.locks[sessionID] = lock
	}
	return lock
}

func hitSourceIDs(hits []model.ScoredChunk) []string {
	seen := map[string]bool{}
	var out []string
	for _, hit := range hits {
		if seen[hit.Chunk.SourceID] {
			continue
		}
		seen[hit.Chunk.SourceID] = true
		out = append(out, hit.Chunk.SourceID)
	}
	return out
}
