package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/Beeta/pynotex/internal/agent"
	"github.com/Beeta/pynotex/internal/chunker"
	"github.com/Beeta/pynotex/internal/config"
	"github.com/Beeta/pynotex/internal/extractor"
	"github.com/Beeta/pynotex/internal/filestore"
	"github.com/Beeta/pynotex/internal/handler"
	"github.com/Beeta/pynotex/internal/index"
	"github.com/Beeta/pynotex/internal/middleware"
	"github.com/Beeta/pynotex/internal/model"
	"github.com/Beeta/pynotex/internal/pkg/errcode"
	"github.com/Beeta/pynotex/internal/prompt"
	"github.com/Beeta/pynotex/internal/repo"
	"github.com/Beeta/pynotex/internal/retriever"
	"github.com/Beeta/pynotex/internal/service"
)

type staticGen struct {
	answer string
}

func (g staticGen) Generate(ctx context.Context, prompt string) (string, error) {
	return g.answer, nil
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, repo.ApplyMigrations(db))
	t.Cleanup(func() { _ = db.Close() })

	notebookRepo := repo.NewNotebookRepo(db)
	sourceRepo := repo.NewSourceRepo(db)
	noteRepo := repo.NewNoteRepo(db)
	chatRepo := repo.NewChatRepo(db)
	jobRepo := repo.NewJobRepo(db)

	store, err := filestore.New(config.FileStoreConfig{Type: "local", Dir: t.TempDir()})
	require.NoError(t, err)

	indexes := index.NewRegistry(chunker.New(1000, 200))
	assembler := prompt.NewAssembler(0)
	gen := staticGen{answer: "The deadline is March 5."}

	sources := service.NewSourceService(notebookRepo, sourceRepo, extractor.New(), indexes, store, 1<<20)
	ag := agent.New(gen, nil, nil, assembler, agent.Config{})

	cfg := &config.Config{
		Port:      8080,
		Chunk:     config.ChunkConfig{Size: 1000, Overlap: 200},
		Retrieve:  config.RetrieveConfig{TopK: 5},
		Upload:    config.UploadConfig{MaxBytes: 1 << 20},
		Providers: []config.ProviderConfig{{Name: "openai", Model: "gpt-4o-mini"}},
	}
	deps := handler.RouterDeps{
		Notebooks: handler.NewNotebookHandler(service.NewNotebookService(notebookRepo, sourceRepo, noteRepo, chatRepo, jobRepo, indexes)),
		Sources:   handler.NewSourceHandler(sources, cfg.Upload.MaxBytes),
		Notes:     handler.NewNoteHandler(noteRepo),
		Transform: handler.NewTransformHandler(service.NewTransformService(notebookRepo, sourceRepo, noteRepo, jobRepo, sources, ag, 16, time.Minute)),
		Chats:     handler.NewChatHandler(service.NewChatService(notebookRepo, chatRepo, indexes, retriever.NewLexical(), assembler, gen, 5)),
		Files:     handler.NewFileHandler(store),
		System:    handler.NewSystemHandler(cfg),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(middleware.CORS(nil)),
	)
	require.NoError(t, err)
	return engine
}

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var env envelope
	if resp.Body.Len() > 0 {
		_ = json.Unmarshal(resp.Body.Bytes(), &env)
	}
	return resp, env
}

func createNotebook(t *testing.T, router http.Handler, name string) model.Notebook {
	t.Helper()
	resp, env := doJSON(t, router, http.MethodPost, "/api/v1/notebooks", gin.H{"name": name})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Zero(t, env.Code)
	var nb model.Notebook
	require.NoError(t, json.Unmarshal(env.Data, &nb))
	return nb
}

func TestNotebookCRUDOverHTTP(t *testing.T) {
	router := setupRouter(t)

	nb := createNotebook(t, router, "research")
	require.NotEmpty(t, nb.ID)

	resp, env := doJSON(t, router, http.MethodGet, "/api/v1/notebooks/"+nb.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Zero(t, env.Code)

	resp, env = doJSON(t, router, http.MethodPut, "/api/v1/notebooks/"+nb.ID, gin.H{"name": "renamed"})
	require.Equal(t, http.StatusOK, resp.Code)
	var updated model.Notebook
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	require.Equal(t, "renamed", updated.Name)

	resp, _ = doJSON(t, router, http.MethodDelete, "/api/v1/notebooks/"+nb.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	_, env = doJSON(t, router, http.MethodGet, "/api/v1/notebooks/"+nb.ID, nil)
	require.Equal(t, errcode.ErrNotFound, env.Code)
}

func TestAddSourceAndChatOverHTTP(t *testing.T) {
	router := setupRouter(t)
	nb := createNotebook(t, router, "planning")

	resp, env := doJSON(t, router, http.MethodPost, "/api/v1/notebooks/"+nb.ID+"/sources",
		gin.H{"name": "schedule", "content": "The deadline is March 5. The project starts in January."})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Zero(t, env.Code)
	var src model.Source
	require.NoError(t, json.Unmarshal(env.Data, &src))
	require.Greater(t, src.ChunkCount, 0)

	resp, env = doJSON(t, router, http.MethodPost, "/api/v1/notebooks/"+nb.ID+"/chat/sessions", gin.H{})
	require.Equal(t, http.StatusOK, resp.Code)
	var session model.ChatSession
	require.NoError(t, json.Unmarshal(env.Data, &session))

	resp, env = doJSON(t, router, http.MethodPost,
		"/api/v1/notebooks/"+nb.ID+"/chat/sessions/"+session.ID+"/messages",
		gin.H{"question": "when is the deadline"})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Zero(t, env.Code)
	var answer model.ChatMessage
	require.NoError(t, json.Unmarshal(env.Data, &answer))
	require.Equal(t, model.RoleAssistant, answer.Role)
	require.Contains(t, answer.Content, "March 5")

	_, env = doJSON(t, router, http.MethodGet,
		"/api/v1/notebooks/"+nb.ID+"/chat/sessions/"+session.ID, nil)
	var full model.ChatSession
	require.NoError(t, json.Unmarshal(env.Data, &full))
	require.Len(t, full.Messages, 2)
}

func TestTransformOverHTTP(t *testing.T) {
	router := setupRouter(t)
	nb := createNotebook(t, router, "planning")

	_, env := doJSON(t, router, http.MethodPost, "/api/v1/notebooks/"+nb.ID+"/sources",
		gin.H{"name": "schedule", "content": "The deadline is March 5."})
	require.Zero(t, env.Code)

	resp, env := doJSON(t, router, http.MethodPost, "/api/v1/notebooks/"+nb.ID+"/transform",
		gin.H{"kind": "summary"})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Zero(t, env.Code)
	var job model.TransformationJob
	require.NoError(t, json.Unmarshal(env.Data, &job))
	require.Equal(t, model.JobStatusPending, job.Status)

	require.Eventually(t, func() bool {
		_, env := doJSON(t, router, http.MethodGet, "/api/v1/notebooks/"+nb.ID+"/transform/"+job.ID, nil)
		if env.Code != 0 {
			return false
		}
		var got model.TransformationJob
		if err := json.Unmarshal(env.Data, &got); err != nil {
			return false
		}
		return got.Status == model.JobStatusDone
	}, 5*time.Second, 20*time.Millisecond)

	// the output lands as a note
	var notes []model.Note
	require.Eventually(t, func() bool {
		_, env := doJSON(t, router, http.MethodGet, "/api/v1/notebooks/"+nb.ID+"/notes", nil)
		notes = nil
		if err := json.Unmarshal(env.Data, &notes); err != nil {
			return false
		}
		return len(notes) == 1
	}, 5*time.Second, 20*time.Millisecond)
	require.Equal(t, "summary", notes[0].Type)

	// unknown kind is a client error
	_, env = doJSON(t, router, http.MethodPost, "/api/v1/notebooks/"+nb.ID+"/transform",
		gin.H{"kind": "haiku"})
	require.Equal(t, errcode.ErrInvalid, env.Code)
}

func TestUploadOverHTTP(t *testing.T) {
	router := setupRouter(t)
	nb := createNotebook(t, router, "planning")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "notes.md")
	require.NoError(t, err)
	_, err = fmt.Fprint(part, "# Title\n\nThe deadline is March 5.")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notebooks/"+nb.ID+"/sources/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	require.Zero(t, env.Code)
	var src model.Source
	require.NoError(t, json.Unmarshal(env.Data, &src))
	require.Equal(t, model.SourceTypeFile, src.Type)
	require.NotContains(t, src.Content, "#")
}

func TestHealthAndConfig(t *testing.T) {
	router := setupRouter(t)

	resp, env := doJSON(t, router, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Zero(t, env.Code)

	_, env = doJSON(t, router, http.MethodGet, "/api/v1/config", nil)
	var cfg map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &cfg))
	kinds, ok := cfg["kinds"].([]interface{})
	require.True(t, ok)
	require.Len(t, kinds, 12)
}
