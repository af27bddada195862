package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Notebooks *NotebookHandler
	Sources   *SourceHandler
	Notes     *NoteHandler
	Transform *TransformHandler
	Chats     *ChatHandler
	Files     *FileHandler
	System    *SystemHandler
	// GenLimit throttles the endpoints that call a provider.
	GenLimit gin.HandlerFunc
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", deps.System.Health)
	api.GET("/config", deps.System.Config)
	api.GET("/transform/kinds", deps.Transform.Kinds)

	api.POST("/notebooks", deps.Notebooks.Create)
	api.GET("/notebooks", deps.Notebooks.List)
	api.GET("/notebooks/:id", deps.Notebooks.Get)
	api.PUT("/notebooks/:id", deps.Notebooks.Update)
	api.DELETE("/notebooks/:id", deps.Notebooks.Delete)

	api.POST("/notebooks/:id/sources", deps.Sources.Add)
	api.POST("/notebooks/:id/sources/upload", deps.Sources.Upload)
	api.GET("/notebooks/:id/sources", deps.Sources.List)
	api.GET("/notebooks/:id/sources/:sid", deps.Sources.Get)
	api.DELETE("/notebooks/:id/sources/:sid", deps.Sources.Delete)

	api.GET("/notebooks/:id/notes", deps.Notes.List)
	api.GET("/notebooks/:id/notes/:nid", deps.Notes.Get)
	api.DELETE("/notebooks/:id/notes/:nid", deps.Notes.Delete)

	genLimit := deps.GenLimit
	if genLimit == nil {
		genLimit = func(c *gin.Context) { c.Next() }
	}
	api.POST("/notebooks/:id/transform", genLimit, deps.Transform.Start)
	api.GET("/notebooks/:id/transform", deps.Transform.List)
	api.GET("/notebooks/:id/transform/:jid", deps.Transform.Get)

	api.POST("/notebooks/:id/chat/sessions", deps.Chats.CreateSession)
	api.GET("/notebooks/:id/chat/sessions", deps.Chats.ListSessions)
	api.GET("/notebooks/:id/chat/sessions/:sid", deps.Chats.GetSession)
	api.DELETE("/notebooks/:id/chat/sessions/:sid", deps.Chats.DeleteSession)
	api.POST("/notebooks/:id/chat/sessions/:sid/messages", genLimit, deps.Chats.Ask)

	api.GET("/files/:key", deps.Files.Get)
}
