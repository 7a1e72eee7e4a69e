package main

import (
	"context"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/ansel1/merry/v2"
	"github.com/davecgh/go-spew/spew"
	"github.com/gin-gonic/gin"
	"github.com/omvik/media-api/services/media"
	"github.com/omvik/media-api/services/merge"
	"github.com/omvik/media-api/tokens"
)

// cleanupGrace delays artifact deletion past the end of the response, so a
// consumer still draining the file handle is never cut off.
const cleanupGrace = time.Second * 10

type Server struct {
	media      *media.Service
	engine     *merge.Engine
	janitor    *merge.Janitor
	tokenStore *tokens.Store
	startedAt  time.Time
}

func NewServer(mediaService *media.Service, engine *merge.Engine, janitor *merge.Janitor, tokenStore *tokens.Store) *Server {
	return &Server{
		media:      mediaService,
		engine:     engine,
		janitor:    janitor,
		tokenStore: tokenStore,
		startedAt:  time.Now(),
	}
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/resolve", s.resolveHandler)
	r.GET("/merge/:file", s.mergeTokenHandler)
	r.GET("/merge-audio", s.mergeAudioHandler)
	r.POST("/merge-audio", s.mergeAudioHandler)
	r.GET("/ffmpeg-status", s.ffmpegStatusHandler)
	r.GET("/diagnostics", s.diagnosticsHandler)
	r.GET("/system-info", s.systemInfoHandler)
	r.GET("/health", s.healthHandler)
}

func getParamFromCtx(ctx *gin.Context, key string) string {
	return ctx.DefaultPostForm(key, ctx.DefaultQuery(key, ""))
}

func errorResponse(ctx *gin.Context, err error) {
	status := merry.HTTPCode(err)
	if status == 200 || status == 0 {
		status = http.StatusInternalServerError
	}
	message := merry.UserMessage(err)
	if message == "" {
		message = "internal error"
	}
	ctx.JSON(status, gin.H{
		"success": false,
		"error":   message,
		"details": err.Error(),
	})
}

func (s *Server) resolveHandler(ctx *gin.Context) {
	rawURL := getParamFromCtx(ctx, "url")
	if rawURL == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "url parameter is required",
		})
		return
	}

	resolution, err := s.media.Resolve(ctx.Request.Context(), rawURL)
	if err != nil {
		errorResponse(ctx, err)
		return
	}

	response := gin.H{
		"success":   true,
		"title":     resolution.Formats.Title,
		"author":    resolution.Formats.Author,
		"duration":  resolution.Formats.Duration,
		"shortForm": resolution.Formats.ShortForm,
		"formats":   resolution.Formats.Formats,
		"default":   resolution.Formats.Default,
	}
	if resolution.MergeToken != "" {
		response["mergeToken"] = resolution.MergeToken
	}
	ctx.JSON(http.StatusOK, response)
}

func (s *Server) mergeTokenHandler(ctx *gin.Context) {
	file := ctx.Param("file")
	token := file
	if i := strings.LastIndex(file, "."); i > 0 {
		token = file[:i]
	}

	pair, ok := s.tokenStore.Get(token)
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Invalid or expired merge token",
		})
		return
	}

	outputPath, err := s.engine.MergeToFile(ctx.Request.Context(), pair.VideoURL, pair.AudioURL)
	if err != nil {
		errorResponse(ctx, err)
		return
	}

	// The token is consumed by its first successful merge.
	s.tokenStore.Delete(token)
	s.janitor.Protect(outputPath)

	ctx.Header("Content-Type", "video/mp4")
	ctx.FileAttachment(outputPath, file)

	time.AfterFunc(cleanupGrace, func() {
		s.janitor.Cleanup(outputPath)
	})
}

type mergeAudioRequest struct {
	VideoURL string `json:"videoUrl"`
	AudioURL string `json:"audioUrl"`
}

func (s *Server) mergeAudioHandler(ctx *gin.Context) {
	videoURL := getParamFromCtx(ctx, "videoUrl")
	audioURL := getParamFromCtx(ctx, "audioUrl")

	if (videoURL == "" || audioURL == "") && ctx.Request.Method == http.MethodPost {
		var body mergeAudioRequest
		if err := ctx.ShouldBindJSON(&body); err == nil {
			if videoURL == "" {
				videoURL = body.VideoURL
			}
			if audioURL == "" {
				audioURL = body.AudioURL
			}
		}
	}

	if videoURL == "" || audioURL == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "videoUrl and audioUrl are required",
		})
		return
	}

	ctx.Header("Content-Type", "video/mp4")
	ctx.Header("Content-Disposition", `attachment; filename="merged.mp4"`)

	err := s.engine.MergeToStream(ctx.Request.Context(), videoURL, audioURL, ctx.Writer)
	if err != nil {
		// Once streaming has begun there is no way to deliver a JSON error;
		// the connection is simply terminated.
		if ctx.Writer.Written() {
			ctx.Abort()
			return
		}
		// Drop the streaming headers so the JSON error body is not served
		// labeled video/mp4.
		ctx.Writer.Header().Del("Content-Disposition")
		ctx.Writer.Header().Del("Content-Type")
		errorResponse(ctx, err)
	}
}

func (s *Server) ffmpegStatusHandler(ctx *gin.Context) {
	execCtx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second*5)
	defer cancel()

	out, err := exec.CommandContext(execCtx, s.engine.Bin, "-version").Output()
	if err != nil {
		ctx.JSON(http.StatusOK, gin.H{
			"installed": false,
			"error":     err.Error(),
		})
		return
	}

	version := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0]
	ctx.JSON(http.StatusOK, gin.H{
		"installed": true,
		"version":   version,
	})
}

func (s *Server) diagnosticsHandler(ctx *gin.Context) {
	config := gin.H{
		"muxerBin":     s.engine.Bin,
		"artifactDir":  s.engine.ArtifactDir,
		"mergeTimeout": s.engine.Timeout.String(),
		"tokenCount":   s.tokenStore.Len(),
	}
	spew.Dump(config)

	ctx.JSON(http.StatusOK, gin.H{
		"healthy":       true,
		"uptimeSeconds": int(time.Since(s.startedAt).Seconds()),
		"config":        config,
	})
}

func (s *Server) systemInfoHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"healthy":    true,
		"goVersion":  runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
		"goroutines": runtime.NumGoroutine(),
	})
}

func (s *Server) healthHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"healthy": true})
}
