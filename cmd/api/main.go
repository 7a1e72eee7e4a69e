package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/omvik/media-api/environment"
	"github.com/omvik/media-api/services/media"
	"github.com/omvik/media-api/services/merge"
	"github.com/omvik/media-api/services/resolver"
	"github.com/omvik/media-api/tokens"
)

func newRegistry() *resolver.Registry {
	registry := resolver.NewRegistry()
	registry.Register(resolver.PlatformYouTube, resolver.NewChain(
		resolver.NewInnertubeResolver("https://www.youtube.com"),
		resolver.NewWatchPageResolver("https://www.youtube.com"),
	))
	registry.Register(resolver.PlatformVimeo, resolver.NewChain(
		resolver.NewVimeoResolver("https://player.vimeo.com"),
	))
	return registry
}

func main() {
	_ = godotenv.Load()

	ctx := context.Background()

	tokenStore := tokens.NewStore(environment.GetTokenTTL())
	go tokenStore.Run(ctx, time.Minute)

	artifactDir := environment.GetArtifactDir()
	engine := merge.NewEngine(environment.GetFFmpegBin(), artifactDir, environment.GetMergeTimeout())

	janitor := merge.NewJanitor(artifactDir, environment.GetArtifactMaxAge(), time.Hour)
	go janitor.Run(ctx)

	mediaService := media.NewService(newRegistry(), tokenStore)
	server := NewServer(mediaService, engine, janitor, tokenStore)

	r := gin.Default()
	r.Use(cors.Default())
	server.RegisterRoutes(r)

	port := environment.GetPort()
	log.Printf("listening on :%s, artifacts in %s", port, artifactDir)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
