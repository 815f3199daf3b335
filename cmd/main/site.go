package main

import (
	"fmt"
	"log/slog"

	"github.com/CTAG07/Pitcher/pkg/cache"
	"github.com/CTAG07/Pitcher/pkg/content"
	"github.com/CTAG07/Pitcher/pkg/metrics"
	"github.com/CTAG07/Pitcher/pkg/render"
	"github.com/CTAG07/Pitcher/pkg/templating"
)

// Site bundles everything needed to render one site directory.
type Site struct {
	Layout   content.Layout
	Resolver *content.Resolver
	Engine   *templating.Engine
	Store    *cache.Store
	Renderer *render.Renderer
	Warmer   *Warmer
}

// NewSite wires the resolver, template engine, cache and renderer for the
// site rooted at cfg.Server.SiteRoot.
func NewSite(cfg Config, logger *slog.Logger, recorder metrics.Recorder) (*Site, error) {
	cfg.fillDefaults()
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	layout := content.DefaultLayout(cfg.Server.SiteRoot)
	resolver := content.NewResolver(layout)

	engine, err := templating.NewEngine(logger, resolver, *cfg.Templates)
	if err != nil {
		return nil, fmt.Errorf("failed to create template engine: %w", err)
	}

	store := cache.NewStore(layout, Version)
	renderer := render.New(resolver, engine, engine, store,
		render.WithLogger(logger),
		render.WithRecorder(recorder))

	return &Site{
		Layout:   layout,
		Resolver: resolver,
		Engine:   engine,
		Store:    store,
		Renderer: renderer,
		Warmer:   NewWarmer(resolver, renderer, recorder, logger),
	}, nil
}
