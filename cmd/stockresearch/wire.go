package main

import (
	"context"
	"fmt"
	"time"

	"github.com/smallnest/stockresearch/config"
	"github.com/smallnest/stockresearch/llms/provider"
	"github.com/smallnest/stockresearch/log"
	"github.com/smallnest/stockresearch/research"
	"github.com/smallnest/stockresearch/store"
	"github.com/smallnest/stockresearch/store/memory"
	"github.com/smallnest/stockresearch/store/postgres"
	"github.com/smallnest/stockresearch/store/redis"
	"github.com/smallnest/stockresearch/store/sqlite"
	"github.com/smallnest/stockresearch/tool"
)

// pruner is implemented by the SQL session stores.
type pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// openSessionStore opens the configured backend. The returned function releases it.
func openSessionStore(ctx context.Context, c config.SessionConfig) (store.SessionStore, func(), error) {
	switch c.Backend {
	case "memory":
		return memory.NewMemorySessionStore(memory.MemoryOptions{TTL: c.TTL}), func() {}, nil

	case "redis":
		s := redis.NewRedisSessionStore(redis.RedisOptions{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			TTL:      c.TTL,
		})
		return s, func() { _ = s.Close() }, nil

	case "sqlite":
		s, err := sqlite.NewSqliteSessionStore(sqlite.SqliteOptions{Path: c.SqlitePath})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil

	case "postgres":
		s, err := postgres.NewPostgresSessionStore(ctx, postgres.PostgresOptions{ConnString: c.PostgresDSN})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported session backend: %s", c.Backend)
	}
}

func newWebRetriever(c config.SearchConfig) (research.Retriever, error) {
	if c.Provider == "brave" {
		b, err := tool.NewBraveSearch(c.BraveAPIKey, tool.WithBraveCount(c.MaxResults))
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	t, err := tool.NewTavilySearch(c.TavilyAPIKey, tool.WithTavilyMaxResults(c.MaxResults))
	if err != nil {
		return nil, err
	}
	return t, nil
}

// newAssistant wires the model, retrieval sources and session store from cfg.
func newAssistant(ctx context.Context, c *config.Config) (*research.Assistant, func(), error) {
	model, err := provider.New(ctx, c.LLM)
	if err != nil {
		return nil, nil, err
	}

	web, err := newWebRetriever(c.Search)
	if err != nil {
		return nil, nil, err
	}
	knowledge := tool.NewWikipediaSearch(
		tool.WithWikipediaLanguage(c.Knowledge.Language),
		tool.WithWikipediaMaxDocs(c.Knowledge.MaxDocs),
		tool.WithWikipediaMaxChars(c.Knowledge.MaxChars),
	)

	sessions, closeStore, err := openSessionStore(ctx, c.Session)
	if err != nil {
		return nil, nil, err
	}

	rc := research.DefaultConfig()
	rc.MaxHistoryTurns = c.Session.MaxHistoryTurns
	rc.MaxDocumentChars = c.Context.MaxDocumentChars
	rc.TolerateRetrievalErrors = c.Retrieval.TolerateErrors

	a, err := research.NewAssistant(model, web, knowledge, sessions, rc,
		research.WithLogger(log.GetDefaultLogger()),
		research.WithCallOptions(provider.CallOptions(c.LLM)...),
	)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	log.Debug("assistant ready: llm=%s/%s search=%s sessions=%s", c.LLM.Provider, c.LLM.Model, web.Name(), c.Session.Backend)
	return a, closeStore, nil
}
