// Package app 根据 AppConfig 组装推荐引擎：书库、类别体系、分类器（含缓存）与 Pipeline。
package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/moodrec/classifier"
	"github.com/rushteam/moodrec/config"
	_ "github.com/rushteam/moodrec/config/builders"
	"github.com/rushteam/moodrec/core"
	"github.com/rushteam/moodrec/corpus"
	"github.com/rushteam/moodrec/engine"
	"github.com/rushteam/moodrec/metrics"
	"github.com/rushteam/moodrec/pipeline"
	"github.com/rushteam/moodrec/store"
	"github.com/rushteam/moodrec/taxonomy"
)

// App 持有引擎及需要在退出时释放的资源。
type App struct {
	Engine *engine.Engine
	Config *config.AppConfig

	closers []io.Closer
	logger  zerolog.Logger
}

// New 按配置构建 App。书库与类别体系并发加载，任一失败即返回。
func New(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}

	var (
		books *core.Corpus
		tax   *taxonomy.Taxonomy
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts := []corpus.Option{corpus.WithLogger(logger.With().Str("component", "corpus").Logger())}
		if cfg.Corpus.Format != "" {
			opts = append(opts, corpus.WithFormat(corpus.Format(cfg.Corpus.Format)))
		}
		if cfg.Corpus.TitleColumn != "" {
			opts = append(opts, corpus.WithTitleColumn(cfg.Corpus.TitleColumn))
		}
		if len(cfg.Corpus.FeatureColumns) > 0 {
			opts = append(opts, corpus.WithFeatureColumns(cfg.Corpus.FeatureColumns...))
		}
		c, err := corpus.Load(gctx, cfg.Corpus.Path, opts...)
		if err != nil {
			return err
		}
		books = c
		return nil
	})
	g.Go(func() error {
		if cfg.Taxonomy.Path == "" {
			tax = taxonomy.Default()
			return nil
		}
		t, err := taxonomy.Load(cfg.Taxonomy.Path)
		if err != nil {
			return err
		}
		tax = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.CorpusBooks.Set(float64(books.Len()))
	if unknown := tax.UnknownCategories(); len(unknown) > 0 {
		logger.Warn().Str("categories", strings.Join(unknown, ",")).
			Msg("ratio tables reference unknown categories")
	}

	mc, err := a.buildClassifier()
	if err != nil {
		a.Close()
		return nil, err
	}

	p := engine.DefaultPipeline()
	if cfg.Engine.Pipeline != "" {
		if p, err = config.LoadPipeline(cfg.Engine.Pipeline); err != nil {
			a.Close()
			return nil, err
		}
	}

	vocab := emotionColumns(cfg.Corpus.FeatureColumns)
	e, err := engine.New(
		engine.WithCorpus(books),
		engine.WithTaxonomy(tax),
		engine.WithAdapter(classifier.NewAdapter(mc, classifier.Options{
			Vocabulary: vocab,
			RequireAll: cfg.Classifier.RequireAll,
		})),
		engine.WithPipeline(p),
		engine.WithLogger(logger),
		engine.WithConfidenceThreshold(cfg.Engine.ConfidenceThreshold),
		engine.WithDefaultMaxBooks(cfg.Engine.DefaultMaxBooks),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Engine = e

	logger.Info().Int("books", books.Len()).Str("classifier", e.ClassifierName()).
		Strs("pipeline", describe(p)).Msg("engine ready")
	return a, nil
}

func (a *App) buildClassifier() (core.MoodClassifier, error) {
	cfg := a.Config
	mc, err := classifier.New(cfg.Classifier, a.logger)
	if err != nil {
		return nil, err
	}
	if !cfg.Cache.Enabled {
		return mc, nil
	}
	s, err := store.New(cfg.Cache.Store, a.logger.With().Str("component", "store").Logger())
	if err != nil {
		return nil, fmt.Errorf("classifier cache: %w", err)
	}
	a.closers = append(a.closers, s)
	return classifier.NewCachedClassifier(mc, s, cfg.Cache.TTL, a.logger), nil
}

// Close 释放缓存等资源。
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func describe(p *pipeline.Pipeline) []string {
	if p == nil {
		return nil
	}
	return p.Describe()
}

// emotionColumns 返回特征列中属于情绪词表的部分，作为分类器输出的校验词表。
// 评分等非情绪列不会出现在模型输出中，不能参与 RequireAll 校验。
func emotionColumns(cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if core.InVocabulary(c) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return core.Vocabulary
	}
	return out
}
