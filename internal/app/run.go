package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/dk/stagecraft/internal/block"
	"github.com/dk/stagecraft/internal/ctxlog"
	"github.com/dk/stagecraft/internal/depscan"
	"github.com/dk/stagecraft/internal/lint"
	"github.com/dk/stagecraft/internal/pipeline"
	"github.com/dk/stagecraft/internal/store"
)

// session accumulates the intermediate artifacts of one workflow run. Stage
// works mutate it in sequence; the engine guarantees no two stages run
// concurrently.
type session struct {
	id        string
	prompt    string
	generated string
	blocks    []block.ContentBlock
	deps      []depscan.Dependency
	issues    []lint.Issue
	preview   string
}

func (s *session) record() *store.Record {
	return &store.Record{
		SessionID:    s.id,
		Prompt:       s.prompt,
		Blocks:       s.blocks,
		Dependencies: s.deps,
		Preview:      s.preview,
	}
}

// Run drives one full workflow session: it assembles the stage work set from
// the current toggles, executes it through the pipeline manager, and reports
// the outcome. Stages whose toggle is off are simply not requested.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.appConfig.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.appConfig.HealthcheckPort)
	}

	input := a.appConfig.Prompt
	if a.appConfig.InputPath != "" {
		content, err := os.ReadFile(a.appConfig.InputPath)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		input = string(content)
	}

	sess := &session{id: uuid.NewString(), prompt: input}
	toggles := a.manager.Options()
	a.logger.Info("🚀 Starting workflow run.", "workflow", a.model.Name, "session", sess.id)

	if toggles.Realtime {
		unsubscribe := a.manager.Subscribe(func(states []pipeline.StageState) {
			if err := a.publisher.PublishStages(ctx, sess.id, states); err != nil {
				a.logger.Warn("Failed to publish stage update.", "error", err)
			}
		})
		defer unsubscribe()
	}

	works := a.buildWorks(sess, toggles)
	if err := a.manager.Run(ctx, works); err != nil {
		a.logger.Error("Workflow run failed.", "session", sess.id, "error", err)
		return fmt.Errorf("workflow run failed: %w", err)
	}

	a.logger.Info("🏁 Workflow finished.",
		"session", sess.id,
		"blocks", len(sess.blocks),
		"dependencies", len(sess.deps),
		"lintIssues", len(sess.issues),
		"previewBytes", len(sess.preview),
	)
	a.logger.Debug("App.Run method finished.")
	return nil
}

// buildWorks maps each requested stage to its work. The linear pipeline
// order (request through preview) is the manager's concern; works only carry
// the bodies.
func (a *App) buildWorks(sess *session, toggles pipeline.Options) map[string]pipeline.Work {
	works := map[string]pipeline.Work{
		pipeline.StageRequest: sess.requestWork(),
		pipeline.StageParse:   a.parseWork(sess),
		pipeline.StagePersist: a.persistWork(sess),
		pipeline.StagePreview: a.previewWork(sess),
	}
	if toggles.Generation {
		works[pipeline.StageGenerate] = a.generateWork(sess)
	}
	if toggles.DependencyAnalysis {
		works[pipeline.StageAnalyze] = analyzeWork(sess)
	}
	if toggles.PackageResolution && toggles.DependencyAnalysis && a.sandbox != nil {
		works[pipeline.StageInstall] = a.installWork(sess)
	}
	if toggles.Linting {
		works[pipeline.StageLint] = lintWork(sess)
	}
	return works
}

// requestWork validates the run's input. An empty prompt is the canonical
// request failure: nothing downstream may start.
func (s *session) requestWork() pipeline.Work {
	return func(ctx context.Context) (any, error) {
		if strings.TrimSpace(s.prompt) == "" {
			return nil, errors.New("prompt is empty")
		}
		return s.prompt, nil
	}
}

func (a *App) generateWork(sess *session) pipeline.Work {
	return func(ctx context.Context) (any, error) {
		text, err := a.generator.Generate(ctx, a.generationRequest(sess.prompt))
		if err != nil {
			return nil, err
		}
		sess.generated = text
		return text, nil
	}
}

// parseWork extracts content blocks from the generated text, or straight
// from the input when the generate stage was not requested.
func (a *App) parseWork(sess *session) pipeline.Work {
	return func(ctx context.Context) (any, error) {
		source := sess.generated
		if source == "" {
			source = sess.prompt
		}
		blocks, err := block.Extract(source)
		if err != nil {
			// Extraction degrades, it does not fail the stage.
			ctxlog.FromContext(ctx).Warn("Content extraction reported a parse error.", "error", err)
		}
		sess.blocks = blocks
		return blocks, nil
	}
}

// analyzeWork scans every block's code and merges the results, deduplicated
// by name across blocks, first occurrence wins.
func analyzeWork(sess *session) pipeline.Work {
	return func(ctx context.Context) (any, error) {
		seen := make(map[string]bool)
		var merged []depscan.Dependency
		for _, b := range sess.blocks {
			for _, d := range depscan.Analyze(b.Code) {
				if seen[d.Name] {
					continue
				}
				seen[d.Name] = true
				merged = append(merged, d)
			}
		}
		sess.deps = merged
		ctxlog.FromContext(ctx).Debug("Dependency analysis complete.", "dependencies", len(merged))
		return merged, nil
	}
}

func (a *App) installWork(sess *session) pipeline.Work {
	return func(ctx context.Context) (any, error) {
		install := depscan.InstallList(sess.deps)
		names := make([]string, len(install))
		for i, d := range install {
			names[i] = d.Name
		}
		if err := a.sandbox.Install(ctx, names); err != nil {
			return nil, err
		}
		return names, nil
	}
}

// lintWork checks script and component blocks. Findings are logged and
// recorded, never a stage failure; the checks are approximate by contract.
func lintWork(sess *session) pipeline.Work {
	return func(ctx context.Context) (any, error) {
		logger := ctxlog.FromContext(ctx)
		var issues []lint.Issue
		for _, b := range sess.blocks {
			if b.Type != block.TypeScript && b.Type != block.TypeComponent {
				continue
			}
			for _, issue := range lint.Check(b.Code) {
				logger.Warn("Lint finding.", "block", b.ID, "line", issue.Line, "severity", issue.Severity, "message", issue.Message)
				issues = append(issues, issue)
			}
		}
		sess.issues = issues
		return issues, nil
	}
}

func (a *App) persistWork(sess *session) pipeline.Work {
	return func(ctx context.Context) (any, error) {
		if err := a.store.Save(ctx, sess.record()); err != nil {
			return nil, err
		}
		return sess.id, nil
	}
}

// previewWork builds the final document, attaches it to the stored record,
// and publishes it when the realtime toggle is on.
func (a *App) previewWork(sess *session) pipeline.Work {
	return func(ctx context.Context) (any, error) {
		document, err := a.buildPreview(ctx, sess)
		if err != nil {
			return nil, err
		}
		sess.preview = document

		if err := a.store.Save(ctx, sess.record()); err != nil {
			return nil, fmt.Errorf("failed to persist preview: %w", err)
		}
		if a.manager.Options().Realtime {
			if err := a.publisher.PublishPreview(ctx, sess.id, document); err != nil {
				ctxlog.FromContext(ctx).Warn("Failed to publish preview.", "error", err)
			}
		}
		return document, nil
	}
}
