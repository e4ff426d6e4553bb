// Package build orchestrates one full regeneration of the output tree:
// prepare the output directory, load templates and pages, render every page,
// copy assets. Stages run in order and the first failure aborts the rest.
package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitegen/internal/assets"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/gitinfo"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/pages"
	"git.home.luguber.info/inful/sitegen/internal/render"
	"git.home.luguber.info/inful/sitegen/internal/templates"
)

// Builder runs builds against a fixed configuration. Safe to reuse across
// builds; each Build call re-reads every source from disk.
type Builder struct {
	cfg  *config.Config
	dirs config.DirsConfig
	rec  metrics.Recorder
}

// state carries intermediate results between stages of one build.
type state struct {
	store    *templates.Store
	pages    []pages.Page
	rendered int
	assets   int
}

// New creates a Builder. dirs must already be resolved against the site root.
// A nil recorder disables metrics.
func New(cfg *config.Config, dirs config.DirsConfig, rec metrics.Recorder) *Builder {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Builder{cfg: cfg, dirs: dirs, rec: rec}
}

// Build regenerates the output tree from the current source state.
//
// The returned Result is non-nil even on failure and names the failed stage.
// The output directory is left as-is at failure time; the next successful
// build repairs it.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	res := &Result{
		BuildID: uuid.NewString(),
		Started: time.Now(),
	}
	st := &state{}

	slog.Debug("build starting", logfields.BuildID(res.BuildID), logfields.Dir(b.dirs.Output))

	err := b.runStages(ctx, st, res)

	res.Duration = time.Since(res.Started)
	res.Pages = st.rendered
	res.Assets = st.assets

	b.rec.ObserveBuildDuration(res.Duration)
	b.rec.SetPagesRendered(st.rendered)
	b.rec.SetAssetsCopied(st.assets)

	if err != nil {
		b.rec.IncBuildOutcome(outcomeFor(err))
		slog.Error("build failed",
			logfields.BuildID(res.BuildID),
			logfields.Stage(res.FailedStage),
			logfields.Error(err))
		return res, err
	}

	if hash, hashErr := HashOutputTree(b.dirs.Output); hashErr != nil {
		slog.Warn("hashing output tree failed", logfields.Error(hashErr))
	} else {
		res.OutputHash = hash
	}

	b.rec.IncBuildOutcome(metrics.OutcomeSuccess)
	slog.Info("build complete",
		logfields.BuildID(res.BuildID),
		logfields.Pages(res.Pages),
		logfields.Assets(res.Assets),
		slog.Duration("duration", res.Duration))
	return res, nil
}

// runStages executes the stage sequence, recording per-stage timing and
// stopping on the first error or context cancellation.
func (b *Builder) runStages(ctx context.Context, st *state, res *Result) error {
	for _, stage := range b.stages() {
		select {
		case <-ctx.Done():
			res.FailedStage = string(stage.Name)
			return errors.BuildFailed(string(stage.Name), ctx.Err())
		default:
		}

		t0 := time.Now()
		err := stage.Fn(ctx, st)
		dur := time.Since(t0)

		res.Stages = append(res.Stages, StageTiming{Name: stage.Name, Duration: dur})
		b.rec.ObserveStageDuration(string(stage.Name), dur)
		slog.Debug("stage finished",
			logfields.BuildID(res.BuildID),
			logfields.Stage(string(stage.Name)),
			slog.Duration("duration", dur),
			logfields.Error(err))

		if err != nil {
			res.FailedStage = string(stage.Name)
			return errors.BuildFailed(string(stage.Name), err)
		}
	}
	return nil
}

// stages assembles the stage list for one build. git_metadata only joins the
// sequence when the configuration asks for it.
func (b *Builder) stages() []Stage {
	list := []Stage{
		{Name: StagePrepareOutput, Fn: b.prepareOutput},
		{Name: StageLoadTemplates, Fn: b.loadTemplates},
		{Name: StageLoadPages, Fn: b.loadPages},
	}
	if b.cfg.Build.GitInfo {
		list = append(list, Stage{Name: StageGitMetadata, Fn: b.annotateGitInfo})
	}
	return append(list,
		Stage{Name: StageRenderPages, Fn: b.renderPages},
		Stage{Name: StageCopyAssets, Fn: b.copyAssets},
	)
}

// prepareOutput empties the output directory without removing the directory
// itself, so a file server rooted there keeps working across rebuilds.
func (b *Builder) prepareOutput(_ context.Context, _ *state) error {
	out := b.dirs.Output

	entries, err := os.ReadDir(out)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(out, 0o755); mkErr != nil {
			return errors.WriteFailed(out, mkErr)
		}
		return nil
	}
	if err != nil {
		return errors.ReadFailed(out, err)
	}

	for _, entry := range entries {
		path := filepath.Join(out, entry.Name())
		if rmErr := os.RemoveAll(path); rmErr != nil {
			return errors.WriteFailed(path, rmErr)
		}
	}
	return nil
}

func (b *Builder) loadTemplates(_ context.Context, st *state) error {
	store, err := templates.Load(b.dirs.Templates)
	if err != nil {
		return err
	}
	st.store = store
	slog.Debug("templates loaded", slog.Int("count", store.Len()))
	return nil
}

func (b *Builder) loadPages(_ context.Context, st *state) error {
	loaded, err := pages.Load(b.dirs.Pages, b.cfg.Build.PrettyURLs)
	if err != nil {
		return err
	}
	st.pages = loaded
	slog.Debug("pages loaded", logfields.Pages(len(loaded)))
	return nil
}

func (b *Builder) annotateGitInfo(ctx context.Context, st *state) error {
	return gitinfo.Annotate(ctx, b.dirs.Pages, st.pages)
}

// renderPages renders every page into its shell and writes the document to
// the output tree.
func (b *Builder) renderPages(ctx context.Context, st *state) error {
	site := render.Site{Title: b.cfg.Title, BaseURL: b.cfg.BaseURL}

	for _, pg := range st.pages {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		doc, err := render.Document(st.store, site, pg)
		if err != nil {
			return err
		}

		target := filepath.Join(b.dirs.Output, filepath.FromSlash(pg.OutputPath))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errors.WriteFailed(target, err)
		}
		if err := os.WriteFile(target, doc, 0o644); err != nil {
			return errors.WriteFailed(target, err)
		}

		st.rendered++
		slog.Debug("page rendered", logfields.Page(pg.SourcePath), logfields.Path(pg.OutputPath))
	}
	return nil
}

func (b *Builder) copyAssets(_ context.Context, st *state) error {
	n, err := assets.Copy(b.dirs.Assets, b.dirs.Output)
	if err != nil {
		return err
	}
	st.assets = n
	slog.Debug("assets copied", logfields.Assets(n))
	return nil
}

func outcomeFor(err error) metrics.OutcomeLabel {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return metrics.OutcomeCanceled
	}
	return metrics.OutcomeFailed
}
