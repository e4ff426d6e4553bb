package build

import "context"

// StageName identifies a build stage in results, logs, and metrics labels.
type StageName string

const (
	StagePrepareOutput StageName = "prepare_output"
	StageLoadTemplates StageName = "load_templates"
	StageLoadPages     StageName = "load_pages"
	StageGitMetadata   StageName = "git_metadata"
	StageRenderPages   StageName = "render_pages"
	StageCopyAssets    StageName = "copy_assets"
)

// Stage pairs a name with the function that runs it. Stage functions mutate
// the shared build state and return the first error they hit.
type Stage struct {
	Name StageName
	Fn   func(ctx context.Context, st *state) error
}
