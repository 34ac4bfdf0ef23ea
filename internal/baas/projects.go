package baas

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stencil/internal/domain"
	"stencil/internal/infra"
	"stencil/internal/session"
)

// Projects persists snapshots of the session under the signed-in user.
type Projects interface {
	Save(ctx context.Context, st *session.State, name, thumbnailURL string) Result
	Update(ctx context.Context, st *session.State, id string, upd domain.ProjectUpdate) Result
	Load(ctx context.Context, st *session.State, id string) Result
	List(ctx context.Context, st *session.State) Result
	Delete(ctx context.Context, st *session.State, id string) Result
	AllImages(ctx context.Context, st *session.State) Result
	AutoSave(ctx context.Context, st *session.State) error
}

type ProjectService struct {
	repo   domain.ProjectRepository
	logger *infra.Logger
}

func NewProjectService(repo domain.ProjectRepository, logger *infra.Logger) *ProjectService {
	return &ProjectService{repo: repo, logger: orDiscard(logger)}
}

func (p *ProjectService) Configured() bool { return p.repo != nil }

func (p *ProjectService) guard(st *session.State, action string) (Result, bool) {
	if !st.SignedIn() {
		return unauthenticated("Please login to " + action + "."), false
	}
	if p.repo == nil {
		return unconfigured(msgDatabaseNotConfigured), false
	}
	return Result{}, true
}

// Save stores the current session state as a new project and selects it.
func (p *ProjectService) Save(ctx context.Context, st *session.State, name, thumbnailURL string) Result {
	if res, ok := p.guard(st, "save projects"); !ok {
		return res
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return rejected("Please enter a project name.")
	}
	project := &domain.Project{
		UserID:       st.UserID(),
		Name:         name,
		Data:         st.ProjectState(),
		ThumbnailURL: thumbnailURL,
	}
	err := p.repo.Create(userContext(ctx, st), project)
	observe("projects", err)
	if err != nil {
		return fail("Error saving project: " + err.Error())
	}
	if project.ID == "" {
		return fail("Failed to save project.")
	}
	st.CurrentProjectID, st.CurrentProject = project.ID, project.Name
	p.logger.Info().Str("user_id", st.UserID()).Str("project_id", project.ID).Msg("project saved")
	res := success(fmt.Sprintf("Project '%s' saved!", name))
	res.ProjectID = project.ID
	return res
}

// Update changes only the non-empty fields of upd.
func (p *ProjectService) Update(ctx context.Context, st *session.State, id string, upd domain.ProjectUpdate) Result {
	if res, ok := p.guard(st, "update projects"); !ok {
		return res
	}
	if upd.Empty() {
		return success("Project updated!")
	}
	err := p.repo.Update(userContext(ctx, st), st.UserID(), id, upd)
	observe("projects", err)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return notFound("Project not found.")
	case err != nil:
		return fail("Error updating project: " + err.Error())
	}
	if upd.Name != "" && id == st.CurrentProjectID {
		st.CurrentProject = upd.Name
	}
	return success("Project updated!")
}

// Load restores the saved state of a project into st and selects it.
func (p *ProjectService) Load(ctx context.Context, st *session.State, id string) Result {
	if res, ok := p.guard(st, "load projects"); !ok {
		return res
	}
	project, err := p.repo.Get(userContext(ctx, st), st.UserID(), id)
	observe("projects", err)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return notFound("Project not found.")
	case err != nil:
		return fail("Error loading project: " + err.Error())
	}
	if project.Data != nil {
		st.RestoreProjectState(project.Data)
	}
	st.CurrentProjectID, st.CurrentProject = project.ID, project.Name
	res := success("Project loaded!")
	res.Project = project
	res.ProjectID = project.ID
	return res
}

func (p *ProjectService) List(ctx context.Context, st *session.State) Result {
	if res, ok := p.guard(st, "view projects"); !ok {
		res.Projects = []domain.Project{}
		return res
	}
	list, err := p.repo.List(userContext(ctx, st), st.UserID())
	observe("projects", err)
	if err != nil {
		return Result{Message: "Error listing projects: " + err.Error(), Reason: ReasonFailed, Projects: []domain.Project{}}
	}
	res := success(fmt.Sprintf("Found %d projects.", len(list)))
	res.Projects = list
	return res
}

func (p *ProjectService) Delete(ctx context.Context, st *session.State, id string) Result {
	if res, ok := p.guard(st, "delete projects"); !ok {
		return res
	}
	err := p.repo.Delete(userContext(ctx, st), st.UserID(), id)
	observe("projects", err)
	if err != nil {
		return fail("Error deleting project: " + err.Error())
	}
	if st.CurrentProjectID == id {
		st.CurrentProjectID, st.CurrentProject = "", ""
	}
	return success("Project deleted.")
}

// AllImages collects image URLs from every saved project: history entries,
// generated images and the current image, in that order per project.
func (p *ProjectService) AllImages(ctx context.Context, st *session.State) Result {
	if res, ok := p.guard(st, "view images"); !ok {
		res.Images = []domain.ProjectImage{}
		return res
	}
	projects, err := p.repo.ListWithData(userContext(ctx, st), st.UserID())
	observe("projects", err)
	if err != nil {
		return Result{Message: "Error fetching project images: " + err.Error(), Reason: ReasonFailed, Images: []domain.ProjectImage{}}
	}
	images := []domain.ProjectImage{}
	for _, project := range projects {
		images = append(images, projectImages(project)...)
	}
	res := success(fmt.Sprintf("Found %d images from projects.", len(images)))
	res.Images = images
	return res
}

func projectImages(project domain.Project) []domain.ProjectImage {
	if project.Data == nil {
		return nil
	}
	name := project.Name
	if name == "" {
		name = "Unknown"
	}
	created := ""
	if !project.CreatedAt.IsZero() {
		created = project.CreatedAt.Format(session.TimestampLayout)
	}
	image := func(label, url, createdAt string) domain.ProjectImage {
		return domain.ProjectImage{
			Name:        name + " - " + label,
			URL:         url,
			Path:        "project/" + project.ID,
			CreatedAt:   createdAt,
			Source:      "project",
			ProjectName: name,
		}
	}

	var out []domain.ProjectImage
	for _, item := range anyList(project.Data[session.KeyImageHistory]) {
		switch v := item.(type) {
		case map[string]any:
			url, _ := v["url"].(string)
			if url == "" {
				continue
			}
			label, _ := v["type"].(string)
			if label == "" {
				label = "image"
			}
			ts, _ := v["timestamp"].(string)
			if ts == "" {
				ts = created
			}
			out = append(out, image(label, url, ts))
		case string:
			if isHTTP(v) {
				out = append(out, image("image", v, created))
			}
		}
	}
	for i, item := range anyList(project.Data[session.KeyGeneratedImages]) {
		if url, ok := item.(string); ok && isHTTP(url) {
			out = append(out, image(fmt.Sprintf("generated_%d", i+1), url, created))
		}
	}
	if current, ok := project.Data[session.KeyCurrentImageURL].(string); ok && isHTTP(current) {
		out = append(out, image("current", current, created))
	}
	return out
}

func anyList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	return nil
}

func isHTTP(s string) bool { return strings.HasPrefix(s, "http") }

// AutoSave writes the session back to its selected project when the user is
// signed in and has auto-save enabled. It is a no-op otherwise.
func (p *ProjectService) AutoSave(ctx context.Context, st *session.State) error {
	if p.repo == nil || !st.SignedIn() || !st.AutoSaveEnabled || st.CurrentProjectID == "" {
		return nil
	}
	err := p.repo.Update(userContext(ctx, st), st.UserID(), st.CurrentProjectID, domain.ProjectUpdate{
		Data:         st.ProjectState(),
		ThumbnailURL: st.EditedImage,
	})
	observe("projects", err)
	if err != nil {
		p.logger.Warn().Err(err).Str("project_id", st.CurrentProjectID).Msg("auto-save failed")
		return fmt.Errorf("baas: auto-save: %w", err)
	}
	return nil
}

var _ Projects = (*ProjectService)(nil)
