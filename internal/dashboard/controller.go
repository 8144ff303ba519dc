// Package dashboard is the admin dashboard's sync loop: it owns the view
// model, keeps it in step with the server and hands finished views to a
// Renderer.
//
// Every collection shown is a replay of the last successful fetch. Mutations
// never edit local state; they re-fetch what they touched. Each fetch is
// stamped with a generation and a response older than the newest one
// already applied is dropped, so overlapping requests cannot roll the view
// back.
package dashboard

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/vedran77/projectdesk/internal/client"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// API is the subset of client.API the dashboard needs.
type API interface {
	GetUser(ctx context.Context, id string) (*client.User, error)
	ListUsers(ctx context.Context) ([]client.User, error)
	ListProjects(ctx context.Context) ([]client.Project, error)
	AssignProject(ctx context.Context, projectID, userID string) error
	DeleteProject(ctx context.Context, projectID string) error
	UpdateUser(ctx context.Context, id string, update client.ProfileUpdate) (*client.User, error)
	UploadProfileImage(ctx context.Context, id, filename string, image io.Reader) (string, error)
}

// Session is the stored login. Logout clears it and sends the user to the
// login page.
type Session interface {
	CheckAuth(requiredRole string) error
	State() client.SessionState
	Logout() error
}

// Renderer receives a complete view after every state change. It is
// called with the controller's lock held and must not call back into it.
type Renderer interface {
	Render(View)
}

// Notifier shows a short message to the user.
type Notifier interface {
	Notify(message string)
}

type SettingsForm struct {
	Name  string
	Email string
}

type View struct {
	Active     Section
	Navigation []NavItem
	Profile    *client.User
	Users      []UserRow
	Projects   []ProjectRow
	Stats      Stats
	Settings   *SettingsForm
}

// generation tracks issued and applied request stamps for one resource.
type generation struct {
	issued  uint64
	applied uint64
}

func (g *generation) next() uint64 {
	g.issued++
	return g.issued
}

// accept reports whether a response stamped gen may replace current state.
func (g *generation) accept(gen uint64) bool {
	if gen < g.applied {
		return false
	}
	g.applied = gen
	return true
}

type Controller struct {
	api      API
	session  Session
	renderer Renderer
	notifier Notifier
	log      *zap.Logger

	mu       sync.Mutex
	active   Section
	profile  *client.User
	users    []client.User
	projects []client.Project
	settings *SettingsForm

	profileGen  generation
	usersGen    generation
	projectsGen generation
}

func NewController(api API, session Session, renderer Renderer, notifier Notifier, log *zap.Logger) *Controller {
	return &Controller{
		api:      api,
		session:  session,
		renderer: renderer,
		notifier: notifier,
		log:      log,
		active:   SectionOverview,
	}
}

// Init runs the auth gate and, only if it passes, loads profile, users and
// projects before entering the section named by fragment.
func (c *Controller) Init(ctx context.Context, fragment string) error {
	if err := c.session.CheckAuth(client.RoleAdmin); err != nil {
		return err
	}

	c.mu.Lock()
	c.active = ParseSection(fragment)
	c.renderLocked()
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { c.FetchProfile(gctx); return nil })
	g.Go(func() error { c.FetchUsers(gctx); return nil })
	g.Go(func() error { c.FetchProjects(gctx); return nil })
	g.Wait()

	c.Navigate(ctx, ParseSection(fragment))
	return nil
}

// Navigate makes section active and loads what it shows.
func (c *Controller) Navigate(ctx context.Context, section Section) {
	c.mu.Lock()
	c.active = section
	c.renderLocked()
	c.mu.Unlock()

	switch section {
	case SectionUsers:
		c.FetchUsers(ctx)
	case SectionProjects:
		c.FetchProjects(ctx)
	case SectionSettings:
		c.LoadSettings()
	}
}

func (c *Controller) Active() Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Controller) FetchProfile(ctx context.Context) error {
	userID := c.session.State().UserID
	if userID == "" {
		c.signOut("fetch profile", client.ErrUnauthenticated)
		return client.ErrUnauthenticated
	}

	c.mu.Lock()
	gen := c.profileGen.next()
	c.mu.Unlock()

	profile, err := c.api.GetUser(ctx, userID)
	if err != nil {
		c.fail("fetch profile", "Failed to fetch profile", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.profileGen.accept(gen) {
		c.log.Debug("stale profile response dropped", zap.Uint64("generation", gen))
		return nil
	}
	c.profile = profile
	c.renderLocked()
	return nil
}

func (c *Controller) FetchUsers(ctx context.Context) error {
	c.mu.Lock()
	gen := c.usersGen.next()
	c.mu.Unlock()

	users, err := c.api.ListUsers(ctx)
	if err != nil {
		c.fail("fetch users", "Failed to fetch users", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.usersGen.accept(gen) {
		c.log.Debug("stale users response dropped", zap.Uint64("generation", gen))
		return nil
	}
	c.users = users
	c.renderLocked()
	return nil
}

func (c *Controller) FetchProjects(ctx context.Context) error {
	c.mu.Lock()
	gen := c.projectsGen.next()
	c.mu.Unlock()

	projects, err := c.api.ListProjects(ctx)
	if err != nil {
		c.fail("fetch projects", "Failed to fetch projects", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.projectsGen.accept(gen) {
		c.log.Debug("stale projects response dropped", zap.Uint64("generation", gen))
		return nil
	}
	c.projects = projects
	c.renderLocked()
	return nil
}

// LoadSettings fills the settings form from the loaded profile. Without a
// profile there is nothing to edit.
func (c *Controller) LoadSettings() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return
	}
	c.settings = &SettingsForm{Name: c.profile.Name, Email: c.profile.Email}
	c.renderLocked()
}

// AssignProject assigns projectID to userID; an empty userID unassigns.
func (c *Controller) AssignProject(ctx context.Context, projectID, userID string) error {
	if err := c.api.AssignProject(ctx, projectID, userID); err != nil {
		c.fail("assign project", "Failed to assign project", err)
		return err
	}

	c.FetchProjects(ctx)
	if userID != "" {
		c.notifier.Notify("Project assigned successfully")
	} else {
		c.notifier.Notify("Project unassigned successfully")
	}
	return nil
}

func (c *Controller) DeleteProject(ctx context.Context, projectID string) error {
	if err := c.api.DeleteProject(ctx, projectID); err != nil {
		c.fail("delete project", "Failed to delete project", err)
		return err
	}

	c.FetchProjects(ctx)
	c.notifier.Notify("Project deleted successfully")
	return nil
}

type SettingsInput struct {
	Name            string
	Email           string
	CurrentPassword string
	NewPassword     string
}

// UpdateSettings saves the admin's own profile. The password pair is only
// sent when both halves are filled in.
func (c *Controller) UpdateSettings(ctx context.Context, in SettingsInput) error {
	userID := c.session.State().UserID
	if userID == "" {
		c.signOut("update settings", client.ErrUnauthenticated)
		return client.ErrUnauthenticated
	}

	update := client.ProfileUpdate{Name: in.Name, Email: in.Email}
	if in.CurrentPassword != "" && in.NewPassword != "" {
		update.CurrentPassword = in.CurrentPassword
		update.NewPassword = in.NewPassword
	}

	if _, err := c.api.UpdateUser(ctx, userID, update); err != nil {
		message := "Failed to update settings"
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			message = apiErr.Message
		}
		c.fail("update settings", message, err)
		return err
	}

	c.notifier.Notify("Settings updated successfully")
	c.FetchProfile(ctx)
	return nil
}

func (c *Controller) UploadProfileImage(ctx context.Context, filename string, image io.Reader) error {
	userID := c.session.State().UserID
	if userID == "" {
		c.signOut("upload profile image", client.ErrUnauthenticated)
		return client.ErrUnauthenticated
	}

	if _, err := c.api.UploadProfileImage(ctx, userID, filename, image); err != nil {
		c.fail("upload profile image", "Failed to upload profile image", err)
		return err
	}

	c.FetchProfile(ctx)
	return nil
}

// ViewUserProjects tells the user which projects userID holds.
func (c *Controller) ViewUserProjects(userID string) []string {
	c.mu.Lock()
	names := UserProjects(c.projects, userID)
	var user *client.User
	for i := range c.users {
		if c.users[i].ID == userID {
			user = &c.users[i]
			break
		}
	}
	c.mu.Unlock()

	if user != nil {
		c.notifier.Notify(userProjectsMessage(user.Name, names))
	}
	return names
}

// View returns the current view without rendering it.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	v := View{
		Active:     c.active,
		Navigation: RenderNavigation(c.active),
		Profile:    c.profile,
		Users:      RenderUsers(c.users),
		Projects:   RenderProjects(c.projects, c.users),
		Stats:      ComputeStats(c.users, c.projects),
	}
	if c.settings != nil {
		form := *c.settings
		v.Settings = &form
	}
	return v
}

func (c *Controller) renderLocked() {
	if c.renderer != nil {
		c.renderer.Render(c.viewLocked())
	}
}

// fail logs err and tells the user. State is left as it was. A rejected
// token ends the session instead.
func (c *Controller) fail(op, message string, err error) {
	if errors.Is(err, client.ErrUnauthorized) {
		c.signOut(op, err)
		return
	}
	c.log.Warn(op+" failed", zap.Error(err))
	c.notifier.Notify(message)
}

// signOut clears the stored session and sends the user to the login page.
func (c *Controller) signOut(op string, err error) {
	c.log.Warn(op+" rejected, signing out", zap.Error(err))
	if lerr := c.session.Logout(); lerr != nil {
		c.log.Error("clearing session", zap.Error(lerr))
	}
}
