package dashboard

import (
	"context"
	"io"
	"sync"

	"github.com/vedran77/projectdesk/internal/client"
)

type fakeAPI struct {
	mu sync.Mutex

	profile  client.User
	users    []client.User
	projects []client.Project

	// listProjects, when set, replaces the canned ListProjects answer.
	listProjects func(ctx context.Context) ([]client.Project, error)

	assignErr error
	deleteErr error
	updateErr error
	uploadErr error
	usersErr  error

	calls   map[string]int
	assigns [][2]string
	updates []client.ProfileUpdate
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(map[string]int)}
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) GetUser(_ context.Context, id string) (*client.User, error) {
	f.hit("GetUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.profile
	return &p, nil
}

func (f *fakeAPI) ListUsers(_ context.Context) ([]client.User, error) {
	f.hit("ListUsers")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return append([]client.User(nil), f.users...), nil
}

func (f *fakeAPI) ListProjects(ctx context.Context) ([]client.Project, error) {
	f.hit("ListProjects")
	if f.listProjects != nil {
		return f.listProjects(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.Project(nil), f.projects...), nil
}

func (f *fakeAPI) AssignProject(_ context.Context, projectID, userID string) error {
	f.hit("AssignProject")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assignErr != nil {
		return f.assignErr
	}
	f.assigns = append(f.assigns, [2]string{projectID, userID})
	for i := range f.projects {
		if f.projects[i].ID != projectID {
			continue
		}
		f.projects[i].Assignee = nil
		for _, u := range f.users {
			if u.ID == userID {
				f.projects[i].Assignee = &client.Assignee{ID: u.ID, Name: u.Name, Email: u.Email}
			}
		}
	}
	return nil
}

func (f *fakeAPI) DeleteProject(_ context.Context, projectID string) error {
	f.hit("DeleteProject")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.projects[:0]
	for _, p := range f.projects {
		if p.ID != projectID {
			kept = append(kept, p)
		}
	}
	f.projects = kept
	return nil
}

func (f *fakeAPI) UpdateUser(_ context.Context, id string, update client.ProfileUpdate) (*client.User, error) {
	f.hit("UpdateUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates = append(f.updates, update)
	f.profile.Name = update.Name
	f.profile.Email = update.Email
	p := f.profile
	return &p, nil
}

func (f *fakeAPI) UploadProfileImage(_ context.Context, id, filename string, image io.Reader) (string, error) {
	f.hit("UploadProfileImage")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.profile.ProfileImage = "/img/" + filename
	return f.profile.ProfileImage, nil
}

type staticSession struct {
	state client.SessionState
}

func (s staticSession) CheckAuth(role string) error {
	if s.state.Token == "" || s.state.Role != role {
		return client.ErrUnauthenticated
	}
	return nil
}

func (s staticSession) State() client.SessionState { return s.state }

func (s staticSession) Logout() error { return nil }

type recordingRenderer struct {
	mu    sync.Mutex
	views []View
}

func (r *recordingRenderer) Render(v View) {
	r.mu.Lock()
	r.views = append(r.views, v)
	r.mu.Unlock()
}

func (r *recordingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(m string) {
	n.mu.Lock()
	n.messages = append(n.messages, m)
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type recordingNav struct{ pages []string }

func (n *recordingNav) Redirect(page string) { n.pages = append(n.pages, page) }
