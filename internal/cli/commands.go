package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vedran77/projectdesk/internal/client"
	"github.com/vedran77/projectdesk/internal/dashboard"
)

// errNotAdmin is returned after the auth gate has already told the user
// what to do.
var errNotAdmin = errors.New("admin session required")

type workspace struct {
	session    *client.Session
	api        *client.API
	controller *dashboard.Controller
	term       *terminal
}

func (a *App) open() (*workspace, error) {
	term := newTerminal(a.out)
	session, err := client.OpenSession(a.sessionPath, term)
	if err != nil {
		return nil, err
	}
	api := client.NewAPI(a.apiURL, session)
	return &workspace{
		session:    session,
		api:        api,
		controller: dashboard.NewController(api, session, term, term, a.logger()),
		term:       term,
	}, nil
}

// enter runs the dashboard start-up for section. Nothing is fetched unless
// the session passes the admin gate.
func (a *App) enter(ctx context.Context, section dashboard.Section) (*workspace, error) {
	w, err := a.open()
	if err != nil {
		return nil, err
	}
	if err := w.controller.Init(ctx, "#"+string(section)); err != nil {
		if errors.Is(err, client.ErrUnauthenticated) {
			return nil, errNotAdmin
		}
		return nil, err
	}
	return w, nil
}

func newFlags(name string, a *App) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *App) registerCommand() *Command {
	fs := newFlags("register", a)
	email := fs.String("email", "", "email address")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password (at least 6 characters)")

	return &Command{
		Name:        "register",
		Description: "create an account and store its session",
		Flags:       fs,
		Run: func(ctx context.Context, args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			w, err := a.open()
			if err != nil {
				return err
			}

			resp, err := w.api.Register(ctx, client.RegisterRequest{Email: *email, Name: *name, Password: *password})
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
					for field, msg := range apiErr.Fields {
						fmt.Fprintf(a.out, "  %s: %s\n", field, msg)
					}
				}
				return err
			}

			if err := w.session.Save(client.SessionState{
				Token:     resp.AccessToken,
				UserID:    resp.User.ID,
				Role:      resp.User.Role,
				UserEmail: resp.User.Email,
			}); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Registered %s (role %s)\n", resp.User.Email, resp.User.Role)
			return nil
		},
	}
}

func (a *App) useTokenCommand() *Command {
	return &Command{
		Name:        "use-token",
		Description: "sign in with an issued access token",
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("usage: use-token <token>")
			}
			state, err := stateFromToken(args[0])
			if err != nil {
				return err
			}
			w, err := a.open()
			if err != nil {
				return err
			}
			if err := w.session.Save(state); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed in as %s (role %s)\n", state.UserEmail, state.Role)
			return nil
		},
	}
}

// stateFromToken reads the session fields out of a token without checking
// its signature. The server decides whether the token is any good.
func stateFromToken(token string) (client.SessionState, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return client.SessionState{}, fmt.Errorf("reading token: %w", err)
	}

	str := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}
	state := client.SessionState{
		Token:     token,
		UserID:    str("userId"),
		Role:      str("role"),
		UserEmail: str("email"),
	}
	if state.UserID == "" {
		return client.SessionState{}, errors.New("token carries no user id")
	}
	return state, nil
}

func (a *App) sectionCommand(name, description string) *Command {
	section := dashboard.Section(name)
	return &Command{
		Name:        name,
		Description: description,
		Run: func(ctx context.Context, args []string) error {
			w, err := a.enter(ctx, section)
			if err != nil {
				return err
			}
			w.term.flush()
			return nil
		},
	}
}

func (a *App) userProjectsCommand() *Command {
	return &Command{
		Name:        "user-projects",
		Description: "list the projects assigned to a user",
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("usage: user-projects <user-id>")
			}
			w, err := a.enter(ctx, dashboard.SectionUsers)
			if err != nil {
				return err
			}
			w.controller.ViewUserProjects(args[0])
			return nil
		},
	}
}

func (a *App) assignCommand() *Command {
	return &Command{
		Name:        "assign",
		Description: "assign a project to a user",
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return errors.New("usage: assign <project-id> <user-id>")
			}
			return a.mutateProjects(ctx, func(w *workspace) error {
				return w.controller.AssignProject(ctx, args[0], args[1])
			})
		},
	}
}

func (a *App) unassignCommand() *Command {
	return &Command{
		Name:        "unassign",
		Description: "clear a project's assignee",
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("usage: unassign <project-id>")
			}
			return a.mutateProjects(ctx, func(w *workspace) error {
				return w.controller.AssignProject(ctx, args[0], "")
			})
		},
	}
}

func (a *App) deleteCommand() *Command {
	fs := newFlags("delete", a)
	yes := fs.Bool("yes", false, "do not ask for confirmation")

	return &Command{
		Name:        "delete",
		Description: "delete a project",
		Flags:       fs,
		Run: func(ctx context.Context, args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			if fs.NArg() != 1 {
				return errors.New("usage: delete [-yes] <project-id>")
			}
			projectID := fs.Arg(0)
			if !*yes && !a.confirm("Are you sure you want to delete this project?") {
				fmt.Fprintln(a.out, "Cancelled.")
				return nil
			}
			return a.mutateProjects(ctx, func(w *workspace) error {
				return w.controller.DeleteProject(ctx, projectID)
			})
		},
	}
}

func (a *App) mutateProjects(ctx context.Context, mutate func(*workspace) error) error {
	w, err := a.enter(ctx, dashboard.SectionProjects)
	if err != nil {
		return err
	}
	if err := mutate(w); err != nil {
		return err
	}
	w.term.flush()
	return nil
}

func (a *App) confirm(question string) bool {
	fmt.Fprintf(a.out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(a.in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (a *App) updateProfileCommand() *Command {
	fs := newFlags("update-profile", a)
	name := fs.String("name", "", "new display name (default: unchanged)")
	email := fs.String("email", "", "new email (default: unchanged)")
	current := fs.String("current-password", "", "current password, required with -new-password")
	next := fs.String("new-password", "", "new password")

	return &Command{
		Name:        "update-profile",
		Description: "change the admin's name, email or password",
		Flags:       fs,
		Run: func(ctx context.Context, args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			w, err := a.enter(ctx, dashboard.SectionSettings)
			if err != nil {
				return err
			}

			in := dashboard.SettingsInput{Name: *name, Email: *email, CurrentPassword: *current, NewPassword: *next}
			if form := w.controller.View().Settings; form != nil {
				if in.Name == "" {
					in.Name = form.Name
				}
				if in.Email == "" {
					in.Email = form.Email
				}
			}
			if err := w.controller.UpdateSettings(ctx, in); err != nil {
				return err
			}
			w.controller.LoadSettings()
			w.term.flush()
			return nil
		},
	}
}

func (a *App) uploadImageCommand() *Command {
	return &Command{
		Name:        "upload-image",
		Description: "upload a new profile image",
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("usage: upload-image <file>")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			w, err := a.enter(ctx, dashboard.SectionOverview)
			if err != nil {
				return err
			}
			if err := w.controller.UploadProfileImage(ctx, filepath.Base(args[0]), f); err != nil {
				return err
			}
			if p := w.controller.View().Profile; p != nil {
				fmt.Fprintf(a.out, "Profile image: %s\n", p.ProfileImage)
			}
			return nil
		},
	}
}

func (a *App) watchCommand() *Command {
	return &Command{
		Name:        "watch",
		Description: "follow project changes live",
		Run: func(ctx context.Context, args []string) error {
			w, err := a.enter(ctx, dashboard.SectionProjects)
			if err != nil {
				return err
			}
			w.term.flush()

			url, err := dashboard.WatchURL(w.api.BaseURL(), w.session.Token())
			if err != nil {
				return err
			}
			w.term.setLive(true)
			return w.controller.Watch(ctx, url)
		},
	}
}

func (a *App) logoutCommand() *Command {
	return &Command{
		Name:        "logout",
		Description: "forget the stored session",
		Run: func(ctx context.Context, args []string) error {
			w, err := a.open()
			if err != nil {
				return err
			}
			return w.session.Logout()
		},
	}
}
