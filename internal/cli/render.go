package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/vedran77/projectdesk/internal/client"
	"github.com/vedran77/projectdesk/internal/dashboard"
)

// terminal is the dashboard's Renderer, Notifier and Navigator for a
// terminal. It keeps the latest view and prints it on demand, or on every
// render when live.
type terminal struct {
	mu   sync.Mutex
	out  io.Writer
	last dashboard.View
	live bool
}

func newTerminal(out io.Writer) *terminal {
	return &terminal{out: out}
}

func (t *terminal) Render(v dashboard.View) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = v
	if t.live {
		printView(t.out, v)
	}
}

func (t *terminal) Notify(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, "» "+strings.ReplaceAll(message, "\n", "\n  "))
}

func (t *terminal) Redirect(page string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if page == client.LoginPage {
		fmt.Fprintln(t.out, "Not signed in as an admin. Run `use-token <token>` to sign in.")
		return
	}
	fmt.Fprintln(t.out, "→ "+page)
}

func (t *terminal) setLive(live bool) {
	t.mu.Lock()
	t.live = live
	t.mu.Unlock()
}

func (t *terminal) flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	printView(t.out, t.last)
}

func printView(out io.Writer, v dashboard.View) {
	var nav []string
	for _, item := range v.Navigation {
		if item.Active {
			nav = append(nav, "["+item.Title+"]")
		} else {
			nav = append(nav, item.Title)
		}
	}
	if len(nav) > 0 {
		fmt.Fprintln(out, strings.Join(nav, "  "))
	}
	if v.Profile != nil {
		fmt.Fprintf(out, "Signed in as %s <%s>\n", v.Profile.Name, v.Profile.Email)
	}
	fmt.Fprintln(out)

	switch v.Active {
	case dashboard.SectionUsers:
		printUsers(out, v.Users)
	case dashboard.SectionProjects:
		printProjects(out, v.Projects)
	case dashboard.SectionSettings:
		printSettings(out, v.Settings)
	default:
		printStats(out, v.Stats)
	}
}

func printStats(out io.Writer, s dashboard.Stats) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Total users\t%d\n", s.TotalUsers)
	fmt.Fprintf(w, "Total projects\t%d\n", s.TotalProjects)
	fmt.Fprintf(w, "Active projects\t%d\n", s.ActiveProjects)
	w.Flush()
}

func printUsers(out io.Writer, rows []dashboard.UserRow) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tROLE\tSTATUS\tID")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Name, r.Email, r.Role, r.Status, r.ID)
	}
	w.Flush()
}

func printProjects(out io.Writer, rows []dashboard.ProjectRow) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tASSIGNEE\tSTATUS\tSTART\tID")
	for _, r := range rows {
		start := r.StartDate
		if start == "" {
			start = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Name, r.Assignee, r.Status, start, r.ID)
	}
	w.Flush()
}

func printSettings(out io.Writer, form *dashboard.SettingsForm) {
	if form == nil {
		fmt.Fprintln(out, "Profile not loaded.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Name\t%s\n", form.Name)
	fmt.Fprintf(w, "Email\t%s\n", form.Email)
	w.Flush()
}
