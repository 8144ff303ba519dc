package dashboard

import (
	"strings"

	"github.com/vedran77/projectdesk/internal/client"
)

type Section string

const (
	SectionOverview Section = "overview"
	SectionUsers    Section = "users"
	SectionProjects Section = "projects"
	SectionSettings Section = "settings"
)

const (
	DefaultAvatar     = "default-avatar.png"
	StatusInProgress  = "IN_PROGRESS"
	unassignedOption  = "Unassigned"
	noProjectsMessage = "No projects assigned"
)

type NavItem struct {
	Section Section
	Title   string
	Icon    string
	Active  bool
}

var sections = []NavItem{
	{Section: SectionOverview, Title: "Overview", Icon: "chart-pie"},
	{Section: SectionUsers, Title: "Users Management", Icon: "users"},
	{Section: SectionProjects, Title: "Projects Management", Icon: "project-diagram"},
	{Section: SectionSettings, Title: "Settings", Icon: "cog"},
}

// ParseSection maps a page fragment ("#users", "projects", "") to a
// section. Anything unknown is the overview.
func ParseSection(fragment string) Section {
	s := Section(strings.TrimPrefix(strings.TrimSpace(fragment), "#"))
	for _, item := range sections {
		if item.Section == s {
			return s
		}
	}
	return SectionOverview
}

func RenderNavigation(active Section) []NavItem {
	items := make([]NavItem, len(sections))
	for i, item := range sections {
		item.Active = item.Section == active
		items[i] = item
	}
	return items
}

type UserRow struct {
	ID     string
	Name   string
	Email  string
	Role   string
	Status string
	Avatar string
}

func RenderUsers(users []client.User) []UserRow {
	rows := make([]UserRow, 0, len(users))
	for _, u := range users {
		row := UserRow{
			ID:     u.ID,
			Name:   u.Name,
			Email:  u.Email,
			Role:   u.Role,
			Status: "Inactive",
			Avatar: u.ProfileImage,
		}
		if u.IsActive {
			row.Status = "Active"
		}
		if row.Avatar == "" {
			row.Avatar = DefaultAvatar
		}
		rows = append(rows, row)
	}
	return rows
}

// AssigneeOption is one entry of a project's assignee picker. The empty
// value means unassigned.
type AssigneeOption struct {
	Value    string
	Label    string
	Selected bool
}

type ProjectRow struct {
	ID        string
	Name      string
	Status    string
	StartDate string
	Assignee  string
	Options   []AssigneeOption
}

// RenderProjects builds project rows with an assignee picker listing every
// known user.
func RenderProjects(projects []client.Project, users []client.User) []ProjectRow {
	rows := make([]ProjectRow, 0, len(projects))
	for _, p := range projects {
		assigneeID := ""
		if p.Assignee != nil {
			assigneeID = p.Assignee.ID
		}

		options := make([]AssigneeOption, 0, len(users)+1)
		options = append(options, AssigneeOption{Label: unassignedOption, Selected: assigneeID == ""})
		for _, u := range users {
			options = append(options, AssigneeOption{Value: u.ID, Label: u.Name, Selected: u.ID == assigneeID})
		}

		row := ProjectRow{
			ID:       p.ID,
			Name:     p.Name,
			Status:   p.Status,
			Assignee: unassignedOption,
			Options:  options,
		}
		if !p.StartDate.IsZero() {
			row.StartDate = p.StartDate.Format("2006-01-02")
		}
		if p.Assignee != nil {
			row.Assignee = p.Assignee.Name
		}
		rows = append(rows, row)
	}
	return rows
}

type Stats struct {
	TotalUsers     int
	TotalProjects  int
	ActiveProjects int
}

func ComputeStats(users []client.User, projects []client.Project) Stats {
	s := Stats{TotalUsers: len(users), TotalProjects: len(projects)}
	for _, p := range projects {
		if p.Status == StatusInProgress {
			s.ActiveProjects++
		}
	}
	return s
}

// UserProjects lists the names of projects assigned to userID.
func UserProjects(projects []client.Project, userID string) []string {
	var names []string
	for _, p := range projects {
		if p.Assignee != nil && p.Assignee.ID == userID {
			names = append(names, p.Name)
		}
	}
	return names
}

func userProjectsMessage(name string, projects []string) string {
	body := noProjectsMessage
	if len(projects) > 0 {
		body = strings.Join(projects, "\n")
	}
	return "Projects for " + name + ":\n" + body
}
