// Package builtin provides the Django project management tasks that ship
// with taskgate.
package builtin

import (
	"github.com/felixgeelhaar/taskgate/internal/task"
)

// Source is the Task.Source of every built-in task.
const Source = "builtin"

var appParam = task.Param{Name: "app", Description: "Django app name", Required: true}

// Tasks returns fresh copies of the built-in tasks.
func Tasks() []*task.Task {
	return []*task.Task{
		// Database management
		{
			Name:        "syncdb",
			Description: "Run a syncdb",
			Plan:        task.Static(task.Cmd("{run} syncdb --noinput")),
		},
		{
			Name:        "migrate",
			Description: "Apply migrations for one app, or site-wide when no app is given",
			Params:      []task.Param{{Name: "app", Description: "Django app name to migrate"}},
			Plan:        migrate,
		},
		{
			Name:        "south_init",
			Description: "Create the initial South schema migration for an app",
			Params:      []task.Param{appParam},
			Plan:        task.Static(task.Cmd("{run} schemamigration {app} --initial")),
		},
		{
			Name:        "south_update",
			Description: "Create an automatic South schema migration for an app",
			Params:      []task.Param{appParam},
			Plan:        task.Static(task.Cmd("{run} schemamigration {app} --auto")),
		},

		// File management
		{
			Name:        "collectstatic",
			Description: "Collect all static files",
			Plan:        task.Static(task.Cmd("{run} collectstatic --noinput")),
		},
		{
			Name:        "compress",
			Description: "Compress css and javascript files",
			Plan:        task.Static(task.Cmd("{run} compress")),
		},

		// Project management
		{
			Name:        "initialize",
			Description: "Initialize the local project after startproject",
			Plan: task.Static(
				task.Cmd("rm -rf docs README.md"),
				task.Cmd("echo /{project_name}/static >> .gitignore").Named("ignore static"),
				task.Cmd("echo /{project_name}/media >> .gitignore").Named("ignore media"),
				task.Gated("git flow init -d", "Couldn't initialize git flow. Continue anyway?"),
				task.Cmd("git add ."),
				task.Gated("git commit -m 'First commit'", "Couldn't create the first commit. Continue anyway?").Named("git commit"),
			),
		},
		{
			Name:        "startapp",
			Description: "Start a new Django app on its own git flow feature branch",
			Params:      []task.Param{appParam},
			Plan: task.Static(
				task.Gated("git flow feature start {app}", "Couldn't start the git flow feature. Continue anyway?").Named("git flow feature"),
				task.Cmd("mkdir -p {project_name}/apps/{app}").Named("mkdir app"),
				task.Cmd("{run} startapp {app} {project_name}/apps/{app}").Named("startapp"),
			),
		},
	}
}

func migrate(args task.Args) []task.Step {
	if args.Has("app") {
		return []task.Step{task.Cmd("{run} migrate {app} --noinput").Named("migrate")}
	}
	return []task.Step{task.Cmd("{run} migrate --noinput").Named("migrate")}
}

// Register adds every built-in task to r.
func Register(r *task.Registry) error {
	tasks := Tasks()
	for _, t := range tasks {
		t.Source = Source
	}
	return r.Register(tasks...)
}
