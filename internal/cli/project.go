package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpggio/gitlink/internal/domain/project"
)

func newProjectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage registered projects",
	}
	cmd.AddCommand(
		newProjectAddCommand(),
		newProjectListCommand(),
		newProjectShowCommand(),
		newProjectRemoveCommand(),
	)
	return cmd
}

func newProjectAddCommand() *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Register a git worktree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			a, err := rt.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			proj, err := a.Projects.Add(cmd.Context(), project.AddRequest{
				Path:        args[0],
				Title:       title,
				Description: description,
			})
			if err != nil {
				return err
			}
			if rt.outputFormat != formatTable {
				return writeObject(rt.out, rt.outputFormat, newProjectView(proj))
			}
			_, _ = fmt.Fprintf(rt.out, "Added project %s (%s)\n", proj.Title, proj.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Display title (default: directory name)")
	cmd.Flags().StringVar(&description, "description", "", "Project description")
	return cmd
}

func newProjectListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			a, err := rt.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			projects, err := a.Projects.List(cmd.Context())
			if err != nil {
				return err
			}
			if rt.outputFormat != formatTable {
				views := make([]projectView, 0, len(projects))
				for _, p := range projects {
					views = append(views, newProjectView(p))
				}
				return writeObject(rt.out, rt.outputFormat, views)
			}
			if len(projects) == 0 {
				_, _ = fmt.Fprintln(rt.out, "No projects")
				return nil
			}
			writeProjectTable(rt.out, projects)
			return nil
		},
	}
}

func newProjectShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project with its effective settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			a, err := rt.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			proj, err := a.Projects.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view := newProjectView(proj)
			if rt.outputFormat != formatTable {
				return writeObject(rt.out, rt.outputFormat, view)
			}
			writeProjectDetails(rt.out, view)
			return nil
		},
	}
}

func newProjectRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <project-id>",
		Aliases: []string{"rm"},
		Short:   "Forget a project and its stored token",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			a, err := rt.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Links.Unlink(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := a.Projects.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.out, "Removed project %s\n", args[0])
			return nil
		},
	}
}
