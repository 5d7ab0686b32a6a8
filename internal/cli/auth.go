package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/rpggio/gitlink/internal/domain/link"
)

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Link projects to GitHub",
	}
	cmd.AddCommand(
		newAuthLoginCommand(),
		newAuthStatusCommand(),
		newAuthLogoutCommand(),
	)
	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login <project-id>",
		Short: "Link a project with the GitHub device flow",
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			flow, err := a.Links.Start(ctx, args[0])
			if err != nil {
				return err
			}
			uri := flow.VerificationURI
			if uri == "" {
				uri = rt.cfg.GitHub.BaseURL + "/login/device"
			}
			_, _ = fmt.Fprintf(rt.out, "Open %s and enter the code %s\n", uri, flow.UserCode)
			_, _ = fmt.Fprintln(rt.out, "Waiting for authorization...")

			flow, err = a.Links.Wait(ctx, flow.ID)
			if err != nil {
				return err
			}
			if flow.State != link.StateLinked {
				return fmt.Errorf("authorization failed: %s", flow.Reason)
			}
			if flow.Login != "" {
				_, _ = fmt.Fprintf(rt.out, "Linked as %s\n", flow.Login)
			} else {
				_, _ = fmt.Fprintln(rt.out, "Linked")
			}
			return nil
		},
	}
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <project-id>",
		Short: "Show whether a project has a stored GitHub token",
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

			linked, err := a.Links.Linked(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rt.outputFormat != formatTable {
				return writeObject(rt.out, rt.outputFormat, authStatusView{ProjectID: args[0], Linked: linked})
			}
			if linked {
				_, _ = fmt.Fprintln(rt.out, "Linked")
			} else {
				_, _ = fmt.Fprintln(rt.out, "Not linked")
			}
			return nil
		},
	}
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <project-id>",
		Short: "Delete the stored GitHub token of a project",
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

			if err := a.Links.Unlink(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(rt.out, "Logged out")
			return nil
		},
	}
}
