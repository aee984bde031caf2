package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/session"
)

var (
	username string
	password string
	confirm  string

	registration tp.Registration

	stdin *bufio.Reader
)

func init() {
	LoginCommand.Flags().StringVarP(&username, "username", "u", "", "username")
	LoginCommand.Flags().StringVarP(&password, "password", "p", "", "password, read from stdin when empty")

	RegisterCommand.Flags().StringVarP(&registration.Username, "username", "u", "", "username")
	RegisterCommand.Flags().StringVarP(&registration.Password, "password", "p", "", "password")
	RegisterCommand.Flags().StringVar(&confirm, "confirm", "", "password confirmation")
	RegisterCommand.Flags().StringVar(&registration.Email, "email", "", "email")
	RegisterCommand.Flags().StringVar(&registration.Phone, "phone", "", "phone number")
	RegisterCommand.Flags().StringVar(&registration.Company, "company", "", "company")

	addCommands(&RootCmd, &LoginCommand, &LogoutCommand, &RegisterCommand, &StatusCommand)
}

var LoginCommand = cobra.Command{
	Use:              "login",
	Short:            "Log in to the backend",
	Long:             "Log in to the backend and keep the session for the next commands",
	PersistentPreRun: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		if username == "" {
			username = prompt(cmd, "username: ")
		}
		if password == "" {
			password = prompt(cmd, "password: ")
		}

		_, err := app.session.Login(cmd.Context(), username, password)
		return err
	},
}

var LogoutCommand = cobra.Command{
	Use:              "logout",
	Short:            "Forget the session",
	Long:             "Forget the session and everything cached about the current user",
	PersistentPreRun: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.session.Logout()
	},
}

var RegisterCommand = cobra.Command{
	Use:              "register",
	Short:            "Create an account",
	Long:             "Create an account on the backend. Log in afterwards.",
	PersistentPreRun: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := app.session.Register(cmd.Context(), registration, confirm)
		return err
	},
}

var StatusCommand = cobra.Command{
	Use:              "status",
	Short:            "Show who is logged in",
	Long:             "Check the stored session against the backend",
	PersistentPreRun: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := app.session.CheckAuthStatus(cmd.Context())
		if err != nil {
			return err
		}
		if view != session.ViewMain {
			cmd.Println("not logged in")
			return nil
		}

		isAdmin, err := app.session.CheckIsAdmin(cmd.Context())
		if err != nil {
			return err
		}
		admin := ""
		if isAdmin {
			admin = " (admin)"
		}
		cmd.Printf("logged in as %s%s\n", app.session.Username(), admin)
		return nil
	},
}

func prompt(cmd *cobra.Command, label string) string {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	if stdin == nil {
		stdin = bufio.NewReader(cmd.InOrStdin())
	}
	line, _ := stdin.ReadString('\n')
	return strings.TrimSpace(line)
}
