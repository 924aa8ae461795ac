package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/localstore"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage collaborative annotation sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new collaborative session for the project",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		s, err := a.gw.CreateSession(ctx, a.cfg.ProjectID)
		if err != nil {
			return err
		}
		localstore.NewCredentials(a.cache, "", "").SetSessionID(s.ID)

		fmt.Printf("session id:   %s\n", s.ID)
		fmt.Printf("create token: %s\n", s.CreateToken)
		fmt.Println("attach with: canary annotate <batch-id> --create-token <token>")
		return nil
	},
}

var sessionInviteCmd = &cobra.Command{
	Use:   "invite [session-id]",
	Short: "Mint a single-use join token for a collaborator",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sessionID := ""
		if len(args) == 1 {
			sessionID = args[0]
		} else {
			sessionID = localstore.NewCredentials(a.cache, "", "").SessionID()
		}
		if sessionID == "" {
			return fmt.Errorf("no session id given and none persisted; run session create first")
		}

		token, err := a.gw.SessionJoinToken(cmd.Context(), sessionID)
		if err != nil {
			return err
		}
		fmt.Printf("join token for session %s: %s\n", sessionID, token)
		return nil
	},
}

var sessionLeaveCmd = &cobra.Command{
	Use:   "leave",
	Short: "Forget the persisted session id",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		localstore.NewCredentials(a.cache, "", "").SetSessionID("")
		fmt.Println("session forgotten")
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionInviteCmd)
	sessionCmd.AddCommand(sessionLeaveCmd)
	rootCmd.AddCommand(sessionCmd)
}
