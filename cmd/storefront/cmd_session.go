package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luther0929/Fake-Store/session"
)

func newSignInCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := session.New(a.client, session.WithLogger(a.logger.Named("session")))
			user, err := mgr.SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := a.saveToken(mgr.Token()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", user.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSignUpCmd(a *app) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := session.New(a.client, session.WithLogger(a.logger.Named("session")))
			user, err := mgr.SignUp(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			if err := a.saveToken(mgr.Token()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", user.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSignOutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.saveToken(""); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newProfileCmd(a *app) *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Manage the account profile",
	}

	var name, password string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change the account name and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.restore(cmd, nil)
			if err != nil {
				return err
			}
			user, err := mgr.UpdateProfile(cmd.Context(), name, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated for %s\n", user.Name)
			return nil
		},
	}
	update.Flags().StringVar(&name, "name", "", "new display name")
	update.Flags().StringVar(&password, "password", "", "new password")
	_ = update.MarkFlagRequired("name")
	_ = update.MarkFlagRequired("password")

	profile.AddCommand(update)
	return profile
}

// restore resumes the stored session, attaching opts to the manager.
func (a *app) restore(cmd *cobra.Command, opts []session.Option) (*session.Manager, error) {
	opts = append([]session.Option{session.WithLogger(a.logger.Named("session"))}, opts...)
	mgr := session.New(a.client, opts...)
	if err := mgr.Restore(cmd.Context(), a.cfg.Session.Token); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) || errors.Is(err, session.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: run storefront signin", err)
		}
		return nil, err
	}
	return mgr, nil
}
