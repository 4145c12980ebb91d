package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/retail-chat-dashboard/internal/dashboard"
	"github.com/tbourn/retail-chat-dashboard/internal/gateway"
	"github.com/tbourn/retail-chat-dashboard/internal/mailrelay"
	"github.com/tbourn/retail-chat-dashboard/internal/session"
)

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Remember a login so the dashboard opens without prompting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			store, userID, err := openSession(cmdContext(cmd), cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if _, err := session.NewManager(store).Login(cmdContext(cmd)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", userID)
			return nil
		},
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			store, _, err := openSession(cmdContext(cmd), cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := session.NewManager(store).Logout(cmdContext(cmd)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// mailCmd asks the gateway to relay a mail or hand back a compose link.
func (a *app) mailCmd() *cobra.Command {
	var req gateway.MailRequest
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Send a report by mail through the gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			store, userID, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client := newClient(cfg, userID)
			if !client.Health(ctx) {
				return dashboard.ErrDisconnected
			}
			res, err := client.TriggerMail(ctx, req)
			if err != nil {
				return errors.New(gateway.UserMessage(err, err.Error()))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status: %s\n", res.Status)
			if res.ComposeURL != "" {
				fmt.Fprintf(out, "compose: %s\n", res.ComposeURL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.To, "to", "", "recipient address")
	cmd.Flags().StringVar(&req.Subject, "subject", "", "subject")
	cmd.Flags().StringVar(&req.Body, "body", "", "body")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// relayCmd posts straight to a mail webhook and prints the status strings
// as they happen.
func (a *app) relayCmd() *cobra.Command {
	var msg mailrelay.Message
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Post an e-mail to a webhook without the gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			relay := mailrelay.New(cfg.Mail.WebhookURL, cfg.Mail.Timeout)
			out := cmd.OutOrStdout()
			_, err = relay.Deliver(cmdContext(cmd), msg, func(status string) {
				fmt.Fprintln(out, status)
			})
			return err
		},
	}
	f := cmd.Flags()
	f.String("webhook", "", "webhook URL (or mail.webhook_url)")
	f.Duration("mail-timeout", 0, "webhook request timeout")
	f.StringVar(&msg.To, "to", "", "recipient address")
	f.StringVar(&msg.Subject, "subject", "", "subject")
	f.StringVar(&msg.Message, "message", "", "message body")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
