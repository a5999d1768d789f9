package main

import (
	"github.com/albeorla/task-pri-lite-sub001/internal/config"
	"github.com/albeorla/task-pri-lite-sub001/internal/dispatch"
	"github.com/spf13/cobra"
)

func newAuthCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize external services",
	}
	cmd.AddCommand(newAuthCalendarCmd(opts))
	return cmd
}

func newAuthCalendarCmd(opts *globalOptions) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Authorize Google Calendar access",
		Long: `Authorize taskpri to add events to Google Calendar.

Run without --code to print the consent URL, then run again with the code
shown after granting access. The token is saved to dispatch.token_file.
The OAuth client comes from dispatch.credentials_file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithFile(opts.configPath)
			if err != nil {
				return err
			}
			oauthCfg, err := dispatch.OAuthConfig(cfg.Dispatch.CredentialsFile)
			if err != nil {
				return err
			}
			if code == "" {
				cmd.Println("Open this URL, grant access, then rerun with --code:")
				cmd.Println(dispatch.AuthURL(oauthCfg))
				return nil
			}
			if err := dispatch.ExchangeAndSave(cmd.Context(), oauthCfg, code, cfg.Dispatch.TokenFile); err != nil {
				return err
			}
			cmd.Printf("token saved to %s\n", cfg.Dispatch.TokenFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "authorization code from the consent page")
	return cmd
}
