package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/form-filler/internal/config"
	"github.com/jonathan/form-filler/internal/server"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for an API client",
	Long:  "Sign a bearer token for the fill API with JWT_SECRET. Without --client-id a new client id is generated.",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

var tokenClientID string

func init() {
	tokenCmd.Flags().StringVar(&tokenClientID, "client-id", "", "Client UUID to embed in the token")

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	jwtConfig, err := config.NewJWTConfigWithSecret(appConfig.JWTSecret)
	if err != nil {
		return err
	}

	clientID := uuid.New()
	if tokenClientID != "" {
		clientID, err = uuid.Parse(tokenClientID)
		if err != nil {
			return fmt.Errorf("invalid --client-id: %w", err)
		}
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(clientID)
	if err != nil {
		return err
	}

	if appConfig.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "client_id: %s\nexpires in: %dh\n", clientID, jwtConfig.ExpirationHours)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
