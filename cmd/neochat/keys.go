package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
}

var keysValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Probe every configured API key against the provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		validated, err := client.ValidateKeys(cmd.Context())
		if err != nil {
			return err
		}
		for _, k := range validated {
			status := "valid"
			switch {
			case !k.Valid:
				status = "invalid"
			case k.Exhausted:
				status = "quota exhausted"
			}
			fmt.Printf("  %-10s %s\n", k.Name, status)
		}
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysValidateCmd)
	rootCmd.AddCommand(keysCmd)
}
