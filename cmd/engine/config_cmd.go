package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path, err := userConfigPath(dataDir)
	if err != nil {
		return err
	}
	_, res, err := loadConfig(path, os.Getenv)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	return res.Err()
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := userConfigPath(dataDir)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), abs)
	return err
}
