package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/raccreative/clawdrop/internal/config"
	"github.com/raccreative/clawdrop/internal/controlplane"
	"github.com/raccreative/clawdrop/internal/syncerr"
	"github.com/raccreative/clawdrop/internal/target"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSetCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id|url-identifier>",
		Short: "Remember a game as the default push target",
		Long: `Remember a game as the default push target. Later pushes can then omit --id,
and the version is bumped from the one currently published.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			games, err := controlplane.New(cfg.ServerURL, cfg.APIKey).DevelopedGames(cmd.Context())
			if err != nil {
				return err
			}
			game, ok := target.Find(games, args[0])
			if !ok {
				return syncerr.Wrap(syncerr.ErrUnauthorized, "set target",
					fmt.Errorf("game %q is not among the games you develop", args[0]))
			}
			if err := (&target.FileStore{Path: cfg.TargetPath()}).Save(game); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Game '%s' set as default target\n", game.Title)
			return nil
		},
	}
}

func newUnsetCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "unset",
		Short: "Forget the default push target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := &target.FileStore{Path: filepath.Join(v.GetString(config.KeyConfigDir), target.FileName)}
			removed, err := store.Remove()
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintln(cmd.OutOrStdout(), "Target removed")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No target configured.")
			}
			return nil
		},
	}
}

func newListCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the games you develop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			games, err := controlplane.New(cfg.ServerURL, cfg.APIKey).DevelopedGames(cmd.Context())
			if err != nil {
				return err
			}
			printGames(cmd, games)
			return nil
		},
	}
}

const gameRow = "%-10v | %-30s | %-15s | %-15s | %-15s | %-15s | %-15s\n"

func printGames(cmd *cobra.Command, games []target.Game) {
	out := cmd.OutOrStdout()
	if len(games) == 0 {
		fmt.Fprintln(out, "No games found.")
		return
	}

	fmt.Fprintf(out, gameRow, "ID", "Title", "URL Identifier",
		"Windows Version", "Linux Version", "Mac Version", "HTML Version")
	fmt.Fprintf(out, "%s-+-%s-+-%s-+-%s-+-%s-+-%s-+-%s\n",
		dashes(10), dashes(30), dashes(15), dashes(15), dashes(15), dashes(15), dashes(15))
	for _, g := range games {
		fmt.Fprintf(out, gameRow, g.ID, g.Title, orNull(g.URLIdentifier),
			orNull(g.WindowsVersion), orNull(g.LinuxVersion), orNull(g.MacVersion), orNull(g.HTMLVersion))
	}
}

func dashes(n int) string { return strings.Repeat("-", n) }

func orNull(s string) string {
	if s == "" {
		return "null"
	}
	return s
}
