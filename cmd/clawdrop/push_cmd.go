package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/raccreative/clawdrop/internal/config"
	"github.com/raccreative/clawdrop/internal/controlplane"
	"github.com/raccreative/clawdrop/internal/logging"
	"github.com/raccreative/clawdrop/internal/push"
	"github.com/raccreative/clawdrop/internal/syncerr"
	"github.com/raccreative/clawdrop/internal/target"
	"github.com/raccreative/clawdrop/internal/transfer"
	"github.com/raccreative/clawdrop/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPushCmd(v *viper.Viper) *cobra.Command {
	var (
		args push.Args
		id   uint64
	)

	cmd := &cobra.Command{
		Use:   "push [id:os/exe:version]",
		Short: "Upload a new build of an existing game",
		Long: `Upload a new build of an existing game. The build must be unzipped and ready to play.

Only files that changed since the last push are uploaded, files that no longer
exist are removed. The optional argument is a shorthand for --id, --os, --exe and
--version, e.g. 32:windows/game.exe:1.0.1 (id and version optional).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			if len(pos) == 1 {
				args.Shorthand = pos[0]
			}
			if cmd.Flags().Changed("id") {
				args.ID = &id
			}
			path, err := utils.ResolvePath(args.Path)
			if err != nil {
				return syncerr.Validation("build path: %w", err)
			}
			if !utils.DirExists(path) {
				return syncerr.Validation("build directory %s does not exist", path)
			}
			args.Path = path

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			closer, err := logging.Setup(logging.Options{
				Level:    cfg.LogLevel,
				FilePath: cfg.LogFilePath(),
				Console:  cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}
			defer closer.Close()

			slog.Debug("config", "file", cfg.Path, "dir", cfg.Dir, "server", cfg.ServerURL,
				"api_key", utils.MaskSecret(cfg.APIKey), "concurrency", cfg.Concurrency)

			cmd.SilenceUsage = true
			res, err := newPusher(cfg).Run(cmd.Context(), args)
			if err != nil {
				return err
			}
			printResult(cmd, res)
			return nil
		},
	}

	f := cmd.Flags()
	f.SortFlags = false
	f.Uint64Var(&id, "id", 0, "The numeric id of the game, optional if a target is set")
	f.StringVar(&args.OS, "os", "", "Operating system of the build: windows | mac | linux | html")
	f.StringVar(&args.Exe, "exe", "", "Name of the executable (example: game.exe), written to manifest.json")
	f.StringVar(&args.Version, "version", "", "Version string (example: 1.0.1), bumped from the target when omitted")
	f.StringVar(&args.Path, "path", ".", "Path to the build directory")
	f.StringArrayVar(&args.Ignore, "ignore", nil, "Glob of files to leave out, repeatable (example: --ignore '*.json')")
	f.BoolVar(&args.NoBump, "no-bump", false, "Keep the target version instead of bumping it")
	f.BoolVar(&args.Force, "force", false, "Upload every file even when nothing changed")
	f.Int("concurrency", config.DefaultConcurrency, "Parallel uploads")
	mustBind(v.BindPFlag(config.KeyConcurrency, f.Lookup("concurrency")))

	return cmd
}

func newPusher(cfg *config.Config) *push.Pusher {
	return &push.Pusher{
		ControlPlane: controlplane.New(cfg.ServerURL, cfg.APIKey),
		Targets:      &target.FileStore{Path: cfg.TargetPath()},
		NewStore: func(ctx context.Context, creds transfer.ScopedCredentials) (transfer.ObjectStore, error) {
			return transfer.NewS3Client(ctx, creds, transfer.ClientOptions{Endpoint: cfg.S3Endpoint})
		},
		Observer:    transfer.NewLogObserver(slog.Default(), time.Second),
		Concurrency: cfg.Concurrency,
	}
}

func printResult(cmd *cobra.Command, res *push.Result) {
	out := cmd.OutOrStdout()
	if res.NothingToDo {
		fmt.Fprintln(out, "No changes to upload or delete, you can use --force to upload everything.")
		return
	}
	fmt.Fprintf(out, "Published %s version %s (%s)\n", res.Params.OS, res.Params.Version, res.FileName)
	fmt.Fprintf(out, "  new: %d  modified: %d  removed: %d\n",
		len(res.Diff.Added), len(res.Diff.Modified), res.DeletedFiles)
	fmt.Fprintf(out, "  uploaded %d files, %s\n", res.UploadedFiles, humanize.IBytes(uint64(res.UploadedBytes)))
}
