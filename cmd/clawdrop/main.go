package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/raccreative/clawdrop/internal/config"
	"github.com/raccreative/clawdrop/internal/syncerr"
	"github.com/raccreative/clawdrop/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "clawdrop",
		Short:         "Upload game builds to Raccreative Games",
		Version:       version.Detailed(),
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "info", "Console log level: debug, info, warn, error")
	root.PersistentFlags().String("server", config.DefaultServerURL, "Raccreative Games server")
	root.PersistentFlags().Lookup("server").Hidden = true
	mustBind(v.BindPFlag(config.KeyLogLevel, root.PersistentFlags().Lookup("log-level")))
	mustBind(v.BindPFlag(config.KeyServerURL, root.PersistentFlags().Lookup("server")))

	root.AddCommand(
		newPushCmd(v),
		newSetCmd(v),
		newUnsetCmd(v),
		newListCmd(v),
		newWhereisCmd(),
		newVersionCmd(),
	)
	return root
}

// mustBind fails on a flag that was never registered.
func mustBind(err error) {
	if err != nil {
		panic(fmt.Sprintf("bind flag: %v", err))
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	v := viper.New()
	config.SetDefaults(v, config.Dir())

	root := newRootCmd(v)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, "Interrupted.")
		return 130
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	if hint := syncerr.Hint(err); hint != "" {
		fmt.Fprintln(stderr, hint)
	}
	return 1
}
