package cmds

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aerialworks/skylaunch/pkg/registry"
)

type rootOptions struct {
	Root    string
	Config  string
	Timeout time.Duration
}

func AddRootFlags(root *cobra.Command) {
	addRootFlags(root.PersistentFlags())
}

func addRootFlags(flags *pflag.FlagSet) {
	flags.String("install-root", "", "Install root containing node binaries (defaults to current directory)")
	flags.String("config", "", "Path to registry config (defaults to .skylaunch.yaml under install-root)")
	flags.Duration("timeout", 30*time.Second, "Timeout for stop operations")
	flags.String("log-level", "info", "Log level (trace|debug|info|warn|error)")
}

func getRootOptions(cmd *cobra.Command) (rootOptions, error) {
	root, err := cmd.Root().PersistentFlags().GetString("install-root")
	if err != nil {
		return rootOptions{}, err
	}
	if root == "" {
		root, err = os.Getwd()
		if err != nil {
			return rootOptions{}, err
		}
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return rootOptions{}, err
	}

	cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return rootOptions{}, err
	}
	if cfgPath == "" {
		cfgPath = registry.DefaultPath(root)
	} else if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(root, cfgPath)
	}

	timeout, err := cmd.Root().PersistentFlags().GetDuration("timeout")
	if err != nil {
		return rootOptions{}, err
	}
	if timeout <= 0 {
		return rootOptions{}, errors.New("timeout must be > 0")
	}

	return rootOptions{
		Root:    root,
		Config:  cfgPath,
		Timeout: timeout,
	}, nil
}
