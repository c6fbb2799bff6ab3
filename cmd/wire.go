package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tgruber/ncusers/internal/adapters/ocs"
	"github.com/tgruber/ncusers/internal/ports"
)

const (
	configKeyServerURL = "server.url"
	configKeyInsecure  = "server.insecure"
	configKeyGroup     = "create.group"
)

type app struct {
	config    *viper.Viper
	newClient func(baseURL string, opts ocs.Options) (*ocs.Client, error)
	clock     ports.Clock
}

func wireApp() (*app, error) {
	cfg := viper.New()
	cfg.SetConfigName("config")
	cfg.SetConfigType("toml")

	if configDir, err := os.UserConfigDir(); err == nil {
		cfg.AddConfigPath(filepath.Join(configDir, "ncu"))
	}

	cfg.SetDefault(configKeyServerURL, "")
	cfg.SetDefault(configKeyInsecure, false)
	cfg.SetDefault(configKeyGroup, "")

	cfg.SetEnvPrefix("NCU")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &app{
		config:    cfg,
		newClient: ocs.NewClient,
		clock:     ports.SystemClock{},
	}, nil
}

// connectionFlags carry everything needed to reach the server; unset values
// fall back to the config file and NCU_* environment variables.
type connectionFlags struct {
	server   string
	admin    string
	password string
	insecure bool
	debug    bool
}

func addConnectionFlags(cmd *cobra.Command, flags *connectionFlags) {
	cmd.Flags().StringVar(&flags.server, "server", "", "Server base URL (default from config server.url)")
	cmd.Flags().StringVar(&flags.admin, "admin", "", "Admin user ID")
	cmd.Flags().StringVar(&flags.password, "password", "", "Admin password (prompted when omitted)")
	cmd.Flags().BoolVar(&flags.insecure, "insecure", false, "Skip TLS certificate verification")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Trace OCS requests to stderr")
}

// connect builds an unauthenticated client from flags and config; callers
// decide how (spinner or plain) to run the login probe.
func (a *app) connect(cmd *cobra.Command, flags connectionFlags) (*ocs.Client, connectionFlags, error) {
	if flags.server == "" {
		flags.server = a.config.GetString(configKeyServerURL)
	}
	if flags.server == "" {
		return nil, flags, errors.New("server url is required (--server flag or server.url config)")
	}
	if flags.admin == "" {
		return nil, flags, errors.New("admin user is required (--admin flag)")
	}
	if flags.password == "" {
		password, err := promptPassword(cmd)
		if err != nil {
			return nil, flags, err
		}
		flags.password = password
	}

	insecure := flags.insecure || a.config.GetBool(configKeyInsecure)

	client, err := a.newClient(flags.server, ocs.Options{
		InsecureSkipVerify: insecure,
		Debug:              flags.debug,
		DebugOut:           cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, flags, err
	}

	return client, flags, nil
}

func promptPassword(cmd *cobra.Command) (string, error) {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), "Admin password: ")

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read admin password: %w", err)
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("admin password is required")
	}

	return password, nil
}
