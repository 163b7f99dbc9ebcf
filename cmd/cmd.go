package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vaultmatch/vault-engine/api"
	"github.com/vaultmatch/vault-engine/api/handlers"
	"github.com/vaultmatch/vault-engine/config"
	"github.com/vaultmatch/vault-engine/engine"
	utils "github.com/vaultmatch/vault-engine/utils/viper"
	"github.com/vaultmatch/vault-engine/version"
)

var RootCmd = &cobra.Command{
	Use:   "vault-engine",
	Short: "Escrow vault engine",
	Long:  `Escrow engine that vaults deposits as orders and settles cross-order matches.`,
	Run: func(cmd *cobra.Command, args []string) {
		// If no arguments are provided, print usage information
		if len(args) == 0 {
			if err := cmd.Usage(); err != nil {
				log.Fatalf("Error printing usage: %v", err)
			}
		}
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the vault engine",
	Long:  `Initialize the vault engine by generating a config file with default values.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Config{}
		if err := viper.Unmarshal(&cfg); err != nil {
			log.Fatalf("failed to unmarshal config: %v", err)
		}

		// if db dir doesn't exist, create it
		if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
			if err := os.MkdirAll(cfg.DBPath, 0o755); err != nil {
				log.Fatalf("failed to create db directory: %v", err)
			}
		}

		if err := viper.WriteConfigAs(config.CfgFile); err != nil {
			log.Fatalf("failed to write config file: %v", err)
		}

		fmt.Printf("Config file created: %s\n", config.CfgFile)
		fmt.Println()
		fmt.Println("Edit the config file to set the correct values for your environment.")
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the vault engine",
	Long:  `Start the engine that escrows deposits, matches orders and settles them.`,
	Run: func(cmd *cobra.Command, args []string) {
		viper.AutomaticEnv()

		if err := viper.ReadInConfig(); err == nil {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}

		cfg := config.Config{}
		if err := viper.Unmarshal(&cfg); err != nil {
			log.Fatalf("failed to unmarshal config: %v", err)
		}

		logger, err := buildLogger(cfg.LogLevel)
		if err != nil {
			log.Fatalf("failed to build logger: %v", err)
		}

		// Ensure all logs are written
		defer logger.Sync() // nolint: errcheck

		eng, err := engine.New(cfg, logger)
		if err != nil {
			log.Fatalf("failed to create engine: %v", err)
		}

		if err := eng.Start(cmd.Context()); err != nil {
			log.Fatalf("failed to start engine: %v", err)
		}
		defer eng.Stop() // nolint: errcheck

		server := api.NewServer(
			handlers.NewVaultHandler(eng),
			handlers.NewOrderHandler(eng),
			handlers.NewWalletHandler(eng),
			cfg.ServerAddress,
			logger,
		)
		server.Start()
	},
}

func buildLogger(logLevel string) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.Set(logLevel); err != nil {
		return nil, fmt.Errorf("failed to set log level: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		level,
	))

	return logger, nil
}

var setCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "set a config value",
	Long:  `Update a single key in the config file, e.g. fees.provider_fee_num.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		home, err := homedir.Dir()
		if err != nil {
			log.Fatalf("failed to get home directory: %v", err)
		}

		defaultHomeDir := home + "/.vault-engine"
		config.CfgFile = defaultHomeDir + "/config.yaml"

		viper.SetConfigFile(config.CfgFile)
		err = viper.ReadInConfig()
		if err != nil {
			return
		}

		err = utils.UpdateViperConfig(args[0], args[1], viper.ConfigFileUsed())
		if err != nil {
			return
		}

		fmt.Printf(
			"%s set to %s, please restart the engine if it's running\n",
			args[0], args[1],
		)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of the vault engine",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.BuildVersion)
	},
}

func init() {
	RootCmd.CompletionOptions.DisableDefaultCmd = true
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(startCmd)
	RootCmd.AddCommand(setCmd)

	RootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(config.InitConfig)

	RootCmd.PersistentFlags().StringVar(&config.CfgFile, "config", "", "config file")
}
