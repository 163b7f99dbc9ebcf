package config

import (
	"log"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

type Config struct {
	ServerAddress string `mapstructure:"server_address"`
	DBPath        string `mapstructure:"db_path"`
	AssetsFile    string `mapstructure:"assets_file"`

	Operator OperatorConfig `mapstructure:"operator"`
	Fees     FeeConfig      `mapstructure:"fees"`

	LogLevel string `mapstructure:"log_level"`
}

type OperatorConfig struct {
	Identity       string `mapstructure:"identity"`
	InitialBalance string `mapstructure:"initial_balance"`
}

// FeeConfig is the commission schedule stamped onto every deposit. Both cuts
// are simple fractions; a zero numerator disables the cut.
type FeeConfig struct {
	ProviderFeeNum   uint64 `mapstructure:"provider_fee_num"`
	ProviderFeeDenom uint64 `mapstructure:"provider_fee_denom"`
	MatcherFeeNum    uint64 `mapstructure:"matcher_fee_num"`
	MatcherFeeDenom  uint64 `mapstructure:"matcher_fee_denom"`
}

const (
	defaultServerAddress   = ":8000"
	defaultLogLevel        = "info"
	defaultOperator        = "operator"
	defaultInitialBalance  = "1000000000000"
	defaultProviderFeeNum  = 3
	defaultProviderDenom   = 1000
	defaultMatcherFeeNum   = 1
	defaultMatcherDenom    = 1000
	defaultAssetsFileName  = "assets.yaml"
	defaultDBDirName       = "db"
	defaultConfigDirSuffix = "/.vault-engine"
)

func InitConfig() {
	// Set default values
	// Find home directory.
	home, err := homedir.Dir()
	if err != nil {
		log.Fatalf("failed to get home directory: %v", err)
	}
	defaultHomeDir := home + defaultConfigDirSuffix

	viper.SetDefault("server_address", defaultServerAddress)
	viper.SetDefault("log_level", defaultLogLevel)
	viper.SetDefault("db_path", defaultHomeDir+"/"+defaultDBDirName)
	viper.SetDefault("assets_file", defaultHomeDir+"/"+defaultAssetsFileName)

	viper.SetDefault("operator.identity", defaultOperator)
	viper.SetDefault("operator.initial_balance", defaultInitialBalance)

	viper.SetDefault("fees.provider_fee_num", defaultProviderFeeNum)
	viper.SetDefault("fees.provider_fee_denom", defaultProviderDenom)
	viper.SetDefault("fees.matcher_fee_num", defaultMatcherFeeNum)
	viper.SetDefault("fees.matcher_fee_denom", defaultMatcherDenom)

	viper.SetConfigType("yaml")
	if CfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(CfgFile)
	} else {
		CfgFile = defaultHomeDir + "/config.yaml"
		viper.AddConfigPath(defaultHomeDir)
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
	}
}

var CfgFile string
