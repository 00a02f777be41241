package featureflag

import (
	"strings"

	"github.com/auroradev/aurora-cli/pkg/cmd/version"
	"github.com/spf13/viper"
)

func IsDev() bool {
	if viper.IsSet("feature.dev") {
		return viper.GetBool("feature.dev")
	}
	return strings.HasPrefix(version.Version, "dev") || version.Version == ""
}

// TargetLease serializes operations against one device or emulator.
func TargetLease() bool {
	if viper.IsSet("feature.target_lease") {
		return viper.GetBool("feature.target_lease")
	}
	return true
}

func LoadFeatureFlags(path string) error {
	viper.SetConfigName("config")
	viper.AddConfigPath("/etc/aurora/")
	viper.AddConfigPath(path)
	viper.SetEnvPrefix("aurora")
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig() // do not nead to fail if can't find config file

	return nil
}
