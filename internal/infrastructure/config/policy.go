package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/policy"
)

// LoadPolicy reads a policy file over the built-in defaults. The YAML
// parser also accepts JSON. An empty path returns the defaults; a missing,
// malformed or invalid file is a configuration error.
func LoadPolicy(path string) (policy.Config, error) {
	if path == "" {
		return policy.Default(), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return policy.Config{}, errors.NewConfigurationError("POLICY_NOT_FOUND",
			fmt.Sprintf("policy file %s could not be opened", path)).WithCause(err)
	}
	if info.IsDir() {
		return policy.Config{}, errors.NewConfigurationError("POLICY_NOT_FOUND",
			fmt.Sprintf("policy path %s is a directory", path))
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(policy.Default(), "koanf"), nil); err != nil {
		return policy.Config{}, fmt.Errorf("loading policy defaults: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return policy.Config{}, errors.NewConfigurationError("POLICY_MALFORMED",
			fmt.Sprintf("policy file %s could not be parsed", path)).WithCause(err)
	}

	var p policy.Config
	if err := k.UnmarshalWithConf("", &p, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return policy.Config{}, errors.NewConfigurationError("POLICY_MALFORMED",
			fmt.Sprintf("policy file %s has values of the wrong type", path)).WithCause(err)
	}

	if err := p.Validate(); err != nil {
		return policy.Config{}, err
	}
	return p, nil
}
