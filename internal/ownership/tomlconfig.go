package ownership

import (
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/arjunv/headlamp/schema"
)

// ProjectTOMLConfig models the subset of a TOML project manifest
// ownership needs: pyproject.toml's [tool.pytest.ini_options] testpaths
// (test root directories) and Cargo.toml's [package] name. Used as a
// fallback when a project's runner can't be interrogated (e.g. not yet
// built) and its own config happens to be TOML rather than JS/JSON.
type ProjectTOMLConfig struct {
	Tool struct {
		Pytest struct {
			IniOptions struct {
				TestPaths []string `toml:"testpaths"`
			} `toml:"ini_options"`
		} `toml:"pytest"`
	} `toml:"tool"`
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// LoadTOMLConfig parses a TOML project manifest for its test-root
// directories, per spec.md §4.5's "consulting the project's configuration"
// contract.
func LoadTOMLConfig(path string) (ProjectTOMLConfig, error) {
	var cfg ProjectTOMLConfig
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}

// FallbackFilter applies a TOML-derived project config's test-root globs
// directly against candidates when the runner itself can't be interrogated.
func FallbackFilter(project schema.Project, candidates []string) ([]string, error) {
	if !strings.HasSuffix(project.ConfigPath, ".toml") {
		return nil, nil
	}
	cfg, err := LoadTOMLConfig(project.ConfigPath)
	if err != nil {
		return nil, err
	}

	roots := cfg.Tool.Pytest.IniOptions.TestPaths
	if len(roots) == 0 {
		roots = []string{"tests"}
	}

	var owned []string
	for _, c := range candidates {
		rel, relErr := filepath.Rel(project.WorkingDirectory, c)
		if relErr != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		for _, root := range roots {
			if ok, _ := doublestar.Match(root+"/**", rel); ok {
				owned = append(owned, c)
				break
			}
		}
	}
	return owned, nil
}
