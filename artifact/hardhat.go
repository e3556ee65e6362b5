package artifact

import (
	"encoding/json"
	"strings"

	"github.com/CoveMB/openzeppelin-upgrades/errors"
	"github.com/CoveMB/openzeppelin-upgrades/fs"
	"github.com/CoveMB/openzeppelin-upgrades/layout"
	"github.com/CoveMB/openzeppelin-upgrades/solast"
)

// buildInfo is the slice of a hardhat build-info file we consume: the full
// solc output, keyed by source path and contract name.
type buildInfo struct {
	Output struct {
		Contracts map[string]map[string]struct {
			StorageLayout json.RawMessage `json:"storageLayout"`
		} `json:"contracts"`
		Sources map[string]struct {
			AST json.RawMessage `json:"ast"`
		} `json:"sources"`
	} `json:"output"`
}

// LoadHardhat reads a hardhat artifact tree. It accepts either the artifacts
// directory (containing build-info/) or a build-info directory directly, and
// merges all build-info files it finds. Later files win for sources recompiled
// across builds; the same contract appearing in two files under different
// source paths is a duplicate.
func LoadHardhat(filesystem fs.Filesystem, dir string) (*Set, error) {
	infoDir := dir
	if ok, err := filesystem.Exists(join(dir, "build-info")); err == nil && ok {
		infoDir = join(dir, "build-info")
	}

	entries, err := filesystem.ReadDir(infoDir)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidArtifact,
			"failed to read build-info directory", map[string]interface{}{"dir": infoDir})
	}

	set := &Set{Kind: KindHardhat}
	byFQN := map[string]*Artifact{}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := join(infoDir, entry.Name())
		if err := loadBuildInfo(filesystem, path, set, byFQN); err != nil {
			return nil, err
		}
	}

	set.sortArtifacts()
	return set, nil
}

func loadBuildInfo(filesystem fs.Filesystem, path string, set *Set, byFQN map[string]*Artifact) error {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeInvalidArtifact,
			"failed to read build-info file", map[string]interface{}{"path": path})
	}

	var info buildInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return errors.WrapWithContext(err, errors.CodeInvalidArtifact,
			"failed to decode build-info file", map[string]interface{}{"path": path})
	}

	for sourcePath, contracts := range info.Output.Contracts {
		var unit *solast.SourceUnit
		if src, ok := info.Output.Sources[sourcePath]; ok && len(src.AST) > 0 && string(src.AST) != "null" {
			unit, err = solast.Parse(src.AST)
			if err != nil {
				return errors.WrapWithContext(err, errors.CodeASTDecodeFailed,
					"failed to parse source AST", map[string]interface{}{
						"path":   path,
						"source": sourcePath,
					})
			}
		}

		for name, out := range contracts {
			if len(out.StorageLayout) == 0 || string(out.StorageLayout) == "null" {
				set.Skipped = append(set.Skipped, Skip{
					Name:   name,
					Path:   path,
					Reason: "no storage layout in build-info output for " + sourcePath,
				})
				continue
			}

			lay, err := layout.Parse(out.StorageLayout)
			if err != nil {
				return errors.WrapWithContext(err, errors.CodeLayoutDecodeFailed,
					"failed to parse storage layout", map[string]interface{}{
						"path":     path,
						"contract": sourcePath + ":" + name,
					})
			}

			art := &Artifact{
				Name:       name,
				SourcePath: sourcePath,
				Layout:     lay,
				AST:        unit,
			}
			if art.Layout.Contract == "" {
				art.Layout.Contract = art.FQN()
			}
			if unit != nil {
				if err := enrich(art); err != nil {
					return err
				}
			}

			if prev, ok := byFQN[art.FQN()]; ok {
				// Same contract recompiled in a later build-info file.
				*prev = *art
				continue
			}
			byFQN[art.FQN()] = art
			set.Artifacts = append(set.Artifacts, art)
		}
	}

	return nil
}
