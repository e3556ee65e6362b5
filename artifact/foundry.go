package artifact

import (
	"encoding/json"
	"strings"

	"github.com/CoveMB/openzeppelin-upgrades/errors"
	"github.com/CoveMB/openzeppelin-upgrades/fs"
	"github.com/CoveMB/openzeppelin-upgrades/layout"
	"github.com/CoveMB/openzeppelin-upgrades/solast"
)

// foundryArtifact is the slice of a forge artifact file we consume. Forge
// emits storageLayout only when extra_output requests it, so both fields
// are optional.
type foundryArtifact struct {
	AST           json.RawMessage `json:"ast"`
	StorageLayout json.RawMessage `json:"storageLayout"`
}

// LoadFoundry reads a forge out tree: one <File>.sol directory per source
// file, one <Contract>.json per contract. Contracts without a storage layout
// section are recorded as skips.
func LoadFoundry(filesystem fs.Filesystem, dir string) (*Set, error) {
	entries, err := filesystem.ReadDir(dir)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidArtifact,
			"failed to read foundry out directory", map[string]interface{}{"dir": dir})
	}

	set := &Set{Kind: KindFoundry}
	seen := map[string]string{}

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sol") {
			continue
		}
		solDir := join(dir, entry.Name())

		files, err := filesystem.ReadDir(solDir)
		if err != nil {
			return nil, errors.WrapWithContext(err, errors.CodeInvalidArtifact,
				"failed to read foundry source directory", map[string]interface{}{"dir": solDir})
		}

		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
				continue
			}
			path := join(solDir, file.Name())
			name := strings.TrimSuffix(file.Name(), ".json")

			art, skip, err := loadFoundryContract(filesystem, path, name)
			if err != nil {
				return nil, err
			}
			if skip != nil {
				set.Skipped = append(set.Skipped, *skip)
				continue
			}

			if prev, ok := seen[art.FQN()]; ok {
				return nil, errors.New(errors.CodeDuplicateContract, "duplicate contract "+art.FQN()).
					WithContext("first", prev).
					WithContext("second", path)
			}
			seen[art.FQN()] = path
			set.Artifacts = append(set.Artifacts, art)
		}
	}

	set.sortArtifacts()
	return set, nil
}

func loadFoundryContract(filesystem fs.Filesystem, path, name string) (*Artifact, *Skip, error) {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, nil, errors.WrapWithContext(err, errors.CodeInvalidArtifact,
			"failed to read artifact file", map[string]interface{}{"path": path})
	}

	var wire foundryArtifact
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, nil, errors.WrapWithContext(err, errors.CodeInvalidArtifact,
			"failed to decode artifact file", map[string]interface{}{"path": path})
	}

	if len(wire.StorageLayout) == 0 || string(wire.StorageLayout) == "null" {
		return nil, &Skip{Name: name, Path: path, Reason: "no storage layout in artifact"}, nil
	}

	lay, err := layout.Parse(wire.StorageLayout)
	if err != nil {
		return nil, nil, errors.WrapWithContext(err, errors.CodeLayoutDecodeFailed,
			"failed to parse storage layout", map[string]interface{}{"path": path})
	}

	art := &Artifact{Name: name, Layout: lay}

	if len(wire.AST) > 0 && string(wire.AST) != "null" {
		unit, err := solast.Parse(wire.AST)
		if err != nil {
			return nil, nil, errors.WrapWithContext(err, errors.CodeASTDecodeFailed,
				"failed to parse artifact AST", map[string]interface{}{"path": path})
		}
		art.AST = unit
		art.SourcePath = unit.AbsolutePath
		if err := enrich(art); err != nil {
			return nil, nil, err
		}
	}

	if art.Layout.Contract == "" {
		art.Layout.Contract = art.FQN()
	}

	return art, nil, nil
}
