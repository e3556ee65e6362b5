package history

import (
	"context"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/CoveMB/openzeppelin-upgrades/errors"
)

// PreviousRelease selects the release tag an upgrade should be checked
// against: among the semver-parseable tags starting with prefix, the greatest
// version strictly lower than current. Tags that do not parse as semver are
// ignored. Returns the tag name as it appears in the repository.
func (r *Repo) PreviousRelease(ctx context.Context, current, prefix string) (string, error) {
	currentVersion, err := semver.NewVersion(strings.TrimPrefix(current, prefix))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInvalidInput,
			"history: current version "+current+" is not semver")
	}

	tags, err := r.Tags(ctx, prefix)
	if err != nil {
		return "", err
	}

	var (
		bestTag     string
		bestVersion *semver.Version
	)
	for _, tag := range tags {
		version, parseErr := semver.NewVersion(strings.TrimPrefix(tag, prefix))
		if parseErr != nil {
			continue
		}
		if !version.LessThan(currentVersion) {
			continue
		}
		if bestVersion == nil || version.GreaterThan(bestVersion) {
			bestTag = tag
			bestVersion = version
		}
	}

	if bestVersion == nil {
		return "", errors.Newf(errors.CodeNoPreviousRelease,
			"history: no release tag lower than %s", current)
	}
	return bestTag, nil
}
