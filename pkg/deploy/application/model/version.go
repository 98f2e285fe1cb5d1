package model

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Version = string

const VersionVariable = "VERSION"

func NewVersion(buildNumber string) (Version, error) {
	buildNumber = strings.TrimSpace(buildNumber)
	if buildNumber == "" {
		return "", errors.New("build number not provided")
	}
	if _, err := strconv.ParseUint(buildNumber, 10, 64); err != nil {
		return "", errors.Errorf("build number %q is not a non-negative integer", buildNumber)
	}
	return "v" + buildNumber, nil
}
