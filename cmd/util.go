package cmd

import (
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"golang.org/x/xerrors"
)

// parseIDList parses a comma separated list of node identifiers.
func parseIDList(input string) ([]uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	var ids []uint64
	for _, field := range strings.Split(input, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return nil, xerrors.Errorf("invalid node id %q: %w", field, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// askPath prompts for a file path and reports whether one was given.
func askPath(message string) (string, bool) {
	var path string
	if err := survey.AskOne(&survey.Input{Message: message}, &path); err != nil {
		return "", false
	}
	path = strings.TrimSpace(path)
	return path, path != ""
}
