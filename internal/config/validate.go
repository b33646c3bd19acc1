package config

import (
	"fmt"
	"sort"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

// validateChoice ensures value is one of the keys of valid
func validateChoice(key, value string, valid map[string]bool) error {
	if valid[value] {
		return nil
	}

	choices := make([]string, 0, len(valid))
	for k := range valid {
		choices = append(choices, k)
	}
	sort.Strings(choices)

	return fmt.Errorf("unsupported %s '%s': supported values are %s", key, value, strings.Join(choices, ", "))
}
