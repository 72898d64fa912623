package main

import (
	"fmt"

	"github.com/eugenenazirov/mlflow-aws/internal/output"
)

type configRecord struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Default     any    `json:"default" yaml:"default"`
	IsDefault   bool   `json:"is_default" yaml:"is_default"`
	Source      string `json:"source" yaml:"source"`
	Description string `json:"description" yaml:"description"`
}

func (c *commands) configList(format string) int {
	renderer, err := c.app.Renderer(format)
	if err != nil {
		return c.fail(1, "Error: %v", err)
	}
	entries := c.app.Config().List()

	if renderer.Format() == output.FormatTable {
		for _, e := range entries {
			line := fmt.Sprintf("%s: %s", e.Key.Name, e.Value)
			if !e.IsDefault {
				line += fmt.Sprintf(" (default: %s)", e.Key.Default)
			}
			fmt.Fprintln(c.stdout, line)
		}
		return 0
	}

	records := make([]any, 0, len(entries))
	for _, e := range entries {
		records = append(records, configRecord{
			Key:         e.Key.Name,
			Value:       e.Value.Interface(),
			Default:     e.Key.Default.Interface(),
			IsDefault:   e.IsDefault,
			Source:      e.Source.String(),
			Description: e.Key.Description,
		})
	}
	if err := renderer.List(c.stdout, nil, records); err != nil {
		return c.fail(1, "Error: %v", err)
	}
	return 0
}

func (c *commands) configGet(key string) int {
	v, err := c.app.Config().Get(key)
	if err != nil {
		return c.fail(1, "Error: %v", err)
	}
	if !v.IsSet() {
		fmt.Fprintln(c.stdout, v)
		return 0
	}
	fmt.Fprintln(c.stdout, v.Raw())
	return 0
}

func (c *commands) configSet(key, value string) int {
	resolver := c.app.Config()
	if err := resolver.Set(key, value); err != nil {
		return c.fail(1, "Unable to set value of config %q to %q: %v", key, value, err)
	}
	fmt.Fprintf(c.stdout, "Value of %q has been updated in the config file %s\n", key, resolver.Location())
	return 0
}

func (c *commands) configUnset(key string) int {
	resolver := c.app.Config()
	if err := resolver.Unset(key); err != nil {
		return c.fail(1, "Unable to unset value of config %q: %v", key, err)
	}
	fmt.Fprintf(c.stdout, "Value of %q has been removed from the config file %s\n", key, resolver.Location())
	return 0
}

func (c *commands) configLocation() int {
	fmt.Fprintln(c.stdout, c.app.Config().Location())
	return 0
}
