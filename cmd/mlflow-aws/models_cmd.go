package main

import (
	"context"
	"errors"
	"strings"

	"github.com/eugenenazirov/mlflow-aws/internal/output"
	"github.com/eugenenazirov/mlflow-aws/internal/tracking"
)

var modelColumns = []output.Column{
	{Name: "Model Name", Value: func(r any) string { return r.(tracking.RegisteredModel).Name }},
	{Name: "Tags", Value: func(r any) string { return formatTags(r.(tracking.RegisteredModel).Tags) }},
	{Name: "Created at", Value: func(r any) string {
		return output.Timestamp(int64(r.(tracking.RegisteredModel).CreationTimestamp))
	}},
	{Name: "Updated at", Value: func(r any) string {
		return output.Timestamp(int64(r.(tracking.RegisteredModel).LastUpdatedTimestamp))
	}},
	{Name: "Latest versions", Value: func(r any) string { return formatLatest(r.(tracking.RegisteredModel).LatestVersions) }},
}

var versionColumns = []output.Column{
	{Name: "Model Name", Value: func(r any) string { return r.(tracking.ModelVersion).Name }},
	{Name: "Version", Value: func(r any) string { return r.(tracking.ModelVersion).Version }},
	{Name: "Tags", Value: func(r any) string { return formatTags(r.(tracking.ModelVersion).Tags) }},
	{Name: "Created at", Value: func(r any) string {
		return output.Timestamp(int64(r.(tracking.ModelVersion).CreationTimestamp))
	}},
	{Name: "Updated at", Value: func(r any) string {
		return output.Timestamp(int64(r.(tracking.ModelVersion).LastUpdatedTimestamp))
	}},
	{Name: "User ID", Value: func(r any) string { return r.(tracking.ModelVersion).UserID }},
	{Name: "Current stage", Value: func(r any) string { return r.(tracking.ModelVersion).CurrentStage }},
	{Name: "Description", Value: func(r any) string { return r.(tracking.ModelVersion).Description }},
	{Name: "Source", Value: func(r any) string { return r.(tracking.ModelVersion).Source }},
	{Name: "Run ID", Value: func(r any) string { return r.(tracking.ModelVersion).RunID }},
	{Name: "Status", Value: func(r any) string { return r.(tracking.ModelVersion).Status }},
}

func formatTags(tags []tracking.Tag) string {
	lines := make([]string, 0, len(tags))
	for _, t := range tags {
		lines = append(lines, t.Key+": "+t.Value)
	}
	return strings.Join(lines, "\n")
}

func formatLatest(versions []tracking.ModelVersion) string {
	lines := make([]string, 0, len(versions))
	for _, v := range versions {
		stage := v.CurrentStage
		if stage == "" || stage == "None" {
			stage = "Latest"
		}
		lines = append(lines, stage+": "+v.Version)
	}
	return strings.Join(lines, "\n")
}

func (c *commands) modelsList(ctx context.Context, format string) int {
	renderer, err := c.app.Renderer(format)
	if err != nil {
		return c.fail(1, "Error: %v", err)
	}
	client, err := c.app.TrackingClient()
	if err != nil {
		return c.fail(1, "Error: %v", err)
	}

	models, err := client.SearchRegisteredModels(ctx, "")
	if err != nil {
		return c.fail(1, "Unable to list models: %v", err)
	}
	records := make([]any, 0, len(models))
	for _, m := range models {
		records = append(records, m)
	}
	if err := renderer.List(c.stdout, modelColumns, records); err != nil {
		return c.fail(1, "Error: %v", err)
	}
	return 0
}

func (c *commands) modelsDescribe(ctx context.Context, name, format string) int {
	renderer, err := c.app.Renderer(format)
	if err != nil {
		return c.fail(1, "Error: %v", err)
	}
	client, err := c.app.TrackingClient()
	if err != nil {
		return c.fail(1, "Error: %v", err)
	}

	model, err := client.GetRegisteredModel(ctx, name)
	if errors.Is(err, tracking.ErrNotFound) {
		return c.fail(2, "Model with name %s has not been found", name)
	}
	if err != nil {
		return c.fail(1, "Unable to get model %s: %v", name, err)
	}
	if err := renderer.Single(c.stdout, modelColumns, model); err != nil {
		return c.fail(1, "Error: %v", err)
	}
	return 0
}

func (c *commands) modelsListVersions(ctx context.Context, name, format string) int {
	renderer, err := c.app.Renderer(format)
	if err != nil {
		return c.fail(1, "Error: %v", err)
	}
	client, err := c.app.TrackingClient()
	if err != nil {
		return c.fail(1, "Error: %v", err)
	}

	versions, err := client.SearchModelVersions(ctx, name)
	if err != nil {
		return c.fail(1, "Unable to list model %s versions: %v", name, err)
	}
	records := make([]any, 0, len(versions))
	for _, v := range versions {
		records = append(records, v)
	}
	if err := renderer.List(c.stdout, versionColumns, records); err != nil {
		return c.fail(1, "Error: %v", err)
	}
	return 0
}
