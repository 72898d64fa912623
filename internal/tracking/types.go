package tracking

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Millis is an epoch timestamp in milliseconds. The tracking server encodes
// int64 fields either as JSON numbers or as strings depending on its version.
type Millis int64

func (m *Millis) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*m = 0
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*m = Millis(v)
	return nil
}

// Tag is a key/value annotation on a model or version.
type Tag struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// RegisteredModel is a named model in the registry.
type RegisteredModel struct {
	Name                 string         `json:"name" yaml:"name"`
	Description          string         `json:"description,omitempty" yaml:"description,omitempty"`
	CreationTimestamp    Millis         `json:"creation_timestamp" yaml:"creation_timestamp"`
	LastUpdatedTimestamp Millis         `json:"last_updated_timestamp" yaml:"last_updated_timestamp"`
	LatestVersions       []ModelVersion `json:"latest_versions,omitempty" yaml:"latest_versions,omitempty"`
	Tags                 []Tag          `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ModelVersion is one registered version of a model.
type ModelVersion struct {
	Name                 string `json:"name" yaml:"name"`
	Version              string `json:"version" yaml:"version"`
	CreationTimestamp    Millis `json:"creation_timestamp" yaml:"creation_timestamp"`
	LastUpdatedTimestamp Millis `json:"last_updated_timestamp" yaml:"last_updated_timestamp"`
	UserID               string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	CurrentStage         string `json:"current_stage,omitempty" yaml:"current_stage,omitempty"`
	Description          string `json:"description,omitempty" yaml:"description,omitempty"`
	Source               string `json:"source,omitempty" yaml:"source,omitempty"`
	RunID                string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Status               string `json:"status,omitempty" yaml:"status,omitempty"`
	RunLink              string `json:"run_link,omitempty" yaml:"run_link,omitempty"`
	Tags                 []Tag  `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type searchRegisteredModelsResponse struct {
	RegisteredModels []RegisteredModel `json:"registered_models"`
	NextPageToken    string            `json:"next_page_token"`
}

type getRegisteredModelResponse struct {
	RegisteredModel RegisteredModel `json:"registered_model"`
}

type searchModelVersionsResponse struct {
	ModelVersions []ModelVersion `json:"model_versions"`
	NextPageToken string         `json:"next_page_token"`
}

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

var _ json.Unmarshaler = (*Millis)(nil)
