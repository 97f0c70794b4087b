package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesikahq/patient-dashboard/internal/patient"
)

func sampleRoster() []patient.Patient {
	roster := []patient.Patient{
		{Name: "Jane Doe", Gender: "Female", Age: 28},
		{Name: "John Roe", Gender: "Male", Age: 54},
	}
	patient.Ingest(roster)
	return roster
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, write(&buf, "json", sampleRoster()))

	var out []patient.Patient
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "Jane Doe", out[0].Name)
	assert.NotEmpty(t, out[0].ID)
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, write(&buf, "yaml", sampleRoster()))

	var out []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "John Roe", out[1]["name"])
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, write(&bytes.Buffer{}, "xml", sampleRoster()))
}
