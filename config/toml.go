package config

import (
	"fmt"
	"os"
	"text/template"
)

const FlashRaceConfigTemplate = `server_port = {{ .ServerPort }}
metrics_enabled = {{ .MetricsEnabled }}
mint_server_url = "{{ .MintServerUrl }}"
race_timeout_ms = {{ .RaceTimeoutMs }}
request_timeout_ms = {{ .RequestTimeoutMs }}

[cadences]{{ range $k, $v := .Cadences }}
	[cadences.{{ $k }}]
	label = "{{ $v.Label }}"
	title = "{{ $v.Title }}"
	role = "{{ $v.Role }}"
	interval_ms = {{ $v.IntervalMs }}
	rpcs = [{{ range $i, $rpc := $v.Rpcs }}{{ if $i }}, {{ end }}"{{ $rpc }}"{{ end }}]
	client_type = "{{ $v.ClientType }}"
	block_tag = "{{ $v.BlockTag }}"
{{ end }}`

var configTemplate = template.Must(template.New("flashrace").Parse(FlashRaceConfigTemplate))

// WriteConfigFile renders cfg into a toml file at path. It refuses to overwrite an existing file.
func WriteConfigFile(path string, cfg *FlashRace) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot create config file %s: %w", path, err)
	}
	defer file.Close()

	return configTemplate.Execute(file, cfg)
}
