package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqmeter/mqmeter/pkg/collector"
)

func TestParseTransport(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    collector.Transport
		wantErr string
	}{
		{"valid", "rabbitmq", collector.TransportRabbitMQ, ""},
		{"case insensitive", "RabbitMQ", collector.TransportRabbitMQ, ""},
		{"typo suggests closest", "rabitmq", "", `did you mean "rabbitmq"?`},
		{"typo in servicebus", "servicebuss", "", `did you mean "servicebus"?`},
		{"nothing close", "kafka", "", "supported:"},
		{"empty", "", "", "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTransport(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultOutputPath(t *testing.T) {
	end := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	assert.Equal(t,
		"throughput-report-acme-ltd-20240315T093000Z.json",
		defaultOutputPath("Acme Ltd", end))
	assert.Equal(t,
		"throughput-report-acme-20240315T093000Z.json",
		defaultOutputPath("--Acme!--", end))
}
