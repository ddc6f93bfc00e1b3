package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputName(t *testing.T) {
	assert.Equal(t, "cliente/client.exe", outputName("cliente/client", "windows"))
	assert.Equal(t, "cliente/client", outputName("cliente/client", "linux"))
}

func TestLdflags(t *testing.T) {
	client := component{Static: true, GUI: true}
	launcher := component{}

	tests := []struct {
		name string
		c    component
		goos string
		want string
	}{
		{"cliente windows", client, "windows", "-extldflags=-static -s -w -H=windowsgui"},
		{"cliente linux", client, "linux", "-s -w"},
		{"launcher windows", launcher, "windows", "-s -w"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ldflags(tt.c, tt.goos))
		})
	}
}
