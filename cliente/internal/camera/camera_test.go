package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestFocus(t *testing.T) {
	c := New(60)

	assert.True(t, c.Focus(mgl32.Vec3{10, 5, -3}, 200, 60))
	assert.Equal(t, mgl32.Vec3{10, 5, -3}, c.TargetLookAt)
	assert.Equal(t, float32(200), c.TargetZoom)

	// converge após atualizações suficientes
	for i := 0; i < 200; i++ {
		c.Update(1.0 / 60)
	}
	pos := c.Position()
	assert.InDelta(t, 200, pos.Sub(mgl32.Vec3{10, 5, -3}).Len(), 0.5)
	// 60 graus acima do horizonte
	assert.InDelta(t, 200*math.Sin(60*math.Pi/180), pos.Y()-5, 0.5)
}

func TestUpdateSettlesOnTarget(t *testing.T) {
	c := New(60)
	assert.True(t, c.Focus(mgl32.Vec3{123.25, 0, -47.5}, 300, 45))
	assert.NotEqual(t, c.TargetLookAt, c.CurrentLookAt)
	for i := 0; i < 600; i++ {
		c.Update(1.0 / 60)
	}
	assert.Equal(t, c.TargetLookAt, c.CurrentLookAt)
}

func TestFocusIgnoresInvalidPoints(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name  string
		point mgl32.Vec3
		dist  float32
	}{
		{"nan", mgl32.Vec3{nan, nan, nan}, 100},
		{"inf", mgl32.Vec3{0, inf, 0}, 100},
		{"distância zero", mgl32.Vec3{1, 2, 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(60)
			before := c.TargetLookAt
			assert.False(t, c.Focus(tt.point, tt.dist, 45))
			assert.Equal(t, before, c.TargetLookAt)
		})
	}
}

func TestFocusClampsZoomAndTilt(t *testing.T) {
	c := New(60)
	c.Focus(mgl32.Vec3{}, 1e6, 120)
	assert.Equal(t, c.MaxZoom, c.TargetZoom)
	assert.InDelta(t, -89*math.Pi/180, c.TargetAngleX, 1e-5)
}
