package camera

import (
	"math"

	"CityVision/shared/util"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

// Mode define o tipo de projeção estritamente.
type Mode int

const (
	ModePerspective Mode = iota
	ModeOrthographic
)

// Abaixo desta distância (ao quadrado) o alvo é considerado alcançado.
const settleDistSq = 1e-4

// CameraController gerencia a lógica de movimentação e projeção da câmera.
// Órbita em torno de um ponto alvo, com zoom que afeta a velocidade.
type CameraController struct {
	// Estado interno do Raylib
	RLCamera rl.Camera3D

	// Configurações
	Mode         Mode
	FOV          float32
	MinZoom      float32
	MaxZoom      float32
	MoveSpeed    float32
	RotateSpeed  float32
	ZoomSpeed    float32
	SmoothFactor float32 // 0.0 a 1.0 (quanto menor, mais suave/lento)

	// Estado Alvo (para interpolação suave)
	TargetLookAt mgl32.Vec3
	TargetZoom   float32
	TargetAngleY float32 // Azimute (radianos)
	TargetAngleX float32 // Elevação (radianos, negativa olhando para baixo)

	// Estado Atual (interpolado)
	CurrentLookAt mgl32.Vec3
	CurrentZoom   float32
}

// New cria um novo controlador de câmera.
func New(fov float32) *CameraController {
	c := &CameraController{
		Mode:         ModePerspective,
		FOV:          fov,
		MinZoom:      10.0,
		MaxZoom:      2000.0,
		MoveSpeed:    120.0,
		RotateSpeed:  2.0,
		ZoomSpeed:    40.0,
		SmoothFactor: 0.1,

		TargetZoom:   400.0,
		TargetAngleY: 45.0 * rl.Deg2rad,
		TargetAngleX: -35.0 * rl.Deg2rad,
	}

	c.CurrentLookAt = c.TargetLookAt
	c.CurrentZoom = c.TargetZoom

	c.RLCamera = rl.Camera3D{
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       fov,
		Projection: rl.CameraPerspective,
	}

	c.UpdateWait(1.0)
	return c
}

// SetTarget define o alvo da câmera imediatamente (sem suavização).
func (c *CameraController) SetTarget(pos mgl32.Vec3) {
	c.TargetLookAt = pos
	c.CurrentLookAt = pos
	c.UpdateWait(1.0)
}

// Focus move a câmera suavemente para olhar o ponto a uma distância e inclinação
// (graus acima do horizonte). Pontos não finitos são ignorados e retornam false.
func (c *CameraController) Focus(point mgl32.Vec3, distance, tiltDeg float32) bool {
	if !util.IsFinite(point) || distance <= 0 {
		return false
	}
	c.TargetLookAt = point
	c.TargetZoom = clamp(distance, c.MinZoom, c.MaxZoom)
	c.TargetAngleX = -clamp(tiltDeg, 5, 89) * rl.Deg2rad
	return true
}

// Update calcula a nova posição da câmera com base no tempo (dt).
// Deve ser chamado a cada frame.
func (c *CameraController) Update(dt float32) {
	factor := c.SmoothFactor * 60.0 * dt // Normaliza para 60 FPS
	if factor > 1.0 {
		factor = 1.0
	}

	c.CurrentLookAt = c.CurrentLookAt.Add(c.TargetLookAt.Sub(c.CurrentLookAt).Mul(factor))
	if util.DistSq(c.CurrentLookAt, c.TargetLookAt) < settleDistSq {
		c.CurrentLookAt = c.TargetLookAt
	}
	c.CurrentZoom = util.Lerp(c.CurrentZoom, c.TargetZoom, factor)

	c.UpdateWait(dt)
}

// UpdateWait recalcula a posição da câmera baseada nos ângulos e zoom atuais.
func (c *CameraController) UpdateWait(dt float32) {
	dist := c.CurrentZoom

	// No ortográfico o "zoom" é a escala (Fovy); a câmera fica longe para não cortar a geometria.
	if c.Mode == ModeOrthographic {
		c.RLCamera.Fovy = c.CurrentZoom * 0.5
		c.RLCamera.Projection = rl.CameraOrthographic
		dist = c.MaxZoom
	} else {
		c.RLCamera.Fovy = c.FOV
		c.RLCamera.Projection = rl.CameraPerspective
	}

	pos := c.CurrentLookAt.Add(orbitOffset(c.TargetAngleX, c.TargetAngleY, dist))
	c.RLCamera.Position = toRL(pos)
	c.RLCamera.Target = toRL(c.CurrentLookAt)
}

// Position retorna a posição atual da câmera no mundo.
func (c *CameraController) Position() mgl32.Vec3 {
	p := c.RLCamera.Position
	return mgl32.Vec3{p.X, p.Y, p.Z}
}

// SetMode alterna entre Perspectiva e Ortográfica.
func (c *CameraController) SetMode(mode Mode) {
	c.Mode = mode
	c.UpdateWait(0)
}

// HandleInput processa entrada do usuário. Retorna true se houve input de movimento.
// A órbita usa o botão direito; o esquerdo fica livre para seleção.
func (c *CameraController) HandleInput(dt float32) bool {
	moved := false

	wheel := rl.GetMouseWheelMove()
	if wheel != 0 {
		moved = true
		c.TargetZoom = clamp(c.TargetZoom-wheel*c.ZoomSpeed, c.MinZoom, c.MaxZoom)
	}

	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		if delta.X != 0 || delta.Y != 0 {
			moved = true
		}
		c.TargetAngleY -= delta.X * c.RotateSpeed * 0.005
		c.TargetAngleX -= delta.Y * c.RotateSpeed * 0.005

		// Limite entre -89 graus (quase topo) e -5 graus (quase horizonte)
		c.TargetAngleX = clamp(c.TargetAngleX, -89.0*rl.Deg2rad, -5.0*rl.Deg2rad)
	}

	// Vetores Forward e Right projetados no plano XZ (chão)
	forward := c.TargetLookAt.Sub(c.Position())
	forward[1] = 0
	if forward.Len() == 0 {
		return moved
	}
	forward = forward.Normalize()
	right := forward.Cross(mgl32.Vec3{0, 1, 0}).Normalize()

	// Quanto mais longe, mais rápido.
	currentSpeed := c.MoveSpeed * (c.CurrentZoom / 400.0) * dt

	move := mgl32.Vec3{}
	if rl.IsKeyDown(rl.KeyW) {
		move = move.Add(forward)
	}
	if rl.IsKeyDown(rl.KeyS) {
		move = move.Sub(forward)
	}
	if rl.IsKeyDown(rl.KeyD) {
		move = move.Add(right)
	}
	if rl.IsKeyDown(rl.KeyA) {
		move = move.Sub(right)
	}

	if move.Len() > 0 {
		c.TargetLookAt = c.TargetLookAt.Add(move.Normalize().Mul(currentSpeed))
		moved = true
	}

	return moved
}

// orbitOffset converte coordenadas esféricas (elevação, azimute, raio) em deslocamento.
func orbitOffset(angleX, angleY, dist float32) mgl32.Vec3 {
	cosX := float32(math.Cos(float64(angleX)))
	sinX := float32(math.Sin(float64(angleX)))
	cosY := float32(math.Cos(float64(angleY)))
	sinY := float32(math.Sin(float64(angleY)))

	return mgl32.Vec3{
		dist * cosX * sinY,
		dist * -sinX, // sinX negativo pois olhamos de cima para baixo
		dist * cosX * cosY,
	}
}

func toRL(v mgl32.Vec3) rl.Vector3 {
	return rl.Vector3{X: v.X(), Y: v.Y(), Z: v.Z()}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
