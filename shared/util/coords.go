package util

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray representa um raio no espaço 3D (Origem e Direção).
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// NewRay cria um raio com a direção normalizada.
func NewRay(origin, direction mgl32.Vec3) Ray {
	if direction.Len() > 0 {
		direction = direction.Normalize()
	}
	return Ray{Origin: origin, Direction: direction}
}

// At retorna o ponto do raio na distância t.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Transform aplica uma matriz ao raio (origem como ponto, direção como vetor).
func (r Ray) Transform(m mgl32.Mat4) Ray {
	origin := mgl32.TransformCoordinate(r.Origin, m)
	dir := mgl32.TransformNormal(r.Direction, m)
	return Ray{Origin: origin, Direction: dir}
}

// String retorna a representação em string do raio.
func (r Ray) String() string {
	return fmt.Sprintf("Ray{O:(%.2f, %.2f, %.2f) D:(%.3f, %.3f, %.3f)}",
		r.Origin.X(), r.Origin.Y(), r.Origin.Z(),
		r.Direction.X(), r.Direction.Y(), r.Direction.Z())
}

// TransformPoint aplica a matriz de mundo a um ponto, com divisão por w.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, m)
}

// IsFinite verifica se todas as componentes do vetor são números finitos.
// Centroides degenerados (NaN/Inf) devem ser ignorados pela câmera e pelo renderizador.
func IsFinite(v mgl32.Vec3) bool {
	for _, c := range v {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// FloorVec arredonda cada componente para baixo (usado para comparar posições de câmera).
func FloorVec(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Floor(float64(v.X()))),
		float32(math.Floor(float64(v.Y()))),
		float32(math.Floor(float64(v.Z()))),
	}
}

// Between verifica se um valor está entre um limite inferior e superior.
func Between(lower, t, upper float32) bool {
	return t >= lower && t <= upper
}
