package app

import (
	"log"

	"CityVision/cliente/internal/camera"
	"CityVision/shared/util"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

// updateCamera atualiza a câmera baseado no input.
func (a *App) updateCamera() {
	dt := rl.GetFrameTime()

	a.Cam.HandleInput(dt)
	a.Cam.Update(dt)

	// Alternar projeção com P
	if rl.IsKeyPressed(rl.KeyP) {
		if a.Cam.Mode == camera.ModePerspective {
			a.Cam.SetMode(camera.ModeOrthographic)
			log.Println("[Camera] Modo Ortográfico")
		} else {
			a.Cam.SetMode(camera.ModePerspective)
			log.Println("[Camera] Modo Perspectiva")
		}
	}
}

// updateInput processa entradas de teclado e mouse gerais.
func (a *App) updateInput() {
	if rl.IsKeyPressed(rl.KeyF3) {
		a.Config.ShowDebugInfo = !a.Config.ShowDebugInfo
	}

	// Pular Loading manualmente
	if a.Loading && rl.IsKeyPressed(rl.KeySpace) {
		log.Println("[App] Loading pulado manualmente pelo usuário.")
		a.finishLoading("pulado")
	}

	if rl.IsKeyPressed(rl.KeyF4) {
		a.Config.WireframeMode = !a.Config.WireframeMode
		a.renderer.Wireframe = a.Config.WireframeMode
	}

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	// Teclas 1..9 alternam a visibilidade das camadas
	for i := 0; i < 9; i++ {
		if rl.IsKeyPressed(rl.KeyOne + int32(i)) {
			if l, ok := a.world.ToggleLayer(i); ok {
				log.Printf("[App] Camada %q visível: %v", l.ID, l.Visible)
				if !l.Visible && a.world.Selected() == nil {
					a.lastPick = nil
				}
			}
		}
	}

	if a.State != StatePaused {
		a.handlePicking()

		if rl.IsKeyPressed(rl.KeyF) {
			a.focusSelection()
		}
		if rl.IsKeyPressed(rl.KeyBackspace) {
			if err := a.world.ClearSelection(); err != nil {
				log.Printf("[App] Falha ao limpar seleção: %v", err)
			}
			a.lastPick = nil
		}
	}

	// ESC: Alternar Pausa
	if rl.IsKeyPressed(rl.KeyEscape) {
		if a.State == StateViewing {
			a.State = StatePaused
			log.Println("[App] Pausado")
		} else if a.State == StatePaused {
			a.State = StateViewing
			log.Println("[App] Retomando")
		}
	}
}

// handlePicking seleciona com o botão esquerdo. Um clique só conta se a câmera
// e o mouse não se moveram entre apertar e soltar.
func (a *App) handlePicking() {
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		a.pressCamPos = util.FloorVec(a.Cam.Position())
		a.pressMouse = rl.GetMousePosition()
		return
	}
	if !rl.IsMouseButtonReleased(rl.MouseLeftButton) {
		return
	}

	mouse := rl.GetMousePosition()
	if util.FloorVec(a.Cam.Position()) != a.pressCamPos || rl.Vector2Distance(mouse, a.pressMouse) > 4 {
		return
	}

	rlRay := rl.GetMouseRay(mouse, a.Cam.RLCamera)
	ray := util.NewRay(
		mgl32.Vec3{rlRay.Position.X, rlRay.Position.Y, rlRay.Position.Z},
		mgl32.Vec3{rlRay.Direction.X, rlRay.Direction.Y, rlRay.Direction.Z},
	)

	info, err := a.world.Pick(ray)
	if err != nil {
		log.Printf("[App] Falha na seleção: %v", err)
	}
	if info == nil || info.Object == nil {
		return
	}
	a.lastPick = info
}
