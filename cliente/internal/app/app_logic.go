package app

import (
	"errors"
	"fmt"
	"log"

	"CityVision/cliente/internal/world"
	"CityVision/shared/util"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

// processMesherResults consome resultados do mesher: decompõe o tile na sua camada
// e envia a geometria para a GPU. No máximo MaxTilesPerFrame por frame, dentro de
// um orçamento de tempo para evitar stutter.
func (a *App) processMesherResults() {
	timeBudget := 0.004 // 4 milissegundos
	limit := a.Config.MaxTilesPerFrame
	if a.Loading {
		timeBudget = 0.250
		limit *= 8
	}

	startTime := rl.GetTime()

	for n := 0; n < limit; n++ {
		if rl.GetTime()-startTime > timeBudget {
			return
		}

		select {
		case res := <-a.mesher.Results():
			if res.Err != nil {
				log.Printf("[App] Tile %d descartado: %v", res.TileID, res.Err)
				a.countLoaded()
				continue
			}
			if cur := a.renderer.ModelVersion(res.TileID); cur > res.MTime {
				log.Printf("[App] Tile %d: versão %d mais antiga que a carregada (%d)", res.TileID, res.MTime, cur)
				continue
			}
			if a.lastPick != nil && a.lastPick.Tile != nil && a.lastPick.Tile.ID == res.TileID {
				a.lastPick = nil
			}

			reg, err := a.world.Apply(res)
			if errors.Is(err, world.ErrTileEvicted) {
				log.Printf("[App] Tile %d removido pelo servidor; resultado descartado", res.TileID)
				continue
			}
			if err != nil {
				log.Printf("[App] Falha ao carregar tile %d: %v", res.TileID, err)
				a.countLoaded()
				continue
			}
			a.renderer.UploadResult(res)
			log.Printf("[Renderer] Upload do tile %d (camada %q, %d malhas, %d objetos)",
				res.TileID, res.Layer, len(res.Meshes), reg.Len())

			if !a.initialFocused && len(res.Meshes) > 0 {
				a.focusFirstTile(res.Meshes[0].Vertices)
			}
			a.countLoaded()
		default:
			a.checkLoadingTimeout()
			return
		}
	}
}

// countLoaded avança a barra de progresso da carga inicial.
func (a *App) countLoaded() {
	if !a.Loading {
		return
	}
	a.LoadingProcessed++
	if a.LoadingExpected > 0 {
		a.LoadingProgress = 0.1 + 0.9*float32(a.LoadingProcessed)/float32(a.LoadingExpected)
		a.LoadingStatus = fmt.Sprintf("Montando tiles: %d/%d", a.LoadingProcessed, a.LoadingExpected)
		if a.LoadingProcessed >= a.LoadingExpected {
			a.finishLoading("todos os tiles carregados")
		}
	}
}

func (a *App) checkLoadingTimeout() {
	if !a.Loading || a.LoadingExpected == 0 {
		return
	}
	if rl.GetTime()-a.LoadingStartTime > 20.0 {
		a.finishLoading("tempo limite")
	}
}

func (a *App) finishLoading(reason string) {
	a.Loading = false
	a.LoadingProgress = 1.0
	if a.State == StateLoading {
		a.State = StateViewing
	}
	log.Printf("[App] Loading concluído (%s): %d tiles, %d objetos em %.1fs",
		reason, a.world.TileCount(), a.world.ObjectCount(), rl.GetTime()-a.LoadingStartTime)
}

// focusFirstTile centraliza a câmera no primeiro tile recebido.
func (a *App) focusFirstTile(vertices []float32) {
	if len(vertices) < 3 {
		return
	}
	lo := mgl32.Vec3{vertices[0], vertices[1], vertices[2]}
	hi := lo
	for i := 3; i+2 < len(vertices); i += 3 {
		p := mgl32.Vec3{vertices[i], vertices[i+1], vertices[i+2]}
		lo = util.MinVec(lo, p)
		hi = util.MaxVec(hi, p)
	}
	center := lo.Add(hi).Mul(0.5)
	center[1] = 0
	a.Cam.SetTarget(center)
	a.initialFocused = true
}

// focusSelection leva a câmera ao centroide do objeto selecionado.
func (a *App) focusSelection() {
	target, ok := a.world.FocusTarget()
	if !ok {
		log.Println("[App] Nada selecionado (ou objeto sem centroide) para focar")
		return
	}
	if a.Cam.Focus(target, a.Config.RangeFocus, a.Config.TiltFocus) {
		log.Printf("[Camera] Foco em (%.1f, %.1f, %.1f)", target.X(), target.Y(), target.Z())
	}
}
